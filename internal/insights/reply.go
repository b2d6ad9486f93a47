package insights

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ReplyStatus tags whether a JSON object was recovered from a model reply.
type ReplyStatus string

const (
	ReplyParsed   ReplyStatus = "parsed"
	ReplyUnparsed ReplyStatus = "unparsed"
)

// Reply is the tagged result of scanning a free-text model reply for JSON.
type Reply struct {
	Status ReplyStatus
	Object json.RawMessage
	Raw    string
	Err    error
}

// ParseReply extracts the substring from the first "{" to the last "}" of
// text and keeps it if it is valid JSON.
func ParseReply(text string) Reply {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return Reply{Status: ReplyUnparsed, Raw: text, Err: ErrUnparsed}
	}

	candidate := text[start : end+1]
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return Reply{Status: ReplyUnparsed, Raw: text, Err: fmt.Errorf("ParseReply: unmarshal object: %w", err)}
	}

	return Reply{Status: ReplyParsed, Object: json.RawMessage(candidate), Raw: text}
}

// Parsed reports whether a JSON object was found.
func (r Reply) Parsed() bool {
	return r.Status == ReplyParsed
}

// Decode unmarshals the recovered object into v.
func (r Reply) Decode(v any) error {
	if !r.Parsed() {
		if r.Err != nil {
			return r.Err
		}
		return ErrUnparsed
	}
	if err := json.Unmarshal(r.Object, v); err != nil {
		return fmt.Errorf("Decode: %w", err)
	}
	return nil
}
