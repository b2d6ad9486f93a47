package insights

import (
	"context"
	"time"
)

// Generator is the text-generation collaborator: prompt in, text out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ReplyRecord is one prompt/reply exchange kept for auditing.
type ReplyRecord struct {
	ID        string    `json:"id"`
	Flow      string    `json:"flow"`
	UserID    string    `json:"user_id"`
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`
	Reply     string    `json:"reply"`
	Parsed    bool      `json:"parsed"`
	CreatedAt time.Time `json:"created_at"`
}

// ReplyArchive stores raw model replies.
type ReplyArchive interface {
	ArchiveReply(ctx context.Context, rec ReplyRecord) error
}

// DisabledGenerator stands in when no model is configured. Every call fails
// with ErrGenerationDisabled, so the weekly flow uses its fallback text.
type DisabledGenerator struct{}

func (DisabledGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "", ErrGenerationDisabled
}

var _ Generator = DisabledGenerator{}
