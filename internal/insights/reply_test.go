package insights

import (
	"errors"
	"testing"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantParsed bool
		wantObject string
	}{
		{
			name:       "object embedded in prose",
			text:       `Here is your summary: {"analysis":"ok","topCategories":["Food"],"concerns":[],"recommendation":"save more"}`,
			wantParsed: true,
			wantObject: `{"analysis":"ok","topCategories":["Food"],"concerns":[],"recommendation":"save more"}`,
		},
		{
			name:       "markdown fenced",
			text:       "```json\n{\"summary\": \"fine\"}\n```",
			wantParsed: true,
			wantObject: `{"summary": "fine"}`,
		},
		{
			name:       "nested objects use the last brace",
			text:       `ok {"a": {"b": 1}} done`,
			wantParsed: true,
			wantObject: `{"a": {"b": 1}}`,
		},
		{name: "no braces", text: "Spending looks fine this month.", wantParsed: false},
		{name: "closing brace first", text: "} nothing {", wantParsed: false},
		{name: "invalid json", text: `{"analysis": ok}`, wantParsed: false},
		{name: "two objects", text: `{"a":1} and {"b":2}`, wantParsed: false},
		{name: "empty", text: "", wantParsed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ParseReply(tt.text)
			if r.Parsed() != tt.wantParsed {
				t.Fatalf("Parsed() = %v, want %v (err: %v)", r.Parsed(), tt.wantParsed, r.Err)
			}
			if r.Raw != tt.text {
				t.Errorf("Raw = %q, want original text", r.Raw)
			}
			if tt.wantParsed && string(r.Object) != tt.wantObject {
				t.Errorf("Object = %s, want %s", r.Object, tt.wantObject)
			}
		})
	}
}

func TestReply_Decode(t *testing.T) {
	var out struct {
		Analysis string `json:"analysis"`
	}
	if err := ParseReply(`x {"analysis":"ok"} y`).Decode(&out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if out.Analysis != "ok" {
		t.Errorf("Analysis = %q", out.Analysis)
	}

	err := ParseReply("no json here").Decode(&out)
	if !errors.Is(err, ErrUnparsed) {
		t.Errorf("Decode() on unparsed reply = %v, want ErrUnparsed", err)
	}

	var wrongType struct {
		Analysis int `json:"analysis"`
	}
	if err := ParseReply(`{"analysis":"ok"}`).Decode(&wrongType); err == nil {
		t.Error("expected a type mismatch error")
	}
}
