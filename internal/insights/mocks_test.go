package insights

import (
	"context"
	"sync"
)

// MockGenerator is a Generator whose behavior is set per test.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "", nil
}

func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func replyWith(text string) *MockGenerator {
	return &MockGenerator{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return text, nil
		},
	}
}

// MockReplyArchive records archived replies.
type MockReplyArchive struct {
	ArchiveReplyFunc func(ctx context.Context, rec ReplyRecord) error

	mu      sync.Mutex
	records []ReplyRecord
}

func (m *MockReplyArchive) ArchiveReply(ctx context.Context, rec ReplyRecord) error {
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()

	if m.ArchiveReplyFunc != nil {
		return m.ArchiveReplyFunc(ctx, rec)
	}
	return nil
}
