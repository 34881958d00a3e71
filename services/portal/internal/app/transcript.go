package app

import (
	"sync"

	"vietbuild/pkg/domain"
)

// Transcript is an append-only chat history held in memory only.
type Transcript struct {
	mu       sync.Mutex
	messages []domain.ChatMessage
}

func NewTranscript(initial ...domain.ChatMessage) *Transcript {
	return &Transcript{messages: append([]domain.ChatMessage(nil), initial...)}
}

func (t *Transcript) Append(msg domain.ChatMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
}

// Reset replaces the history with initial.
func (t *Transcript) Reset(initial ...domain.ChatMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append([]domain.ChatMessage(nil), initial...)
}

func (t *Transcript) Messages() []domain.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}
