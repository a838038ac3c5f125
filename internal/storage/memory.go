package storage

import (
	"context"
	"sync"
)

// MemoryAdapter keeps conversations in a per-process map. Nothing survives a
// restart; it is the default backend and the one used in tests.
type MemoryAdapter struct {
	mu            sync.RWMutex
	conversations map[int64][]Message
}

func NewMemory() *MemoryAdapter {
	return &MemoryAdapter{conversations: make(map[int64][]Message)}
}

func (m *MemoryAdapter) SaveMessage(_ context.Context, chatID int64, username, content string) error {
	m.append(chatID, Message{Role: RoleUser, Username: username, Content: content, Timestamp: nowMillis()})
	return nil
}

func (m *MemoryAdapter) SaveResponse(_ context.Context, chatID int64, content string) error {
	m.append(chatID, Message{Role: RoleAssistant, Content: content, Timestamp: nowMillis()})
	return nil
}

func (m *MemoryAdapter) append(chatID int64, msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations[chatID] = append(m.conversations[chatID], msg)
}

func (m *MemoryAdapter) GetConversation(_ context.Context, chatID int64, limit int) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.conversations[chatID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

func (m *MemoryAdapter) ResetConversation(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversations, chatID)
	return nil
}
