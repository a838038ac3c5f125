package storage

import (
	"context"
	"sync"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single stored conversation turn. Immutable once saved.
type Message struct {
	Role      string `json:"role"`
	Username  string `json:"username,omitempty"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Adapter abstracts per-chat conversation persistence.
// Implementations can be in-memory, SQLite, DynamoDB, etc.
//
// GetConversation returns at most limit messages (limit <= 0 means all) in
// ascending chronological order. It deliberately has no error result: context
// is a best-effort enhancement, so backends log read failures and return an
// empty slice. ResetConversation failures, by contrast, must reach the caller.
// Implementations must be safe for concurrent use across chat ids.
type Adapter interface {
	SaveMessage(ctx context.Context, chatID int64, username, content string) error
	SaveResponse(ctx context.Context, chatID int64, content string) error
	GetConversation(ctx context.Context, chatID int64, limit int) []Message
	ResetConversation(ctx context.Context, chatID int64) error
}

var clockMu sync.Mutex
var clockLast int64

// nowMillis returns a non-decreasing wall-clock timestamp in milliseconds.
// Message identity is (chat_id, timestamp); ties between near-simultaneous
// writes are tolerated.
func nowMillis() int64 {
	clockMu.Lock()
	defer clockMu.Unlock()
	t := time.Now().UnixMilli()
	if t < clockLast {
		t = clockLast
	}
	clockLast = t
	return t
}

func reverseMessages(msgs []Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
