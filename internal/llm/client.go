package llm

import "context"

// Message is one conversation turn passed to the completion provider.
// Role is either "user" or "assistant".
type Message struct {
	Role    string
	Content string
}

// Client produces a completion for a prompt given prior conversation turns.
// Implementations make a single attempt per call; retries are the caller's
// decision. Failures are returned as *Error so callers can distinguish
// failure classes.
type Client interface {
	Complete(ctx context.Context, prompt string, history []Message) (string, error)
}
