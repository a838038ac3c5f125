package relay

import (
	"context"
	"log"
	"strings"

	"mistral-chatter/internal/llm"
	"mistral-chatter/internal/storage"
)

const defaultHistoryLimit = 5

// User-facing fallback texts, one per failure class so operators can match
// user reports against server logs.
const (
	fallbackTimeout    = "Sorry, the AI service took too long to answer. Please try again."
	fallbackConnection = "Sorry, I can't reach the AI service right now. Please try again later."
	fallbackAuth       = "Sorry, the AI service rejected my credentials. Please notify the operator."
	fallbackGeneric    = "Sorry, an error occurred while generating the response. Please try again later."
	fallbackUnexpected = "Sorry, an unexpected error occurred. Please try again later."
)

// Relay sequences one inbound message through persistence, bounded context
// retrieval and completion. It always produces a reply: persistence errors
// are logged and skipped, provider failures map to fallback texts, and
// anything else is stopped at the boundary.
type Relay struct {
	store        storage.Adapter
	client       llm.Client
	historyLimit int
}

func New(store storage.Adapter, client llm.Client, historyLimit int) *Relay {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &Relay{store: store, client: client, historyLimit: historyLimit}
}

func (r *Relay) ProcessMessage(ctx context.Context, chatID int64, username, text string) (reply string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("relay: panic while processing message for chat %d: %v", chatID, rec)
			reply = fallbackUnexpected
		}
	}()

	log.Printf("relay: processing message from %s (chat_id=%d)", username, chatID)

	// The user still deserves a reply if the history write failed.
	if err := r.store.SaveMessage(ctx, chatID, username, text); err != nil {
		log.Printf("relay: save message for chat %d: %v", chatID, err)
	}

	history := r.store.GetConversation(ctx, chatID, r.historyLimit)
	turns := historyTurns(history, text)

	completion, err := r.client.Complete(ctx, text, turns)
	if err != nil {
		log.Printf("relay: completion for chat %d: %v", chatID, err)
		completion = fallbackFor(err)
	}
	if strings.TrimSpace(completion) == "" {
		completion = fallbackGeneric
	}

	if err := r.store.SaveResponse(ctx, chatID, completion); err != nil {
		log.Printf("relay: save response for chat %d: %v", chatID, err)
	}
	return completion
}

// historyTurns maps stored messages to provider turns. The just-saved copy of
// the active prompt is dropped so the same turn is not submitted as both
// history and prompt.
func historyTurns(msgs []storage.Message, prompt string) []llm.Message {
	if n := len(msgs); n > 0 && msgs[n-1].Role == storage.RoleUser && msgs[n-1].Content == prompt {
		msgs = msgs[:n-1]
	}
	turns := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		role := storage.RoleUser
		if m.Role == storage.RoleAssistant {
			role = storage.RoleAssistant
		}
		turns = append(turns, llm.Message{Role: role, Content: m.Content})
	}
	return turns
}

func fallbackFor(err error) string {
	switch llm.KindOf(err) {
	case llm.FailureTimeout:
		return fallbackTimeout
	case llm.FailureConnection:
		return fallbackConnection
	case llm.FailureAuth:
		return fallbackAuth
	default:
		return fallbackGeneric
	}
}
