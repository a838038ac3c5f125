package storage

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestDynamoKeyLayout(t *testing.T) {
	if got := chatKey(42); got != "CHAT#42" {
		t.Errorf("chatKey: want CHAT#42, got %q", got)
	}
	if got := messageKey(1700000000123); got != "MSG#1700000000123" {
		t.Errorf("messageKey: want MSG#1700000000123, got %q", got)
	}
}

func TestItemToMessage(t *testing.T) {
	item := map[string]types.AttributeValue{
		"From":      &types.AttributeValueMemberS{Value: RoleUser},
		"Username":  &types.AttributeValueMemberS{Value: "alice"},
		"Content":   &types.AttributeValueMemberS{Value: "hello"},
		"Timestamp": &types.AttributeValueMemberN{Value: "1700000000123"},
	}
	msg := itemToMessage(item)
	if msg.Role != RoleUser || msg.Username != "alice" || msg.Content != "hello" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.Timestamp != 1700000000123 {
		t.Errorf("timestamp: want 1700000000123, got %d", msg.Timestamp)
	}

	// Assistant items carry no Username attribute.
	delete(item, "Username")
	if got := itemToMessage(item).Username; got != "" {
		t.Errorf("missing username attr: want empty, got %q", got)
	}
}

func TestChunkKeys(t *testing.T) {
	keys := make([]map[string]types.AttributeValue, 57)
	chunks := chunkKeys(keys, deleteBatchSize)
	if len(chunks) != 3 {
		t.Fatalf("want 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 25 || len(chunks[1]) != 25 || len(chunks[2]) != 7 {
		t.Errorf("unexpected chunk sizes: %d, %d, %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	if got := chunkKeys(nil, deleteBatchSize); got != nil {
		t.Errorf("empty input: want no chunks, got %d", len(got))
	}
}
