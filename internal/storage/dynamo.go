package storage

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	skPrefix         = "MSG#"
	deleteBatchSize  = 25
	deleteRetryLimit = 3
)

// DynamoAdapter stores each message under a composite key:
// partition CHAT#{chat_id}, sort MSG#{timestamp_ms}. Built for serverless
// deployments where process memory is wiped between invocations.
type DynamoAdapter struct {
	client *dynamodb.Client
	table  string
}

func NewDynamo(ctx context.Context, region, table string) (*DynamoAdapter, error) {
	if table == "" {
		return nil, fmt.Errorf("dynamo table name is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &DynamoAdapter{client: dynamodb.NewFromConfig(cfg), table: table}, nil
}

func chatKey(chatID int64) string {
	return fmt.Sprintf("CHAT#%d", chatID)
}

func messageKey(ts int64) string {
	return fmt.Sprintf("%s%d", skPrefix, ts)
}

func (d *DynamoAdapter) SaveMessage(ctx context.Context, chatID int64, username, content string) error {
	return d.put(ctx, chatID, RoleUser, username, content)
}

func (d *DynamoAdapter) SaveResponse(ctx context.Context, chatID int64, content string) error {
	return d.put(ctx, chatID, RoleAssistant, "", content)
}

func (d *DynamoAdapter) put(ctx context.Context, chatID int64, role, username, content string) error {
	ts := nowMillis()
	item := map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: chatKey(chatID)},
		"SK":        &types.AttributeValueMemberS{Value: messageKey(ts)},
		"Type":      &types.AttributeValueMemberS{Value: "Message"},
		"From":      &types.AttributeValueMemberS{Value: role},
		"Content":   &types.AttributeValueMemberS{Value: content},
		"Timestamp": &types.AttributeValueMemberN{Value: strconv.FormatInt(ts, 10)},
	}
	if username != "" {
		item["Username"] = &types.AttributeValueMemberS{Value: username}
	}
	_, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put message for chat %d: %w", chatID, err)
	}
	return nil
}

func (d *DynamoAdapter) GetConversation(ctx context.Context, chatID int64, limit int) []Message {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: chatKey(chatID)},
			":sk": &types.AttributeValueMemberS{Value: skPrefix},
		},
		ConsistentRead: aws.Bool(true),
	}
	if limit > 0 {
		// Newest first, reversed below to chronological order.
		input.ScanIndexForward = aws.Bool(false)
		input.Limit = aws.Int32(int32(limit))
	}

	var items []map[string]types.AttributeValue
	for {
		out, err := d.client.Query(ctx, input)
		if err != nil {
			log.Printf("dynamo: query conversation for chat %d: %v", chatID, err)
			return nil
		}
		items = append(items, out.Items...)
		if limit > 0 && len(items) >= limit {
			items = items[:limit]
			break
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	msgs := make([]Message, 0, len(items))
	for _, it := range items {
		msgs = append(msgs, itemToMessage(it))
	}
	if limit > 0 {
		reverseMessages(msgs)
	}
	return msgs
}

func itemToMessage(item map[string]types.AttributeValue) Message {
	msg := Message{
		Role:     stringAttr(item, "From"),
		Username: stringAttr(item, "Username"),
		Content:  stringAttr(item, "Content"),
	}
	if v, ok := item["Timestamp"].(*types.AttributeValueMemberN); ok {
		ts, err := strconv.ParseInt(v.Value, 10, 64)
		if err == nil {
			msg.Timestamp = ts
		}
	}
	return msg
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

// ResetConversation enumerates every sort key under the chat's partition and
// issues batched deletes. Failures are surfaced: a silent miss here would
// leave stale history the user believes is gone.
func (d *DynamoAdapter) ResetConversation(ctx context.Context, chatID int64) error {
	keys, err := d.collectKeys(ctx, chatID)
	if err != nil {
		log.Printf("dynamo: reset conversation for chat %d: %v", chatID, err)
		return err
	}
	for _, batch := range chunkKeys(keys, deleteBatchSize) {
		if err := d.deleteBatch(ctx, batch); err != nil {
			log.Printf("dynamo: reset conversation for chat %d: %v", chatID, err)
			return fmt.Errorf("reset conversation for chat %d: %w", chatID, err)
		}
	}
	return nil
}

func (d *DynamoAdapter) collectKeys(ctx context.Context, chatID int64) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: chatKey(chatID)},
		},
		ProjectionExpression: aws.String("PK, SK"),
	}
	var keys []map[string]types.AttributeValue
	for {
		out, err := d.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list message keys: %w", err)
		}
		for _, it := range out.Items {
			keys = append(keys, map[string]types.AttributeValue{
				"PK": it["PK"],
				"SK": it["SK"],
			})
		}
		if len(out.LastEvaluatedKey) == 0 {
			return keys, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (d *DynamoAdapter) deleteBatch(ctx context.Context, keys []map[string]types.AttributeValue) error {
	writes := make([]types.WriteRequest, 0, len(keys))
	for _, k := range keys {
		writes = append(writes, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: k}})
	}
	for attempt := 0; attempt < deleteRetryLimit; attempt++ {
		out, err := d.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{d.table: writes},
		})
		if err != nil {
			return fmt.Errorf("batch delete: %w", err)
		}
		writes = out.UnprocessedItems[d.table]
		if len(writes) == 0 {
			return nil
		}
	}
	return fmt.Errorf("batch delete: %d items unprocessed after %d attempts", len(writes), deleteRetryLimit)
}

func chunkKeys(keys []map[string]types.AttributeValue, size int) [][]map[string]types.AttributeValue {
	var chunks [][]map[string]types.AttributeValue
	for len(keys) > 0 {
		n := size
		if len(keys) < n {
			n = len(keys)
		}
		chunks = append(chunks, keys[:n])
		keys = keys[n:]
	}
	return chunks
}
