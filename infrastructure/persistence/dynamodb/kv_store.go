package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// kvItem is one key-value document in the application table
type kvItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Value      []byte `dynamodbav:"Value"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
	TTL        int64  `dynamodbav:"TTL,omitempty"`
}

const kvSortKey = "VALUE"

// KVStore implements ports.KeyValueStore on a single DynamoDB table
type KVStore struct {
	client    API
	tableName string
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewKVStore creates a store. A positive ttl sets the table's TTL attribute
// on every write.
func NewKVStore(client API, tableName string, ttl time.Duration, logger *zap.Logger) *KVStore {
	return &KVStore{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

func kvKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "KV#" + key},
		"SK": &types.AttributeValueMemberS{Value: kvSortKey},
	}
}

// Get returns the value under key
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            kvKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get item: %w", err)
	}
	if result.Item == nil {
		return nil, false, nil
	}

	var item kvItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	if item.TTL > 0 && s.now().Unix() >= item.TTL {
		// DynamoDB deletes expired items lazily
		return nil, false, nil
	}
	return item.Value, true, nil
}

// Set stores value under key
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	now := s.now()
	item := kvItem{
		PK:         "KV#" + key,
		SK:         kvSortKey,
		EntityType: "KV",
		Value:      value,
		UpdatedAt:  now.UTC().Format(time.RFC3339),
	}
	if s.ttl > 0 {
		item.TTL = now.Add(s.ttl).Unix()
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}

	s.logger.Debug("Stored value", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

// Remove deletes key
func (s *KVStore) Remove(ctx context.Context, key string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       kvKey(key),
	}); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}
