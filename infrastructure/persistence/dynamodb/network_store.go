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

	"github.com/FedericoTs/LinkedinAnalytics/domain/network"
)

// networkItem is a user's imported network snapshot
type networkItem struct {
	PK         string            `dynamodbav:"PK"`
	SK         string            `dynamodbav:"SK"`
	EntityType string            `dynamodbav:"EntityType"`
	UserID     string            `dynamodbav:"UserID"`
	Nodes      []network.RawNode `dynamodbav:"Nodes"`
	Edges      []network.RawEdge `dynamodbav:"Edges"`
	UpdatedAt  string            `dynamodbav:"UpdatedAt"`
}

// NetworkStore keeps one network snapshot per user and serves it as a
// graph source
type NetworkStore struct {
	client    API
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewNetworkStore creates a network snapshot store
func NewNetworkStore(client API, tableName string, logger *zap.Logger) *NetworkStore {
	return &NetworkStore{client: client, tableName: tableName, logger: logger, now: time.Now}
}

func networkKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "USER#" + userID},
		"SK": &types.AttributeValueMemberS{Value: "NETWORK"},
	}
}

// FetchNetwork returns the user's snapshot; a missing snapshot is an empty
// network
func (s *NetworkStore) FetchNetwork(ctx context.Context, userID string) (network.RawNetwork, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       networkKey(userID),
	})
	if err != nil {
		return network.RawNetwork{}, fmt.Errorf("%w: %v", network.ErrDataSourceUnavailable, err)
	}
	if result.Item == nil {
		return network.RawNetwork{}, nil
	}

	var item networkItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return network.RawNetwork{}, fmt.Errorf("failed to unmarshal network: %w", err)
	}
	return network.RawNetwork{Nodes: item.Nodes, Edges: item.Edges}, nil
}

// SaveNetwork replaces the user's snapshot
func (s *NetworkStore) SaveNetwork(ctx context.Context, userID string, raw network.RawNetwork) error {
	av, err := attributevalue.MarshalMap(networkItem{
		PK:         "USER#" + userID,
		SK:         "NETWORK",
		EntityType: "NETWORK",
		UserID:     userID,
		Nodes:      raw.Nodes,
		Edges:      raw.Edges,
		UpdatedAt:  s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal network: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to save network: %w", err)
	}

	s.logger.Info("Saved network snapshot",
		zap.String("user_id", userID),
		zap.Int("nodes", len(raw.Nodes)),
		zap.Int("edges", len(raw.Edges)),
	)
	return nil
}
