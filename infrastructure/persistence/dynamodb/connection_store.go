package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
)

const (
	// DefaultConnectionIndex is the user index of the connections table
	DefaultConnectionIndex = "connection-id-index"
	connectionTTL          = 24 * time.Hour
)

// connectionItem uses the composite key PK=CONNECTION#<id>, SK=METADATA
type connectionItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	GSI1PK       string `dynamodbav:"GSI1PK"`
	GSI1SK       string `dynamodbav:"GSI1SK"`
	ConnectionID string `dynamodbav:"ConnectionID"`
	UserID       string `dynamodbav:"UserID"`
	ConnectedAt  string `dynamodbav:"ConnectedAt"`
	Endpoint     string `dynamodbav:"Endpoint"`
	TTL          int64  `dynamodbav:"TTL"`
}

// ConnectionStore implements ports.ConnectionStore
type ConnectionStore struct {
	client    API
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewConnectionStore creates a connection store
func NewConnectionStore(client API, tableName, indexName string, logger *zap.Logger) *ConnectionStore {
	if indexName == "" {
		indexName = DefaultConnectionIndex
	}
	return &ConnectionStore{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

func connectionKey(connectionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "CONNECTION#" + connectionID},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

// Save stores the connection with a 24 hour TTL unless one is set
func (s *ConnectionStore) Save(ctx context.Context, conn ports.Connection) error {
	if conn.TTL == 0 {
		conn.TTL = conn.ConnectedAt.Add(connectionTTL).Unix()
	}

	av, err := attributevalue.MarshalMap(connectionItem{
		PK:           "CONNECTION#" + conn.ConnectionID,
		SK:           "METADATA",
		GSI1PK:       "USER#" + conn.UserID,
		GSI1SK:       "CONNECTION#" + conn.ConnectionID,
		ConnectionID: conn.ConnectionID,
		UserID:       conn.UserID,
		ConnectedAt:  conn.ConnectedAt.UTC().Format(time.RFC3339),
		Endpoint:     conn.Endpoint,
		TTL:          conn.TTL,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to store connection: %w", err)
	}

	s.logger.Info("Stored connection",
		zap.String("connection_id", conn.ConnectionID),
		zap.String("user_id", conn.UserID),
	)
	return nil
}

// Get returns a connection or nil when unknown
func (s *ConnectionStore) Get(ctx context.Context, connectionID string) (*ports.Connection, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       connectionKey(connectionID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item connectionItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection: %w", err)
	}
	conn := item.toConnection()
	return &conn, nil
}

// Delete removes a connection
func (s *ConnectionStore) Delete(ctx context.Context, connectionID string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       connectionKey(connectionID),
	}); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	return nil
}

// ListByUser queries the user index for every open connection of userID
func (s *ConnectionStore) ListByUser(ctx context.Context, userID string) ([]ports.Connection, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value("USER#" + userID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var conns []ports.Connection
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query connections: %w", err)
		}

		var items []connectionItem
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal connections: %w", err)
		}
		for _, item := range items {
			conns = append(conns, item.toConnection())
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return conns, nil
}

func (i connectionItem) toConnection() ports.Connection {
	connectedAt, _ := time.Parse(time.RFC3339, i.ConnectedAt)
	return ports.Connection{
		ConnectionID: i.ConnectionID,
		UserID:       i.UserID,
		ConnectedAt:  connectedAt,
		Endpoint:     i.Endpoint,
		TTL:          i.TTL,
	}
}
