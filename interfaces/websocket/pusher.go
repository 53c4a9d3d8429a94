// Package websocket serves layout frames over API Gateway WebSocket APIs.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwTypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
)

// ErrGone is returned when the client behind a connection has disconnected
var ErrGone = errors.New("websocket connection is gone")

// ManagementAPI is the subset of the API Gateway management client in use
type ManagementAPI interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

var _ ManagementAPI = (*apigatewaymanagementapi.Client)(nil)

// GatewayPusher posts messages to API Gateway connections. Connections that
// turn out to be gone are removed from the store.
type GatewayPusher struct {
	api         ManagementAPI
	connections ports.ConnectionStore
	logger      *zap.Logger
}

var _ ports.Pusher = (*GatewayPusher)(nil)

// NewGatewayPusher creates a pusher. connections may be nil.
func NewGatewayPusher(api ManagementAPI, connections ports.ConnectionStore, logger *zap.Logger) *GatewayPusher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatewayPusher{api: api, connections: connections, logger: logger}
}

// NewManagementClient builds a management client for a WebSocket stage
// endpoint such as "abc.execute-api.eu-west-1.amazonaws.com/prod"
func NewManagementClient(cfg aws.Config, endpoint string) *apigatewaymanagementapi.Client {
	if !strings.HasPrefix(endpoint, "https://") && !strings.HasPrefix(endpoint, "http://") {
		endpoint = "https://" + endpoint
	}
	return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
}

// Push sends payload to one connection
func (p *GatewayPusher) Push(ctx context.Context, connectionID string, payload []byte) error {
	_, err := p.api.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         payload,
	})
	if err == nil {
		return nil
	}

	if isGone(err) {
		p.logger.Info("Connection gone, removing", zap.String("connectionID", connectionID))
		if p.connections != nil {
			if delErr := p.connections.Delete(ctx, connectionID); delErr != nil {
				p.logger.Warn("Failed to remove stale connection",
					zap.String("connectionID", connectionID),
					zap.Error(delErr),
				)
			}
		}
		return ErrGone
	}
	return fmt.Errorf("failed to post to connection %s: %w", connectionID, err)
}

func isGone(err error) bool {
	var gone *apigwTypes.GoneException
	if errors.As(err, &gone) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "GoneException"
}
