//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/FedericoTs/LinkedinAnalytics/application/services"
	"github.com/FedericoTs/LinkedinAnalytics/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideMetrics,
	ProvideTracing,
	ProvideTracer,
	ProvideKeyValueStore,
	ProvideConnectionStore,
	ProvideCache,
	ProvideNeo4jSource,
	ProvideGraphSource,
	ProvideIdentityClient,
	ProvideCompletionService,
	ProvideEventPublisher,
	ProvideTokenValidator,
	ProvideSessionRegistry,
	ProvideAuthService,
	ProvideNetworkService,
	ProvideContentService,
	services.NewAnalyticsService,
	ProvideRouter,
	ProvidePusherFactory,
	ProvideWebSocketHandler,
	ProvideConfigWatcher,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The returned cleanup
// releases drivers, background goroutines and the trace exporter.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
