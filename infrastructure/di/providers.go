package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
	"github.com/FedericoTs/LinkedinAnalytics/application/services"
	"github.com/FedericoTs/LinkedinAnalytics/domain/auth"
	"github.com/FedericoTs/LinkedinAnalytics/domain/content"
	"github.com/FedericoTs/LinkedinAnalytics/domain/network/layout"
	"github.com/FedericoTs/LinkedinAnalytics/infrastructure/completion/openai"
	"github.com/FedericoTs/LinkedinAnalytics/infrastructure/config"
	"github.com/FedericoTs/LinkedinAnalytics/infrastructure/graphsource"
	neo4jsource "github.com/FedericoTs/LinkedinAnalytics/infrastructure/graphsource/neo4j"
	"github.com/FedericoTs/LinkedinAnalytics/infrastructure/identity/supabase"
	"github.com/FedericoTs/LinkedinAnalytics/infrastructure/messaging/eventbridge"
	"github.com/FedericoTs/LinkedinAnalytics/infrastructure/persistence/dynamodb"
	"github.com/FedericoTs/LinkedinAnalytics/infrastructure/persistence/memory"
	"github.com/FedericoTs/LinkedinAnalytics/interfaces/http/rest"
	"github.com/FedericoTs/LinkedinAnalytics/interfaces/http/rest/middleware"
	"github.com/FedericoTs/LinkedinAnalytics/interfaces/websocket"
	pkgauth "github.com/FedericoTs/LinkedinAnalytics/pkg/auth"
	"github.com/FedericoTs/LinkedinAnalytics/pkg/observability"
)

// ErrCompletionUnavailable is returned by content generation when no API
// key is configured
var ErrCompletionUnavailable = errors.New("content generation is not configured")

// ProvideLogLevel parses the configured log level. Unknown levels fall back
// to info.
func ProvideLogLevel(cfg *config.Config) zap.AtomicLevel {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	return zap.NewAtomicLevelAt(level)
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}

	return logger.With(zap.String("service", cfg.ServiceName)), nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideMetrics creates the Prometheus collector, or nil when metrics are
// disabled
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("linkedin_analytics")
}

// ProvideTracing initializes tracing. Without ENABLE_TRACING the provider
// wraps a no-op tracer.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	endpoint := ""
	if cfg.EnableTracing {
		endpoint = cfg.OTLPEndpoint
	}

	tp, err := observability.InitTracing(ctx, cfg.ServiceName, cfg.Environment, endpoint)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideTracer returns the tracer used by decorators and middleware
func ProvideTracer(tp *observability.TracerProvider) trace.Tracer {
	return tp.Tracer()
}

// ProvideKeyValueStore creates the store for sessions, drafts and templates
func ProvideKeyValueStore(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) ports.KeyValueStore {
	if cfg.StoreBackend == config.StoreDynamoDB {
		return dynamodb.NewKVStore(client, cfg.DynamoDBTable, 0, logger)
	}
	return memory.NewStore()
}

// ProvideConnectionStore creates the WebSocket connection store
func ProvideConnectionStore(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) ports.ConnectionStore {
	if cfg.StoreBackend == config.StoreDynamoDB || cfg.IsLambda {
		return dynamodb.NewConnectionStore(client, cfg.ConnectionsTable, dynamodb.DefaultConnectionIndex, logger)
	}
	return memory.NewConnectionStore()
}

// ProvideCache creates the in-process graph cache
func ProvideCache() (ports.Cache, func()) {
	cache := memory.NewCache(time.Minute)
	return cache, cache.Close
}

// ProvideNeo4jSource connects to Neo4j when it is the configured graph
// source. It returns nil otherwise.
func ProvideNeo4jSource(cfg *config.Config, logger *zap.Logger) (*neo4jsource.Source, func(), error) {
	if cfg.GraphSource != config.GraphSourceNeo4j {
		return nil, func() {}, nil
	}

	source, err := neo4jsource.NewSource(neo4jsource.Config{
		URI:      cfg.Neo4jURI,
		User:     cfg.Neo4jUser,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := source.Close(ctx); err != nil {
			logger.Warn("Failed to close neo4j driver", zap.Error(err))
		}
	}
	return source, cleanup, nil
}

// ProvideGraphSource assembles the graph source chain: tracing around the
// backend, a TTL cache above it and a circuit breaker on the outside. The
// mock backend yields a nil source so every build serves the mock network.
func ProvideGraphSource(
	cfg *config.Config,
	neo *neo4jsource.Source,
	client *awsdynamodb.Client,
	cache ports.Cache,
	tracer trace.Tracer,
	metrics *observability.Collector,
	logger *zap.Logger,
) (ports.GraphSource, error) {
	var base ports.GraphSource
	switch cfg.GraphSource {
	case config.GraphSourceNeo4j:
		if neo == nil {
			return nil, errors.New("neo4j graph source is not connected")
		}
		base = neo
	case config.GraphSourceDynamoDB:
		base = dynamodb.NewNetworkStore(client, cfg.NetworkTable, logger)
	case config.GraphSourceMock:
		logger.Info("Using the mock network graph")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown graph source %q", cfg.GraphSource)
	}

	source := graphsource.TraceSource(base, cfg.GraphSource, tracer, metrics)
	if cfg.GraphCacheTTL > 0 {
		source = graphsource.NewCachedSource(source, cache, cfg.GraphCacheTTL, metrics)
	}
	return graphsource.NewBreakerSource(source, graphsource.BreakerConfig{
		Name:        "graph-" + cfg.GraphSource,
		MaxFailures: uint32(cfg.BreakerMaxFailures),
		OpenTimeout: cfg.BreakerOpenTimeout,
		CallTimeout: cfg.GraphTimeout,
	}, logger), nil
}

// ProvideIdentityClient creates the traced Supabase identity client
func ProvideIdentityClient(cfg *config.Config, tracer trace.Tracer, logger *zap.Logger) (ports.IdentityClient, error) {
	if cfg.SupabaseURL == "" {
		return nil, errors.New("SUPABASE_URL is required")
	}
	client, err := supabase.NewClient(supabase.Config{
		URL:     cfg.SupabaseURL,
		AnonKey: cfg.SupabaseAnonKey,
		Timeout: 10 * time.Second,
	}, logger)
	if err != nil {
		return nil, err
	}
	return supabase.Trace(client, tracer), nil
}

// unavailableCompletion answers every request with ErrCompletionUnavailable
type unavailableCompletion struct{}

func (unavailableCompletion) Generate(context.Context, string, content.CompletionParams) (*ports.Completion, error) {
	return nil, ErrCompletionUnavailable
}

// ProvideCompletionService creates the OpenAI client. Without an API key
// generation reports that it is not configured.
func ProvideCompletionService(cfg *config.Config, logger *zap.Logger) (ports.CompletionService, error) {
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, content generation disabled")
		return unavailableCompletion{}, nil
	}
	client, err := openai.NewClient(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: 60 * time.Second,
		Retries: 2,
	}, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ProvideEventPublisher publishes to EventBridge, or to the log in
// development and when no bus is configured
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.IsDevelopment() || cfg.EventBusName == "" {
		return eventbridge.NewLoggingPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideTokenValidator creates the bearer token validator. It returns a nil
// interface when neither a secret nor a key set is configured.
func ProvideTokenValidator(cfg *config.Config, logger *zap.Logger) (middleware.TokenValidator, error) {
	if cfg.JWTSecret == "" && cfg.JWKSURL == "" {
		logger.Warn("No JWT secret or JWKS URL configured, bearer tokens are rejected")
		return nil, nil
	}

	var audience []string
	if cfg.JWTAudience != "" {
		audience = []string{cfg.JWTAudience}
	}
	validator, err := pkgauth.NewJWTValidator(pkgauth.JWTConfig{
		SigningMethod: cfg.JWTSigningMethod(),
		SecretKey:     cfg.JWTSecret,
		JWKSURL:       cfg.JWKSURL,
		Issuer:        cfg.JWTIssuer,
		Audience:      audience,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT validator: %w", err)
	}
	return validator, nil
}

// ProvideSessionRegistry creates the registry of browser session contexts
func ProvideSessionRegistry(cfg *config.Config) (*auth.Registry, func()) {
	registry := auth.NewRegistry()
	registry.StartEviction(cfg.EvictionInterval, cfg.SessionIdleTimeout)
	return registry, registry.Close
}

// ProvideAuthService creates the auth service
func ProvideAuthService(
	cfg *config.Config,
	identity ports.IdentityClient,
	registry *auth.Registry,
	store ports.KeyValueStore,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.AuthService {
	return services.NewAuthService(identity, registry, store, publisher, metrics, services.AuthSettings{
		SiteURL:              cfg.SiteURL,
		RedirectAllowList:    cfg.RedirectAllowList,
		LinkedInEnabled:      cfg.LinkedInEnabled,
		LinkedInClientID:     cfg.LinkedInClientID,
		LinkedInClientSecret: cfg.LinkedInClientSecret,
		LinkedInScopes:       cfg.LinkedInScopes,
	}, logger)
}

func layoutConfig(d config.Dynamic) layout.Config {
	return layout.Config{
		MaxIterations: d.LayoutMaxIterations,
		AlphaMin:      d.LayoutAlphaMin,
		VelocityDecay: d.LayoutVelocityDecay,
	}
}

// ProvideNetworkService creates the network service
func ProvideNetworkService(
	cfg *config.Config,
	source ports.GraphSource,
	metrics *observability.Collector,
	logger *zap.Logger,
) (*services.NetworkService, func()) {
	svc := services.NewNetworkService(source, layoutConfig(cfg.Dynamic()), metrics, logger)
	svc.StartEviction(cfg.EvictionInterval, cfg.SurfaceIdleTimeout)
	return svc, svc.Close
}

// ProvideContentService creates the content service
func ProvideContentService(
	cfg *config.Config,
	completion ports.CompletionService,
	store ports.KeyValueStore,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.ContentService {
	return services.NewContentService(completion, store, publisher, metrics, cfg.OpenAIModel, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	authService *services.AuthService,
	networkService *services.NetworkService,
	contentService *services.ContentService,
	analyticsService *services.AnalyticsService,
	validator middleware.TokenValidator,
	neo *neo4jsource.Source,
	metrics *observability.Collector,
	tracer trace.Tracer,
	logger *zap.Logger,
) *rest.Router {
	router := rest.NewRouter(
		rest.Services{
			Auth:      authService,
			Network:   networkService,
			Content:   contentService,
			Analytics: analyticsService,
		},
		validator,
		metrics,
		tracer,
		rest.Settings{
			AllowedOrigins: cfg.AllowedOrigins,
			EnableCORS:     cfg.EnableCORS,
			Cookies: middleware.CookieSettings{
				SessionName: cfg.SessionCookieName,
				Secure:      cfg.CookieSecure,
			},
			GuardWaitTimeout: cfg.GuardWaitTimeout,
			Debug:            cfg.IsDevelopment(),
		},
		logger,
	)
	if neo != nil {
		router.AddReadinessCheck("neo4j", neo.Ping)
	}
	return router
}

// ProvidePusherFactory returns pushers bound to a WebSocket stage endpoint
func ProvidePusherFactory(awsCfg aws.Config, connections ports.ConnectionStore, logger *zap.Logger) websocket.PusherFactory {
	return func(endpoint string) ports.Pusher {
		return websocket.NewGatewayPusher(websocket.NewManagementClient(awsCfg, endpoint), connections, logger)
	}
}

// ProvideWebSocketHandler creates the WebSocket route handler
func ProvideWebSocketHandler(
	connections ports.ConnectionStore,
	validator middleware.TokenValidator,
	networkService *services.NetworkService,
	pushers websocket.PusherFactory,
	logger *zap.Logger,
) *websocket.Handler {
	return websocket.NewHandler(connections, validator, networkService, pushers, logger)
}

// ApplyDynamic pushes reloaded settings into the running services
func ApplyDynamic(d config.Dynamic, level zap.AtomicLevel, authService *services.AuthService, networkService *services.NetworkService, logger *zap.Logger) {
	if parsed, err := zapcore.ParseLevel(d.LogLevel); err == nil {
		level.SetLevel(parsed)
	} else {
		logger.Warn("Ignoring unknown log level", zap.String("level", d.LogLevel))
	}
	authService.SetLinkedInEnabled(d.LinkedInEnabled)
	networkService.SetLayoutConfig(layoutConfig(d))

	logger.Info("Applied configuration change",
		zap.String("log_level", level.String()),
		zap.Bool("linkedin_enabled", d.LinkedInEnabled),
		zap.Int("layout_max_iterations", d.LayoutMaxIterations),
	)
}

// ProvideConfigWatcher watches CONFIG_FILE when WATCH_CONFIG is set. It
// returns nil otherwise.
func ProvideConfigWatcher(
	cfg *config.Config,
	level zap.AtomicLevel,
	authService *services.AuthService,
	networkService *services.NetworkService,
	logger *zap.Logger,
) (*config.ConfigWatcher, func(), error) {
	if !cfg.WatchConfig || cfg.ConfigFile == "" {
		return nil, func() {}, nil
	}

	watcher, err := config.NewConfigWatcher(cfg.ConfigFile, logger)
	if err != nil {
		return nil, nil, err
	}
	watcher.OnChange(func(d config.Dynamic) {
		ApplyDynamic(d, level, authService, networkService, logger)
	})
	watcher.Start()

	return watcher, watcher.Stop, nil
}
