package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Graph source backends
const (
	GraphSourceNeo4j    = "neo4j"
	GraphSourceDynamoDB = "dynamodb"
	GraphSourceMock     = "mock"
)

// Key-value store backends
const (
	StoreMemory   = "memory"
	StoreDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress  string   `yaml:"server_address"`
	Environment    string   `yaml:"environment"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	ServiceName    string   `yaml:"service_name"`

	// AWS configuration
	AWSRegion        string `yaml:"aws_region"`
	StoreBackend     string `yaml:"store_backend"`
	DynamoDBTable    string `yaml:"dynamodb_table"`
	NetworkTable     string `yaml:"network_table"`
	ConnectionsTable string `yaml:"connections_table"`
	EventBusName     string `yaml:"event_bus_name"`

	// Lambda configuration
	IsLambda           bool   `yaml:"is_lambda"`
	LambdaFunctionName string `yaml:"-"`

	// WebSocket configuration
	WebSocketEndpoint string `yaml:"websocket_endpoint"`

	// Identity provider
	SupabaseURL     string `yaml:"supabase_url"`
	SupabaseAnonKey string `yaml:"-"`
	JWTSecret       string `yaml:"-"`
	JWKSURL         string `yaml:"jwks_url"`
	JWTIssuer       string `yaml:"jwt_issuer"`
	JWTAudience     string `yaml:"jwt_audience"`

	// Auth flows
	SiteURL              string        `yaml:"site_url"`
	RedirectAllowList    []string      `yaml:"redirect_allow_list"`
	LinkedInEnabled      bool          `yaml:"linkedin_enabled"`
	LinkedInClientID     string        `yaml:"-"`
	LinkedInClientSecret string        `yaml:"-"`
	LinkedInScopes       string        `yaml:"linkedin_scopes"`
	SessionCookieName    string        `yaml:"session_cookie_name"`
	CookieSecure         bool          `yaml:"cookie_secure"`
	GuardWaitTimeout     time.Duration `yaml:"guard_wait_timeout"`
	SessionIdleTimeout   time.Duration `yaml:"session_idle_timeout"`
	SurfaceIdleTimeout   time.Duration `yaml:"surface_idle_timeout"`
	EvictionInterval     time.Duration `yaml:"eviction_interval"`

	// Network graph
	GraphSource         string        `yaml:"graph_source"`
	Neo4jURI            string        `yaml:"neo4j_uri"`
	Neo4jUser           string        `yaml:"neo4j_user"`
	Neo4jPassword       string        `yaml:"-"`
	Neo4jDatabase       string        `yaml:"neo4j_database"`
	GraphCacheTTL       time.Duration `yaml:"graph_cache_ttl"`
	GraphTimeout        time.Duration `yaml:"graph_timeout"`
	BreakerMaxFailures  int           `yaml:"breaker_max_failures"`
	BreakerOpenTimeout  time.Duration `yaml:"breaker_open_timeout"`
	LayoutMaxIterations int           `yaml:"layout_max_iterations"`
	LayoutAlphaMin      float64       `yaml:"layout_alpha_min"`
	LayoutVelocityDecay float64       `yaml:"layout_velocity_decay"`

	// Content generation
	OpenAIAPIKey  string `yaml:"-"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	OpenAIModel   string `yaml:"openai_model"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Dynamic configuration file, reloaded on change in development
	ConfigFile  string `yaml:"-"`
	WatchConfig bool   `yaml:"-"`

	// Feature flags
	EnableMetrics bool   `yaml:"enable_metrics"`
	EnableTracing bool   `yaml:"enable_tracing"`
	OTLPEndpoint  string `yaml:"otlp_endpoint"`
	EnableCORS    bool   `yaml:"enable_cors"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		ServerAddress:       ":8080",
		Environment:         "development",
		AllowedOrigins:      []string{"http://localhost:3000", "http://localhost:5173"},
		ServiceName:         "linkedin-analytics",
		AWSRegion:           "us-east-1",
		StoreBackend:        StoreMemory,
		DynamoDBTable:       "linkedin-analytics",
		NetworkTable:        "linkedin-analytics-network",
		ConnectionsTable:    "linkedin-analytics-connections",
		EventBusName:        "linkedin-analytics-events",
		JWTAudience:         "authenticated",
		SiteURL:             "http://localhost:5173",
		LinkedInScopes:      "openid profile email",
		SessionCookieName:   "la_session",
		GuardWaitTimeout:    3 * time.Second,
		SessionIdleTimeout:  30 * time.Minute,
		SurfaceIdleTimeout:  15 * time.Minute,
		EvictionInterval:    time.Minute,
		GraphSource:         GraphSourceMock,
		Neo4jDatabase:       "neo4j",
		GraphCacheTTL:       time.Minute,
		GraphTimeout:        5 * time.Second,
		BreakerMaxFailures:  5,
		BreakerOpenTimeout:  30 * time.Second,
		LayoutMaxIterations: 300,
		LayoutAlphaMin:      0.001,
		LayoutVelocityDecay: 0.4,
		OpenAIModel:         "gpt-4o-mini",
		LogLevel:            "info",
		EnableMetrics:       true,
		EnableCORS:          true,
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file named
// by CONFIG_FILE, a .env file and environment variables, in increasing
// priority.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := NewLoader().LoadFile(path, cfg); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}
	applyEnv(cfg)

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(c *Config) {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", c.AllowedOrigins)
	c.ServiceName = getEnv("SERVICE_NAME", c.ServiceName)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.StoreBackend = getEnv("STORE_BACKEND", c.StoreBackend)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.NetworkTable = getEnv("NETWORK_TABLE", c.NetworkTable)
	c.ConnectionsTable = getEnv("CONNECTIONS_TABLE_NAME", getEnv("CONNECTIONS_TABLE", c.ConnectionsTable))
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda)
	c.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", c.LambdaFunctionName)
	c.WebSocketEndpoint = getEnv("WEBSOCKET_ENDPOINT", c.WebSocketEndpoint)

	c.SupabaseURL = strings.TrimRight(getEnv("SUPABASE_URL", c.SupabaseURL), "/")
	c.SupabaseAnonKey = getEnv("SUPABASE_ANON_KEY", c.SupabaseAnonKey)
	c.JWTSecret = getEnv("SUPABASE_JWT_SECRET", getEnv("JWT_SECRET", c.JWTSecret))
	c.JWKSURL = getEnv("JWKS_URL", c.JWKSURL)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	if c.JWTIssuer == "" && c.SupabaseURL != "" {
		c.JWTIssuer = c.SupabaseURL + "/auth/v1"
	}
	c.JWTAudience = getEnv("JWT_AUDIENCE", c.JWTAudience)

	c.SiteURL = getEnv("SITE_URL", c.SiteURL)
	c.RedirectAllowList = getEnvList("REDIRECT_ALLOW_LIST", c.RedirectAllowList)
	c.LinkedInEnabled = getEnvBool("LINKEDIN_ENABLED", c.LinkedInEnabled)
	c.LinkedInClientID = getEnv("LINKEDIN_CLIENT_ID", c.LinkedInClientID)
	c.LinkedInClientSecret = getEnv("LINKEDIN_CLIENT_SECRET", c.LinkedInClientSecret)
	c.LinkedInScopes = getEnv("LINKEDIN_SCOPES", c.LinkedInScopes)
	c.SessionCookieName = getEnv("SESSION_COOKIE_NAME", c.SessionCookieName)
	c.CookieSecure = getEnvBool("COOKIE_SECURE", c.CookieSecure)
	c.GuardWaitTimeout = getEnvDuration("GUARD_WAIT_TIMEOUT", c.GuardWaitTimeout)
	c.SessionIdleTimeout = getEnvDuration("SESSION_IDLE_TIMEOUT", c.SessionIdleTimeout)
	c.SurfaceIdleTimeout = getEnvDuration("SURFACE_IDLE_TIMEOUT", c.SurfaceIdleTimeout)
	c.EvictionInterval = getEnvDuration("EVICTION_INTERVAL", c.EvictionInterval)

	c.GraphSource = getEnv("GRAPH_SOURCE", c.GraphSource)
	c.Neo4jURI = getEnv("NEO4J_URI", c.Neo4jURI)
	c.Neo4jUser = getEnv("NEO4J_USER", c.Neo4jUser)
	c.Neo4jPassword = getEnv("NEO4J_PASSWORD", c.Neo4jPassword)
	c.Neo4jDatabase = getEnv("NEO4J_DATABASE", c.Neo4jDatabase)
	c.GraphCacheTTL = getEnvDuration("GRAPH_CACHE_TTL", c.GraphCacheTTL)
	c.GraphTimeout = getEnvDuration("GRAPH_TIMEOUT", c.GraphTimeout)
	c.BreakerMaxFailures = getEnvInt("BREAKER_MAX_FAILURES", c.BreakerMaxFailures)
	c.BreakerOpenTimeout = getEnvDuration("BREAKER_OPEN_TIMEOUT", c.BreakerOpenTimeout)
	c.LayoutMaxIterations = getEnvInt("LAYOUT_MAX_ITERATIONS", c.LayoutMaxIterations)
	c.LayoutAlphaMin = getEnvFloat("LAYOUT_ALPHA_MIN", c.LayoutAlphaMin)
	c.LayoutVelocityDecay = getEnvFloat("LAYOUT_VELOCITY_DECAY", c.LayoutVelocityDecay)

	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.OpenAIModel = getEnv("OPENAI_MODEL", c.OpenAIModel)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.WatchConfig = getEnvBool("WATCH_CONFIG", c.ConfigFile != "" && c.IsDevelopment())

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.GraphSource {
	case GraphSourceNeo4j:
		if c.Neo4jURI == "" {
			return fmt.Errorf("NEO4J_URI is required for the neo4j graph source")
		}
	case GraphSourceDynamoDB:
		if c.NetworkTable == "" {
			return fmt.Errorf("NETWORK_TABLE is required for the dynamodb graph source")
		}
	case GraphSourceMock:
	default:
		return fmt.Errorf("unknown graph source %q", c.GraphSource)
	}

	switch c.StoreBackend {
	case StoreMemory, StoreDynamoDB:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}

	if c.LinkedInEnabled && c.SiteURL == "" {
		return fmt.Errorf("SITE_URL is required when LinkedIn sign-in is enabled")
	}

	if c.Environment == "production" {
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY are required in production")
		}
		if c.JWTSecret == "" && c.JWKSURL == "" {
			return fmt.Errorf("SUPABASE_JWT_SECRET or JWKS_URL is required in production")
		}
		if c.StoreBackend == StoreDynamoDB && c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// JWTSigningMethod returns JWKS when a key set URL is configured
func (c *Config) JWTSigningMethod() string {
	if c.JWKSURL != "" {
		return "JWKS"
	}
	return "HS256"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
