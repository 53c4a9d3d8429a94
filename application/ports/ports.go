package ports

import (
	"context"
	"time"

	"github.com/FedericoTs/LinkedinAnalytics/domain/auth"
	"github.com/FedericoTs/LinkedinAnalytics/domain/content"
	"github.com/FedericoTs/LinkedinAnalytics/domain/events"
	"github.com/FedericoTs/LinkedinAnalytics/domain/network"
)

// IdentityClient is the identity provider (Supabase Auth)
type IdentityClient interface {
	auth.Identity

	// SignInWithPassword signs in with email and password
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error)

	// SignUp registers a user. The session is nil while email confirmation
	// is pending.
	SignUp(ctx context.Context, email, password, fullName string) (*auth.Session, error)

	// SignOut revokes the refresh tokens of the session
	SignOut(ctx context.Context, accessToken string) error

	// RefreshSession trades a refresh token for a new session
	RefreshSession(ctx context.Context, refreshToken string) (*auth.Session, error)

	// GetUser returns the user an access token belongs to
	GetUser(ctx context.Context, accessToken string) (*IdentityUser, error)

	// AuthorizeURL starts a PKCE OAuth flow with an external provider
	AuthorizeURL(ctx context.Context, provider, redirectTo, scopes string) (*AuthorizeRequest, error)
}

// IdentityUser is the provider's view of a user
type IdentityUser struct {
	ID       string
	Email    string
	FullName string
}

// AuthorizeRequest is a started OAuth flow
type AuthorizeRequest struct {
	URL      string
	Verifier string
}

// GraphSource fetches raw network data
type GraphSource = network.Source

// Usage is the token accounting of one completion
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Completion is generated text
type Completion struct {
	Text  string `json:"content"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

// CompletionService generates text from a prompt
type CompletionService interface {
	Generate(ctx context.Context, prompt string, params content.CompletionParams) (*Completion, error)
}

// KeyValueStore persists small documents such as drafts, templates and
// browser sessions
type KeyValueStore interface {
	// Get returns the value stored under key; found is false when absent
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key; removing a missing key is not an error
	Remove(ctx context.Context, key string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with a TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}

// Connection is an open API Gateway WebSocket connection
type Connection struct {
	ConnectionID string    `json:"connection_id" dynamodbav:"ConnectionID"`
	UserID       string    `json:"user_id" dynamodbav:"UserID"`
	ConnectedAt  time.Time `json:"connected_at" dynamodbav:"ConnectedAt"`
	Endpoint     string    `json:"endpoint" dynamodbav:"Endpoint"`
	TTL          int64     `json:"ttl" dynamodbav:"TTL"`
}

// ConnectionStore tracks WebSocket connections
type ConnectionStore interface {
	Save(ctx context.Context, conn Connection) error
	Get(ctx context.Context, connectionID string) (*Connection, error)
	Delete(ctx context.Context, connectionID string) error
	ListByUser(ctx context.Context, userID string) ([]Connection, error)
}

// Pusher sends a message to one WebSocket connection
type Pusher interface {
	Push(ctx context.Context, connectionID string, payload []byte) error
}
