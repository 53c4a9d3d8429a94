package common

import (
	"context"
	"time"
)

// ContextKey represents a context key type
type ContextKey string

// Context keys
const (
	ContextKeyUserID           ContextKey = "user_id"
	ContextKeyBrowserSessionID ContextKey = "browser_session_id"
	ContextKeyStartTime        ContextKey = "start_time"
	ContextKeyAuthMethod       ContextKey = "auth_method"
)

// How a request was authenticated
const (
	AuthMethodSession = "session"
	AuthMethodBearer  = "bearer"
)

// WithUserID adds user ID to context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(ContextKeyUserID).(string)
	return userID, ok && userID != ""
}

// WithBrowserSessionID adds the cookie-bound browser session id to context
func WithBrowserSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyBrowserSessionID, id)
}

// GetBrowserSessionID extracts the browser session id from context
func GetBrowserSessionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyBrowserSessionID).(string)
	return id, ok && id != ""
}

// WithAuthMethod records how the request was authenticated
func WithAuthMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, ContextKeyAuthMethod, method)
}

// GetAuthMethod returns how the request was authenticated, or "" when it
// passed no auth middleware
func GetAuthMethod(ctx context.Context) string {
	method, _ := ctx.Value(ContextKeyAuthMethod).(string)
	return method
}

// WithStartTime adds start time to context
func WithStartTime(ctx context.Context, startTime time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyStartTime, startTime)
}

// GetElapsedTime calculates elapsed time from start time in context
func GetElapsedTime(ctx context.Context) time.Duration {
	if startTime, ok := ctx.Value(ContextKeyStartTime).(time.Time); ok {
		return time.Since(startTime)
	}
	return 0
}
