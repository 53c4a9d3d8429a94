// Package supabase adapts Supabase Auth (GoTrue) to the identity port.
package supabase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
	"github.com/FedericoTs/LinkedinAnalytics/domain/auth"
	pkgauth "github.com/FedericoTs/LinkedinAnalytics/pkg/auth"
)

const authPath = "/auth/v1"

// Config holds the project settings of the Supabase client
type Config struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

// Client implements ports.IdentityClient on top of the GoTrue client
type Client struct {
	auth    gotrue.Client
	authURL string
	now     func() time.Time
	logger  *zap.Logger
}

var _ ports.IdentityClient = (*Client)(nil)

// NewClient creates the identity client for a Supabase project
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	sc, err := supabase.NewClient(cfg.URL, cfg.AnonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	authClient := sc.Auth
	if cfg.Timeout > 0 {
		authClient = authClient.WithClient(http.Client{Timeout: cfg.Timeout})
	}
	return NewWithAuth(authClient, strings.TrimRight(cfg.URL, "/")+authPath, logger), nil
}

// NewWithAuth wraps an existing GoTrue client. authURL is the GoTrue base
// URL used to build authorize links.
func NewWithAuth(authClient gotrue.Client, authURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		auth:    authClient,
		authURL: strings.TrimRight(authURL, "/"),
		now:     time.Now,
		logger:  logger,
	}
}

// EstablishSessionFromTokens validates tokens delivered in a redirect
// fragment. An expired access token is traded through the refresh token.
func (c *Client) EstablishSessionFromTokens(ctx context.Context, accessToken, refreshToken string) (*auth.Session, error) {
	if accessToken == "" || refreshToken == "" {
		return nil, errors.New("access and refresh tokens are required")
	}

	claims, err := pkgauth.InspectToken(accessToken)
	if err != nil {
		return nil, err
	}
	if exp := claims.ExpiresAtTime(); !exp.IsZero() && !c.now().Before(exp) {
		c.logger.Debug("Fragment access token expired, refreshing")
		return c.RefreshSession(ctx, refreshToken)
	}

	user, err := call(ctx, func() (*types.UserResponse, error) {
		return c.auth.WithToken(accessToken).GetUser()
	})
	if err != nil {
		return nil, providerError(err)
	}

	return &auth.Session{
		UserID:       user.ID.String(),
		Email:        user.Email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    claims.ExpiresAtTime(),
	}, nil
}

// ExchangeCodeForSession completes a PKCE flow
func (c *Client) ExchangeCodeForSession(ctx context.Context, code, verifier string) (*auth.Session, error) {
	if verifier == "" {
		return nil, errors.New("missing code verifier for this sign-in")
	}
	resp, err := call(ctx, func() (*types.TokenResponse, error) {
		return c.auth.Token(types.TokenRequest{
			GrantType:    "pkce",
			Code:         code,
			CodeVerifier: verifier,
		})
	})
	if err != nil {
		return nil, providerError(err)
	}
	return c.toSession(resp.Session), nil
}

// SignInWithPassword signs in with email and password
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error) {
	resp, err := call(ctx, func() (*types.TokenResponse, error) {
		return c.auth.SignInWithEmailPassword(email, password)
	})
	if err != nil {
		return nil, providerError(err)
	}
	return c.toSession(resp.Session), nil
}

// SignUp registers a user with the full name stored as user metadata
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*auth.Session, error) {
	req := types.SignupRequest{Email: email, Password: password}
	if fullName != "" {
		req.Data = map[string]interface{}{"full_name": fullName}
	}

	resp, err := call(ctx, func() (*types.SignupResponse, error) {
		return c.auth.Signup(req)
	})
	if err != nil {
		return nil, providerError(err)
	}

	// With email confirmation enabled the provider returns only the user
	if resp.Session.AccessToken == "" {
		c.logger.Info("Sign-up pending email confirmation", zap.String("user_id", resp.User.ID.String()))
		return nil, nil
	}
	return c.toSession(resp.Session), nil
}

// SignOut revokes the refresh tokens of the session
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := call(ctx, func() (struct{}, error) {
		return struct{}{}, c.auth.WithToken(accessToken).Logout()
	})
	if err != nil {
		return providerError(err)
	}
	return nil
}

// RefreshSession trades a refresh token for a new session
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*auth.Session, error) {
	resp, err := call(ctx, func() (*types.TokenResponse, error) {
		return c.auth.RefreshToken(refreshToken)
	})
	if err != nil {
		return nil, providerError(err)
	}
	return c.toSession(resp.Session), nil
}

// GetUser returns the user an access token belongs to
func (c *Client) GetUser(ctx context.Context, accessToken string) (*ports.IdentityUser, error) {
	resp, err := call(ctx, func() (*types.UserResponse, error) {
		return c.auth.WithToken(accessToken).GetUser()
	})
	if err != nil {
		return nil, providerError(err)
	}

	user := &ports.IdentityUser{ID: resp.ID.String(), Email: resp.Email}
	for _, key := range []string{"full_name", "name"} {
		if name, ok := resp.UserMetadata[key].(string); ok && name != "" {
			user.FullName = name
			break
		}
	}
	return user, nil
}

// AuthorizeURL builds the GoTrue authorize link of a PKCE flow. The browser
// follows it to the provider and returns to redirectTo with a code.
func (c *Client) AuthorizeURL(ctx context.Context, provider, redirectTo, scopes string) (*ports.AuthorizeRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if provider == "" {
		return nil, errors.New("provider is required")
	}

	verifier, challenge, err := newPKCEPair()
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	if scopes != "" {
		q.Set("scopes", scopes)
	}
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "s256")

	return &ports.AuthorizeRequest{
		URL:      c.authURL + "/authorize?" + q.Encode(),
		Verifier: verifier,
	}, nil
}

func (c *Client) toSession(s types.Session) *auth.Session {
	session := &auth.Session{
		UserID:       s.User.ID.String(),
		Email:        s.User.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
	switch {
	case s.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		session.ExpiresAt = c.now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return session
}

// newPKCEPair returns a verifier and its S256 challenge
func newPKCEPair() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate code verifier: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(buf)
	sum := sha256.Sum256([]byte(verifier))
	return verifier, base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

// call runs a blocking GoTrue request and gives up when ctx ends. The
// request itself is bounded by the HTTP client timeout.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{value: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-done:
		return r.value, r.err
	}
}
