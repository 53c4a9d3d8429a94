package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) EstablishSessionFromTokens(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	args := m.Called(ctx, accessToken, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Session), args.Error(1)
}

func (m *MockIdentity) ExchangeCodeForSession(ctx context.Context, code, verifier string) (*Session, error) {
	args := m.Called(ctx, code, verifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Session), args.Error(1)
}

type panickingIdentity struct{}

func (panickingIdentity) EstablishSessionFromTokens(context.Context, string, string) (*Session, error) {
	panic("boom")
}

func (panickingIdentity) ExchangeCodeForSession(context.Context, string, string) (*Session, error) {
	panic("boom")
}

func testSession() *Session {
	return &Session{UserID: "user-1", Email: "ada@example.com", AccessToken: "at", RefreshToken: "rt"}
}

func TestResolver_FragmentError(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		message string
	}{
		{
			name:    "description provided",
			url:     "https://app.example.com/auth/callback#error=access_denied&error_code=401&error_description=Email+link+is+invalid",
			message: "Email link is invalid",
		},
		{
			name:    "default message",
			url:     "https://app.example.com/auth/callback#error_code=otp_expired",
			message: MsgAuthenticationFailed,
		},
		{
			name:    "error wins over tokens and code",
			url:     "https://app.example.com/auth/callback?code=abc#error=server_error&access_token=a&refresh_token=r",
			message: MsgAuthenticationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := new(MockIdentity)
			resolver := NewResolver(identity)

			out := resolver.Resolve(context.Background(), Inbound{URL: tt.url})

			assert.Equal(t, OutcomeError, out.Kind)
			assert.Equal(t, tt.message, out.Message)
			require.NotNil(t, out.Err)
			assert.Equal(t, CredentialError, out.Err.Kind)
			identity.AssertNotCalled(t, "EstablishSessionFromTokens", mock.Anything, mock.Anything, mock.Anything)
			identity.AssertNotCalled(t, "ExchangeCodeForSession", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestResolver_Tokens(t *testing.T) {
	t.Run("success redirects to dashboard", func(t *testing.T) {
		identity := new(MockIdentity)
		identity.On("EstablishSessionFromTokens", mock.Anything, "access", "refresh").Return(testSession(), nil).Once()
		resolver := NewResolver(identity)

		out := resolver.Resolve(context.Background(), Inbound{
			URL: "https://app.example.com/auth/callback#access_token=access&refresh_token=refresh&expires_in=3600&token_type=bearer",
		})

		assert.Equal(t, OutcomeRedirect, out.Kind)
		assert.Equal(t, DefaultDestination, out.Location)
		assert.Equal(t, "user-1", out.Session.UserID)
		identity.AssertNumberOfCalls(t, "EstablishSessionFromTokens", 1)
		identity.AssertNotCalled(t, "ExchangeCodeForSession", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("tokens win over code and next is ignored", func(t *testing.T) {
		identity := new(MockIdentity)
		identity.On("EstablishSessionFromTokens", mock.Anything, "a", "r").Return(testSession(), nil).Once()
		resolver := NewResolver(identity)

		out := resolver.Resolve(context.Background(), Inbound{URL: "https://app.example.com/cb?code=c&next=/content-creation#access_token=a&refresh_token=r"})

		assert.Equal(t, DefaultDestination, out.Location)
		identity.AssertNumberOfCalls(t, "EstablishSessionFromTokens", 1)
	})

	t.Run("failure uses generic message", func(t *testing.T) {
		identity := new(MockIdentity)
		identity.On("EstablishSessionFromTokens", mock.Anything, "a", "r").Return(nil, errors.New("invalid JWT")).Once()
		resolver := NewResolver(identity)

		out := resolver.Resolve(context.Background(), Inbound{URL: "https://app.example.com/cb#access_token=a&refresh_token=r"})

		assert.Equal(t, OutcomeError, out.Kind)
		assert.Equal(t, MsgFailedToSetSession, out.Message)
		assert.Equal(t, SessionEstablishFailure, out.Err.Kind)
		identity.AssertNumberOfCalls(t, "EstablishSessionFromTokens", 1)
	})

	t.Run("empty session is a failure", func(t *testing.T) {
		identity := new(MockIdentity)
		identity.On("EstablishSessionFromTokens", mock.Anything, "a", "r").Return(nil, nil).Once()

		out := NewResolver(identity).Resolve(context.Background(), Inbound{URL: "https://app.example.com/cb#access_token=a&refresh_token=r"})

		assert.Equal(t, MsgFailedToSetSession, out.Message)
	})
}

func TestResolver_Code(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		location string
	}{
		{name: "default destination", url: "https://app.example.com/auth/callback?code=xyz", location: "/dashboard"},
		{name: "next honored", url: "https://app.example.com/auth/callback?code=xyz&next=/network-analysis", location: "/network-analysis"},
		{name: "absolute next rejected", url: "https://app.example.com/auth/callback?code=xyz&next=https://evil.example.com", location: "/dashboard"},
		{name: "protocol relative next rejected", url: "https://app.example.com/auth/callback?code=xyz&next=//evil.example.com", location: "/dashboard"},
		{name: "single token in fragment falls through to code", url: "https://app.example.com/auth/callback?code=xyz#access_token=only", location: "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := new(MockIdentity)
			identity.On("ExchangeCodeForSession", mock.Anything, "xyz", "verifier").Return(testSession(), nil).Once()
			resolver := NewResolver(identity)

			out := resolver.Resolve(context.Background(), Inbound{URL: tt.url, Verifier: "verifier"})

			assert.Equal(t, OutcomeRedirect, out.Kind)
			assert.Equal(t, tt.location, out.Location)
			identity.AssertNumberOfCalls(t, "ExchangeCodeForSession", 1)
			identity.AssertNotCalled(t, "EstablishSessionFromTokens", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("failure message is verbatim", func(t *testing.T) {
		identity := new(MockIdentity)
		identity.On("ExchangeCodeForSession", mock.Anything, "bad", "").Return(nil, errors.New("invalid flow state, no valid flow state found")).Once()

		out := NewResolver(identity).Resolve(context.Background(), Inbound{URL: "https://app.example.com/auth/callback?code=bad"})

		assert.Equal(t, OutcomeError, out.Kind)
		assert.Equal(t, "invalid flow state, no valid flow state found", out.Message)
		assert.Equal(t, ExchangeFailure, out.Err.Kind)
	})
}

func TestResolver_NoCredentials(t *testing.T) {
	urls := []string{
		"https://app.example.com/auth/callback",
		"https://app.example.com/auth/callback?next=/dashboard",
		"https://app.example.com/auth/callback#type=recovery",
		"/auth/callback",
	}

	for _, u := range urls {
		t.Run(u, func(t *testing.T) {
			identity := new(MockIdentity)

			out := NewResolver(identity).Resolve(context.Background(), Inbound{URL: u})

			assert.Equal(t, OutcomeError, out.Kind)
			assert.Equal(t, MsgNoCredentials, out.Message)
			assert.Equal(t, CredentialError, out.Err.Kind)
			identity.AssertExpectations(t)
		})
	}

	t.Run("incomplete token pair", func(t *testing.T) {
		out := NewResolver(new(MockIdentity)).Resolve(context.Background(), Inbound{URL: "https://app.example.com/cb#refresh_token=r"})
		assert.Equal(t, MsgIncompleteTokens, out.Message)
		assert.Equal(t, CredentialError, out.Err.Kind)
	})

	t.Run("unparseable url", func(t *testing.T) {
		out := NewResolver(new(MockIdentity)).Resolve(context.Background(), Inbound{URL: "http://[::1"})
		assert.Equal(t, MsgInvalidCallbackURL, out.Message)
	})
}

func TestResolver_RecoversPanics(t *testing.T) {
	resolver := NewResolver(panickingIdentity{})

	assert.NotPanics(t, func() {
		out := resolver.Resolve(context.Background(), Inbound{URL: "https://app.example.com/cb#access_token=a&refresh_token=r"})
		assert.Equal(t, OutcomeError, out.Kind)
		assert.Equal(t, "panic", out.Reason)
	})
}

func TestResolver_IsDeterministic(t *testing.T) {
	identity := new(MockIdentity)
	identity.On("ExchangeCodeForSession", mock.Anything, "c", "").Return(testSession(), nil)
	resolver := NewResolver(identity, WithDestination("/content-creation"))
	in := Inbound{URL: "https://app.example.com/cb?code=c"}

	first := resolver.Resolve(context.Background(), in)
	second := resolver.Resolve(context.Background(), in)

	assert.Equal(t, first.Location, second.Location)
	assert.Equal(t, "/content-creation", first.Location)
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/a?b=c", SafeNext("/a?b=c", "/d"))
	assert.Equal(t, "/d", SafeNext("", "/d"))
	assert.Equal(t, "/d", SafeNext("relative", "/d"))
	assert.Equal(t, "/d", SafeNext(`/\evil.example.com`, "/d"))
	assert.Equal(t, "/d", SafeNext("javascript:alert(1)", "/d"))
}
