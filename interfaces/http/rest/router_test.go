package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
	"github.com/FedericoTs/LinkedinAnalytics/application/services"
	"github.com/FedericoTs/LinkedinAnalytics/domain/auth"
	"github.com/FedericoTs/LinkedinAnalytics/domain/content"
	"github.com/FedericoTs/LinkedinAnalytics/domain/network"
	"github.com/FedericoTs/LinkedinAnalytics/domain/network/layout"
	"github.com/FedericoTs/LinkedinAnalytics/infrastructure/messaging/eventbridge"
	"github.com/FedericoTs/LinkedinAnalytics/infrastructure/persistence/memory"
	"github.com/FedericoTs/LinkedinAnalytics/interfaces/http/rest/handlers"
	"github.com/FedericoTs/LinkedinAnalytics/interfaces/http/rest/middleware"
	pkgauth "github.com/FedericoTs/LinkedinAnalytics/pkg/auth"
)

const testCookie = "la_session"

type fakeIdentity struct{}

func session(userID string) *auth.Session {
	return &auth.Session{
		UserID:       userID,
		Email:        userID + "@example.com",
		AccessToken:  "access-" + userID,
		RefreshToken: "refresh-" + userID,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func (fakeIdentity) EstablishSessionFromTokens(_ context.Context, access, refresh string) (*auth.Session, error) {
	if access != "good-access" {
		return nil, errors.New("invalid JWT")
	}
	return session("user-1"), nil
}

func (fakeIdentity) ExchangeCodeForSession(_ context.Context, code, verifier string) (*auth.Session, error) {
	if code != "good-code" || verifier != "verifier-1" {
		return nil, errors.New("invalid flow state, no valid flow state found")
	}
	return session("user-1"), nil
}

func (fakeIdentity) SignInWithPassword(_ context.Context, email, password string) (*auth.Session, error) {
	switch password {
	case "correct-horse":
		return session("user-1"), nil
	case "stale-horse":
		s := session("user-1")
		s.ExpiresAt = time.Now().Add(-time.Minute)
		return s, nil
	}
	return nil, errors.New("Invalid login credentials")
}

func (fakeIdentity) SignUp(_ context.Context, email, password, fullName string) (*auth.Session, error) {
	return nil, nil
}

func (fakeIdentity) SignOut(context.Context, string) error { return nil }

func (fakeIdentity) RefreshSession(context.Context, string) (*auth.Session, error) {
	return nil, errors.New("refresh token not found")
}

func (fakeIdentity) GetUser(context.Context, string) (*ports.IdentityUser, error) {
	return &ports.IdentityUser{ID: "user-1"}, nil
}

func (fakeIdentity) AuthorizeURL(_ context.Context, provider, redirectTo, scopes string) (*ports.AuthorizeRequest, error) {
	q := url.Values{"provider": {provider}, "redirect_to": {redirectTo}}
	return &ports.AuthorizeRequest{URL: "https://id.example.com/auth/v1/authorize?" + q.Encode(), Verifier: "verifier-1"}, nil
}

type fixedSource struct{}

func (fixedSource) FetchNetwork(context.Context, string) (network.RawNetwork, error) {
	return network.MockNetwork(), nil
}

type echoCompletion struct{}

func (echoCompletion) Generate(_ context.Context, prompt string, params content.CompletionParams) (*ports.Completion, error) {
	return &ports.Completion{Text: "Generated: " + prompt[:20], Model: params.Model, Usage: ports.Usage{TotalTokens: 42}}, nil
}

type staticValidator struct{}

func (staticValidator) ValidateToken(token string) (*pkgauth.Claims, error) {
	if token != "good-token" {
		return nil, pkgauth.ErrInvalidToken
	}
	return &pkgauth.Claims{UserID: "api-user", Email: "api@example.com"}, nil
}

// blockingStore never answers until released, keeping sessions loading
type blockingStore struct {
	*memory.Store
	release chan struct{}
}

func (s *blockingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	select {
	case <-s.release:
		return s.Store.Get(ctx, key)
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	handler http.Handler
}

func newTestServer(t *testing.T, store ports.KeyValueStore, guardWait time.Duration) *testServer {
	t.Helper()
	logger := zap.NewNop()
	registry := auth.NewRegistry()
	t.Cleanup(registry.Close)

	publisher := eventbridge.NewLoggingPublisher(logger)
	authSvc := services.NewAuthService(fakeIdentity{}, registry, store, publisher, nil, services.AuthSettings{
		SiteURL:         "https://app.example.com",
		LinkedInEnabled: true,
		LinkedInScopes:  "openid profile email",
	}, logger)

	cfg := layout.DefaultConfig()
	cfg.MaxIterations = 30
	networkSvc := services.NewNetworkService(fixedSource{}, cfg, nil, logger)
	t.Cleanup(networkSvc.Close)

	router := NewRouter(Services{
		Auth:      authSvc,
		Network:   networkSvc,
		Content:   services.NewContentService(echoCompletion{}, store, publisher, nil, "gpt-4o-mini", logger),
		Analytics: services.NewAnalyticsService(),
	}, staticValidator{}, nil, nil, Settings{
		Cookies:          middleware.CookieSettings{SessionName: testCookie},
		GuardWaitTimeout: guardWait,
	}, logger)
	router.AddReadinessCheck("memory", func(context.Context) error { return nil })

	return &testServer{handler: router.Setup()}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", testCookie)
	return nil
}

func bearer(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer good-token")
	return req
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), time.Second)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = s.do(httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"memory":"ok"`)
}

func TestReadyReportsFailingDependency(t *testing.T) {
	logger := zap.NewNop()
	router := NewRouter(Services{}, nil, nil, nil, Settings{}, logger)
	router.AddReadinessCheck("neo4j", func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	router.Setup().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestGuardRedirectsAnonymousPageVisit(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), 2*time.Second)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.NotEmpty(t, sessionCookie(t, rec).Value)
}

func TestGuardRejectsAnonymousAPICall(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), 2*time.Second)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/network", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_SESSION")
}

func TestGuardPlaceholderWhileLoading(t *testing.T) {
	store := &blockingStore{Store: memory.NewStore(), release: make(chan struct{})}
	t.Cleanup(func() { close(store.release) })
	s := newTestServer(t, store, 50*time.Millisecond)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var body middleware.LoadingResponse
	decodeData(t, rec, &body)
	assert.Equal(t, "loading", body.Status)
}

func TestSignInThenRenderProtectedViews(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), 2*time.Second)

	req := httptest.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader(`{"email":"a@example.com","password":"correct-horse"}`))
	rec := s.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := sessionCookie(t, rec)

	var signedIn handlers.SessionResponse
	decodeData(t, rec, &signedIn)
	assert.Equal(t, "user-1", signedIn.UserID)
	assert.Equal(t, "access-user-1", signedIn.AccessToken)

	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec = s.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	var page handlers.PageResponse
	decodeData(t, rec, &page)
	assert.Equal(t, handlers.PageResponse{Page: "dashboard", UserID: "user-1"}, page)

	req = httptest.NewRequest(http.MethodGet, "/auth/state", nil)
	req.AddCookie(cookie)
	rec = s.do(req)
	var state handlers.GuardStateResponse
	decodeData(t, rec, &state)
	assert.Equal(t, "authenticated", state.State)
	assert.Equal(t, "user-1", state.UserID)

	req = httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.AddCookie(cookie)
	rec = s.do(req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec = s.do(req)
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestGuardRejectsExpiredSession(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), 2*time.Second)

	rec := s.do(httptest.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader(`{"email":"a@example.com","password":"stale-horse"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := sessionCookie(t, rec)

	// the refresh fails, so the expired session must not render
	req := httptest.NewRequest(http.MethodGet, "/api/v1/network", nil)
	req.AddCookie(cookie)
	rec = s.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec = s.do(req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestSignInFailures(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), time.Second)

	rec := s.do(httptest.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader(`{"email":"not-an-email","password":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email must be a valid email")

	rec = s.do(httptest.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader(`{"email":"a@example.com","password":"wrong"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid login credentials")
}

func TestSignUpPendingConfirmation(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), time.Second)

	rec := s.do(httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"email":"new@example.com","password":"secret1","full_name":"New User"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp handlers.SignUpResponse
	decodeData(t, rec, &resp)
	assert.True(t, resp.Pending)
	assert.Nil(t, resp.Session)
}

func TestCallbackExchangesCode(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), 2*time.Second)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=good-code&next=/content-creation", nil)
	req.AddCookie(&http.Cookie{Name: handlers.VerifierCookie, Value: "verifier-1"})
	rec := s.do(req)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/content-creation", rec.Header().Get("Location"))
	cookie := sessionCookie(t, rec)

	req = httptest.NewRequest(http.MethodGet, "/content-creation", nil)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusOK, s.do(req).Code)
}

func TestCallbackRejectsForeignNext(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), time.Second)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=good-code&next=https://evil.example.com", nil)
	req.AddCookie(&http.Cookie{Name: handlers.VerifierCookie, Value: "verifier-1"})
	rec := s.do(req)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestCallbackErrors(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), time.Second)

	t.Run("exchange failure message is shown verbatim", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/auth/callback?code=bad-code", nil))
		require.Equal(t, http.StatusFound, rec.Code)
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/", loc.Path)
		assert.Equal(t, "invalid flow state, no valid flow state found", loc.Query().Get("error"))
	})

	t.Run("nothing to resolve", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/auth/callback", nil))
		loc, _ := url.Parse(rec.Header().Get("Location"))
		assert.Equal(t, auth.MsgNoCredentials, loc.Query().Get("error"))
	})

	t.Run("missing state", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=good-code", nil)
		req.AddCookie(&http.Cookie{Name: handlers.StateCookie, Value: "xyz"})
		req.AddCookie(&http.Cookie{Name: handlers.VerifierCookie, Value: "verifier-1"})
		rec := s.do(req)
		require.Equal(t, http.StatusFound, rec.Code)
		loc, _ := url.Parse(rec.Header().Get("Location"))
		assert.Equal(t, "/", loc.Path)
		assert.Equal(t, auth.MsgInvalidCallbackURL, loc.Query().Get("error"))

		next := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		next.AddCookie(sessionCookie(t, rec))
		assert.Equal(t, http.StatusFound, s.do(next).Code)
	})

	t.Run("state mismatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=good-code&state=abc", nil)
		req.AddCookie(&http.Cookie{Name: handlers.StateCookie, Value: "xyz"})
		req.AddCookie(&http.Cookie{Name: handlers.VerifierCookie, Value: "verifier-1"})
		rec := s.do(req)
		loc, _ := url.Parse(rec.Header().Get("Location"))
		assert.Equal(t, auth.MsgInvalidCallbackURL, loc.Query().Get("error"))
	})
}

func TestResolveFragment(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), time.Second)

	tests := []struct {
		name     string
		url      string
		status   int
		expected handlers.ResolveResponse
	}{
		{
			name:     "provider error",
			url:      "https://app.example.com/auth/callback#error=access_denied&error_code=403&error_description=Email+link+is+invalid",
			status:   http.StatusUnauthorized,
			expected: handlers.ResolveResponse{Outcome: "error", Message: "Email link is invalid", Kind: string(auth.CredentialError)},
		},
		{
			name:     "token pair",
			url:      "https://app.example.com/auth/callback#access_token=good-access&refresh_token=r",
			status:   http.StatusOK,
			expected: handlers.ResolveResponse{Outcome: "redirect", Location: "/dashboard"},
		},
		{
			name:     "rejected tokens",
			url:      "https://app.example.com/auth/callback#access_token=forged&refresh_token=r",
			status:   http.StatusUnauthorized,
			expected: handlers.ResolveResponse{Outcome: "error", Message: auth.MsgFailedToSetSession, Kind: string(auth.SessionEstablishFailure)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(handlers.ResolveRequest{URL: tt.url})
			rec := s.do(httptest.NewRequest(http.MethodPost, "/auth/resolve", strings.NewReader(string(body))))
			assert.Equal(t, tt.status, rec.Code)

			var got handlers.ResolveResponse
			decodeData(t, rec, &got)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLinkedInStart(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), time.Second)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/auth/linkedin?next=/network-analysis", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "id.example.com", loc.Host)
	assert.Equal(t, services.LinkedInProvider, loc.Query().Get("provider"))

	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, handlers.VerifierCookie)
	require.Contains(t, cookies, handlers.StateCookie)
	assert.Equal(t, "verifier-1", cookies[handlers.VerifierCookie].Value)
	assert.True(t, cookies[handlers.VerifierCookie].HttpOnly)

	redirectTo, err := url.Parse(loc.Query().Get("redirect_to"))
	require.NoError(t, err)
	assert.Equal(t, cookies[handlers.StateCookie].Value, redirectTo.Query().Get("state"))
	assert.Equal(t, "/network-analysis", redirectTo.Query().Get("next"))
}

func TestAuthConfigIsRedacted(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), time.Second)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/auth/config", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view services.AuthConfigView
	decodeData(t, rec, &view)
	assert.Equal(t, "https://app.example.com", view.SiteURL)
	assert.True(t, view.LinkedInEnabled)
}

func TestBearerTokenAccess(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), time.Second)

	rec := s.do(bearer(httptest.NewRequest(http.MethodGet, "/api/v1/analytics/performance", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	var metrics []services.Metric
	decodeData(t, rec, &metrics)
	require.Len(t, metrics, 4)
	assert.Equal(t, "Post Reach", metrics[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/insights", nil)
	req.Header.Set("Authorization", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)
}

func TestNetworkEndpoint(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), time.Second)

	rec := s.do(bearer(httptest.NewRequest(http.MethodGet, "/api/v1/network?filter=first&zoom=400", nil)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view struct {
		Filter string `json:"filter"`
		Zoom   int    `json:"zoom"`
		Layout struct {
			Iterations int                    `json:"iterations"`
			Positions  map[string]interface{} `json:"positions"`
		} `json:"layout"`
	}
	decodeData(t, rec, &view)
	assert.Equal(t, "first", view.Filter)
	assert.Equal(t, 150, view.Zoom)
	assert.NotEmpty(t, view.Layout.Positions)

	rec = s.do(bearer(httptest.NewRequest(http.MethodGet, "/api/v1/network?filter=fourth", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(bearer(httptest.NewRequest(http.MethodGet, "/api/v1/network?zoom=big", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLayoutStream(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), time.Second)

	rec := s.do(bearer(httptest.NewRequest(http.MethodGet, "/api/v1/network/layout/stream?zoom=80", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: view\n"))
	assert.Contains(t, body, "event: frame\n")
	assert.Contains(t, body, "event: done\n")
	assert.Equal(t, 1, strings.Count(body, "event: done\n"))
}

func TestPinAndRelease(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), time.Second)

	rec := s.do(bearer(httptest.NewRequest(http.MethodPost, "/api/v1/network/pin", strings.NewReader(`{"node_id":"c1","x":10,"y":20}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(bearer(httptest.NewRequest(http.MethodGet, "/api/v1/network", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	// bearer clients carry no cookie; their surface follows the token's user
	rec = s.do(bearer(httptest.NewRequest(http.MethodPost, "/api/v1/network/pin", strings.NewReader(`{"node_id":"nope","x":10,"y":20}`))))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(bearer(httptest.NewRequest(http.MethodPost, "/api/v1/network/pin", strings.NewReader(`{"node_id":"c1","x":10,"y":20}`))))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(bearer(httptest.NewRequest(http.MethodPost, "/api/v1/network/release", strings.NewReader(`{"node_id":"c1"}`))))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(bearer(httptest.NewRequest(http.MethodPost, "/api/v1/network/pin", strings.NewReader(`{"x":10}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBearerRequestsGetNoBrowserSession(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), time.Second)

	rec := s.do(bearer(httptest.NewRequest(http.MethodGet, "/api/v1/network", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	rec = s.do(bearer(httptest.NewRequest(http.MethodPost, "/api/v1/network/pin", strings.NewReader(`{"node_id":"c1","x":1,"y":2}`))))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPinFollowsBrowserSession(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), 2*time.Second)

	rec := s.do(httptest.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader(`{"email":"a@example.com","password":"correct-horse"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/network", nil)
	req.AddCookie(cookie)
	require.Equal(t, http.StatusOK, s.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/network/pin", strings.NewReader(`{"node_id":"c1","x":10,"y":20}`))
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusNoContent, s.do(req).Code)

	// a different browser of the same user has its own surface
	rec = s.do(httptest.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader(`{"email":"a@example.com","password":"correct-horse"}`)))
	other := sessionCookie(t, rec)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/network/pin", strings.NewReader(`{"node_id":"c1","x":10,"y":20}`))
	req.AddCookie(other)
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)
}

func TestDraftLifecycle(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), time.Second)

	rec := s.do(bearer(httptest.NewRequest(http.MethodGet, "/api/v1/content/draft", nil)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(bearer(httptest.NewRequest(http.MethodPut, "/api/v1/content/draft",
		strings.NewReader(`{"title":"Launch","body":"We shipped!","content_type":"post","hashtags":["#Launch"]}`))))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(bearer(httptest.NewRequest(http.MethodGet, "/api/v1/content/draft", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	var draft content.Draft
	decodeData(t, rec, &draft)
	assert.Equal(t, "api-user", draft.UserID)
	assert.Equal(t, "We shipped!", draft.Body)

	rec = s.do(bearer(httptest.NewRequest(http.MethodDelete, "/api/v1/content/draft", nil)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(bearer(httptest.NewRequest(http.MethodPut, "/api/v1/content/draft", strings.NewReader(`{"content_type":"video"}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTemplates(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), time.Second)

	rec := s.do(bearer(httptest.NewRequest(http.MethodPost, "/api/v1/content/templates", strings.NewReader(`{"name":"Weekly","topic":"AI in hiring"}`))))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created content.Template
	decodeData(t, rec, &created)

	rec = s.do(bearer(httptest.NewRequest(http.MethodGet, "/api/v1/content/templates", nil)))
	var templates []content.Template
	decodeData(t, rec, &templates)
	assert.Len(t, templates, len(content.SystemTemplates())+1)

	rec = s.do(bearer(httptest.NewRequest(http.MethodDelete, "/api/v1/content/templates/"+created.ID, nil)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(bearer(httptest.NewRequest(http.MethodPost, "/api/v1/content/templates", strings.NewReader(`{"name":"No topic"}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateAndHashtags(t *testing.T) {
	s := newTestServer(t, memory.NewStore(), time.Second)

	rec := s.do(bearer(httptest.NewRequest(http.MethodPost, "/api/v1/content/generate",
		strings.NewReader(`{"topic":"remote work","contentType":"post","aiSettings":{"formality":80,"length":20,"creativity":50}}`))))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var completion ports.Completion
	decodeData(t, rec, &completion)
	assert.True(t, strings.HasPrefix(completion.Text, "Generated: "))
	assert.Equal(t, "gpt-4o-mini", completion.Model)

	rec = s.do(bearer(httptest.NewRequest(http.MethodPost, "/api/v1/content/generate",
		strings.NewReader(`{"topic":"x","aiSettings":{"formality":101}}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(bearer(httptest.NewRequest(http.MethodPost, "/api/v1/content/generate", strings.NewReader(`{}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(bearer(httptest.NewRequest(http.MethodGet, "/api/v1/content/hashtags?topic=Remote+Work+Culture", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	var tags handlers.HashtagsResponse
	decodeData(t, rec, &tags)
	assert.Contains(t, tags.Hashtags, "Remote")
}
