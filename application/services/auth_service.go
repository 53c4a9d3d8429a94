package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
	"github.com/FedericoTs/LinkedinAnalytics/domain/auth"
	"github.com/FedericoTs/LinkedinAnalytics/domain/events"
	pkgerrors "github.com/FedericoTs/LinkedinAnalytics/pkg/errors"
	"github.com/FedericoTs/LinkedinAnalytics/pkg/observability"
)

const (
	// LinkedInProvider is the Supabase provider name of LinkedIn OpenID Connect
	LinkedInProvider = "linkedin_oidc"
	redactedValue    = "[REDACTED]"
	sessionKeyPrefix = "session:"
)

// AuthSettings configures the auth service
type AuthSettings struct {
	SiteURL              string
	RedirectAllowList    []string
	CallbackPath         string
	LinkedInEnabled      bool
	LinkedInClientID     string
	LinkedInClientSecret string
	LinkedInScopes       string
	RestoreTimeout       time.Duration
}

// LinkedInAuthorization is a started LinkedIn sign-in
type LinkedInAuthorization struct {
	URL      string `json:"url"`
	Verifier string `json:"-"`
	State    string `json:"state"`
}

// AuthConfigView is the redacted auth configuration
type AuthConfigView struct {
	SiteURL          string   `json:"site_url"`
	URIAllowList     []string `json:"uri_allow_list"`
	LinkedInEnabled  bool     `json:"linkedin_enabled"`
	LinkedInClientID *string  `json:"linkedin_client_id"`
	LinkedInSecret   *string  `json:"linkedin_secret"`
	Message          string   `json:"message"`
}

// AuthService owns browser sessions: it resolves callbacks, signs users in
// and out and keeps one SessionContext per browser session.
type AuthService struct {
	identity  ports.IdentityClient
	resolver  *auth.Resolver
	registry  *auth.Registry
	store     ports.KeyValueStore
	publisher ports.EventPublisher
	metrics   *observability.Collector
	settings  AuthSettings
	linkedIn  atomic.Bool
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	identity ports.IdentityClient,
	registry *auth.Registry,
	store ports.KeyValueStore,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	settings AuthSettings,
	logger *zap.Logger,
) *AuthService {
	if settings.CallbackPath == "" {
		settings.CallbackPath = "/auth/callback"
	}
	if settings.RestoreTimeout <= 0 {
		settings.RestoreTimeout = 5 * time.Second
	}
	s := &AuthService{
		identity:  identity,
		resolver:  auth.NewResolver(identity),
		registry:  registry,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		settings:  settings,
		logger:    logger,
		now:       time.Now,
	}
	s.linkedIn.Store(settings.LinkedInEnabled)
	return s
}

// SetLinkedInEnabled switches LinkedIn sign-in on or off at runtime
func (s *AuthService) SetLinkedInEnabled(enabled bool) {
	s.linkedIn.Store(enabled)
}

// Context returns the session context of a browser session. A context seen
// for the first time starts in the loading state while the persisted session
// is restored in the background.
func (s *AuthService) Context(browserID string) *auth.SessionContext {
	sc, created := s.registry.GetOrCreate(browserID)
	if created {
		go s.restore(browserID, sc)
	}
	return sc
}

// Guard returns a route guard bound to the browser session. Callers must
// Close it. A browser with no live context has its stored session loaded
// within ctx; one with nothing stored gets a signed-out guard and leaves
// no context behind. When the store does not answer in time the context
// is restored in the background and the guard starts loading.
func (s *AuthService) Guard(ctx context.Context, browserID string) *auth.Guard {
	if sc, ok := s.registry.Get(browserID); ok {
		return auth.NewGuard(sc)
	}

	session, err := s.loadLiveSession(ctx, browserID)
	if err != nil {
		s.logger.Debug("Session lookup deferred to background restore",
			zap.String("browser_session", browserID),
			zap.Error(err),
		)
		return auth.NewGuard(s.Context(browserID))
	}
	if session == nil {
		return auth.SignedOutGuard()
	}

	sc, created := s.registry.GetOrCreate(browserID)
	if created {
		sc.Initialize(session)
	}
	return auth.NewGuard(sc)
}

// RecordGuardDecision counts a guard decision
func (s *AuthService) RecordGuardDecision(d auth.Decision) {
	s.metrics.RecordGuardDecision(d.Kind.String())
}

func (s *AuthService) restore(browserID string, sc *auth.SessionContext) {
	ctx, cancel := context.WithTimeout(context.Background(), s.settings.RestoreTimeout)
	defer cancel()

	session, err := s.loadLiveSession(ctx, browserID)
	if err != nil {
		s.logger.Warn("Failed to load persisted session",
			zap.String("browser_session", browserID),
			zap.Error(err),
		)
	}
	sc.Initialize(session)
}

// loadLiveSession loads the persisted session of a browser session,
// refreshing it when the access token has expired. A session that cannot be
// refreshed is dropped from the store and reported as nil.
func (s *AuthService) loadLiveSession(ctx context.Context, browserID string) (*auth.Session, error) {
	session, err := s.loadSession(ctx, browserID)
	if err != nil || session == nil {
		return nil, err
	}
	if !session.Expired(s.now()) {
		return session, nil
	}

	refreshed, err := s.identity.RefreshSession(ctx, session.RefreshToken)
	if err != nil || !refreshed.Valid() {
		s.logger.Info("Persisted session expired and could not be refreshed",
			zap.String("user_id", session.UserID),
			zap.Error(err),
		)
		_ = s.store.Remove(ctx, sessionKeyPrefix+browserID)
		return nil, nil
	}
	s.persistSession(ctx, browserID, refreshed)
	return refreshed, nil
}

// Resolve runs the session resolver for one callback navigation and, on
// success, attaches the session to the browser session.
func (s *AuthService) Resolve(ctx context.Context, browserID string, in auth.Inbound) auth.Outcome {
	out := s.resolver.Resolve(ctx, in)
	s.metrics.RecordResolverOutcome(out.Kind.String(), out.Reason)

	if !out.Redirected() {
		s.logger.Info("Authentication callback failed",
			zap.String("reason", out.Reason),
			zap.String("message", out.Message),
			zap.Error(out.Err),
		)
		return out
	}

	s.attach(ctx, browserID, out.Session, out.Reason)
	s.logger.Info("Authentication callback resolved",
		zap.String("user_id", out.Session.UserID),
		zap.String("reason", out.Reason),
		zap.String("location", out.Location),
	)
	return out
}

// SignIn signs in with email and password
func (s *AuthService) SignIn(ctx context.Context, browserID, email, password string) (*auth.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, pkgerrors.NewValidationError("email and password are required")
	}

	session, err := s.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, pkgerrors.NewUnauthorizedError(err.Error()).WithCode(pkgerrors.CodeInvalidCredentials).WithCause(err)
	}
	if !session.Valid() {
		return nil, pkgerrors.NewUnauthorizedError("sign in returned no session").WithCode(pkgerrors.CodeInvalidCredentials)
	}

	s.attach(ctx, browserID, session, "password")
	return session, nil
}

// SignUp registers a user with full_name metadata. The session is nil while
// the provider waits for email confirmation.
func (s *AuthService) SignUp(ctx context.Context, browserID, email, password, fullName string) (*auth.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, pkgerrors.NewValidationError("email and password are required")
	}

	session, err := s.identity.SignUp(ctx, email, password, fullName)
	if err != nil {
		return nil, pkgerrors.NewExternalError("identity", err).WithCode(pkgerrors.CodeIdentityProvider).WithDetails(map[string]interface{}{"reason": err.Error()})
	}
	if session.Valid() {
		s.attach(ctx, browserID, session, "signup")
	}
	return session, nil
}

// SignOut ends the browser session. Provider failures are logged; the local
// session is torn down regardless.
func (s *AuthService) SignOut(ctx context.Context, browserID string) error {
	sc, ok := s.registry.Get(browserID)
	var session *auth.Session
	if ok {
		session, _ = sc.Current()
	} else if loaded, err := s.loadSession(ctx, browserID); err == nil {
		session = loaded
	}

	if session.Valid() {
		if err := s.identity.SignOut(ctx, session.AccessToken); err != nil {
			s.logger.Warn("Identity provider sign out failed",
				zap.String("user_id", session.UserID),
				zap.Error(err),
			)
		}
	}

	if ok {
		sc.SignedOut()
	}
	s.registry.Remove(browserID)

	if err := s.store.Remove(ctx, sessionKeyPrefix+browserID); err != nil {
		return pkgerrors.NewDatabaseError("remove session", err)
	}

	if session != nil {
		s.publish(ctx, events.NewSessionEnded(session.UserID, s.now()))
	}
	return nil
}

// CurrentSession returns the session of a browser session, refreshing it
// when the access token has expired. It returns nil when signed out.
func (s *AuthService) CurrentSession(ctx context.Context, browserID string) (*auth.Session, error) {
	sc, ok := s.registry.Get(browserID)
	if !ok {
		session, err := s.loadLiveSession(ctx, browserID)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("load session", err)
		}
		return session, nil
	}
	session, _ := sc.Current()
	if session == nil || !session.Expired(s.now()) {
		return session, nil
	}

	refreshed, err := s.identity.RefreshSession(ctx, session.RefreshToken)
	if err != nil || !refreshed.Valid() {
		s.logger.Info("Session expired without refresh", zap.String("user_id", session.UserID), zap.Error(err))
		sc.SignedOut()
		_ = s.store.Remove(ctx, sessionKeyPrefix+browserID)
		return nil, nil
	}

	sc.Refreshed(refreshed)
	s.persistSession(ctx, browserID, refreshed)
	return refreshed, nil
}

// LinkedInAuthorize starts the LinkedIn PKCE flow. The verifier and state
// must be kept by the caller until the callback.
func (s *AuthService) LinkedInAuthorize(ctx context.Context, next string) (*LinkedInAuthorization, error) {
	if !s.linkedIn.Load() {
		return nil, pkgerrors.NewForbiddenError("LinkedIn sign-in is not enabled")
	}

	state := uuid.NewString()
	redirect, err := url.Parse(strings.TrimRight(s.settings.SiteURL, "/") + s.settings.CallbackPath)
	if err != nil {
		return nil, pkgerrors.NewInternalError("invalid site url").WithCause(err)
	}
	q := redirect.Query()
	q.Set("state", state)
	if next = auth.SafeNext(next, ""); next != "" {
		q.Set("next", next)
	}
	redirect.RawQuery = q.Encode()

	req, err := s.identity.AuthorizeURL(ctx, LinkedInProvider, redirect.String(), s.settings.LinkedInScopes)
	if err != nil {
		return nil, pkgerrors.NewExternalError("identity", err).WithCode(pkgerrors.CodeIdentityProvider)
	}

	return &LinkedInAuthorization{URL: req.URL, Verifier: req.Verifier, State: state}, nil
}

// AuthConfig returns the auth configuration with LinkedIn credentials
// redacted
func (s *AuthService) AuthConfig() AuthConfigView {
	view := AuthConfigView{
		SiteURL:         s.settings.SiteURL,
		URIAllowList:    append([]string(nil), s.settings.RedirectAllowList...),
		LinkedInEnabled: s.linkedIn.Load(),
		Message: fmt.Sprintf("To fix redirect issues, ensure the identity project has the following settings:\n"+
			"1. Add '%s' to the Site URL\n"+
			"2. Add '%s%s' to the URI allow list\n"+
			"3. Verify LinkedIn app settings have the same callback URL",
			s.settings.SiteURL, strings.TrimRight(s.settings.SiteURL, "/"), s.settings.CallbackPath),
	}
	if s.settings.LinkedInClientID != "" {
		v := redactedValue
		view.LinkedInClientID = &v
	}
	if s.settings.LinkedInClientSecret != "" {
		v := redactedValue
		view.LinkedInSecret = &v
	}
	return view
}

func (s *AuthService) attach(ctx context.Context, browserID string, session *auth.Session, method string) {
	sc, _ := s.registry.GetOrCreate(browserID)
	sc.SignedIn(session)
	s.persistSession(ctx, browserID, session)
	s.publish(ctx, events.NewSessionEstablished(session.UserID, method, s.now()))
}

func (s *AuthService) loadSession(ctx context.Context, browserID string) (*auth.Session, error) {
	raw, found, err := s.store.Get(ctx, sessionKeyPrefix+browserID)
	if err != nil || !found {
		return nil, err
	}
	var session auth.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (s *AuthService) persistSession(ctx context.Context, browserID string, session *auth.Session) {
	raw, err := json.Marshal(session)
	if err == nil {
		err = s.store.Set(ctx, sessionKeyPrefix+browserID, raw)
	}
	if err != nil {
		s.logger.Error("Failed to persist session",
			zap.String("user_id", session.UserID),
			zap.Error(err),
		)
	}
}

func (s *AuthService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
	}
}
