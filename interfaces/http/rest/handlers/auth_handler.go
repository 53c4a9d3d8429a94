package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/application/services"
	"github.com/FedericoTs/LinkedinAnalytics/domain/auth"
	"github.com/FedericoTs/LinkedinAnalytics/pkg/common"
	pkgerrors "github.com/FedericoTs/LinkedinAnalytics/pkg/errors"
)

// Cookies holding the LinkedIn PKCE flow between start and callback
const (
	VerifierCookie = "la_pkce"
	StateCookie    = "la_state"
	flowCookiePath = "/auth"
	flowCookieTTL  = 10 * time.Minute
)

// AuthHandler serves sign-in, sign-up, sign-out and the callback resolver
type AuthHandler struct {
	auth         *services.AuthService
	errors       *pkgerrors.ErrorHandler
	secureCookie bool
	guardWait    time.Duration
	logger       *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *services.AuthService,
	errorHandler *pkgerrors.ErrorHandler,
	secureCookie bool,
	guardWait time.Duration,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:         authService,
		errors:       errorHandler,
		secureCookie: secureCookie,
		guardWait:    guardWait,
		logger:       logger,
	}
}

// ResolveRequest carries the full callback URL, fragment included, as seen
// by the browser
type ResolveRequest struct {
	URL string `json:"url" validate:"required"`
}

// ResolveResponse is the outcome of one resolution pass
type ResolveResponse struct {
	Outcome  string `json:"outcome"`
	Location string `json:"location,omitempty"`
	Message  string `json:"message,omitempty"`
	Kind     string `json:"kind,omitempty"`
}

// SignInRequest represents the body of POST /auth/signin
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUpRequest represents the body of POST /auth/signup
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"max=200"`
}

// SessionResponse describes a signed-in session. The access token is
// returned so API and WebSocket clients can authenticate with it.
type SessionResponse struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SignUpResponse reports whether the account still awaits confirmation
type SignUpResponse struct {
	Pending bool             `json:"pending_confirmation"`
	Session *SessionResponse `json:"session,omitempty"`
	Message string           `json:"message,omitempty"`
}

// GuardStateResponse is the route guard's view of the browser session
type GuardStateResponse struct {
	State  string `json:"state"`
	Seq    uint64 `json:"seq"`
	UserID string `json:"user_id,omitempty"`
}

func toSessionResponse(s *auth.Session) *SessionResponse {
	if s == nil {
		return nil
	}
	return &SessionResponse{UserID: s.UserID, Email: s.Email, AccessToken: s.AccessToken, ExpiresAt: s.ExpiresAt}
}

func toResolveResponse(out auth.Outcome) ResolveResponse {
	resp := ResolveResponse{Outcome: out.Kind.String(), Location: out.Location, Message: out.Message}
	if out.Err != nil {
		resp.Kind = string(out.Err.Kind)
	}
	return resp
}

// Callback handles GET /auth/callback, the redirect target of the identity
// provider. Only the query reaches the server, so this serves the code
// flow; token fragments are posted to Resolve by the browser.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	browserID, err := browserSessionID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	verifier := h.takeFlowCookie(w, r, VerifierCookie)
	expectedState := h.takeFlowCookie(w, r, StateCookie)
	// a flow started here must come back with its state
	state := r.URL.Query().Get("state")
	if expectedState != "" || state != "" {
		if subtle.ConstantTimeCompare([]byte(state), []byte(expectedState)) != 1 {
			h.logger.Warn("Callback state mismatch", zap.String("browserSession", browserID))
			redirectWithError(w, r, auth.MsgInvalidCallbackURL)
			return
		}
	}

	out := h.auth.Resolve(r.Context(), browserID, auth.Inbound{URL: requestURL(r), Verifier: verifier})
	if out.Redirected() {
		http.Redirect(w, r, out.Location, http.StatusFound)
		return
	}
	redirectWithError(w, r, out.Message)
}

// Resolve handles POST /auth/resolve
func (h *AuthHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	browserID, err := browserSessionID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req ResolveRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	verifier := h.takeFlowCookie(w, r, VerifierCookie)
	out := h.auth.Resolve(r.Context(), browserID, auth.Inbound{URL: req.URL, Verifier: verifier})

	status := http.StatusOK
	if !out.Redirected() {
		status = http.StatusUnauthorized
	}
	common.RespondJSON(w, status, toResolveResponse(out))
}

// SignIn handles POST /auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	browserID, err := browserSessionID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req SignInRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	session, err := h.auth.SignIn(r.Context(), browserID, req.Email, req.Password)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toSessionResponse(session))
}

// SignUp handles POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	browserID, err := browserSessionID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req SignUpRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	session, err := h.auth.SignUp(r.Context(), browserID, req.Email, req.Password, req.FullName)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if session == nil {
		common.RespondJSON(w, http.StatusCreated, SignUpResponse{
			Pending: true,
			Message: "Check your email for the confirmation link",
		})
		return
	}
	common.RespondJSON(w, http.StatusCreated, SignUpResponse{Session: toSessionResponse(session)})
}

// SignOut handles POST /auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	browserID, err := browserSessionID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := h.auth.SignOut(r.Context(), browserID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}

// Session handles GET /auth/session, refreshing an expired access token
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	browserID, err := browserSessionID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	// let a restore that is still running finish first
	h.guard(r.Context(), browserID).Close()

	session, err := h.auth.CurrentSession(r.Context(), browserID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if session == nil {
		common.RespondError(w, http.StatusUnauthorized, pkgerrors.CodeMissingSession, "Not signed in")
		return
	}
	common.RespondJSON(w, http.StatusOK, toSessionResponse(session))
}

// LinkedIn handles GET /auth/linkedin. The verifier and state are kept in
// short-lived cookies until the provider redirects back.
func (h *AuthHandler) LinkedIn(w http.ResponseWriter, r *http.Request) {
	authz, err := h.auth.LinkedInAuthorize(r.Context(), r.URL.Query().Get("next"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.setFlowCookie(w, VerifierCookie, authz.Verifier)
	h.setFlowCookie(w, StateCookie, authz.State)
	http.Redirect(w, r, authz.URL, http.StatusFound)
}

// Config handles GET /auth/config
func (h *AuthHandler) Config(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.auth.AuthConfig())
}

// State handles GET /auth/state
func (h *AuthHandler) State(w http.ResponseWriter, r *http.Request) {
	browserID, err := browserSessionID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	guard := h.guard(r.Context(), browserID)
	defer guard.Close()

	resp := GuardStateResponse{State: guard.State().String(), Seq: guard.Seq()}
	if d := guard.Decide(); d.Session != nil {
		resp.UserID = d.Session.UserID
	}
	common.RespondJSON(w, http.StatusOK, resp)
}

// guard returns the browser's route guard once it has left the loading
// state or the guard wait has passed
func (h *AuthHandler) guard(ctx context.Context, browserID string) *auth.Guard {
	waitCtx, cancel := context.WithTimeout(ctx, h.guardWait)
	defer cancel()
	guard := h.auth.Guard(waitCtx, browserID)
	guard.Wait(waitCtx)
	return guard
}

func (h *AuthHandler) setFlowCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     flowCookiePath,
		MaxAge:   int(flowCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlowCookie reads a flow cookie and clears it; flow cookies are single use
func (h *AuthHandler) takeFlowCookie(w http.ResponseWriter, r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Path:     flowCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Value
}

// requestURL rebuilds the absolute URL of the request
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func redirectWithError(w http.ResponseWriter, r *http.Request, message string) {
	http.Redirect(w, r, auth.SignInPath+"?error="+url.QueryEscape(message), http.StatusFound)
}
