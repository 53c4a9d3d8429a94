package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/domain/auth"
	pkgauth "github.com/FedericoTs/LinkedinAnalytics/pkg/auth"
	"github.com/FedericoTs/LinkedinAnalytics/pkg/common"
	pkgerrors "github.com/FedericoTs/LinkedinAnalytics/pkg/errors"
)

// GuardSource hands out route guards for browser sessions
type GuardSource interface {
	Guard(ctx context.Context, browserID string) *auth.Guard
	CurrentSession(ctx context.Context, browserID string) (*auth.Session, error)
	RecordGuardDecision(d auth.Decision)
}

// TokenValidator validates bearer access tokens
type TokenValidator interface {
	ValidateToken(token string) (*pkgauth.Claims, error)
}

// LoadingResponse is sent while the session is still being restored
type LoadingResponse struct {
	Status string `json:"status"`
}

// RequireSession protects a route group. Requests with a bearer token are
// authenticated by the token alone; otherwise the route guard of the
// browser session decides, waiting up to wait for it to leave the loading
// state. A rendered session whose access token has expired must refresh
// before the request goes through. validator may be nil.
func RequireSession(guards GuardSource, validator TokenValidator, wait time.Duration, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			api := isAPIRequest(r)

			if token := bearerToken(r); token != "" {
				if validator == nil {
					respondUnauthorized(w, "Bearer tokens are not accepted")
					return
				}
				claims, err := validator.ValidateToken(token)
				if err != nil {
					logger.Debug("Rejected bearer token", zap.Error(err))
					respondUnauthorized(w, "Invalid token")
					return
				}
				ctx := common.WithAuthMethod(r.Context(), common.AuthMethodBearer)
				next.ServeHTTP(w, r.WithContext(withUser(ctx, claims.UserID, claims.Email, claims.Role)))
				return
			}

			browserID, ok := common.GetBrowserSessionID(r.Context())
			if !ok {
				deny(w, r, api, auth.SignInPath)
				return
			}

			waitCtx, cancel := context.WithTimeout(r.Context(), wait)
			guard := guards.Guard(waitCtx, browserID)
			defer guard.Close()
			guard.Wait(waitCtx)
			cancel()

			decision := guard.Decide()
			guards.RecordGuardDecision(decision)

			switch decision.Kind {
			case auth.DecisionRender:
				s := decision.Session
				if s.Expired(time.Now()) {
					refreshed, err := guards.CurrentSession(r.Context(), browserID)
					if err != nil || refreshed == nil {
						logger.Debug("Session expired during guard check",
							zap.String("user_id", s.UserID),
							zap.Error(err),
						)
						deny(w, r, api, auth.SignInPath)
						return
					}
					s = refreshed
				}
				ctx := common.WithAuthMethod(r.Context(), common.AuthMethodSession)
				next.ServeHTTP(w, r.WithContext(withUser(ctx, s.UserID, s.Email, "")))
			case auth.DecisionRedirect:
				deny(w, r, api, decision.Location)
			default:
				common.RespondJSON(w, http.StatusAccepted, LoadingResponse{Status: "loading"})
			}
		})
	}
}

func withUser(ctx context.Context, userID, email, role string) context.Context {
	ctx = common.WithUserID(ctx, userID)
	return pkgauth.SetUserInContext(ctx, &pkgauth.UserContext{UserID: userID, Email: email, Role: role})
}

func deny(w http.ResponseWriter, r *http.Request, api bool, location string) {
	if api {
		respondUnauthorized(w, "Authentication required")
		return
	}
	http.Redirect(w, r, location, http.StatusFound)
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	common.RespondError(w, http.StatusUnauthorized, pkgerrors.CodeMissingSession, message)
}
