package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/FedericoTs/LinkedinAnalytics/pkg/common"
)

// DefaultSessionCookie names the browser session cookie
const DefaultSessionCookie = "la_session"

const sessionCookieMaxAge = 30 * 24 * time.Hour

// CookieSettings control the cookies set by the HTTP layer
type CookieSettings struct {
	SessionName string
	Secure      bool
}

func (c CookieSettings) sessionName() string {
	if c.SessionName == "" {
		return DefaultSessionCookie
	}
	return c.SessionName
}

// BrowserSession binds every request to a browser session id kept in a
// cookie. A new id is issued when the cookie is missing or malformed,
// except for bearer requests, which carry no browser session.
func BrowserSession(settings CookieSettings) func(next http.Handler) http.Handler {
	name := settings.sessionName()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(name); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					id = c.Value
				}
			}
			if id == "" && bearerToken(r) != "" {
				next.ServeHTTP(w, r)
				return
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     name,
					Value:    id,
					Path:     "/",
					MaxAge:   int(sessionCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   settings.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(common.WithBrowserSessionID(r.Context(), id)))
		})
	}
}
