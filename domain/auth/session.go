package auth

import "time"

// Session is an authenticated identity plus the credentials issued for it.
// Instances are owned by the identity client; the application only keeps
// copies.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access credential is past its expiry at now.
// A zero expiry never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Valid reports whether the session carries a subject and an access credential
func (s *Session) Valid() bool {
	return s != nil && s.UserID != "" && s.AccessToken != ""
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
