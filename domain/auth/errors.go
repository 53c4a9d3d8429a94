package auth

import "fmt"

// ErrorKind classifies why a redirect could not be resolved into a session
type ErrorKind string

const (
	// CredentialError means the redirect carried no usable token or code,
	// or the provider reported an error in the fragment.
	CredentialError ErrorKind = "credential_error"
	// ExchangeFailure means the identity provider rejected the code.
	ExchangeFailure ErrorKind = "exchange_failure"
	// SessionEstablishFailure means tokens from the fragment were rejected.
	SessionEstablishFailure ErrorKind = "session_establish_failure"
)

// User-facing messages
const (
	MsgAuthenticationFailed = "Authentication failed"
	MsgFailedToSetSession   = "Failed to set session"
	MsgNoCredentials        = "No authentication code or token provided"
	MsgIncompleteTokens     = "Incomplete credentials in redirect"
	MsgInvalidCallbackURL   = "Invalid callback URL"
)

// ResolveError is the typed failure carried by an error outcome
type ResolveError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ResolveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ResolveError) Unwrap() error {
	return e.Cause
}

func newResolveError(kind ErrorKind, message string, cause error) *ResolveError {
	return &ResolveError{Kind: kind, Message: message, Cause: cause}
}
