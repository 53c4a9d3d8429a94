package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultDestination is the protected page a successful sign-in lands on
const DefaultDestination = "/dashboard"

// Identity is the part of the identity client the resolver drives
type Identity interface {
	EstablishSessionFromTokens(ctx context.Context, accessToken, refreshToken string) (*Session, error)
	ExchangeCodeForSession(ctx context.Context, code, verifier string) (*Session, error)
}

// OutcomeKind is either a redirect or a user-visible error
type OutcomeKind int

const (
	OutcomeError OutcomeKind = iota
	OutcomeRedirect
)

func (k OutcomeKind) String() string {
	if k == OutcomeRedirect {
		return "redirect"
	}
	return "error"
}

// Inbound is one navigation to the callback page
type Inbound struct {
	// URL is the full page URL including the fragment.
	URL string
	// Verifier is the PKCE code verifier stored when the flow started.
	Verifier string
}

// Outcome is the single terminal result of a resolution pass
type Outcome struct {
	Kind     OutcomeKind
	Location string
	Message  string
	Session  *Session
	Err      *ResolveError
	// Reason names the rule that produced the outcome.
	Reason string
}

// Redirected reports whether the outcome is a redirect
func (o Outcome) Redirected() bool {
	return o.Kind == OutcomeRedirect
}

// Resolver turns an inbound callback URL into exactly one outcome
type Resolver struct {
	identity    Identity
	destination string
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithDestination overrides the default protected destination
func WithDestination(path string) ResolverOption {
	return func(r *Resolver) {
		if path != "" {
			r.destination = path
		}
	}
}

// NewResolver creates a resolver backed by the identity client
func NewResolver(identity Identity, opts ...ResolverOption) *Resolver {
	r := &Resolver{identity: identity, destination: DefaultDestination}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve inspects the inbound URL and returns its outcome. It makes at most
// one identity call and never panics: failures of the identity client,
// including panics, become error outcomes.
func (r *Resolver) Resolve(ctx context.Context, in Inbound) (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = errorOutcome("panic", newResolveError(ExchangeFailure, MsgAuthenticationFailed, fmt.Errorf("identity client panic: %v", rec)))
		}
	}()

	u, err := url.Parse(strings.TrimSpace(in.URL))
	if err != nil {
		return errorOutcome("invalid_url", newResolveError(CredentialError, MsgInvalidCallbackURL, err))
	}

	result := ParseAuthResult(u)
	switch result.Kind {
	case ResultError:
		msg := result.ErrorDescription
		if msg == "" {
			msg = MsgAuthenticationFailed
		}
		return errorOutcome("provider_error", newResolveError(CredentialError, msg, errors.New(result.ErrorCode)))

	case ResultTokens:
		session, err := r.identity.EstablishSessionFromTokens(ctx, result.AccessToken, result.RefreshToken)
		if err != nil || !session.Valid() {
			if err == nil {
				err = errors.New("identity client returned no session")
			}
			return errorOutcome("session_failed", newResolveError(SessionEstablishFailure, MsgFailedToSetSession, err))
		}
		return Outcome{Kind: OutcomeRedirect, Location: r.destination, Session: session, Reason: "tokens"}

	case ResultCode:
		next := SafeNext(result.Next, r.destination)
		session, err := r.identity.ExchangeCodeForSession(ctx, result.Code, in.Verifier)
		if err != nil {
			msg := err.Error()
			if msg == "" {
				msg = MsgAuthenticationFailed
			}
			return errorOutcome("exchange_failed", newResolveError(ExchangeFailure, msg, err))
		}
		if !session.Valid() {
			return errorOutcome("exchange_failed", newResolveError(ExchangeFailure, MsgAuthenticationFailed, errors.New("identity client returned no session")))
		}
		return Outcome{Kind: OutcomeRedirect, Location: next, Session: session, Reason: "code"}

	case ResultIncomplete:
		return errorOutcome("incomplete", newResolveError(CredentialError, MsgIncompleteTokens, nil))

	default:
		return errorOutcome("missing", newResolveError(CredentialError, MsgNoCredentials, nil))
	}
}

func errorOutcome(reason string, err *ResolveError) Outcome {
	return Outcome{Kind: OutcomeError, Message: err.Message, Err: err, Reason: reason}
}
