package supabase

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
	"github.com/FedericoTs/LinkedinAnalytics/domain/auth"
)

// Trace wraps an identity client with one span per provider call. Tokens and
// passwords never become span attributes.
func Trace(next ports.IdentityClient, tracer trace.Tracer) ports.IdentityClient {
	return &tracedClient{inner: next, tracer: tracer}
}

type tracedClient struct {
	inner  ports.IdentityClient
	tracer trace.Tracer
}

func (t *tracedClient) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "identity."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *tracedClient) EstablishSessionFromTokens(ctx context.Context, accessToken, refreshToken string) (*auth.Session, error) {
	ctx, span := t.start(ctx, "EstablishSessionFromTokens")
	s, err := t.inner.EstablishSessionFromTokens(ctx, accessToken, refreshToken)
	finish(span, err)
	return s, err
}

func (t *tracedClient) ExchangeCodeForSession(ctx context.Context, code, verifier string) (*auth.Session, error) {
	ctx, span := t.start(ctx, "ExchangeCodeForSession")
	s, err := t.inner.ExchangeCodeForSession(ctx, code, verifier)
	finish(span, err)
	return s, err
}

func (t *tracedClient) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error) {
	ctx, span := t.start(ctx, "SignInWithPassword")
	s, err := t.inner.SignInWithPassword(ctx, email, password)
	finish(span, err)
	return s, err
}

func (t *tracedClient) SignUp(ctx context.Context, email, password, fullName string) (*auth.Session, error) {
	ctx, span := t.start(ctx, "SignUp")
	s, err := t.inner.SignUp(ctx, email, password, fullName)
	span.SetAttributes(attribute.Bool("identity.pending_confirmation", err == nil && s == nil))
	finish(span, err)
	return s, err
}

func (t *tracedClient) SignOut(ctx context.Context, accessToken string) error {
	ctx, span := t.start(ctx, "SignOut")
	err := t.inner.SignOut(ctx, accessToken)
	finish(span, err)
	return err
}

func (t *tracedClient) RefreshSession(ctx context.Context, refreshToken string) (*auth.Session, error) {
	ctx, span := t.start(ctx, "RefreshSession")
	s, err := t.inner.RefreshSession(ctx, refreshToken)
	finish(span, err)
	return s, err
}

func (t *tracedClient) GetUser(ctx context.Context, accessToken string) (*ports.IdentityUser, error) {
	ctx, span := t.start(ctx, "GetUser")
	u, err := t.inner.GetUser(ctx, accessToken)
	finish(span, err)
	return u, err
}

func (t *tracedClient) AuthorizeURL(ctx context.Context, provider, redirectTo, scopes string) (*ports.AuthorizeRequest, error) {
	ctx, span := t.start(ctx, "AuthorizeURL", attribute.String("identity.provider", provider))
	r, err := t.inner.AuthorizeURL(ctx, provider, redirectTo, scopes)
	finish(span, err)
	return r, err
}
