package services

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
	"github.com/FedericoTs/LinkedinAnalytics/domain/auth"
	"github.com/FedericoTs/LinkedinAnalytics/domain/content"
	"github.com/FedericoTs/LinkedinAnalytics/domain/events"
)

type MockIdentityClient struct {
	mock.Mock
}

func sessionResult(args mock.Arguments) (*auth.Session, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockIdentityClient) EstablishSessionFromTokens(ctx context.Context, accessToken, refreshToken string) (*auth.Session, error) {
	return sessionResult(m.Called(ctx, accessToken, refreshToken))
}

func (m *MockIdentityClient) ExchangeCodeForSession(ctx context.Context, code, verifier string) (*auth.Session, error) {
	return sessionResult(m.Called(ctx, code, verifier))
}

func (m *MockIdentityClient) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error) {
	return sessionResult(m.Called(ctx, email, password))
}

func (m *MockIdentityClient) SignUp(ctx context.Context, email, password, fullName string) (*auth.Session, error) {
	return sessionResult(m.Called(ctx, email, password, fullName))
}

func (m *MockIdentityClient) SignOut(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

func (m *MockIdentityClient) RefreshSession(ctx context.Context, refreshToken string) (*auth.Session, error) {
	return sessionResult(m.Called(ctx, refreshToken))
}

func (m *MockIdentityClient) GetUser(ctx context.Context, accessToken string) (*ports.IdentityUser, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.IdentityUser), args.Error(1)
}

func (m *MockIdentityClient) AuthorizeURL(ctx context.Context, provider, redirectTo, scopes string) (*ports.AuthorizeRequest, error) {
	args := m.Called(ctx, provider, redirectTo, scopes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.AuthorizeRequest), args.Error(1)
}

type MockCompletionService struct {
	mock.Mock
}

func (m *MockCompletionService) Generate(ctx context.Context, prompt string, params content.CompletionParams) (*ports.Completion, error) {
	args := m.Called(ctx, prompt, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Completion), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	for _, e := range evts {
		_ = p.Publish(ctx, e)
	}
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.GetEventType()
	}
	return out
}

type fakeStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (s *fakeStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return nil, false, errors.New("store unavailable")
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *fakeStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *fakeStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *fakeStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}
