package auth

import (
	"context"
	"sync"
)

// GuardState is the route guard's view of the session
type GuardState int

const (
	StateLoading GuardState = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s GuardState) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "loading"
	}
}

// DecisionKind is what a protected view should do
type DecisionKind int

const (
	DecisionPlaceholder DecisionKind = iota
	DecisionRender
	DecisionRedirect
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionRender:
		return "render"
	case DecisionRedirect:
		return "redirect"
	default:
		return "placeholder"
	}
}

// SignInPath is where unauthenticated visitors of protected views are sent
const SignInPath = "/"

// Decision is the guard's verdict for a protected view
type Decision struct {
	Kind     DecisionKind
	Location string
	Session  *Session
}

// Guard tracks one SessionContext and decides whether protected views may
// render. It reacts to every change notification in delivery order.
type Guard struct {
	mu      sync.Mutex
	state   GuardState
	session *Session
	seq     uint64
	changed chan struct{}
	dispose func()
}

// NewGuard subscribes a guard to sc. The guard starts in StateLoading.
func NewGuard(sc *SessionContext) *Guard {
	g := &Guard{
		state:   StateLoading,
		changed: make(chan struct{}),
	}
	g.dispose = sc.Subscribe(g.observe)
	return g
}

// SignedOutGuard returns a guard that is already unauthenticated and follows
// no context. It serves browsers with no stored session.
func SignedOutGuard() *Guard {
	return &Guard{
		state:   StateUnauthenticated,
		changed: make(chan struct{}),
		dispose: func() {},
	}
}

func (g *Guard) observe(change Change) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq = change.Seq
	g.session = change.Session
	if change.Session.Valid() {
		g.state = StateAuthenticated
	} else {
		g.state = StateUnauthenticated
	}

	close(g.changed)
	g.changed = make(chan struct{})
}

// State returns the current state
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Seq returns the sequence number of the last change the guard processed
func (g *Guard) Seq() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Decide maps the current state to a decision
func (g *Guard) Decide() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case StateAuthenticated:
		return Decision{Kind: DecisionRender, Session: g.session.clone()}
	case StateUnauthenticated:
		return Decision{Kind: DecisionRedirect, Location: SignInPath}
	default:
		return Decision{Kind: DecisionPlaceholder}
	}
}

// Wait blocks until the guard leaves StateLoading or ctx ends, and returns
// the state it observed last.
func (g *Guard) Wait(ctx context.Context) GuardState {
	for {
		g.mu.Lock()
		state, changed := g.state, g.changed
		g.mu.Unlock()

		if state != StateLoading {
			return state
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return g.State()
		}
	}
}

// Close cancels the guard's subscription
func (g *Guard) Close() {
	g.dispose()
}
