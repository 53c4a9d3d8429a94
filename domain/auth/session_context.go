package auth

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

// ChangeEvent names a session state change
type ChangeEvent string

const (
	EventInitialSession ChangeEvent = "INITIAL_SESSION"
	EventSignedIn       ChangeEvent = "SIGNED_IN"
	EventSignedOut      ChangeEvent = "SIGNED_OUT"
	EventTokenRefreshed ChangeEvent = "TOKEN_REFRESHED"
)

// Change is one notification delivered to subscribers. Seq increases by one
// per published change within a context.
type Change struct {
	Event   ChangeEvent
	Session *Session
	Seq     uint64
}

// Handler receives session changes
type Handler func(Change)

type subscription struct {
	id      uint64
	handler Handler
	// from is the last sequence number the subscriber has already seen.
	from     uint64
	disposed atomic.Bool
}

type delivery struct {
	change Change
	// target is nil for a broadcast.
	target *subscription
	// barrier is closed when the dispatcher reaches this item.
	barrier chan struct{}
}

// SessionContext holds the current session of one browser session and
// delivers every change to its subscribers. Deliveries happen on a single
// goroutine in publication order, without coalescing.
type SessionContext struct {
	mu      sync.Mutex
	cond    *sync.Cond
	session *Session
	known   bool
	seq     uint64
	nextSub uint64
	subs    map[uint64]*subscription
	queue   []delivery
	closed  bool
	done    chan struct{}
}

// NewSessionContext creates a context whose session status is still unknown
func NewSessionContext() *SessionContext {
	sc := &SessionContext{
		subs: make(map[uint64]*subscription),
		done: make(chan struct{}),
	}
	sc.cond = sync.NewCond(&sc.mu)
	go sc.dispatch()
	return sc
}

// Current returns a copy of the session and whether the status is known
func (sc *SessionContext) Current() (*Session, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.session.clone(), sc.known
}

// Known reports whether the initial session status has been established
func (sc *SessionContext) Known() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.known
}

// Initialize records the initial session status. A nil session means the
// user is signed out. Only the first call has an effect.
func (sc *SessionContext) Initialize(session *Session) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.known || sc.closed {
		return
	}
	sc.publishLocked(EventInitialSession, session)
}

// SignedIn replaces the session after a successful sign-in
func (sc *SessionContext) SignedIn(session *Session) {
	sc.publish(EventSignedIn, session)
}

// Refreshed replaces the session after a token refresh
func (sc *SessionContext) Refreshed(session *Session) {
	sc.publish(EventTokenRefreshed, session)
}

// SignedOut clears the session
func (sc *SessionContext) SignedOut() {
	sc.publish(EventSignedOut, nil)
}

func (sc *SessionContext) publish(event ChangeEvent, session *Session) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return
	}
	sc.publishLocked(event, session)
}

func (sc *SessionContext) publishLocked(event ChangeEvent, session *Session) {
	sc.session = session.clone()
	sc.known = true
	sc.seq++
	sc.queue = append(sc.queue, delivery{change: Change{Event: event, Session: sc.session.clone(), Seq: sc.seq}})
	sc.cond.Signal()
}

// Subscribe registers fn for every subsequent change. When the status is
// already known, fn first receives the current session as INITIAL_SESSION.
// The returned function cancels the subscription; it is safe to call more
// than once.
func (sc *SessionContext) Subscribe(fn Handler) (dispose func()) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.closed {
		return func() {}
	}

	sc.nextSub++
	sub := &subscription{id: sc.nextSub, handler: fn, from: sc.seq}
	sc.subs[sub.id] = sub

	if sc.known {
		sc.queue = append(sc.queue, delivery{
			change: Change{Event: EventInitialSession, Session: sc.session.clone(), Seq: sc.seq},
			target: sub,
		})
		sc.cond.Signal()
	}

	return func() {
		if sub.disposed.Swap(true) {
			return
		}
		sc.mu.Lock()
		delete(sc.subs, sub.id)
		sc.mu.Unlock()
	}
}

// Subscribers returns the number of live subscriptions
func (sc *SessionContext) Subscribers() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.subs)
}

// Sync blocks until every change published before the call has been
// delivered, or ctx ends.
func (sc *SessionContext) Sync(ctx context.Context) error {
	barrier := make(chan struct{})

	sc.mu.Lock()
	if sc.closed {
		sc.mu.Unlock()
		return nil
	}
	sc.queue = append(sc.queue, delivery{barrier: barrier})
	sc.cond.Signal()
	sc.mu.Unlock()

	select {
	case <-barrier:
		return nil
	case <-sc.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close delivers pending changes and stops the dispatcher. Subscribers get
// nothing after Close returns.
func (sc *SessionContext) Close() {
	sc.mu.Lock()
	if sc.closed {
		sc.mu.Unlock()
		<-sc.done
		return
	}
	sc.closed = true
	sc.cond.Signal()
	sc.mu.Unlock()
	<-sc.done
}

func (sc *SessionContext) dispatch() {
	defer close(sc.done)

	for {
		sc.mu.Lock()
		for len(sc.queue) == 0 && !sc.closed {
			sc.cond.Wait()
		}
		if len(sc.queue) == 0 && sc.closed {
			sc.mu.Unlock()
			return
		}
		item := sc.queue[0]
		sc.queue[0] = delivery{}
		sc.queue = sc.queue[1:]

		var targets []*subscription
		switch {
		case item.barrier != nil:
		case item.target != nil:
			targets = []*subscription{item.target}
		default:
			targets = make([]*subscription, 0, len(sc.subs))
			for _, sub := range sc.subs {
				if sub.from < item.change.Seq {
					targets = append(targets, sub)
				}
			}
			sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })
		}
		sc.mu.Unlock()

		if item.barrier != nil {
			close(item.barrier)
			continue
		}
		for _, sub := range targets {
			if sub.disposed.Load() {
				continue
			}
			deliver(sub.handler, item.change)
		}
	}
}

// deliver isolates the dispatcher from a panicking subscriber.
func deliver(fn Handler, change Change) {
	defer func() { _ = recover() }()
	fn(change)
}
