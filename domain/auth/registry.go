package auth

import (
	"sync"
	"time"
)

// Registry keeps one SessionContext per browser session id. Contexts nobody
// subscribes to are evicted once idle; a signed-in one is restored from the
// session store on the next request.
type Registry struct {
	mu       sync.Mutex
	contexts map[string]*registryEntry
	now      func() time.Time
	stopCh   chan struct{}
	once     sync.Once
}

type registryEntry struct {
	sc       *SessionContext
	lastSeen time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		contexts: make(map[string]*registryEntry),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Get returns the context for id if one exists
func (r *Registry) Get(id string) (*SessionContext, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.contexts[id]
	if !ok {
		return nil, false
	}
	entry.lastSeen = r.now()
	return entry.sc, true
}

// GetOrCreate returns the context for id, creating it when missing. created
// is true when the caller is responsible for initializing it.
func (r *Registry) GetOrCreate(id string) (sc *SessionContext, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.contexts[id]; ok {
		entry.lastSeen = r.now()
		return entry.sc, false
	}
	sc = NewSessionContext()
	r.contexts[id] = &registryEntry{sc: sc, lastSeen: r.now()}
	return sc, true
}

// Remove tears down the context for id
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	entry, ok := r.contexts[id]
	delete(r.contexts, id)
	r.mu.Unlock()

	if ok {
		entry.sc.Close()
	}
}

// Len returns the number of live contexts
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.contexts)
}

// Evict tears down contexts without subscribers that were not looked up for
// at least idle, and returns how many it removed.
func (r *Registry) Evict(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var evicted []*SessionContext
	for id, entry := range r.contexts {
		if entry.lastSeen.After(cutoff) || entry.sc.Subscribers() > 0 {
			continue
		}
		evicted = append(evicted, entry.sc)
		delete(r.contexts, id)
	}
	r.mu.Unlock()

	for _, sc := range evicted {
		sc.Close()
	}
	return len(evicted)
}

// StartEviction runs Evict every interval until Close. A non-positive
// interval or idle disables it.
func (r *Registry) StartEviction(interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.stopCh:
				return
			case <-ticker.C:
				r.Evict(idle)
			}
		}
	}()
}

// Close stops eviction and tears down every context
func (r *Registry) Close() {
	r.once.Do(func() { close(r.stopCh) })

	r.mu.Lock()
	contexts := r.contexts
	r.contexts = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, entry := range contexts {
		entry.sc.Close()
	}
}
