package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
)

// Store is an in-process key-value store used in development and tests
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns a copy of the value under key
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of value under key
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Remove deletes key
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// ConnectionStore keeps WebSocket connections in memory
type ConnectionStore struct {
	mu    sync.RWMutex
	conns map[string]ports.Connection
}

// NewConnectionStore creates an empty connection store
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{conns: make(map[string]ports.Connection)}
}

// Save records a connection
func (s *ConnectionStore) Save(ctx context.Context, conn ports.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn.ConnectionID] = conn
	return nil
}

// Get returns a connection or nil when unknown
func (s *ConnectionStore) Get(ctx context.Context, connectionID string) (*ports.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conn, ok := s.conns[connectionID]
	if !ok {
		return nil, nil
	}
	return &conn, nil
}

// Delete forgets a connection
func (s *ConnectionStore) Delete(ctx context.Context, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, connectionID)
	return nil
}

// ListByUser returns the user's connections ordered by id
func (s *ConnectionStore) ListByUser(ctx context.Context, userID string) ([]ports.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ports.Connection
	for _, conn := range s.conns {
		if conn.UserID == userID {
			out = append(out, conn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConnectionID < out[j].ConnectionID })
	return out, nil
}
