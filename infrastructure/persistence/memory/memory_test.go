package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
)

func TestCache_TTL(t *testing.T) {
	c := NewCache(0)
	defer c.Close()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 42, time.Minute))
	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	now = now.Add(time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)

	c.sweep()
	assert.Equal(t, 0, c.Len())
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := NewCache(time.Hour)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, c.Delete(ctx, "a"))

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())
	c.Close()
}

func TestStore_CopiesValues(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	in := []byte("hello")
	require.NoError(t, s.Set(ctx, "k", in))
	in[0] = 'j'

	out, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello", string(out))

	require.NoError(t, s.Remove(ctx, "k"))
	require.NoError(t, s.Remove(ctx, "k"))
	_, found, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_HonoursCancelledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Set(ctx, "k", nil), context.Canceled)
}

func TestConnectionStore(t *testing.T) {
	s := NewConnectionStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, ports.Connection{ConnectionID: "c2", UserID: "u1"}))
	require.NoError(t, s.Save(ctx, ports.Connection{ConnectionID: "c1", UserID: "u1"}))
	require.NoError(t, s.Save(ctx, ports.Connection{ConnectionID: "c3", UserID: "u2"}))

	conns, err := s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, conns, 2)
	assert.Equal(t, "c1", conns[0].ConnectionID)

	require.NoError(t, s.Delete(ctx, "c1"))
	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
