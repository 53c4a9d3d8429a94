package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_StartsLoading(t *testing.T) {
	sc := NewSessionContext()
	defer sc.Close()

	g := NewGuard(sc)
	defer g.Close()

	assert.Equal(t, StateLoading, g.State())
	assert.Equal(t, DecisionPlaceholder, g.Decide().Kind)
}

func TestGuard_Transitions(t *testing.T) {
	tests := []struct {
		name     string
		initial  *Session
		state    GuardState
		decision DecisionKind
	}{
		{name: "session observed", initial: testSession(), state: StateAuthenticated, decision: DecisionRender},
		{name: "no session", initial: nil, state: StateUnauthenticated, decision: DecisionRedirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := NewSessionContext()
			defer sc.Close()
			g := NewGuard(sc)
			defer g.Close()

			sc.Initialize(tt.initial)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			assert.Equal(t, tt.state, g.Wait(ctx))
			assert.Equal(t, tt.decision, g.Decide().Kind)
		})
	}
}

func TestGuard_RedirectsToSignIn(t *testing.T) {
	sc := NewSessionContext()
	defer sc.Close()
	g := NewGuard(sc)
	defer g.Close()

	sc.Initialize(nil)
	syncCtx(t, sc)

	d := g.Decide()
	assert.Equal(t, DecisionRedirect, d.Kind)
	assert.Equal(t, "/", d.Location)
	assert.Nil(t, d.Session)
}

func TestGuard_ReactsToEveryChange(t *testing.T) {
	sc := NewSessionContext()
	defer sc.Close()
	g := NewGuard(sc)
	defer g.Close()

	sc.Initialize(testSession())
	syncCtx(t, sc)
	require.Equal(t, StateAuthenticated, g.State())

	sc.SignedOut()
	syncCtx(t, sc)
	assert.Equal(t, StateUnauthenticated, g.State())
	assert.Equal(t, DecisionRedirect, g.Decide().Kind)

	sc.SignedIn(testSession())
	syncCtx(t, sc)
	assert.Equal(t, StateAuthenticated, g.State())
}

func TestGuard_RapidChangesEndOnLastState(t *testing.T) {
	sc := NewSessionContext()
	defer sc.Close()
	g := NewGuard(sc)
	defer g.Close()

	var seen []GuardState
	sc.Subscribe(func(Change) { seen = append(seen, g.State()) })

	sc.Initialize(nil)
	for i := 0; i < 100; i++ {
		sc.SignedIn(testSession())
		sc.SignedOut()
	}
	sc.SignedIn(testSession())
	syncCtx(t, sc)

	assert.Equal(t, StateAuthenticated, g.State())
	assert.Equal(t, uint64(202), g.Seq())
	// the guard subscribed first, so each observation follows its update
	require.Len(t, seen, 202)
	for i, state := range seen {
		if i%2 == 0 {
			assert.Equal(t, StateUnauthenticated, state, "change %d", i)
		} else {
			assert.Equal(t, StateAuthenticated, state, "change %d", i)
		}
	}
}

func TestGuard_WaitHonoursContext(t *testing.T) {
	sc := NewSessionContext()
	defer sc.Close()
	g := NewGuard(sc)
	defer g.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Equal(t, StateLoading, g.Wait(ctx))
}

func TestGuard_CloseStopsUpdates(t *testing.T) {
	sc := NewSessionContext()
	defer sc.Close()
	g := NewGuard(sc)

	sc.Initialize(testSession())
	syncCtx(t, sc)
	g.Close()

	sc.SignedOut()
	syncCtx(t, sc)

	assert.Equal(t, StateAuthenticated, g.State())
}

func TestSignedOutGuard(t *testing.T) {
	g := SignedOutGuard()
	defer g.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Equal(t, StateUnauthenticated, g.Wait(ctx))
	assert.Equal(t, DecisionRedirect, g.Decide().Kind)
	g.Close()
}
