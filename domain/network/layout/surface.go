package layout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/FedericoTs/LinkedinAnalytics/domain/network"
)

// ErrNoSimulation is returned by interaction calls when nothing is running
var ErrNoSimulation = errors.New("no layout simulation on surface")

// Surface is one rendering target. It runs at most one simulation at a
// time: Start cancels and joins the previous run before launching the next.
type Surface struct {
	cfg Config

	// lifecycle serializes Start, Reheat and Stop.
	lifecycle sync.Mutex

	mu     sync.Mutex
	sim    *Simulation
	cancel context.CancelFunc
	run    *Run

	active atomic.Int32
}

// Run is one simulation launch on a surface. Its result belongs to that
// launch only, even when a later Start replaces it.
type Run struct {
	frames <-chan Frame
	done   chan struct{}
	result Result
}

// Frames is the run's frame stream, closed when the run ends
func (r *Run) Frames() <-chan Frame {
	return r.frames
}

// Wait blocks until this run finishes or ctx ends
func (r *Run) Wait(ctx context.Context) (Result, error) {
	select {
	case <-r.done:
		return r.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// NewSurface creates an idle surface
func NewSurface(cfg Config) *Surface {
	return &Surface{cfg: cfg}
}

// Start lays out model on the surface and returns the frame stream. The
// channel is closed when the run ends for any reason.
func (s *Surface) Start(ctx context.Context, model network.GraphModel, p network.Presentation) <-chan Frame {
	return s.StartRun(ctx, model, p).Frames()
}

// StartRun is Start returning the run handle
func (s *Surface) StartRun(ctx context.Context, model network.GraphModel, p network.Presentation) *Run {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.stop()
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()
	return s.launch(ctx, NewSimulation(NewArena(model, p), cfg))
}

// Configure replaces the configuration used by the next Start. A running
// simulation keeps its own.
func (s *Surface) Configure(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// Reheat restarts the current simulation from a raised alpha. A finished
// simulation is relaunched on the same arena, keeping pins and positions.
func (s *Surface) Reheat(ctx context.Context, alpha float64) (*Run, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	sim := s.current()
	if sim == nil {
		return nil, ErrNoSimulation
	}
	s.stop()
	sim.Reheat(alpha)
	return s.launch(ctx, sim), nil
}

func (s *Surface) launch(ctx context.Context, sim *Simulation) *Run {
	runCtx, cancel := context.WithCancel(ctx)
	frames := make(chan Frame, 1)
	run := &Run{frames: frames, done: make(chan struct{})}

	s.mu.Lock()
	s.sim, s.cancel, s.run = sim, cancel, run
	s.mu.Unlock()

	s.active.Add(1)
	go func() {
		defer func() {
			s.active.Add(-1)
			close(frames)
			close(run.done)
		}()
		run.result = sim.Run(runCtx, frames)
	}()

	return run
}

// stop cancels the in-flight run and waits for its goroutine to exit.
// Callers hold s.lifecycle.
func (s *Surface) stop() {
	s.mu.Lock()
	cancel, run := s.cancel, s.run
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-run.done
}

// Stop cancels the in-flight simulation, if any, and waits for it
func (s *Surface) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stop()
}

// Wait blocks until the current run finishes or ctx ends and returns its
// result. An idle surface returns a zero Result.
func (s *Surface) Wait(ctx context.Context) (Result, error) {
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()

	if run == nil {
		return Result{}, nil
	}
	return run.Wait(ctx)
}

// Pin fixes a node of the current simulation
func (s *Surface) Pin(id string, x, y float64) error {
	sim := s.current()
	if sim == nil {
		return ErrNoSimulation
	}
	return sim.Pin(id, x, y)
}

// Release unpins a node of the current simulation
func (s *Surface) Release(id string) error {
	sim := s.current()
	if sim == nil {
		return ErrNoSimulation
	}
	return sim.Release(id)
}

// Active returns the number of simulations currently running
func (s *Surface) Active() int {
	return int(s.active.Load())
}

func (s *Surface) current() *Simulation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim
}
