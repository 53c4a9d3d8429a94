package layout

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sync"
)

// ErrUnknownNode is returned when pinning or releasing a node not in the arena
var ErrUnknownNode = errors.New("unknown node")

const (
	DefaultMaxIterations = 300
	DefaultAlphaMin      = 0.001
	DefaultVelocityDecay = 0.4
	distanceMin2         = 1.0
)

// Config tunes a simulation
type Config struct {
	MaxIterations int
	AlphaMin      float64
	VelocityDecay float64
	// OnTick, when set, is called on the simulation goroutine after every
	// tick.
	OnTick func(Frame)
}

// DefaultConfig returns the standard layout configuration
func DefaultConfig() Config {
	return Config{
		MaxIterations: DefaultMaxIterations,
		AlphaMin:      DefaultAlphaMin,
		VelocityDecay: DefaultVelocityDecay,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.AlphaMin <= 0 {
		c.AlphaMin = DefaultAlphaMin
	}
	if c.VelocityDecay <= 0 || c.VelocityDecay >= 1 {
		c.VelocityDecay = DefaultVelocityDecay
	}
	return c
}

// Frame is one observable intermediate state of the layout
type Frame struct {
	Iteration int              `json:"iteration"`
	Alpha     float64          `json:"alpha"`
	Positions map[string]Point `json:"positions"`
	Done      bool             `json:"done"`
}

// Result summarizes a finished run
type Result struct {
	Iterations int              `json:"iterations"`
	Converged  bool             `json:"converged"`
	Cancelled  bool             `json:"cancelled"`
	Positions  map[string]Point `json:"positions"`
}

// Reason returns a short label for metrics
func (r Result) Reason() string {
	switch {
	case r.Cancelled:
		return "cancelled"
	case r.Converged:
		return "converged"
	default:
		return "budget_exhausted"
	}
}

// Simulation is a force-directed layout over an Arena: link springs,
// many-body charge and centering. Alpha decays from 1 so that the run
// stops after MaxIterations ticks or once alpha drops below AlphaMin.
type Simulation struct {
	mu         sync.Mutex
	arena      *Arena
	cfg        Config
	alpha      float64
	alphaDecay float64
	iteration  int
}

// NewSimulation creates a simulation over arena
func NewSimulation(arena *Arena, cfg Config) *Simulation {
	cfg = cfg.withDefaults()
	return &Simulation{
		arena:      arena,
		cfg:        cfg,
		alpha:      1,
		alphaDecay: 1 - math.Pow(cfg.AlphaMin, 1/float64(cfg.MaxIterations)),
	}
}

// Alpha returns the current temperature
func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// Pin fixes id at (x, y) until Release
func (s *Simulation) Pin(id string, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.arena.pin(id, x, y) {
		return ErrUnknownNode
	}
	return nil
}

// Release returns id to simulation-controlled placement
func (s *Simulation) Release(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.arena.release(id) {
		return ErrUnknownNode
	}
	return nil
}

// Reheat raises alpha and restarts the iteration budget. Values outside
// (0, 1] reheat to 1.
func (s *Simulation) Reheat(alpha float64) {
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alpha = math.Max(s.alpha, alpha)
	s.iteration = 0
}

// Positions returns a snapshot of the current positions
func (s *Simulation) Positions() map[string]Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arena.Positions()
}

// Step advances the layout by one tick and reports the resulting frame.
func (s *Simulation) Step() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.finishedLocked() {
		s.tickLocked()
	}
	return Frame{
		Iteration: s.iteration,
		Alpha:     s.alpha,
		Positions: s.arena.Positions(),
		Done:      s.finishedLocked(),
	}
}

func (s *Simulation) finishedLocked() bool {
	return s.alpha < s.cfg.AlphaMin || s.iteration >= s.cfg.MaxIterations
}

// Run ticks until the layout settles, the budget is spent or ctx ends.
// Every frame is sent on frames when it is non-nil; the goroutine yields
// between ticks.
func (s *Simulation) Run(ctx context.Context, frames chan<- Frame) Result {
	for {
		if ctx.Err() != nil {
			return s.result(true)
		}

		frame := s.Step()
		if s.cfg.OnTick != nil {
			s.cfg.OnTick(frame)
		}
		if frames != nil {
			select {
			case frames <- frame:
			case <-ctx.Done():
				return s.result(true)
			}
		}
		if frame.Done {
			return s.result(false)
		}
		runtime.Gosched()
	}
}

func (s *Simulation) result(cancelled bool) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Result{
		Iterations: s.iteration,
		Converged:  s.alpha < s.cfg.AlphaMin,
		Cancelled:  cancelled,
		Positions:  s.arena.Positions(),
	}
}

func (s *Simulation) tickLocked() {
	s.iteration++
	s.alpha += (0 - s.alpha) * s.alphaDecay

	s.applyLinks()
	s.applyCharge()
	s.applyCenter()

	bodies := s.arena.bodies
	for i := range bodies {
		b := &bodies[i]
		if b.pinned {
			b.x, b.y, b.vx, b.vy = b.px, b.py, 0, 0
			continue
		}
		b.vx *= 1 - s.cfg.VelocityDecay
		b.vy *= 1 - s.cfg.VelocityDecay
		b.x += b.vx
		b.y += b.vy
	}
}

func (s *Simulation) applyLinks() {
	bodies := s.arena.bodies
	for _, l := range s.arena.links {
		src, dst := &bodies[l.source], &bodies[l.target]

		dx := dst.x + dst.vx - src.x - src.vx
		dy := dst.y + dst.vy - src.y - src.vy
		if dx == 0 {
			dx = s.arena.jiggle()
		}
		if dy == 0 {
			dy = s.arena.jiggle()
		}
		d := math.Sqrt(dx*dx + dy*dy)
		f := (d - l.distance) / d * s.alpha * l.strength
		dx, dy = dx*f, dy*f

		dst.vx -= dx * l.bias
		dst.vy -= dy * l.bias
		src.vx += dx * (1 - l.bias)
		src.vy += dy * (1 - l.bias)
	}
}

func (s *Simulation) applyCharge() {
	bodies := s.arena.bodies
	for i := range bodies {
		for j := range bodies {
			if i == j {
				continue
			}
			dx := bodies[j].x - bodies[i].x
			dy := bodies[j].y - bodies[i].y
			if dx == 0 {
				dx = s.arena.jiggle()
			}
			if dy == 0 {
				dy = s.arena.jiggle()
			}
			l2 := dx*dx + dy*dy
			if l2 < distanceMin2 {
				l2 = math.Sqrt(distanceMin2 * l2)
			}
			w := bodies[j].charge * s.alpha / l2
			bodies[i].vx += dx * w
			bodies[i].vy += dy * w
		}
	}
}

// applyCenter translates free nodes so their mean sits at the origin.
func (s *Simulation) applyCenter() {
	var sx, sy float64
	free := 0
	for i := range s.arena.bodies {
		if s.arena.bodies[i].pinned {
			continue
		}
		sx += s.arena.bodies[i].x
		sy += s.arena.bodies[i].y
		free++
	}
	if free == 0 {
		return
	}
	sx, sy = sx/float64(free), sy/float64(free)
	for i := range s.arena.bodies {
		if s.arena.bodies[i].pinned {
			continue
		}
		s.arena.bodies[i].x -= sx
		s.arena.bodies[i].y -= sy
	}
}
