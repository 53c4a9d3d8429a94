package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
	"github.com/FedericoTs/LinkedinAnalytics/domain/network"
	"github.com/FedericoTs/LinkedinAnalytics/domain/network/layout"
	"github.com/FedericoTs/LinkedinAnalytics/pkg/observability"
)

// LayoutView is a built network with its settled layout
type LayoutView struct {
	*network.View
	Layout layout.Result `json:"layout"`
}

// NetworkService builds network views and owns one layout surface per
// viewer
type NetworkService struct {
	builder   *network.Builder
	layoutCfg layout.Config
	metrics   *observability.Collector
	logger    *zap.Logger

	mu       sync.Mutex
	surfaces map[string]*surfaceEntry
	now      func() time.Time
	stopCh   chan struct{}
	once     sync.Once
}

type surfaceEntry struct {
	surface  *layout.Surface
	lastUsed time.Time
}

// NewNetworkService creates a new network service
func NewNetworkService(
	source ports.GraphSource,
	layoutCfg layout.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) *NetworkService {
	s := &NetworkService{
		layoutCfg: layoutCfg,
		metrics:   metrics,
		logger:    logger,
		surfaces:  make(map[string]*surfaceEntry),
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
	s.builder = network.NewBuilder(source, s.onFallback)
	return s
}

func (s *NetworkService) onFallback(userID, reason string, err error) {
	s.metrics.RecordGraphFallback(reason)
	s.logger.Warn("Serving mock network",
		zap.String("user_id", userID),
		zap.String("reason", reason),
		zap.Error(err),
	)
}

// Build fetches and shapes the network of userID. It never fails.
func (s *NetworkService) Build(ctx context.Context, userID string, filter network.Filter, zoom network.Zoom) *network.View {
	return s.builder.Build(ctx, userID, filter, zoom)
}

// BuildWithLayout builds the view and runs the layout to completion on the
// viewer's surface.
func (s *NetworkService) BuildWithLayout(ctx context.Context, surfaceID, userID string, filter network.Filter, zoom network.Zoom) (*LayoutView, error) {
	view := s.Build(ctx, userID, filter, zoom)
	surface := s.surface(surfaceID)

	run := surface.StartRun(ctx, view.Model, view.Presentation)
	for range run.Frames() {
	}
	res, err := run.Wait(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLayout(res.Reason(), res.Iterations)
	return &LayoutView{View: view, Layout: res}, nil
}

// StreamLayout builds the view and streams every layout frame. Starting a
// new stream on the same surface stops the previous one.
func (s *NetworkService) StreamLayout(ctx context.Context, surfaceID, userID string, filter network.Filter, zoom network.Zoom) (*network.View, <-chan layout.Frame) {
	view := s.Build(ctx, userID, filter, zoom)
	return view, s.observe(ctx, s.surface(surfaceID).StartRun(ctx, view.Model, view.Presentation))
}

// Pin fixes a node on the viewer's surface
func (s *NetworkService) Pin(surfaceID, nodeID string, x, y float64) error {
	return s.surface(surfaceID).Pin(nodeID, x, y)
}

// Release unpins a node on the viewer's surface
func (s *NetworkService) Release(surfaceID, nodeID string) error {
	return s.surface(surfaceID).Release(nodeID)
}

// Reheat restarts the viewer's simulation and streams the new frames
func (s *NetworkService) Reheat(ctx context.Context, surfaceID string, alpha float64) (<-chan layout.Frame, error) {
	run, err := s.surface(surfaceID).Reheat(ctx, alpha)
	if err != nil {
		return nil, err
	}
	return s.observe(ctx, run), nil
}

// CloseSurface stops and forgets the viewer's surface
func (s *NetworkService) CloseSurface(surfaceID string) {
	s.mu.Lock()
	entry, ok := s.surfaces[surfaceID]
	delete(s.surfaces, surfaceID)
	s.mu.Unlock()

	if ok {
		entry.surface.Stop()
	}
}

// Surfaces returns the number of live surfaces
func (s *NetworkService) Surfaces() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.surfaces)
}

// EvictIdle stops and forgets surfaces that have no running simulation and
// were not used for at least idle. It returns how many were removed.
func (s *NetworkService) EvictIdle(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	var evicted []*layout.Surface
	for id, entry := range s.surfaces {
		if entry.surface.Active() == 0 && !entry.lastUsed.After(cutoff) {
			evicted = append(evicted, entry.surface)
			delete(s.surfaces, id)
		}
	}
	s.mu.Unlock()

	for _, surface := range evicted {
		surface.Stop()
	}
	if len(evicted) > 0 {
		s.logger.Debug("Evicted idle layout surfaces", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// StartEviction sweeps idle surfaces every interval until Close. A
// non-positive interval or idle disables the sweeper.
func (s *NetworkService) StartEviction(interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.EvictIdle(idle)
			}
		}
	}()
}

// Close stops the sweeper and every surface
func (s *NetworkService) Close() {
	s.once.Do(func() { close(s.stopCh) })

	s.mu.Lock()
	surfaces := s.surfaces
	s.surfaces = make(map[string]*surfaceEntry)
	s.mu.Unlock()

	for _, entry := range surfaces {
		entry.surface.Stop()
	}
}

func (s *NetworkService) observe(ctx context.Context, run *layout.Run) <-chan layout.Frame {
	out := make(chan layout.Frame)
	go func() {
		defer close(out)
		for f := range run.Frames() {
			select {
			case out <- f:
			case <-ctx.Done():
				// keep draining so the simulation observes its own cancel
			}
		}
		if res, err := run.Wait(context.Background()); err == nil {
			s.metrics.RecordLayout(res.Reason(), res.Iterations)
		}
	}()
	return out
}

// SetLayoutConfig applies new layout tuning to every surface. Runs in
// flight finish with the settings they started with.
func (s *NetworkService) SetLayoutConfig(cfg layout.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.layoutCfg = cfg
	for _, entry := range s.surfaces {
		entry.surface.Configure(cfg)
	}
}

func (s *NetworkService) surface(id string) *layout.Surface {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.surfaces[id]
	if !ok {
		entry = &surfaceEntry{surface: layout.NewSurface(s.layoutCfg)}
		s.surfaces[id] = entry
	}
	entry.lastUsed = s.now()
	return entry.surface
}
