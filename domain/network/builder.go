package network

import (
	"context"
	"errors"
	"fmt"
)

// ErrDataSourceUnavailable wraps any failure of a graph data source. It is
// recovered by the builder and never returned to callers.
var ErrDataSourceUnavailable = errors.New("graph data source unavailable")

// Source fetches the raw network of a user. Implementations must be safe to
// call repeatedly and may return an empty result.
type Source interface {
	FetchNetwork(ctx context.Context, userID string) (RawNetwork, error)
}

// Fallback reasons
const (
	FallbackSourceError = "source_error"
	FallbackEmpty       = "empty_result"
	FallbackNoSource    = "no_source"
)

// FallbackHook observes builds served from the mock dataset
type FallbackHook func(userID, reason string, err error)

// View is the result of one build
type View struct {
	Model          GraphModel   `json:"model"`
	Presentation   Presentation `json:"presentation"`
	Filter         Filter       `json:"filter"`
	Zoom           Zoom         `json:"zoom"`
	FromFallback   bool         `json:"from_fallback"`
	FallbackReason string       `json:"fallback_reason,omitempty"`
}

// Builder turns source data into filtered, zoom-scaled views
type Builder struct {
	source     Source
	onFallback FallbackHook
}

// NewBuilder creates a builder. A nil source always serves the mock dataset.
func NewBuilder(source Source, onFallback FallbackHook) *Builder {
	return &Builder{source: source, onFallback: onFallback}
}

// Build fetches, filters and scales the network of userID. It never fails:
// source errors, panics and empty results fall back to MockNetwork.
func (b *Builder) Build(ctx context.Context, userID string, filter Filter, zoom Zoom) *View {
	raw, reason, err := b.fetch(ctx, userID)

	view := &View{Filter: filter, Zoom: ClampZoom(int(zoom))}
	if reason != "" {
		if b.onFallback != nil {
			b.onFallback(userID, reason, err)
		}
		raw = MockNetwork()
		view.FromFallback = true
		view.FallbackReason = reason
	}

	view.Model = ApplyFilter(Normalize(raw), filter)
	view.Presentation = Scale(view.Model, view.Zoom)
	return view
}

func (b *Builder) fetch(ctx context.Context, userID string) (raw RawNetwork, reason string, err error) {
	if b.source == nil {
		return RawNetwork{}, FallbackNoSource, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			raw, reason = RawNetwork{}, FallbackSourceError
			err = fmt.Errorf("%w: panic: %v", ErrDataSourceUnavailable, rec)
		}
	}()

	raw, err = b.source.FetchNetwork(ctx, userID)
	if err != nil {
		return RawNetwork{}, FallbackSourceError, fmt.Errorf("%w: %v", ErrDataSourceUnavailable, err)
	}
	if len(Normalize(raw).Nodes) == 0 {
		return RawNetwork{}, FallbackEmpty, nil
	}
	return raw, "", nil
}
