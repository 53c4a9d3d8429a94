package network

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	raw   RawNetwork
	err   error
	panic bool
	calls int
}

func (s *stubSource) FetchNetwork(ctx context.Context, userID string) (RawNetwork, error) {
	s.calls++
	if s.panic {
		panic("driver bug")
	}
	return s.raw, s.err
}

func scenarioNetwork() RawNetwork {
	return RawNetwork{
		Nodes: []RawNode{
			{ID: "you", Group: "central"},
			{ID: "c1", Group: "first"},
			{ID: "c2", Group: "second"},
		},
		Edges: []RawEdge{
			{Source: "you", Target: "c1"},
			{Source: "you", Target: "c2"},
		},
	}
}

func edgeKeys(m GraphModel) []string {
	keys := make([]string, 0, len(m.Edges))
	for _, e := range m.Edges {
		keys = append(keys, e.Source+"->"+e.Target)
	}
	sort.Strings(keys)
	return keys
}

func TestBuilder_FilterScenario(t *testing.T) {
	b := NewBuilder(&stubSource{raw: scenarioNetwork()}, nil)

	view := b.Build(context.Background(), "user-1", FilterFirst, DefaultZoom)

	assert.False(t, view.FromFallback)
	assert.ElementsMatch(t, []string{"you", "c1"}, view.Model.NodeIDs())
	assert.Equal(t, []string{"you->c1"}, edgeKeys(view.Model))
}

func TestBuilder_FallsBackToMock(t *testing.T) {
	tests := []struct {
		name   string
		source Source
		reason string
	}{
		{name: "fetch error", source: &stubSource{err: errors.New("connection refused")}, reason: FallbackSourceError},
		{name: "fetch panic", source: &stubSource{panic: true}, reason: FallbackSourceError},
		{name: "empty result", source: &stubSource{}, reason: FallbackEmpty},
		{name: "no source", source: nil, reason: FallbackNoSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hookReason string
			var hookErr error
			b := NewBuilder(tt.source, func(userID, reason string, err error) {
				hookReason, hookErr = reason, err
			})

			var view *View
			require.NotPanics(t, func() {
				view = b.Build(context.Background(), "user-1", FilterAll, DefaultZoom)
			})

			assert.True(t, view.FromFallback)
			assert.Equal(t, tt.reason, view.FallbackReason)
			assert.Equal(t, tt.reason, hookReason)
			assert.Equal(t, Normalize(MockNetwork()), view.Model)
			assert.Len(t, view.Model.Nodes, 11)
			assert.Len(t, view.Model.Edges, 10)
			if tt.reason == FallbackSourceError {
				assert.ErrorIs(t, hookErr, ErrDataSourceUnavailable)
			}
		})
	}
}

func TestBuilder_Idempotent(t *testing.T) {
	src := &stubSource{raw: MockNetwork()}
	b := NewBuilder(src, nil)

	for _, filter := range []Filter{FilterAll, FilterFirst, FilterSecond, FilterThird} {
		first := b.Build(context.Background(), "user-1", filter, 80)
		second := b.Build(context.Background(), "user-1", filter, 80)

		assert.Equal(t, first.Model, second.Model, "filter %s", filter)
		assert.Equal(t, first.Presentation, second.Presentation, "filter %s", filter)
	}
	assert.Equal(t, 8, src.calls)
}

func TestBuilder_NoDanglingEdges(t *testing.T) {
	b := NewBuilder(&stubSource{raw: MockNetwork()}, nil)

	for _, filter := range []Filter{FilterAll, FilterFirst, FilterSecond, FilterThird} {
		view := b.Build(context.Background(), "user-1", filter, DefaultZoom)
		ids := make(map[string]bool)
		for _, n := range view.Model.Nodes {
			ids[n.ID] = true
		}
		for _, e := range view.Model.Edges {
			assert.True(t, ids[e.Source] && ids[e.Target], "filter %s edge %s->%s", filter, e.Source, e.Target)
		}
	}
}

func TestBuilder_MockFilters(t *testing.T) {
	b := NewBuilder(nil, nil)

	first := b.Build(context.Background(), "u", FilterFirst, DefaultZoom)
	assert.ElementsMatch(t, []string{"you", "c1", "c2", "c3", "c4"}, first.Model.NodeIDs())
	assert.Len(t, first.Model.Edges, 4)

	// second-degree nodes only connect to first-degree ones
	second := b.Build(context.Background(), "u", FilterSecond, DefaultZoom)
	assert.ElementsMatch(t, []string{"you", "c5", "c6", "c7", "c8"}, second.Model.NodeIDs())
	assert.Empty(t, second.Model.Edges)
}

func TestBuilder_ZoomDoesNotMutateModel(t *testing.T) {
	raw := MockNetwork()
	b := NewBuilder(&stubSource{raw: raw}, nil)

	small := b.Build(context.Background(), "u", FilterAll, 50)
	large := b.Build(context.Background(), "u", FilterAll, 150)

	assert.Equal(t, small.Model, large.Model)
	assert.Equal(t, MockNetwork(), raw)

	you, _ := large.Model.Node("you")
	assert.Equal(t, 25.0, you.Size)
	assert.InDelta(t, 37.5, large.Presentation.Nodes["you"].Radius, 1e-9)
	assert.InDelta(t, 12.5, small.Presentation.Nodes["you"].Radius, 1e-9)
	assert.InDelta(t, BaseCharge*1.5, large.Presentation.Nodes["you"].Charge, 1e-9)
	assert.InDelta(t, 150.0, large.Presentation.LinkDistance, 1e-9)
}

func TestBuilder_ZoomIsClamped(t *testing.T) {
	b := NewBuilder(nil, nil)

	assert.Equal(t, MaxZoom, b.Build(context.Background(), "u", FilterAll, 400).Zoom)
	assert.Equal(t, MinZoom, b.Build(context.Background(), "u", FilterAll, 10).Zoom)
}
