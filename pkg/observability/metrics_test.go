package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	ResetForTesting()
	t.Cleanup(ResetForTesting)
	return NewCollector("test")
}

func TestNewCollector_Singleton(t *testing.T) {
	c := newTestCollector(t)
	assert.Same(t, c, NewCollector("other"))
}

func TestCollector_Records(t *testing.T) {
	c := newTestCollector(t)

	c.RecordResolverOutcome("redirect", "tokens")
	c.RecordGraphFallback("source_error")
	c.RecordGraphFallback("source_error")
	c.RecordGraphFetch("neo4j", errors.New("down"))
	c.RecordLayout("converged", 120)
	c.RecordCompletionUsage(10, 40)
	c.RecordCache(true)
	c.RecordCache(false)
	c.RecordHTTP("GET", "/health", "200", 5*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ResolverOutcomes.WithLabelValues("redirect", "tokens")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.GraphFallbacks.WithLabelValues("source_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.GraphFetches.WithLabelValues("neo4j", "error")))
	assert.Equal(t, 40.0, testutil.ToFloat64(c.CompletionTokens.WithLabelValues("completion")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheMisses))
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordGraphFallback("empty")
		c.RecordLayout("cancelled", 3)
	})
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	c := newTestCollector(t)

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(c))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", c.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/items/{id}", "418")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "test_http_requests_total"))
}
