package prometheus

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "esg"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestRegisterCounter_Exposed(t *testing.T) {
	c := newTestCollector(t)

	counter := c.RegisterCounter("events_total", "Events", "kind")
	counter.WithLabelValues("rating").Inc()
	counter.WithLabelValues("rating").Add(2)

	body := scrape(t, c)
	assert.Contains(t, body, `esg_events_total{kind="rating"} 3`)
}

func TestRegisterCounter_DuplicateReturnsExisting(t *testing.T) {
	c := newTestCollector(t)

	first := c.RegisterCounter("dup_total", "Dup", "k")
	second := c.RegisterCounter("dup_total", "Dup", "k")

	first.WithLabelValues("a").Inc()
	second.WithLabelValues("a").Inc()

	body := scrape(t, c)
	assert.Contains(t, body, `esg_dup_total{k="a"} 2`)
}

func TestRegisterGauge_Exposed(t *testing.T) {
	c := newTestCollector(t)

	gauge := c.RegisterGauge("active", "Active", "component")
	gauge.WithLabelValues("redis").Set(1)

	body := scrape(t, c)
	assert.Contains(t, body, `esg_active{component="redis"} 1`)
}

func TestRegisterHistogram_Exposed(t *testing.T) {
	c := newTestCollector(t)

	hist := c.RegisterHistogram("latency_seconds", "Latency", []float64{0.1, 1}, "op")
	hist.WithLabelValues("query").Observe(0.05)

	body := scrape(t, c)
	assert.Contains(t, body, `esg_latency_seconds_bucket{op="query",le="0.1"} 1`)
	assert.Contains(t, body, `esg_latency_seconds_count{op="query"} 1`)
}

func TestTimer_ObservesElapsed(t *testing.T) {
	c := newTestCollector(t)
	hist := c.RegisterHistogram("timed_seconds", "Timed", []float64{10}, "op")

	timer := NewTimer(hist.WithLabelValues("load"))
	time.Sleep(time.Millisecond)
	timer.ObserveDuration()

	body := scrape(t, c)
	assert.Contains(t, body, `esg_timed_seconds_count{op="load"} 1`)

	// Nil histogram timers are inert.
	(&Timer{}).ObserveDuration()
}

func TestAppMetrics_RegistersAll(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	RecordHTTPRequest(m, "GET", "/api/v1/companies/rankings/top", 200, 15*time.Millisecond)
	RecordCacheAccess(m, "company", true)
	RecordCacheAccess(m, "company", false)
	RecordAggregation(m, 3*time.Millisecond, nil)
	RecordEventPublish(m, "esg.company.rating-updated", nil)
	m.RankingFallbackTotal.WithLabelValues().Inc()
	m.HealthCheckStatus.WithLabelValues("postgres").Set(1)

	body := scrape(t, c)
	for _, metric := range []string{
		"esg_http_requests_total",
		"esg_cache_hits_total",
		"esg_cache_misses_total",
		"esg_portfolio_aggregations_total",
		"esg_ranking_fallback_total",
		"esg_events_published_total",
		"esg_health_check_status",
	} {
		assert.True(t, strings.Contains(body, metric), "missing %s", metric)
	}
}
