package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every application metric. One instance is built at startup
// and threaded through the layers that record.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Scoring engine
	AggregationsTotal    CounterVec
	AggregationDuration  HistogramVec
	AggregationSkipTotal CounterVec

	// Caches
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	// Ranking index
	RankingUpsertsTotal  CounterVec
	RankingFallbackTotal CounterVec
	RankingWarmDuration  HistogramVec

	// Infrastructure
	DBQueryDuration   HistogramVec
	EventsPublished   CounterVec
	ExportsTotal      CounterVec
	ExportDuration    HistogramVec
	HealthCheckStatus GaugeVec
}

var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultDBDurationBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	DefaultBatchDurationBuckets = []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60}
)

// NewAppMetrics registers all application metrics on the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	m.AggregationsTotal = collector.RegisterCounter("portfolio_aggregations_total", "Portfolio aggregate computations", "status")
	m.AggregationDuration = collector.RegisterHistogram("portfolio_aggregation_duration_seconds", "Portfolio aggregate computation duration", DefaultDBDurationBuckets)
	m.AggregationSkipTotal = collector.RegisterCounter("portfolio_aggregation_skipped_items_total", "Holdings excluded from aggregation", "reason")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	m.RankingUpsertsTotal = collector.RegisterCounter("ranking_upserts_total", "Ranking index upserts", "status")
	m.RankingFallbackTotal = collector.RegisterCounter("ranking_fallback_total", "Top-N queries answered by the store instead of the index")
	m.RankingWarmDuration = collector.RegisterHistogram("ranking_warm_duration_seconds", "Ranking index warm-up duration", DefaultBatchDurationBuckets)

	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "operation")
	m.EventsPublished = collector.RegisterCounter("events_published_total", "Domain events published", "topic", "status")
	m.ExportsTotal = collector.RegisterCounter("exports_total", "Report exports", "format", "status")
	m.ExportDuration = collector.RegisterHistogram("export_duration_seconds", "Report export duration", DefaultBatchDurationBuckets, "format")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")

	return m
}

// Helpers

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordAggregation(m *AppMetrics, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.AggregationsTotal.WithLabelValues(status).Inc()
	m.AggregationDuration.WithLabelValues().Observe(duration.Seconds())
}

func RecordEventPublish(m *AppMetrics, topic string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.EventsPublished.WithLabelValues(topic, status).Inc()
}
