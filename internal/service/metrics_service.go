package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
)

// Slot fetch results as labelled on booking_gateway_slot_fetches_total.
const (
	SlotFetchApplied     = "applied"
	SlotFetchStale       = "stale"
	SlotFetchUnavailable = "unavailable"
)

// MetricsService owns the gateway's Prometheus registry.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	cacheLatency     prometheus.Histogram
	cacheWrite       prometheus.Histogram
	cacheLookups     *prometheus.CounterVec
	bookingOutcomes  *prometheus.CounterVec
	slotFetches      *prometheus.CounterVec
	liveSessions     *prometheus.GaugeVec
}

// NewMetricsService registers the gateway collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "booking_gateway_upstream_request_duration_seconds",
			Help:    "Latency of calls to the appointment backend",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache set operations",
			Buckets: prometheus.DefBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by result",
		}, []string{"result"}),
		bookingOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_gateway_booking_outcomes_total",
			Help: "Booking submissions by outcome",
		}, []string{"outcome"}),
		slotFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_gateway_slot_fetches_total",
			Help: "Slot availability fetches by how their result was used",
		}, []string{"result"}),
		liveSessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "booking_gateway_live_sessions",
			Help: "Sessions held in memory",
		}, []string{"kind"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal, m.upstreamDuration,
		m.cacheLatency, m.cacheWrite, m.cacheLookups,
		m.bookingOutcomes, m.slotFetches, m.liveSessions, goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveUpstream records one backend round trip; status 0 means no response.
// Its signature matches upstream.Observer.
func (m *MetricsService) ObserveUpstream(endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(endpoint, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordBookingOutcome counts a submit by its outcome kind.
func (m *MetricsService) RecordBookingOutcome(kind models.OutcomeKind) {
	if m == nil {
		return
	}
	m.bookingOutcomes.WithLabelValues(string(kind)).Inc()
}

// RecordSlotFetch counts a slot fetch by whether its result was applied.
func (m *MetricsService) RecordSlotFetch(result string) {
	if m == nil {
		return
	}
	m.slotFetches.WithLabelValues(result).Inc()
}

// SetLiveSessions publishes the number of in-memory sessions of a kind.
func (m *MetricsService) SetLiveSessions(kind string, count int) {
	if m == nil {
		return
	}
	m.liveSessions.WithLabelValues(kind).Set(float64(count))
}
