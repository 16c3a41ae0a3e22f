package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "livevote"

// Metrics holds Prometheus metrics for the service.
// All methods are safe on a nil *Metrics so services can run without it.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter     *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	RequestsInFlight   prometheus.Gauge
	VotesRecorded      *prometheus.CounterVec
	VotesReset         prometheus.Counter
	LeaderboardRuns    prometheus.Counter
	LeaderboardSeconds prometheus.Histogram
	TimerActions       *prometheus.CounterVec
	LiveTransitions    *prometheus.CounterVec
	ConfettiTriggers   prometheus.Counter
	WebsocketClients   prometheus.Gauge
	DBConnPoolStats    *prometheus.GaugeVec
}

// New creates a metrics instance on its own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),
		VotesRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_recorded_total",
				Help:      "Votes written to the ledger",
			},
			[]string{"kind"}, // kind: submit, autosave
		),
		VotesReset: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_reset_total",
			Help:      "Votes removed by host resets",
		}),
		LeaderboardRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaderboard_computations_total",
			Help:      "Leaderboard computations",
		}),
		LeaderboardSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "leaderboard_duration_seconds",
			Help:      "Time spent loading and scoring a leaderboard",
			Buckets:   prometheus.DefBuckets,
		}),
		TimerActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "timer_actions_total",
				Help:      "Presentation timer actions",
			},
			[]string{"action"},
		),
		LiveTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "event_transitions_total",
				Help:      "Event status transitions",
			},
			[]string{"status"},
		),
		ConfettiTriggers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confetti_triggers_total",
			Help:      "Confetti triggers",
		}),
		WebsocketClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients",
		}),
		DBConnPoolStats: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"stat"}, // stat: open, in_use, idle, wait_count
		),
	}
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count, duration and in-flight requests per chi route
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// VoteRecorded counts a ledger write of the given kind
func (m *Metrics) VoteRecorded(kind string) {
	if m == nil {
		return
	}
	m.VotesRecorded.WithLabelValues(kind).Inc()
}

// VotesRemoved counts votes deleted by a reset
func (m *Metrics) VotesRemoved(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.VotesReset.Add(float64(n))
}

// LeaderboardComputed records one leaderboard computation
func (m *Metrics) LeaderboardComputed(d time.Duration) {
	if m == nil {
		return
	}
	m.LeaderboardRuns.Inc()
	m.LeaderboardSeconds.Observe(d.Seconds())
}

// TimerAction counts a timer start, pause, resume or stop
func (m *Metrics) TimerAction(action string) {
	if m == nil {
		return
	}
	m.TimerActions.WithLabelValues(action).Inc()
}

// Transition counts an event moving to status
func (m *Metrics) Transition(status string) {
	if m == nil {
		return
	}
	m.LiveTransitions.WithLabelValues(status).Inc()
}

// Confetti counts a confetti trigger
func (m *Metrics) Confetti() {
	if m == nil {
		return
	}
	m.ConfettiTriggers.Inc()
}

// ClientConnected and ClientDisconnected track websocket clients
func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.WebsocketClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.WebsocketClients.Dec()
}

// ObserveDB copies connection pool statistics into gauges
func (m *Metrics) ObserveDB(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.DBConnPoolStats.WithLabelValues("open").Set(float64(stats.OpenConnections))
	m.DBConnPoolStats.WithLabelValues("in_use").Set(float64(stats.InUse))
	m.DBConnPoolStats.WithLabelValues("idle").Set(float64(stats.Idle))
	m.DBConnPoolStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
}
