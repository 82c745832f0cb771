// Package metrics exposes the alert loop's Prometheus counters and the
// /metrics and /healthz endpoints.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Evaluation outcomes used as the "outcome" label.
const (
	OutcomeAlerted     = "alerted"
	OutcomeUnchanged   = "unchanged"
	OutcomeUnavailable = "unavailable"
	OutcomeIncomplete  = "incomplete"
)

// Metrics holds all Prometheus metrics for the bot.
type Metrics struct {
	TicksTotal         prometheus.Counter
	TickDuration       prometheus.Histogram
	SkippedTicks       prometheus.Counter
	EvaluationsTotal   *prometheus.CounterVec // labels: outcome
	FetchesTotal       prometheus.Counter
	NotificationsSent  prometheus.Counter
	NotificationErrors prometheus.Counter
	JournalErrors      prometheus.Counter
	SessionsEvicted    prometheus.Counter
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter

	mu       sync.RWMutex
	lastTick time.Time
	started  time.Time
}

// New creates the metrics and registers them with reg. A nil reg means the
// default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxbot_ticks_total",
			Help: "Completed alert loop ticks",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fxbot_tick_duration_seconds",
			Help:    "Wall time of one alert loop tick",
			Buckets: prometheus.DefBuckets,
		}),
		SkippedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxbot_ticks_skipped_total",
			Help: "Ticks skipped because the previous one was still running",
		}),
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fxbot_evaluations_total",
			Help: "Per-user symbol evaluations by outcome",
		}, []string{"outcome"}),
		FetchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxbot_fetches_total",
			Help: "Price series fetched from the gateway",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxbot_notifications_sent_total",
			Help: "Alerts delivered to users",
		}),
		NotificationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxbot_notifications_failed_total",
			Help: "Alerts the transport failed to deliver",
		}),
		JournalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxbot_journal_errors_total",
			Help: "Alerts that could not be written to the journal",
		}),
		SessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxbot_sessions_evicted_total",
			Help: "Idle unauthorized sessions removed",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxbot_series_cache_hits_total",
			Help: "Price series served from Redis",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxbot_series_cache_misses_total",
			Help: "Price series not found in Redis",
		}),
		started: time.Now(),
	}

	reg.MustRegister(
		m.TicksTotal,
		m.TickDuration,
		m.SkippedTicks,
		m.EvaluationsTotal,
		m.FetchesTotal,
		m.NotificationsSent,
		m.NotificationErrors,
		m.JournalErrors,
		m.SessionsEvicted,
		m.CacheHits,
		m.CacheMisses,
	)

	return m
}

// ObserveTick records one finished tick.
func (m *Metrics) ObserveTick(at time.Time, d time.Duration) {
	m.TicksTotal.Inc()
	m.TickDuration.Observe(d.Seconds())

	m.mu.Lock()
	m.lastTick = at
	m.mu.Unlock()
}

func (m *Metrics) Evaluation(outcome string) {
	m.EvaluationsTotal.WithLabelValues(outcome).Inc()
}

// ServeHTTP handles the /healthz endpoint.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	m.mu.RLock()
	last := m.lastTick
	m.mu.RUnlock()

	status := struct {
		Status   string `json:"status"`
		Uptime   string `json:"uptime"`
		LastTick string `json:"last_tick,omitempty"`
	}{
		Status: "healthy",
		Uptime: time.Since(m.started).Round(time.Second).String(),
	}
	if !last.IsZero() {
		status.LastTick = last.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server. gatherer is the registry
// the metrics were registered with; nil means the default one.
func NewServer(addr string, m *Metrics, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", m)

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	logger := log.With().Str("component", "metrics").Logger()
	go func() {
		logger.Info().Str("addr", s.addr).Msg("Metrics server listening")
		if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the server's mux, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
