package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEvaluationCounts(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Evaluation(OutcomeAlerted)
	m.Evaluation(OutcomeAlerted)
	m.Evaluation(OutcomeUnavailable)

	if got := testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues(OutcomeAlerted)); got != 2 {
		t.Errorf("alerted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues(OutcomeUnavailable)); got != 1 {
		t.Errorf("unavailable = %v, want 1", got)
	}
}

func TestServerEndpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveTick(time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC), 150*time.Millisecond)
	srv := NewServer(":0", m, reg)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fxbot_ticks_total 1") {
		t.Errorf("/metrics body missing tick counter:\n%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var health struct {
		Status   string `json:"status"`
		LastTick string `json:"last_tick"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("decode /healthz: %v", err)
	}
	if health.Status != "healthy" || health.LastTick != "2026-10-15T12:00:00Z" {
		t.Errorf("/healthz = %+v", health)
	}
}
