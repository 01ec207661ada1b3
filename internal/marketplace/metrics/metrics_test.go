package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/thewillhuang/middleman/internal/models"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return pb.GetCounter().GetValue()
}

func TestCounters(t *testing.T) {
	m := NewManager("")
	m.Transition(models.TaskStatusOpen, models.TaskStatusScheduled, "applied")
	m.Transition(models.TaskStatusOpen, models.TaskStatusScheduled, "applied")
	m.Review(models.ReviewKindTask, "conflict")
	m.ObserveRequest("/api/v1/tasks", http.MethodGet, 200, 15*time.Millisecond)

	if got := counterValue(t, m.transitions.WithLabelValues("OPEN", "SCHEDULED", "applied")); got != 2 {
		t.Fatalf("expected 2 transitions, got %v", got)
	}
	if got := counterValue(t, m.reviews.WithLabelValues("TASK", "conflict")); got != 1 {
		t.Fatalf("expected 1 review conflict, got %v", got)
	}
	if got := counterValue(t, m.httpRequests.WithLabelValues("/api/v1/tasks", "GET", "200")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewManager("middleman")
	m.Review(models.ReviewKindClient, "applied")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "middleman_reviews_submissions_total") {
		t.Fatalf("review counter missing from exposition")
	}
}
