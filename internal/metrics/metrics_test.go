package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAndHandler(t *testing.T) {
	m := New("millionaire")
	m.GameStarted()
	m.GameFinished("money", 200)
	m.AnswerSubmitted(true)
	m.LifelineUsed("fifty_fifty")

	if got := testutil.ToFloat64(m.GamesStarted); got != 1 {
		t.Fatalf("games started = %v", got)
	}
	if got := testutil.ToFloat64(m.PrizesPaid); got != 200 {
		t.Fatalf("prizes paid = %v", got)
	}
	if got := testutil.ToFloat64(m.GamesFinished.WithLabelValues("money")); got != 1 {
		t.Fatalf("games finished = %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "millionaire_lifelines_used_total") {
		t.Fatalf("expected lifeline counter in output:\n%s", body)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.GameStarted()
	m.GameFinished("fail", 0)
	m.AnswerSubmitted(false)
	m.LifelineUsed("friend_call")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("expected 404 from nil metrics, got %d", rec.Code)
	}
}
