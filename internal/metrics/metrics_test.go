package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lukman83/dealdesk/internal/metrics"
	"github.com/lukman83/dealdesk/internal/models"
)

func TestObserve(t *testing.T) {
	rq := require.New(t)
	m := metrics.New()

	m.ObserveTool("save_deal", "ok", 10*time.Millisecond)
	m.ObserveTool("save_deal", "ok", 20*time.Millisecond)
	m.ObserveTool("save_deal", "ValidationError", time.Millisecond)
	m.ObserveNotification(models.ContactEmail, true)
	m.ObserveNotification(models.ContactEmail, false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	rq.Equal(http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	rq.NoError(err)
	rq.Contains(string(body), `dealdesk_tool_calls_total{code="ok",tool="save_deal"} 2`)
	rq.Contains(string(body), `dealdesk_tool_calls_total{code="ValidationError",tool="save_deal"} 1`)
	rq.Contains(string(body), `dealdesk_notifications_total{method="email",result="failed"} 1`)
	rq.Contains(string(body), `dealdesk_tool_call_duration_seconds_count{tool="save_deal"} 3`)
	rq.Contains(string(body), "go_goroutines")
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics
	m.ObserveTool("x", "ok", time.Second)
	m.ObserveNotification(models.ContactSMS, true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
