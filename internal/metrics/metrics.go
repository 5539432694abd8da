package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lukman83/dealdesk/internal/models"
)

const namespace = "dealdesk"

// Metrics holds the tool and notification counters. A nil *Metrics records
// nothing.
type Metrics struct {
	Registry      *prometheus.Registry
	ToolCalls     *prometheus.CounterVec
	ToolLatency   *prometheus.HistogramVec
	Notifications *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	toolCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_calls_total",
		Help:      "Tool invocations by tool and result code.",
	}, []string{"tool", "code"})

	toolLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tool_call_duration_seconds",
		Help:      "Tool invocation latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"tool"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Buyer notifications by contact method and outcome.",
	}, []string{"method", "result"})

	registry.MustRegister(
		toolCalls,
		toolLatency,
		notifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		Registry:      registry,
		ToolCalls:     toolCalls,
		ToolLatency:   toolLatency,
		Notifications: notifications,
	}
}

// ObserveTool records one tool call. code is "ok" on success.
func (m *Metrics) ObserveTool(tool, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, code).Inc()
	m.ToolLatency.WithLabelValues(tool).Observe(d.Seconds())
}

func (m *Metrics) ObserveNotification(method models.ContactMethod, ok bool) {
	if m == nil {
		return
	}
	result := "failed"
	if ok {
		result = "sent"
	}
	m.Notifications.WithLabelValues(string(method), result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
