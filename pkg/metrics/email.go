package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EmailMetrics records outbound email dispatch.
type EmailMetrics struct {
	sent     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewEmailMetrics registers the email metrics on the provided registerer.
func NewEmailMetrics(reg prometheus.Registerer) *EmailMetrics {
	if reg == nil {
		return &EmailMetrics{}
	}
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "email_dispatch_total",
		Help: "Outbound emails by template and status.",
	}, []string{"template", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "email_dispatch_duration_seconds",
		Help:    "Time spent handing emails to the transport.",
		Buckets: prometheus.DefBuckets,
	}, []string{"template"})
	reg.MustRegister(sent, duration)
	return &EmailMetrics{sent: sent, duration: duration}
}

// Observe records one dispatch attempt.
func (m *EmailMetrics) Observe(template string, elapsed time.Duration, err error) {
	if m == nil || m.sent == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	template = normalizeLabel(template)
	m.sent.WithLabelValues(template, status).Inc()
	m.duration.WithLabelValues(template).Observe(elapsed.Seconds())
}
