package prometheus

import (
	"strconv"
	"time"

	"github.com/marmos91/smbwire/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics returns the API metrics bound to the current registry, or
// nil when metrics are disabled.
func NewHTTPMetrics() metrics.HTTPMetrics {
	reg := metrics.GetRegistry()
	if reg == nil {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()
	if m, ok := httpByReg[reg]; ok {
		return m
	}

	f := promauto.With(reg)
	m := &httpMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by route, method and status",
		}, []string{"route", "method", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "api",
			Name:      "request_duration_milliseconds",
			Help:      "API request latency",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}, []string{"route", "method"}),
	}
	httpByReg[reg] = m
	return m
}

func (m *httpMetrics) ObserveRequest(route, method string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(ms(d))
}
