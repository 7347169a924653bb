package metrics

import "time"

// HTTPMetrics receives one observation per API request.
type HTTPMetrics interface {
	ObserveRequest(route, method string, status int, duration time.Duration)
}

var newHTTPMetrics func() HTTPMetrics

// RegisterHTTPMetricsConstructor installs the backend constructor.
func RegisterHTTPMetricsConstructor(constructor func() HTTPMetrics) {
	newHTTPMetrics = constructor
}

// NewHTTPMetrics returns the registered backend, or nil when disabled.
func NewHTTPMetrics() HTTPMetrics {
	if !IsEnabled() || newHTTPMetrics == nil {
		return nil
	}
	return newHTTPMetrics()
}

// ObserveRequest forwards to m when it is non-nil.
func ObserveRequest(m HTTPMetrics, route, method string, status int, duration time.Duration) {
	if m != nil {
		m.ObserveRequest(route, method, status, duration)
	}
}
