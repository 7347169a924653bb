// Package metrics holds the metric interfaces used by the dissector and the
// HTTP API, and the Prometheus registry they report into.
//
// Metrics are opt-in: until InitRegistry is called every constructor returns
// nil, and every Observe helper accepts a nil receiver, so code paths that do
// not export metrics pay nothing.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace prefixes every exported metric name.
const Namespace = "smbwire"

var (
	registryMu sync.RWMutex
	registry   *prometheus.Registry
)

// InitRegistry creates the process registry, with Go runtime and process
// collectors attached. Calling it again returns the existing registry.
func InitRegistry() *prometheus.Registry {
	registryMu.Lock()
	defer registryMu.Unlock()
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry != nil
}

// GetRegistry returns the registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry
}

// ResetRegistry drops the registry. Tests use it to start from a clean slate.
func ResetRegistry() {
	registryMu.Lock()
	registry = nil
	registryMu.Unlock()
}
