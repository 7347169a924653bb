package metrics

import "time"

// Outcomes of one dissection, used as a label value.
const (
	OutcomeComplete  = "complete"  // every layer decoded
	OutcomeTruncated = "truncated" // input ended inside a layer
	OutcomeStopped   = "stopped"   // an inner layer failed, outer layers kept
	OutcomeRejected  = "rejected"  // input refused before decoding
)

// DissectMetrics receives per-layer and per-input observations from the
// dissector.
type DissectMetrics interface {
	// ObserveLayer records one decoded layer of the named schema.
	ObserveLayer(schema string, bytes int, duration time.Duration)
	// ObserveLayerError records a layer that failed to decode.
	ObserveLayerError(schema, kind string)
	// ObserveDissection records a whole input.
	ObserveDissection(layers int, bytes int, duration time.Duration, outcome string)
}

var newDissectMetrics func() DissectMetrics

// RegisterDissectMetricsConstructor installs the backend constructor. The
// prometheus subpackage calls it from init.
func RegisterDissectMetricsConstructor(constructor func() DissectMetrics) {
	newDissectMetrics = constructor
}

// NewDissectMetrics returns the registered backend, or nil when metrics are
// disabled or no backend package was linked in.
func NewDissectMetrics() DissectMetrics {
	if !IsEnabled() || newDissectMetrics == nil {
		return nil
	}
	return newDissectMetrics()
}

// ObserveLayer forwards to m when it is non-nil.
func ObserveLayer(m DissectMetrics, schema string, bytes int, duration time.Duration) {
	if m != nil {
		m.ObserveLayer(schema, bytes, duration)
	}
}

// ObserveLayerError forwards to m when it is non-nil.
func ObserveLayerError(m DissectMetrics, schema, kind string) {
	if m != nil {
		m.ObserveLayerError(schema, kind)
	}
}

// ObserveDissection forwards to m when it is non-nil.
func ObserveDissection(m DissectMetrics, layers, bytes int, duration time.Duration, outcome string) {
	if m != nil {
		m.ObserveDissection(layers, bytes, duration, outcome)
	}
}
