// Package prometheus implements the metrics interfaces on top of the
// client_golang registry created by metrics.InitRegistry. Importing it for
// side effects installs the constructors.
package prometheus

import (
	"sync"
	"time"

	"github.com/marmos91/smbwire/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterDissectMetricsConstructor(NewDissectMetrics)
	metrics.RegisterHTTPMetricsConstructor(NewHTTPMetrics)
}

var sizeBuckets = []float64{
	32,    // bare headers
	128,   // negotiate
	512,   // session setup
	1500,  // one ethernet frame
	4096,  // 4KB
	16384, // 16KB
	65536, // 64KB
	1 << 20,
}

var durationBuckets = []float64{
	0.01, // 10us
	0.05,
	0.1,
	0.5,
	1, // 1ms
	5,
	10,
	50,
	100,
}

type dissectMetrics struct {
	layers      *prometheus.CounterVec
	layerBytes  *prometheus.HistogramVec
	layerTime   *prometheus.HistogramVec
	layerErrors *prometheus.CounterVec
	inputs      *prometheus.CounterVec
	inputBytes  prometheus.Histogram
	inputLayers prometheus.Histogram
	inputTime   prometheus.Histogram
}

var (
	mu        sync.Mutex
	dissects  = map[*prometheus.Registry]*dissectMetrics{}
	httpByReg = map[*prometheus.Registry]*httpMetrics{}
)

// NewDissectMetrics returns the dissector metrics bound to the current
// registry, or nil when metrics are disabled. Repeated calls share one set of
// collectors.
func NewDissectMetrics() metrics.DissectMetrics {
	reg := metrics.GetRegistry()
	if reg == nil {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()
	if m, ok := dissects[reg]; ok {
		return m
	}

	f := promauto.With(reg)
	m := &dissectMetrics{
		layers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "layers_decoded_total",
			Help:      "Layers decoded, by schema",
		}, []string{"schema"}),
		layerBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Name:      "layer_bytes",
			Help:      "Encoded size of decoded layers",
			Buckets:   sizeBuckets,
		}, []string{"schema"}),
		layerTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Name:      "layer_decode_duration_milliseconds",
			Help:      "Time spent decoding one layer",
			Buckets:   durationBuckets,
		}, []string{"schema"}),
		layerErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "layer_errors_total",
			Help:      "Layers that failed to decode, by schema and error kind",
		}, []string{"schema", "kind"}),
		inputs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "dissections_total",
			Help:      "Inputs dissected, by outcome",
		}, []string{"outcome"}),
		inputBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Name:      "dissection_bytes",
			Help:      "Size of dissected inputs",
			Buckets:   sizeBuckets,
		}),
		inputLayers: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Name:      "dissection_layers",
			Help:      "Layers decoded per input",
			Buckets:   prometheus.LinearBuckets(1, 1, 8),
		}),
		inputTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Name:      "dissection_duration_milliseconds",
			Help:      "Time spent dissecting one input",
			Buckets:   durationBuckets,
		}),
	}
	dissects[reg] = m
	return m
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000.0 }

func (m *dissectMetrics) ObserveLayer(schema string, bytes int, d time.Duration) {
	m.layers.WithLabelValues(schema).Inc()
	m.layerBytes.WithLabelValues(schema).Observe(float64(bytes))
	m.layerTime.WithLabelValues(schema).Observe(ms(d))
}

func (m *dissectMetrics) ObserveLayerError(schema, kind string) {
	m.layerErrors.WithLabelValues(schema, kind).Inc()
}

func (m *dissectMetrics) ObserveDissection(layers, bytes int, d time.Duration, outcome string) {
	m.inputs.WithLabelValues(outcome).Inc()
	m.inputBytes.Observe(float64(bytes))
	m.inputLayers.Observe(float64(layers))
	m.inputTime.Observe(ms(d))
}
