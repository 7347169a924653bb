// Package dissect decodes a captured buffer into its stack of protocol
// layers: NetBIOS framing, the SMB1 or SMB2 header and command body, the
// GSSAPI token of a session setup and the NTLM message inside it.
//
// Each layer is decoded with the schemas of pkg/protocol. Decoding stops at
// the first layer that fails; the layers decoded so far are kept and the
// failure is reported on the Result.
package dissect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marmos91/smbwire/internal/bytesize"
	"github.com/marmos91/smbwire/internal/logger"
	"github.com/marmos91/smbwire/internal/telemetry"
	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/metrics"
	"github.com/marmos91/smbwire/pkg/protocol/gssapi"
	"github.com/marmos91/smbwire/pkg/protocol/llmnr"
	"github.com/marmos91/smbwire/pkg/protocol/ntlm"
	"go.opentelemetry.io/otel/codes"
)

var (
	// ErrEmpty rejects a zero-length input.
	ErrEmpty = errors.New("dissect: empty input")
	// ErrTooLarge rejects input above Config.MaxMessageSize.
	ErrTooLarge = errors.New("dissect: input exceeds maximum message size")
	// ErrUnknownLayer is returned for an unknown layer name or an input whose
	// outermost layer cannot be detected.
	ErrUnknownLayer = errors.New("dissect: unknown layer")
	// ErrMaxDepth stops decoding once Config.MaxDepth layers were produced.
	ErrMaxDepth = errors.New("dissect: maximum layer depth reached")
)

// Config bounds the work done per input.
type Config struct {
	// MaxMessageSize rejects larger inputs before decoding. NetBIOS session
	// frames cannot exceed 16MiB.
	MaxMessageSize bytesize.ByteSize `mapstructure:"max_message_size" validate:"gt=0" yaml:"max_message_size" json:"max_message_size"`
	// MaxDepth caps the number of layers in one Result.
	MaxDepth int `mapstructure:"max_depth" validate:"gte=1,lte=64" yaml:"max_depth" json:"max_depth"`
	// PreviewBytes is how much of the input is hex-dumped in debug logs.
	PreviewBytes int `mapstructure:"preview_bytes" validate:"gte=0" yaml:"preview_bytes" json:"preview_bytes"`
}

// DefaultConfig returns the limits used when a field is zero.
func DefaultConfig() Config {
	return Config{
		MaxMessageSize: 16 * bytesize.MiB,
		MaxDepth:       8,
		PreviewBytes:   32,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.PreviewBytes == 0 {
		c.PreviewBytes = d.PreviewBytes
	}
}

// Node is one decoded layer.
type Node struct {
	// Name is the schema name, or "gssapi" for a security token.
	Name string
	// Depth is the position in the stack, 0 for the outermost layer.
	Depth int
	// Offset is the absolute position of the layer in the input.
	Offset int
	// Length is the encoded size of the layer including nested layers.
	Length int
	// Value is a *binstruct.Struct, or a *gssapi.Token.
	Value binstruct.Value
	// Detail carries decoded data outside the binstruct tree: the
	// *llmnr.Message of an LLMNR layer.
	Detail any
}

// Struct returns the node value as a struct, or nil.
func (n *Node) Struct() *binstruct.Struct {
	s, _ := n.Value.(*binstruct.Struct)
	return s
}

// Result is the outcome of one Dissect call.
type Result struct {
	Layers  []Node
	Outcome string
	// Err is the failure that stopped decoding after at least one layer.
	Err error
}

// Find returns the first layer with the given schema name.
func (r *Result) Find(name string) (*Node, bool) {
	for i := range r.Layers {
		if r.Layers[i].Name == name {
			return &r.Layers[i], true
		}
	}
	return nil, false
}

// Innermost returns the last decoded layer.
func (r *Result) Innermost() *Node {
	if len(r.Layers) == 0 {
		return nil
	}
	return &r.Layers[len(r.Layers)-1]
}

// Names returns the schema names from outermost to innermost.
func (r *Result) Names() []string {
	names := make([]string, len(r.Layers))
	for i, n := range r.Layers {
		names[i] = n.Name
	}
	return names
}

// Dissector decodes buffers. It holds no per-input state and is safe for
// concurrent use.
type Dissector struct {
	cfg     Config
	metrics metrics.DissectMetrics
}

// New returns a Dissector. A nil m disables metrics.
func New(cfg Config, m metrics.DissectMetrics) *Dissector {
	cfg.applyDefaults()
	return &Dissector{cfg: cfg, metrics: m}
}

// Config returns the effective limits.
func (d *Dissector) Config() Config { return d.cfg }

// Dissect decodes data starting at layer first. Auto detects the outermost
// layer. An error is returned when the input is rejected or when not even
// the outermost layer decodes; later failures are reported in Result.Err.
func (d *Dissector) Dissect(ctx context.Context, data []byte, first Layer) (*Result, error) {
	start := time.Now()

	if err := d.admit(data); err != nil {
		metrics.ObserveDissection(d.metrics, 0, len(data), time.Since(start), metrics.OutcomeRejected)
		logger.DebugCtx(ctx, "input rejected", logger.Bytes(len(data)), logger.Err(err))
		return nil, err
	}
	if first == Auto || first == "" {
		l, ok := Detect(data)
		if !ok {
			metrics.ObserveDissection(d.metrics, 0, len(data), time.Since(start), metrics.OutcomeRejected)
			return nil, fmt.Errorf("%w: cannot detect the outermost layer", ErrUnknownLayer)
		}
		first = l
	}
	if _, ok := decoders[first]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, first)
	}

	source := ""
	if lc := logger.FromContext(ctx); lc != nil {
		source = lc.Source
	}
	ctx, span := telemetry.StartDissectSpan(ctx, source, len(data))
	defer span.End()

	logger.DebugCtx(ctx, "dissecting",
		logger.Bytes(len(data)), logger.Layer(string(first)), logger.Preview(data, d.cfg.PreviewBytes))

	w := &walk{d: d, res: &Result{}}
	w.run(ctx, &step{layer: first, data: data})

	res := w.res
	res.Outcome = outcome(res.Err)
	span.SetAttributes(telemetry.Layers(len(res.Layers)), telemetry.Outcome(res.Outcome))
	metrics.ObserveDissection(d.metrics, len(res.Layers), len(data), time.Since(start), res.Outcome)

	if len(res.Layers) == 0 {
		span.SetStatus(codes.Error, res.Err.Error())
		return nil, res.Err
	}
	logger.DebugCtx(ctx, "dissected",
		logger.Layers(len(res.Layers)), logger.Reason(res.Outcome), logger.DurationMs(logger.Duration(start)))
	return res, nil
}

func (d *Dissector) admit(data []byte) error {
	if len(data) == 0 {
		return ErrEmpty
	}
	if uint64(len(data)) > d.cfg.MaxMessageSize.Uint64() {
		return fmt.Errorf("%w: %d bytes, limit %s", ErrTooLarge, len(data), d.cfg.MaxMessageSize)
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeComplete
	case errors.Is(err, binstruct.ErrTruncated):
		return metrics.OutcomeTruncated
	default:
		return metrics.OutcomeStopped
	}
}

// errorKind labels a decode failure for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, binstruct.ErrTruncated):
		return "truncated"
	case errors.Is(err, binstruct.ErrUnknownDiscriminant):
		return "unknown_discriminant"
	case errors.Is(err, ErrMaxDepth):
		return "max_depth"
	case errors.Is(err, gssapi.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ntlm.ErrNotNTLM):
		return "not_ntlm"
	case errors.Is(err, llmnr.ErrMalformed):
		return "malformed"
	}
	return "invalid"
}
