package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for dissector and API spans.
const (
	AttrSource  = "smbwire.source"
	AttrBytes   = "smbwire.input.bytes"
	AttrLayers  = "smbwire.layers"
	AttrOutcome = "smbwire.outcome"

	AttrLayer   = "layer.schema"
	AttrParent  = "layer.parent"
	AttrDepth   = "layer.depth"
	AttrOffset  = "layer.offset"
	AttrLength  = "layer.length"
	AttrCommand = "layer.command"
	AttrReply   = "layer.reply"

	AttrHTTPRoute  = "http.route"
	AttrHTTPMethod = "http.request.method"
	AttrHTTPStatus = "http.response.status_code"
	AttrRequestID  = "http.request.id"
	AttrClientAddr = "client.address"
)

// Source returns the input source attribute.
func Source(s string) attribute.KeyValue { return attribute.String(AttrSource, s) }

// Bytes returns the input size attribute.
func Bytes(n int) attribute.KeyValue { return attribute.Int(AttrBytes, n) }

// Layers returns the decoded layer count attribute.
func Layers(n int) attribute.KeyValue { return attribute.Int(AttrLayers, n) }

// Outcome returns the dissection outcome attribute.
func Outcome(o string) attribute.KeyValue { return attribute.String(AttrOutcome, o) }

// Layer returns the schema name attribute.
func Layer(name string) attribute.KeyValue { return attribute.String(AttrLayer, name) }

// Parent returns the enclosing schema attribute.
func Parent(name string) attribute.KeyValue { return attribute.String(AttrParent, name) }

// Depth returns the nesting depth attribute.
func Depth(d int) attribute.KeyValue { return attribute.Int(AttrDepth, d) }

// Offset returns the absolute offset attribute.
func Offset(off int) attribute.KeyValue { return attribute.Int(AttrOffset, off) }

// Length returns the encoded length attribute.
func Length(n int) attribute.KeyValue { return attribute.Int(AttrLength, n) }

// Command returns the command attribute, rendered as hex.
func Command(c uint64) attribute.KeyValue {
	return attribute.String(AttrCommand, fmt.Sprintf("0x%02x", c))
}

// Reply returns the direction attribute.
func Reply(r bool) attribute.KeyValue { return attribute.Bool(AttrReply, r) }

// HTTPRoute returns the matched route pattern attribute.
func HTTPRoute(r string) attribute.KeyValue { return attribute.String(AttrHTTPRoute, r) }

// HTTPMethod returns the request method attribute.
func HTTPMethod(m string) attribute.KeyValue { return attribute.String(AttrHTTPMethod, m) }

// HTTPStatus returns the response status attribute.
func HTTPStatus(code int) attribute.KeyValue { return attribute.Int(AttrHTTPStatus, code) }

// RequestID returns the request ID attribute.
func RequestID(id string) attribute.KeyValue { return attribute.String(AttrRequestID, id) }

// ClientAddr returns the client address attribute.
func ClientAddr(addr string) attribute.KeyValue { return attribute.String(AttrClientAddr, addr) }

// StartDissectSpan starts the root span of one dissection.
func StartDissectSpan(ctx context.Context, source string, size int) (context.Context, trace.Span) {
	return StartSpan(ctx, "dissect", trace.WithAttributes(Source(source), Bytes(size)))
}

// StartLayerSpan starts a child span for decoding one layer. Span names are
// "layer.<schema>".
func StartLayerSpan(ctx context.Context, schema string, depth, offset int, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, 3+len(attrs))
	all = append(all, Layer(schema), Depth(depth), Offset(offset))
	all = append(all, attrs...)
	return StartSpan(ctx, "layer."+schema, trace.WithAttributes(all...))
}

// StartHTTPSpan starts a server span for one API request.
func StartHTTPSpan(ctx context.Context, method, route string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{HTTPMethod(method), HTTPRoute(route)}, attrs...)
	return StartSpan(ctx, method+" "+route, trace.WithSpanKind(trace.SpanKindServer), trace.WithAttributes(all...))
}
