package logger

import (
	"fmt"
	"log/slog"
)

// Field keys shared by every log statement, so records from the CLI, the API
// and the dissector can be queried the same way.
const (
	// Tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Input
	KeySource    = "source"     // capture file, stdin or api
	KeyRequestID = "request_id" // HTTP request ID
	KeyRemote    = "remote"     // API client address
	KeyBytes     = "bytes"      // input buffer size
	KeyPreview   = "preview"    // leading input bytes in hex

	// Layers
	KeyLayer   = "layer"   // schema name
	KeyParent  = "parent"  // enclosing schema name
	KeyDepth   = "depth"   // nesting depth
	KeyCommand = "command" // protocol command or message type
	KeyReply   = "reply"   // response direction
	KeyLayers  = "layers"  // number of decoded layers

	// Fields
	KeyField  = "field"
	KeyOffset = "offset"
	KeyLength = "length"
	KeyValue  = "value"

	// Outcome
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyReason     = "reason" // why decoding stopped early
	KeyOperation  = "operation"
	KeyStatus     = "status"
	KeyPath       = "path"
)

// TraceID returns the trace ID attribute.
func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }

// SpanID returns the span ID attribute.
func SpanID(id string) slog.Attr { return slog.String(KeySpanID, id) }

// Source returns the input source attribute.
func Source(s string) slog.Attr { return slog.String(KeySource, s) }

// Bytes returns the input size attribute.
func Bytes(n int) slog.Attr { return slog.Int(KeyBytes, n) }

// Preview renders at most max leading bytes of data in hex.
func Preview(data []byte, max int) slog.Attr {
	if len(data) > max {
		return slog.String(KeyPreview, fmt.Sprintf("%x...", data[:max]))
	}
	return slog.String(KeyPreview, fmt.Sprintf("%x", data))
}

// Layer returns the layer attribute.
func Layer(name string) slog.Attr { return slog.String(KeyLayer, name) }

// Parent returns the enclosing layer attribute.
func Parent(name string) slog.Attr { return slog.String(KeyParent, name) }

// Depth returns the nesting depth attribute.
func Depth(d int) slog.Attr { return slog.Int(KeyDepth, d) }

// Command returns the command attribute, rendered as hex.
func Command(c uint64) slog.Attr { return slog.String(KeyCommand, fmt.Sprintf("0x%02x", c)) }

// Reply returns the direction attribute.
func Reply(r bool) slog.Attr { return slog.Bool(KeyReply, r) }

// Layers returns the decoded layer count attribute.
func Layers(n int) slog.Attr { return slog.Int(KeyLayers, n) }

// Field returns the field name attribute.
func Field(name string) slog.Attr { return slog.String(KeyField, name) }

// Offset returns the byte offset attribute.
func Offset(off int) slog.Attr { return slog.Int(KeyOffset, off) }

// Length returns the byte length attribute.
func Length(n int) slog.Attr { return slog.Int(KeyLength, n) }

// Value returns the rendered field value attribute.
func Value(v string) slog.Attr { return slog.String(KeyValue, v) }

// DurationMs returns the elapsed time attribute.
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns the error attribute. A nil error yields an empty attribute,
// which handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Reason returns the early-stop reason attribute.
func Reason(r string) slog.Attr { return slog.String(KeyReason, r) }

// Operation returns the operation attribute.
func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }

// Status returns the HTTP status attribute.
func Status(code int) slog.Attr { return slog.Int(KeyStatus, code) }

// Path returns the path attribute.
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }

// Remote returns the client address attribute.
func Remote(addr string) slog.Attr { return slog.String(KeyRemote, addr) }
