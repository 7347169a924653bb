package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// Level is the minimum severity that reaches the handler.
type Level slog.Level

const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

func (l Level) String() string { return slog.Level(l).String() }

// ParseLevel accepts DEBUG, INFO, WARN or ERROR in any case.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	}
	return 0, false
}

// Config selects the level, format and destination of log records.
type Config struct {
	Level  string // DEBUG, INFO, WARN or ERROR
	Format string // text or json
	Output string // stdout, stderr or a file path
}

// The level is shared by every handler built, so changing it never
// requires a rebuild.
var level slog.LevelVar

var (
	mu       sync.RWMutex
	output   io.Writer = os.Stdout
	format             = "text"
	useColor           = isTerminal(os.Stdout)
	slogger  *slog.Logger
)

func init() {
	rebuild()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// rebuild swaps in a handler for the current output and format.
func rebuild() {
	mu.Lock()
	defer mu.Unlock()

	opts := &slog.HandlerOptions{Level: &level}
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(output, opts)
	} else {
		h = NewColorTextHandler(output, opts, useColor)
	}
	slogger = slog.New(h)
}

func openOutput(name string) (io.Writer, error) {
	switch strings.ToLower(name) {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %q: %w", name, err)
	}
	return f, nil
}

// Init applies cfg. Empty fields keep the current setting; unknown levels
// and formats are ignored.
func Init(cfg Config) error {
	if cfg.Output != "" {
		w, err := openOutput(cfg.Output)
		if err != nil {
			return err
		}
		mu.Lock()
		output, useColor = w, isTerminal(w)
		mu.Unlock()
	}
	SetLevel(cfg.Level)
	SetFormat(cfg.Format)
	rebuild()
	return nil
}

// InitWithWriter points the logger at w. Tests use it to capture records.
func InitWithWriter(w io.Writer, lvl, f string, enableColor bool) {
	mu.Lock()
	output, useColor = w, enableColor
	mu.Unlock()
	SetLevel(lvl)
	SetFormat(f)
	rebuild()
}

// SetLevel sets the minimum level.
func SetLevel(s string) {
	if l, ok := ParseLevel(s); ok {
		level.Set(slog.Level(l))
	}
}

// SetFormat switches between text and json.
func SetFormat(f string) {
	f = strings.ToLower(f)
	if f != "text" && f != "json" {
		return
	}
	mu.Lock()
	changed := format != f
	format = f
	mu.Unlock()
	if changed {
		rebuild()
	}
}

// Enabled reports whether records at l would be emitted. Callers use it to
// skip building expensive field dumps.
func Enabled(l Level) bool {
	return slog.Level(l) >= level.Level()
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

func emit(ctx context.Context, l Level, withFields bool, msg string, args []any) {
	if !Enabled(l) {
		return
	}
	if withFields {
		args = appendContextFields(ctx, args)
	}
	current().Log(ctx, slog.Level(l), msg, args...)
}

func Debug(msg string, args ...any) { emit(context.Background(), LevelDebug, false, msg, args) }
func Info(msg string, args ...any)  { emit(context.Background(), LevelInfo, false, msg, args) }
func Warn(msg string, args ...any)  { emit(context.Background(), LevelWarn, false, msg, args) }
func Error(msg string, args ...any) { emit(context.Background(), LevelError, false, msg, args) }

// DebugCtx logs at debug level, led by the fields of the LogContext in ctx.
func DebugCtx(ctx context.Context, msg string, args ...any) { emit(ctx, LevelDebug, true, msg, args) }
func InfoCtx(ctx context.Context, msg string, args ...any)  { emit(ctx, LevelInfo, true, msg, args) }
func WarnCtx(ctx context.Context, msg string, args ...any)  { emit(ctx, LevelWarn, true, msg, args) }
func ErrorCtx(ctx context.Context, msg string, args ...any) { emit(ctx, LevelError, true, msg, args) }

// appendContextFields prepends the LogContext fields so they lead the record.
func appendContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	lead := make([]any, 0, 12+len(args))
	for _, kv := range [...]struct {
		key, val string
	}{
		{KeyTraceID, lc.TraceID},
		{KeySpanID, lc.SpanID},
		{KeySource, lc.Source},
		{KeyRequestID, lc.RequestID},
		{KeyLayer, lc.Layer},
	} {
		if kv.val != "" {
			lead = append(lead, kv.key, kv.val)
		}
	}
	if lc.Depth > 0 {
		lead = append(lead, KeyDepth, lc.Depth)
	}
	return append(lead, args...)
}

// With returns a logger carrying args on every record.
func With(args ...any) *slog.Logger {
	return current().With(args...)
}

// Duration returns the milliseconds elapsed since start.
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
