package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// zerologAdapter wraps a zerolog.Logger to implement Logger.
type zerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a Logger writing to stderr.
func NewZerologAdapter(level zerolog.Level, pretty bool) Logger {
	return &zerologAdapter{logger: newZerolog(os.Stderr, level, pretty)}
}

// NewZerologAdapterFor wraps an existing zerolog.Logger.
func NewZerologAdapterFor(logger zerolog.Logger) Logger {
	return &zerologAdapter{logger: logger}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &zerologAdapter{logger: zerolog.Nop()}
}

// Setup parses level, installs the resulting logger as the global zerolog logger and as the
// fallback for log.Ctx, and returns it wrapped as a Logger.
func Setup(level string, pretty bool) (Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := newZerolog(os.Stderr, lvl, pretty)
	zlog.Logger = logger
	zerolog.DefaultContextLogger = &zlog.Logger

	return &zerologAdapter{logger: logger}, nil
}

func newZerolog(w io.Writer, level zerolog.Level, pretty bool) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// addTraceInfo adds the trace and span ids of the span in ctx, if there is one.
func addTraceInfo(ctx context.Context, event *zerolog.Event) *zerolog.Event {
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		event = event.Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String())
	}
	return event
}

func emit(ctx context.Context, event *zerolog.Event, msg string, fields []map[string]any) {
	event = addTraceInfo(ctx, event)
	for _, f := range fields {
		event = event.Fields(f)
	}
	event.Msg(msg)
}

func (z *zerologAdapter) Debug(ctx context.Context, msg string, fields ...map[string]any) {
	emit(ctx, z.logger.Debug(), msg, fields)
}

func (z *zerologAdapter) Info(ctx context.Context, msg string, fields ...map[string]any) {
	emit(ctx, z.logger.Info(), msg, fields)
}

func (z *zerologAdapter) Warn(ctx context.Context, msg string, fields ...map[string]any) {
	emit(ctx, z.logger.Warn(), msg, fields)
}

func (z *zerologAdapter) Error(ctx context.Context, msg string, err error, fields ...map[string]any) {
	emit(ctx, z.logger.Error().Err(err), msg, fields)
}

func (z *zerologAdapter) Fatal(ctx context.Context, msg string, err error, fields ...map[string]any) {
	emit(ctx, z.logger.Fatal().Err(err), msg, fields)
}

// With returns a logger carrying fields. Trace ids are added per call so they stay current.
func (z *zerologAdapter) With(fields map[string]any) Logger {
	return &zerologAdapter{logger: z.logger.With().Fields(fields).Logger()}
}
