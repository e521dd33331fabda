// Package logging wraps rs/zerolog exactly as exchange-common/pkg/logger
// does, with one addition: an optional rotating file sink via
// gopkg.in/natefinch/lumberjack.v2 (NewRotating), falling back to stdout
// when no file path is given.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey string

const (
	traceIDKey ctxKey = "traceID"
	spanIDKey  ctxKey = "spanID"
)

func init() {
	zerolog.TimestampFieldName = "timestamp"
}

// Logger is a service-tagged, leveled, field-structured logger.
type Logger struct {
	logger zerolog.Logger
}

// New returns a Logger writing to w (stdout if nil), tagged with service.
func New(service string, w io.Writer) *Logger {
	if w == nil {
		w = os.Stdout
	}
	l := zerolog.New(w).With().
		Timestamp().
		Str("service", service).
		Logger()
	return &Logger{logger: l}
}

// NewRotating returns a Logger that writes to a rotating file at path,
// grounded on chycee-cryptoGo's log setup; an empty path returns
// New(service, nil) (stdout) instead.
func NewRotating(service, path string, maxSizeMB, maxBackups, maxAgeDays int) *Logger {
	if path == "" {
		return New(service, nil)
	}
	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	return New(service, sink)
}

// WithContext attaches the trace/span ids carried on ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	updated := l.logger.With().
		Str("traceID", TraceIDFromContext(ctx)).
		Str("spanID", SpanIDFromContext(ctx)).
		Logger()
	return &Logger{logger: updated}
}

func (l *Logger) Debug(msg string) { l.logger.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.logger.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.logger.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.logger.Error().Msg(msg) }

// Infof logs msg at info level with the given structured fields.
func (l *Logger) Infof(msg string, fields map[string]interface{}) {
	event := l.logger.Info()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// Warnf logs msg at warn level with the given structured fields.
func (l *Logger) Warnf(msg string, fields map[string]interface{}) {
	event := l.logger.Warn()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// Errorf logs msg at error level with the given structured fields.
func (l *Logger) Errorf(msg string, fields map[string]interface{}) {
	event := l.logger.Error()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// WithError attaches err as a structured field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

// WithField attaches one structured field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// WithSymbol tags subsequent log lines with the instrument they concern;
// like WithOrderID and WithSeq below, it is a typed accessor for a field
// this service's call sites attach often, instead of WithField.
func (l *Logger) WithSymbol(symbol string) *Logger {
	return &Logger{logger: l.logger.With().Str("symbol", symbol).Logger()}
}

// WithOrderID tags subsequent log lines with the order they concern.
func (l *Logger) WithOrderID(orderID int64) *Logger {
	return &Logger{logger: l.logger.With().Int64("orderID", orderID).Logger()}
}

// WithSeq tags subsequent log lines with an Engine event's sequence number,
// so a line can be correlated back to a position in that Engine's feed.
func (l *Logger) WithSeq(seq int64) *Logger {
	return &Logger{logger: l.logger.With().Int64("seq", seq).Logger()}
}

func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func ContextWithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, spanIDKey, spanID)
}

func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(traceIDKey).(string)
	return v
}

func SpanIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(spanIDKey).(string)
	return v
}
