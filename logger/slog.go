package logger

import (
	"context"
	"log/slog"

	"github.com/philipp01105/batchlog/core"
)

// SlogHandler is an adapter that implements slog.Handler on top of a Logger,
// so code written against log/slog feeds the same pipeline.
type SlogHandler struct {
	logger *Logger
	attrs  []core.Field
	group  string
}

// NewSlogHandler creates a slog.Handler that submits records through l.
func NewSlogHandler(l *Logger) *SlogHandler {
	return &SlogHandler{logger: l}
}

// Enabled reports whether the handler handles records at the given level.
func (s *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return s.logger.Enabled(slogLevelToCore(level))
}

// Handle submits the record. The record time is kept as the event timestamp
// and the first attribute holding an error becomes the throwable.
func (s *SlogHandler) Handle(ctx context.Context, record slog.Record) error {
	level := slogLevelToCore(record.Level)
	if !s.logger.Enabled(level) {
		return nil
	}

	fields := make([]core.Field, len(s.attrs), len(s.attrs)+record.NumAttrs())
	copy(fields, s.attrs)

	var throwable error
	record.Attrs(func(a slog.Attr) bool {
		if err, ok := a.Value.Resolve().Any().(error); ok && throwable == nil {
			throwable = err
			return true
		}
		fields = appendSlogAttr(fields, s.group, a)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = s.logger.clock()
	}
	s.logger.logAt(ctx, level, ts, core.NewFieldsMessage(record.Message, fields...), throwable)
	return nil
}

// WithAttrs returns a new SlogHandler with additional attributes.
func (s *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]core.Field, len(s.attrs), len(s.attrs)+len(attrs))
	copy(newAttrs, s.attrs)
	for _, a := range attrs {
		newAttrs = appendSlogAttr(newAttrs, s.group, a)
	}
	return &SlogHandler{
		logger: s.logger,
		attrs:  newAttrs,
		group:  s.group,
	}
}

// WithGroup returns a new SlogHandler with the given group name.
func (s *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return s
	}
	newGroup := name
	if s.group != "" {
		newGroup = s.group + "." + name
	}
	return &SlogHandler{
		logger: s.logger,
		attrs:  s.attrs,
		group:  newGroup,
	}
}

// slogLevelToCore converts a slog.Level to a core.Level.
func slogLevelToCore(level slog.Level) core.Level {
	switch {
	case level >= slog.LevelError+4:
		return core.FatalLevel
	case level >= slog.LevelError:
		return core.ErrorLevel
	case level >= slog.LevelWarn:
		return core.WarnLevel
	case level >= slog.LevelInfo:
		return core.InfoLevel
	case level >= slog.LevelDebug:
		return core.DebugLevel
	default:
		return core.TraceLevel
	}
}

// appendSlogAttr converts a and appends it to fields, flattening groups
// into dotted keys.
func appendSlogAttr(fields []core.Field, group string, a slog.Attr) []core.Field {
	key := a.Key
	if group != "" {
		key = group + "." + a.Key
	}

	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindString:
		return append(fields, String(key, a.Value.String()))
	case slog.KindInt64:
		return append(fields, Int64(key, a.Value.Int64()))
	case slog.KindUint64:
		return append(fields, Any(key, a.Value.Uint64()))
	case slog.KindFloat64:
		return append(fields, Float64(key, a.Value.Float64()))
	case slog.KindBool:
		return append(fields, Bool(key, a.Value.Bool()))
	case slog.KindTime:
		return append(fields, Time(key, a.Value.Time()))
	case slog.KindDuration:
		return append(fields, Duration(key, a.Value.Duration()))
	case slog.KindGroup:
		// an inline group with an empty key keeps the parent prefix
		prefix := key
		if a.Key == "" {
			prefix = group
		}
		for _, ga := range a.Value.Group() {
			fields = appendSlogAttr(fields, prefix, ga)
		}
		return fields
	default:
		return append(fields, Any(key, a.Value.Any()))
	}
}
