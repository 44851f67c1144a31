package logger

import (
	"context"
	"time"

	"github.com/philipp01105/batchlog/core"
)

// Logger is a named handle that turns calls into events.
//
// A call captures the timestamp and the calling goroutine's name before it
// returns. Building the event and handing it to the dispatcher happen later
// on a worker goroutine, so a call never waits on appender I/O. Loggers are
// immutable and safe for concurrent use.
type Logger struct {
	name     string
	shard    int
	pool     *Pool
	minLevel core.Level
	clock    func() time.Time
	fields   []core.Field
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// Enabled reports whether a call at level would be submitted
func (l *Logger) Enabled(level core.Level) bool {
	return level >= l.minLevel
}

// With returns a Logger that appends fields to every message. The result
// shares the name and worker of l but is not registered.
func (l *Logger) With(fields ...core.Field) *Logger {
	child := *l
	child.fields = make([]core.Field, 0, len(l.fields)+len(fields))
	child.fields = append(child.fields, l.fields...)
	child.fields = append(child.fields, fields...)
	return &child
}

// Log submits a call at level. The thread name is taken from ctx when one
// was attached with core.WithThreadName.
func (l *Logger) Log(ctx context.Context, level core.Level, msg core.Message, err error) {
	l.log(ctx, level, msg, err)
}

func (l *Logger) log(ctx context.Context, level core.Level, msg core.Message, err error) {
	if level < l.minLevel {
		return
	}
	l.logAt(ctx, level, l.clock(), msg, err)
}

// logAt submits a call whose timestamp was already captured
func (l *Logger) logAt(ctx context.Context, level core.Level, ts time.Time, msg core.Message, err error) {
	if msg == nil {
		msg = core.Text("")
	}
	if len(l.fields) > 0 {
		msg = boundMessage{inner: msg, fields: l.fields}
	}
	_ = l.pool.submit(l.shard, task{
		logger:    l.name,
		level:     level,
		timestamp: ts,
		thread:    core.ThreadName(ctx),
		message:   msg,
		throwable: err,
	})
}

// boundMessage renders the fields attached with With after the message
type boundMessage struct {
	inner  core.Message
	fields []core.Field
}

func (m boundMessage) Render() string {
	return core.NewFieldsMessage(m.inner.Render(), m.fields...).Render()
}

// Trace logs a trace message
func (l *Logger) Trace(msg string) {
	l.log(context.Background(), core.TraceLevel, core.Text(msg), nil)
}

// Tracef logs a trace message rendered with fmt.Sprintf when dispatched
func (l *Logger) Tracef(format string, args ...any) {
	if core.TraceLevel < l.minLevel {
		return
	}
	l.log(context.Background(), core.TraceLevel, core.NewMessage(format, args...), nil)
}

// TraceMessage logs a trace message
func (l *Logger) TraceMessage(msg core.Message) {
	l.log(context.Background(), core.TraceLevel, msg, nil)
}

// TraceErr logs err at trace level with an empty message
func (l *Logger) TraceErr(err error) {
	l.log(context.Background(), core.TraceLevel, core.Text(""), err)
}

// Tracew logs a trace message followed by key=value fields
func (l *Logger) Tracew(msg string, fields ...core.Field) {
	if core.TraceLevel < l.minLevel {
		return
	}
	l.log(context.Background(), core.TraceLevel, core.NewFieldsMessage(msg, fields...), nil)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.log(context.Background(), core.DebugLevel, core.Text(msg), nil)
}

// Debugf logs a debug message rendered with fmt.Sprintf when dispatched
func (l *Logger) Debugf(format string, args ...any) {
	if core.DebugLevel < l.minLevel {
		return
	}
	l.log(context.Background(), core.DebugLevel, core.NewMessage(format, args...), nil)
}

// DebugMessage logs a debug message
func (l *Logger) DebugMessage(msg core.Message) {
	l.log(context.Background(), core.DebugLevel, msg, nil)
}

// DebugErr logs err at debug level with an empty message
func (l *Logger) DebugErr(err error) {
	l.log(context.Background(), core.DebugLevel, core.Text(""), err)
}

// Debugw logs a debug message followed by key=value fields
func (l *Logger) Debugw(msg string, fields ...core.Field) {
	if core.DebugLevel < l.minLevel {
		return
	}
	l.log(context.Background(), core.DebugLevel, core.NewFieldsMessage(msg, fields...), nil)
}

// Info logs a info message
func (l *Logger) Info(msg string) {
	l.log(context.Background(), core.InfoLevel, core.Text(msg), nil)
}

// Infof logs a info message rendered with fmt.Sprintf when dispatched
func (l *Logger) Infof(format string, args ...any) {
	if core.InfoLevel < l.minLevel {
		return
	}
	l.log(context.Background(), core.InfoLevel, core.NewMessage(format, args...), nil)
}

// InfoMessage logs a info message
func (l *Logger) InfoMessage(msg core.Message) {
	l.log(context.Background(), core.InfoLevel, msg, nil)
}

// InfoErr logs err at info level with an empty message
func (l *Logger) InfoErr(err error) {
	l.log(context.Background(), core.InfoLevel, core.Text(""), err)
}

// Infow logs a info message followed by key=value fields
func (l *Logger) Infow(msg string, fields ...core.Field) {
	if core.InfoLevel < l.minLevel {
		return
	}
	l.log(context.Background(), core.InfoLevel, core.NewFieldsMessage(msg, fields...), nil)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.log(context.Background(), core.WarnLevel, core.Text(msg), nil)
}

// Warnf logs a warning message rendered with fmt.Sprintf when dispatched
func (l *Logger) Warnf(format string, args ...any) {
	if core.WarnLevel < l.minLevel {
		return
	}
	l.log(context.Background(), core.WarnLevel, core.NewMessage(format, args...), nil)
}

// WarnMessage logs a warning message
func (l *Logger) WarnMessage(msg core.Message) {
	l.log(context.Background(), core.WarnLevel, msg, nil)
}

// WarnErr logs err at warning level with an empty message
func (l *Logger) WarnErr(err error) {
	l.log(context.Background(), core.WarnLevel, core.Text(""), err)
}

// Warnw logs a warning message followed by key=value fields
func (l *Logger) Warnw(msg string, fields ...core.Field) {
	if core.WarnLevel < l.minLevel {
		return
	}
	l.log(context.Background(), core.WarnLevel, core.NewFieldsMessage(msg, fields...), nil)
}

// Error logs a error message
func (l *Logger) Error(msg string) {
	l.log(context.Background(), core.ErrorLevel, core.Text(msg), nil)
}

// Errorf logs a error message rendered with fmt.Sprintf when dispatched
func (l *Logger) Errorf(format string, args ...any) {
	if core.ErrorLevel < l.minLevel {
		return
	}
	l.log(context.Background(), core.ErrorLevel, core.NewMessage(format, args...), nil)
}

// ErrorMessage logs a error message
func (l *Logger) ErrorMessage(msg core.Message) {
	l.log(context.Background(), core.ErrorLevel, msg, nil)
}

// ErrorErr logs err at error level with an empty message
func (l *Logger) ErrorErr(err error) {
	l.log(context.Background(), core.ErrorLevel, core.Text(""), err)
}

// Errorw logs a error message followed by key=value fields
func (l *Logger) Errorw(msg string, fields ...core.Field) {
	if core.ErrorLevel < l.minLevel {
		return
	}
	l.log(context.Background(), core.ErrorLevel, core.NewFieldsMessage(msg, fields...), nil)
}

// Fatal logs a fatal message
func (l *Logger) Fatal(msg string) {
	l.log(context.Background(), core.FatalLevel, core.Text(msg), nil)
}

// Fatalf logs a fatal message rendered with fmt.Sprintf when dispatched
func (l *Logger) Fatalf(format string, args ...any) {
	if core.FatalLevel < l.minLevel {
		return
	}
	l.log(context.Background(), core.FatalLevel, core.NewMessage(format, args...), nil)
}

// FatalMessage logs a fatal message
func (l *Logger) FatalMessage(msg core.Message) {
	l.log(context.Background(), core.FatalLevel, msg, nil)
}

// FatalErr logs err at fatal level with an empty message
func (l *Logger) FatalErr(err error) {
	l.log(context.Background(), core.FatalLevel, core.Text(""), err)
}

// Fatalw logs a fatal message followed by key=value fields
func (l *Logger) Fatalw(msg string, fields ...core.Field) {
	if core.FatalLevel < l.minLevel {
		return
	}
	l.log(context.Background(), core.FatalLevel, core.NewFieldsMessage(msg, fields...), nil)
}
