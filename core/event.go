package core

import (
	"time"
)

// Event is one log occurrence. It is fully populated by NewEvent and never
// modified afterwards, so it may be shared between goroutines and sinks.
type Event struct {
	level      Level
	loggerName string
	threadName string
	timestamp  time.Time
	message    Message
	throwable  error
}

// NewEvent creates an immutable event. A nil message renders as "".
func NewEvent(level Level, loggerName, threadName string, timestamp time.Time, message Message, throwable error) *Event {
	if message == nil {
		message = Text("")
	}
	return &Event{
		level:      level,
		loggerName: loggerName,
		threadName: threadName,
		timestamp:  timestamp,
		message:    message,
		throwable:  throwable,
	}
}

// Level returns the severity of the event
func (e *Event) Level() Level { return e.level }

// LoggerName returns the name of the logger that produced the event
func (e *Event) LoggerName() string { return e.loggerName }

// ThreadName returns the identity of the goroutine that made the log call
func (e *Event) ThreadName() string { return e.threadName }

// Time returns the call-site timestamp, including its zone offset
func (e *Event) Time() time.Time { return e.timestamp }

// Message returns the deferred message
func (e *Event) Message() Message { return e.message }

// Throwable returns the attached error, or nil
func (e *Event) Throwable() error { return e.throwable }

// Text renders the message.
func (e *Event) Text() string {
	return e.message.Render()
}

// ThrowableText returns the attached error's text, or "" when there is none.
func (e *Event) ThrowableText() string {
	if e.throwable == nil {
		return ""
	}
	return e.throwable.Error()
}
