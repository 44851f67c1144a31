package appender

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/philipp01105/batchlog/core"
	"github.com/philipp01105/batchlog/layout"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is the wire form of an event posted by the HTTP appender.
type Record struct {
	Throwable        string `json:"throwable"`
	ThreadName       string `json:"threadName"`
	Level            string `json:"level"`
	FormattedMessage string `json:"formattedMessage"`
	Timestamp        string `json:"timestamp"`
	LoggerName       string `json:"loggerName"`
	FormattedEvent   string `json:"formattedEvent"`
}

// NewRecord builds the wire record of e, formatted with l
func NewRecord(e *core.Event, l *layout.Layout) Record {
	return Record{
		Throwable:        e.ThrowableText(),
		ThreadName:       e.ThreadName(),
		Level:            e.Level().String(),
		FormattedMessage: e.Text(),
		Timestamp:        e.Time().Format(time.RFC3339Nano),
		LoggerName:       e.LoggerName(),
		FormattedEvent:   l.Format(e),
	}
}
