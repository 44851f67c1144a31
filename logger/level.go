package logger

import "github.com/philipp01105/batchlog/core"

// Level aliases core.Level so callers of this package rarely need to import core.
// Use core.ParseLevel to read a level from text.
type Level = core.Level

// Severities, lowest first.
const (
	TraceLevel = core.TraceLevel
	DebugLevel = core.DebugLevel
	InfoLevel  = core.InfoLevel
	WarnLevel  = core.WarnLevel
	ErrorLevel = core.ErrorLevel
	FatalLevel = core.FatalLevel
)
