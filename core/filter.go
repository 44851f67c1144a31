package core

// Filter decides whether an event reaches a sink
type Filter interface {
	Accept(e *Event) bool
}

// ThresholdFilter accepts events whose level is at or above a threshold.
// It is stateless and may be shared by any number of sinks.
type ThresholdFilter struct {
	threshold Level
}

// NewThresholdFilter creates a filter with the given minimum level
func NewThresholdFilter(threshold Level) ThresholdFilter {
	return ThresholdFilter{threshold: threshold}
}

// Accept reports whether e ranks at or above the threshold
func (f ThresholdFilter) Accept(e *Event) bool {
	return e.level >= f.threshold
}

// Threshold returns the minimum accepted level
func (f ThresholdFilter) Threshold() Level {
	return f.threshold
}

// AcceptAll is the filter used by sinks that were never given one.
var AcceptAll Filter = NewThresholdFilter(TraceLevel)
