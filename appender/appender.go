package appender

import (
	"sync"

	"go.uber.org/multierr"

	"github.com/philipp01105/batchlog/core"
	"github.com/philipp01105/batchlog/layout"
)

// Appender is an output destination for formatted events.
//
// Append and AppendBatch apply the appender's own filter to every event. A
// failure to write one event must not stop the remaining events of a batch
// from being attempted; the returned error describes every failure.
type Appender interface {
	// Name returns the registered name of the appender
	Name() string

	// Append writes a single event
	Append(e *core.Event, l *layout.Layout) error

	// AppendBatch writes the events in order
	AppendBatch(events []*core.Event, l *layout.Layout) error

	// SetFilter replaces the filter. A nil filter accepts every event.
	SetFilter(f core.Filter)

	// Close flushes buffered output and releases resources
	Close() error
}

// StatsProvider is implemented by appenders that track delivery counters.
type StatsProvider interface {
	Stats() Snapshot
}

// Base carries the name, filter and counters shared by the built-in
// appenders. Embed it to satisfy Name and SetFilter.
type Base struct {
	name   string
	mu     sync.RWMutex
	filter core.Filter
	stats  *Stats
}

// NewBase creates a Base that accepts every event until SetFilter is called.
func NewBase(name string) *Base {
	return &Base{
		name:   name,
		filter: core.AcceptAll,
		stats:  NewStats(),
	}
}

// Name returns the appender name
func (b *Base) Name() string {
	return b.name
}

// SetFilter replaces the filter
func (b *Base) SetFilter(f core.Filter) {
	if f == nil {
		f = core.AcceptAll
	}
	b.mu.Lock()
	b.filter = f
	b.mu.Unlock()
}

// Filter returns the current filter
func (b *Base) Filter() core.Filter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter
}

// Accept applies the filter to e and counts rejected events.
func (b *Base) Accept(e *core.Event) bool {
	if b.Filter().Accept(e) {
		return true
	}
	b.stats.IncrementFiltered()
	return false
}

// Record counts the outcome of writing n events.
func (b *Base) Record(n int, err error) {
	if err != nil {
		b.stats.AddFailed(uint64(n))
		return
	}
	b.stats.AddProcessed(uint64(n))
}

// Stats returns a snapshot of the appender's counters
func (b *Base) Stats() Snapshot {
	return b.stats.GetSnapshot()
}

// AppendEach implements AppendBatch on top of Append. Every event is
// attempted; the errors of the failed ones are combined.
func AppendEach(a Appender, events []*core.Event, l *layout.Layout) error {
	var errs error
	for _, e := range events {
		errs = multierr.Append(errs, a.Append(e, l))
	}
	return errs
}
