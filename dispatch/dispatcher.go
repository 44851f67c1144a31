package dispatch

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/philipp01105/batchlog/appender"
	"github.com/philipp01105/batchlog/core"
	"github.com/philipp01105/batchlog/layout"
	"github.com/philipp01105/batchlog/metrics"
)

// ErrClosed is returned by Enqueue after Close
var ErrClosed = errors.New("dispatcher closed")

// Trigger names what caused a flush
type Trigger string

const (
	// TriggerSize is a flush caused by the buffer reaching BatchSize
	TriggerSize Trigger = "size"
	// TriggerTimer is a flush issued by the Scheduler
	TriggerTimer Trigger = "timer"
	// TriggerManual is a flush requested through Flush
	TriggerManual Trigger = "manual"
	// TriggerShutdown is the final flush of a pipeline shutdown
	TriggerShutdown Trigger = "shutdown"
)

// Config holds configuration for a Dispatcher
type Config struct {
	// BatchSize is the buffer length that triggers an inline flush
	BatchSize int
	// Layout formats events for every appender (default: layout.DefaultTemplate)
	Layout *layout.Layout
	// Appenders receive every flushed batch, in this order
	Appenders []appender.Appender
	// Diagnostics receives appender failures (default: no-op)
	Diagnostics *zap.Logger
	// Metrics records enqueue and flush counters (optional)
	Metrics *metrics.Metrics
}

// Dispatcher buffers events and hands them to the appenders in batches.
//
// A single mutex guards the buffer. Enqueue appends under it and, when the
// buffer reaches BatchSize, flushes before releasing it, so the producer that
// fills a batch pays for writing it. Appender I/O for a flush also runs
// under the mutex, which keeps successive batches in enqueue order at every
// appender.
type Dispatcher struct {
	mu        sync.Mutex
	buf       []*core.Event
	batchSize int
	layout    *layout.Layout
	appenders []appender.Appender
	diag      *zap.Logger
	metrics   *metrics.Metrics
	stats     *Stats
	closed    bool
}

// New creates a Dispatcher
func New(cfg Config) (*Dispatcher, error) {
	if cfg.BatchSize <= 0 {
		return nil, errors.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	if cfg.Layout == nil {
		cfg.Layout = layout.Compile(layout.DefaultTemplate)
	}
	if cfg.Diagnostics == nil {
		cfg.Diagnostics = zap.NewNop()
	}
	for i, a := range cfg.Appenders {
		if a == nil {
			return nil, errors.Errorf("appender %d is nil", i)
		}
	}

	return &Dispatcher{
		buf:       make([]*core.Event, 0, cfg.BatchSize),
		batchSize: cfg.BatchSize,
		layout:    cfg.Layout,
		appenders: append([]appender.Appender(nil), cfg.Appenders...),
		diag:      cfg.Diagnostics,
		metrics:   cfg.Metrics,
		stats:     &Stats{},
	}, nil
}

// Enqueue adds e to the buffer, flushing inline once BatchSize is reached.
// After Close it returns ErrClosed and e is counted as rejected.
func (d *Dispatcher) Enqueue(e *core.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		atomic.AddUint64(&d.stats.Rejected, 1)
		return ErrClosed
	}

	d.buf = append(d.buf, e)
	atomic.AddUint64(&d.stats.Enqueued, 1)
	d.metrics.EventEnqueued()

	if len(d.buf) >= d.batchSize {
		d.flushLocked(TriggerSize)
	}
	return nil
}

// Flush drains the buffer to every appender. It is a no-op when the buffer
// is empty.
func (d *Dispatcher) Flush() {
	d.FlushReason(TriggerManual)
}

// FlushReason is Flush with the trigger recorded in Stats and metrics
func (d *Dispatcher) FlushReason(trigger Trigger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushLocked(trigger)
}

// Close flushes the buffer with TriggerShutdown and rejects later enqueues.
// It does not close the appenders. Calling it again is a no-op.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.flushLocked(TriggerShutdown)
}

// Pending returns the number of buffered events
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buf)
}

// Layout returns the layout used for every appender
func (d *Dispatcher) Layout() *layout.Layout {
	return d.layout
}

// Appenders returns the registered appenders
func (d *Dispatcher) Appenders() []appender.Appender {
	return append([]appender.Appender(nil), d.appenders...)
}

// Stats returns a snapshot of the dispatcher counters
func (d *Dispatcher) Stats() Snapshot {
	return d.stats.GetSnapshot()
}

func (d *Dispatcher) flushLocked(trigger Trigger) {
	if len(d.buf) == 0 {
		return
	}

	batch := d.buf
	d.buf = make([]*core.Event, 0, d.batchSize)

	d.stats.recordFlush(trigger, len(batch))
	d.metrics.Flushed(string(trigger), len(batch))

	for _, a := range d.appenders {
		d.deliver(a, batch)
	}
}

// deliver hands batch to a, isolating errors and panics
func (d *Dispatcher) deliver(a appender.Appender, batch []*core.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.failed(a, len(batch), errors.Errorf("appender panicked: %v", r))
		}
	}()
	if err := a.AppendBatch(batch, d.layout); err != nil {
		d.failed(a, len(batch), err)
	}
}

func (d *Dispatcher) failed(a appender.Appender, size int, err error) {
	atomic.AddUint64(&d.stats.AppenderFailures, 1)
	d.metrics.AppenderFailed(a.Name())
	d.diag.Error("appender failed",
		zap.String("appender", a.Name()),
		zap.Int("batch", size),
		zap.Error(err),
	)
}
