package pipeline

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/philipp01105/batchlog/appender"
	"github.com/philipp01105/batchlog/core"
	"github.com/philipp01105/batchlog/dispatch"
	"github.com/philipp01105/batchlog/layout"
	"github.com/philipp01105/batchlog/logger"
	"github.com/philipp01105/batchlog/metrics"
)

// ErrShutdownTimeout is returned by Shutdown when queued log calls did not
// drain within ShutdownTimeout
var ErrShutdownTimeout = errors.New("pipeline shutdown timed out")

// Registration attaches an appender to the pipeline with a level threshold
type Registration struct {
	Appender appender.Appender
	// Threshold is the lowest level the appender receives (default: TRACE)
	Threshold core.Level
}

// Config holds the resolved pipeline configuration
type Config struct {
	// BatchSize is the buffer length that triggers an inline flush (default: 100)
	BatchSize int
	// WorkerPoolSize is the number of event-building workers (default: 10)
	WorkerPoolSize int
	// QueueSize caps each worker queue. 0 (the default) leaves the queues
	// unbounded so a slow appender never holds up a caller.
	QueueSize int
	// Template is the layout template (default: layout.DefaultTemplate)
	Template string
	// DateFormat formats %date (default: layout.DefaultDateFormat)
	DateFormat string
	// Appenders receive every batch, in order
	Appenders []Registration
	// FlushDelay is the wait before the first timer flush (default: 10ms)
	FlushDelay time.Duration
	// FlushInterval is the period of timer flushes (default: 25ms)
	FlushInterval time.Duration
	// ShutdownTimeout bounds the drain of queued calls (default: 5s)
	ShutdownTimeout time.Duration
	// OverflowPolicy applies once a bounded queue is full (default: Block for every level)
	OverflowPolicy map[core.Level]logger.OverflowPolicy
	// BlockTimeout bounds the Block policy; 0 waits for space
	BlockTimeout time.Duration
	// CoarseClock timestamps events from a cached clock with this
	// resolution instead of time.Now; 0 disables it
	CoarseClock time.Duration
	// Diagnostics receives the pipeline's own reports (default: stderr at WARN)
	Diagnostics *zap.Logger
	// Registerer exports metrics when set
	Registerer prometheus.Registerer
}

func applyDefaults(cfg *Config) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 10
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	if cfg.Template == "" {
		cfg.Template = layout.DefaultTemplate
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = layout.DefaultDateFormat
	}
	if cfg.FlushDelay <= 0 {
		cfg.FlushDelay = 10 * time.Millisecond
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 25 * time.Millisecond
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	if cfg.OverflowPolicy == nil {
		cfg.OverflowPolicy = logger.DefaultLevelPolicy()
	}
	if cfg.Diagnostics == nil {
		cfg.Diagnostics = NewDiagnostics(os.Stderr, zap.WarnLevel)
	}
}

// Pipeline owns every component of one logging setup: the worker pool, the
// dispatcher, the flush scheduler and the appenders. Create it with New and
// release it with Shutdown; there is no global instance.
type Pipeline struct {
	cfg        Config
	dispatcher *dispatch.Dispatcher
	scheduler  *dispatch.Scheduler
	pool       *logger.Pool
	loggers    *logger.Registry
	clock      *core.CoarseClock
	diag       *zap.Logger

	shutdownOnce sync.Once
	shutdownErr  error
}

// New wires and starts a pipeline
func New(cfg Config) (*Pipeline, error) {
	applyDefaults(&cfg)

	var m *metrics.Metrics
	if cfg.Registerer != nil {
		m = metrics.New(cfg.Registerer)
	}

	appenders := make([]appender.Appender, 0, len(cfg.Appenders))
	minLevel := core.FatalLevel
	for i, reg := range cfg.Appenders {
		if reg.Appender == nil {
			return nil, errors.Errorf("registration %d has no appender", i)
		}
		if !reg.Threshold.Valid() {
			return nil, errors.Errorf("appender %q: invalid threshold %d", reg.Appender.Name(), reg.Threshold)
		}
		reg.Appender.SetFilter(core.NewThresholdFilter(reg.Threshold))
		appenders = append(appenders, reg.Appender)
		if reg.Threshold < minLevel {
			minLevel = reg.Threshold
		}
	}
	if len(appenders) == 0 {
		minLevel = core.TraceLevel
	}

	d, err := dispatch.New(dispatch.Config{
		BatchSize:   cfg.BatchSize,
		Layout:      layout.Compile(cfg.Template, layout.WithDateFormat(cfg.DateFormat)),
		Appenders:   appenders,
		Diagnostics: cfg.Diagnostics,
		Metrics:     m,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create dispatcher")
	}

	p := &Pipeline{
		cfg:        cfg,
		dispatcher: d,
		diag:       cfg.Diagnostics,
	}

	p.pool = logger.NewPool(d, logger.PoolConfig{
		Workers:        cfg.WorkerPoolSize,
		QueueSize:      cfg.QueueSize,
		OverflowPolicy: cfg.OverflowPolicy,
		BlockTimeout:   cfg.BlockTimeout,
		Diagnostics:    cfg.Diagnostics,
		Metrics:        m,
	})

	opts := []logger.Option{logger.WithMinLevel(minLevel)}
	if cfg.CoarseClock > 0 {
		p.clock = core.NewCoarseClock(cfg.CoarseClock)
		p.clock.Start()
		opts = append(opts, logger.WithClock(p.clock.Now))
	}
	p.loggers = logger.NewRegistry(p.pool, opts...)

	p.scheduler = dispatch.NewScheduler(d, cfg.FlushDelay, cfg.FlushInterval)
	p.scheduler.Start()

	return p, nil
}

// Logger returns the logger for name, creating it on first use
func (p *Pipeline) Logger(name string) *logger.Logger {
	return p.loggers.Get(name)
}

// Loggers returns the logger registry
func (p *Pipeline) Loggers() *logger.Registry {
	return p.loggers
}

// Layout returns the compiled layout shared by the appenders
func (p *Pipeline) Layout() *layout.Layout {
	return p.dispatcher.Layout()
}

// Flush drains buffered events to the appenders now. Calls still queued in
// the worker pool are not waited for.
func (p *Pipeline) Flush() {
	p.dispatcher.Flush()
}

// Stats is a snapshot of every pipeline counter
type Stats struct {
	Dispatch  dispatch.Snapshot
	Pool      logger.Snapshot
	Appenders map[string]appender.Snapshot
}

// Stats returns a snapshot of the pipeline counters
func (p *Pipeline) Stats() Stats {
	s := Stats{
		Dispatch:  p.dispatcher.Stats(),
		Pool:      p.pool.Stats(),
		Appenders: make(map[string]appender.Snapshot),
	}
	for _, a := range p.dispatcher.Appenders() {
		if sp, ok := a.(appender.StatsProvider); ok {
			s.Appenders[a.Name()] = sp.Stats()
		}
	}
	return s
}

// Shutdown stops the flush timer, waits up to ShutdownTimeout for queued
// calls to become events, flushes the buffer one last time and closes the
// appenders. If the drain timed out, the calls still queued are discarded
// and the returned error wraps ErrShutdownTimeout. Events built after the
// final flush are rejected and counted as discarded. Waiting on the flush
// timer and on the final flush both end with ctx; if the final flush is
// abandoned, the appenders are left open.
//
// Shutdown is idempotent; later calls return the first call's result.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		p.shutdownErr = p.shutdown(ctx)
	})
	return p.shutdownErr
}

func (p *Pipeline) shutdown(ctx context.Context) error {
	var errs error

	// Stop waits for a timer flush that may be stuck in appender I/O
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		p.scheduler.Stop()
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		p.diag.Error("shutdown stopped waiting for the flush timer", zap.Error(ctx.Err()))
		errs = errors.Wrap(ctx.Err(), "stop flush timer")
	}

	drainCtx, cancel := context.WithTimeout(ctx, p.cfg.ShutdownTimeout)
	drainErr := p.pool.Close(drainCtx)
	cancel()

	if drainErr != nil {
		p.diag.Error("shutdown timed out draining log calls", zap.Error(drainErr))
		errs = multierr.Append(errs, errors.Wrap(ErrShutdownTimeout, drainErr.Error()))
	}

	flushed := make(chan struct{})
	go func() {
		defer close(flushed)
		p.dispatcher.Close()
	}()
	select {
	case <-flushed:
	case <-ctx.Done():
		p.diag.Error("shutdown abandoned the final flush", zap.Error(ctx.Err()))
		return multierr.Append(errs, errors.Wrap(ctx.Err(), "final flush"))
	}

	errs = multierr.Append(errs, p.closeAppenders())

	if p.clock != nil {
		p.clock.Stop()
	}
	return errs
}

// closeAppenders closes every appender concurrently and combines the errors
func (p *Pipeline) closeAppenders() error {
	appenders := p.dispatcher.Appenders()
	errs := make([]error, len(appenders))

	var g errgroup.Group
	for i, a := range appenders {
		i, a := i, a
		g.Go(func() error {
			errs[i] = errors.Wrapf(a.Close(), "close appender %q", a.Name())
			return nil
		})
	}
	_ = g.Wait()
	return multierr.Combine(errs...)
}
