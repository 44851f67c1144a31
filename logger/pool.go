package logger

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/philipp01105/batchlog/core"
	"github.com/philipp01105/batchlog/metrics"
)

var (
	// ErrPoolClosed is reported for calls made after Close
	ErrPoolClosed = errors.New("worker pool closed")
	// ErrDrainTimeout is returned by Close when queued calls did not finish in time
	ErrDrainTimeout = errors.New("worker pool drain timed out")
)

// Enqueuer receives the events built by the pool's workers. An error means
// the event was not accepted; the pool counts it as discarded.
type Enqueuer interface {
	Enqueue(e *core.Event) error
}

// PoolConfig holds configuration for a Pool
type PoolConfig struct {
	// Workers is the number of worker goroutines (default: 10)
	Workers int
	// QueueSize caps each worker's queue. 0 leaves it unbounded, so calls
	// never wait and never drop.
	QueueSize int
	// OverflowPolicy defines per-level behavior once a bounded queue is full
	// (default: DefaultLevelPolicy)
	OverflowPolicy map[core.Level]OverflowPolicy
	// BlockTimeout bounds the wait of the Block policy; 0 waits until space
	// is available or the pool closes
	BlockTimeout time.Duration
	// Diagnostics receives dropped-call and panic reports (default: no-op)
	Diagnostics *zap.Logger
	// Metrics counts dropped calls (optional)
	Metrics *metrics.Metrics
}

func applyPoolDefaults(cfg *PoolConfig) {
	if cfg.Workers <= 0 {
		cfg.Workers = 10
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	if cfg.OverflowPolicy == nil {
		cfg.OverflowPolicy = DefaultLevelPolicy()
	}
	if cfg.BlockTimeout < 0 {
		cfg.BlockTimeout = 0
	}
	if cfg.Diagnostics == nil {
		cfg.Diagnostics = zap.NewNop()
	}
}

// task is one log call captured at the call site
type task struct {
	logger    string
	level     core.Level
	timestamp time.Time
	thread    string
	message   core.Message
	throwable error
}

// Pool builds events off the caller's goroutine. Each worker owns a FIFO
// queue; a logger is pinned to one worker by the hash of its name, so the
// calls of one logger reach the Enqueuer in call order.
type Pool struct {
	sink         Enqueuer
	queues       []*queue
	policy       map[core.Level]OverflowPolicy
	blockTimeout time.Duration
	diag         *zap.Logger
	metrics      *metrics.Metrics
	stats        *Stats

	closing   chan struct{}
	closeOnce sync.Once
	abandoned int32
	wg        sync.WaitGroup
	drained   chan struct{}
}

// NewPool starts the workers
func NewPool(sink Enqueuer, cfg PoolConfig) *Pool {
	applyPoolDefaults(&cfg)

	p := &Pool{
		sink:         sink,
		queues:       make([]*queue, cfg.Workers),
		policy:       cfg.OverflowPolicy,
		blockTimeout: cfg.BlockTimeout,
		diag:         cfg.Diagnostics,
		metrics:      cfg.Metrics,
		stats:        NewStats(),
		closing:      make(chan struct{}),
		drained:      make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = newQueue(cfg.QueueSize)
		p.wg.Add(1)
		go p.worker(p.queues[i])
	}
	return p
}

// Workers returns the number of workers
func (p *Pool) Workers() int {
	return len(p.queues)
}

// shard returns the worker index for a logger name
func (p *Pool) shard(name string) int {
	return int(xxhash.Sum64String(name) % uint64(len(p.queues)))
}

// submit queues t on the given worker. A full bounded queue applies the
// overflow policy for t's level. It never runs t on the caller's goroutine.
func (p *Pool) submit(shard int, t task) error {
	q := p.queues[shard]
	err := q.push(t)
	if err == nil {
		p.stats.IncrementSubmitted()
		return nil
	}
	if err == ErrPoolClosed {
		p.drop(t, err)
		return err
	}

	switch p.policy[t.level] {
	case Block:
		return p.block(q, t)

	case DropOldest:
		if old, ok := q.evictOldest(); ok {
			p.drop(old, errQueueFull)
		}
		if err := q.push(t); err != nil {
			p.drop(t, err)
			return err
		}
		p.stats.IncrementSubmitted()
		return nil

	default:
		p.drop(t, errQueueFull)
		return errQueueFull
	}
}

var (
	errQueueFull    = errors.New("worker queue full")
	errBlockTimeout = errors.New("timed out waiting for queue space")
)

func (p *Pool) block(q *queue, t task) error {
	p.stats.IncrementBlocked()

	var timeout <-chan time.Time
	if p.blockTimeout > 0 {
		timer := time.NewTimer(p.blockTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		select {
		case <-q.space:
		case <-timeout:
			p.drop(t, errBlockTimeout)
			return errBlockTimeout
		case <-p.closing:
			p.drop(t, ErrPoolClosed)
			return ErrPoolClosed
		}

		switch err := q.push(t); err {
		case nil:
			p.stats.IncrementSubmitted()
			return nil
		case errQueueFull:
			// another caller took the slot
		default:
			p.drop(t, err)
			return err
		}
	}
}

func (p *Pool) drop(t task, reason error) {
	p.stats.IncrementDropped(t.level)
	p.metrics.SubmissionDropped(t.level)
	p.diag.Warn("log call dropped",
		zap.String("logger", t.logger),
		zap.Stringer("level", t.level),
		zap.String("reason", reason.Error()),
	)
}

func (p *Pool) worker(q *queue) {
	defer p.wg.Done()
	for {
		t, ok := q.pop()
		if !ok {
			return
		}
		if atomic.LoadInt32(&p.abandoned) == 1 {
			p.stats.IncrementDiscarded()
			continue
		}
		p.run(t)
	}
}

func (p *Pool) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			p.diag.Error("recovered panic while dispatching event",
				zap.String("logger", t.logger),
				zap.Any("panic", r),
			)
		}
	}()
	e := core.NewEvent(t.level, t.logger, t.thread, t.timestamp, t.message, t.throwable)
	if err := p.sink.Enqueue(e); err != nil {
		p.stats.IncrementDiscarded()
		p.diag.Warn("built event was not accepted",
			zap.String("logger", t.logger),
			zap.Stringer("level", t.level),
			zap.Error(err),
		)
		return
	}
	p.stats.IncrementCompleted()
}

// Stats returns a snapshot of the pool counters
func (p *Pool) Stats() Snapshot {
	return p.stats.GetSnapshot()
}

// Close stops accepting calls and waits until the queued ones have been
// handed to the Enqueuer or ctx is done. On timeout the calls still queued
// are discarded and an error wrapping ErrDrainTimeout is returned. Close may
// be called more than once.
func (p *Pool) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		close(p.closing)
		for _, q := range p.queues {
			q.close()
		}

		go func() {
			p.wg.Wait()
			close(p.drained)
		}()
	})

	select {
	case <-p.drained:
		return nil
	case <-ctx.Done():
		atomic.StoreInt32(&p.abandoned, 1)
		pending := 0
		for _, q := range p.queues {
			pending += q.len()
		}
		return errors.Wrapf(ErrDrainTimeout, "%d calls still queued", pending)
	}
}
