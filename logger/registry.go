package logger

import (
	"sort"
	"sync"
	"time"

	"github.com/philipp01105/batchlog/core"
)

// Option configures a Registry
type Option func(*Registry)

// WithMinLevel makes loggers skip calls below level before any work is done.
// The pipeline sets it to the lowest appender threshold.
func WithMinLevel(level core.Level) Option {
	return func(r *Registry) {
		r.minLevel = level
	}
}

// WithClock replaces time.Now as the timestamp source, e.g. with
// (*core.CoarseClock).Now
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.clock = now
		}
	}
}

// Registry hands out one Logger per name
type Registry struct {
	pool     *Pool
	minLevel core.Level
	clock    func() time.Time

	mu      sync.RWMutex
	loggers map[string]*Logger
}

// NewRegistry creates a Registry whose loggers submit to pool
func NewRegistry(pool *Pool, opts ...Option) *Registry {
	r := &Registry{
		pool:     pool,
		minLevel: core.TraceLevel,
		clock:    time.Now,
		loggers:  make(map[string]*Logger),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the Logger for name, creating it on first use. Repeated calls
// with the same name return the same instance.
func (r *Registry) Get(name string) *Logger {
	r.mu.RLock()
	l, ok := r.loggers[name]
	r.mu.RUnlock()
	if ok {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loggers[name]; ok {
		return l
	}
	l = &Logger{
		name:     name,
		shard:    r.pool.shard(name),
		pool:     r.pool,
		minLevel: r.minLevel,
		clock:    r.clock,
	}
	r.loggers[name] = l
	return l
}

// Names returns the names of all loggers created so far, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.loggers))
	for name := range r.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
