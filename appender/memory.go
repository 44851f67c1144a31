package appender

import (
	"sync"

	"github.com/philipp01105/batchlog/core"
	"github.com/philipp01105/batchlog/layout"
)

// KindMemory is the registry tag of the memory appender
const KindMemory = "memory"

// Memory keeps accepted events and their formatted lines in memory. It is
// meant for tests and for inspecting a pipeline at runtime.
type Memory struct {
	*Base
	mu      sync.Mutex
	events  []*core.Event
	lines   []string
	batches []int
	closed  bool
}

// NewMemory creates a memory appender
func NewMemory(name string) *Memory {
	return &Memory{Base: NewBase(name)}
}

func newMemoryFromParams(p Params) (Appender, error) {
	return NewMemory(p.Name), nil
}

// Append stores a single event
func (m *Memory) Append(e *core.Event, l *layout.Layout) error {
	return m.AppendBatch([]*core.Event{e}, l)
}

// AppendBatch stores the accepted events and records the call
func (m *Memory) AppendBatch(events []*core.Event, l *layout.Layout) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batches = append(m.batches, len(events))
	n := 0
	for _, e := range events {
		if !m.Accept(e) {
			continue
		}
		m.events = append(m.events, e)
		m.lines = append(m.lines, l.Format(e))
		n++
	}
	m.Record(n, nil)
	return nil
}

// Events returns a copy of the stored events
func (m *Memory) Events() []*core.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*core.Event(nil), m.events...)
}

// Lines returns a copy of the stored formatted lines
func (m *Memory) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

// Batches returns the size of every AppendBatch call, in call order
func (m *Memory) Batches() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.batches...)
}

// Closed reports whether Close has been called
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Reset discards everything stored so far
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
	m.lines = nil
	m.batches = nil
}

// Close marks the appender closed
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
