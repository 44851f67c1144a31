package dispatch

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/philipp01105/batchlog/appender"
	"github.com/philipp01105/batchlog/core"
	"github.com/philipp01105/batchlog/layout"
	"github.com/philipp01105/batchlog/metrics"
)

func newEvent(level core.Level, msg string) *core.Event {
	return core.NewEvent(level, "orders", "t1", time.Now(), core.Text(msg), nil)
}

func newDispatcher(t *testing.T, batchSize int, appenders ...appender.Appender) *Dispatcher {
	t.Helper()
	d, err := New(Config{
		BatchSize: batchSize,
		Layout:    layout.Compile("%msg"),
		Appenders: appenders,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d
}

func TestDispatcher_SizeFlushCount(t *testing.T) {
	tests := []struct {
		n, batch int
	}{
		{0, 3},
		{2, 3},
		{3, 3},
		{10, 3},
		{100, 1},
		{99, 10},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("N=%d/B=%d", tt.n, tt.batch), func(t *testing.T) {
			mem := appender.NewMemory("mem")
			d := newDispatcher(t, tt.batch, mem)

			for i := 0; i < tt.n; i++ {
				d.Enqueue(newEvent(core.InfoLevel, fmt.Sprint(i)))
			}

			if got, want := d.Stats().SizeFlushes, uint64(tt.n/tt.batch); got != want {
				t.Errorf("SizeFlushes = %d, want %d", got, want)
			}
			if got, want := d.Pending(), tt.n%tt.batch; got != want {
				t.Errorf("Pending() = %d, want %d", got, want)
			}
			for _, size := range mem.Batches() {
				if size != tt.batch {
					t.Errorf("size flush delivered %d events, want %d", size, tt.batch)
				}
			}
		})
	}
}

func TestDispatcher_FlushEmptyIsNoop(t *testing.T) {
	mem := appender.NewMemory("mem")
	d := newDispatcher(t, 10, mem)

	d.Flush()
	d.FlushReason(TriggerTimer)

	if n := len(mem.Batches()); n != 0 {
		t.Errorf("empty flush produced %d appender calls", n)
	}
	if s := d.Stats(); s.ManualFlushes != 0 || s.TimerFlushes != 0 {
		t.Errorf("empty flush was counted: %+v", s)
	}
}

func TestDispatcher_PreservesOrder(t *testing.T) {
	first := appender.NewMemory("first")
	second := appender.NewMemory("second")
	d := newDispatcher(t, 4, first, second)

	var want []string
	for i := 0; i < 10; i++ {
		msg := fmt.Sprintf("e%d", i)
		want = append(want, msg)
		d.Enqueue(newEvent(core.InfoLevel, msg))
	}
	d.Flush()

	for _, mem := range []*appender.Memory{first, second} {
		if got := mem.Lines(); !reflect.DeepEqual(got, want) {
			t.Errorf("%s saw %v, want %v", mem.Name(), got, want)
		}
	}
	if got := first.Batches(); !reflect.DeepEqual(got, []int{4, 4, 2}) {
		t.Errorf("Batches() = %v, want [4 4 2]", got)
	}
}

func TestDispatcher_EachEventFlushedOnce(t *testing.T) {
	mem := appender.NewMemory("mem")
	d := newDispatcher(t, 7, mem)

	const producers, perProducer = 8, 250
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				d.Enqueue(newEvent(core.InfoLevel, fmt.Sprintf("%d-%d", p, i)))
				if i%50 == 0 {
					d.Flush()
				}
			}
		}(p)
	}
	wg.Wait()
	d.Flush()

	seen := make(map[string]int)
	for _, line := range mem.Lines() {
		seen[line]++
	}
	if len(seen) != producers*perProducer {
		t.Errorf("saw %d distinct events, want %d", len(seen), producers*perProducer)
	}
	for line, n := range seen {
		if n != 1 {
			t.Errorf("event %s delivered %d times", line, n)
		}
	}
}

func TestDispatcher_PerAppenderFilter(t *testing.T) {
	all := appender.NewMemory("all")
	warn := appender.NewMemory("warn")
	warn.SetFilter(core.NewThresholdFilter(core.WarnLevel))
	d := newDispatcher(t, 3, all, warn)

	d.Enqueue(newEvent(core.DebugLevel, "d"))
	d.Enqueue(newEvent(core.WarnLevel, "w"))
	d.Enqueue(newEvent(core.ErrorLevel, "e"))

	if got := len(all.Events()); got != 3 {
		t.Errorf("unfiltered appender got %d events, want 3", got)
	}
	if got := len(warn.Events()); got != 2 {
		t.Errorf("WARN appender got %d events, want 2", got)
	}
}

type failingAppender struct {
	*appender.Base
	panics bool
	calls  int
}

func (f *failingAppender) Append(e *core.Event, l *layout.Layout) error {
	return f.AppendBatch([]*core.Event{e}, l)
}

func (f *failingAppender) AppendBatch([]*core.Event, *layout.Layout) error {
	f.calls++
	if f.panics {
		panic("sink exploded")
	}
	return errors.New("connection refused")
}

func (f *failingAppender) Close() error { return nil }

func TestDispatcher_IsolatesAppenderFailures(t *testing.T) {
	obs, logs := observer.New(zap.ErrorLevel)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	broken := &failingAppender{Base: appender.NewBase("broken")}
	panicky := &failingAppender{Base: appender.NewBase("panicky"), panics: true}
	healthy := appender.NewMemory("healthy")

	d, err := New(Config{
		BatchSize:   2,
		Layout:      layout.Compile("%msg"),
		Appenders:   []appender.Appender{broken, panicky, healthy},
		Diagnostics: zap.New(obs),
		Metrics:     m,
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		d.Enqueue(newEvent(core.InfoLevel, fmt.Sprint(i)))
	}

	if got := len(healthy.Events()); got != 4 {
		t.Errorf("healthy appender got %d events, want 4", got)
	}
	if broken.calls != 2 || panicky.calls != 2 {
		t.Errorf("calls: broken=%d panicky=%d, want 2 each", broken.calls, panicky.calls)
	}
	if got := d.Stats().AppenderFailures; got != 4 {
		t.Errorf("AppenderFailures = %d, want 4", got)
	}
	if got := logs.FilterField(zap.String("appender", "panicky")).Len(); got != 2 {
		t.Errorf("diagnostics for panicky = %d, want 2", got)
	}

	expected := `
# HELP batchlog_appender_failures_total Batches an appender failed to write, including panics.
# TYPE batchlog_appender_failures_total counter
batchlog_appender_failures_total{appender="broken"} 2
batchlog_appender_failures_total{appender="panicky"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "batchlog_appender_failures_total"); err != nil {
		t.Error(err)
	}
}

func TestDispatcher_TriggerStats(t *testing.T) {
	d := newDispatcher(t, 2, appender.NewMemory("mem"))

	d.Enqueue(newEvent(core.InfoLevel, "a"))
	d.Enqueue(newEvent(core.InfoLevel, "b"))
	d.Enqueue(newEvent(core.InfoLevel, "c"))
	d.FlushReason(TriggerTimer)
	d.Enqueue(newEvent(core.InfoLevel, "d"))
	d.FlushReason(TriggerShutdown)
	d.Enqueue(newEvent(core.InfoLevel, "e"))
	d.Flush()

	want := Snapshot{
		Enqueued:        5,
		SizeFlushes:     1,
		TimerFlushes:    1,
		ManualFlushes:   1,
		ShutdownFlushes: 1,
		Flushed:         5,
	}
	if got := d.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestDispatcher_CloseFlushesAndRejectsLateEvents(t *testing.T) {
	mem := appender.NewMemory("mem")
	d := newDispatcher(t, 10, mem)

	if err := d.Enqueue(newEvent(core.InfoLevel, "a")); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	d.Close()
	if err := d.Enqueue(newEvent(core.InfoLevel, "late")); !errors.Is(err, ErrClosed) {
		t.Fatalf("Enqueue() after Close error = %v, want ErrClosed", err)
	}
	d.Close()

	if got := mem.Lines(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("delivered %q, want [a]", got)
	}
	if d.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", d.Pending())
	}
	s := d.Stats()
	if s.ShutdownFlushes != 1 || s.Rejected != 1 || s.Enqueued != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{BatchSize: 0}); err == nil {
		t.Error("expected error for zero batch size")
	}
	if _, err := New(Config{BatchSize: 1, Appenders: []appender.Appender{nil}}); err == nil {
		t.Error("expected error for nil appender")
	}
	d, err := New(Config{BatchSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	if d.Layout().Template() != layout.DefaultTemplate {
		t.Errorf("default layout = %q", d.Layout().Template())
	}
}

func BenchmarkDispatcher_Enqueue(b *testing.B) {
	d, _ := New(Config{
		BatchSize: 100,
		Layout:    layout.Compile("%msg"),
		Appenders: []appender.Appender{nopAppender{appender.NewBase("nop")}},
	})
	e := newEvent(core.InfoLevel, "bench")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Enqueue(e)
	}
}

type nopAppender struct{ *appender.Base }

func (nopAppender) Append(*core.Event, *layout.Layout) error        { return nil }
func (nopAppender) AppendBatch([]*core.Event, *layout.Layout) error { return nil }
func (nopAppender) Close() error                                    { return nil }
