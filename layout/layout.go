package layout

import (
	"bytes"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/philipp01105/batchlog/core"
)

// Placeholder identifies one of the recognized template tokens.
type Placeholder uint8

const (
	Throwable Placeholder = iota
	Msg
	Date
	Level
	Thread
	Logger
)

// tokens is listed in discovery order: each token is searched for
// independently, in this order, regardless of where it appears.
var tokens = [...]string{
	Throwable: "%throwable",
	Msg:       "%msg",
	Date:      "%date",
	Level:     "%level",
	Thread:    "%thread",
	Logger:    "%logger",
}

// String returns the template token for p
func (p Placeholder) String() string {
	if int(p) < len(tokens) {
		return tokens[p]
	}
	return "%unknown"
}

// DefaultTemplate is used when no template is configured.
const DefaultTemplate = "[%level] %date - %logger - %thread : %msg %throwable"

// DefaultDateFormat renders %date as RFC3339 with millisecond precision.
const DefaultDateFormat = "2006-01-02T15:04:05.000Z07:00"

// extractor pulls one value out of an event and appends it to buf
type extractor func(l *Layout, e *core.Event, buf *bytes.Buffer)

var extractors = [...]extractor{
	Throwable: func(_ *Layout, e *core.Event, buf *bytes.Buffer) { buf.WriteString(e.ThrowableText()) },
	Msg:       func(_ *Layout, e *core.Event, buf *bytes.Buffer) { buf.WriteString(e.Text()) },
	Date: func(l *Layout, e *core.Event, buf *bytes.Buffer) {
		buf.Write(e.Time().AppendFormat(buf.AvailableBuffer(), l.dateFormat))
	},
	Level:  func(_ *Layout, e *core.Event, buf *bytes.Buffer) { buf.WriteString(e.Level().String()) },
	Thread: func(_ *Layout, e *core.Event, buf *bytes.Buffer) { buf.WriteString(e.ThreadName()) },
	Logger: func(_ *Layout, e *core.Event, buf *bytes.Buffer) { buf.WriteString(e.LoggerName()) },
}

// step is a literal segment followed by one extracted value
type step struct {
	literal     string
	placeholder Placeholder
	extract     extractor
}

// binding records where a placeholder was found in the source template
type binding struct {
	offset      int
	placeholder Placeholder
}

// Layout is a compiled template. It is immutable after Compile and safe for
// concurrent use by any number of goroutines.
type Layout struct {
	template   string
	dateFormat string
	steps      []step
	tail       string
}

// Option configures Compile
type Option func(*Layout)

// WithDateFormat sets the time layout used for %date (see time.Layout).
func WithDateFormat(format string) Option {
	return func(l *Layout) {
		if format != "" {
			l.dateFormat = format
		}
	}
}

// Compile turns a template into a Layout. Each recognized placeholder binds
// at its first occurrence; anything else, including unknown %tokens and
// repeated placeholders, is kept as literal text. Compile never fails.
func Compile(template string, opts ...Option) *Layout {
	l := &Layout{
		template:   template,
		dateFormat: DefaultDateFormat,
	}
	for _, opt := range opts {
		opt(l)
	}

	bindings := discover(template)

	// Discovery order is fixed by the tokens table, so re-derive the
	// template order from the original offsets before binding.
	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].offset < bindings[j].offset
	})

	l.steps = make([]step, 0, len(bindings))
	pos := 0
	for _, b := range bindings {
		l.steps = append(l.steps, step{
			literal:     template[pos:b.offset],
			placeholder: b.placeholder,
			extract:     extractors[b.placeholder],
		})
		pos = b.offset + len(tokens[b.placeholder])
	}
	l.tail = template[pos:]

	return l
}

// discover searches for each placeholder independently and records the
// offset of its first occurrence in the original template. Every token holds
// a single '%', so two bound tokens can never overlap.
func discover(template string) []binding {
	var bindings []binding
	for p, tok := range tokens {
		if off := strings.Index(template, tok); off >= 0 {
			bindings = append(bindings, binding{offset: off, placeholder: Placeholder(p)})
		}
	}
	return bindings
}

// Format renders e with the compiled template.
func (l *Layout) Format(e *core.Event) string {
	if len(l.steps) == 0 {
		return l.tail
	}
	buf := getBuffer()
	l.FormatTo(e, buf)
	s := buf.String()
	putBuffer(buf)
	return s
}

// FormatTo appends the rendered event to buf. Sinks that batch writes use
// it to avoid one string allocation per event.
func (l *Layout) FormatTo(e *core.Event, buf *bytes.Buffer) {
	for i := range l.steps {
		s := &l.steps[i]
		buf.WriteString(s.literal)
		s.extract(l, e, buf)
	}
	buf.WriteString(l.tail)
}

// Template returns the source template
func (l *Layout) Template() string {
	return l.template
}

// DateFormat returns the time layout used for %date
func (l *Layout) DateFormat() string {
	return l.dateFormat
}

// Placeholders returns the bound placeholders in template order.
func (l *Layout) Placeholders() []Placeholder {
	out := make([]Placeholder, len(l.steps))
	for i, s := range l.steps {
		out[i] = s.placeholder
	}
	return out
}

// FormatTime renders t with the layout's date format. Sinks that emit a
// structured timestamp next to the formatted line use it for consistency.
func (l *Layout) FormatTime(t time.Time) string {
	return t.Format(l.dateFormat)
}

// bufferPool is a pool of bytes.Buffer to reduce allocations
var bufferPool = &sync.Pool{
	New: func() any {
		b := new(bytes.Buffer)
		b.Grow(256)
		return b
	},
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 64*1024 { // Don't keep very large buffers
		return
	}
	bufferPool.Put(buf)
}
