package appender

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"github.com/philipp01105/batchlog/core"
	"github.com/philipp01105/batchlog/layout"
)

// KindConsole is the registry tag of the console appender
const KindConsole = "console"

// ColorMode controls level coloring on the console
type ColorMode string

const (
	// ColorAuto colors output only when the writer is a terminal
	ColorAuto ColorMode = "auto"
	// ColorAlways colors output unconditionally
	ColorAlways ColorMode = "always"
	// ColorNever disables coloring
	ColorNever ColorMode = "never"
)

// ConsoleConfig holds configuration for the console appender
type ConsoleConfig struct {
	// Stream selects "stdout" or "stderr" when Writer is nil (default: stdout)
	Stream string `yaml:"stream"`
	// Color selects the coloring mode (default: auto)
	Color ColorMode `yaml:"color"`
	// Writer overrides Stream
	Writer io.Writer `yaml:"-"`
}

// Console writes one formatted line per event to a stream
type Console struct {
	*Base
	mu       sync.Mutex
	writer   io.Writer
	colorize bool
	colors   map[core.Level]*color.Color
}

// NewConsole creates a console appender
func NewConsole(name string, cfg ConsoleConfig) (*Console, error) {
	if cfg.Writer == nil {
		switch strings.ToLower(cfg.Stream) {
		case "", "stdout":
			cfg.Writer = os.Stdout
		case "stderr":
			cfg.Writer = os.Stderr
		default:
			return nil, errors.Errorf("unknown console stream %q", cfg.Stream)
		}
	}
	if cfg.Color == "" {
		cfg.Color = ColorAuto
	}

	c := &Console{
		Base:   NewBase(name),
		writer: cfg.Writer,
	}
	switch cfg.Color {
	case ColorAlways:
		c.colorize = true
	case ColorNever:
	case ColorAuto:
		c.colorize = isTerminal(cfg.Writer)
	default:
		return nil, errors.Errorf("unknown color mode %q", cfg.Color)
	}
	if c.colorize {
		c.colors = levelColors()
	}
	return c, nil
}

func newConsoleFromParams(p Params) (Appender, error) {
	var cfg ConsoleConfig
	if err := p.decode(&cfg); err != nil {
		return nil, err
	}
	return NewConsole(p.Name, cfg)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func levelColors() map[core.Level]*color.Color {
	colors := map[core.Level]*color.Color{
		core.TraceLevel: color.New(color.FgHiBlack),
		core.DebugLevel: color.New(color.FgCyan),
		core.InfoLevel:  color.New(color.FgGreen),
		core.WarnLevel:  color.New(color.FgYellow),
		core.ErrorLevel: color.New(color.FgRed),
		core.FatalLevel: color.New(color.FgHiRed, color.Bold),
	}
	// the global NoColor switch is decided from stdout; the mode here wins
	for _, c := range colors {
		c.EnableColor()
	}
	return colors
}

// Append writes a single event
func (c *Console) Append(e *core.Event, l *layout.Layout) error {
	return c.AppendBatch([]*core.Event{e}, l)
}

// AppendBatch writes all accepted events with a single Write call
func (c *Console) AppendBatch(events []*core.Event, l *layout.Layout) error {
	buf := getBuffer()
	defer putBuffer(buf)

	n := 0
	for _, e := range events {
		if !c.Accept(e) {
			continue
		}
		c.writeLine(buf, e, l)
		n++
	}
	if n == 0 {
		return nil
	}

	c.mu.Lock()
	_, err := c.writer.Write(buf.Bytes())
	c.mu.Unlock()

	c.Record(n, err)
	return errors.Wrapf(err, "console appender %q", c.Name())
}

func (c *Console) writeLine(buf *bytes.Buffer, e *core.Event, l *layout.Layout) {
	if clr, ok := c.colors[e.Level()]; ok {
		_, _ = clr.Fprint(buf, l.Format(e))
	} else {
		l.FormatTo(e, buf)
	}
	buf.WriteByte('\n')
}

// Close is a no-op; the console streams are not owned by the appender
func (c *Console) Close() error {
	return nil
}
