// Package config loads a pipeline configuration from YAML.
//
// A configuration file names the appenders by kind and carries each
// appender's own options, which are decoded by the provider registered for
// that kind:
//
//	batch_size: 50
//	template: "[%level] %date - %logger - %thread : %msg %throwable"
//	flush_interval: 25ms
//	appenders:
//	  - name: console
//	    type: console
//	    level: INFO
//	  - name: audit
//	    type: database
//	    level: WARN
//	    options:
//	      driver: sqlite3
//	      dsn: ${AUDIT_DB}
//
// Environment variables written as $VAR or ${VAR} are expanded before
// parsing.
package config

import (
	"bytes"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/philipp01105/batchlog/appender"
	"github.com/philipp01105/batchlog/core"
	"github.com/philipp01105/batchlog/logger"
	"github.com/philipp01105/batchlog/pipeline"
)

// File is the on-disk configuration. Zero values fall back to the
// pipeline defaults.
type File struct {
	BatchSize       int               `yaml:"batch_size"`
	WorkerPoolSize  int               `yaml:"worker_pool_size"`
	QueueSize       int               `yaml:"queue_size"`
	Template        string            `yaml:"template"`
	DateFormat      string            `yaml:"date_format"`
	FlushDelay      time.Duration     `yaml:"flush_delay"`
	FlushInterval   time.Duration     `yaml:"flush_interval"`
	ShutdownTimeout time.Duration     `yaml:"shutdown_timeout"`
	BlockTimeout    time.Duration     `yaml:"block_timeout"`
	CoarseClock     time.Duration     `yaml:"coarse_clock"`
	Overflow        map[string]string `yaml:"overflow"`
	Diagnostics     Diagnostics       `yaml:"diagnostics"`
	Appenders       []Appender        `yaml:"appenders"`
}

// Diagnostics configures the pipeline's own logger
type Diagnostics struct {
	// Level is a zap level name (default: warn)
	Level string `yaml:"level"`
	// Output is stderr, stdout or discard (default: stderr)
	Output string `yaml:"output"`
}

// Appender declares one appender
type Appender struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"`
	Level   string    `yaml:"level"`
	Options yaml.Node `yaml:"options"`
}

// Load reads and parses the configuration file at path
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return f, nil
}

// Parse decodes and validates a configuration document. Unknown top-level
// keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate reports every invalid value in f
func (f *File) Validate() error {
	var errs error
	if f.BatchSize < 0 {
		errs = multierr.Append(errs, errors.Errorf("batch_size must not be negative, got %d", f.BatchSize))
	}
	if f.WorkerPoolSize < 0 {
		errs = multierr.Append(errs, errors.Errorf("worker_pool_size must not be negative, got %d", f.WorkerPoolSize))
	}
	if f.QueueSize < 0 {
		errs = multierr.Append(errs, errors.Errorf("queue_size must not be negative, got %d", f.QueueSize))
	}
	for name, d := range map[string]time.Duration{
		"flush_delay":      f.FlushDelay,
		"flush_interval":   f.FlushInterval,
		"shutdown_timeout": f.ShutdownTimeout,
		"block_timeout":    f.BlockTimeout,
		"coarse_clock":     f.CoarseClock,
	} {
		if d < 0 {
			errs = multierr.Append(errs, errors.Errorf("%s must not be negative, got %v", name, d))
		}
	}
	if _, err := f.overflowPolicy(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if _, err := f.Diagnostics.level(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if _, err := f.Diagnostics.writer(); err != nil {
		errs = multierr.Append(errs, err)
	}

	seen := make(map[string]bool, len(f.Appenders))
	for i, a := range f.Appenders {
		if a.Name == "" {
			errs = multierr.Append(errs, errors.Errorf("appender %d has no name", i))
		} else if seen[a.Name] {
			errs = multierr.Append(errs, errors.Errorf("duplicate appender name %q", a.Name))
		}
		seen[a.Name] = true
		if a.Type == "" {
			errs = multierr.Append(errs, errors.Errorf("appender %q has no type", a.Name))
		}
		if _, err := a.threshold(); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "appender %q", a.Name))
		}
	}
	return errs
}

func (f *File) overflowPolicy() (map[core.Level]logger.OverflowPolicy, error) {
	if len(f.Overflow) == 0 {
		return nil, nil
	}
	policy := logger.DefaultLevelPolicy()
	for lvl, name := range f.Overflow {
		level, err := core.ParseLevel(lvl)
		if err != nil {
			return nil, errors.Wrap(err, "overflow")
		}
		p, err := logger.ParseOverflowPolicy(name)
		if err != nil {
			return nil, errors.Wrapf(err, "overflow for %s", level)
		}
		policy[level] = p
	}
	return policy, nil
}

func (a Appender) threshold() (core.Level, error) {
	if a.Level == "" {
		return core.TraceLevel, nil
	}
	return core.ParseLevel(a.Level)
}

func (d Diagnostics) level() (zapcore.Level, error) {
	if d.Level == "" {
		return zapcore.WarnLevel, nil
	}
	l, err := zapcore.ParseLevel(d.Level)
	return l, errors.Wrap(err, "diagnostics level")
}

func (d Diagnostics) writer() (io.Writer, error) {
	switch strings.ToLower(d.Output) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	case "discard":
		return io.Discard, nil
	}
	return nil, errors.Errorf("unknown diagnostics output %q", d.Output)
}

// NewDiagnostics builds the diagnostics logger described by d
func (d Diagnostics) NewDiagnostics() (*zap.Logger, error) {
	level, err := d.level()
	if err != nil {
		return nil, err
	}
	w, err := d.writer()
	if err != nil {
		return nil, err
	}
	if w == io.Discard {
		return zap.NewNop(), nil
	}
	return pipeline.NewDiagnostics(w, level), nil
}

// Build creates the appenders through reg and returns the resolved pipeline
// configuration. diag overrides the diagnostics section when non-nil. If an
// appender fails to build, the ones already built are closed.
func (f *File) Build(reg *appender.Registry, diag *zap.Logger) (pipeline.Config, error) {
	if err := f.Validate(); err != nil {
		return pipeline.Config{}, err
	}
	if diag == nil {
		d, err := f.Diagnostics.NewDiagnostics()
		if err != nil {
			return pipeline.Config{}, err
		}
		diag = d
	}
	policy, err := f.overflowPolicy()
	if err != nil {
		return pipeline.Config{}, err
	}

	cfg := pipeline.Config{
		BatchSize:       f.BatchSize,
		WorkerPoolSize:  f.WorkerPoolSize,
		QueueSize:       f.QueueSize,
		Template:        f.Template,
		DateFormat:      f.DateFormat,
		FlushDelay:      f.FlushDelay,
		FlushInterval:   f.FlushInterval,
		ShutdownTimeout: f.ShutdownTimeout,
		BlockTimeout:    f.BlockTimeout,
		CoarseClock:     f.CoarseClock,
		OverflowPolicy:  policy,
		Diagnostics:     diag,
	}

	for i := range f.Appenders {
		spec := &f.Appenders[i]
		params := appender.Params{Name: spec.Name, Diagnostics: diag}
		if spec.Options.Kind != 0 {
			params.Decode = spec.Options.Decode
		}

		a, err := reg.New(spec.Type, params)
		if err != nil {
			return pipeline.Config{}, multierr.Append(err, closeAll(cfg.Appenders))
		}
		threshold, _ := spec.threshold()
		cfg.Appenders = append(cfg.Appenders, pipeline.Registration{Appender: a, Threshold: threshold})
	}
	return cfg, nil
}

func closeAll(regs []pipeline.Registration) error {
	var errs error
	for _, r := range regs {
		errs = multierr.Append(errs, r.Appender.Close())
	}
	return errs
}
