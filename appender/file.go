package appender

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/philipp01105/batchlog/core"
	"github.com/philipp01105/batchlog/layout"
)

// KindFile is the registry tag of the file appender
const KindFile = "file"

// FileConfig holds configuration for the file appender
type FileConfig struct {
	// Filename is the path to the log file
	Filename string `yaml:"filename"`
	// MaxSize is the maximum size in bytes before rotation (0 = no size rotation)
	MaxSize int64 `yaml:"max_size"`
	// MaxAge is the maximum age before rotation (0 = no time rotation)
	MaxAge time.Duration `yaml:"max_age"`
	// MaxBackups is the maximum number of old log files to retain (0 = keep all)
	MaxBackups int `yaml:"max_backups"`
	// RotateInterval is the interval for time-based rotation (0 = no interval rotation)
	RotateInterval time.Duration `yaml:"rotate_interval"`
}

// File appends formatted events to a file with rotation support
type File struct {
	*Base
	mu             sync.Mutex
	filename       string
	file           *os.File
	maxSize        int64
	maxAge         time.Duration
	maxBackups     int
	rotateInterval time.Duration
	currentSize    int64
	lastRotateTime time.Time
}

// NewFile creates a file appender, creating parent directories as needed
func NewFile(name string, cfg FileConfig) (*File, error) {
	if cfg.Filename == "" {
		return nil, errors.New("filename is required")
	}

	dir := filepath.Dir(cfg.Filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "create log directory")
	}

	file, err := os.OpenFile(cfg.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "open log file")
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, "stat log file")
	}

	return &File{
		Base:           NewBase(name),
		filename:       cfg.Filename,
		file:           file,
		maxSize:        cfg.MaxSize,
		maxAge:         cfg.MaxAge,
		maxBackups:     cfg.MaxBackups,
		rotateInterval: cfg.RotateInterval,
		currentSize:    info.Size(),
		lastRotateTime: time.Now(),
	}, nil
}

func newFileFromParams(p Params) (Appender, error) {
	var cfg FileConfig
	if err := p.decode(&cfg); err != nil {
		return nil, err
	}
	return NewFile(p.Name, cfg)
}

// Append writes a single event
func (f *File) Append(e *core.Event, l *layout.Layout) error {
	return f.AppendBatch([]*core.Event{e}, l)
}

// AppendBatch writes all accepted events with a single Write call
func (f *File) AppendBatch(events []*core.Event, l *layout.Layout) error {
	buf := getBuffer()
	defer putBuffer(buf)

	n := 0
	for _, e := range events {
		if !f.Accept(e) {
			continue
		}
		l.FormatTo(e, buf)
		buf.WriteByte('\n')
		n++
	}
	if n == 0 {
		return nil
	}

	err := f.write(buf.Bytes())
	f.Record(n, err)
	return errors.Wrapf(err, "file appender %q", f.Name())
}

func (f *File) write(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return os.ErrClosed
	}

	if err := f.rotateIfNeeded(); err != nil {
		return err
	}

	n, err := f.file.Write(data)
	f.currentSize += int64(n)
	return err
}

// rotateIfNeeded checks and performs rotation if needed
func (f *File) rotateIfNeeded() error {
	needRotate := false

	if f.maxSize > 0 && f.currentSize >= f.maxSize {
		needRotate = true
	}
	if f.maxAge > 0 && time.Since(f.lastRotateTime) >= f.maxAge {
		needRotate = true
	}
	if f.rotateInterval > 0 && time.Since(f.lastRotateTime) >= f.rotateInterval {
		needRotate = true
	}

	if !needRotate {
		return nil
	}
	return f.rotate()
}

// rotate renames the current file with a timestamp suffix and reopens
func (f *File) rotate() error {
	if err := f.file.Sync(); err != nil {
		return err
	}
	if err := f.file.Close(); err != nil {
		return err
	}

	rotatedName := fmt.Sprintf("%s.%s", f.filename, time.Now().Format("2006-01-02T15-04-05.000000000"))

	if err := os.Rename(f.filename, rotatedName); err != nil {
		file, openErr := os.OpenFile(f.filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if openErr != nil {
			f.file = nil
			return errors.Errorf("rotation failed: %v, reopen failed: %v", err, openErr)
		}
		f.file = file
		return errors.Wrap(err, "rotate log file")
	}

	if f.maxBackups > 0 {
		f.cleanupOldBackups()
	}

	file, err := os.OpenFile(f.filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		f.file = nil
		return errors.Wrap(err, "reopen log file")
	}

	f.file = file
	f.currentSize = 0
	f.lastRotateTime = time.Now()
	return nil
}

// cleanupOldBackups removes the oldest backups beyond maxBackups
func (f *File) cleanupOldBackups() {
	base := filepath.Base(f.filename)
	matches, err := filepath.Glob(f.filename + ".*")
	if err != nil {
		return
	}

	var backups []string
	for _, match := range matches {
		if strings.HasPrefix(filepath.Base(match), base+".") {
			backups = append(backups, match)
		}
	}

	// the timestamp suffix sorts chronologically
	sort.Strings(backups)

	if len(backups) > f.maxBackups {
		for _, name := range backups[:len(backups)-f.maxBackups] {
			if err := os.Remove(name); err != nil {
				return
			}
		}
	}
}

// Close syncs and closes the file. Further appends fail with os.ErrClosed.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}
	file := f.file
	f.file = nil

	syncErr := file.Sync()
	closeErr := file.Close()
	if syncErr != nil {
		return errors.Wrap(syncErr, "sync log file")
	}
	return errors.Wrap(closeErr, "close log file")
}
