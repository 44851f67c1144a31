package appender

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"xorm.io/builder"

	"github.com/philipp01105/batchlog/core"
	"github.com/philipp01105/batchlog/layout"
)

// KindDatabase is the registry tag of the database appender
const KindDatabase = "database"

// Column names understood by the database appender. Each names both the
// table column and the event value stored in it.
const (
	ColumnTimestamp = "timestamp"
	ColumnLogger    = "logger"
	ColumnLevel     = "level"
	ColumnThread    = "thread"
	ColumnMessage   = "message"
	ColumnThrowable = "throwable"
	ColumnFormatted = "formatted"
)

// DefaultColumns is used when DatabaseConfig.Columns is empty
var DefaultColumns = []string{ColumnTimestamp, ColumnLogger, ColumnLevel, ColumnThread, ColumnMessage, ColumnThrowable}

// DatabaseConfig holds configuration for the database appender
type DatabaseConfig struct {
	// Driver is the database/sql driver name, e.g. "sqlite3", "mysql", "postgres"
	Driver string `yaml:"driver"`
	// DSN is the driver-specific data source name
	DSN string `yaml:"dsn"`
	// Table receives one row per event (default: "logs")
	Table string `yaml:"table"`
	// Columns lists the columns to fill (default: DefaultColumns)
	Columns []string `yaml:"columns"`
	// Dialect overrides the SQL dialect derived from Driver
	Dialect string `yaml:"dialect"`
	// Timeout bounds each INSERT (default: 5s)
	Timeout time.Duration `yaml:"timeout"`
	// MaxMessageLen truncates the message column, in runes (default: 1000)
	MaxMessageLen int `yaml:"max_message_len"`
	// DB is used instead of opening Driver/DSN; the appender does not close it
	DB *sql.DB `yaml:"-"`
}

// Database inserts one row per event. Each insert stands alone: a failed row
// does not prevent the rest of the batch from being written.
type Database struct {
	*Base
	db            *sql.DB
	ownsDB        bool
	dialect       string
	table         string
	columns       []string
	timeout       time.Duration
	maxMessageLen int
}

// NewDatabase creates a database appender
func NewDatabase(name string, cfg DatabaseConfig) (*Database, error) {
	if cfg.Table == "" {
		cfg.Table = "logs"
	}
	if len(cfg.Columns) == 0 {
		cfg.Columns = DefaultColumns
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxMessageLen <= 0 {
		cfg.MaxMessageLen = 1000
	}
	for _, col := range cfg.Columns {
		if !knownColumn(col) {
			return nil, errors.Errorf("unknown column %q", col)
		}
	}
	if cfg.Dialect == "" {
		cfg.Dialect = dialectFor(cfg.Driver)
	}
	if cfg.Dialect == "" {
		return nil, errors.Errorf("no SQL dialect for driver %q", cfg.Driver)
	}

	d := &Database{
		Base:          NewBase(name),
		db:            cfg.DB,
		dialect:       cfg.Dialect,
		table:         cfg.Table,
		columns:       append([]string(nil), cfg.Columns...),
		timeout:       cfg.Timeout,
		maxMessageLen: cfg.MaxMessageLen,
	}
	if d.db == nil {
		if cfg.Driver == "" || cfg.DSN == "" {
			return nil, errors.New("driver and dsn are required")
		}
		db, err := sql.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "open database")
		}
		d.db = db
		d.ownsDB = true
	}
	return d, nil
}

func newDatabaseFromParams(p Params) (Appender, error) {
	var cfg DatabaseConfig
	if err := p.decode(&cfg); err != nil {
		return nil, err
	}
	return NewDatabase(p.Name, cfg)
}

func knownColumn(col string) bool {
	switch col {
	case ColumnTimestamp, ColumnLogger, ColumnLevel, ColumnThread, ColumnMessage, ColumnThrowable, ColumnFormatted:
		return true
	}
	return false
}

func dialectFor(driver string) string {
	switch driver {
	case "sqlite3", "sqlite":
		return builder.SQLITE
	case "mysql":
		return builder.MYSQL
	case "postgres", "pgx":
		return builder.POSTGRES
	case "sqlserver", "mssql":
		return builder.MSSQL
	}
	return ""
}

// InsertSQL builds the INSERT statement and arguments for e
func (d *Database) InsertSQL(e *core.Event, l *layout.Layout) (string, []interface{}, error) {
	values := builder.Eq{}
	for _, col := range d.columns {
		values[col] = d.value(col, e, l)
	}
	return builder.Dialect(d.dialect).Insert(values).Into(d.table).ToSQL()
}

func (d *Database) value(col string, e *core.Event, l *layout.Layout) interface{} {
	switch col {
	case ColumnTimestamp:
		return e.Time()
	case ColumnLogger:
		return e.LoggerName()
	case ColumnLevel:
		return e.Level().String()
	case ColumnThread:
		return e.ThreadName()
	case ColumnMessage:
		return SanitizeMessage(e.Text(), d.maxMessageLen)
	case ColumnThrowable:
		return e.ThrowableText()
	case ColumnFormatted:
		return l.Format(e)
	}
	return nil
}

// Append inserts a single event
func (d *Database) Append(e *core.Event, l *layout.Layout) error {
	if !d.Accept(e) {
		return nil
	}
	err := d.insert(e, l)
	d.Record(1, err)
	return errors.Wrapf(err, "database appender %q", d.Name())
}

// AppendBatch inserts the accepted events one row at a time
func (d *Database) AppendBatch(events []*core.Event, l *layout.Layout) error {
	var errs error
	for _, e := range events {
		errs = multierr.Append(errs, d.Append(e, l))
	}
	return errs
}

func (d *Database) insert(e *core.Event, l *layout.Layout) error {
	query, args, err := d.InsertSQL(e, l)
	if err != nil {
		return errors.Wrap(err, "build insert")
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	_, err = d.db.ExecContext(ctx, query, args...)
	return errors.Wrap(err, "insert log row")
}

// Close closes the database handle if the appender opened it
func (d *Database) Close() error {
	if !d.ownsDB {
		return nil
	}
	return errors.Wrap(d.db.Close(), "close database")
}

// SanitizeMessage removes angle brackets and control characters and
// truncates the result to at most maxLen runes.
func SanitizeMessage(s string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(s))
	n := 0
	for _, r := range s {
		if maxLen > 0 && n >= maxLen {
			break
		}
		if r == '<' || r == '>' || r == utf8.RuneError || unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
