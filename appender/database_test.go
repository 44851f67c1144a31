package appender

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/philipp01105/batchlog/core"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "logs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME,
		logger TEXT,
		level TEXT,
		thread TEXT,
		message TEXT NOT NULL,
		throwable TEXT
	)`)
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func TestDatabase_InsertsOneRowPerEvent(t *testing.T) {
	db := openTestDB(t)
	d, err := NewDatabase("db", DatabaseConfig{Driver: "sqlite3", DB: db})
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	defer d.Close()

	batch := []*core.Event{
		event(core.InfoLevel, "first"),
		core.NewEvent(core.ErrorLevel, "orders", "t2", testTime, core.Text("second"), errors.New("boom")),
	}
	if err := d.AppendBatch(batch, simpleLayout()); err != nil {
		t.Fatalf("AppendBatch() error = %v", err)
	}

	rows, err := db.Query(`SELECT level, thread, message, throwable FROM logs ORDER BY id`)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	var got []string
	for rows.Next() {
		var level, thread, message, throwable string
		if err := rows.Scan(&level, &thread, &message, &throwable); err != nil {
			t.Fatal(err)
		}
		got = append(got, strings.Join([]string{level, thread, message, throwable}, "|"))
	}
	want := []string{"INFO|t1|first|", "ERROR|t2|second|boom"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("rows = %v, want %v", got, want)
	}
}

func TestDatabase_FailedRowDoesNotStopBatch(t *testing.T) {
	db := openTestDB(t)
	d, err := NewDatabase("db", DatabaseConfig{
		Driver:  "sqlite3",
		DB:      db,
		Columns: []string{ColumnLevel, ColumnMessage},
	})
	if err != nil {
		t.Fatal(err)
	}

	// a second table with a CHECK constraint rejecting one message
	if _, err := db.Exec(`CREATE TABLE strict_logs (level TEXT, message TEXT CHECK (message <> 'poison'))`); err != nil {
		t.Fatal(err)
	}
	d.table = "strict_logs"

	batch := []*core.Event{event(core.InfoLevel, "a"), event(core.InfoLevel, "poison"), event(core.InfoLevel, "c")}
	if err := d.AppendBatch(batch, simpleLayout()); err == nil {
		t.Error("expected an error for the rejected row")
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM strict_logs`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("inserted %d rows, want 2", n)
	}
	s := d.Stats()
	if s.Processed != 2 || s.Failed != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestDatabase_Filter(t *testing.T) {
	db := openTestDB(t)
	d, _ := NewDatabase("db", DatabaseConfig{Driver: "sqlite3", DB: db})
	d.SetFilter(core.NewThresholdFilter(core.WarnLevel))

	_ = d.AppendBatch([]*core.Event{event(core.DebugLevel, "d"), event(core.WarnLevel, "w")}, simpleLayout())

	var n int
	_ = db.QueryRow(`SELECT COUNT(*) FROM logs`).Scan(&n)
	if n != 1 {
		t.Errorf("inserted %d rows, want 1", n)
	}
}

func TestDatabase_InsertSQL(t *testing.T) {
	d, err := NewDatabase("db", DatabaseConfig{Driver: "postgres", DB: &sql.DB{}, Columns: []string{ColumnLevel}})
	if err != nil {
		t.Fatal(err)
	}
	query, args, err := d.InsertSQL(event(core.WarnLevel, "x"), simpleLayout())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(query, "INSERT INTO logs") || !strings.Contains(query, "$1") {
		t.Errorf("query = %q", query)
	}
	if len(args) != 1 || args[0] != "WARN" {
		t.Errorf("args = %v", args)
	}
}

func TestNewDatabase_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
	}{
		{"unknown column", DatabaseConfig{Driver: "sqlite3", DB: &sql.DB{}, Columns: []string{"hostname"}}},
		{"unknown driver", DatabaseConfig{Driver: "db2", DSN: "x"}},
		{"missing dsn", DatabaseConfig{Driver: "sqlite3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDatabase("db", tt.cfg); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSanitizeMessage(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"plain", 1000, "plain"},
		{"<script>alert(1)</script>", 1000, "scriptalert(1)/script"},
		{"line\nbreak\ttab\x00", 1000, "linebreaktab"},
		{"abcdef", 3, "abc"},
		{"héllo wörld", 5, "héllo"},
	}
	for _, tt := range tests {
		if got := SanitizeMessage(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("SanitizeMessage(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}
