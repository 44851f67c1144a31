package appender

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/philipp01105/batchlog/core"
)

func TestConsole_WritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	c, err := NewConsole("out", ConsoleConfig{Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	batch := []*core.Event{event(core.InfoLevel, "first"), event(core.ErrorLevel, "second")}
	if err := c.AppendBatch(batch, simpleLayout()); err != nil {
		t.Fatalf("AppendBatch() error = %v", err)
	}

	if got, want := buf.String(), "INFO first\nERROR second\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if c.Stats().Processed != 2 {
		t.Errorf("Processed = %d, want 2", c.Stats().Processed)
	}
}

func TestConsole_ColorAlways(t *testing.T) {
	var buf bytes.Buffer
	c, err := NewConsole("out", ConsoleConfig{Writer: &buf, Color: ColorAlways})
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Append(event(core.InfoLevel, "green"), simpleLayout()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "\x1b[32m") || !strings.Contains(out, "INFO green") {
		t.Errorf("output not colored: %q", out)
	}
}

func TestConsole_AutoColorOffForBuffers(t *testing.T) {
	var buf bytes.Buffer
	c, err := NewConsole("out", ConsoleConfig{Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Append(event(core.InfoLevel, "plain"), simpleLayout())
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("unexpected escape codes: %q", buf.String())
	}
}

func TestConsole_InvalidConfig(t *testing.T) {
	if _, err := NewConsole("x", ConsoleConfig{Stream: "printer"}); err == nil {
		t.Error("expected error for unknown stream")
	}
	if _, err := NewConsole("x", ConsoleConfig{Color: "rainbow"}); err == nil {
		t.Error("expected error for unknown color mode")
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestConsole_WriteFailureCounted(t *testing.T) {
	c, _ := NewConsole("out", ConsoleConfig{Writer: brokenWriter{}})
	err := c.AppendBatch([]*core.Event{event(core.InfoLevel, "a"), event(core.InfoLevel, "b")}, simpleLayout())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := c.Stats().Failed; got != 2 {
		t.Errorf("Failed = %d, want 2", got)
	}
}
