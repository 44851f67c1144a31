package core

import (
	"testing"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{TraceLevel, "TRACE"},
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{FatalLevel, "FATAL"},
		{Level(42), "UNKNOWN"},
		{Level(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevel_Ordering(t *testing.T) {
	for i := 1; i < len(Levels); i++ {
		if Levels[i-1] >= Levels[i] {
			t.Errorf("%v should rank below %v", Levels[i-1], Levels[i])
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"trace", TraceLevel, false},
		{"DEBUG", DebugLevel, false},
		{" Info ", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"WARN", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"FATAL", FatalLevel, false},
		{"verbose", TraceLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevel_TextRoundTrip(t *testing.T) {
	var l Level
	if err := l.UnmarshalText([]byte("warn")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if l != WarnLevel {
		t.Errorf("UnmarshalText() = %v, want WARN", l)
	}
	if err := l.UnmarshalText([]byte("nope")); err == nil {
		t.Error("UnmarshalText() accepted an unknown level")
	}
	if l != WarnLevel {
		t.Errorf("failed UnmarshalText changed the level to %v", l)
	}
}
