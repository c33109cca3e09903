package shared

import (
	"bytes"
	"database/sql"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func mustMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	ConfigureDatabase(db, 1, 1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name string
		ms   int
		want string
	}{
		{name: "zero", ms: 0, want: "0:00"},
		{name: "pads seconds", ms: 65_000, want: "1:05"},
		{name: "truncates millis", ms: 215_999, want: "3:35"},
		{name: "negative clamps", ms: -10, want: "0:00"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.ms); got != tt.want {
				t.Errorf("FormatDuration(%d) = %v, want %v", tt.ms, got, tt.want)
			}
		})
	}
}

func TestMask(t *testing.T) {
	if got := Mask(""); got != "(unset)" {
		t.Errorf("expected (unset), got %q", got)
	}
	if got := Mask("abc"); got != "****" {
		t.Errorf("expected ****, got %q", got)
	}
	got := Mask("supersecretvalue")
	if strings.Contains(got, "supersecret") {
		t.Errorf("mask leaked prefix: %q", got)
	}
	if !strings.HasSuffix(got, "alue") {
		t.Errorf("expected last four characters, got %q", got)
	}
}

func TestLogger(t *testing.T) {
	t.Run("ParseLogLevel", func(t *testing.T) {
		if got := ParseLogLevel("DEBUG"); got != log.DebugLevel {
			t.Errorf("expected debug level, got %v", got)
		}
		if got := ParseLogLevel("nonsense"); got != log.InfoLevel {
			t.Errorf("expected info fallback, got %v", got)
		}
	})

	t.Run("WithLogger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "test")
		logger.Info("hello")
		if !strings.Contains(buf.String(), "component=test") {
			t.Errorf("expected child logger fields in output, got %q", buf.String())
		}
	})

	t.Run("GenerateID", func(t *testing.T) {
		a, b := GenerateID(), GenerateID()
		if a == b || len(a) != 36 {
			t.Errorf("expected distinct uuids, got %q and %q", a, b)
		}
	})
}
