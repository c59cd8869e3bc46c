package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zapcore.Level
		ok   bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{"INFO", zapcore.InfoLevel, true},
		{"", zapcore.InfoLevel, true},
		{"warning", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"trace", zapcore.InfoLevel, false},
	}

	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if (err == nil) != tc.ok {
			t.Fatalf("ParseLevel(%q) error=%v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseLevel(%q)=%v want %v", tc.in, got, tc.want)
		}
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatConsole} {
		l, err := New("warn", format)
		if err != nil {
			t.Fatalf("New(%q) error: %v", format, err)
		}
		if l.Core().Enabled(zapcore.InfoLevel) {
			t.Fatalf("%s logger enabled at info with level warn", format)
		}
		if !l.Core().Enabled(zapcore.ErrorLevel) {
			t.Fatalf("%s logger disabled at error", format)
		}
	}

	if _, err := New("info", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := New("loud", FormatJSON); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
