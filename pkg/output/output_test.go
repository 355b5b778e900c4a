package output

import (
	"bytes"
	"strings"
	"testing"
)

func capture(t *testing.T, f func()) string {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() { SetOutput(nil) })
	f()
	return buf.String()
}

func TestMessages(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string)
		icon  string
		input string
	}{
		{"success", Success, "✅", "Scan complete"},
		{"warn", Warn, "⚠️", "Analyzer timed out"},
		{"error", Error, "❌", "Store unavailable"},
		{"info", Info, "ℹ️", "Next steps:"},
		{"step", Step, "   ", "heron trend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := capture(t, func() { tt.fn(tt.input) })
			if !strings.Contains(got, tt.icon) {
				t.Errorf("output %q missing %q", got, tt.icon)
			}
			if !strings.Contains(got, tt.input) {
				t.Errorf("output %q missing message", got)
			}
		})
	}
}

func TestPlainWhenNotTerminal(t *testing.T) {
	got := capture(t, func() { Success("done") })
	if strings.Contains(got, "\x1b[") {
		t.Errorf("expected no ANSI escapes for a buffer, got %q", got)
	}
}

func TestVerbose(t *testing.T) {
	got := capture(t, func() { Verbose("Parsed 3 files") })
	if got != "" {
		t.Error("Verbose output should be empty when verbose mode is off")
	}

	SetVerbose(true)
	defer SetVerbose(false)

	got = capture(t, func() { Verbose("Parsed 3 files") })
	if !strings.Contains(got, "🔍") || !strings.Contains(got, "Parsed 3 files") {
		t.Errorf("unexpected verbose output %q", got)
	}
}
