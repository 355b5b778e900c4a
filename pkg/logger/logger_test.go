package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name          string
		level         Level
		logFunc       func(Logger, string)
		expectedInLog bool
	}{
		{
			name:          "debug message when level is debug",
			level:         LevelDebug,
			logFunc:       func(l Logger, msg string) { l.Debug(msg) },
			expectedInLog: true,
		},
		{
			name:          "debug message when level is info",
			level:         LevelInfo,
			logFunc:       func(l Logger, msg string) { l.Debug(msg) },
			expectedInLog: false,
		},
		{
			name:          "warn message when level is error",
			level:         LevelError,
			logFunc:       func(l Logger, msg string) { l.Warn(msg) },
			expectedInLog: false,
		},
		{
			name:          "error message when level is error",
			level:         LevelError,
			logFunc:       func(l Logger, msg string) { l.Error(msg) },
			expectedInLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewLogger(tt.level, buf)

			tt.logFunc(logger, "analyzer finished")

			contains := strings.Contains(buf.String(), "analyzer finished")
			if contains != tt.expectedInLog {
				t.Errorf("expected message in log: %v, got: %v (output: %s)",
					tt.expectedInLog, contains, buf.String())
			}
		})
	}
}

func TestLogger_FieldsAndWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	child := NewLogger(LevelInfo, buf).WithFields(F("category", "secrets"))

	child.Info("analyzer finished", F("findings", 3))

	output := buf.String()
	for _, want := range []string{"category=secrets", "findings=3", "level=info"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output, got: %s", want, output)
		}
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLoggerWithFormat(LevelInfo, buf, FormatJSON)

	logger.Warn("parse failed", F("path", "a/b.py"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON entry, got %q: %v", buf.String(), err)
	}
	if entry["path"] != "a/b.py" {
		t.Errorf("path field = %v", entry["path"])
	}
	if entry["level"] != "warning" {
		t.Errorf("level = %v", entry["level"])
	}
}

func TestLogger_SilentMode(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(LevelSilent, buf)

	logger.Debug("debug msg")
	logger.Info("info msg")
	logger.Error("error msg")

	if buf.Len() > 0 {
		t.Errorf("expected no output in silent mode, got: %s", buf.String())
	}
}

func TestLogger_SetLevelSharedWithChildren(t *testing.T) {
	buf := &bytes.Buffer{}
	parent := NewLogger(LevelError, buf)
	child := parent.WithFields(F("run", "1"))

	child.Info("hidden")
	if buf.Len() > 0 {
		t.Fatalf("expected no output at error level, got: %s", buf.String())
	}

	parent.SetLevel(LevelInfo)
	child.Info("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("expected child to follow parent's level change")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"", LevelInfo, false},
		{"WARN", LevelWarn, false},
		{"silent", LevelSilent, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	if got := Level(999).String(); got != "UNKNOWN" {
		t.Errorf("Level.String() = %v, want UNKNOWN", got)
	}
	if got := LevelWarn.String(); got != "WARN" {
		t.Errorf("Level.String() = %v, want WARN", got)
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	logger := NewLogger(LevelInfo, bytes.NewBuffer(make([]byte, 0, 1024*1024)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message",
			F("iteration", i),
			F("key", "value"),
		)
	}
}
