package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		logFunc   func(l *Logger)
		wantMsg   string
		wantLevel string
	}{
		{"debug", func(l *Logger) { l.Debug("debug message") }, "debug message", "debug"},
		{"info", func(l *Logger) { l.Info("info message") }, "info message", "info"},
		{"warn", func(l *Logger) { l.Warn("warn message") }, "warn message", "warn"},
		{"error", func(l *Logger) { l.Error("error message") }, "error message", "error"},
		{"infof", func(l *Logger) { l.Infof("longs: %d", 12) }, "longs: 12", "info"},
		{"errorf", func(l *Logger) { l.Errorf("cancel failed: %s", "timeout") }, "cancel failed: timeout", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(NewWithWriter(&buf, "debug"))

			entry := decodeLine(t, &buf)
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["message"])
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")

	l.Info("dropped")
	assert.Empty(t, buf.String())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info")

	l.Component("selection").
		WithFields(map[string]interface{}{
			"longs":  3,
			"shorts": 2,
		}).
		WithField("date", "2024-01-02").
		Info("selection complete")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "selection", entry["component"])
	assert.Equal(t, float64(3), entry["longs"])
	assert.Equal(t, float64(2), entry["shorts"])
	assert.Equal(t, "2024-01-02", entry["date"])
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info")

	l.WithError(errors.New("broker unavailable")).Error("dispatch failed")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "broker unavailable", entry["error"])
	assert.Equal(t, "dispatch failed", entry["message"])
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WithField("k", "v").Info("nothing")
	})
}
