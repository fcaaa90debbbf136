package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(format string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger()
	l.SetOutput(&buf)
	l.SetFormat(format)
	return l, &buf
}

func TestLogger_LevelFilter(t *testing.T) {
	l, buf := newBufferLogger("text")
	l.SetLevel(WARN)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("also shown", nil)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown")
	assert.Contains(t, out, "[ERROR] also shown")
}

func TestLogger_TextFormat(t *testing.T) {
	l, buf := newBufferLogger("text")

	l.WithFields(Component("assessment"), RequestID("req-1")).
		Error("classification failed", errors.New("boom"), Int("records", 3), String("attr", "BMI"))

	line := buf.String()
	assert.Contains(t, line, "[ERROR] classification failed")
	assert.Contains(t, line, "component=assessment")
	assert.Contains(t, line, "request_id=req-1")
	assert.Contains(t, line, `error="boom"`)
	// fields are sorted by key
	assert.Less(t, strings.Index(line, "attr=BMI"), strings.Index(line, "records=3"))
	assert.Contains(t, line, "logger_test.go")
}

func TestLogger_JSONFormat(t *testing.T) {
	l, buf := newBufferLogger("json")
	l.SetService("healthpath-test")

	l.Info("reference loaded", Component("assessment"), Int("records", 100), Bool("warm", true), Float("score", 1.5))

	var entry Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "reference loaded", entry.Message)
	assert.Equal(t, "healthpath-test", entry.Service)
	assert.Equal(t, "assessment", entry.Component)
	assert.Equal(t, float64(100), entry.Fields["records"])
	assert.Equal(t, true, entry.Fields["warm"])
	assert.Equal(t, 1.5, entry.Fields["score"])
}

func TestFieldLogger_DoesNotShareFields(t *testing.T) {
	l, buf := newBufferLogger("text")
	base := l.WithFields(Component("api"))

	base.Info("first", String("a", "1"))
	base.Info("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "a=1")
	assert.NotContains(t, lines[1], "a=1")
	assert.Contains(t, lines[1], "component=api")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"error":   ERROR,
		"fatal":   FATAL,
		"":        INFO,
		"verbose": INFO,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
