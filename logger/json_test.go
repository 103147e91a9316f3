package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newFixedJSON(out *bytes.Buffer, level LogLevel) *jsonLogger {
	l := NewJSON(out, level).(*jsonLogger)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	l.now = func() time.Time { return ts }
	return l
}

func TestJSONBasic(t *testing.T) {
	var buf bytes.Buffer
	l := newFixedJSON(&buf, LevelTrace)
	l.Info("hello")

	var entry JSONLogEntry
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry.Message)
	assert.Equal(t, "INFO", entry.Severity)
	assert.Equal(t, 2026, entry.Timestamp.Year())
}

func TestJSONLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := newFixedJSON(&buf, LevelWarn)
	l.Debug("dropped")
	l.Info("dropped")
	l.Error("kept")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "kept")
}

func TestJSONKeyValueArgs(t *testing.T) {
	var buf bytes.Buffer
	l := newFixedJSON(&buf, LevelTrace)
	l.Warn("something", "key", "k1", "count", 3)

	var entry JSONLogEntry
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "k1", entry.Metadata["key"])
	assert.Equal(t, float64(3), entry.Metadata["count"])
}

func TestJSONWithMetadataAndPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := newFixedJSON(&buf, LevelTrace)
	child := l.With(map[string]interface{}{"cache": "users"}).WithPrefix("memoize")
	child.Info("created")

	var entry JSONLogEntry
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "users", entry.Metadata["cache"])
	assert.Equal(t, "memoize", entry.Component)

	// parent stays untouched
	buf.Reset()
	l.Info("bare")
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Empty(t, entry.Component)
}

func TestJSONFromEnvLevel(t *testing.T) {
	t.Setenv("MEMOIZE_LOG_LEVEL", "error")
	var buf bytes.Buffer
	l := NewJSONFromEnv(&buf)
	assert.False(t, l.IsLevelEnabled(LevelInfo))
	l.Info("dropped")
	l.Error("kept")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "kept")
}

func TestGetLevelFromEnv(t *testing.T) {
	for name, level := range map[string]LogLevel{
		"trace":   LevelTrace,
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"unknown": LevelInfo,
	} {
		t.Setenv("MEMOIZE_LOG_LEVEL", name)
		assert.Equal(t, level, GetLevelFromEnv(), "level %q", name)
	}
}

func TestNullLogger(t *testing.T) {
	l := NewNull()
	assert.False(t, l.IsLevelEnabled(LevelError))
	// must not panic
	l.With(map[string]interface{}{"a": 1}).WithPrefix("x").Error("ignored")
}

func TestTestLoggerRecords(t *testing.T) {
	l := NewTestLogger()
	l.Info("one", "k", "v")
	l.With(map[string]interface{}{"x": 1}).Error("two")
	logs := l.Logs()
	assert.Len(t, logs, 2)
	assert.Equal(t, "INFO", logs[0].Severity)
	assert.Equal(t, "one", logs[0].Message)
	assert.Equal(t, "ERROR", logs[1].Severity)
}
