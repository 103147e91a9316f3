package logger

import "sync"

// TestLogEntry is one recorded log call.
type TestLogEntry struct {
	Severity  string
	Message   string
	Arguments []interface{}
}

// TestLogger records every log call for later assertions.
type TestLogger struct {
	mu       sync.Mutex
	metadata map[string]interface{}
	logs     []TestLogEntry
}

var _ Logger = (*TestLogger)(nil)

// NewTestLogger returns a new Logger instance useful for testing
func NewTestLogger() *TestLogger {
	return &TestLogger{}
}

// Logs returns a copy of the recorded entries.
func (c *TestLogger) Logs() []TestLogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]TestLogEntry, len(c.logs))
	copy(out, c.logs)
	return out
}

func (c *TestLogger) record(severity, msg string, args []interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, TestLogEntry{severity, msg, args})
}

func (c *TestLogger) With(metadata map[string]interface{}) Logger {
	kv := make(map[string]interface{}, len(c.metadata)+len(metadata))
	for k, v := range c.metadata {
		kv[k] = v
	}
	for k, v := range metadata {
		kv[k] = v
	}
	// children share the parent's log buffer
	return &sharedTestLogger{parent: c, metadata: kv}
}

func (c *TestLogger) WithPrefix(string) Logger { return c.With(nil) }

func (c *TestLogger) Trace(msg string, args ...interface{}) { c.record("TRACE", msg, args) }
func (c *TestLogger) Debug(msg string, args ...interface{}) { c.record("DEBUG", msg, args) }
func (c *TestLogger) Info(msg string, args ...interface{})  { c.record("INFO", msg, args) }
func (c *TestLogger) Warn(msg string, args ...interface{})  { c.record("WARNING", msg, args) }
func (c *TestLogger) Error(msg string, args ...interface{}) { c.record("ERROR", msg, args) }
func (c *TestLogger) IsLevelEnabled(LogLevel) bool          { return true }

type sharedTestLogger struct {
	parent   *TestLogger
	metadata map[string]interface{}
}

var _ Logger = (*sharedTestLogger)(nil)

func (c *sharedTestLogger) With(metadata map[string]interface{}) Logger {
	kv := make(map[string]interface{}, len(c.metadata)+len(metadata))
	for k, v := range c.metadata {
		kv[k] = v
	}
	for k, v := range metadata {
		kv[k] = v
	}
	return &sharedTestLogger{parent: c.parent, metadata: kv}
}

func (c *sharedTestLogger) WithPrefix(string) Logger { return c }

func (c *sharedTestLogger) Trace(msg string, args ...interface{}) { c.parent.record("TRACE", msg, args) }
func (c *sharedTestLogger) Debug(msg string, args ...interface{}) { c.parent.record("DEBUG", msg, args) }
func (c *sharedTestLogger) Info(msg string, args ...interface{})  { c.parent.record("INFO", msg, args) }
func (c *sharedTestLogger) Warn(msg string, args ...interface{})  { c.parent.record("WARNING", msg, args) }
func (c *sharedTestLogger) Error(msg string, args ...interface{}) { c.parent.record("ERROR", msg, args) }
func (c *sharedTestLogger) IsLevelEnabled(LogLevel) bool          { return true }
