package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// JSONLogEntry defines a single structured log line.
type JSONLogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Message   string                 `json:"message"`
	Severity  string                 `json:"severity"`
	Component string                 `json:"component,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type jsonLogger struct {
	metadata  map[string]interface{}
	component string
	out       io.Writer
	mu        *sync.Mutex
	level     LogLevel
	now       func() time.Time // overridden in tests
}

var _ Logger = (*jsonLogger)(nil)

// NewJSON returns a Logger that writes one JSON entry per line to out.
// If out is nil, os.Stderr is used.
func NewJSON(out io.Writer, level LogLevel) Logger {
	if out == nil {
		out = os.Stderr
	}
	return &jsonLogger{
		metadata: make(map[string]interface{}),
		out:      out,
		mu:       &sync.Mutex{},
		level:    level,
		now:      time.Now,
	}
}

// NewJSONFromEnv returns a JSON logger whose level is resolved from the
// `MEMOIZE_LOG_LEVEL` environment variable via GetLevelFromEnv.
func NewJSONFromEnv(out io.Writer) Logger {
	return NewJSON(out, GetLevelFromEnv())
}

func (c *jsonLogger) clone() *jsonLogger {
	metadata := make(map[string]interface{}, len(c.metadata))
	for k, v := range c.metadata {
		metadata[k] = v
	}
	return &jsonLogger{
		metadata:  metadata,
		component: c.component,
		out:       c.out,
		mu:        c.mu,
		level:     c.level,
		now:       c.now,
	}
}

func (c *jsonLogger) With(fields map[string]interface{}) Logger {
	clone := c.clone()
	for k, v := range fields {
		clone.metadata[k] = v
	}
	return clone
}

func (c *jsonLogger) WithPrefix(prefix string) Logger {
	clone := c.clone()
	if clone.component == "" {
		clone.component = prefix
	} else if !strings.Contains(clone.component, prefix) {
		clone.component = clone.component + " " + prefix
	}
	return clone
}

func (c *jsonLogger) IsLevelEnabled(level LogLevel) bool {
	return level >= c.level
}

func (c *jsonLogger) write(level LogLevel, severity, msg string, args []interface{}) {
	if !c.IsLevelEnabled(level) {
		return
	}
	metadata := c.metadata
	if len(args) > 0 {
		metadata = make(map[string]interface{}, len(c.metadata)+len(args)/2)
		for k, v := range c.metadata {
			metadata[k] = v
		}
		// args are alternating key/value pairs; a trailing key without a
		// value is recorded as-is
		for i := 0; i < len(args); i += 2 {
			key := fmt.Sprintf("%v", args[i])
			if i+1 < len(args) {
				metadata[key] = args[i+1]
			} else {
				metadata[key] = nil
			}
		}
	}
	entry := JSONLogEntry{
		Timestamp: c.now(),
		Message:   msg,
		Severity:  severity,
		Component: c.component,
		Metadata:  metadata,
	}
	buf, err := json.Marshal(entry)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, string(buf))
}

func (c *jsonLogger) Trace(msg string, args ...interface{}) {
	c.write(LevelTrace, "TRACE", msg, args)
}

func (c *jsonLogger) Debug(msg string, args ...interface{}) {
	c.write(LevelDebug, "DEBUG", msg, args)
}

func (c *jsonLogger) Info(msg string, args ...interface{}) {
	c.write(LevelInfo, "INFO", msg, args)
}

func (c *jsonLogger) Warn(msg string, args ...interface{}) {
	c.write(LevelWarn, "WARNING", msg, args)
}

func (c *jsonLogger) Error(msg string, args ...interface{}) {
	c.write(LevelError, "ERROR", msg, args)
}
