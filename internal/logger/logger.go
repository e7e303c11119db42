// Package logger provides leveled, structured key=value logging for the
// plan pipeline. Field keys are emitted in sorted order so log lines are
// stable enough to grep and to assert on in tests.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"
)

// Level is the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the level's log-line tag.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Fields are the structured values attached to a log message.
type Fields map[string]any

// Logger writes leveled messages with structured fields.
type Logger struct {
	level Level
	out   *log.Logger
}

// New creates a Logger writing to w at the given minimum level.
func New(level Level, w io.Writer) *Logger {
	return &Logger{
		level: level,
		out:   log.New(w, "", 0),
	}
}

// Default returns an info-level logger on stderr.
func Default() *Logger {
	return New(LevelInfo, os.Stderr)
}

func (l *Logger) write(level Level, msg string, fields Fields) {
	if level < l.level {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().UTC().Format(time.RFC3339))
	b.WriteString(" ")
	b.WriteString(level.String())
	b.WriteString(" ")
	b.WriteString(msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}

	l.out.Println(b.String())
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields Fields) { l.write(LevelDebug, msg, fields) }

// Info logs an informational message.
func (l *Logger) Info(msg string, fields Fields) { l.write(LevelInfo, msg, fields) }

// Warn logs a warning.
func (l *Logger) Warn(msg string, fields Fields) { l.write(LevelWarn, msg, fields) }

// Error logs an error.
func (l *Logger) Error(msg string, fields Fields) { l.write(LevelError, msg, fields) }
