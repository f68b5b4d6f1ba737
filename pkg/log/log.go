// Package log is the engine's ambient leveled logger (SPEC_FULL §3.1): a
// small dependency-free wrapper around the standard library's log.New
// writing to stdout, in the shape of the teacher's apoc/log package
// (apoc/log/log.go) — a package-level level filter plus
// Debug/Info/Warn/Error calls that format an optional key-value tail —
// generalized from apoc/log's Cypher-procedure-specific surface
// (apoc.log.audit, apoc.log.memory, ...) down to the handful of calls
// the engine itself needs. This is deliberately not the third-party
// logging framework route: nothing in the example corpus standardizes on
// one, so the corpus-grounded choice is the teacher's own hand-rolled
// log.New wrapper, not an import.
package log

import (
	"fmt"
	"log"
	"os"
)

// Level orders log severity; a Logger drops anything below its current
// level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

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
		return "INFO"
	}
}

// Logger wraps a standard library *log.Logger with a level filter, per
// apoc/log's currentLevel/logger pair.
type Logger struct {
	level Level
	out   *log.Logger
}

// New returns a Logger writing to stdout with prefix, at level.
func New(prefix string, level Level) *Logger {
	return &Logger{level: level, out: log.New(os.Stdout, prefix, log.LstdFlags)}
}

// SetLevel changes the minimum severity l logs at.
func (l *Logger) SetLevel(level Level) { l.level = level }

// Debug logs a debug-level message, following apoc/log.Debug's shape.
func (l *Logger) Debug(msg string, kv ...interface{}) { l.logAt(LevelDebug, msg, kv) }

// Info logs an info-level message.
func (l *Logger) Info(msg string, kv ...interface{}) { l.logAt(LevelInfo, msg, kv) }

// Warn logs a warning-level message.
func (l *Logger) Warn(msg string, kv ...interface{}) { l.logAt(LevelWarn, msg, kv) }

// Error logs an error-level message.
func (l *Logger) Error(msg string, kv ...interface{}) { l.logAt(LevelError, msg, kv) }

func (l *Logger) logAt(level Level, msg string, kv []interface{}) {
	if l == nil || level < l.level {
		return
	}
	line := fmt.Sprintf("[%s] %s", level, msg)
	if len(kv) > 0 {
		line += fmt.Sprintf(" %v", kv)
	}
	l.out.Println(line)
}

// Default is the package-wide logger used by components that aren't
// handed one of their own — pkg/checkpoint and cmd/pgraphdb, per
// SPEC_FULL §3.1.
var Default = New("", LevelInfo)
