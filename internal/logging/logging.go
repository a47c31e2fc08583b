// Package logging holds the process wide zerolog logger
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// L is the global logger. Packages log through it directly or derive a
// component logger with WithComponent. L itself is never reassigned, so
// derived loggers follow later SetLogLevel and SetOutput calls.
var L zerolog.Logger

var output = &switchWriter{}

func init() {
	output.set(consoleWriter(os.Stderr))
	L = zerolog.New(output).
		Level(zerolog.TraceLevel).
		With().
		Timestamp().
		Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// switchWriter lets the destination of every logger change at runtime.
type switchWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

// SetLogLevel sets the minimum level of L and every logger derived from it.
func SetLogLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// SetOutput swaps the writer behind L. JSON output is used when json is true.
func SetOutput(w io.Writer, json bool) {
	if json {
		output.set(w)
		return
	}
	output.set(consoleWriter(w))
}

func consoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
}

// NewConsoleLogger creates a human readable logger writing to w.
func NewConsoleLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(consoleWriter(w)).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// ParseLevel converts a config string to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return L.With().Str("component", name).Logger()
}
