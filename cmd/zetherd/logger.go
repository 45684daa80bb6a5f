// logger.go - Structured logging for the zetherd node
package main

import (
	"fmt"
	"io"
	"os"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

// Logger writes to the console and an optional log file. Warnings and
// errors are copied to the audit log, as are explicit Audit events.
type Logger struct {
	zerolog.Logger

	audit zerolog.Logger
	files []*os.File
}

// levelFilter drops events below min.
type levelFilter struct {
	io.Writer
	min zerolog.Level
}

func (w levelFilter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < w.min {
		return len(p), nil
	}
	return w.Writer.Write(p)
}

// NewLogger creates a new logger instance. An unknown level selects info.
func NewLogger(level string, logFile string, auditFile string) (*Logger, error) {
	return newLogger(os.Stderr, level, logFile, auditFile)
}

func newLogger(console io.Writer, level string, logFile string, auditFile string) (*Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	l := &Logger{audit: zerolog.Nop()}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: "2006-01-02 15:04:05"}}

	if logFile != "" {
		f, err := openAppend(logFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.files = append(l.files, f)
		writers = append(writers, f)
	}

	if auditFile != "" {
		f, err := openAppend(auditFile)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("failed to open audit file: %w", err)
		}
		l.files = append(l.files, f)
		l.audit = zerolog.New(f).With().Timestamp().Logger()
		writers = append(writers, levelFilter{Writer: f, min: zerolog.WarnLevel})
	}

	l.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(lvl).With().Timestamp().Logger()
	return l, nil
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// RouteGnark sends gnark's compile and prove logs through l.
func (l *Logger) RouteGnark() {
	gnarklogger.Set(l.With().Str("component", "gnark").Logger())
}

// Close closes the logger and its files
func (l *Logger) Close() error {
	var first error
	for _, f := range l.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.files = nil
	return first
}

// Audit logs an audit event
func (l *Logger) Audit(event string, details map[string]interface{}) {
	l.audit.Info().Str("event", event).Fields(details).Msg("audit")
}
