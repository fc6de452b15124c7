// Package logging provides the pipeline's structured-ish key/value logger.
// It stays deliberately close to the standard library: a prefixed
// log.Logger with Info/Warn/Error/Debug helpers that append "key=value"
// pairs, matching this codebase's usual style rather than reaching for a
// structured-logging framework.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Logger provides leveled, prefixed logging for one pipeline component.
type Logger struct {
	prefix string
	logger *log.Logger
}

// NewLogger creates a logger writing to stdout with the given prefix.
func NewLogger(prefix string) *Logger {
	return &Logger{
		prefix: prefix,
		logger: log.New(os.Stdout, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}
}

// NewFileLogger creates a logger writing to both stdout and the named log
// file under dir (creating dir if needed). The CLI uses it for
// logs/pipeline.log under the output directory (spec.md §6); no per-worker
// log files are written.
func NewFileLogger(prefix, dir, filename string) (*Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	w := io.MultiWriter(os.Stdout, f)
	return &Logger{
		prefix: prefix,
		logger: log.New(w, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}, f, nil
}

func (l *Logger) Info(msg string, keysAndValues ...interface{})  { l.logWithKV("INFO", msg, keysAndValues...) }
func (l *Logger) Warn(msg string, keysAndValues ...interface{})  { l.logWithKV("WARN", msg, keysAndValues...) }
func (l *Logger) Error(msg string, keysAndValues ...interface{}) { l.logWithKV("ERROR", msg, keysAndValues...) }
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) { l.logWithKV("DEBUG", msg, keysAndValues...) }

func (l *Logger) logWithKV(level, msg string, keysAndValues ...interface{}) {
	kvStr := ""
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			kvStr += fmt.Sprintf(" %v=%v", keysAndValues[i], keysAndValues[i+1])
		}
	}
	l.logger.Printf("[%s] %s%s", level, msg, kvStr)
}
