package utils

import (
	"io"
	"os"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

// Logger provides leveled logging throughout the application. Every entry is
// written to stdout and kept in a run buffer until Drain is called.
type Logger struct {
	log *charmlog.Logger
	buf *runBuffer
}

// NewLogger creates a Logger writing to stdout at info level.
func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout)
}

// NewLoggerTo creates a Logger writing to w in addition to the run buffer.
func NewLoggerTo(w io.Writer) *Logger {
	buf := &runBuffer{}
	l := charmlog.NewWithOptions(io.MultiWriter(w, buf), charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Level:           charmlog.InfoLevel,
	})
	return &Logger{log: l, buf: buf}
}

// SetLevel accepts debug, info, warn or error. Unknown levels are ignored.
func (l *Logger) SetLevel(level string) {
	lvl, err := charmlog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		l.Warn("[logger] Unknown log level %q, keeping %s", level, l.log.GetLevel())
		return
	}
	l.log.SetLevel(lvl)
}

func (l *Logger) Info(format string, args ...any) {
	l.log.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.log.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.log.Debugf(format, args...)
}

// Drain returns the lines buffered since the previous call and resets the
// buffer.
func (l *Logger) Drain() []string {
	return l.buf.drain()
}

type runBuffer struct {
	mu    sync.Mutex
	lines []string
}

func (b *runBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		b.lines = append(b.lines, line)
	}
	return len(p), nil
}

func (b *runBuffer) drain() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.lines
	b.lines = nil
	return out
}
