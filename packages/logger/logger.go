// Package logger provides the leveled diagnostic logger used by the runner
// and the CLI.
//
// Messages are written as "[HH:MM:SS] [LEVEL] message". Levels below the
// configured one are dropped. Color is used only when the writer is a
// terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel converts a level name; unknown or empty names yield LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// LevelFromVerbosity maps a -v count: 0 info, 1 debug, 2 or more trace.
func LevelFromVerbosity(v int) Level {
	switch {
	case v >= 2:
		return LevelTrace
	case v == 1:
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Logger is the logging surface the rest of the module depends on.
type Logger interface {
	Tracef(format string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// ConsoleLogger writes leveled lines to a writer. It is safe for concurrent use.
type ConsoleLogger struct {
	mu     sync.Mutex
	writer io.Writer
	level  Level
	color  bool
	now    func() time.Time
}

type Option func(*ConsoleLogger)

// WithColor forces color on or off.
func WithColor(enabled bool) Option {
	return func(l *ConsoleLogger) {
		l.color = enabled
	}
}

// New creates a ConsoleLogger. A nil writer discards everything.
func New(w io.Writer, level Level, opts ...Option) *ConsoleLogger {
	l := &ConsoleLogger{
		writer: w,
		level:  level,
		color:  isTerminal(w),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (l *ConsoleLogger) Level() Level {
	return l.level
}

func (l *ConsoleLogger) Enabled(level Level) bool {
	return l.writer != nil && level >= l.level
}

func (l *ConsoleLogger) Tracef(format string, args ...any) { l.logf(LevelTrace, format, args...) }
func (l *ConsoleLogger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *ConsoleLogger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *ConsoleLogger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *ConsoleLogger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *ConsoleLogger) logf(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}

	msg := fmt.Sprintf(format, args...)
	tag := level.String()
	if l.color {
		tag = levelColor(level).Sprint(tag)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.writer, "[%s] [%s] %s\n", l.now().Format("15:04:05"), tag, msg)
}

func levelColor(level Level) *color.Color {
	var c *color.Color
	switch level {
	case LevelTrace:
		c = color.New(color.FgHiBlack)
	case LevelDebug:
		c = color.New(color.FgCyan)
	case LevelWarn:
		c = color.New(color.FgYellow)
	case LevelError:
		c = color.New(color.FgRed)
	default:
		c = color.New(color.FgBlue)
	}
	// the writer was already checked; don't let fatih/color second-guess it
	c.EnableColor()
	return c
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return New(nil, LevelError)
}
