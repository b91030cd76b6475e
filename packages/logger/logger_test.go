package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedLogger(buf *bytes.Buffer, level Level, opts ...Option) *ConsoleLogger {
	l := New(buf, level, opts...)
	l.now = func() time.Time { return time.Date(2025, 1, 2, 13, 4, 5, 0, time.UTC) }
	return l
}

func TestLevelFiltering(t *testing.T) {
	emit := map[Level]func(*ConsoleLogger){
		LevelTrace: func(l *ConsoleLogger) { l.Tracef("msg") },
		LevelDebug: func(l *ConsoleLogger) { l.Debugf("msg") },
		LevelInfo:  func(l *ConsoleLogger) { l.Infof("msg") },
		LevelWarn:  func(l *ConsoleLogger) { l.Warnf("msg") },
		LevelError: func(l *ConsoleLogger) { l.Errorf("msg") },
	}

	for configured := LevelTrace; configured <= LevelError; configured++ {
		for message := LevelTrace; message <= LevelError; message++ {
			name := configured.String() + " logger, " + message.String() + " message"
			t.Run(name, func(t *testing.T) {
				buf := &bytes.Buffer{}
				emit[message](fixedLogger(buf, configured))
				assert.Equal(t, message >= configured, buf.Len() > 0)
			})
		}
	}
}

func TestFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	fixedLogger(buf, LevelInfo).Warnf("health check returned %d", 503)
	assert.Equal(t, "[13:04:05] [WARN] health check returned 503\n", buf.String())
}

func TestColor(t *testing.T) {
	buf := &bytes.Buffer{}
	fixedLogger(buf, LevelInfo).Errorf("plain")
	assert.NotContains(t, buf.String(), "\x1b[")

	buf.Reset()
	fixedLogger(buf, LevelInfo, WithColor(true)).Errorf("colored")
	assert.Contains(t, buf.String(), "\x1b[31m")
	assert.True(t, strings.HasSuffix(buf.String(), "colored\n"))
}

func TestNilWriter(t *testing.T) {
	l := New(nil, LevelTrace)
	assert.False(t, l.Enabled(LevelError))
	l.Errorf("dropped")

	Nop().Errorf("dropped")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelTrace, ParseLevel("TRACE"))
	assert.Equal(t, LevelDebug, ParseLevel(" debug "))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("loud"))
}

func TestLevelFromVerbosity(t *testing.T) {
	assert.Equal(t, LevelInfo, LevelFromVerbosity(0))
	assert.Equal(t, LevelDebug, LevelFromVerbosity(1))
	assert.Equal(t, LevelTrace, LevelFromVerbosity(2))
	assert.Equal(t, LevelTrace, LevelFromVerbosity(5))
}
