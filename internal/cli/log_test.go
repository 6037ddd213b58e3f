package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("test") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("hoisting", "package", "b@1.0.0") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("hoisting", "package", "b@1.0.0") }, true},
		{"warn at info level", log.InfoLevel, func(l *log.Logger) { l.Warn("skipping inconsistent branch") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			assert.Equal(t, tt.wantLog, buf.Len() > 0)
		})
	}
}

func TestCLISetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	c.Logger.Debug("hidden")
	assert.Zero(t, buf.Len())

	c.SetLogLevel(LogDebug)
	c.Logger.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))

	prog.done("Computed ideal tree", "moves", 3)

	out := buf.String()
	assert.Contains(t, out, "Computed ideal tree")
	assert.Contains(t, out, "moves=3")
	assert.Contains(t, out, "elapsed=")
}

func TestLoggerFromContext(t *testing.T) {
	assert.NotNil(t, loggerFromContext(context.Background()), "falls back to the default logger")

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	got := loggerFromContext(withLogger(context.Background(), custom))
	assert.Same(t, custom, got)

	got.Info("test")
	assert.NotZero(t, buf.Len())
}
