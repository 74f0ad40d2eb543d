package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_JSONRecord(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithOutput(&buf))

	l.Info("device found", "path", "/dev/ttyUSB0", "relays", 4)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "device found", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "/dev/ttyUSB0", rec["path"])
	assert.EqualValues(t, 4, rec["relays"])
	assert.Contains(t, rec, "ts")
	assert.NotContains(t, rec, "time")
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithOutput(&buf), WithLevel(WarnLevel))
	assert.Equal(t, WarnLevel, l.Level())

	l.Debug("dropped")
	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")

	buf.Reset()
	l.SetLevel(DebugLevel)
	assert.Equal(t, DebugLevel, l.Level())
	l.Debug("now kept")
	assert.Contains(t, buf.String(), "now kept")
}

func TestNew_WithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := New(WithOutput(&buf))
	child := parent.With("module", "tcp://10.0.0.5:2000")

	child.Info("command sent")
	assert.Contains(t, buf.String(), `"module":"tcp://10.0.0.5:2000"`)

	buf.Reset()
	parent.SetLevel(ErrorLevel)
	child.Info("dropped")
	assert.Zero(t, buf.Len())
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithOutput(&buf), WithConsole())

	l.Error("command failed", "cmd", "[")
	out := buf.String()
	assert.Contains(t, out, "command failed")
	assert.False(t, strings.HasPrefix(out, "{"))
}

func TestNew_RotatingFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "relay.log")
	l := New(WithRotatingFile(file, 1, 2))
	l.Info("written to file")

	matches, err := filepath.Glob(file)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		ok    bool
	}{
		{"debug", DebugLevel, true},
		{"INFO", InfoLevel, true},
		{"warning", WarnLevel, true},
		{"error", ErrorLevel, true},
		{"fatal", FatalLevel, true},
		{"verbose", InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := ParseLevel(tt.name)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.ok, ok)
		})
	}

	assert.Equal(t, "warn", WarnLevel.String())
	assert.Equal(t, "unknown", Level(42).String())
}

func TestNewZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZap(zap.New(core))

	l.Debug("filtered by default level")
	l.Info("relay set", "relay", 3, "position", 1)
	l.With("module", "/dev/ttyUSB1").Warn("relay count fallback")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "relay set", entries[0].Message)
	assert.EqualValues(t, 3, entries[0].ContextMap()["relay"])
	assert.Equal(t, "/dev/ttyUSB1", entries[1].ContextMap()["module"])

	l.SetLevel(DebugLevel)
	assert.Equal(t, DebugLevel, l.Level())
	l.Debug("now visible")
	assert.Equal(t, 1, logs.FilterMessage("now visible").Len())
}

func TestDiscard(t *testing.T) {
	exited := 0
	prevExit := osExit
	osExit = func(code int) { exited = code }
	defer func() { osExit = prevExit }()

	l := Discard()
	l.Info("nothing")
	assert.Equal(t, l, l.With("k", "v"))
	l.Fatal("bye")
	assert.Equal(t, 1, exited)
}

func TestSetDefault(t *testing.T) {
	prev := GetLogger()
	defer SetDefault(prev)

	m := NewMockLogger()
	m.On("Info", "hello", []any{"k", "v"}).Once()
	SetDefault(m)
	SetDefault(nil)

	Info("hello", "k", "v")
	m.AssertExpectations(t)
}

func TestMockLogger(t *testing.T) {
	m := NewMockLogger()
	assert.Equal(t, DebugLevel, m.Level())

	m.On("Warn", "relay gone", []any{"addr", "/dev/ttyUSB0", "error", "eof"}).Once()
	m.ExpectLog(InfoLevel, "found").Once()

	child := m.With("addr", "/dev/ttyUSB0")
	child.Warn("relay gone", "error", "eof")
	m.Info("found", "relays", 4)

	m.SetLevel(ErrorLevel)
	assert.Equal(t, ErrorLevel, child.Level(), "children share the level")
	child.Debug("dropped")
	m.Info("dropped")

	m.AssertExpectations(t)
}
