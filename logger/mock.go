package logger

import (
	"slices"
	"sync/atomic"

	"github.com/stretchr/testify/mock"
)

// MockLogger is a testify mock of Logger.
//
// A record is matched against the method named after its level ("Debug", "Info",
// "Warn", "Error", "Fatal") with two arguments: the message and a single []any of
// keys and values. Pairs added through With come first in that slice. Children
// returned by With share the expectations of their parent.
//
// Records below the level given to SetLevel are dropped before matching. The
// default level is DebugLevel.
type MockLogger struct {
	*mock.Mock

	level  *atomic.Int32
	fields []any
}

var _ Logger = (*MockLogger)(nil)

func NewMockLogger() *MockLogger {
	level := &atomic.Int32{}
	level.Store(int32(DebugLevel))

	return &MockLogger{Mock: &mock.Mock{}, level: level}
}

// ExpectLog registers an expectation for one record at level with msg, whatever its
// keys and values.
func (m *MockLogger) ExpectLog(level Level, msg string) *mock.Call {
	return m.On(methodFor(level), msg, mock.Anything)
}

func (m *MockLogger) Debug(msg string, keysAndValues ...any) {
	m.record(DebugLevel, msg, keysAndValues)
}

func (m *MockLogger) Info(msg string, keysAndValues ...any) {
	m.record(InfoLevel, msg, keysAndValues)
}

func (m *MockLogger) Warn(msg string, keysAndValues ...any) {
	m.record(WarnLevel, msg, keysAndValues)
}

func (m *MockLogger) Error(msg string, keysAndValues ...any) {
	m.record(ErrorLevel, msg, keysAndValues)
}

// Fatal is recorded like the other levels; it does not exit.
func (m *MockLogger) Fatal(msg string, keysAndValues ...any) {
	m.record(FatalLevel, msg, keysAndValues)
}

func (m *MockLogger) Level() Level {
	return Level(m.level.Load())
}

func (m *MockLogger) SetLevel(level Level) {
	m.level.Store(int32(level))
}

// With returns a child logger that prefixes keyValues to every record.
func (m *MockLogger) With(keyValues ...any) Logger {
	return &MockLogger{
		Mock:   m.Mock,
		level:  m.level,
		fields: append(slices.Clone(m.fields), keyValues...),
	}
}

func (m *MockLogger) record(level Level, msg string, keysAndValues []any) {
	if level < m.Level() {
		return
	}

	kv := append(slices.Clone(m.fields), keysAndValues...)
	m.MethodCalled(methodFor(level), msg, kv)
}

func methodFor(level Level) string {
	switch level {
	case DebugLevel:
		return "Debug"
	case InfoLevel:
		return "Info"
	case WarnLevel:
		return "Warn"
	case ErrorLevel:
		return "Error"
	default:
		return "Fatal"
	}
}
