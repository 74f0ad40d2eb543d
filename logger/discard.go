package logger

import "os"

// osExit is replaced in tests.
var osExit = os.Exit

type discardLogger struct{}

// Discard returns a Logger that drops every record. Fatal still exits the process.
func Discard() Logger {
	return discardLogger{}
}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}

func (discardLogger) Fatal(string, ...any) {
	osExit(1)
}

func (d discardLogger) With(...any) Logger { return d }
func (discardLogger) Level() Level         { return FatalLevel }
func (discardLogger) SetLevel(Level)       {}
