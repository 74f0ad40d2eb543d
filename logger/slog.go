package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/phsym/console-slog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SlogLogger is the log/slog backed Logger returned by New.
type SlogLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

var _ Logger = (*SlogLogger)(nil)

type slogOptions struct {
	level     Level
	addSource bool
	console   bool
	output    io.Writer
}

// Option configures a logger created by New.
type Option func(*slogOptions)

// WithLevel sets the initial minimum level. The default is InfoLevel.
func WithLevel(level Level) Option {
	return func(o *slogOptions) { o.level = level }
}

// WithSource adds the source file and line of the log call to each record.
func WithSource() Option {
	return func(o *slogOptions) { o.addSource = true }
}

// WithConsole switches from JSON records to human readable, colorized console output.
func WithConsole() Option {
	return func(o *slogOptions) { o.console = true }
}

// WithOutput sets the destination of log records. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *slogOptions) {
		if w != nil {
			o.output = w
		}
	}
}

// WithRotatingFile writes records to filename, rotating it once it reaches maxSizeMB
// megabytes and keeping at most maxBackups old files.
func WithRotatingFile(filename string, maxSizeMB int, maxBackups int) Option {
	return func(o *slogOptions) {
		o.output = &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
		}
	}
}

// New creates a slog based Logger.
//
// Records are written as JSON with the time key renamed to "ts", unless WithConsole is given
// or the TOSR0X_ENV environment variable is set to "development".
func New(opts ...Option) Logger {
	o := &slogOptions{
		level:  InfoLevel,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if os.Getenv("TOSR0X_ENV") == "development" {
		o.console = true
		o.addSource = true
	}

	inst := &SlogLogger{level: &slog.LevelVar{}}
	inst.level.Set(toSlogLevel(o.level))

	var handler slog.Handler
	if o.console {
		handler = console.NewHandler(o.output, &console.HandlerOptions{
			AddSource: o.addSource,
			Level:     inst.level,
		})
	} else {
		handler = slog.NewJSONHandler(o.output, &slog.HandlerOptions{
			AddSource: o.addSource,
			Level:     inst.level,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					a.Key = "ts"
				}
				return a
			},
		})
	}
	inst.logger = slog.New(handler)

	return inst
}

func (l *SlogLogger) Debug(msg string, keysAndValues ...any) {
	l.log(slog.LevelDebug, msg, keysAndValues...)
}

func (l *SlogLogger) Info(msg string, keysAndValues ...any) {
	l.log(slog.LevelInfo, msg, keysAndValues...)
}

func (l *SlogLogger) Warn(msg string, keysAndValues ...any) {
	l.log(slog.LevelWarn, msg, keysAndValues...)
}

func (l *SlogLogger) Error(msg string, keysAndValues ...any) {
	l.log(slog.LevelError, msg, keysAndValues...)
}

func (l *SlogLogger) Fatal(msg string, keysAndValues ...any) {
	l.log(slog.LevelError, msg, keysAndValues...)
	osExit(1)
}

// With returns a child logger sharing the level of its parent.
func (l *SlogLogger) With(keyValues ...any) Logger {
	return &SlogLogger{
		logger: l.logger.With(keyValues...),
		level:  l.level,
	}
}

func (l *SlogLogger) Level() Level {
	switch lv := l.level.Level(); {
	case lv <= slog.LevelDebug:
		return DebugLevel
	case lv <= slog.LevelInfo:
		return InfoLevel
	case lv <= slog.LevelWarn:
		return WarnLevel
	default:
		return ErrorLevel
	}
}

func (l *SlogLogger) SetLevel(level Level) {
	l.level.Set(toSlogLevel(level))
}

// log must always be called directly by an exported logging method,
// because it uses a fixed call depth to obtain the pc.
func (l *SlogLogger) log(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	// skip [runtime.Callers, this function, this function's caller]
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.logger.Handler().Handle(ctx, r)
}

func toSlogLevel(level Level) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
