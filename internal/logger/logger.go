// Package logger provides the logging interface used by hoststats components.
//
// Each process builds exactly one Logger at its entry point and passes it down
// to the components it constructs. Components derive named children with
// Named so output can be attributed without a global logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	// Named returns a child logger whose entries carry the given name.
	Named(name string) Logger
}

// Options configures New.
type Options struct {
	// Debug enables debug-level output and the detailed line format
	// (timestamp, level, logger name). Otherwise only the message is printed.
	Debug bool
	// Name is the root logger name, e.g. "collector".
	Name string
	// Output defaults to os.Stdout.
	Output io.Writer
}

// Zap is the production Logger backed by a zap SugaredLogger.
type Zap struct {
	sugar *zap.SugaredLogger
}

// New builds a zap-backed Logger.
func New(opts Options) *Zap {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	level := zapcore.InfoLevel
	encCfg := zapcore.EncoderConfig{
		MessageKey: "msg",
		LineEnding: zapcore.DefaultLineEnding,
	}
	if opts.Debug {
		level = zapcore.DebugLevel
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.CallerKey = ""
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(out), level)
	l := zap.New(core)
	if opts.Name != "" {
		l = l.Named(opts.Name)
	}
	return &Zap{sugar: l.Sugar()}
}

func (z *Zap) Debug(format string, args ...interface{}) { z.sugar.Debugf(format, args...) }
func (z *Zap) Info(format string, args ...interface{})  { z.sugar.Infof(format, args...) }
func (z *Zap) Warn(format string, args ...interface{})  { z.sugar.Warnf(format, args...) }
func (z *Zap) Error(format string, args ...interface{}) { z.sugar.Errorf(format, args...) }

// Named returns a child logger.
func (z *Zap) Named(name string) Logger {
	return &Zap{sugar: z.sugar.Named(name)}
}

// Sync flushes buffered entries. Call before the process exits.
func (z *Zap) Sync() error {
	return z.sugar.Sync()
}

// noopLogger implements Logger but discards all messages.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(format string, args ...interface{}) {}
func (noopLogger) Info(format string, args ...interface{})  {}
func (noopLogger) Warn(format string, args ...interface{})  {}
func (noopLogger) Error(format string, args ...interface{}) {}
func (n noopLogger) Named(string) Logger                    { return n }

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Name    string
	Message string
}

// BufferLogger captures log messages for testing. It is safe for concurrent
// use, since the broadcast hub logs from per-peer goroutines.
type BufferLogger struct {
	mu       *sync.Mutex
	messages *[]LogMessage
	name     string
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	msgs := make([]LogMessage, 0)
	return &BufferLogger{mu: &sync.Mutex{}, messages: &msgs}
}

func (l *BufferLogger) record(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.messages = append(*l.messages, LogMessage{Level: level, Name: l.name, Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.record("debug", format, args...) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.record("info", format, args...) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.record("warn", format, args...) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.record("error", format, args...) }

// Named returns a child that shares the parent's message buffer.
func (l *BufferLogger) Named(name string) Logger {
	child := *l
	if l.name != "" {
		child.name = l.name + "." + name
	} else {
		child.name = name
	}
	return &child
}

// Messages returns a copy of everything captured so far.
func (l *BufferLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(*l.messages))
	copy(out, *l.messages)
	return out
}

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	for _, m := range l.Messages() {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Count returns how many messages were logged at the given level.
func (l *BufferLogger) Count(level string) int {
	n := 0
	for _, m := range l.Messages() {
		if m.Level == level {
			n++
		}
	}
	return n
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.messages = (*l.messages)[:0]
}
