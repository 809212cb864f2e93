package lazytext

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
	LogOff
)

func (l LogLevel) String() string {
	switch l {
	case LogDebug:
		return "DEBUG"
	case LogInfo:
		return "INFO"
	case LogWarn:
		return "WARN"
	case LogError:
		return "ERROR"
	case LogOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// slogLevel maps a LogLevel onto the slog scale. LogOff sits above every
// level slog emits.
func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogInfo:
		return slog.LevelInfo
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelError + 4
	}
}

type Fields map[string]interface{}

// Logger is a leveled logger with structured fields, backed by a
// slog.TextHandler. Derived loggers share the level of their parent.
type Logger struct {
	level  *slog.LevelVar
	handle *slog.Logger
	fields Fields
	mu     *sync.Mutex
}

var (
	globalLogger     *Logger
	globalLoggerOnce sync.Once
	globalLoggerMu   sync.RWMutex
)

func initGlobalLogger() {
	globalLoggerOnce.Do(func() {
		config := GetGlobalConfig()
		level := ParseLogLevel(config.LogLevel)
		globalLoggerMu.Lock()
		globalLogger = NewLogger(os.Stderr, level)
		globalLoggerMu.Unlock()
	})
}

// ParseLogLevel maps a config level name to a LogLevel. Unknown names
// give LogInfo.
func ParseLogLevel(levelStr string) LogLevel {
	switch levelStr {
	case "debug":
		return LogDebug
	case "info":
		return LogInfo
	case "warn":
		return LogWarn
	case "error":
		return LogError
	case "off":
		return LogOff
	default:
		return LogInfo
	}
}

func NewLogger(w io.Writer, level LogLevel) *Logger {
	if w == nil {
		w = io.Discard
	}
	levelVar := new(slog.LevelVar)
	levelVar.Set(level.slogLevel())
	return &Logger{
		level:  levelVar,
		handle: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar})),
		fields: make(Fields),
		mu:     new(sync.Mutex),
	}
}

func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level.Set(level.slogLevel())
}

func (l *Logger) IsDebugMode() bool {
	return l.handle.Enabled(context.Background(), slog.LevelDebug)
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(Fields{key: value})
}

func (l *Logger) WithFields(fields Fields) *Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		merged[k] = v
		args = append(args, k, v)
	}
	return &Logger{
		level:  l.level,
		handle: l.handle.With(args...),
		fields: merged,
		mu:     l.mu,
	}
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	lvl := level.slogLevel()
	ctx := context.Background()
	if !l.handle.Enabled(ctx, lvl) {
		return
	}
	l.handle.Log(ctx, lvl, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LogDebug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LogInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LogWarn, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LogError, format, args...)
}

// Slog exposes the underlying slog.Logger for callers that log with
// attributes directly.
func (l *Logger) Slog() *slog.Logger {
	return l.handle
}

// Global logging functions
func SetLogger(logger *Logger) {
	initGlobalLogger()
	globalLoggerMu.Lock()
	globalLogger = logger
	globalLoggerMu.Unlock()
}

func GetLogger() *Logger {
	initGlobalLogger()
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

func Debug(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

func Info(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

func Warn(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

func Error(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}

func WithField(key string, value interface{}) *Logger {
	return GetLogger().WithField(key, value)
}

func WithFields(fields Fields) *Logger {
	return GetLogger().WithFields(fields)
}

// UpdateLoggerFromConfig updates the global logger based on the current global configuration
func UpdateLoggerFromConfig() {
	config := GetGlobalConfig()
	GetLogger().SetLevel(ParseLogLevel(config.LogLevel))
}
