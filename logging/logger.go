package logging

import (
	"os"
	"sync"
)

// LogLevel 日志级别
type LogLevel int

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelFatal
)

// String 返回日志级别的字符串表示
func (l LogLevel) String() string {
	switch l {
	case LogLevelTrace:
		return "TRACE"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Field 日志字段
type Field struct {
	Key   string
	Value any
}

// Err 把 error 转成统一的 error 字段。
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Logger 日志接口
type Logger interface {
	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	Log(level LogLevel, msg string, fields ...Field)
	WithFields(fields ...Field) Logger
	WithCategory(category string) Logger
}

// LoggerFactory 日志工厂接口
type LoggerFactory interface {
	CreateLogger(category string) Logger
	AddProvider(provider LoggerProvider)
	SetMinimumLevel(level LogLevel)
}

// LoggerProvider 日志提供者接口
type LoggerProvider interface {
	CreateLogger(category string) Logger
	SetMinimumLevel(level LogLevel)
}

// levelLogger 把六个级别方法收敛到一个 Log 调用上，供各实现嵌入复用。
type levelLogger struct {
	sink func(level LogLevel, msg string, fields ...Field)
}

func (l levelLogger) Trace(msg string, fields ...Field) { l.sink(LogLevelTrace, msg, fields...) }
func (l levelLogger) Debug(msg string, fields ...Field) { l.sink(LogLevelDebug, msg, fields...) }
func (l levelLogger) Info(msg string, fields ...Field)  { l.sink(LogLevelInfo, msg, fields...) }
func (l levelLogger) Warn(msg string, fields ...Field)  { l.sink(LogLevelWarn, msg, fields...) }
func (l levelLogger) Error(msg string, fields ...Field) { l.sink(LogLevelError, msg, fields...) }

func (l levelLogger) Fatal(msg string, fields ...Field) {
	l.sink(LogLevelFatal, msg, fields...)
	os.Exit(1)
}

func (l levelLogger) Log(level LogLevel, msg string, fields ...Field) {
	l.sink(level, msg, fields...)
}

// loggerFactory 日志工厂实现
type loggerFactory struct {
	providers    []LoggerProvider
	minimumLevel LogLevel
	mu           sync.RWMutex
}

func (f *loggerFactory) CreateLogger(category string) Logger {
	f.mu.RLock()
	defer f.mu.RUnlock()

	loggers := make([]Logger, 0, len(f.providers))
	for _, provider := range f.providers {
		loggers = append(loggers, provider.CreateLogger(category))
	}
	return newCompositeLogger(loggers, f.minimumLevel, category, nil)
}

func (f *loggerFactory) AddProvider(provider LoggerProvider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	provider.SetMinimumLevel(f.minimumLevel)
	f.providers = append(f.providers, provider)
}

func (f *loggerFactory) SetMinimumLevel(level LogLevel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minimumLevel = level
	for _, provider := range f.providers {
		provider.SetMinimumLevel(level)
	}
}

// compositeLogger 组合日志记录器（将日志扇出到多个提供者）
type compositeLogger struct {
	levelLogger
	loggers      []Logger
	minimumLevel LogLevel
	category     string
	fields       []Field
}

func newCompositeLogger(loggers []Logger, minimumLevel LogLevel, category string, fields []Field) *compositeLogger {
	l := &compositeLogger{
		loggers:      loggers,
		minimumLevel: minimumLevel,
		category:     category,
		fields:       fields,
	}
	l.levelLogger = levelLogger{sink: l.log}
	return l
}

func (l *compositeLogger) log(level LogLevel, msg string, fields ...Field) {
	if level < l.minimumLevel {
		return
	}
	merged := mergeFields(l.fields, fields)
	for _, logger := range l.loggers {
		logger.Log(level, msg, merged...)
	}
}

func (l *compositeLogger) WithFields(fields ...Field) Logger {
	return newCompositeLogger(l.loggers, l.minimumLevel, l.category, mergeFields(l.fields, fields))
}

func (l *compositeLogger) WithCategory(category string) Logger {
	return newCompositeLogger(l.loggers, l.minimumLevel, category, l.fields)
}

// mergeFields 合并父级字段与本次调用字段，始终返回新切片。
func mergeFields(base, extra []Field) []Field {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make([]Field, 0, len(base)+len(extra))
	merged = append(merged, base...)
	merged = append(merged, extra...)
	return merged
}

// nopLogger 丢弃所有输出。注册表在未配置日志时使用它。
type nopLogger struct{}

// NewNopLogger 返回丢弃一切的 Logger。
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Trace(string, ...Field)           {}
func (nopLogger) Debug(string, ...Field)           {}
func (nopLogger) Info(string, ...Field)            {}
func (nopLogger) Warn(string, ...Field)            {}
func (nopLogger) Error(string, ...Field)           {}
func (nopLogger) Fatal(string, ...Field)           {}
func (nopLogger) Log(LogLevel, string, ...Field)   {}
func (nopLogger) WithFields(...Field) Logger       { return nopLogger{} }
func (nopLogger) WithCategory(string) Logger       { return nopLogger{} }
