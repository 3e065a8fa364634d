package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ConsoleLoggerOptions 控制台日志选项
type ConsoleLoggerOptions struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
	Output           io.Writer
	// JSON 输出 JSON 行而非文本行
	JSON bool
}

// ConsoleLoggerProvider 控制台日志提供者
type ConsoleLoggerProvider struct {
	options      ConsoleLoggerOptions
	minimumLevel LogLevel
	out          *lockedWriter
	mu           sync.RWMutex
}

func NewConsoleLoggerProvider(options ConsoleLoggerOptions) *ConsoleLoggerProvider {
	if options.Output == nil {
		options.Output = os.Stdout
	}
	return &ConsoleLoggerProvider{
		options:      options,
		minimumLevel: LogLevelInfo,
		out:          &lockedWriter{w: options.Output},
	}
}

func (p *ConsoleLoggerProvider) CreateLogger(category string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var formatter Formatter
	if p.options.JSON {
		formatter = JSONFormatter{}
	} else {
		tsFormat := ""
		if p.options.IncludeTimestamp {
			tsFormat = p.options.TimestampFormat
			if tsFormat == "" {
				tsFormat = "2006-01-02 15:04:05"
			}
		}
		formatter = TextFormatter{TimestampFormat: tsFormat, ColorOutput: p.options.ColorOutput}
	}
	return newWriterLogger(p.out, formatter, p.minimumLevel, category, nil)
}

func (p *ConsoleLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minimumLevel = level
}

// lockedWriter 串行化对底层 writer 的并发写入，同一提供者的所有 logger 共享
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) writeLine(line string) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	fmt.Fprintln(lw.w, line)
}

// writerLogger 面向任意 writer 的日志实现，控制台与文件共用
type writerLogger struct {
	levelLogger
	out          *lockedWriter
	formatter    Formatter
	minimumLevel LogLevel
	category     string
	fields       []Field
}

func newWriterLogger(out *lockedWriter, formatter Formatter, minimumLevel LogLevel, category string, fields []Field) *writerLogger {
	l := &writerLogger{
		out:          out,
		formatter:    formatter,
		minimumLevel: minimumLevel,
		category:     category,
		fields:       fields,
	}
	l.levelLogger = levelLogger{sink: l.log}
	return l
}

func (l *writerLogger) log(level LogLevel, msg string, fields ...Field) {
	if level < l.minimumLevel {
		return
	}
	l.out.writeLine(l.formatter.Format(event{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Message:  msg,
		Fields:   mergeFields(l.fields, fields),
	}))
}

func (l *writerLogger) WithFields(fields ...Field) Logger {
	return newWriterLogger(l.out, l.formatter, l.minimumLevel, l.category, mergeFields(l.fields, fields))
}

func (l *writerLogger) WithCategory(category string) Logger {
	return newWriterLogger(l.out, l.formatter, l.minimumLevel, category, l.fields)
}
