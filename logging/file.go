package logging

import (
	"fmt"
	"os"
	"sync"
)

// FileLoggerOptions 文件日志选项
type FileLoggerOptions struct {
	Path string
	// JSON 输出 JSON 行而非文本行
	JSON bool
}

// FileLoggerProvider 文件日志提供者
type FileLoggerProvider struct {
	options      FileLoggerOptions
	minimumLevel LogLevel
	out          *lockedWriter
	mu           sync.Mutex
}

func NewFileLoggerProvider(options FileLoggerOptions) *FileLoggerProvider {
	return &FileLoggerProvider{
		options:      options,
		minimumLevel: LogLevelInfo,
	}
}

func (p *FileLoggerProvider) CreateLogger(category string) Logger {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.out == nil {
		file, err := os.OpenFile(p.options.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logging: open %s: %v, falling back to stderr\n", p.options.Path, err)
			p.out = &lockedWriter{w: os.Stderr}
		} else {
			p.out = &lockedWriter{w: file}
		}
	}

	var formatter Formatter
	if p.options.JSON {
		formatter = JSONFormatter{}
	} else {
		formatter = TextFormatter{TimestampFormat: "2006-01-02 15:04:05"}
	}
	return newWriterLogger(p.out, formatter, p.minimumLevel, category, nil)
}

func (p *FileLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minimumLevel = level
}
