package logging

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// event 一条待输出的日志记录
type event struct {
	Time     time.Time
	Level    LogLevel
	Category string
	Message  string
	Fields   []Field
}

// Formatter 把日志记录转成一行文本
type Formatter interface {
	Format(e event) string
}

// TextFormatter 人类可读的单行文本格式
type TextFormatter struct {
	// TimestampFormat 为空则省略时间戳
	TimestampFormat string
	// ColorOutput 给级别上色（仅适合终端）
	ColorOutput bool
}

func (f TextFormatter) Format(e event) string {
	var b strings.Builder
	if f.TimestampFormat != "" {
		b.WriteString(e.Time.Format(f.TimestampFormat))
		b.WriteByte(' ')
	}
	if f.ColorOutput {
		b.WriteString(colorize(e.Level, e.Level.String()))
	} else {
		b.WriteString(e.Level.String())
	}
	if e.Category != "" {
		b.WriteString(" [")
		b.WriteString(e.Category)
		b.WriteByte(']')
	}
	b.WriteByte(' ')
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		b.WriteString(" {")
		for i, field := range e.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", field.Key, field.Value)
		}
		b.WriteByte('}')
	}
	return b.String()
}

// JSONFormatter 每行一个 JSON 对象，便于采集
type JSONFormatter struct{}

func (JSONFormatter) Format(e event) string {
	payload := map[string]any{
		"time":    e.Time.Format(time.RFC3339Nano),
		"level":   e.Level.String(),
		"message": e.Message,
	}
	if e.Category != "" {
		payload["category"] = e.Category
	}
	for _, field := range e.Fields {
		payload[field.Key] = field.Value
	}
	data, err := json.Marshal(payload)
	if err != nil {
		// 字段里混入了无法序列化的值，退化为文本输出
		return TextFormatter{}.Format(e)
	}
	return string(data)
}

// colorize 为日志级别添加 ANSI 颜色
func colorize(level LogLevel, text string) string {
	const reset = "\033[0m"

	var color string
	switch level {
	case LogLevelTrace:
		color = "\033[90m"
	case LogLevelDebug:
		color = "\033[36m"
	case LogLevelInfo:
		color = "\033[32m"
	case LogLevelWarn:
		color = "\033[33m"
	case LogLevelError:
		color = "\033[31m"
	case LogLevelFatal:
		color = "\033[35m"
	default:
		return text
	}
	return color + text + reset
}
