// Package config 提供分层配置：多个来源按添加顺序合并，后来者覆盖先前者。
// 键路径用 ":" 或 "." 分隔，值可按路径绑定到结构体。
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Configuration 只读配置视图。
type Configuration interface {
	// Get 返回路径对应的原始值，不存在时返回 nil。
	Get(key string) any
	// GetString 返回字符串值，缺失或类型不符时返回默认值。
	GetString(key string, defaultValue ...string) string
	// GetInt 返回整数值，缺失或无法解释时返回默认值。
	GetInt(key string, defaultValue ...int) int
	// GetBool 返回布尔值，缺失或无法解释时返回默认值。
	GetBool(key string, defaultValue ...bool) bool
	// GetFloat 返回浮点值，缺失或无法解释时返回默认值。
	GetFloat(key string, defaultValue ...float64) float64
	// Exists 报告路径是否存在。
	Exists(key string) bool
	// Bind 把路径下的子树绑定到 target（结构体指针），经由 JSON 往返。
	Bind(key string, target any) error
	// Section 返回以该路径为根的子配置，路径不存在时返回空配置。
	Section(key string) Configuration
}

// configuration 合并完成的不可变配置树。
type configuration struct {
	values map[string]any
}

func newConfiguration(values map[string]any) *configuration {
	if values == nil {
		values = map[string]any{}
	}
	return &configuration{values: values}
}

// splitPath 同时接受 ":" 与 "." 作为层级分隔符。
func splitPath(key string) []string {
	return strings.FieldsFunc(key, func(r rune) bool {
		return r == ':' || r == '.'
	})
}

func (c *configuration) lookup(key string) (any, bool) {
	parts := splitPath(key)
	if len(parts) == 0 {
		return nil, false
	}
	var current any = c.values
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func (c *configuration) Get(key string) any {
	v, _ := c.lookup(key)
	return v
}

func (c *configuration) Exists(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

func (c *configuration) GetString(key string, defaultValue ...string) string {
	fallback := ""
	if len(defaultValue) > 0 {
		fallback = defaultValue[0]
	}
	v, ok := c.lookup(key)
	if !ok {
		return fallback
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case int, int64, float64, bool:
		return fmt.Sprintf("%v", s)
	}
	return fallback
}

func (c *configuration) GetInt(key string, defaultValue ...int) int {
	fallback := 0
	if len(defaultValue) > 0 {
		fallback = defaultValue[0]
	}
	v, ok := c.lookup(key)
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return parsed
		}
	}
	return fallback
}

func (c *configuration) GetBool(key string, defaultValue ...bool) bool {
	fallback := false
	if len(defaultValue) > 0 {
		fallback = defaultValue[0]
	}
	v, ok := c.lookup(key)
	if !ok {
		return fallback
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return parsed
		}
	}
	return fallback
}

func (c *configuration) GetFloat(key string, defaultValue ...float64) float64 {
	fallback := 0.0
	if len(defaultValue) > 0 {
		fallback = defaultValue[0]
	}
	v, ok := c.lookup(key)
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func (c *configuration) Bind(key string, target any) error {
	v, ok := c.lookup(key)
	if !ok {
		return fmt.Errorf("config: key %q not found", key)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("config: marshal %q: %w", key, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("config: bind %q: %w", key, err)
	}
	return nil
}

func (c *configuration) Section(key string) Configuration {
	v, ok := c.lookup(key)
	if !ok {
		return newConfiguration(nil)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return newConfiguration(nil)
	}
	return newConfiguration(m)
}

// mergeMaps 深合并：overlay 覆盖 base，两边都是 map 时递归。
func mergeMaps(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		if existing, ok := out[k]; ok {
			if em, ok1 := existing.(map[string]any); ok1 {
				if om, ok2 := v.(map[string]any); ok2 {
					out[k] = mergeMaps(em, om)
					continue
				}
			}
		}
		out[k] = v
	}
	return out
}

// setNestedValue 沿路径写入值，途中缺失的层级按需创建。
func setNestedValue(root map[string]any, parts []string, value any) {
	current := root
	for i, part := range parts {
		if i == len(parts)-1 {
			current[part] = value
			return
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
}
