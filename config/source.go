package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source 一个配置来源：加载出一棵嵌套的键值树。
type Source interface {
	Load() (map[string]any, error)
}

// yamlFileSource 从 YAML 文件加载。optional 时文件缺失不算错误。
type yamlFileSource struct {
	path     string
	optional bool
}

func (s yamlFileSource) Load() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if s.optional && os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", s.path, err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", s.path, err)
	}
	return normalizeTree(values), nil
}

// jsonFileSource 从 JSON 文件加载。
type jsonFileSource struct {
	path     string
	optional bool
}

func (s jsonFileSource) Load() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if s.optional && os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", s.path, err)
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", s.path, err)
	}
	return values, nil
}

// envSource 从环境变量加载。前缀被剥掉，"__" 是层级分隔符，键统一小写。
// 例如 APP_DATABASE__DSN=... 在前缀 "APP_" 下落到 database:dsn。
type envSource struct {
	prefix string
}

func (s envSource) Load() (map[string]any, error) {
	out := map[string]any{}
	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(key, s.prefix) {
			continue
		}
		trimmed := strings.TrimPrefix(key, s.prefix)
		if trimmed == "" {
			continue
		}
		parts := strings.Split(strings.ToLower(trimmed), "__")
		setNestedValue(out, parts, value)
	}
	return out, nil
}

// memorySource 程序内直接给出的值，多用于测试与缺省项。
type memorySource struct {
	values map[string]any
}

func (s memorySource) Load() (map[string]any, error) {
	out := map[string]any{}
	for key, value := range s.values {
		setNestedValue(out, splitPath(key), value)
	}
	return out, nil
}

// normalizeTree 把 yaml 解码出的 map[any]any 层级统一成 map[string]any。
func normalizeTree(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeTree(t)
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[fmt.Sprintf("%v", k)] = normalizeValue(vv)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = normalizeValue(vv)
		}
		return out
	}
	return v
}
