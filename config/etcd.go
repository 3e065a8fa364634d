package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdSourceOptions etcd 配置来源选项。
type EtcdSourceOptions struct {
	// Prefix 拉取的键前缀，例如 "/config/app/"。
	Prefix string
	// Timeout 单次拉取超时，默认 5 秒。
	Timeout time.Duration
}

// etcdSource 从 etcd 拉取一棵配置树。
// 前缀之后的键按 "/" 分层；值若是合法 JSON 则解码后挂载，否则按字符串存放。
type etcdSource struct {
	client  *clientv3.Client
	options EtcdSourceOptions
}

// NewEtcdSource 创建 etcd 配置来源。
func NewEtcdSource(client *clientv3.Client, options EtcdSourceOptions) Source {
	if options.Timeout <= 0 {
		options.Timeout = 5 * time.Second
	}
	return &etcdSource{client: client, options: options}
}

func (s *etcdSource) Load() (map[string]any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.options.Timeout)
	defer cancel()

	resp, err := s.client.Get(ctx, s.options.Prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("config: etcd get %q: %w", s.options.Prefix, err)
	}

	out := map[string]any{}
	for _, kv := range resp.Kvs {
		key := strings.TrimPrefix(string(kv.Key), s.options.Prefix)
		key = strings.Trim(key, "/")
		if key == "" {
			continue
		}
		parts := strings.Split(key, "/")

		var decoded any
		if err := json.Unmarshal(kv.Value, &decoded); err != nil {
			decoded = string(kv.Value)
		}
		if m, ok := decoded.(map[string]any); ok {
			setNestedValue(out, parts, m)
		} else {
			setNestedValue(out, parts, decoded)
		}
	}
	return out, nil
}
