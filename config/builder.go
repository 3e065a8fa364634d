package config

import (
	clientv3 "go.etcd.io/etcd/client/v3"
)

// ConfigurationBuilder 按顺序收集配置来源，Build 时逐个加载并深合并。
type ConfigurationBuilder struct {
	sources []Source
}

// NewConfigurationBuilder 创建配置构建器。
func NewConfigurationBuilder() *ConfigurationBuilder {
	return &ConfigurationBuilder{}
}

// AddSource 添加自定义来源。
func (b *ConfigurationBuilder) AddSource(source Source) *ConfigurationBuilder {
	b.sources = append(b.sources, source)
	return b
}

// AddYamlFile 添加 YAML 文件来源。optional 时文件缺失不报错。
func (b *ConfigurationBuilder) AddYamlFile(path string, optional bool) *ConfigurationBuilder {
	return b.AddSource(yamlFileSource{path: path, optional: optional})
}

// AddJsonFile 添加 JSON 文件来源。
func (b *ConfigurationBuilder) AddJsonFile(path string, optional bool) *ConfigurationBuilder {
	return b.AddSource(jsonFileSource{path: path, optional: optional})
}

// AddEnvironmentVariables 添加带前缀的环境变量来源。
func (b *ConfigurationBuilder) AddEnvironmentVariables(prefix string) *ConfigurationBuilder {
	return b.AddSource(envSource{prefix: prefix})
}

// AddInMemory 添加程序内的键值来源，键可用 ":" 或 "." 分层。
func (b *ConfigurationBuilder) AddInMemory(values map[string]any) *ConfigurationBuilder {
	return b.AddSource(memorySource{values: values})
}

// AddEtcd 添加 etcd 来源。
func (b *ConfigurationBuilder) AddEtcd(client *clientv3.Client, options EtcdSourceOptions) *ConfigurationBuilder {
	return b.AddSource(NewEtcdSource(client, options))
}

// Build 加载全部来源并合并成最终配置，后添加的来源覆盖先添加的。
func (b *ConfigurationBuilder) Build() (Configuration, error) {
	merged := map[string]any{}
	for _, source := range b.sources {
		values, err := source.Load()
		if err != nil {
			return nil, err
		}
		merged = mergeMaps(merged, values)
	}
	return newConfiguration(merged), nil
}
