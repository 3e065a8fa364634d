package registry

import "github.com/gocrud/factory/logging"

// Option 配置 Registry。
type Option func(*Registry)

// WithLogger 设置注册与解析过程的日志记录器。
func WithLogger(logger logging.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithScanner 替换生产者方法扫描器。
func WithScanner(scanner MethodScanner) Option {
	return func(r *Registry) {
		if scanner != nil {
			r.scanner = scanner
		}
	}
}

// providerOptions 单个提供者的注册选项。
type providerOptions struct {
	optional bool
}

// ProviderOption 配置单次 RegisterFunc 注册。
type ProviderOption func(*providerOptions)

// WithOptional 声明可选生产者：产出 nil 时回退到注册当时已有的解析结果。
func WithOptional() ProviderOption {
	return func(o *providerOptions) { o.optional = true }
}
