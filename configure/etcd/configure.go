package etcd

import (
	"fmt"

	"github.com/gocrud/factory/core"
	"github.com/gocrud/factory/logging"
)

// Builder etcd 配置构建器
type Builder struct {
	optionsList []*Options
	errs        []error
}

// NewBuilder 创建构建器
func NewBuilder() *Builder {
	return &Builder{}
}

// Add 添加一个客户端配置
func (b *Builder) Add(opts *Options) *Builder {
	if err := opts.Validate(); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.optionsList = append(b.optionsList, opts)
	return b
}

// AddClient 以默认选项添加客户端，configure 可进一步调整。
func (b *Builder) AddClient(name string, endpoints []string, configure ...func(*Options)) *Builder {
	opts := NewDefaultOptions(name)
	if len(endpoints) > 0 {
		opts.Endpoints = endpoints
	}
	for _, c := range configure {
		c(opts)
	}
	return b.Add(opts)
}

// Build 创建所有客户端并产出工厂
func (b *Builder) Build(logger logging.Logger) (*Factory, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("etcd configuration errors: %v", b.errs)
	}
	if len(b.optionsList) == 0 {
		return nil, nil
	}

	factory := NewFactory()
	for _, opts := range b.optionsList {
		if err := factory.Register(*opts); err != nil {
			return nil, err
		}
		logger.Info("Etcd client registered",
			logging.Field{Key: "name", Value: opts.Name},
			logging.Field{Key: "endpoints", Value: opts.Endpoints})
	}
	return factory, nil
}

// Configure 返回 etcd 配置器。
// 配置文件里的 etcd:endpoints（可选 etcd:name、etcd:username、etcd:password）
// 会先注册一个客户端，options 回调随后可以补充或覆盖；工厂注册进 Registry
// 成为 *clientv3.Client 的提供者宿主。
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) error {
		b := NewBuilder()

		if ctx.Configuration != nil && ctx.Configuration.Exists("etcd:endpoints") {
			var endpoints []string
			if err := ctx.Configuration.Bind("etcd:endpoints", &endpoints); err != nil {
				return err
			}
			name := ctx.Configuration.GetString("etcd:name", DefaultName)
			b.AddClient(name, endpoints, func(o *Options) {
				o.Username = ctx.Configuration.GetString("etcd:username")
				o.Password = ctx.Configuration.GetString("etcd:password")
			})
		}
		if options != nil {
			options(b)
		}

		factory, err := b.Build(ctx.Logger)
		if err != nil {
			return err
		}
		if factory == nil {
			ctx.Logger.Warn("Etcd configurator ran with no clients")
			return nil
		}

		if err := ctx.Registry.Register(factory); err != nil {
			return err
		}
		ctx.AddCleanup(factory.Close)
		return nil
	}
}
