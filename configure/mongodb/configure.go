package mongodb

import (
	"fmt"

	"github.com/gocrud/factory/core"
	"github.com/gocrud/factory/logging"
)

// Builder MongoDB 配置构建器
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
func (b *Builder) AddClient(name, uri string, configure ...func(*Options)) *Builder {
	opts := NewDefaultOptions(name, uri)
	for _, c := range configure {
		c(opts)
	}
	return b.Add(opts)
}

// Build 创建所有客户端并产出工厂
func (b *Builder) Build(logger logging.Logger) (*Factory, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("mongo configuration errors: %v", b.errs)
	}
	if len(b.optionsList) == 0 {
		return nil, nil
	}

	factory := NewFactory()
	for _, opts := range b.optionsList {
		if err := factory.Register(*opts); err != nil {
			return nil, err
		}
		logger.Info("Mongo client registered",
			logging.Field{Key: "name", Value: opts.Name},
			logging.Field{Key: "uri", Value: opts.Uri})
	}
	return factory, nil
}

// Configure 返回 MongoDB 配置器。
// 配置文件里的 mongodb:uri（可选 mongodb:name、mongodb:username、mongodb:password）
// 会先注册一个客户端，options 回调随后可以补充或覆盖；工厂注册进 Registry 成为
// *mgo.Client 的提供者宿主。
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) error {
		b := NewBuilder()

		if ctx.Configuration != nil && ctx.Configuration.Exists("mongodb:uri") {
			name := ctx.Configuration.GetString("mongodb:name", DefaultName)
			b.AddClient(name, ctx.Configuration.GetString("mongodb:uri"), func(o *Options) {
				o.Username = ctx.Configuration.GetString("mongodb:username")
				o.Password = ctx.Configuration.GetString("mongodb:password")
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
			ctx.Logger.Warn("Mongo configurator ran with no clients")
			return nil
		}

		if err := ctx.Registry.Register(factory); err != nil {
			return err
		}
		ctx.AddCleanup(factory.Close)
		return nil
	}
}
