package database

import (
	"fmt"

	"gorm.io/driver/sqlite"

	"github.com/gocrud/factory/core"
	"github.com/gocrud/factory/logging"
)

// Builder 数据库配置构建器
type Builder struct {
	optionsList []*Options
	errs        []error
}

// NewBuilder 创建构建器
func NewBuilder() *Builder {
	return &Builder{}
}

// Add 添加一个数据库实例配置
func (b *Builder) Add(opts *Options) *Builder {
	if err := opts.Validate(); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.optionsList = append(b.optionsList, opts)
	return b
}

// AddSqlite 以 sqlite 方言添加实例，configure 可进一步调整选项。
func (b *Builder) AddSqlite(name, dsn string, configure ...func(*Options)) *Builder {
	opts := NewDefaultOptions(name, sqlite.Open(dsn))
	for _, c := range configure {
		c(opts)
	}
	return b.Add(opts)
}

// Build 打开所有实例并产出工厂
func (b *Builder) Build(logger logging.Logger) (*Factory, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("database configuration errors: %v", b.errs)
	}
	if len(b.optionsList) == 0 {
		return nil, nil
	}

	factory := NewFactory()
	for _, opts := range b.optionsList {
		if err := factory.Register(*opts); err != nil {
			return nil, err
		}
		logger.Info("Database registered", logging.Field{Key: "name", Value: opts.Name})
	}
	return factory, nil
}

// Configure 返回数据库配置器。
// 配置文件里的 database:dsn（可选 database:name）会先注册为 sqlite 实例，
// options 回调随后可以补充或覆盖；工厂注册进 Registry 成为 *gorm.DB 的提供者宿主。
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) error {
		b := NewBuilder()

		if ctx.Configuration != nil && ctx.Configuration.Exists("database:dsn") {
			name := ctx.Configuration.GetString("database:name", DefaultName)
			b.AddSqlite(name, ctx.Configuration.GetString("database:dsn"))
		}
		if options != nil {
			options(b)
		}

		factory, err := b.Build(ctx.Logger)
		if err != nil {
			return err
		}
		if factory == nil {
			ctx.Logger.Warn("Database configurator ran with no instances")
			return nil
		}

		if err := ctx.Registry.Register(factory); err != nil {
			return err
		}
		ctx.AddCleanup(factory.Close)
		return nil
	}
}
