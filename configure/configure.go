// Package configure 汇集各能力的配置器便捷导出。
// 配置器在 core.BuildContext 上装配能力：读配置、建工厂、注册提供者、登记清理。
package configure

import (
	"github.com/gocrud/factory/configure/cron"
	"github.com/gocrud/factory/configure/database"
	"github.com/gocrud/factory/configure/etcd"
	"github.com/gocrud/factory/configure/mongodb"
	"github.com/gocrud/factory/configure/redis"
	"github.com/gocrud/factory/configure/web"
	"github.com/gocrud/factory/core"
)

// Database 便捷导出数据库配置器
// 使用示例: core.Apply(ctx, configure.Database(func(b *database.Builder) { ... }))
func Database(options func(*database.Builder)) core.Configurator {
	return database.Configure(options)
}

// Redis 便捷导出 redis 配置器
// 使用示例: core.Apply(ctx, configure.Redis(func(b *redis.Builder) { ... }))
func Redis(options func(*redis.Builder)) core.Configurator {
	return redis.Configure(options)
}

// Mongo 便捷导出 mongodb 配置器
// 使用示例: core.Apply(ctx, configure.Mongo(func(b *mongodb.Builder) { ... }))
func Mongo(options func(*mongodb.Builder)) core.Configurator {
	return mongodb.Configure(options)
}

// Etcd 便捷导出 etcd 配置器
// 使用示例: core.Apply(ctx, configure.Etcd(func(b *etcd.Builder) { ... }))
func Etcd(options func(*etcd.Builder)) core.Configurator {
	return etcd.Configure(options)
}

// Cron 便捷导出 cron 配置器
// 使用示例: core.Apply(ctx, configure.Cron(func(b *cron.Builder) { ... }))
func Cron(options func(*cron.Builder)) core.Configurator {
	return cron.Configure(options)
}

// Web 便捷导出 web 配置器
// 使用示例: core.Apply(ctx, configure.Web(func(b *web.Builder) { ... }))
func Web(options func(*web.Builder)) core.Configurator {
	return web.Configure(options)
}
