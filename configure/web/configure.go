package web

import (
	"context"
	"time"

	"github.com/gocrud/factory/core"
)

// stopTimeout 优雅停机等待上限。
const stopTimeout = 10 * time.Second

// Configure 返回 Web 配置器。
// 配置文件里的 web:port 指定监听端口（默认 8080）；注册表观察路由默认挂载，
// 主机注册进 Registry 成为 *gin.Engine 的提供者宿主，并在后台启动，
// 上下文关闭时优雅停止。
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) error {
		b := NewBuilder(ctx.Logger)

		if ctx.Configuration != nil && ctx.Configuration.Exists("web:port") {
			b.UsePort(ctx.Configuration.GetInt("web:port", 8080))
		}
		b.WithInspector(ctx.Registry)
		if options != nil {
			options(b)
		}

		host := b.Build()
		if err := ctx.Registry.Register(host); err != nil {
			return err
		}

		runCtx, cancel := context.WithCancel(context.Background())
		go func() {
			_ = host.Start(runCtx)
		}()

		ctx.AddCleanup(func() error {
			cancel()
			stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
			defer cancelStop()
			return host.Stop(stopCtx)
		})
		return nil
	}
}
