package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/gocrud/factory/core"
)

// jobDefinition 任务定义
type jobDefinition struct {
	spec string
	name string
	job  func()
}

// Builder 定时任务配置构建器
type Builder struct {
	enableSeconds    bool
	enableCronLogger bool
	jobs             []jobDefinition
}

// NewBuilder 创建构建器
func NewBuilder() *Builder {
	return &Builder{}
}

// WithSeconds 启用秒级精度
func (b *Builder) WithSeconds() *Builder {
	b.enableSeconds = true
	return b
}

// EnableCronLogger 启用 cron 库的内部调度日志
func (b *Builder) EnableCronLogger() *Builder {
	b.enableCronLogger = true
	return b
}

// AddJob 添加定时任务
func (b *Builder) AddJob(spec, name string, job func()) *Builder {
	b.jobs = append(b.jobs, jobDefinition{spec: spec, name: name, job: job})
	return b
}

// stopTimeout 等待在跑任务收尾的上限。
const stopTimeout = 10 * time.Second

// Configure 返回定时任务配置器。
// 配置文件里的 cron:seconds 可启用秒级精度；调度器注册进 Registry 成为
// *Scheduler 的提供者宿主，随即启动，上下文关闭时停止。
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) error {
		b := NewBuilder()

		if ctx.Configuration != nil && ctx.Configuration.GetBool("cron:seconds") {
			b.WithSeconds()
		}
		if options != nil {
			options(b)
		}

		scheduler := NewScheduler(ctx.Logger, func(o *Options) {
			o.EnableSeconds = b.enableSeconds
			o.EnableCronLogger = b.enableCronLogger
		})
		for _, def := range b.jobs {
			if err := scheduler.AddJob(def.spec, def.name, def.job); err != nil {
				return fmt.Errorf("cron: %w", err)
			}
		}

		if err := ctx.Registry.Register(scheduler); err != nil {
			return err
		}

		scheduler.Start()
		ctx.AddCleanup(func() error {
			stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			return scheduler.Stop(stopCtx)
		})
		return nil
	}
}
