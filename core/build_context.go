// Package core 提供配置器的工作现场：注册表、日志、配置与清理回调。
package core

import (
	"errors"
	"sync"

	"github.com/gocrud/factory/config"
	"github.com/gocrud/factory/logging"
	"github.com/gocrud/factory/registry"
)

// BuildContext 配置阶段共享的上下文。各个配置器向 Registry 注册提供者，
// 并把需要收尾的资源挂到清理链上。
type BuildContext struct {
	Registry      *registry.Registry
	Logger        logging.Logger
	Configuration config.Configuration

	mu       sync.Mutex
	cleanups []func() error
}

// NewBuildContext 创建上下文。logger 传 nil 时使用丢弃一切的实现。
func NewBuildContext(reg *registry.Registry, logger logging.Logger, cfg config.Configuration) *BuildContext {
	if reg == nil {
		reg = registry.New()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &BuildContext{
		Registry:      reg,
		Logger:        logger,
		Configuration: cfg,
	}
}

// AddCleanup 注册清理回调，Close 时按注册的逆序执行。
func (c *BuildContext) AddCleanup(fn func() error) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanups = append(c.cleanups, fn)
}

// Close 逆序执行全部清理回调，收集所有错误。
func (c *BuildContext) Close() error {
	c.mu.Lock()
	cleanups := c.cleanups
	c.cleanups = nil
	c.mu.Unlock()

	var errs []error
	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Configurator 一个功能模块的配置入口。
type Configurator func(*BuildContext) error

// Apply 依次执行配置器，遇到第一个错误即停止。
func Apply(ctx *BuildContext, configurators ...Configurator) error {
	for _, configure := range configurators {
		if configure == nil {
			continue
		}
		if err := configure(ctx); err != nil {
			return err
		}
	}
	return nil
}
