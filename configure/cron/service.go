package cron

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/gocrud/factory/logging"
	"github.com/gocrud/factory/memo"
)

// Options 调度器配置选项
type Options struct {
	// EnableSeconds 是否启用秒级精度（默认分钟级）
	EnableSeconds bool
	// EnableCronLogger 是否启用 cron 库的内部调度日志（默认 false）
	EnableCronLogger bool
}

// Scheduler 定时任务调度器。
// 注册进 Registry 后通过 ProvideScheduler 提供自身，供业务代码追加任务。
type Scheduler struct {
	cron   *cron.Cron
	logger logging.Logger
	mu     sync.RWMutex
	ids    map[string]cron.EntryID
	funcs  map[string]func()
}

// NewScheduler 创建调度器。panic 一律被捕获并记入日志。
func NewScheduler(logger logging.Logger, opts ...func(*Options)) *Scheduler {
	opt := &Options{}
	for _, o := range opts {
		o(opt)
	}

	cronOpts := []cron.Option{
		cron.WithChain(cron.Recover(newCronLogger(logger))),
	}
	if opt.EnableCronLogger {
		cronOpts = append(cronOpts, cron.WithLogger(newCronLogger(logger)))
	}
	if opt.EnableSeconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}

	return &Scheduler{
		cron:   cron.New(cronOpts...),
		logger: logger,
		ids:    make(map[string]cron.EntryID),
		funcs:  make(map[string]func()),
	}
}

// AddJob 添加定时任务。
// spec: cron 表达式，如 "*/5 * * * *"（每5分钟）
// name: 任务名称（用于管理、日志与手动触发）
func (s *Scheduler) AddJob(spec, name string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[name]; exists {
		return fmt.Errorf("cron job '%s' already registered", name)
	}

	wrapped := func() {
		s.logger.Debug(fmt.Sprintf("Cron job '%s' started", name))
		defer s.logger.Debug(fmt.Sprintf("Cron job '%s' completed", name))
		job()
	}

	entryID, err := s.cron.AddFunc(spec, wrapped)
	if err != nil {
		return fmt.Errorf("failed to add cron job '%s': %w", name, err)
	}

	s.ids[name] = entryID
	s.funcs[name] = wrapped
	s.logger.Info(fmt.Sprintf("Cron job '%s' registered with spec '%s'", name, spec))
	return nil
}

// AddCellReset 按计划作废一个记忆单元，下次取值时重新计算。
func (s *Scheduler) AddCellReset(spec, name string, cell *memo.Cell) error {
	return s.AddJob(spec, name, cell.Reset)
}

// Trigger 立即同步执行一次指定任务，不影响其计划。
func (s *Scheduler) Trigger(name string) error {
	s.mu.RLock()
	fn, ok := s.funcs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("cron job '%s' not found", name)
	}
	fn()
	return nil
}

// Remove 移除定时任务
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.ids[name]; exists {
		s.cron.Remove(entryID)
		delete(s.ids, name)
		delete(s.funcs, name)
		s.logger.Info(fmt.Sprintf("Cron job '%s' removed", name))
	}
}

// Jobs 返回当前登记的任务名
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.ids))
	for name := range s.ids {
		names = append(names, name)
	}
	return names
}

// ProvideScheduler 调度器自身的生产者方法。
func (s *Scheduler) ProvideScheduler() *Scheduler {
	return s
}

// Start 启动调度
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待在跑任务结束，或 ctx 先行超时。
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger 适配器：把框架日志接口适配到 cron 的日志接口。
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Field{Key: "error", Value: err.Error()})
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{
			Key:   fmt.Sprintf("%v", keysAndValues[i]),
			Value: keysAndValues[i+1],
		})
	}
	return fields
}
