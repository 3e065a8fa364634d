// Package memo 提供“至多计算一次”的取值单元。
// Cell 把一段可能很昂贵的计算包装起来：第一次访问时在锁内执行，
// 之后的访问走无锁快路径直接读取已敲定的值。
package memo

import (
	"sync"
	"sync/atomic"
)

// settled 是已敲定的值。通过原子指针整体发布，读侧无需加锁。
type settled struct {
	value any
}

// Cell 是一个可重置的惰性记忆单元。
//
// 状态机：未敲定 → 计算中 → 已敲定。并发的首次访问只会触发一次计算，
// 其余访问者阻塞等待并直接观察到结果。计算失败不会留下任何痕迹，
// 之后的访问会重新触发计算。零值不可用，必须通过构造函数创建。
type Cell struct {
	mu      sync.Mutex
	state   atomic.Pointer[settled]
	compute func() (any, error)
	void    bool
}

// New 创建以 compute 为计算源的单元，面向“几乎不更新”的使用场景。
func New(compute func() (any, error)) *Cell {
	return &Cell{compute: compute}
}

// NewVolatile 创建面向“频繁重置/更新”场景的单元。
// 两种场景在本实现中共享同一条原子发布路径，行为完全一致；
// 区分的构造入口保留下来，用于表达调用方的访问模式。
func NewVolatile(compute func() (any, error)) *Cell {
	return &Cell{compute: compute}
}

// NewAction 创建无返回值的动作单元：run 至多执行一次，Get 恒返回 nil 值。
func NewAction(run func() error) *Cell {
	return &Cell{
		compute: func() (any, error) { return nil, run() },
		void:    true,
	}
}

// Get 返回记忆的值，必要时先计算。
//
// 快路径是一次原子读。慢路径在互斥锁内二次检查后执行计算；
// 计算返回错误时单元保持未敲定，错误原样返回给本次调用方，
// 正在等待的其他调用方会在拿到锁后各自重新执行计算路径。
func (c *Cell) Get() (any, error) {
	if s := c.state.Load(); s != nil {
		return s.value, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if s := c.state.Load(); s != nil {
		return s.value, nil
	}

	value, err := c.compute()
	if err != nil {
		return nil, err
	}
	if c.void {
		value = nil
	}
	c.state.Store(&settled{value: value})
	return value, nil
}

// Reset 把单元退回未敲定状态，下一次 Get 会重新计算。
// 与正在进行的计算串行：等它完成后再清除其结果。
func (c *Cell) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Store(nil)
}

// UpdateTo 直接把单元敲定为给定值，不执行计算。
// 动作单元没有可观察的值，传入的 value 会被丢弃，仅完成敲定。
func (c *Cell) UpdateTo(value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.void {
		value = nil
	}
	c.state.Store(&settled{value: value})
}

// Settled 报告单元当前是否已敲定。仅用于观测，结果可能立即过期。
func (c *Cell) Settled() bool {
	return c.state.Load() != nil
}
