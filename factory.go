// Package factory 提供进程级默认注册表与泛型便捷入口。
// 全部核心能力都在 registry 包里，这里只是薄封装：
// 所有函数都可以传入显式的注册表，传 nil 则落到默认实例。
package factory

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/gocrud/factory/registry"
	"github.com/gocrud/factory/signature"
)

var defaultRegistry = registry.New()

// Default 返回进程级默认注册表。
func Default() *registry.Registry { return defaultRegistry }

// TypeOf 返回 T 的 reflect.Type，接口类型返回接口本身。
func TypeOf[T any]() reflect.Type { return signature.TypeOf[T]() }

// Register 向默认注册表注册提供者。
func Register(providers ...any) error {
	return defaultRegistry.Register(providers...)
}

// RegisterFunc 向默认注册表注册函数提供者。
func RegisterFunc(fn any, opts ...registry.ProviderOption) error {
	return defaultRegistry.RegisterFunc(fn, opts...)
}

func orDefault(r *registry.Registry) *registry.Registry {
	if r == nil {
		return defaultRegistry
	}
	return r
}

// Resolve 解析 (params...) T 的生产者。
func Resolve[T any](r *registry.Registry, params ...reflect.Type) (*registry.Producer, error) {
	return orDefault(r).Resolve(TypeOf[T](), params...)
}

// Instantiate 解析并生产一个 T。
func Instantiate[T any](r *registry.Registry) (T, error) {
	p, err := Resolve[T](r)
	if err != nil {
		var zero T
		return zero, err
	}
	return callTyped[T](p)
}

// MustInstantiate 同 Instantiate，失败时 panic。用于初始化阶段的硬依赖。
func MustInstantiate[T any](r *registry.Registry) T {
	v, err := Instantiate[T](r)
	if err != nil {
		panic(err)
	}
	return v
}

// Supplier 合成无参的类型化取值函数。解析发生在合成时，调用可任意重复。
func Supplier[T any](r *registry.Registry) (func() (T, error), error) {
	p, err := Resolve[T](r)
	if err != nil {
		return nil, err
	}
	return func() (T, error) {
		return callTyped[T](p)
	}, nil
}

// Function 合成单参数的类型化生产函数。
// 优先解析 (P) T；没有这样的提供者时退而解析 () T 并忽略传入的参数。
func Function[P, T any](r *registry.Registry) (func(P) (T, error), error) {
	reg := orDefault(r)
	p, err := reg.Resolve(TypeOf[T](), TypeOf[P]())
	if err == nil {
		return func(arg P) (T, error) {
			return callTyped[T](p, arg)
		}, nil
	}
	if !errors.Is(err, registry.ErrNoMatch) {
		return nil, err
	}
	zeroArg, zerr := reg.Resolve(TypeOf[T]())
	if zerr != nil {
		return nil, err
	}
	return func(P) (T, error) {
		return callTyped[T](zeroArg)
	}, nil
}

func callTyped[T any](p *registry.Producer, args ...any) (T, error) {
	var zero T
	v, err := p.Call(args...)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("factory: produced %T cannot serve as %s", v, TypeOf[T]())
	}
	return out, nil
}
