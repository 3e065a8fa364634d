// Package registry 实现类型化的生产者注册与解析。
//
// 注册表维护一个有序的提供者描述符列表，解析时从最新注册的开始匹配，
// 第一个命中者胜出。没有任何提供者命中时退回到结构体构造合成。
// 注册阶段与解析阶段之间通过读写锁隔离，解析出的 Producer 可并发调用。
package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/gocrud/factory/logging"
	"github.com/gocrud/factory/memo"
	"github.com/gocrud/factory/signature"
)

// Registry 提供者注册表。零值不可用，必须通过 New 创建。
type Registry struct {
	mu          sync.RWMutex
	descriptors []descriptor
	scanner     MethodScanner
	logger      logging.Logger
}

// New 创建注册表。默认使用 Provide/TryProvide 命名约定扫描器，不输出日志。
func New(opts ...Option) *Registry {
	r := &Registry{
		scanner: prefixScanner{},
		logger:  logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register 注册任意数量的提供者，遇到第一个错误即停止。
//
// 接受三种输入：
//   - 函数值：注册为精确匹配提供者，带 reflect.Type 参数时注册为请求类型注入提供者；
//   - reflect.Type：扫描其方法集，每个命中的方法注册为惰性宿主提供者，
//     宿主在首次使用时经由注册表自身实例化（至多一次）；
//   - 其他值：同样扫描方法集，但宿主绑定到传入的实例。
func (r *Registry) Register(providers ...any) error {
	for _, p := range providers {
		if err := r.registerOne(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) registerOne(provider any) error {
	if provider == nil {
		return configErrorf("cannot register nil provider")
	}
	if t, ok := provider.(reflect.Type); ok {
		return r.registerOwner(t, reflect.Value{})
	}
	if p, ok := provider.(*Producer); ok {
		r.mu.Lock()
		r.descriptors = append(r.descriptors, &exactDescriptor{p: p, source: "producer"})
		r.mu.Unlock()
		r.logger.Debug("registered producer", logging.Field{Key: "signature", Value: p.sig.String()})
		return nil
	}
	v := reflect.ValueOf(provider)
	if v.Kind() == reflect.Func {
		return r.RegisterFunc(provider)
	}
	return r.registerOwner(v.Type(), v)
}

// RegisterFunc 注册一个函数提供者。
// 返回形状必须是 T 或 (T, error)；类型为 reflect.Type 的参数标记请求类型注入位。
func (r *Registry) RegisterFunc(fn any, opts ...ProviderOption) error {
	var po providerOptions
	for _, o := range opts {
		o(&po)
	}

	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return configErrorf("RegisterFunc needs a func, got %T", fn)
	}
	t := v.Type()

	typeIndex := -1
	for i := 0; i < t.NumIn(); i++ {
		if t.In(i) == reflectTypeType {
			typeIndex = i
			break
		}
	}

	sig, err := funcSignature(t, typeIndex)
	if err != nil {
		return err
	}
	call, err := withPostProcessing(newFuncInvoker(v), t.Out(0))
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var fallback *Producer
	if po.optional {
		if fallback, err = r.optionalFallback(sig, t.String()); err != nil {
			return err
		}
	}

	var d descriptor
	if typeIndex < 0 {
		if fallback != nil {
			call = chainFallback(call, fallback)
		}
		d = &exactDescriptor{
			p:        &Producer{sig: sig, call: call},
			optional: po.optional,
			source:   t.String(),
		}
	} else {
		d = &genericDescriptor{
			call:       call,
			typeIndex:  typeIndex,
			subscribed: t.Out(0),
			expected:   sig.Params(),
			fallback:   fallback,
			source:     t.String(),
		}
	}
	r.descriptors = append(r.descriptors, d)
	r.logger.Debug("registered provider",
		logging.Field{Key: "signature", Value: sig.String()},
		logging.Field{Key: "kind", Value: d.info().Kind},
		logging.Field{Key: "optional", Value: po.optional})
	return nil
}

// registerOwner 扫描宿主类型并注册所有命中的方法。
// instance 无效时宿主按需实例化：一个记忆单元保证并发下至多构造一次，
// 构造失败不留痕，之后的访问会重试。
func (r *Registry) registerOwner(t reflect.Type, instance reflect.Value) error {
	methods := r.scanner.Scan(t)
	if len(methods) == 0 {
		r.logger.Debug("no provider methods on type", logging.Field{Key: "type", Value: t.String()})
		return nil
	}

	var owner ownerFunc
	if instance.IsValid() {
		bound := instance
		owner = func() (reflect.Value, error) { return bound, nil }
	} else {
		ownerType := t
		cell := memo.New(func() (any, error) {
			return r.Instantiate(ownerType)
		})
		owner = func() (reflect.Value, error) {
			v, err := cell.Get()
			if err != nil {
				return reflect.Value{}, &OwnerError{Owner: ownerType, Err: err}
			}
			return reflect.ValueOf(v), nil
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pm := range methods {
		d, err := r.newOwnerDescriptor(t, pm, owner)
		if err != nil {
			return err
		}
		r.descriptors = append(r.descriptors, d)
		r.logger.Debug("registered provider method",
			logging.Field{Key: "owner", Value: t.String()},
			logging.Field{Key: "method", Value: pm.Method.Name},
			logging.Field{Key: "optional", Value: pm.Optional})
	}
	return nil
}

// newOwnerDescriptor 调用方持有写锁。
func (r *Registry) newOwnerDescriptor(t reflect.Type, pm ProviderMethod, owner ownerFunc) (descriptor, error) {
	sig, err := methodSignature(pm.Method, pm.TypeParamIndex)
	if err != nil {
		return nil, err
	}
	call, err := withPostProcessing(newFuncInvoker(pm.Method.Func), pm.Method.Type.Out(0))
	if err != nil {
		return nil, err
	}

	source := t.String() + "." + pm.Method.Name
	var fallback *Producer
	if pm.Optional {
		if fallback, err = r.optionalFallback(sig, source); err != nil {
			return nil, err
		}
	}
	return &ownerDescriptor{
		owner:     owner,
		call:      call,
		typeIndex: pm.TypeParamIndex,
		ret:       sig.Return(),
		params:    sig.Params(),
		fallback:  fallback,
		optional:  pm.Optional,
		source:    source,
	}, nil
}

// optionalFallback 捕获可选生产者注册当时已有的解析结果。调用方持有写锁。
// 没有可回退的解析是即时的注册错误，可选生产者的返回类型必须可为 nil。
func (r *Registry) optionalFallback(sig signature.Signature, source string) (*Producer, error) {
	if !isNilable(sig.Return()) {
		return nil, configErrorf("optional provider %s must have a nilable return type, got %s", source, sig.Return())
	}
	fallback, err := r.resolve(sig)
	if err != nil {
		return nil, fmt.Errorf("factory: optional provider %s needs an existing resolution for %s: %w", source, sig, err)
	}
	return fallback, nil
}

// Resolve 解析能服务 (params...) ret 的生产者。
// 从最新注册的描述符开始匹配；全部落空时尝试结构体构造合成。
func (r *Registry) Resolve(ret reflect.Type, params ...reflect.Type) (*Producer, error) {
	req := signature.New(ret, params...)

	r.mu.RLock()
	p, err := r.resolve(req)
	r.mu.RUnlock()

	if err != nil {
		r.logger.Debug("resolution failed", logging.Field{Key: "signature", Value: req.String()})
		return nil, err
	}
	r.logger.Trace("resolved", logging.Field{Key: "signature", Value: req.String()})
	return p, nil
}

// resolve 调用方持有锁（读或写均可）。
func (r *Registry) resolve(req signature.Signature) (*Producer, error) {
	for i := len(r.descriptors) - 1; i >= 0; i-- {
		if p, ok := r.descriptors[i].producerFor(req); ok {
			return p, nil
		}
	}
	if p, ok := newConstructorProducer(req); ok {
		call, err := withPostProcessing(p.call, req.Return())
		if err != nil {
			return nil, err
		}
		return &Producer{sig: req, call: call}, nil
	}
	return nil, fmt.Errorf("factory: resolving %s: %w", req, ErrNoMatch)
}

// Instantiate 解析并立即生产一个 t 类型的值。
func (r *Registry) Instantiate(t reflect.Type) (any, error) {
	p, err := r.Resolve(t)
	if err != nil {
		return nil, err
	}
	return p.Call()
}

// Providers 返回当前注册的提供者快照，按解析优先级排列（最新在前）。
func (r *Registry) Providers() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderInfo, 0, len(r.descriptors))
	for i := len(r.descriptors) - 1; i >= 0; i-- {
		out = append(out, r.descriptors[i].info())
	}
	return out
}
