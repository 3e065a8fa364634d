package registry

import (
	"reflect"

	"github.com/gocrud/factory/signature"
)

// ProviderInfo 一条已注册提供者的只读描述，供自省与巡检接口使用。
type ProviderInfo struct {
	Signature string `json:"signature"`
	Kind      string `json:"kind"`
	Optional  bool   `json:"optional"`
	Source    string `json:"source"`
}

// descriptor 把一个生产者与它的匹配规则配对。变体是封闭集合：
// 精确匹配、请求类型注入、惰性宿主绑定。
type descriptor interface {
	// producerFor 若能服务请求的签名则返回绑定好的生产者。
	producerFor(req signature.Signature) (*Producer, bool)
	info() ProviderInfo
}

// ownerFunc 提供方法接收者。失败以 OwnerError 的形式返回。
type ownerFunc func() (reflect.Value, error)

// chainFallback 给 invoker 挂上可选回退：产出 nil 时改走注册时捕获的旧解析。
func chainFallback(inner invoker, fallback *Producer) invoker {
	return func(args []reflect.Value) (reflect.Value, error) {
		v, err := inner(args)
		if err != nil {
			return reflect.Value{}, err
		}
		if isNilResult(v) {
			return fallback.call(args)
		}
		return v, nil
	}
}

// matchesSubscribed 请求的返回类型是否落在订阅类型之内。
// 完全相同总是成立；订阅接口类型时接受任何可赋值的具体请求。
func matchesSubscribed(requested, subscribed reflect.Type) bool {
	if requested == subscribed {
		return true
	}
	return requested != nil && subscribed.Kind() == reflect.Interface && requested.AssignableTo(subscribed)
}

// paramsEqual 参数列表逐位完全相同。
func paramsEqual(req signature.Signature, params []reflect.Type) bool {
	if req.NumParams() != len(params) {
		return false
	}
	for i, p := range params {
		if req.Param(i) != p {
			return false
		}
	}
	return true
}

// exactDescriptor 签名必须与请求完全一致。
type exactDescriptor struct {
	p        *Producer
	optional bool
	source   string
}

func (d *exactDescriptor) producerFor(req signature.Signature) (*Producer, bool) {
	if !d.p.sig.Equal(req) {
		return nil, false
	}
	return d.p, true
}

func (d *exactDescriptor) info() ProviderInfo {
	return ProviderInfo{
		Signature: d.p.sig.String(),
		Kind:      "exact",
		Optional:  d.optional,
		Source:    d.source,
	}
}

// genericDescriptor 订阅一个返回超类型，并把请求的具体类型作为参数注入。
type genericDescriptor struct {
	// call 覆盖完整参数表（含 reflect.Type 注入位），已套构造后流水线
	call       invoker
	typeIndex  int
	subscribed reflect.Type
	expected   []reflect.Type
	fallback   *Producer
	source     string
}

func (d *genericDescriptor) producerFor(req signature.Signature) (*Producer, bool) {
	if !matchesSubscribed(req.Return(), d.subscribed) || !paramsEqual(req, d.expected) {
		return nil, false
	}

	requested := req.Return()
	inner := d.call
	typeIndex := d.typeIndex
	bound := func(args []reflect.Value) (reflect.Value, error) {
		full := make([]reflect.Value, 0, len(args)+1)
		full = append(full, args[:typeIndex]...)
		full = append(full, reflect.ValueOf(requested))
		full = append(full, args[typeIndex:]...)
		return inner(full)
	}
	if d.fallback != nil {
		bound = chainFallback(bound, d.fallback)
	}
	return &Producer{sig: req, call: bound}, true
}

func (d *genericDescriptor) info() ProviderInfo {
	return ProviderInfo{
		Signature: signature.New(d.subscribed, d.expected...).String(),
		Kind:      "generic",
		Optional:  d.fallback != nil,
		Source:    d.source,
	}
}

// ownerDescriptor 生产者是宿主类型上的方法。宿主按需实例化（或绑定到既有实例），
// 带请求类型注入位的变体同时订阅返回超类型。
type ownerDescriptor struct {
	owner ownerFunc
	// call 覆盖 [接收者 + 完整方法参数]，已套构造后流水线
	call      invoker
	typeIndex int
	ret       reflect.Type
	params    []reflect.Type
	fallback  *Producer
	optional  bool
	source    string
}

func (d *ownerDescriptor) producerFor(req signature.Signature) (*Producer, bool) {
	if d.typeIndex < 0 {
		if req.Return() != d.ret {
			return nil, false
		}
	} else if !matchesSubscribed(req.Return(), d.ret) {
		return nil, false
	}
	if !paramsEqual(req, d.params) {
		return nil, false
	}

	requested := req.Return()
	inner := d.call
	typeIndex := d.typeIndex
	owner := d.owner
	bound := func(args []reflect.Value) (reflect.Value, error) {
		receiver, err := owner()
		if err != nil {
			return reflect.Value{}, err
		}
		full := make([]reflect.Value, 0, len(args)+2)
		full = append(full, receiver)
		if typeIndex < 0 {
			full = append(full, args...)
		} else {
			full = append(full, args[:typeIndex]...)
			full = append(full, reflect.ValueOf(requested))
			full = append(full, args[typeIndex:]...)
		}
		return inner(full)
	}
	if d.fallback != nil {
		bound = chainFallback(bound, d.fallback)
	}
	return &Producer{sig: req, call: bound}, true
}

func (d *ownerDescriptor) info() ProviderInfo {
	return ProviderInfo{
		Signature: signature.New(d.ret, d.params...).String(),
		Kind:      "owner",
		Optional:  d.optional,
		Source:    d.source,
	}
}
