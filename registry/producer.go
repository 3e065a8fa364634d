package registry

import (
	"reflect"

	"github.com/gocrud/factory/signature"
)

// errorType 尾置 error 返回值的识别依据。
var errorType = reflect.TypeOf((*error)(nil)).Elem()

// invoker 执行一次底层调用。args 已按签名排好并完成类型检查。
type invoker func(args []reflect.Value) (reflect.Value, error)

// Producer 是解析完成、可重复调用的生产者。创建后不可变，可并发使用。
type Producer struct {
	sig  signature.Signature
	call invoker
}

// Signature 返回生产者的签名。
func (p *Producer) Signature() signature.Signature { return p.sig }

// Call 按签名执行生产。参数个数与类型必须与签名一致（nil 以零值传入）。
// 必需生产者产出 nil 时返回 NullProducerError。
func (p *Producer) Call(args ...any) (any, error) {
	if len(args) != p.sig.NumParams() {
		return nil, configErrorf("call %s with %d arguments", p.sig, len(args))
	}
	values := make([]reflect.Value, len(args))
	for i, arg := range args {
		want := p.sig.Param(i)
		if arg == nil {
			values[i] = reflect.Zero(want)
			continue
		}
		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(want) {
			return nil, configErrorf("call %s: argument %d is %s, want %s", p.sig, i, v.Type(), want)
		}
		values[i] = v
	}

	out, err := p.call(values)
	if err != nil {
		return nil, err
	}
	if p.sig.Return() == nil {
		return nil, nil
	}
	if isNilResult(out) {
		return nil, &NullProducerError{Sig: p.sig}
	}
	return out.Interface(), nil
}

// isNilable 报告该类型的值是否可能为 nil。
func isNilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return true
	}
	return false
}

// isNilResult 判定产出值是否为空。接口值还要看其包裹的动态值：
// 装着类型化 nil 指针的接口同样算空产出。
func isNilResult(v reflect.Value) bool {
	if !v.IsValid() || !isNilable(v.Type()) {
		return false
	}
	if v.IsNil() {
		return true
	}
	if v.Kind() == reflect.Interface {
		return isNilResult(v.Elem())
	}
	return false
}

// funcSignature 从函数类型提取生产者签名。
// 允许的返回形状：T 或 (T, error)。类型为 reflect.Type 的注入参数不出现在签名里。
func funcSignature(fn reflect.Type, typeIndex int) (signature.Signature, error) {
	if fn.Kind() != reflect.Func {
		return signature.Signature{}, configErrorf("provider must be a func, got %s", fn)
	}
	if fn.IsVariadic() {
		return signature.Signature{}, configErrorf("variadic provider %s is not supported", fn)
	}
	switch fn.NumOut() {
	case 1:
		if fn.Out(0) == errorType {
			return signature.Signature{}, configErrorf("provider %s produces nothing but an error", fn)
		}
	case 2:
		if fn.Out(1) != errorType {
			return signature.Signature{}, configErrorf("provider %s second return value must be error", fn)
		}
	default:
		return signature.Signature{}, configErrorf("provider %s must return a value or (value, error)", fn)
	}

	params := make([]reflect.Type, 0, fn.NumIn())
	for i := 0; i < fn.NumIn(); i++ {
		if i == typeIndex {
			continue
		}
		params = append(params, fn.In(i))
	}
	return signature.New(fn.Out(0), params...), nil
}

// newFuncInvoker 把函数值包装为统一的 invoker，识别尾置 error。
func newFuncInvoker(fn reflect.Value) invoker {
	hasErr := fn.Type().NumOut() == 2
	return func(args []reflect.Value) (reflect.Value, error) {
		results := fn.Call(args)
		if hasErr && !results[1].IsNil() {
			return reflect.Value{}, results[1].Interface().(error)
		}
		return results[0], nil
	}
}

// methodSignature 提取方法（Func 含接收者）除接收者与注入参数外的签名。
func methodSignature(m reflect.Method, typeIndex int) (signature.Signature, error) {
	mt := m.Type
	switch mt.NumOut() {
	case 1:
		if mt.Out(0) == errorType {
			return signature.Signature{}, configErrorf("provider method %s produces nothing but an error", m.Name)
		}
	case 2:
		if mt.Out(1) != errorType {
			return signature.Signature{}, configErrorf("provider method %s second return value must be error", m.Name)
		}
	default:
		return signature.Signature{}, configErrorf("provider method %s must return a value or (value, error)", m.Name)
	}
	if mt.IsVariadic() {
		return signature.Signature{}, configErrorf("variadic provider method %s is not supported", m.Name)
	}

	params := make([]reflect.Type, 0, mt.NumIn()-1)
	for i := 1; i < mt.NumIn(); i++ {
		if i-1 == typeIndex {
			continue
		}
		params = append(params, mt.In(i))
	}
	return signature.New(mt.Out(0), params...), nil
}
