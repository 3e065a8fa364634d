package signature

import (
	"reflect"
	"strings"
)

// Signature 描述一个生产者的类型形状：有序参数类型列表加一个返回类型。
// 值创建后不可变，可安全地在 goroutine 间共享。
// 返回类型为 nil 表示该生产者不产出值（仅执行动作）。
type Signature struct {
	ret    reflect.Type
	params []reflect.Type
}

// New 创建签名。params 会被拷贝，调用方可以继续复用自己的切片。
func New(ret reflect.Type, params ...reflect.Type) Signature {
	var ps []reflect.Type
	if len(params) > 0 {
		ps = make([]reflect.Type, len(params))
		copy(ps, params)
	}
	return Signature{ret: ret, params: ps}
}

// Of 从泛型参数构建签名，省去手写 reflect.TypeOf 的样板。
func Of[T any](params ...reflect.Type) Signature {
	return New(TypeOf[T](), params...)
}

// TypeOf 返回 T 的 reflect.Type，接口类型返回接口本身而非 nil。
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Return 返回类型；nil 表示无返回值。
func (s Signature) Return() reflect.Type { return s.ret }

// NumParams 参数个数。
func (s Signature) NumParams() int { return len(s.params) }

// Param 返回第 i 个参数类型。
func (s Signature) Param(i int) reflect.Type { return s.params[i] }

// Params 返回参数类型的拷贝。
func (s Signature) Params() []reflect.Type {
	if len(s.params) == 0 {
		return nil
	}
	out := make([]reflect.Type, len(s.params))
	copy(out, s.params)
	return out
}

// Equal 按结构比较：返回类型与每个参数类型都相同。
func (s Signature) Equal(other Signature) bool {
	if s.ret != other.ret || len(s.params) != len(other.params) {
		return false
	}
	for i, p := range s.params {
		if p != other.params[i] {
			return false
		}
	}
	return true
}

// String 输出形如 "(*Foo, string) Bar" 的可读形式，用于日志与错误消息。
func (s Signature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range s.params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	if s.ret != nil {
		b.WriteByte(' ')
		b.WriteString(s.ret.String())
	}
	return b.String()
}
