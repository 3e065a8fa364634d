package registry

import (
	"reflect"
	"strings"
)

// reflectTypeType 即 reflect.Type 接口自身的类型，标记“请求类型注入”参数。
var reflectTypeType = reflect.TypeOf((*reflect.Type)(nil)).Elem()

// ProviderMethod 是扫描器在宿主类型上发现的一条生产者方法。
type ProviderMethod struct {
	// Method 来自宿主类型的方法集，Func 的第一个参数是接收者。
	Method reflect.Method
	// Optional 产出 nil 时回退到更早注册的提供者。
	Optional bool
	// TypeParamIndex 请求类型注入参数在方法参数（不含接收者）中的下标，-1 表示没有。
	TypeParamIndex int
}

// MethodScanner 在宿主类型上发现生产者方法。实现必须按稳定顺序返回。
type MethodScanner interface {
	Scan(t reflect.Type) []ProviderMethod
}

// prefixScanner 默认扫描器：按命名约定识别生产者方法。
// Provide 开头的导出方法是必需生产者，TryProvide 开头的是可选生产者。
// 类型为 reflect.Type 的参数（取第一个）标记请求类型注入位。
type prefixScanner struct{}

func (prefixScanner) Scan(t reflect.Type) []ProviderMethod {
	var out []ProviderMethod
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		optional := strings.HasPrefix(m.Name, "TryProvide")
		if !optional && !strings.HasPrefix(m.Name, "Provide") {
			continue
		}
		out = append(out, ProviderMethod{
			Method:         m,
			Optional:       optional,
			TypeParamIndex: typeParamIndex(m.Type),
		})
	}
	return out
}

// typeParamIndex 返回第一个 reflect.Type 参数的下标（不含接收者），没有则 -1。
func typeParamIndex(fn reflect.Type) int {
	for i := 1; i < fn.NumIn(); i++ {
		if fn.In(i) == reflectTypeType {
			return i - 1
		}
	}
	return -1
}
