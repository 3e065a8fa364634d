package registry

import (
	"reflect"
	"strings"
)

// PostProcessor 由产物自身实现：构造完成后立即回调，实例保持不变。
type PostProcessor interface {
	PostConstruct()
}

// postCreatePrefix 产物类型上按名字识别的构造后钩子。
const postCreatePrefix = "PostCreate"

// postCreateHook 一条已校验通过的钩子。
type postCreateHook struct {
	name string
	// replace 钩子返回值替换当前实例并喂给后续钩子
	replace bool
}

// withPostProcessing 把构造后流水线套在 invoker 外面。
// 钩子集合与合法性在包装时一次性确定，不合法的产物类型立刻报配置错误；
// 执行发生在每次生产之后：先回调 PostProcessor，再按方法顺序执行 PostCreate 钩子。
func withPostProcessing(inner invoker, produced reflect.Type) (invoker, error) {
	hooks, err := scanPostCreateHooks(produced)
	if err != nil {
		return nil, err
	}

	return func(args []reflect.Value) (reflect.Value, error) {
		v, err := inner(args)
		if err != nil {
			return reflect.Value{}, err
		}
		// nil 产物（含接口里的类型化 nil）不进流水线：
		// 必需生产者随后报错，可选生产者靠它触发回退
		if !v.IsValid() || isNilResult(v) {
			return v, nil
		}

		if pp, ok := v.Interface().(PostProcessor); ok {
			pp.PostConstruct()
		}
		for _, h := range hooks {
			m := v.MethodByName(h.name)
			if !m.IsValid() {
				continue
			}
			results := m.Call(nil)
			if h.replace {
				v = results[0]
			}
		}
		return v, nil
	}, nil
}

// scanPostCreateHooks 校验并收集产物类型上的 PostCreate 钩子。
//
// 规则：钩子不能带参数；无返回值则保留实例；返回值可赋值给产物类型则替换实例；
// 返回值只匹配声明它的内嵌类型则静默跳过；其余情况是配置错误。
func scanPostCreateHooks(produced reflect.Type) ([]postCreateHook, error) {
	var hooks []postCreateHook
	for i := 0; i < produced.NumMethod(); i++ {
		m := produced.Method(i)
		if !strings.HasPrefix(m.Name, postCreatePrefix) {
			continue
		}

		// 接口类型的方法签名不含接收者
		argCount := m.Type.NumIn()
		if produced.Kind() != reflect.Interface {
			argCount--
		}
		if argCount != 0 {
			return nil, configErrorf("post-create hook %s.%s must not take arguments", produced, m.Name)
		}

		switch m.Type.NumOut() {
		case 0:
			hooks = append(hooks, postCreateHook{name: m.Name})
		case 1:
			ret := m.Type.Out(0)
			if ret.AssignableTo(produced) {
				hooks = append(hooks, postCreateHook{name: m.Name, replace: true})
			} else if declaredByEmbedded(produced, m.Name, ret) {
				// 内嵌类型为自己声明的替换钩子，对外层产物不适用
				continue
			} else {
				return nil, configErrorf("post-create hook %s.%s returns %s, which is not assignable to %s", produced, m.Name, ret, produced)
			}
		default:
			return nil, configErrorf("post-create hook %s.%s must return at most one value", produced, m.Name)
		}
	}
	return hooks, nil
}

// declaredByEmbedded 报告名为 name 的方法是否由某个内嵌字段提升而来，
// 且 ret 与那个内嵌类型匹配。
func declaredByEmbedded(produced reflect.Type, name string, ret reflect.Type) bool {
	base := produced
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < base.NumField(); i++ {
		f := base.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if _, ok := ft.MethodByName(name); !ok {
			if ft.Kind() != reflect.Pointer {
				if _, ok := reflect.PointerTo(ft).MethodByName(name); !ok {
					continue
				}
			} else {
				continue
			}
		}
		if ret.AssignableTo(ft) {
			return true
		}
		if ft.Kind() != reflect.Pointer && ret.AssignableTo(reflect.PointerTo(ft)) {
			return true
		}
	}
	return false
}
