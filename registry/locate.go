package registry

import (
	"fmt"
	"reflect"

	"github.com/gocrud/factory/signature"
)

// FindMethod 在类型 t 的方法集中选出唯一一个最匹配 sig 的方法。
//
// 匹配度依次为：完全一致、更宽泛、更具体。同一层级出现两个并列最佳时报
// AmbiguityError。自身方法集找不到任何匹配时逐层下探内嵌（匿名）字段的类型，
// 已经出现过的方法名不再参与（外层声明遮蔽内层），第一个产生匹配的层级即为答案。
func FindMethod(t reflect.Type, sig signature.Signature) (reflect.Method, error) {
	match, err := findMethod(t, sig)
	if err != nil {
		return reflect.Method{}, err
	}
	return match.method, nil
}

// methodMatch 选中的方法以及从根类型到声明层级的内嵌字段路径。
type methodMatch struct {
	method reflect.Method
	path   []int
}

// levelEntry 待扫描的一个层级成员。
type levelEntry struct {
	typ  reflect.Type
	path []int
}

func findMethod(t reflect.Type, sig signature.Signature) (methodMatch, error) {
	seen := make(map[string]bool)
	level := []levelEntry{{typ: t}}

	for len(level) > 0 {
		var best methodMatch
		bestScore := 0
		ambiguous := false

		for _, entry := range level {
			for i := 0; i < entry.typ.NumMethod(); i++ {
				m := entry.typ.Method(i)
				if seen[m.Name] {
					continue
				}
				msig, ok := callSignature(entry.typ, m)
				if !ok {
					continue
				}
				score := rankScore(signature.Compare(sig, msig))
				if score == 0 {
					continue
				}
				switch {
				case score > bestScore:
					best = methodMatch{method: m, path: entry.path}
					bestScore = score
					ambiguous = false
				case score == bestScore:
					ambiguous = true
				}
			}
		}

		if ambiguous {
			return methodMatch{}, &AmbiguityError{Type: t, Sig: sig}
		}
		if bestScore > 0 {
			return best, nil
		}

		// 本层级无匹配：记录已见名字，下探内嵌字段
		var next []levelEntry
		for _, entry := range level {
			for i := 0; i < entry.typ.NumMethod(); i++ {
				seen[entry.typ.Method(i).Name] = true
			}
			next = append(next, embeddedEntries(entry)...)
		}
		level = next
	}
	return methodMatch{}, fmt.Errorf("factory: no method on %s matching %s: %w", t, sig, ErrNoMatch)
}

// rankScore 把可用关系映射为偏好程度，0 表示不可用。
func rankScore(rel signature.Relation) int {
	switch rel {
	case signature.Equal:
		return 3
	case signature.MoreGeneric:
		return 2
	case signature.MoreSpecific:
		return 1
	}
	return 0
}

// callSignature 提取方法的调用签名（不含接收者，尾置 error 不计入）。
// 返回形状不受支持的方法不参与匹配。
func callSignature(t reflect.Type, m reflect.Method) (signature.Signature, bool) {
	mt := m.Type
	start := 1
	if t.Kind() == reflect.Interface {
		start = 0
	}

	var ret reflect.Type
	switch mt.NumOut() {
	case 0:
	case 1:
		if mt.Out(0) != errorType {
			ret = mt.Out(0)
		}
	case 2:
		if mt.Out(1) != errorType {
			return signature.Signature{}, false
		}
		ret = mt.Out(0)
	default:
		return signature.Signature{}, false
	}

	params := make([]reflect.Type, 0, mt.NumIn()-start)
	for i := start; i < mt.NumIn(); i++ {
		params = append(params, mt.In(i))
	}
	return signature.New(ret, params...), true
}

// embeddedEntries 返回该层级成员的全部内嵌字段类型。
func embeddedEntries(entry levelEntry) []levelEntry {
	base := entry.typ
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return nil
	}
	var out []levelEntry
	for i := 0; i < base.NumField(); i++ {
		f := base.Field(i)
		if !f.Anonymous {
			continue
		}
		path := make([]int, 0, len(entry.path)+1)
		path = append(path, entry.path...)
		path = append(path, i)
		out = append(out, levelEntry{typ: f.Type, path: path})
	}
	return out
}

// MethodProducer 把 object 上最匹配 (params...) ret 的方法绑定成生产者。
// object 是实例时直接绑定接收者；是 reflect.Type 时立即通过注册表实例化一个接收者。
// 绑定的生产者不套构造后流水线。
func (r *Registry) MethodProducer(object any, ret reflect.Type, params ...reflect.Type) (*Producer, error) {
	if object == nil {
		return nil, configErrorf("MethodProducer needs an instance or a reflect.Type")
	}
	sig := signature.New(ret, params...)

	var root reflect.Value
	var t reflect.Type
	if tt, ok := object.(reflect.Type); ok {
		v, err := r.Instantiate(tt)
		if err != nil {
			return nil, err
		}
		root = reflect.ValueOf(v)
		t = tt
	} else {
		root = reflect.ValueOf(object)
		t = root.Type()
	}

	match, err := findMethod(t, sig)
	if err != nil {
		return nil, err
	}
	receiver, err := receiverByPath(root, match.path)
	if err != nil {
		return nil, err
	}
	m := match.method

	// 接口类型的方法没有显式接收者，要通过值上的绑定方法调用
	invoke := func(args []reflect.Value) []reflect.Value {
		if !m.Func.IsValid() {
			return receiver.MethodByName(m.Name).Call(args)
		}
		full := make([]reflect.Value, 0, len(args)+1)
		full = append(full, receiver)
		full = append(full, args...)
		return m.Func.Call(full)
	}

	call := func(args []reflect.Value) (reflect.Value, error) {
		results := invoke(args)
		switch len(results) {
		case 0:
			return reflect.Value{}, nil
		case 1:
			if m.Type.Out(0) == errorType {
				if !results[0].IsNil() {
					return reflect.Value{}, results[0].Interface().(error)
				}
				return reflect.Value{}, nil
			}
			return results[0], nil
		default:
			if !results[1].IsNil() {
				return reflect.Value{}, results[1].Interface().(error)
			}
			return results[0], nil
		}
	}
	return &Producer{sig: sig, call: call}, nil
}

// receiverByPath 沿内嵌字段路径取出被遮蔽方法的实际接收者。
// 未导出的内嵌字段取出的值不能合法地作为调用目标，报配置错误而不是任由 reflect panic。
func receiverByPath(v reflect.Value, path []int) (reflect.Value, error) {
	for _, idx := range path {
		if v.Kind() == reflect.Pointer {
			v = v.Elem()
		}
		f := v.Type().Field(idx)
		if f.PkgPath != "" {
			return reflect.Value{}, configErrorf("method is declared on unexported embedded field %s of %s", f.Name, v.Type())
		}
		v = v.Field(idx)
	}
	return v, nil
}
