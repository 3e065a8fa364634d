package registry

import (
	"reflect"

	"github.com/gocrud/factory/signature"
)

// newConstructorProducer 合成构造回退：请求结构体（或结构体指针）时，
// 用 reflect.New 创建零值，并把参数按位置赋给前几个导出字段。
// 参数类型必须与对应字段类型完全一致。无法合成时返回 false。
func newConstructorProducer(sig signature.Signature) (*Producer, bool) {
	ret := sig.Return()
	if ret == nil {
		return nil, false
	}

	elem := ret
	pointer := false
	if ret.Kind() == reflect.Pointer {
		elem = ret.Elem()
		pointer = true
	}
	if elem.Kind() != reflect.Struct {
		return nil, false
	}

	// 前 N 个导出字段按位置接收参数
	var fields []reflect.StructField
	for i := 0; i < elem.NumField() && len(fields) < sig.NumParams(); i++ {
		f := elem.Field(i)
		if !f.IsExported() {
			continue
		}
		fields = append(fields, f)
	}
	if len(fields) != sig.NumParams() {
		return nil, false
	}
	for i, f := range fields {
		if sig.Param(i) != f.Type {
			return nil, false
		}
	}

	call := func(args []reflect.Value) (reflect.Value, error) {
		v := reflect.New(elem)
		for i, f := range fields {
			v.Elem().FieldByIndex(f.Index).Set(args[i])
		}
		if pointer {
			return v, nil
		}
		return v.Elem(), nil
	}
	return &Producer{sig: sig, call: call}, true
}
