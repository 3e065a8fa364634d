package signature

import "reflect"

// Relation 是 Compare 的结果：候选签名相对于参照签名的关系。
type Relation int

const (
	// Equal 返回类型与参数完全一致。
	Equal Relation = iota
	// MoreGeneric 候选者更宽泛：参照方请求的类型可以由候选者的产出满足。
	MoreGeneric
	// MoreSpecific 候选者更具体：只能覆盖参照方的一部分请求。
	MoreSpecific
	// Convertible 两个方向的放宽同时出现，仍可通过适配调用。
	Convertible
	// Incompatible 类型无法互换。
	Incompatible
	// FewerArguments 候选者参数比参照少。
	FewerArguments
	// MoreArguments 候选者参数比参照多。
	MoreArguments
)

func (r Relation) String() string {
	switch r {
	case Equal:
		return "equal"
	case MoreGeneric:
		return "more-generic"
	case MoreSpecific:
		return "more-specific"
	case Convertible:
		return "convertible"
	case Incompatible:
		return "incompatible"
	case FewerArguments:
		return "fewer-arguments"
	case MoreArguments:
		return "more-arguments"
	}
	return "unknown"
}

// Usable 报告该关系是否允许用候选者服务参照请求（不含需要适配的 Convertible）。
func (r Relation) Usable() bool {
	switch r {
	case Equal, MoreGeneric, MoreSpecific:
		return true
	}
	return false
}

// Compare 按特化程度比较两个签名。reference 是请求方的签名，candidate 是被检查的方法。
//
// 规则按顺序折叠：
//  1. 参数个数不同时立即返回 FewerArguments / MoreArguments。
//  2. 先比较返回类型得到初始关系：相同为 Equal；一方无返回而另一方有则 Incompatible；
//     candidate 的返回可赋值给 reference 的接口返回为 MoreGeneric；反向为 MoreSpecific。
//  3. 每个参数位将关系进一步收紧，一旦某个参数完全不兼容则整体 Incompatible。
//
// “更宽泛”的一侧必须是接口类型：具体类型之间除了完全相同不存在子类型关系。
func Compare(reference, candidate Signature) Relation {
	if reference.NumParams() > candidate.NumParams() {
		return FewerArguments
	}
	if reference.NumParams() < candidate.NumParams() {
		return MoreArguments
	}

	var rel Relation
	refRet, candRet := reference.Return(), candidate.Return()
	switch {
	case refRet == candRet:
		rel = Equal
	case refRet == nil || candRet == nil:
		return Incompatible
	case refRet.Kind() == reflect.Interface && candRet.AssignableTo(refRet):
		rel = MoreGeneric
	case refRet.AssignableTo(candRet):
		rel = MoreSpecific
	default:
		return Incompatible
	}

	for i := 0; i < reference.NumParams(); i++ {
		refP, candP := reference.Param(i), candidate.Param(i)
		switch {
		case refP == candP:
			// 关系不变
		case refP.Kind() == reflect.Interface && candP.AssignableTo(refP):
			// candidate 的参数更具体：只接受参照请求的一部分输入
			switch rel {
			case MoreGeneric:
				rel = Convertible
			case Equal:
				rel = MoreSpecific
			}
		case refP.AssignableTo(candP):
			// candidate 的参数更宽泛：能接受参照请求的全部输入
			switch rel {
			case MoreSpecific:
				rel = Convertible
			case Equal:
				rel = MoreGeneric
			}
		default:
			return Incompatible
		}
	}
	return rel
}
