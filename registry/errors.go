package registry

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/gocrud/factory/signature"
)

// ErrNoMatch 没有任何提供者或构造回退能服务请求的签名。
var ErrNoMatch = errors.New("no matching provider")

// AmbiguityError 同一类型内存在多个同样匹配的方法，无法唯一选择。
type AmbiguityError struct {
	Type reflect.Type
	Sig  signature.Signature
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("factory: ambiguous methods on %s matching %s", e.Type, e.Sig)
}

// ConfigurationError 注册输入本身不合法，注册时立即返回。
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "factory: " + e.Reason
}

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// NullProducerError 必需生产者产出了 nil。
type NullProducerError struct {
	Sig signature.Signature
}

func (e *NullProducerError) Error() string {
	return fmt.Sprintf("factory: producer for %s returned nil", e.Sig)
}

// OwnerError 惰性宿主实例化失败。首次访问触发，后续访问会重试。
type OwnerError struct {
	Owner reflect.Type
	Err   error
}

func (e *OwnerError) Error() string {
	return fmt.Sprintf("factory: instantiating provider owner %s: %v", e.Owner, e.Err)
}

func (e *OwnerError) Unwrap() error { return e.Err }
