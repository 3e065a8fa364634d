package registry_test

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gocrud/factory/registry"
	"github.com/gocrud/factory/signature"
)

type conn struct {
	Name string
}

type shape interface {
	Sides() int
}

type square struct{ tag string }

func (square) Sides() int { return 4 }

type triangle struct{ tag string }

func (triangle) Sides() int { return 3 }

var (
	connType     = reflect.TypeOf(&conn{})
	shapeType    = reflect.TypeOf((*shape)(nil)).Elem()
	squareType   = reflect.TypeOf(&square{})
	triangleType = reflect.TypeOf(&triangle{})
	stringType   = reflect.TypeOf("")
)

func TestRegisterFuncExact(t *testing.T) {
	reg := registry.New()
	if err := reg.RegisterFunc(func(name string) *conn { return &conn{Name: name} }); err != nil {
		t.Fatalf("register: %v", err)
	}

	p, err := reg.Resolve(connType, stringType)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	v, err := p.Call("primary")
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if c := v.(*conn); c.Name != "primary" {
		t.Fatalf("unexpected value: %+v", c)
	}
}

func TestResolveNoMatch(t *testing.T) {
	reg := registry.New()
	// string 不是结构体，构造回退也帮不上忙
	if _, err := reg.Resolve(stringType); !errors.Is(err, registry.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestLastRegisteredWins(t *testing.T) {
	reg := registry.New()
	if err := reg.Register(
		func() *conn { return &conn{Name: "first"} },
		func() *conn { return &conn{Name: "second"} },
	); err != nil {
		t.Fatalf("register: %v", err)
	}

	p, err := reg.Resolve(connType)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	v, _ := p.Call()
	if v.(*conn).Name != "second" {
		t.Fatalf("latest registration must win, got %+v", v)
	}
}

func TestProviderErrorPropagates(t *testing.T) {
	boom := errors.New("dial failed")
	reg := registry.New()
	if err := reg.RegisterFunc(func() (*conn, error) { return nil, boom }); err != nil {
		t.Fatalf("register: %v", err)
	}

	p, err := reg.Resolve(connType)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := p.Call(); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestRequiredNilProducesError(t *testing.T) {
	reg := registry.New()
	if err := reg.RegisterFunc(func() *conn { return nil }); err != nil {
		t.Fatalf("register: %v", err)
	}

	p, _ := reg.Resolve(connType)
	_, err := p.Call()
	var npe *registry.NullProducerError
	if !errors.As(err, &npe) {
		t.Fatalf("expected NullProducerError, got %v", err)
	}
}

func TestRequiredTypedNilInInterfaceProducesError(t *testing.T) {
	reg := registry.New()
	// 接口里装着类型化 nil 指针，接口本身非 nil，同样算空产出
	if err := reg.RegisterFunc(func() shape { return (*square)(nil) }); err != nil {
		t.Fatalf("register: %v", err)
	}

	p, _ := reg.Resolve(shapeType)
	_, err := p.Call()
	var npe *registry.NullProducerError
	if !errors.As(err, &npe) {
		t.Fatalf("expected NullProducerError for typed nil, got %v", err)
	}
}

func TestRejectBadProviderShapes(t *testing.T) {
	reg := registry.New()
	cases := []any{
		func() {},                                 // 无返回值
		func() error { return nil },               // 只有 error
		func() (int, string) { return 0, "" },     // 第二个返回值不是 error
		func(args ...string) *conn { return nil }, // 变参
	}
	for i, c := range cases {
		err := reg.RegisterFunc(c)
		var ce *registry.ConfigurationError
		if !errors.As(err, &ce) {
			t.Fatalf("case %d: expected ConfigurationError, got %v", i, err)
		}
	}
}

func TestGenericInjectionBindsRequestedType(t *testing.T) {
	reg := registry.New()
	err := reg.RegisterFunc(func(requested reflect.Type) shape {
		v := reflect.New(requested.Elem())
		return v.Interface().(shape)
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// 订阅 shape 的提供者服务所有可赋值的具体请求
	for _, req := range []reflect.Type{squareType, triangleType} {
		p, err := reg.Resolve(req)
		if err != nil {
			t.Fatalf("resolve %s: %v", req, err)
		}
		v, err := p.Call()
		if err != nil {
			t.Fatalf("call %s: %v", req, err)
		}
		if reflect.TypeOf(v) != req {
			t.Fatalf("requested %s, produced %T", req, v)
		}
	}

	// 与订阅类型无关的请求不被服务（string 也不满足构造回退）
	if _, err := reg.Resolve(stringType); !errors.Is(err, registry.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch for unrelated type, got %v", err)
	}
}

func TestGenericInjectionWithExtraParams(t *testing.T) {
	reg := registry.New()
	err := reg.RegisterFunc(func(tag string, requested reflect.Type) shape {
		switch requested {
		case squareType:
			return &square{tag: tag}
		case triangleType:
			return &triangle{tag: tag}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	p, err := reg.Resolve(squareType, stringType)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	v, err := p.Call("red")
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if sq := v.(*square); sq.tag != "red" {
		t.Fatalf("unexpected value: %+v", sq)
	}
}

func TestConstructorFallback(t *testing.T) {
	type settings struct {
		Host string
		Port int

		internal string
	}
	_ = settings{internal: ""}

	reg := registry.New()

	// 无参：零值结构体
	p, err := reg.Resolve(reflect.TypeOf(&settings{}))
	if err != nil {
		t.Fatalf("resolve zero-arg: %v", err)
	}
	v, err := p.Call()
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if s := v.(*settings); s.Host != "" || s.Port != 0 {
		t.Fatalf("expected zero value, got %+v", s)
	}

	// 带参：按位置赋给前两个导出字段
	p, err = reg.Resolve(reflect.TypeOf(&settings{}), stringType, reflect.TypeOf(0))
	if err != nil {
		t.Fatalf("resolve with args: %v", err)
	}
	v, err = p.Call("localhost", 5432)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if s := v.(*settings); s.Host != "localhost" || s.Port != 5432 {
		t.Fatalf("fields not assigned: %+v", s)
	}

	// 参数类型与字段不符：无法合成
	if _, err := reg.Resolve(reflect.TypeOf(&settings{}), reflect.TypeOf(0)); !errors.Is(err, registry.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch for mismatched fields, got %v", err)
	}

	// 值类型结构体同样支持
	p, err = reg.Resolve(reflect.TypeOf(settings{}), stringType, reflect.TypeOf(0))
	if err != nil {
		t.Fatalf("resolve value struct: %v", err)
	}
	v, err = p.Call("db", 1)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if s := v.(settings); s.Host != "db" {
		t.Fatalf("unexpected value: %+v", s)
	}
}

// widgetOwner 的生产者方法通过命名约定被扫描出来。
type widgetOwner struct {
	Prefix string
}

func (o *widgetOwner) ProvideConn() *conn {
	return &conn{Name: o.Prefix + "-conn"}
}

func TestOwnerBoundInstance(t *testing.T) {
	reg := registry.New()
	if err := reg.Register(&widgetOwner{Prefix: "live"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	p, err := reg.Resolve(connType)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	v, err := p.Call()
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if v.(*conn).Name != "live-conn" {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func TestOwnerBoundLazySingleConstruction(t *testing.T) {
	var built int32
	reg := registry.New()
	if err := reg.RegisterFunc(func() *widgetOwner {
		atomic.AddInt32(&built, 1)
		return &widgetOwner{Prefix: "lazy"}
	}); err != nil {
		t.Fatalf("register owner provider: %v", err)
	}
	if err := reg.Register(reflect.TypeOf(&widgetOwner{})); err != nil {
		t.Fatalf("register owner type: %v", err)
	}

	if got := atomic.LoadInt32(&built); got != 0 {
		t.Fatalf("owner constructed eagerly %d times", got)
	}

	p, err := reg.Resolve(connType)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// 解析本身不触发宿主实例化
	if got := atomic.LoadInt32(&built); got != 0 {
		t.Fatalf("owner constructed during resolve %d times", got)
	}

	const workers = 12
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := p.Call()
			if err != nil {
				t.Errorf("call: %v", err)
				return
			}
			if v.(*conn).Name != "lazy-conn" {
				t.Errorf("unexpected value: %+v", v)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&built); got != 1 {
		t.Fatalf("owner constructed %d times under contention, want 1", got)
	}
}

func TestOwnerConstructionFailureSurfacesAndRetries(t *testing.T) {
	boom := errors.New("owner down")
	var attempts int32
	reg := registry.New()
	if err := reg.RegisterFunc(func() (*widgetOwner, error) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return nil, boom
		}
		return &widgetOwner{Prefix: "retry"}, nil
	}); err != nil {
		t.Fatalf("register owner provider: %v", err)
	}
	if err := reg.Register(reflect.TypeOf(&widgetOwner{})); err != nil {
		t.Fatalf("register owner type: %v", err)
	}

	p, err := reg.Resolve(connType)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	_, err = p.Call()
	var oe *registry.OwnerError
	if !errors.As(err, &oe) {
		t.Fatalf("expected OwnerError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("owner error must wrap the cause, got %v", err)
	}

	// 失败不留痕：下一次调用重建宿主并成功
	v, err := p.Call()
	if err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if v.(*conn).Name != "retry-conn" {
		t.Fatalf("unexpected value: %+v", v)
	}
}

// typedOwner 的生产者方法带请求类型注入位。
type typedOwner struct{}

func (typedOwner) ProvideShape(requested reflect.Type) shape {
	return reflect.New(requested.Elem()).Interface().(shape)
}

func TestOwnerBoundWithTypeInjection(t *testing.T) {
	reg := registry.New()
	if err := reg.Register(typedOwner{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	p, err := reg.Resolve(triangleType)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	v, err := p.Call()
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if _, ok := v.(*triangle); !ok {
		t.Fatalf("requested *triangle, produced %T", v)
	}
}

func TestRegisterTypeWithoutProviderMethodsIsNoop(t *testing.T) {
	reg := registry.New()
	if err := reg.Register(reflect.TypeOf(&conn{})); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := len(reg.Providers()); got != 0 {
		t.Fatalf("expected no descriptors, got %d", got)
	}
}

func TestCallArgumentValidation(t *testing.T) {
	reg := registry.New()
	if err := reg.RegisterFunc(func(name string) *conn { return &conn{Name: name} }); err != nil {
		t.Fatalf("register: %v", err)
	}
	p, _ := reg.Resolve(connType, stringType)

	if _, err := p.Call(); err == nil {
		t.Fatal("arity mismatch must fail")
	}
	if _, err := p.Call(42); err == nil {
		t.Fatal("type mismatch must fail")
	}
}

func TestProvidersSnapshot(t *testing.T) {
	reg := registry.New()
	if err := reg.Register(
		func() *conn { return &conn{} },
		&widgetOwner{Prefix: "x"},
	); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterFunc(func(requested reflect.Type) shape { return nil }, registry.WithOptional()); err == nil {
		// 可选生产者需要已有回退，这里没有，应当报错
		t.Fatal("optional generic without fallback must fail")
	}

	infos := reg.Providers()
	if len(infos) != 2 {
		t.Fatalf("expected 2 providers, got %d: %+v", len(infos), infos)
	}
	// 快照按解析优先级排列：最新注册在前
	if infos[0].Kind != "owner" || infos[1].Kind != "exact" {
		t.Fatalf("unexpected order: %+v", infos)
	}
	for _, info := range infos {
		if info.Signature == "" || info.Source == "" {
			t.Fatalf("incomplete info: %+v", info)
		}
	}
}

func TestInstantiate(t *testing.T) {
	reg := registry.New()
	if err := reg.RegisterFunc(func() *conn { return &conn{Name: "inst"} }); err != nil {
		t.Fatalf("register: %v", err)
	}
	v, err := reg.Instantiate(connType)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	if v.(*conn).Name != "inst" {
		t.Fatalf("unexpected value: %+v", v)
	}
}

// customScanner 只认 Build 前缀，验证扫描器可替换。
type customScanner struct{}

func (customScanner) Scan(t reflect.Type) []registry.ProviderMethod {
	var out []registry.ProviderMethod
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if m.Name == "BuildConn" {
			out = append(out, registry.ProviderMethod{Method: m, TypeParamIndex: -1})
		}
	}
	return out
}

type builderOwner struct{}

func (builderOwner) BuildConn() *conn { return &conn{Name: "custom-scan"} }

func (builderOwner) ProvideConn() *conn { return &conn{Name: "default-scan"} }

func TestCustomScanner(t *testing.T) {
	reg := registry.New(registry.WithScanner(customScanner{}))
	if err := reg.Register(builderOwner{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	p, err := reg.Resolve(connType)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	v, _ := p.Call()
	if v.(*conn).Name != "custom-scan" {
		t.Fatalf("custom scanner ignored: %+v", v)
	}
}

func TestSignatureOfProducer(t *testing.T) {
	reg := registry.New()
	if err := reg.RegisterFunc(func(name string) *conn { return &conn{Name: name} }); err != nil {
		t.Fatalf("register: %v", err)
	}
	p, _ := reg.Resolve(connType, stringType)
	want := signature.New(connType, stringType)
	if !p.Signature().Equal(want) {
		t.Fatalf("signature mismatch: %s vs %s", p.Signature(), want)
	}
}

func ExampleRegistry_Resolve() {
	reg := registry.New()
	_ = reg.RegisterFunc(func(name string) *conn { return &conn{Name: name} })

	p, _ := reg.Resolve(reflect.TypeOf(&conn{}), reflect.TypeOf(""))
	v, _ := p.Call("report")
	fmt.Println(v.(*conn).Name)
	// Output: report
}
