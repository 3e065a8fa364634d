package memo_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocrud/factory/memo"
)

func TestGetComputesOnce(t *testing.T) {
	var calls int32
	cell := memo.New(func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return "value", nil
	})

	for i := 0; i < 5; i++ {
		v, err := cell.Get()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != "value" {
			t.Fatalf("unexpected value: %v", v)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("compute ran %d times, want 1", got)
	}
}

func TestConcurrentFirstAccessSingleFlight(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	cell := memo.New(func() (any, error) {
		atomic.AddInt32(&calls, 1)
		<-started
		return 42, nil
	})

	const workers = 16
	var wg sync.WaitGroup
	results := make([]any, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := cell.Get()
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			results[i] = v
		}(i)
	}
	// 给等待者时间堆积在慢路径上，然后放行计算。
	time.Sleep(20 * time.Millisecond)
	close(started)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("compute ran %d times under contention, want 1", got)
	}
	for i, v := range results {
		if v != 42 {
			t.Fatalf("worker %d observed %v, want 42", i, v)
		}
	}
}

func TestFailedComputeDoesNotPoison(t *testing.T) {
	boom := errors.New("boom")
	var calls int32
	cell := memo.New(func() (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, boom
		}
		return "recovered", nil
	})

	if _, err := cell.Get(); !errors.Is(err, boom) {
		t.Fatalf("first access should fail with boom, got %v", err)
	}
	if cell.Settled() {
		t.Fatal("failed compute must leave the cell unsettled")
	}

	v, err := cell.Get()
	if err != nil {
		t.Fatalf("second access should retry and succeed: %v", err)
	}
	if v != "recovered" {
		t.Fatalf("unexpected value after retry: %v", v)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("compute should have run twice, ran %d times", calls)
	}
}

func TestResetTriggersRecompute(t *testing.T) {
	var calls int32
	cell := memo.NewVolatile(func() (any, error) {
		return atomic.AddInt32(&calls, 1), nil
	})

	v1, _ := cell.Get()
	v2, _ := cell.Get()
	if v1 != int32(1) || v2 != int32(1) {
		t.Fatalf("memoized value changed: %v then %v", v1, v2)
	}

	cell.Reset()
	v3, _ := cell.Get()
	if v3 != int32(2) {
		t.Fatalf("reset should force recompute, got %v", v3)
	}
}

func TestUpdateToSkipsCompute(t *testing.T) {
	var calls int32
	cell := memo.New(func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return "computed", nil
	})

	cell.UpdateTo("pinned")
	v, err := cell.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "pinned" {
		t.Fatalf("expected pinned value, got %v", v)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatal("UpdateTo must not run the computation")
	}

	// 覆盖已敲定的值同样生效。
	cell.UpdateTo("repinned")
	if v, _ := cell.Get(); v != "repinned" {
		t.Fatalf("expected repinned value, got %v", v)
	}
}

func TestActionCell(t *testing.T) {
	var runs int32
	cell := memo.NewAction(func() error {
		atomic.AddInt32(&runs, 1)
		return nil
	})

	for i := 0; i < 3; i++ {
		v, err := cell.Get()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != nil {
			t.Fatalf("action cell must not expose a value, got %v", v)
		}
	}
	if atomic.LoadInt32(&runs) != 1 {
		t.Fatalf("action ran %d times, want 1", runs)
	}

	// 动作单元的 UpdateTo 丢弃传入值，只完成敲定。
	fresh := memo.NewAction(func() error {
		atomic.AddInt32(&runs, 1)
		return nil
	})
	fresh.UpdateTo("ignored")
	if v, _ := fresh.Get(); v != nil {
		t.Fatalf("updated action cell must stay valueless, got %v", v)
	}
	if atomic.LoadInt32(&runs) != 1 {
		t.Fatal("UpdateTo on an action cell must skip the action")
	}
}

func TestActionCellError(t *testing.T) {
	boom := errors.New("boom")
	failOnce := int32(0)
	cell := memo.NewAction(func() error {
		if atomic.AddInt32(&failOnce, 1) == 1 {
			return boom
		}
		return nil
	})

	if _, err := cell.Get(); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := cell.Get(); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
}
