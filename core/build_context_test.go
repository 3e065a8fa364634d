package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanupRunsInReverseOrder(t *testing.T) {
	ctx := NewBuildContext(nil, nil, nil)

	var order []int
	ctx.AddCleanup(func() error { order = append(order, 1); return nil })
	ctx.AddCleanup(func() error { order = append(order, 2); return nil })
	ctx.AddCleanup(nil)

	assert.NoError(t, ctx.Close())
	assert.Equal(t, []int{2, 1}, order)

	// 第二次 Close 没有剩余工作
	assert.NoError(t, ctx.Close())
	assert.Equal(t, []int{2, 1}, order)
}

func TestCleanupCollectsErrors(t *testing.T) {
	ctx := NewBuildContext(nil, nil, nil)
	first := errors.New("first")
	second := errors.New("second")
	ctx.AddCleanup(func() error { return first })
	ctx.AddCleanup(func() error { return second })

	err := ctx.Close()
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
}

func TestApplyStopsOnFirstError(t *testing.T) {
	ctx := NewBuildContext(nil, nil, nil)
	boom := errors.New("boom")
	ran := 0

	err := Apply(ctx,
		func(*BuildContext) error { ran++; return nil },
		func(*BuildContext) error { return boom },
		func(*BuildContext) error { ran++; return nil },
	)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ran)
}
