package cron

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/factory/core"
	"github.com/gocrud/factory/logging"
	"github.com/gocrud/factory/memo"
)

func TestAddJobAndTrigger(t *testing.T) {
	s := NewScheduler(logging.NewNopLogger())

	ran := 0
	require.NoError(t, s.AddJob("@hourly", "count", func() { ran++ }))

	require.NoError(t, s.Trigger("count"))
	require.NoError(t, s.Trigger("count"))
	assert.Equal(t, 2, ran)

	assert.Error(t, s.Trigger("missing"))
}

func TestAddJobRejectsBadSpecAndDuplicates(t *testing.T) {
	s := NewScheduler(logging.NewNopLogger())

	assert.Error(t, s.AddJob("not a spec", "bad", func() {}))
	require.NoError(t, s.AddJob("@daily", "dup", func() {}))
	assert.Error(t, s.AddJob("@daily", "dup", func() {}))
}

func TestSecondsPrecision(t *testing.T) {
	// 六段表达式只有启用秒级精度后才被接受
	plain := NewScheduler(logging.NewNopLogger())
	assert.Error(t, plain.AddJob("*/1 * * * * *", "tick", func() {}))

	withSeconds := NewScheduler(logging.NewNopLogger(), func(o *Options) {
		o.EnableSeconds = true
	})
	assert.NoError(t, withSeconds.AddJob("*/1 * * * * *", "tick", func() {}))
}

func TestAddCellResetInvalidatesCell(t *testing.T) {
	s := NewScheduler(logging.NewNopLogger())

	builds := 0
	cell := memo.New(func() (any, error) {
		builds++
		return builds, nil
	})

	v, err := cell.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	require.NoError(t, s.AddCellReset("@hourly", "refresh", cell))
	require.NoError(t, s.Trigger("refresh"))

	assert.False(t, cell.Settled())
	v, err = cell.Get()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestRemove(t *testing.T) {
	s := NewScheduler(logging.NewNopLogger())
	require.NoError(t, s.AddJob("@hourly", "gone", func() {}))
	assert.Equal(t, []string{"gone"}, s.Jobs())

	s.Remove("gone")
	assert.Empty(t, s.Jobs())
	assert.Error(t, s.Trigger("gone"))
}

func TestConfigureRegistersScheduler(t *testing.T) {
	ctx := core.NewBuildContext(nil, nil, nil)
	defer ctx.Close()

	ran := 0
	err := core.Apply(ctx, Configure(func(b *Builder) {
		b.AddJob("@hourly", "job", func() { ran++ })
	}))
	require.NoError(t, err)

	v, err := ctx.Registry.Instantiate(reflect.TypeOf(&Scheduler{}))
	require.NoError(t, err)
	s := v.(*Scheduler)

	require.NoError(t, s.Trigger("job"))
	assert.Equal(t, 1, ran)
	require.NoError(t, ctx.Close())
}
