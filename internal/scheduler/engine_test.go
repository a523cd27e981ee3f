package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harunnryd/bookbot/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTarget struct {
	calls   int32
	evicted int
}

func (c *countingTarget) Sweep() int {
	atomic.AddInt32(&c.calls, 1)
	return c.evicted
}

func TestScheduler_NewSchedulerDefaults(t *testing.T) {
	sched, err := NewScheduler(&countingTarget{}, config.SessionConfig{}, config.DaemonConfig{})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSessionSweepSchedule, sched.schedule)
}

func TestScheduler_RejectsBadSchedule(t *testing.T) {
	_, err := NewScheduler(&countingTarget{}, config.SessionConfig{SweepSchedule: "every so often"}, config.DaemonConfig{})
	assert.Error(t, err)
}

func TestScheduler_ComponentLifecycle(t *testing.T) {
	target := &countingTarget{}
	sched, err := NewScheduler(target, config.SessionConfig{SweepSchedule: "@every 1h"}, config.DaemonConfig{ShutdownTimeout: "1s"})
	require.NoError(t, err)

	ctx := context.Background()
	if err := sched.Health(ctx); err == nil {
		t.Fatal("expected health error before init")
	}
	if err := sched.Start(ctx); err == nil {
		t.Fatal("expected start error before init")
	}

	require.NoError(t, sched.Init(ctx))
	require.NoError(t, sched.Start(ctx))
	assert.True(t, sched.IsRunning())
	assert.NoError(t, sched.Health(ctx))
	assert.False(t, sched.NextRun().IsZero())

	require.NoError(t, sched.Stop(ctx))
	assert.False(t, sched.IsRunning())
	assert.Error(t, sched.Health(ctx))
	assert.True(t, sched.NextRun().IsZero())

	// Stopping twice is a no-op.
	assert.NoError(t, sched.Stop(ctx))
}

func TestScheduler_RunOnce(t *testing.T) {
	target := &countingTarget{evicted: 3}
	sched, err := NewScheduler(target, config.SessionConfig{}, config.DaemonConfig{})
	require.NoError(t, err)

	sched.RunOnce()
	last, count := sched.LastRun()
	assert.Equal(t, int32(1), atomic.LoadInt32(&target.calls))
	assert.Equal(t, 3, count)
	assert.WithinDuration(t, time.Now(), last, time.Second)
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	target := &countingTarget{}
	sched, err := NewScheduler(target, config.SessionConfig{SweepSchedule: "@every 1s"}, config.DaemonConfig{})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sched.Init(ctx))
	require.NoError(t, sched.Start(ctx))
	defer sched.Stop(ctx)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&target.calls) > 0
	}, 3*time.Second, 50*time.Millisecond)
}
