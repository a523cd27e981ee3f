package concurrency

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLockerSerializesSameKey(t *testing.T) {
	locker := NewKeyedLocker()

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locker.Do("user-1", func() {
				n := atomic.AddInt32(&active, 1)
				for {
					cur := atomic.LoadInt32(&maxActive)
					if n <= cur || atomic.CompareAndSwapInt32(&maxActive, cur, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
	assert.Equal(t, 0, locker.Len())
}

func TestKeyedLockerIndependentKeys(t *testing.T) {
	locker := NewKeyedLocker()
	locker.Lock("a")

	done := make(chan struct{})
	go func() {
		locker.Do("b", func() {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on key b blocked behind key a")
	}
	locker.Unlock("a")
	assert.Equal(t, 0, locker.Len())
}

func TestSafeGoRecoversPanic(t *testing.T) {
	recovered := make(chan interface{}, 1)
	SafeGo(func() {
		panic("boom")
	}, func(r interface{}) {
		recovered <- r
	})

	select {
	case r := <-recovered:
		require.Equal(t, "boom", r)
	case <-time.After(time.Second):
		t.Fatal("panic was not recovered")
	}
}

func TestGuardTurnsPanicIntoError(t *testing.T) {
	err := Guard(func() error {
		var m map[string]int
		m["x"] = 1
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}

func TestGuardPassesErrorThrough(t *testing.T) {
	want := errors.New("calendar down")
	assert.Equal(t, want, Guard(func() error { return want }))
	assert.NoError(t, Guard(func() error { return nil }))
}
