package statv

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetWakesAllWaiters(t *testing.T) {
	s, err := New([]Descriptor{{ID: "a", Default: 0}, {ID: "b", Default: 0}}, nil)
	require.NoError(t, err)

	const waiters = 5
	var wg sync.WaitGroup
	results := make([]Snapshot, waiters)

	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, snap, err := s.WaitForUpdate(context.Background())
			require.NoError(t, err)
			results[idx] = snap
		}(i)
	}

	// Give goroutines a chance to register before the update commits.
	for s.WaiterCount() < waiters {
		time.Sleep(time.Millisecond)
	}

	s.Set("a", 42)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, 42, r.Get("a"))
	}
	assert.Equal(t, 0, s.WaiterCount())
}

func TestUpdateMultiSingleNotification(t *testing.T) {
	s, err := New([]Descriptor{{ID: "a", Default: 0}, {ID: "b", Default: 0}}, nil)
	require.NoError(t, err)

	done := make(chan Snapshot, 1)
	go func() {
		_, snap, err := s.WaitForUpdate(context.Background())
		require.NoError(t, err)
		done <- snap
	}()

	for s.WaiterCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	require.NoError(t, s.UpdateMulti(map[string]any{"a": 1, "b": 2}))

	snap := <-done
	assert.Equal(t, 1, snap.Get("a"))
	assert.Equal(t, 2, snap.Get("b"))
}

func TestUpdateMultiRejectsForeignStat(t *testing.T) {
	s, err := New([]Descriptor{{ID: "a", Default: 0}}, nil)
	require.NoError(t, err)

	err = s.UpdateMulti(map[string]any{"nope": 1})
	assert.ErrorIs(t, err, ErrForeignStat)
}

func TestMissingRequiredStat(t *testing.T) {
	_, err := New([]Descriptor{{ID: "must", Required: true}}, nil)
	assert.ErrorIs(t, err, ErrMissingRequiredStat)

	s, err := New([]Descriptor{{ID: "must", Required: true}}, map[string]any{"must": "supplied"})
	require.NoError(t, err)
	v, ok := s.Get("must")
	require.True(t, ok)
	assert.Equal(t, "supplied", v)
}

func TestFactoryPerInstance(t *testing.T) {
	n := 0
	factory := func() any {
		n++
		return n
	}
	s1, err := New([]Descriptor{{ID: "x", Factory: factory}}, nil)
	require.NoError(t, err)
	s2, err := New([]Descriptor{{ID: "x", Factory: factory}}, nil)
	require.NoError(t, err)

	v1, _ := s1.Get("x")
	v2, _ := s2.Get("x")
	assert.NotEqual(t, v1, v2)
}

func TestWaitForUpdateCancellation(t *testing.T) {
	s, err := New([]Descriptor{{ID: "a", Default: 0}}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err = s.WaitForUpdate(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, s.WaiterCount())
}

func TestConnectionStatusDerivedFields(t *testing.T) {
	c := NewConnectionStatus()
	assert.True(t, c.Closed())
	assert.False(t, c.Available())

	connected := true
	require.NoError(t, c.Update(&connected, nil))
	assert.True(t, c.Available())
	assert.False(t, c.Closed())
}

func TestConnectionStatusIdempotentUpdate(t *testing.T) {
	c := NewConnectionStatus()
	var changes int
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for {
			_, _, err := c.WaitForUpdate(ctx)
			if err != nil {
				return
			}
			changes++
		}
	}()

	connected := true
	require.NoError(t, c.Update(&connected, nil))
	require.NoError(t, c.Update(&connected, nil))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, changes, "repeating an update with the same value is a no-op after the first observable change")
}

func TestLaunchableStatusMonotonicTransitions(t *testing.T) {
	l := NewLaunchableStatus()
	assert.Equal(t, StageUnset, l.Stage())

	require.NoError(t, l.SetPrepare())
	require.NoError(t, l.SetBlocking())
	require.NoError(t, l.SetCleanup())
	require.NoError(t, l.SetFinished())
	assert.Equal(t, StageFinished, l.Stage())
}

func TestLaunchableStatusRejectsBackwardAndSkip(t *testing.T) {
	l := NewLaunchableStatus()
	require.NoError(t, l.SetPrepare())
	require.NoError(t, l.SetBlocking())

	assert.ErrorIs(t, l.SetPrepare(), ErrStageViolation)
	assert.ErrorIs(t, l.SetFinished(), ErrStageViolation)

	require.NoError(t, l.SetBlocking(), "setting the same stage twice is a no-op, not an error")
}

func TestLaunchableStatusWaitForPrepared(t *testing.T) {
	l := NewLaunchableStatus()
	done := make(chan struct{})
	go func() {
		require.NoError(t, l.WaitForPrepared(context.Background()))
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, l.SetPrepare())
	require.NoError(t, l.SetBlocking())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForPrepared did not return")
	}
}

func TestManagerStatusWaitForSigexit(t *testing.T) {
	m := NewManagerStatus()
	require.NoError(t, m.SetPrepare())
	require.NoError(t, m.SetBlocking())

	done := make(chan struct{})
	go func() {
		require.NoError(t, m.WaitForSigexit(context.Background()))
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, m.SetCleanup())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForSigexit did not return")
	}
}
