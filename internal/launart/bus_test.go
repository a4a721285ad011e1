package launart

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerCallbacksRunsAllConcurrentlyAndJoinsErrors(t *testing.T) {
	var started sync.WaitGroup
	started.Add(3)
	release := make(chan struct{})

	failing := func(ctx context.Context, payload any) error {
		started.Done()
		<-release
		return errors.New("boom")
	}
	ok := func(ctx context.Context, payload any) error {
		started.Done()
		<-release
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- TriggerCallbacks(context.Background(), []Callback{failing, ok, ok}, "payload", 0)
	}()

	// All three callbacks must have started before any of them can return,
	// proving they run concurrently rather than sequentially.
	waitCh := make(chan struct{})
	go func() { started.Wait(); close(waitCh) }()
	select {
	case <-waitCh:
	case <-time.After(time.Second):
		t.Fatal("callbacks did not start concurrently")
	}
	close(release)

	err := <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, len(splitJoined(err)))
}

func TestTriggerCallbacksNoErrorsReturnsNil(t *testing.T) {
	var calls atomic.Int32
	cb := func(ctx context.Context, payload any) error {
		calls.Add(1)
		return nil
	}
	err := TriggerCallbacks(context.Background(), []Callback{cb, cb, cb}, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTriggerCallbacksTimesOutSlowCallback(t *testing.T) {
	slow := func(ctx context.Context, payload any) error {
		<-ctx.Done()
		return ctx.Err()
	}
	err := TriggerCallbacks(context.Background(), []Callback{slow}, nil, 10*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestTriggerCallbacksSkipsNilEntries(t *testing.T) {
	var calls atomic.Int32
	cb := func(ctx context.Context, payload any) error {
		calls.Add(1)
		return nil
	}
	err := TriggerCallbacks(context.Background(), []Callback{cb, nil, cb}, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func splitJoined(err error) []error {
	type unwrapper interface{ Unwrap() []error }
	if u, ok := err.(unwrapper); ok {
		return u.Unwrap()
	}
	return []error{err}
}
