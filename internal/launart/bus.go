package launart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Callback is one bound handler invoked by TriggerCallbacks.
type Callback func(ctx context.Context, payload any) error

// DefaultCallbackTimeout bounds a single callback invocation when the caller
// does not supply one.
const DefaultCallbackTimeout = 5 * time.Second

// TriggerCallbacks runs every bound callback concurrently against payload,
// each under its own timeout, and joins whatever errors come back without
// letting one slow or failing callback block or sink the others. Grounded on
// Bus.PublishEvent's fan-out-with-per-engine-timeout pattern, generalized
// from event engines to the rider/endpoint callback list described in
// spec.md §4.7. Nothing is logged here; callback errors and timeouts are
// only returned, joined.
func TriggerCallbacks(ctx context.Context, callbacks []Callback, payload any, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultCallbackTimeout
	}

	errCh := make(chan error, len(callbacks))
	var wg sync.WaitGroup

	for i, cb := range callbacks {
		if cb == nil {
			continue
		}
		wg.Add(1)
		go func(idx int, fn Callback) {
			defer wg.Done()
			cbCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			if err := fn(cbCtx, payload); err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					errCh <- fmt.Errorf("callback[%d]: timeout after %v", idx, timeout)
				} else {
					errCh <- fmt.Errorf("callback[%d]: %w", idx, err)
				}
			}
		}(i, cb)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
