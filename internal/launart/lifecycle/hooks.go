// Package lifecycle provides a small named-hook registry used by components
// that want ordered pre/post start/stop callbacks without building their own
// bookkeeping, grounded on the teacher's hook-list pattern for service
// startup/shutdown ordering.
package lifecycle

import (
	"context"
	"fmt"
)

// Hook is a single lifecycle callback.
type Hook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Counts reports how many hooks are registered per phase.
type Counts struct {
	PreStart  int
	PostStart int
	PreStop   int
	PostStop  int
}

// Hooks is an ordered registry of pre/post start/stop callbacks. PreStart,
// PostStart, and PreStop run in registration order; PostStop runs in reverse
// registration order, so the last thing started is the first thing torn
// down.
type Hooks struct {
	preStart  []namedHook
	postStart []namedHook
	preStop   []namedHook
	postStop  []namedHook
}

// NewHooks constructs an empty Hooks registry.
func NewHooks() *Hooks {
	return &Hooks{}
}

// OnPreStart registers an unnamed pre-start hook.
func (h *Hooks) OnPreStart(fn Hook) { h.OnPreStartNamed("", fn) }

// OnPreStartNamed registers a named pre-start hook; the name appears in any
// error it returns.
func (h *Hooks) OnPreStartNamed(name string, fn Hook) {
	h.preStart = append(h.preStart, namedHook{name: name, fn: fn})
}

// OnPostStart registers an unnamed post-start hook.
func (h *Hooks) OnPostStart(fn Hook) { h.OnPostStartNamed("", fn) }

// OnPostStartNamed registers a named post-start hook.
func (h *Hooks) OnPostStartNamed(name string, fn Hook) {
	h.postStart = append(h.postStart, namedHook{name: name, fn: fn})
}

// OnPreStop registers an unnamed pre-stop hook.
func (h *Hooks) OnPreStop(fn Hook) { h.OnPreStopNamed("", fn) }

// OnPreStopNamed registers a named pre-stop hook.
func (h *Hooks) OnPreStopNamed(name string, fn Hook) {
	h.preStop = append(h.preStop, namedHook{name: name, fn: fn})
}

// OnPostStop registers an unnamed post-stop hook.
func (h *Hooks) OnPostStop(fn Hook) { h.OnPostStopNamed("", fn) }

// OnPostStopNamed registers a named post-stop hook.
func (h *Hooks) OnPostStopNamed(name string, fn Hook) {
	h.postStop = append(h.postStop, namedHook{name: name, fn: fn})
}

// RunPreStart runs preStart hooks in registration order, stopping at the
// first error.
func (h *Hooks) RunPreStart(ctx context.Context) error { return run(ctx, h.preStart, false) }

// RunPostStart runs postStart hooks in registration order, stopping at the
// first error.
func (h *Hooks) RunPostStart(ctx context.Context) error { return run(ctx, h.postStart, false) }

// RunPreStop runs preStop hooks in registration order, stopping at the first
// error.
func (h *Hooks) RunPreStop(ctx context.Context) error { return run(ctx, h.preStop, false) }

// RunPostStop runs postStop hooks in reverse registration order, stopping at
// the first error.
func (h *Hooks) RunPostStop(ctx context.Context) error { return run(ctx, h.postStop, true) }

// Counts reports the number of registered hooks per phase.
func (h *Hooks) Counts() Counts {
	return Counts{
		PreStart:  len(h.preStart),
		PostStart: len(h.postStart),
		PreStop:   len(h.preStop),
		PostStop:  len(h.postStop),
	}
}

// Clear removes every registered hook from every phase.
func (h *Hooks) Clear() {
	h.preStart = nil
	h.postStart = nil
	h.preStop = nil
	h.postStop = nil
}

func run(ctx context.Context, hooks []namedHook, reverse bool) error {
	n := len(hooks)
	for i := 0; i < n; i++ {
		idx := i
		if reverse {
			idx = n - 1 - i
		}
		nh := hooks[idx]
		if nh.fn == nil {
			continue
		}
		if err := nh.fn(ctx); err != nil {
			if nh.name != "" {
				return fmt.Errorf("hook %q: %w", nh.name, err)
			}
			return err
		}
	}
	return nil
}
