// Package statv implements the observable-record primitive that underlies
// every status type in launchkit: a set of named, typed stats attached to an
// instance, with atomic multi-field updates and one-shot waiter notification.
//
// The source this runtime is modeled on used attribute descriptors over an
// instance dictionary (a dynamic-language idiom). Statv instead keeps a
// per-type table of stat descriptors and a per-instance value map, exposed
// only through Get/Set/UpdateMulti — never through direct field access — so
// that every mutation can notify waiters atomically.
package statv

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// ErrUnknownStat is the panic value of MustGet when the requested stat was
// never initialized on this instance; Get reports that case with ok == false.
var ErrUnknownStat = fmt.Errorf("statv: stat not initialized")

// ErrForeignStat is returned by UpdateMulti when a key in the mapping does
// not belong to the instance's declared stats.
var ErrForeignStat = fmt.Errorf("statv: invalid stat ownership")

// ErrMissingRequiredStat is returned by New when a declared stat has neither
// a default value nor a factory and the caller did not supply one in init.
var ErrMissingRequiredStat = fmt.Errorf("statv: missing required stat")

// Descriptor declares one stat at the type level: its id, an optional
// default value, and an optional factory invoked once per instance at
// construction. At most one of Default/Factory should be set; Factory takes
// priority when both are present.
type Descriptor struct {
	ID      string
	Default any
	Factory func() any
	// Required marks a stat that must be supplied via an init value when no
	// Default or Factory is declared. New fails with ErrMissingRequiredStat
	// otherwise.
	Required bool
}

// Snapshot is a frozen copy of a Statv instance's values at the moment a
// notification fired, letting observers compute whatever delta they need.
type Snapshot map[string]any

// Get returns the stat's value from the snapshot, or nil if absent.
func (s Snapshot) Get(id string) any {
	return s[id]
}

// waiter is a one-shot notification: exactly one snapshot is ever sent, then
// the channel is closed by the sender.
type waiter struct {
	ch chan Snapshot
}

// Statv is a reactive record of named stats with atomic multi-field updates
// and coroutine (goroutine) wake-ups on every set/update.
type Statv struct {
	mu      sync.Mutex
	values  map[string]any
	waiters map[*waiter]struct{}
}

// New constructs a Statv instance from the given type-level descriptors and
// an optional init map supplying values for stats without a default or
// factory. Descriptors lacking both Default and Factory and marked Required
// must appear in init, or New fails with ErrMissingRequiredStat.
func New(descriptors []Descriptor, init map[string]any) (*Statv, error) {
	s := &Statv{
		values:  make(map[string]any, len(descriptors)),
		waiters: make(map[*waiter]struct{}),
	}

	for _, d := range descriptors {
		switch {
		case d.Factory != nil:
			s.values[d.ID] = d.Factory()
		case d.Default != nil:
			s.values[d.ID] = d.Default
		default:
			if v, ok := init[d.ID]; ok {
				s.values[d.ID] = v
				continue
			}
			if d.Required {
				return nil, fmt.Errorf("%w: %s", ErrMissingRequiredStat, d.ID)
			}
			s.values[d.ID] = nil
		}
	}

	return s, nil
}

// Get returns the current value of stat. ok is false if the stat was never
// initialized on this instance.
func (s *Statv) Get(stat string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[stat]
	return v, ok
}

// MustGet returns the current value of stat, panicking if it is unset. Use
// only from specializations that declare the stat unconditionally.
func (s *Statv) MustGet(stat string) any {
	v, ok := s.Get(stat)
	if !ok {
		panic(fmt.Sprintf("statv: %s: %v", stat, ErrUnknownStat))
	}
	return v
}

// Set atomically stores value under stat and wakes every pending waiter with
// the post-update snapshot. A value equal (via reflect.DeepEqual) to the
// current one is a no-op: it is not written and no notification fires, per
// the runtime's idempotence law (repeating an observable update with the
// same value must not repeat the observation).
func (s *Statv) Set(stat string, value any) {
	s.mu.Lock()
	if reflect.DeepEqual(s.values[stat], value) {
		s.mu.Unlock()
		return
	}
	s.values[stat] = value
	snap := s.snapshotLocked()
	ws := s.drainWaitersLocked()
	s.mu.Unlock()

	notify(ws, snap)
}

// UpdateMulti validates that every key in mapping belongs to this instance's
// declared stats, writes all values, and fires exactly one notification
// covering all fields. It fails with ErrForeignStat if any key is foreign,
// leaving the instance unmodified. If every value in mapping is unchanged
// from the current snapshot, the whole update is a no-op and no notification
// fires — this is what makes repeating an identical ConnectionStatus.Update
// call produce a single observable change followed by silence.
func (s *Statv) UpdateMulti(mapping map[string]any) error {
	s.mu.Lock()
	for k := range mapping {
		if _, ok := s.values[k]; !ok {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrForeignStat, k)
		}
	}
	changed := false
	for k, v := range mapping {
		if !reflect.DeepEqual(s.values[k], v) {
			changed = true
			break
		}
	}
	if !changed {
		s.mu.Unlock()
		return nil
	}
	for k, v := range mapping {
		s.values[k] = v
	}
	snap := s.snapshotLocked()
	ws := s.drainWaitersLocked()
	s.mu.Unlock()

	notify(ws, snap)
	return nil
}

// Snapshot returns a frozen copy of the current values.
func (s *Statv) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Statv) snapshotLocked() Snapshot {
	snap := make(Snapshot, len(s.values))
	for k, v := range s.values {
		snap[k] = v
	}
	return snap
}

func (s *Statv) drainWaitersLocked() []*waiter {
	if len(s.waiters) == 0 {
		return nil
	}
	ws := make([]*waiter, 0, len(s.waiters))
	for w := range s.waiters {
		ws = append(ws, w)
	}
	s.waiters = make(map[*waiter]struct{})
	return ws
}

func notify(ws []*waiter, snap Snapshot) {
	for _, w := range ws {
		w.ch <- snap
		close(w.ch)
	}
}

// WaitForUpdate registers a one-shot waiter and blocks until any Set or
// UpdateMulti on this instance runs, returning the pre-wait snapshot ("old")
// and the post-update snapshot ("new"). The waiter is removed on return or on
// ctx cancellation, so waiters never leak.
func (s *Statv) WaitForUpdate(ctx context.Context) (old, updated Snapshot, err error) {
	s.mu.Lock()
	old = s.snapshotLocked()
	w := &waiter{ch: make(chan Snapshot, 1)}
	s.waiters[w] = struct{}{}
	s.mu.Unlock()

	select {
	case snap := <-w.ch:
		return old, snap, nil
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.waiters, w)
		s.mu.Unlock()
		return old, nil, ctx.Err()
	}
}

// WaitUntil blocks until predicate(snapshot) is true, re-checking after every
// update. It evaluates the current snapshot first, so it returns immediately
// if the condition already holds.
func (s *Statv) WaitUntil(ctx context.Context, predicate func(Snapshot) bool) error {
	for {
		if predicate(s.Snapshot()) {
			return nil
		}
		_, _, err := s.WaitForUpdate(ctx)
		if err != nil {
			return err
		}
	}
}

// WaiterCount returns the number of waiters currently queued. Exposed for
// tests asserting P2 (notify-all, no leaks).
func (s *Statv) WaiterCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}
