// Package transport implements the per-class handler/callback tables
// described in spec §4.6: a Transport carries a handlers table (signature ->
// single function), a callbacks table (signature -> list of functions), and
// a declares list (signatures with no body, mounted by a router adapter).
//
// The source merges these tables at Python class-construction time by
// mutating class dictionaries. spec.md's redesign flag calls that out
// as a pattern to re-architect: here, a Registrar builder accumulates
// entries and is merged eagerly into an immutable Transport value at
// construction instead, so there is no class-table mutation to reason
// about at all.
package transport

import (
	"context"
	"fmt"

	"github.com/launchkit/launchkit/internal/ioc"
	"github.com/launchkit/launchkit/internal/launart"
)

// Handler answers a single request-shaped signature (an HTTP endpoint, a
// reconnect decision, …) with a value or an error.
type Handler func(ctx context.Context, args ...any) (any, error)

// Callback observes an event-shaped signature (WebSocket connect/received/
// close, …). Errors are joined and returned by launart.TriggerCallbacks,
// never fatal to sibling callbacks; nothing logs them.
type Callback func(ctx context.Context, args ...any) error

// Transport is an immutable value carrying three per-class tables, merged
// once at construction from one or more Registrars (a base Transport's
// tables plus refinements, in base-to-derived order).
type Transport struct {
	name      string
	handlers  map[ioc.Signature]Handler
	callbacks map[ioc.Signature][]Callback
	declares  []ioc.Signature
}

// GetHandler returns the handler bound to sig, or ErrNoHandler if absent.
func (t *Transport) GetHandler(sig ioc.Signature) (Handler, error) {
	h, ok := t.handlers[sig]
	if !ok {
		return nil, fmt.Errorf("%w: %s", launart.ErrNoHandler, sig)
	}
	return h, nil
}

// GetCallbacks returns the callbacks bound to sig, empty if none.
func (t *Transport) GetCallbacks(sig ioc.Signature) []Callback {
	return append([]Callback{}, t.callbacks[sig]...)
}

// IterHandlers enumerates every (signature, handler) pair.
func (t *Transport) IterHandlers() map[ioc.Signature]Handler {
	out := make(map[ioc.Signature]Handler, len(t.handlers))
	for k, v := range t.handlers {
		out[k] = v
	}
	return out
}

// IterCallbacks enumerates every (signature, callbacks) pair.
func (t *Transport) IterCallbacks() map[ioc.Signature][]Callback {
	out := make(map[ioc.Signature][]Callback, len(t.callbacks))
	for k, v := range t.callbacks {
		out[k] = append([]Callback{}, v...)
	}
	return out
}

// Declares returns every signature this Transport declares without a body
// (endpoints meant to be mounted by a router adapter).
func (t *Transport) Declares() []ioc.Signature {
	return append([]ioc.Signature{}, t.declares...)
}

// Name identifies the Transport for logging.
func (t *Transport) Name() string { return t.name }
