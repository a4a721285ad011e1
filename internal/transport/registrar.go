package transport

import "github.com/launchkit/launchkit/internal/ioc"

// Registrar is a builder accumulating handlers/callbacks/declares, merged
// eagerly into an immutable Transport by Build. Compose several Registrars
// (e.g. a base transport's plus a refinement's) with Merge to reproduce the
// source's class-table inheritance: handlers are overridden in
// base-to-derived order, callbacks and declares are appended.
type Registrar struct {
	handlers  map[ioc.Signature]Handler
	callbacks map[ioc.Signature][]Callback
	declares  []ioc.Signature
}

// NewRegistrar starts an empty Registrar.
func NewRegistrar() *Registrar {
	return &Registrar{
		handlers:  make(map[ioc.Signature]Handler),
		callbacks: make(map[ioc.Signature][]Callback),
	}
}

// Handle binds sig to h, overriding any prior binding.
func (r *Registrar) Handle(sig ioc.Signature, h Handler) *Registrar {
	r.handlers[sig] = h
	return r
}

// On appends cb to sig's callback list.
func (r *Registrar) On(sig ioc.Signature, cb Callback) *Registrar {
	r.callbacks[sig] = append(r.callbacks[sig], cb)
	return r
}

// Declare records sig as a body-less declaration, e.g. an endpoint meant to
// be mounted by a router adapter.
func (r *Registrar) Declare(sig ioc.Signature) *Registrar {
	r.declares = append(r.declares, sig)
	return r
}

// Merge folds other into r in place: other's handlers override r's,
// other's callbacks and declares are appended. Used to fold a base
// Transport's Registrar into a derived one (base-to-derived order).
func (r *Registrar) Merge(other *Registrar) *Registrar {
	for sig, h := range other.handlers {
		r.handlers[sig] = h
	}
	for sig, cbs := range other.callbacks {
		r.callbacks[sig] = append(r.callbacks[sig], cbs...)
	}
	r.declares = append(r.declares, other.declares...)
	return r
}

// Build produces an immutable Transport named name from the accumulated
// tables.
func (r *Registrar) Build(name string) *Transport {
	handlers := make(map[ioc.Signature]Handler, len(r.handlers))
	for k, v := range r.handlers {
		handlers[k] = v
	}
	callbacks := make(map[ioc.Signature][]Callback, len(r.callbacks))
	for k, v := range r.callbacks {
		callbacks[k] = append([]Callback{}, v...)
	}
	return &Transport{
		name:      name,
		handlers:  handlers,
		callbacks: callbacks,
		declares:  append([]ioc.Signature{}, r.declares...),
	}
}
