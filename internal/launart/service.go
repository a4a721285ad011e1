package launart

import (
	"fmt"
	"reflect"
)

// Unlocated is the sentinel priority a Priority pattern's "set" form claims
// an interface type at: no explicit ranking, just "this service can serve
// it." Any other claim on the same type, ranked or not, is an
// ErrInterfaceConflict.
const Unlocated = -1

// Claim is one (interface type, priority) entry contributed by a service's
// priority pattern. Priority == Unlocated models the source's bare-set form.
type Claim struct {
	Type     reflect.Type
	Priority int
}

// Priority is the builder API replacing the source's "set | map | tuple of
// either" union. Build one with PrioritySet/PriorityOf and combine with
// ComposePriority.
type Priority struct {
	claims []Claim
}

// PrioritySet claims each of the given types at Unlocated priority.
func PrioritySet(types ...reflect.Type) Priority {
	p := Priority{}
	for _, t := range types {
		p.claims = append(p.claims, Claim{Type: t, Priority: Unlocated})
	}
	return p
}

// PriorityOf claims a single type at an explicit numeric priority.
func PriorityOf(t reflect.Type, priority int) Priority {
	return Priority{claims: []Claim{{Type: t, Priority: priority}}}
}

// ComposePriority flattens several patterns into one, mirroring the source's
// tuple-of-patterns form.
func ComposePriority(patterns ...Priority) Priority {
	out := Priority{}
	for _, p := range patterns {
		out.claims = append(out.claims, p.claims...)
	}
	return out
}

// Claims returns the normalized list of claims in this pattern.
func (p Priority) Claims() []Claim {
	return append([]Claim{}, p.claims...)
}

// Service is a Launchable that additionally exports typed interfaces via a
// priority pattern. GetInterface returns a concrete object implementing T
// once the manager has resolved T to this service as the winner.
type Service interface {
	Launchable
	SupportedInterfaceTypes() Priority
	GetInterface(t reflect.Type) (any, error)
}

// binding tracks, per interface type, the currently winning service and the
// priority it won at — used to detect interface-conflict at bind time.
type binding struct {
	svc      Service
	priority int
	claimed  bool // true once any claim has been recorded (priority may still be Unlocated)
}

// resolveBindings runs the priority-strategy algorithm over a set of
// services' patterns, returning the winning service per interface type or
// failing with ErrInterfaceConflict. Grounded on apis.go/service_registry.go's
// capability-probing and GetServiceAs lookup, generalized to a reflect.Type
// keyed table instead of a fixed type-switch.
func resolveBindings(services []Service) (map[reflect.Type]*binding, error) {
	bindings := make(map[reflect.Type]*binding)

	for _, svc := range services {
		for _, claim := range svc.SupportedInterfaceTypes().Claims() {
			existing, ok := bindings[claim.Type]
			if !ok {
				bindings[claim.Type] = &binding{svc: svc, priority: claim.Priority, claimed: true}
				continue
			}

			switch {
			case claim.Priority == Unlocated || existing.priority == Unlocated:
				return nil, fmt.Errorf("%w: %s claimed by both %q and %q (unlocated priority)",
					ErrInterfaceConflict, claim.Type, existing.svc.ID(), svc.ID())
			case claim.Priority > existing.priority:
				bindings[claim.Type] = &binding{svc: svc, priority: claim.Priority, claimed: true}
			case claim.Priority == existing.priority:
				return nil, fmt.Errorf("%w: %s claimed by both %q and %q at equal priority %d",
					ErrInterfaceConflict, claim.Type, existing.svc.ID(), svc.ID(), claim.Priority)
			default:
				// existing wins; keep it.
			}
		}
	}

	return bindings, nil
}

// TypeOf is a small generics helper returning the reflect.Type for T,
// letting callers write TypeOf[MyInterface]() instead of
// reflect.TypeOf((*MyInterface)(nil)).Elem().
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
