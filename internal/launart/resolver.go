package launart

import (
	"fmt"
	"sort"
)

// ResolveLayers partitions launchables into dependency layers: layer 0 holds
// every launchable whose Required() is empty, layer 1 holds every launchable
// whose Required() is a subset of layer 0's ids, and so on. Order within a
// layer is unspecified (callers that need determinism should sort it
// themselves); the resolver only guarantees the earlier-layers-first
// partition.
//
// Grounded on the teacher's DependencyManager.ResolveOrder (iterative
// fixed-point Kahn-style pass over a dependency map), generalized to return
// layers instead of a single flat order so the manager can run every
// layer's prepare wave concurrently.
func ResolveLayers(launchables []Launchable) ([][]Launchable, error) {
	if len(launchables) == 0 {
		return nil, nil
	}

	byID := make(map[string]Launchable, len(launchables))
	for _, l := range launchables {
		byID[l.ID()] = l
	}

	resolved := make(map[string]struct{}, len(launchables))
	remaining := append([]Launchable{}, launchables...)

	var layers [][]Launchable

	for len(remaining) > 0 {
		var layer []Launchable
		var next []Launchable

		for _, l := range remaining {
			ready := true
			for req := range l.Required() {
				if _, ok := byID[req]; !ok {
					return nil, fmt.Errorf("%w: %s requires unknown id %s", ErrRequirementUnresolvable, l.ID(), req)
				}
				if _, done := resolved[req]; !done {
					ready = false
					break
				}
			}
			if ready {
				layer = append(layer, l)
			} else {
				next = append(next, l)
			}
		}

		if len(layer) == 0 {
			ids := make([]string, 0, len(next))
			for _, l := range next {
				ids = append(ids, l.ID())
			}
			sort.Strings(ids)
			return nil, fmt.Errorf("%w: cycle or unresolved among: %v", ErrRequirementUnresolvable, ids)
		}

		for _, l := range layer {
			resolved[l.ID()] = struct{}{}
		}
		layers = append(layers, layer)
		remaining = next
	}

	return layers, nil
}

// ReverseLayers returns a new slice with the layer order reversed (each
// layer's own internal order preserved), used at cleanup time.
func ReverseLayers(layers [][]Launchable) [][]Launchable {
	out := make([][]Launchable, len(layers))
	for i, layer := range layers {
		out[len(layers)-1-i] = layer
	}
	return out
}
