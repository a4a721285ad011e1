package launart

// Descriptor is an introspection snapshot of one registered Launchable,
// exposed by Manager.Descriptors for diagnostics endpoints and tests without
// requiring callers to reach into the Launchable's own accessors.
type Descriptor struct {
	ID                      string
	Required                []string
	Stages                  []Stage
	Stage                   Stage
	SupportedInterfaceTypes []string
}

func describe(l Launchable) Descriptor {
	d := Descriptor{
		ID:    l.ID(),
		Stage: l.Status().Stage(),
	}
	for id := range l.Required() {
		d.Required = append(d.Required, id)
	}
	for s := range l.Stages() {
		d.Stages = append(d.Stages, s)
	}
	if svc, ok := l.(Service); ok {
		for _, claim := range svc.SupportedInterfaceTypes().Claims() {
			d.SupportedInterfaceTypes = append(d.SupportedInterfaceTypes, claim.Type.String())
		}
	}
	return d
}

// Descriptors returns an introspection snapshot of every registered
// Launchable, in registration order.
func (m *Manager) Descriptors() []Descriptor {
	ls := m.orderedLaunchables()
	out := make([]Descriptor, 0, len(ls))
	for _, l := range ls {
		out = append(out, describe(l))
	}
	return out
}
