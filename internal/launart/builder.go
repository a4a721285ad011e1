package launart

// Builder is a fluent constructor for a Base-backed Launchable's fixed
// fields, grounded on the teacher's fluent ServiceBuilder pattern (component
// authors chain id/requires/stages calls instead of hand-writing a struct
// literal with a map-building prelude).
type Builder struct {
	id       string
	required []string
	stages   []Stage
}

// NewBuilder starts a Builder for the given component id.
func NewBuilder(id string) *Builder {
	return &Builder{id: id}
}

// Requires appends ids this component depends on.
func (b *Builder) Requires(ids ...string) *Builder {
	b.required = append(b.required, ids...)
	return b
}

// ParticipatesIn declares the lifecycle stages this component moves through.
func (b *Builder) ParticipatesIn(stages ...Stage) *Builder {
	b.stages = append(b.stages, stages...)
	return b
}

// Base builds the embeddable Base from the accumulated fields.
func (b *Builder) Base() Base {
	return NewBase(b.id, b.required, b.stages...)
}
