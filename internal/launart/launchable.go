package launart

import (
	"context"

	"github.com/launchkit/launchkit/internal/statv"
)

// Stage re-exports statv.Stage so embedders need not import statv directly
// to read a component's declared participation.
type Stage = statv.Stage

const (
	StagePrepare  = statv.StagePrepare
	StageBlocking = statv.StageBlocking
	StageCleanup  = statv.StageCleanup
)

// Launchable is the component contract: a stable id, a set of ids it
// requires to have prepared before itself, the subset of {prepare, blocking,
// cleanup} it participates in, a LaunchableStatus, and a launch body.
//
// A launch body that declares StagePrepare or StageBlocking must call
// Status().SetPrepare() then Status().SetBlocking() before entering its
// long-running loop, since a status only moves one stage at a time. One
// that declares StageCleanup must call Status().SetCleanup() then
// Status().SetFinished() before returning. Components declaring none of the
// stages simply run Launch to completion.
type Launchable interface {
	ID() string
	Required() map[string]struct{}
	Stages() map[Stage]struct{}
	Status() *statv.LaunchableStatus
	Launch(ctx context.Context, mgr *Manager) error
}

// RequirePreparedHook is implemented by a Launchable that wants to be
// notified, per layer, which of its required ids just reached prepared.
type RequirePreparedHook interface {
	OnRequirePrepared(ctx context.Context, ids []string) error
}

// RequireExitedHook is implemented by a Launchable that wants to be
// notified, per layer (in reverse), which of its required ids just finished.
type RequireExitedHook interface {
	OnRequireExited(ctx context.Context, ids []string) error
}

// Readyer is implemented by a Launchable that exposes a lightweight
// readiness probe beyond its lifecycle stage. The manager never calls it;
// it is there for embedders and tests to probe a component directly.
type Readyer interface {
	Ready(ctx context.Context) error
}

// Base provides the id/required/stages/status plumbing a Launchable embeds,
// leaving only Launch to be implemented. Grounded on the teacher's
// ServiceBase pattern of a small embeddable struct satisfying most of an
// interface's boilerplate.
type Base struct {
	id       string
	required map[string]struct{}
	stages   map[Stage]struct{}
	status   *statv.LaunchableStatus
}

// NewBase constructs a Base with the given id, required ids, and declared
// stages.
func NewBase(id string, required []string, stages ...Stage) Base {
	req := make(map[string]struct{}, len(required))
	for _, r := range required {
		req[r] = struct{}{}
	}
	st := make(map[Stage]struct{}, len(stages))
	for _, s := range stages {
		st[s] = struct{}{}
	}
	return Base{
		id:       id,
		required: req,
		stages:   st,
		status:   statv.NewLaunchableStatus(),
	}
}

func (b *Base) ID() string                        { return b.id }
func (b *Base) Required() map[string]struct{}      { return b.required }
func (b *Base) Stages() map[Stage]struct{}         { return b.stages }
func (b *Base) Status() *statv.LaunchableStatus    { return b.status }

// declaresStage reports whether the Launchable's declared stages include s.
func declaresStage(l Launchable, s Stage) bool {
	_, ok := l.Stages()[s]
	return ok
}
