// Package launarttest provides test doubles for exercising the launart
// manager without standing up real transports, databases, or caches,
// grounded on the teacher's recording mock-bus-client pattern (a double that
// records every call it receives instead of asserting inline).
package launarttest

import (
	"context"
	"sync"

	"github.com/launchkit/launchkit/internal/launart"
)

// Call records one invocation made against a RecordingLaunchable.
type Call struct {
	Method string
	Args   []string
}

// RecordingLaunchable is a Launchable whose Launch body, hooks, and
// readiness probe all record their invocations instead of doing real work,
// for tests that assert on the manager's scheduling behavior rather than on
// any particular component's logic.
type RecordingLaunchable struct {
	launart.Base

	mu    sync.Mutex
	calls []Call

	// BlockUntilCleanup, when true (the default), makes Launch run
	// prepare->blocking then block until ctx is cancelled before advancing
	// to cleanup->finished, mirroring a real long-running service.
	BlockUntilCleanup bool

	// LaunchErr, if set, is returned from Launch instead of nil.
	LaunchErr error
}

// NewRecordingLaunchable constructs a recorder declaring the full
// prepare/blocking/cleanup stage set.
func NewRecordingLaunchable(id string, required []string) *RecordingLaunchable {
	return &RecordingLaunchable{
		Base:              launart.NewBase(id, required, launart.StagePrepare, launart.StageBlocking, launart.StageCleanup),
		BlockUntilCleanup: true,
	}
}

func (r *RecordingLaunchable) record(method string, args ...string) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Method: method, Args: args})
	r.mu.Unlock()
}

// Calls returns a copy of every recorded call, in order.
func (r *RecordingLaunchable) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call{}, r.calls...)
}

// Launch implements launart.Launchable.
func (r *RecordingLaunchable) Launch(ctx context.Context, mgr *launart.Manager) error {
	r.record("launch.start")
	if r.LaunchErr != nil {
		return r.LaunchErr
	}

	if err := r.Status().SetPrepare(); err != nil {
		return err
	}
	r.record("prepare")

	if err := r.Status().SetBlocking(); err != nil {
		return err
	}
	r.record("blocking")

	if r.BlockUntilCleanup {
		<-ctx.Done()
	}

	if err := r.Status().SetCleanup(); err != nil {
		return err
	}
	r.record("cleanup")

	if err := r.Status().SetFinished(); err != nil {
		return err
	}
	r.record("finished")
	return nil
}

// OnRequirePrepared implements launart.RequirePreparedHook, recording which
// ids were reported ready.
func (r *RecordingLaunchable) OnRequirePrepared(ctx context.Context, ids []string) error {
	r.record("OnRequirePrepared", ids...)
	return nil
}

// OnRequireExited implements launart.RequireExitedHook, recording which ids
// were reported exited.
func (r *RecordingLaunchable) OnRequireExited(ctx context.Context, ids []string) error {
	r.record("OnRequireExited", ids...)
	return nil
}

// Ready implements launart.Readyer, always succeeding unless LaunchErr is
// set.
func (r *RecordingLaunchable) Ready(ctx context.Context) error {
	r.record("ready")
	return r.LaunchErr
}
