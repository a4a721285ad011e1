package statv

import (
	"context"
	"fmt"
)

// Stage is the lifecycle position of a Launchable or of the manager itself.
type Stage int

const (
	StageUnset Stage = iota
	StagePrepare
	StageBlocking
	StageCleanup
	StageFinished
)

func (s Stage) String() string {
	switch s {
	case StageUnset:
		return "unset"
	case StagePrepare:
		return "prepare"
	case StageBlocking:
		return "blocking"
	case StageCleanup:
		return "cleanup"
	case StageFinished:
		return "finished"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ErrStageViolation is returned whenever a Stage transition would move
// backward, or skip to a non-adjacent stage other than the legal forward
// step.
var ErrStageViolation = fmt.Errorf("statv: illegal stage transition")

const statStage = "stage"

// legalForward reports whether moving from 'from' to 'to' is an allowed
// forward transition (including the no-op of staying put) within the given
// ceiling stage (ManagerStatus never reaches StageFinished).
func legalForward(from, to, ceiling Stage) bool {
	if to == from {
		return true
	}
	if to < from || to > ceiling {
		return false
	}
	return to == from+1
}

// LaunchableStatus is a Statv specialization tracking a single Launchable's
// lifecycle stage across unset -> prepare -> blocking -> cleanup -> finished.
type LaunchableStatus struct {
	*Statv
}

// NewLaunchableStatus constructs a LaunchableStatus at stage unset.
func NewLaunchableStatus() *LaunchableStatus {
	s, err := New([]Descriptor{{ID: statStage, Default: StageUnset}}, nil)
	if err != nil {
		panic(err)
	}
	return &LaunchableStatus{Statv: s}
}

// Stage returns the current lifecycle stage.
func (l *LaunchableStatus) Stage() Stage {
	return l.MustGet(statStage).(Stage)
}

func (l *LaunchableStatus) advance(to Stage) error {
	l.Statv.mu.Lock()
	from := l.Statv.values[statStage].(Stage)
	if !legalForward(from, to, StageFinished) {
		l.Statv.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrStageViolation, from, to)
	}
	if to == from {
		l.Statv.mu.Unlock()
		return nil
	}
	l.Statv.values[statStage] = to
	snap := l.Statv.snapshotLocked()
	ws := l.Statv.drainWaitersLocked()
	l.Statv.mu.Unlock()

	notify(ws, snap)
	return nil
}

// SetPrepare advances stage to prepare.
func (l *LaunchableStatus) SetPrepare() error { return l.advance(StagePrepare) }

// SetBlocking advances stage to blocking.
func (l *LaunchableStatus) SetBlocking() error { return l.advance(StageBlocking) }

// SetCleanup advances stage to cleanup.
func (l *LaunchableStatus) SetCleanup() error { return l.advance(StageCleanup) }

// SetFinished advances stage to finished.
func (l *LaunchableStatus) SetFinished() error { return l.advance(StageFinished) }

// WaitForPrepared blocks until stage is not in {unset, prepare}.
func (l *LaunchableStatus) WaitForPrepared(ctx context.Context) error {
	return l.WaitUntil(ctx, func(s Snapshot) bool {
		st := s[statStage].(Stage)
		return st != StageUnset && st != StagePrepare
	})
}

// WaitForCompleted blocks until stage >= cleanup.
func (l *LaunchableStatus) WaitForCompleted(ctx context.Context) error {
	return l.WaitUntil(ctx, func(s Snapshot) bool {
		return s[statStage].(Stage) >= StageCleanup
	})
}

// WaitForFinished blocks until stage == finished.
func (l *LaunchableStatus) WaitForFinished(ctx context.Context) error {
	return l.WaitUntil(ctx, func(s Snapshot) bool {
		return s[statStage].(Stage) == StageFinished
	})
}

// ManagerStatus is a Statv specialization tracking the overall manager
// stage, which never advances past cleanup (there is no "finished" manager
// stage — the process simply exits once cleanup completes).
type ManagerStatus struct {
	*Statv
}

// NewManagerStatus constructs a ManagerStatus at stage unset.
func NewManagerStatus() *ManagerStatus {
	s, err := New([]Descriptor{{ID: statStage, Default: StageUnset}}, nil)
	if err != nil {
		panic(err)
	}
	return &ManagerStatus{Statv: s}
}

// Stage returns the current manager stage.
func (m *ManagerStatus) Stage() Stage {
	return m.MustGet(statStage).(Stage)
}

func (m *ManagerStatus) advance(to Stage) error {
	m.Statv.mu.Lock()
	from := m.Statv.values[statStage].(Stage)
	if !legalForward(from, to, StageCleanup) {
		m.Statv.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrStageViolation, from, to)
	}
	if to == from {
		m.Statv.mu.Unlock()
		return nil
	}
	m.Statv.values[statStage] = to
	snap := m.Statv.snapshotLocked()
	ws := m.Statv.drainWaitersLocked()
	m.Statv.mu.Unlock()

	notify(ws, snap)
	return nil
}

// SetPrepare advances the manager to prepare.
func (m *ManagerStatus) SetPrepare() error { return m.advance(StagePrepare) }

// SetBlocking advances the manager to blocking.
func (m *ManagerStatus) SetBlocking() error { return m.advance(StageBlocking) }

// SetCleanup advances the manager to cleanup. Safe to call from a signal
// handler goroutine or from the blocker task completing naturally.
func (m *ManagerStatus) SetCleanup() error { return m.advance(StageCleanup) }

// WaitForSigexit blocks until the manager stage leaves {prepare, blocking},
// i.e. once cleanup has begun.
func (m *ManagerStatus) WaitForSigexit(ctx context.Context) error {
	return m.WaitUntil(ctx, func(s Snapshot) bool {
		st := s[statStage].(Stage)
		return st != StagePrepare && st != StageBlocking
	})
}
