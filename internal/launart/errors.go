// Package launart implements the launch manager: the component registry,
// the requirement resolver, the supervised three-phase launch sequence, and
// the service/priority interface-resolution strategy.
package launart

import (
	"errors"
	"fmt"

	"github.com/launchkit/launchkit/internal/ioc"
	"github.com/launchkit/launchkit/internal/statv"
)

// Sentinel errors for the taxonomy named in the runtime's error-handling
// design. Each is checked with errors.Is; wrapper types below attach context
// without losing the sentinel.
var (
	// ErrRequirementUnresolvable means the dependency graph has a cycle or
	// references an unknown id.
	ErrRequirementUnresolvable = errors.New("launart: requirement graph unresolvable")

	// ErrDuplicateID means the same Launchable id was added twice.
	ErrDuplicateID = errors.New("launart: duplicate launchable id")

	// ErrDuplicateRoute means two transports claimed the same endpoint in
	// the same router.
	ErrDuplicateRoute = errors.New("launart: duplicate route")

	// ErrStageViolation means an illegal lifecycle transition was attempted
	// on a status (re-exported from statv for callers that only import
	// launart).
	ErrStageViolation = statv.ErrStageViolation

	// ErrInterfaceConflict means two services claim the same interface type
	// without a priority winner, or a claim clashes with an unlocated one.
	ErrInterfaceConflict = errors.New("launart: interface conflict")

	// ErrUnsupportedInterface means get_interface(T) asked for a T no
	// service supports.
	ErrUnsupportedInterface = errors.New("launart: unsupported interface")

	// ErrNoHandler means a Transport was asked for a handler whose
	// signature is not registered.
	ErrNoHandler = errors.New("launart: no handler for signature")

	// ErrConnectionClosed means the wire closed while the consumer expected
	// a frame (the same value as ioc.ErrConnectionClosed).
	ErrConnectionClosed = ioc.ErrConnectionClosed

	// ErrUnexpectedFrame means a WebSocket message of an unrecognized type
	// arrived (the same value as ioc.ErrUnexpectedFrame).
	ErrUnexpectedFrame = ioc.ErrUnexpectedFrame

	// ErrTakenOver means rider.IO() was called after rider.Use(transport)
	// switched the rider to autoreceive.
	ErrTakenOver = errors.New("launart: rider taken over by autoreceive")

	// ErrUnsupportedResponse means a server handler returned a body type the
	// adapter cannot encode (the same value as ioc.ErrUnsupportedResponse).
	ErrUnsupportedResponse = ioc.ErrUnsupportedResponse

	// ErrMissingRequiredStat is re-exported from statv for callers that only
	// import launart.
	ErrMissingRequiredStat = statv.ErrMissingRequiredStat

	// ErrAlreadyRunning means manager.Launch() was called while stage !=
	// unset.
	ErrAlreadyRunning = errors.New("launart: manager already running")
)

// ComponentError wraps an error escaping a Launchable's launch body with the
// component id and the manager stage observed when the error surfaced.
// Grounded on the teacher's ServiceError{Service, Op, Err} pattern.
type ComponentError struct {
	ID    string
	Stage string
	Err   error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("component %q (stage=%s): %v", e.ID, e.Stage, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}

// NewComponentError constructs a ComponentError.
func NewComponentError(id, stage string, err error) *ComponentError {
	if err == nil {
		return nil
	}
	return &ComponentError{ID: id, Stage: stage, Err: err}
}
