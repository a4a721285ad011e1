package launart

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/launchkit/launchkit/internal/statv"
)

// Logger is the minimal logging surface the manager needs. *logger.Logger
// (internal/logger, a logrus wrapper) satisfies it directly.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Option configures a Manager at construction, mirroring the teacher's
// functional-options pattern (system/core/options.go).
type Option func(*Manager)

// WithLogger injects a logger. Defaults to a no-op logger.
func WithLogger(l Logger) Option {
	return func(m *Manager) { m.log = l }
}

// Manager is Launart: it owns Launchables, routes service interfaces, and
// runs the three-phase supervised launch described in spec.md §4.4.
type Manager struct {
	mu          sync.RWMutex
	launchables map[string]Launchable
	order       []string // insertion order, for stable diagnostics
	services    []Service
	bindings    map[reflect.Type]*binding

	status *statv.ManagerStatus
	log    Logger

	wg sync.WaitGroup
}

// NewManager constructs an empty Manager at stage unset.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		launchables: make(map[string]Launchable),
		bindings:    make(map[reflect.Type]*binding),
		status:      statv.NewManagerStatus(),
		log:         nopLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status returns the manager's ManagerStatus.
func (m *Manager) Status() *statv.ManagerStatus { return m.status }

// AddLaunchable registers l. Duplicate ids fail with ErrDuplicateID.
func (m *Manager) AddLaunchable(l Launchable) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.launchables[l.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, l.ID())
	}
	m.launchables[l.ID()] = l
	m.order = append(m.order, l.ID())

	if svc, ok := l.(Service); ok {
		m.services = append(m.services, svc)
		bindings, err := resolveBindings(m.services)
		if err != nil {
			// roll back
			m.services = m.services[:len(m.services)-1]
			delete(m.launchables, l.ID())
			m.order = m.order[:len(m.order)-1]
			return err
		}
		m.bindings = bindings
	}

	return nil
}

// AddComponent is a typed convenience for registering a Service.
func (m *Manager) AddComponent(svc Service) error { return m.AddLaunchable(svc) }

// RemoveLaunchable unregisters id. It does not fail if id is absent.
func (m *Manager) RemoveLaunchable(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.launchables[id]; !exists {
		return nil
	}
	delete(m.launchables, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	services := m.services[:0:0]
	for _, svc := range m.services {
		if svc.ID() != id {
			services = append(services, svc)
		}
	}
	m.services = services
	bindings, err := resolveBindings(m.services)
	if err != nil {
		return err
	}
	m.bindings = bindings
	return nil
}

// GetInterface resolves t via the service bindings and delegates to the
// winning service's GetInterface. Fails with ErrUnsupportedInterface if no
// service is bound.
func (m *Manager) GetInterface(t reflect.Type) (any, error) {
	m.mu.RLock()
	b, ok := m.bindings[t]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInterface, t)
	}
	return b.svc.GetInterface(t)
}

// GetInterface is a generic convenience wrapping Manager.GetInterface with
// TypeOf[T]() and a type assertion, letting callers write
// launart.GetInterface[MyInterface](mgr).
func GetInterface[T any](m *Manager) (T, error) {
	var zero T
	v, err := m.GetInterface(TypeOf[T]())
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T does not implement requested type", ErrUnsupportedInterface, v)
	}
	return typed, nil
}

// GetComponent returns the registered Service with the given id, or nil.
func (m *Manager) GetComponent(id string) Service {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, svc := range m.services {
		if svc.ID() == id {
			return svc
		}
	}
	return nil
}

// orderedLaunchables returns all registered launchables in registration
// order, for diagnostics that need stable iteration.
func (m *Manager) orderedLaunchables() []Launchable {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Launchable, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.launchables[id])
	}
	return out
}

// Launch runs the supervised three-phase launch documented in
// spec.md §4.4:
//
//  1. refuse with ErrAlreadyRunning if stage != unset.
//  2. transition to prepare; resolve dependency layers; start each layer's
//     launch bodies only once the previous layer has reached "prepared"
//     (stage >= blocking), invoking OnRequirePrepared hooks as each layer
//     clears. Layer-staged starts (rather than starting the whole registry
//     at once) is the chosen realization of the spec's "layer barrier"
//     ordering guarantee — see DESIGN.md.
//  3. once every layer is prepared, transition to blocking and wait for
//     sigexit (an external Shutdown() call, or ctx cancellation).
//  4. transition to cleanup; walk layers in reverse, cancelling each layer's
//     context only after the layer above it has finished, waiting for each
//     to reach finished and invoking OnRequireExited hooks.
//  5. await any still-running launch bodies that declared no cleanup
//     stage.
//
// Errors inside a launch body are logged with the component id and the
// manager stage observed at failure; they never abort other components.
func (m *Manager) Launch(ctx context.Context) error {
	if m.status.Stage() != statv.StageUnset {
		return ErrAlreadyRunning
	}

	layers, err := ResolveLayers(m.orderedLaunchables())
	if err != nil {
		return err
	}

	if err := m.status.SetPrepare(); err != nil {
		return err
	}

	launchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	var preparedIDs []string
	var layerCancels []context.CancelFunc

	for _, layer := range layers {
		layerCtx, layerCancel := context.WithCancel(launchCtx)
		layerCancels = append(layerCancels, layerCancel)
		for _, l := range layer {
			m.startLaunchable(layerCtx, l)
		}

		for _, l := range layer {
			if declaresStage(l, StagePrepare) || declaresStage(l, StageBlocking) {
				if err := l.Status().WaitForPrepared(ctx); err != nil {
					m.log.Warnf("launart: %s: wait for prepared: %v", l.ID(), err)
				}
			}
		}

		for _, l := range layer {
			deps := intersect(l.Required(), preparedIDs)
			if hook, ok := l.(RequirePreparedHook); ok && len(deps) > 0 {
				if err := hook.OnRequirePrepared(ctx, deps); err != nil {
					m.log.Warnf("launart: %s: OnRequirePrepared: %v", l.ID(), err)
				}
			}
		}

		for _, l := range layer {
			preparedIDs = append(preparedIDs, l.ID())
		}
	}

	if err := m.status.SetBlocking(); err != nil {
		return err
	}

	blockerDone := make(chan struct{})
	go func() {
		defer close(blockerDone)
		m.awaitAllFinished(ctx, layers)
	}()

	select {
	case <-blockerDone:
	case <-ctx.Done():
	case <-m.awaitSigexitSignal(ctx):
	}

	_ = m.status.SetCleanup()

	cleanupCtx := context.Background()
	reversed := ReverseLayers(layers)
	var exitedIDs []string

	for i, layer := range reversed {
		layerCancels[len(layerCancels)-1-i]()
		for _, l := range layer {
			if declaresStage(l, StageCleanup) {
				if err := l.Status().WaitForFinished(cleanupCtx); err != nil {
					m.log.Warnf("launart: %s: wait for finished: %v", l.ID(), err)
				}
			}
		}

		for _, l := range layer {
			deps := intersect(l.Required(), exitedIDs)
			if hook, ok := l.(RequireExitedHook); ok && len(deps) > 0 {
				if err := hook.OnRequireExited(cleanupCtx, deps); err != nil {
					m.log.Warnf("launart: %s: OnRequireExited: %v", l.ID(), err)
				}
			}
		}

		for _, l := range layer {
			exitedIDs = append(exitedIDs, l.ID())
		}
	}

	m.wg.Wait()
	return nil
}

// awaitSigexitSignal returns a channel closed once the manager status
// leaves {prepare, blocking} for a reason external to the blocker task
// (e.g. an embedder calling Shutdown()).
func (m *Manager) awaitSigexitSignal(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		_ = m.status.WaitForSigexit(ctx)
	}()
	return ch
}

// Shutdown requests a transition to cleanup, the manager's equivalent of an
// external status.set_cleanup() call (spec.md §4.4 step 5).
func (m *Manager) Shutdown() error {
	return m.status.SetCleanup()
}

func (m *Manager) awaitAllFinished(ctx context.Context, layers [][]Launchable) {
	var wg sync.WaitGroup
	for _, layer := range layers {
		for _, l := range layer {
			if !declaresStage(l, StageCleanup) {
				continue
			}
			wg.Add(1)
			go func(l Launchable) {
				defer wg.Done()
				_ = l.Status().WaitForCompleted(ctx)
			}(l)
		}
	}
	wg.Wait()
}

func (m *Manager) startLaunchable(ctx context.Context, l Launchable) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				m.log.Errorf("launart: %s: panic at stage %s: %v", l.ID(), m.status.Stage(), r)
			}
		}()

		if err := l.Launch(ctx, m); err != nil {
			stage := m.status.Stage().String()
			cerr := NewComponentError(l.ID(), stage, err)
			if declaresStage(l, StageBlocking) && m.status.Stage() == statv.StagePrepare {
				m.log.Errorf("launart: premature exit: %v", cerr)
			} else {
				m.log.Warnf("launart: %v", cerr)
			}
		}
	}()
}

func intersect(set map[string]struct{}, candidates []string) []string {
	var out []string
	for _, c := range candidates {
		if _, ok := set[c]; ok {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
