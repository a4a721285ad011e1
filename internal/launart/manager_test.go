package launart

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLaunchable is a minimal Launchable that appends to a shared,
// mutex-guarded log every time it reaches prepare and blocking, then exits
// once the manager enters cleanup.
type recordingLaunchable struct {
	Base
	mu  *sync.Mutex
	log *[]string
}

func newRecordingLaunchable(id string, required []string, mu *sync.Mutex, log *[]string) *recordingLaunchable {
	return &recordingLaunchable{
		Base: NewBase(id, required, StagePrepare, StageBlocking, StageCleanup),
		mu:   mu,
		log:  log,
	}
}

func (r *recordingLaunchable) note(event string) {
	r.mu.Lock()
	*r.log = append(*r.log, r.ID()+"."+event)
	r.mu.Unlock()
}

func (r *recordingLaunchable) Launch(ctx context.Context, mgr *Manager) error {
	r.note("prepare")
	if err := r.Status().SetPrepare(); err != nil {
		return err
	}
	r.note("blocking")
	if err := r.Status().SetBlocking(); err != nil {
		return err
	}

	<-ctx.Done()

	if err := r.Status().SetCleanup(); err != nil {
		return err
	}
	r.note("cleanup")
	return r.Status().SetFinished()
}

func TestManagerLaunchOrdersDependencyChain(t *testing.T) {
	var mu sync.Mutex
	var log []string

	a := newRecordingLaunchable("a", nil, &mu, &log)
	b := newRecordingLaunchable("b", []string{"a"}, &mu, &log)
	c := newRecordingLaunchable("c", []string{"b"}, &mu, &log)

	mgr := NewManager()
	require.NoError(t, mgr.AddLaunchable(a))
	require.NoError(t, mgr.AddLaunchable(b))
	require.NoError(t, mgr.AddLaunchable(c))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Launch(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Launch did not return")
	}

	mu.Lock()
	defer mu.Unlock()

	indexOf := func(event string) int {
		for i, e := range log {
			if e == event {
				return i
			}
		}
		return -1
	}

	// a must be blocking before b starts preparing, and b blocking before c
	// prepares - the layer-barrier ordering guarantee.
	assert.Less(t, indexOf("a.blocking"), indexOf("b.prepare"))
	assert.Less(t, indexOf("b.blocking"), indexOf("c.prepare"))

	// cleanup runs in reverse: c before b before a.
	assert.Less(t, indexOf("c.cleanup"), indexOf("b.cleanup"))
	assert.Less(t, indexOf("b.cleanup"), indexOf("a.cleanup"))
}

func TestManagerRejectsDuplicateID(t *testing.T) {
	var mu sync.Mutex
	var log []string

	mgr := NewManager()
	require.NoError(t, mgr.AddLaunchable(newRecordingLaunchable("x", nil, &mu, &log)))

	err := mgr.AddLaunchable(newRecordingLaunchable("x", nil, &mu, &log))
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestManagerRejectsDoubleLaunch(t *testing.T) {
	mgr := NewManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = mgr.Launch(ctx) }()
	time.Sleep(10 * time.Millisecond)

	assert.ErrorIs(t, mgr.Launch(ctx), ErrAlreadyRunning)
}

// stubService is a Service exposing a single interface type at a fixed
// priority, used to exercise GetInterface resolution.
type stubService struct {
	Base
	iface    any
	priority int
}

type stubInterface interface {
	Hello() string
}

type stubImpl struct{ name string }

func (s stubImpl) Hello() string { return s.name }

func newStubService(id string, priority int) *stubService {
	return &stubService{
		Base:     NewBase(id, nil),
		iface:    stubImpl{name: id},
		priority: priority,
	}
}

func (s *stubService) Launch(ctx context.Context, mgr *Manager) error {
	<-ctx.Done()
	return nil
}

func (s *stubService) SupportedInterfaceTypes() Priority {
	return PriorityOf(TypeOf[stubInterface](), s.priority)
}

func (s *stubService) GetInterface(t reflect.Type) (any, error) {
	if t == TypeOf[stubInterface]() {
		return s.iface, nil
	}
	return nil, ErrUnsupportedInterface
}

func TestManagerGetInterfaceResolvesHighestPriority(t *testing.T) {
	mgr := NewManager()
	require.NoError(t, mgr.AddComponent(newStubService("low", 1)))
	require.NoError(t, mgr.AddComponent(newStubService("high", 5)))

	got, err := GetInterface[stubInterface](mgr)
	require.NoError(t, err)
	assert.Equal(t, "high", got.Hello())
}

func TestManagerGetInterfaceConflictOnEqualPriority(t *testing.T) {
	mgr := NewManager()
	require.NoError(t, mgr.AddComponent(newStubService("one", 3)))

	err := mgr.AddComponent(newStubService("two", 3))
	assert.ErrorIs(t, err, ErrInterfaceConflict)
}
