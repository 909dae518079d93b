package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coachpo/simpool/config"
	"github.com/coachpo/simpool/errs"
	"github.com/coachpo/simpool/observability"
)

const defaultShutdownTimeout = 5 * time.Second

// Manager coordinates named pools, providing registration, in-flight
// accounting, and graceful shutdown semantics for pooled instances.
type Manager struct {
	mu           sync.RWMutex
	pools        map[string]*SyncPool[Poolable]
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	inFlight     sync.WaitGroup
	activeCount  atomic.Int64
	debug        *debugState
}

// NewManager constructs an initialized manager ready for pool registration.
func NewManager() *Manager {
	m := new(Manager)
	m.pools = make(map[string]*SyncPool[Poolable])
	m.shutdownCh = make(chan struct{})
	m.debug = newDebugState()
	return m
}

// Register adds a named pool backed by the provided factory. Construction
// options other than the name are honored.
func (m *Manager) Register(name string, factory Factory[Poolable], opts ...Option) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.shutdownCh:
		return errs.New(name, errs.CodeClosed, errs.WithMessage("manager shutdown in progress"))
	default:
	}

	if _, exists := m.pools[name]; exists {
		return errs.New(name, errs.CodeInvalid, errs.WithMessage("pool already registered"))
	}

	sp, err := NewSync(factory, append(opts, WithName(name))...)
	if err != nil {
		return err
	}
	m.pools[name] = sp
	return nil
}

// Get acquires an instance from the named pool respecting manager shutdown
// state.
func (m *Manager) Get(name string) (Poolable, error) {
	select {
	case <-m.shutdownCh:
		return nil, errs.New(name, errs.CodeClosed, errs.WithMessage("manager shutdown in progress"))
	default:
	}

	sp, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	obj, err := sp.Get()
	if err != nil {
		return nil, err
	}

	m.inFlight.Add(1)
	m.activeCount.Add(1)
	m.debug.recordAcquire(obj)
	return obj, nil
}

// TryGet acquires an instance from the named pool, reporting exhaustion as a
// false ok instead of an error.
func (m *Manager) TryGet(name string) (Poolable, bool, error) {
	select {
	case <-m.shutdownCh:
		return nil, false, errs.New(name, errs.CodeClosed, errs.WithMessage("manager shutdown in progress"))
	default:
	}

	sp, err := m.lookup(name)
	if err != nil {
		return nil, false, err
	}
	obj, ok, err := sp.TryGet()
	if err != nil || !ok {
		return nil, false, err
	}

	m.inFlight.Add(1)
	m.activeCount.Add(1)
	m.debug.recordAcquire(obj)
	return obj, true, nil
}

// Give returns an instance to the named pool. Instances never acquired
// through the manager are accepted, matching the pool overfill contract;
// they simply do not settle in-flight accounting.
func (m *Manager) Give(name string, obj Poolable) error {
	if obj == nil {
		return errs.New(name, errs.CodeInvalid, errs.WithMessage("cannot give nil instance"))
	}
	sp, err := m.lookup(name)
	if err != nil {
		return err
	}
	sp.Give(obj)
	m.debug.recordRelease(obj)

	for {
		n := m.activeCount.Load()
		if n <= 0 {
			return nil
		}
		if m.activeCount.CompareAndSwap(n, n-1) {
			m.inFlight.Done()
			return nil
		}
	}
}

// Pool returns the named pool when registered.
func (m *Manager) Pool(name string) (*SyncPool[Poolable], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sp, ok := m.pools[name]
	return sp, ok
}

// Shutdown waits for all in-flight instances to be returned or cancels after
// the provided context deadline (defaulting to 5 seconds). Outstanding
// instances are logged, with acquisition stacks in debug builds.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var cancel context.CancelFunc
	if _, ok := ctx.Deadline(); !ok {
		ctx, cancel = context.WithTimeout(ctx, defaultShutdownTimeout)
	}
	if cancel != nil {
		defer cancel()
	}

	m.shutdownOnce.Do(func() {
		close(m.shutdownCh)
	})

	done := make(chan struct{})
	go func() {
		m.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		remaining := m.activeCount.Load()
		m.logOutstanding(remaining)
		return errs.New("manager", errs.CodeClosed,
			errs.WithMessage("shutdown timed out with instances in flight"),
			errs.WithCause(ctx.Err()))
	}
}

func (m *Manager) lookup(name string) (*SyncPool[Poolable], error) {
	m.mu.RLock()
	sp, ok := m.pools[name]
	m.mu.RUnlock()
	if !ok {
		return nil, errs.New(name, errs.CodeInvalid, errs.WithMessage("pool not registered"))
	}
	return sp, nil
}

func (m *Manager) logOutstanding(remaining int64) {
	if remaining <= 0 {
		return
	}
	observability.Log().Error("shutdown timed out with instances in flight",
		observability.Field{Key: "remaining", Value: remaining})
	for _, stack := range m.debug.activeStacks() {
		observability.Log().Error("leak candidate",
			observability.Field{Key: "stack", Value: stack})
	}
}

// FromConfig builds a manager and registers one pool per configured entry,
// resolving factories by pool name.
func FromConfig(cfg config.Settings, factories map[string]Factory[Poolable]) (*Manager, error) {
	m := NewManager()
	for _, spec := range cfg.Pools {
		factory, ok := factories[spec.Name]
		if !ok {
			return nil, errs.New(spec.Name, errs.CodeInvalid, errs.WithMessage("no factory for configured pool"))
		}
		err := m.Register(spec.Name, factory,
			WithStartSize(spec.StartSize),
			WithMaxAllocations(spec.MaxAllocations))
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}
