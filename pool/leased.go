package pool

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	concpool "github.com/sourcegraph/conc/pool"

	"github.com/coachpo/simpool/errs"
)

// Leased is a strict-capacity blocking pool: each request is handed off to a
// long-lived worker goroutine that owns exactly one instance, so lending can
// never exceed the configured capacity and every Put must match an earlier
// Get. It trades the permissive overfill contract of Pool for leak and
// double-put detection, which suits instances backed by real resources.
//
// Instances must be pointers; lease bookkeeping is keyed by pointer identity.
type Leased[T Poolable] struct {
	name      string
	requests  chan *leaseRequest[T]
	stop      chan struct{}
	leases    sync.Map // map[uintptr]*lease[T]
	workers   *concpool.Pool
	closed    atomic.Bool
	capacity  int
	waitGroup sync.WaitGroup
}

type leaseRequest[T Poolable] struct {
	ctx    context.Context
	result chan T
}

type lease[T Poolable] struct {
	returnCh chan T
}

// NewLeased constructs a leased pool. All capacity instances are created
// eagerly; a failing factory aborts construction and the factory error is
// returned unchanged.
func NewLeased[T Poolable](factory Factory[T], capacity int, opts ...Option) (*Leased[T], error) {
	cfg := settings{name: defaultPoolName, startSize: 0, maxAllocations: 0}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if factory == nil {
		return nil, errs.New(cfg.name, errs.CodeInvalid, errs.WithMessage("factory required"))
	}
	if capacity <= 0 {
		return nil, errs.New(cfg.name, errs.CodeInvalid, errs.WithMessage("capacity must be positive"))
	}

	objects := make([]T, 0, capacity)
	for i := 0; i < capacity; i++ {
		obj, err := factory.Create()
		if err != nil {
			return nil, err
		}
		if leaseKey(obj) == 0 {
			return nil, errs.New(cfg.name, errs.CodeInvalid,
				errs.WithMessage(fmt.Sprintf("leased instances must be non-nil pointers, got %T", obj)))
		}
		obj.Reset()
		objects = append(objects, obj)
	}

	lp := &Leased[T]{
		name:      cfg.name,
		requests:  make(chan *leaseRequest[T]),
		stop:      make(chan struct{}),
		leases:    sync.Map{},
		workers:   concpool.New().WithMaxGoroutines(capacity),
		closed:    atomic.Bool{},
		capacity:  capacity,
		waitGroup: sync.WaitGroup{},
	}
	for _, obj := range objects {
		obj := obj
		lp.waitGroup.Add(1)
		lp.workers.Go(func() { lp.worker(obj) })
	}
	return lp, nil
}

// Name returns the pool name.
func (lp *Leased[T]) Name() string { return lp.name }

// Capacity returns the fixed number of instances owned by the pool.
func (lp *Leased[T]) Capacity() int { return lp.capacity }

// Get leases an instance, blocking until a worker has one available or ctx is
// done. When ctx is nil a background context is used.
func (lp *Leased[T]) Get(ctx context.Context) (T, error) {
	var zero T
	if lp.closed.Load() {
		return zero, errs.New(lp.name, errs.CodeClosed, errs.WithMessage("pool closed"))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req := &leaseRequest[T]{ctx: ctx, result: make(chan T, 1)}
	select {
	case <-lp.stop:
		return zero, errs.New(lp.name, errs.CodeClosed, errs.WithMessage("pool closed"))
	case lp.requests <- req:
	case <-ctx.Done():
		return zero, fmt.Errorf("lease %s: %w", lp.name, ctx.Err())
	}

	select {
	case <-lp.stop:
		return zero, errs.New(lp.name, errs.CodeClosed, errs.WithMessage("pool closed"))
	case obj := <-req.result:
		return obj, nil
	case <-ctx.Done():
		return zero, fmt.Errorf("lease %s: %w", lp.name, ctx.Err())
	}
}

// Put resets the instance and returns it to its worker. Returning an
// instance that is not currently leased from this pool, or returning the
// same instance twice, is an error.
func (lp *Leased[T]) Put(obj T) error {
	key := leaseKey(obj)
	if key == 0 {
		return errs.New(lp.name, errs.CodeInvalid, errs.WithMessage("cannot return nil instance"))
	}
	value, ok := lp.leases.Load(key)
	if !ok {
		return errs.New(lp.name, errs.CodeInvalid,
			errs.WithMessage(fmt.Sprintf("instance %T is not leased from this pool", obj)))
	}
	l, ok := value.(*lease[T])
	if !ok {
		lp.leases.Delete(key)
		return errs.New(lp.name, errs.CodeInvalid,
			errs.WithMessage(fmt.Sprintf("invalid lease state %T", value)))
	}
	obj.Reset()
	select {
	case <-lp.stop:
		return errs.New(lp.name, errs.CodeClosed, errs.WithMessage("pool is closed"))
	case l.returnCh <- obj:
		return nil
	default:
		lp.leases.Delete(key)
		return errs.New(lp.name, errs.CodeInvalid,
			errs.WithMessage(fmt.Sprintf("duplicate return detected for %T", obj)))
	}
}

// Close stops the pool. Outstanding leases are abandoned; Get fails with
// errs.CodeClosed afterwards. The lease channels are never closed, so a
// racing Put observes the stop signal instead of a closed channel.
func (lp *Leased[T]) Close() {
	if lp.closed.Swap(true) {
		return
	}
	close(lp.stop)
	lp.workers.Wait()
	lp.waitGroup.Wait()
}

func (lp *Leased[T]) worker(obj T) {
	defer lp.waitGroup.Done()

	for {
		req, ok := lp.nextRequest()
		if !ok {
			return
		}
		l := &lease[T]{returnCh: make(chan T, 1)}
		key := leaseKey(obj)
		lp.leases.Store(key, l)
		if !lp.deliver(req, obj) {
			lp.leases.Delete(key)
			continue
		}
		returned, ok := lp.waitForReturn(l, key)
		if !ok {
			return
		}
		obj = returned
	}
}

func (lp *Leased[T]) nextRequest() (*leaseRequest[T], bool) {
	select {
	case <-lp.stop:
		return nil, false
	case req, ok := <-lp.requests:
		if !ok {
			return nil, false
		}
		return req, true
	}
}

func (lp *Leased[T]) deliver(req *leaseRequest[T], obj T) bool {
	if req == nil {
		return false
	}
	select {
	case <-lp.stop:
		return false
	case <-req.ctx.Done():
		return false
	case req.result <- obj:
		return true
	}
}

func (lp *Leased[T]) waitForReturn(l *lease[T], key uintptr) (T, bool) {
	select {
	case <-lp.stop:
		lp.leases.Delete(key)
		var zero T
		return zero, false
	case returned := <-l.returnCh:
		lp.leases.Delete(key)
		return returned, true
	}
}

func leaseKey[T Poolable](obj T) uintptr {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return 0
	}
	return v.Pointer()
}
