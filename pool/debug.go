//go:build debug

package pool

import (
	"reflect"
	"runtime/debug"
	"sync"
)

// debugState tracks acquisition stacks per instance so Shutdown can name leak
// candidates. Only pointer instances are tracked; value instances have no
// stable identity.
type debugState struct {
	mu     sync.Mutex
	stacks map[uintptr]string
}

func newDebugState() *debugState {
	return &debugState{
		stacks: make(map[uintptr]string),
	}
}

func (d *debugState) recordAcquire(obj Poolable) {
	if d == nil {
		return
	}
	key := debugKey(obj)
	if key == 0 {
		return
	}
	stack := string(debug.Stack())
	d.mu.Lock()
	d.stacks[key] = stack
	d.mu.Unlock()
}

func (d *debugState) recordRelease(obj Poolable) {
	if d == nil {
		return
	}
	key := debugKey(obj)
	if key == 0 {
		return
	}
	d.mu.Lock()
	delete(d.stacks, key)
	d.mu.Unlock()
}

func (d *debugState) activeStacks() []string {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.stacks) == 0 {
		return nil
	}
	out := make([]string, 0, len(d.stacks))
	for _, stack := range d.stacks {
		out = append(out, stack)
	}
	return out
}

func debugKey(obj Poolable) uintptr {
	if obj == nil {
		return 0
	}
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return 0
	}
	return v.Pointer()
}
