//go:build !debug

package pool

type debugState struct{}

func newDebugState() *debugState { return nil }

func (d *debugState) recordAcquire(Poolable) {}

func (d *debugState) recordRelease(Poolable) {}

func (d *debugState) activeStacks() []string { return nil }
