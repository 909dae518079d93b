package pool

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/coachpo/simpool/errs"
)

const (
	acquireInitialInterval = 5 * time.Millisecond
	acquireMaxInterval     = 250 * time.Millisecond
)

// Acquire polls the pool with exponential backoff until an instance becomes
// available, the factory fails, or ctx is done. It is the blocking
// counterpart to TryGet for callers sharing a bounded pool across
// goroutines.
func Acquire[T Poolable](ctx context.Context, p *SyncPool[T]) (T, error) {
	var zero T
	if p == nil {
		return zero, errs.New("", errs.CodeInvalid, errs.WithMessage("pool required"))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.InitialInterval = acquireInitialInterval
	backoffCfg.MaxInterval = acquireMaxInterval

	for {
		obj, ok, err := p.TryGet()
		if err != nil {
			return zero, err
		}
		if ok {
			return obj, nil
		}

		sleep := backoffCfg.NextBackOff()
		if sleep == backoff.Stop {
			sleep = acquireMaxInterval
		}
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("acquire %s: %w", p.Name(), ctx.Err())
		case <-timer.C:
		}
	}
}
