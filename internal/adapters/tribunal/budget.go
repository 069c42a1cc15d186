package tribunal

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/lexhive/juris-cli/internal/metrics"
)

// ConcurrencyBudget bounds simultaneous requests of one category. Shrink
// permanently withholds permits; the ceiling never grows back within the
// process lifetime.
type ConcurrencyBudget struct {
	name string
	max  int64
	sem  *semaphore.Weighted

	ceiling  atomic.Int64
	inFlight atomic.Int64

	mu sync.Mutex
}

func NewConcurrencyBudget(name string, max int64) *ConcurrencyBudget {
	if max < 1 {
		max = 1
	}

	b := &ConcurrencyBudget{
		name: name,
		max:  max,
		sem:  semaphore.NewWeighted(max),
	}
	b.ceiling.Store(max)

	return b
}

func (b *ConcurrencyBudget) Acquire(ctx context.Context) error {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire %s permit: %w", b.name, err)
	}
	b.inFlight.Add(1)

	return nil
}

func (b *ConcurrencyBudget) Release() {
	b.inFlight.Add(-1)
	b.sem.Release(1)
}

func (b *ConcurrencyBudget) Name() string {
	return b.name
}

func (b *ConcurrencyBudget) Max() int64 {
	return b.max
}

func (b *ConcurrencyBudget) Ceiling() int64 {
	return b.ceiling.Load()
}

func (b *ConcurrencyBudget) InFlight() int64 {
	return b.inFlight.Load()
}

// Saturated reports whether every permit under the current ceiling is taken.
func (b *ConcurrencyBudget) Saturated() bool {
	return b.inFlight.Load() >= b.ceiling.Load()
}

func (b *ConcurrencyBudget) Status() metrics.BudgetStatus {
	return metrics.BudgetStatus{
		InFlight: b.inFlight.Load(),
		Ceiling:  b.ceiling.Load(),
		Max:      b.max,
	}
}

// Shrink multiplies the ceiling by factor, floored at 1, and returns the
// old and new values. The removed permits are claimed in the background as
// in-flight requests drain; the semaphore queue is FIFO, so the claim sits
// ahead of later callers and the new ceiling takes effect immediately.
func (b *ConcurrencyBudget) Shrink(factor float64) (int64, int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.ceiling.Load()
	if current <= 1 || factor >= 1 || factor < 0 {
		return current, current
	}

	next := int64(float64(current) * factor)
	if next >= current {
		next = current - 1
	}
	if next < 1 {
		next = 1
	}
	b.ceiling.Store(next)

	delta := current - next
	go func() {
		_ = b.sem.Acquire(context.Background(), delta)
	}()

	return current, next
}
