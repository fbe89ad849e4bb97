package store

import (
	"context"
	"time"

	"account-ledger/internal/errors"
)

// Guard serializes every mutating load-validate-apply-commit sequence over
// the snapshot. The underlying file has no native multi-record transaction,
// so exclusivity here is what upholds the conservation and non-negativity
// invariants under concurrent requests.
type Guard struct {
	sem     chan struct{}
	timeout time.Duration
}

// NewGuard returns a guard whose Acquire gives up after timeout.
func NewGuard(timeout time.Duration) *Guard {
	return &Guard{
		sem:     make(chan struct{}, 1),
		timeout: timeout,
	}
}

// Acquire takes the exclusive commit lock. It fails with Busy once the
// timeout elapses and with the context error if the caller gives up first.
func (g *Guard) Acquire(ctx context.Context) error {
	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case g.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return errors.ErrBusy
	case <-ctx.Done():
		return errors.ErrBusy.WithDetails(ctx.Err().Error())
	}
}

func (g *Guard) Release() {
	<-g.sem
}
