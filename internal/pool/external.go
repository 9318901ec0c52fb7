package pool

import (
	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/lskv/lskv/internal/kverrors"
)

// ExternalPool adapts github.com/panjf2000/ants/v2 behind ThreadPool —
// the "external-library pool" variant, as opposed to SharedQueuePool's
// hand-rolled queue. ants already recovers a panicking task internally
// and keeps its worker goroutine alive, so no extra recover wrapper is
// needed here.
type ExternalPool struct {
	pool *ants.Pool
}

var _ ThreadPool = (*ExternalPool)(nil)

// NewExternalPool builds an ants pool capped at n concurrent workers.
func NewExternalPool(n int) (*ExternalPool, error) {
	p, err := ants.NewPool(n, ants.WithPanicHandler(func(r interface{}) {
		slog.Error("pool: external worker panicked", "panic", r)
	}))
	if err != nil {
		return nil, kverrors.WrapPoolBuild("new ants pool", err)
	}
	return &ExternalPool{pool: p}, nil
}

// Spawn submits job to the underlying ants pool. Submit blocks when
// the pool is saturated and non-blocking submission was not requested,
// matching SharedQueuePool's backpressure behavior.
func (p *ExternalPool) Spawn(job Job) {
	if err := p.pool.Submit(func() { job() }); err != nil {
		slog.Error("pool: external submit failed", "err", err)
	}
}

// Close releases the underlying ants pool.
func (p *ExternalPool) Close() error {
	p.pool.Release()
	return nil
}
