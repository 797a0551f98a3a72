package pipeline

import (
	"context"
	"errors"

	"github.com/SaiNageswarS/vidya-core/fallback"
)

// MaxConcurrentCalls is the default admission capacity across all sessions.
const MaxConcurrentCalls = 5

// ErrPoolFull rejects a request when every worker slot is taken.
var ErrPoolFull = errors.New("all workers busy")

// Pool bounds concurrent pipeline runs with a buffered-channel semaphore.
// Admission never queues: a full pool rejects immediately so the telephony
// layer can play the rate-limit prompt instead of letting the caller wait in
// silence.
type Pool struct {
	orch  *Orchestrator
	slots chan struct{}
}

func NewPool(orch *Orchestrator, capacity int) *Pool {
	if capacity <= 0 {
		capacity = MaxConcurrentCalls
	}
	return &Pool{
		orch:  orch,
		slots: make(chan struct{}, capacity),
	}
}

// Submit admits job if a slot is free and runs the pipeline synchronously to
// completion. Rejection classifies RateLimited.
func (p *Pool) Submit(ctx context.Context, job Job) (*Result, error) {
	select {
	case p.slots <- struct{}{}:
	default:
		return nil, fallback.E(fallback.KindRateLimited, fallback.StageAdmit, ErrPoolFull)
	}
	defer func() { <-p.slots }()

	return p.orch.Run(ctx, job)
}

// InFlight reports how many runs currently hold a slot.
func (p *Pool) InFlight() int {
	return len(p.slots)
}
