package retrypolicy

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy is a reusable exponential-backoff schedule applied to one class of
// external call. Every component retries through a Policy; none carries its
// own sleep loop.
type Policy struct {
	Name        string
	MaxAttempts int // total attempts, including the first
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Do runs fn under the policy. Only errors marked Transient are retried;
// anything else returns immediately. The context deadline is honored while
// sleeping between attempts.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := retry.NewExponential(p.BaseDelay)
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}
	b = retry.WithMaxRetries(uint64(attempts-1), b)

	return retry.Do(ctx, b, fn)
}

// Transient marks err as retryable under a Policy.
func Transient(err error) error {
	return retry.RetryableError(err)
}

// Per-call-class policies. Attempt counts and delays follow the external
// service budgets: chat completions tolerate longer waits than the audio and
// embedding round-trips inside a live call.

func APICalls() Policy {
	return Policy{Name: "api_calls", MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second}
}

func AudioProcessing() Policy {
	return Policy{Name: "audio_processing", MaxAttempts: 2, BaseDelay: 500 * time.Millisecond, MaxDelay: 2 * time.Second}
}

func ContentRetrieval() Policy {
	return Policy{Name: "content_retrieval", MaxAttempts: 2, BaseDelay: 300 * time.Millisecond, MaxDelay: 1200 * time.Millisecond}
}
