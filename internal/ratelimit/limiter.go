// Package ratelimit paces outbound calls to the quote API.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const penaltyCap = 2 * time.Minute

// Pacer admits one request per interval with no burst. The quote
// endpoints publish no quota, so fixed spacing is the contract; a 429
// response adds a penalty gap that grows until requests succeed again.
type Pacer struct {
	limiter *rate.Limiter

	mu      sync.Mutex
	base    time.Duration
	penalty time.Duration
}

// New returns a Pacer spacing requests at least interval apart.
func New(interval time.Duration) *Pacer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Pacer{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		base:    interval,
	}
}

// Wait blocks until the next slot opens or ctx is cancelled. An active
// penalty is served before the regular slot.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	penalty := p.penalty
	p.mu.Unlock()

	if penalty > 0 {
		timer := time.NewTimer(penalty)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return p.limiter.Wait(ctx)
}

// NoteRateLimited records a 429 from the upstream. The first call sets
// the penalty to one interval; repeats double it up to a cap.
func (p *Pacer) NoteRateLimited() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.penalty == 0 {
		p.penalty = p.base
	} else {
		p.penalty *= 2
	}
	if p.penalty > penaltyCap {
		p.penalty = penaltyCap
	}
}

// NoteSuccess clears the penalty after an accepted request.
func (p *Pacer) NoteSuccess() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.penalty = 0
}

// Penalty returns the current penalty duration.
func (p *Pacer) Penalty() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.penalty
}
