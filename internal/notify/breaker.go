package notify

import (
	"errors"
	"sync"
	"time"
)

// errCircuitOpen marks a send skipped because the channel's breaker is open.
var errCircuitOpen = errors.New("notification channel circuit open")

const (
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

// breaker is a per-channel circuit breaker. After breakerThreshold
// consecutive failures the channel is skipped for breakerCooldown, so a
// dead gateway doesn't stall every dispatch on its retry loop.
type breaker struct {
	mu        sync.Mutex
	failures  int
	openUntil time.Time
}

// allow reports whether the channel may be tried right now.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return time.Now().After(b.openUntil)
}

func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

func (b *breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures >= breakerThreshold {
		b.openUntil = time.Now().Add(breakerCooldown)
		b.failures = 0
	}
}
