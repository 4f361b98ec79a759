package notify

import (
	"context"
	"sync"
	"time"

	"propcare_backend/internal/workflow/domain"
	"propcare_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

const (
	sendAttempts = 3
	sendBackoff  = 500 * time.Millisecond
)

// Service delivers composed messages through the registered notifiers.
type Service struct {
	notifiers map[domain.Channel]Notifier
	breakers  map[domain.Channel]*breaker
	limiter   *RecipientLimiter
	log       *logger.Logger
}

// NewService creates the delivery pipeline. Channels without a registered
// notifier are skipped at dispatch time.
func NewService(notifiers []Notifier, limiter *RecipientLimiter, log *logger.Logger) *Service {
	byChannel := make(map[domain.Channel]Notifier, len(notifiers))
	breakers := make(map[domain.Channel]*breaker, len(notifiers))
	for _, n := range notifiers {
		byChannel[n.Channel()] = n
		breakers[n.Channel()] = &breaker{}
	}
	return &Service{
		notifiers: byChannel,
		breakers:  breakers,
		limiter:   limiter,
		log:       log,
	}
}

// Dispatch sends every message, best-effort. It returns the channels that
// were attempted and whether every attempted send succeeded. Nothing here
// panics or propagates an error: delivery failure must never reach the
// workflow transition that caused it. Messages go out concurrently so one
// channel's retry backoff doesn't delay the others.
func (s *Service) Dispatch(ctx context.Context, messages []Message) (attempted []string, allSent bool) {
	var mu sync.Mutex
	allSent = true
	seen := map[domain.Channel]bool{}

	var g errgroup.Group
	g.SetLimit(4)

	for _, msg := range messages {
		notifier, ok := s.notifiers[msg.Channel]
		if !ok {
			continue
		}
		if !seen[msg.Channel] {
			seen[msg.Channel] = true
			attempted = append(attempted, string(msg.Channel))
		}

		g.Go(func() error {
			if !msg.Urgent && !s.limiter.Allow(ctx, msg.To) {
				s.log.Warn("notification rate limited", "channel", msg.Channel, "recipient", msg.Recipient)
				mu.Lock()
				allSent = false
				mu.Unlock()
				return nil
			}

			if err := s.send(ctx, notifier, msg); err != nil {
				s.log.NotificationFailure(string(msg.Channel), string(msg.Recipient), err)
				mu.Lock()
				allSent = false
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	return attempted, allSent
}

// send tries one message with retry and the channel's circuit breaker.
func (s *Service) send(ctx context.Context, notifier Notifier, msg Message) error {
	br := s.breakers[msg.Channel]

	var lastErr error
	for attempt := 0; attempt < sendAttempts; attempt++ {
		if !br.allow() {
			return errCircuitOpen
		}
		if attempt > 0 {
			backoff := sendBackoff << (attempt - 1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := notifier.Notify(ctx, msg); err != nil {
			lastErr = err
			br.recordFailure()
			continue
		}
		br.recordSuccess()
		return nil
	}
	return lastErr
}
