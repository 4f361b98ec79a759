package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupeTTL = 24 * time.Hour

// Deduper gives inbound deliveries at-most-once processing. Gateways retry
// webhooks aggressively; the first claim on a delivery id wins and later
// claims replay the reply the first one produced. A nil Deduper disables
// replay protection rather than failing.
type Deduper struct {
	client *redis.Client
}

func NewDeduper(client *redis.Client) *Deduper {
	return &Deduper{client: client}
}

func dedupeKey(deliveryID string) string {
	return fmt.Sprintf("dedupe:%s", deliveryID)
}

// Claim marks the delivery id as seen. The second return is true when the
// id was already claimed; the first then carries the stored reply, which
// is empty if the original delivery is still being processed. Redis being
// unreachable fails open and processes the delivery.
func (d *Deduper) Claim(ctx context.Context, deliveryID string) (string, bool) {
	if d == nil || d.client == nil {
		return "", false
	}

	claimed, err := d.client.SetNX(ctx, dedupeKey(deliveryID), "", dedupeTTL).Result()
	if err != nil {
		return "", false
	}
	if claimed {
		return "", false
	}

	reply, err := d.client.Get(ctx, dedupeKey(deliveryID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", true
	}
	return reply, true
}

// StoreReply records the reply produced for a claimed delivery so
// redeliveries can replay it. Keeps the TTL set at claim time.
func (d *Deduper) StoreReply(ctx context.Context, deliveryID, reply string) {
	if d == nil || d.client == nil {
		return
	}
	d.client.Set(ctx, dedupeKey(deliveryID), reply, redis.KeepTTL)
}
