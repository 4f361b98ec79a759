package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	limiterWindow = time.Hour
	limiterMax    = 30
)

// RecipientLimiter caps how many notifications any single recipient address
// receives per hour, backed by a redis counter. Protects tenants and
// contractors from a misbehaving loop flooding their phone.
type RecipientLimiter struct {
	client *redis.Client
}

func NewRecipientLimiter(client *redis.Client) *RecipientLimiter {
	return &RecipientLimiter{client: client}
}

// Allow increments the recipient's counter and reports whether this send is
// still within the window. Redis being unreachable fails open: losing the
// limit is better than losing the notification.
func (l *RecipientLimiter) Allow(ctx context.Context, recipient string) bool {
	if l == nil || l.client == nil {
		return true
	}

	key := fmt.Sprintf("notify:rl:%s", recipient)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true
	}
	if count == 1 {
		l.client.Expire(ctx, key, limiterWindow)
	}
	return count <= limiterMax
}
