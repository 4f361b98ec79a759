// Package session tracks short-lived per-phone-number conversation state
// for tenant messages. State lives in redis keyed by normalized phone and
// channel, so multiple service instances share one view and no process
// affinity is assumed.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session is the conversation state for one phone number on one channel.
// It expires after the configured TTL of inactivity and is recreated on the
// next message.
type Session struct {
	TenantID       uuid.UUID  `json:"tenantId"`
	PropertyID     uuid.UUID  `json:"propertyId"`
	ActiveTicketID *uuid.UUID `json:"activeTicketId,omitempty"`
	LastActivity   time.Time  `json:"lastActivity"`
	Context        []string   `json:"context,omitempty"`
}

// maxContextEntries caps the rolling context log per session.
const maxContextEntries = 20

// AppendContext records a line of conversation context, keeping the log bounded.
func (s *Session) AppendContext(line string) {
	s.Context = append(s.Context, line)
	if len(s.Context) > maxContextEntries {
		s.Context = s.Context[len(s.Context)-maxContextEntries:]
	}
}

// Store is a redis-backed session store with per-key optimistic
// concurrency: concurrent messages for the same number retry instead of
// clobbering each other, while different numbers never contend.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store. ttl is the inactivity window after
// which a session is discarded.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func sessionKey(channel, phone string) string {
	return fmt.Sprintf("session:%s:%s", channel, phone)
}

// Get returns the session for the given channel and normalized phone, or
// nil when none exists.
func (s *Store) Get(ctx context.Context, channel, phone string) (*Session, error) {
	if s.client == nil {
		return nil, nil
	}

	raw, err := s.client.Get(ctx, sessionKey(channel, phone)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		// A corrupt session is discarded rather than wedging the number.
		return nil, nil
	}
	return &sess, nil
}

const updateRetries = 5

// Update performs a read-modify-write under WATCH. mutate receives the
// current session (or a zero session when none exists) and edits it in
// place; the write refreshes the TTL. On contention the whole cycle retries.
func (s *Store) Update(ctx context.Context, channel, phone string, mutate func(*Session)) (*Session, error) {
	if s.client == nil {
		return nil, fmt.Errorf("session store not configured")
	}

	key := sessionKey(channel, phone)

	var result *Session
	apply := func(tx *redis.Tx) error {
		sess := Session{}
		raw, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			_ = json.Unmarshal([]byte(raw), &sess)
		}

		mutate(&sess)
		sess.LastActivity = time.Now().UTC()

		data, err := json.Marshal(&sess)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err == nil {
			result = &sess
		}
		return err
	}

	for i := 0; i < updateRetries; i++ {
		err := s.client.Watch(ctx, apply, key)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, fmt.Errorf("session update: %w", err)
		}
	}

	return nil, fmt.Errorf("session update: too much contention on %s", key)
}

// Clear removes the session for a number, typically after its ticket
// reaches a terminal state.
func (s *Store) Clear(ctx context.Context, channel, phone string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, sessionKey(channel, phone)).Err()
}
