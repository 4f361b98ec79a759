package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client, 24*time.Hour), mr
}

func TestStore_GetMissingReturnsNil(t *testing.T) {
	store, _ := newTestStore(t)

	sess, err := store.Get(context.Background(), "whatsapp", "+447700900123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected nil session, got %+v", sess)
	}
}

func TestStore_UpdateCreatesAndReads(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	tenantID := uuid.New()
	propertyID := uuid.New()

	created, err := store.Update(ctx, "whatsapp", "+447700900123", func(s *Session) {
		s.TenantID = tenantID
		s.PropertyID = propertyID
		s.AppendContext("tenant: the tap is dripping")
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if created.TenantID != tenantID {
		t.Fatalf("expected tenant %s, got %s", tenantID, created.TenantID)
	}

	got, err := store.Get(ctx, "whatsapp", "+447700900123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.PropertyID != propertyID {
		t.Fatalf("unexpected session: %+v", got)
	}
	if len(got.Context) != 1 {
		t.Fatalf("expected 1 context line, got %d", len(got.Context))
	}
}

func TestStore_KeysAreChannelScoped(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, "whatsapp", "+447700900123", func(s *Session) {
		s.TenantID = uuid.New()
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	sess, err := store.Get(ctx, "sms", "+447700900123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess != nil {
		t.Fatal("sms channel must not see the whatsapp session")
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, "whatsapp", "+447700900123", func(s *Session) {
		s.TenantID = uuid.New()
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	mr.FastForward(25 * time.Hour)

	sess, err := store.Get(ctx, "whatsapp", "+447700900123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess != nil {
		t.Fatal("session should have expired after 24h of inactivity")
	}
}

func TestStore_UpdateRefreshesTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, _ = store.Update(ctx, "whatsapp", "+447700900123", func(s *Session) {})

	mr.FastForward(20 * time.Hour)
	_, _ = store.Update(ctx, "whatsapp", "+447700900123", func(s *Session) {
		s.AppendContext("tenant: still broken")
	})
	mr.FastForward(20 * time.Hour)

	sess, err := store.Get(ctx, "whatsapp", "+447700900123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess == nil {
		t.Fatal("activity should have refreshed the TTL")
	}
}

func TestStore_ContextLogIsBounded(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	var sess *Session
	var err error
	for i := 0; i < maxContextEntries+10; i++ {
		sess, err = store.Update(ctx, "whatsapp", "+447700900123", func(s *Session) {
			s.AppendContext("line")
		})
		if err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	if len(sess.Context) != maxContextEntries {
		t.Fatalf("expected context capped at %d, got %d", maxContextEntries, len(sess.Context))
	}
}

func TestStore_ClearRemovesSession(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ticketID := uuid.New()
	_, _ = store.Update(ctx, "whatsapp", "+447700900123", func(s *Session) {
		s.ActiveTicketID = &ticketID
	})

	if err := store.Clear(ctx, "whatsapp", "+447700900123"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	sess, _ := store.Get(ctx, "whatsapp", "+447700900123")
	if sess != nil {
		t.Fatal("expected session cleared")
	}
}
