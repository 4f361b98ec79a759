package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"propcare_backend/internal/contractors"
)

type fakeTenantLookup struct {
	byPhone map[string]*Tenant
	err     error
}

func (f *fakeTenantLookup) FindTenantByPhone(_ context.Context, phone string) (*Tenant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byPhone[phone], nil
}

type fakeContractorLookup struct {
	byPhone map[string]*contractors.Contractor
	err     error
}

func (f *fakeContractorLookup) FindByPhone(_ context.Context, phone string) (*contractors.Contractor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byPhone[phone], nil
}

func TestResolveSenderTenant(t *testing.T) {
	tenant := &Tenant{ID: uuid.New(), Name: "Sam Price", Phone: "+447700900001"}
	svc := NewService(
		&fakeTenantLookup{byPhone: map[string]*Tenant{"+447700900001": tenant}},
		&fakeContractorLookup{byPhone: map[string]*contractors.Contractor{}},
	)

	sender, err := svc.ResolveSender(context.Background(), "07700 900001")
	if err != nil {
		t.Fatalf("ResolveSender: %v", err)
	}
	if sender.Kind != SenderTenant {
		t.Fatalf("kind = %q, want %q", sender.Kind, SenderTenant)
	}
	if sender.Phone != "+447700900001" {
		t.Fatalf("phone = %q, want normalized E.164", sender.Phone)
	}
	if sender.Tenant == nil || sender.Tenant.ID != tenant.ID {
		t.Fatalf("tenant not resolved: %+v", sender.Tenant)
	}
}

func TestResolveSenderContractor(t *testing.T) {
	contractor := &contractors.Contractor{ID: uuid.New(), CompanyName: "Apex Plumbing", Phone: "+447700900002"}
	svc := NewService(
		&fakeTenantLookup{byPhone: map[string]*Tenant{}},
		&fakeContractorLookup{byPhone: map[string]*contractors.Contractor{"+447700900002": contractor}},
	)

	sender, err := svc.ResolveSender(context.Background(), "+447700900002")
	if err != nil {
		t.Fatalf("ResolveSender: %v", err)
	}
	if sender.Kind != SenderContractor {
		t.Fatalf("kind = %q, want %q", sender.Kind, SenderContractor)
	}
	if sender.Contractor == nil || sender.Contractor.ID != contractor.ID {
		t.Fatalf("contractor not resolved: %+v", sender.Contractor)
	}
}

func TestResolveSenderContractorWinsDualRegistration(t *testing.T) {
	phone := "+447700900003"
	svc := NewService(
		&fakeTenantLookup{byPhone: map[string]*Tenant{phone: {ID: uuid.New(), Phone: phone}}},
		&fakeContractorLookup{byPhone: map[string]*contractors.Contractor{phone: {ID: uuid.New(), Phone: phone}}},
	)

	sender, err := svc.ResolveSender(context.Background(), phone)
	if err != nil {
		t.Fatalf("ResolveSender: %v", err)
	}
	if sender.Kind != SenderContractor {
		t.Fatalf("kind = %q, want contractor to win on shared channel", sender.Kind)
	}
}

func TestResolveSenderUnknown(t *testing.T) {
	svc := NewService(
		&fakeTenantLookup{byPhone: map[string]*Tenant{}},
		&fakeContractorLookup{byPhone: map[string]*contractors.Contractor{}},
	)

	sender, err := svc.ResolveSender(context.Background(), "+447700900099")
	if err != nil {
		t.Fatalf("ResolveSender: %v", err)
	}
	if sender.Kind != SenderUnknown {
		t.Fatalf("kind = %q, want %q", sender.Kind, SenderUnknown)
	}
	if sender.Tenant != nil || sender.Contractor != nil {
		t.Fatalf("unknown sender carries identity: %+v", sender)
	}
}

func TestResolveSenderLookupError(t *testing.T) {
	svc := NewService(
		&fakeTenantLookup{},
		&fakeContractorLookup{err: errors.New("db down")},
	)

	if _, err := svc.ResolveSender(context.Background(), "+447700900001"); err == nil {
		t.Fatal("expected lookup error to surface")
	}
}
