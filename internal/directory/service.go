package directory

import (
	"context"
	"fmt"

	"propcare_backend/internal/contractors"
	"propcare_backend/platform/phone"
)

// SenderKind tags inbound traffic by population.
type SenderKind string

const (
	SenderTenant     SenderKind = "tenant"
	SenderContractor SenderKind = "contractor"
	SenderUnknown    SenderKind = "unknown"
)

// Sender is the resolved identity behind an inbound phone number.
type Sender struct {
	Kind       SenderKind
	Phone      string // normalized E.164
	Tenant     *Tenant
	Contractor *contractors.Contractor
}

// TenantLookup is the tenant side of the directory. Satisfied by Repository.
type TenantLookup interface {
	FindTenantByPhone(ctx context.Context, phone string) (*Tenant, error)
}

// ContractorLookup is the contractor side of the directory. Satisfied by
// contractors.Repository.
type ContractorLookup interface {
	FindByPhone(ctx context.Context, phone string) (*contractors.Contractor, error)
}

// Service resolves inbound phone numbers against both populations.
type Service struct {
	tenants     TenantLookup
	contractors ContractorLookup
}

// NewService creates a directory service.
func NewService(tenants TenantLookup, contractorLookup ContractorLookup) *Service {
	return &Service{tenants: tenants, contractors: contractorLookup}
}

// ResolveSender normalizes the phone number and resolves it to a tenant or
// contractor. Contractors are checked first on the shared inbound channel:
// a number registered as both is treated as contractor traffic. That
// ordering is a product decision, not an accident; revisit it if dual
// registration ever becomes supported.
func (s *Service) ResolveSender(ctx context.Context, rawPhone string) (Sender, error) {
	normalized := phone.NormalizeE164(rawPhone)

	contractor, err := s.contractors.FindByPhone(ctx, normalized)
	if err != nil {
		return Sender{}, fmt.Errorf("resolve sender: %w", err)
	}
	if contractor != nil {
		return Sender{Kind: SenderContractor, Phone: normalized, Contractor: contractor}, nil
	}

	tenant, err := s.tenants.FindTenantByPhone(ctx, normalized)
	if err != nil {
		return Sender{}, fmt.Errorf("resolve sender: %w", err)
	}
	if tenant != nil {
		return Sender{Kind: SenderTenant, Phone: normalized, Tenant: tenant}, nil
	}

	return Sender{Kind: SenderUnknown, Phone: normalized}, nil
}
