package contractors

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// CandidateLister is the pool query the matcher needs. Satisfied by Repository.
type CandidateLister interface {
	ListActiveBySpecialization(ctx context.Context, specialization string) ([]Contractor, error)
}

// Matcher ranks and selects candidate contractors for a specialization.
type Matcher struct {
	lister CandidateLister
}

// NewMatcher creates a contractor matcher.
func NewMatcher(lister CandidateLister) *Matcher {
	return &Matcher{lister: lister}
}

// FindCandidate returns the best available contractor for the
// specialization, or nil when none remains. excludeIDs carries the ticket's
// whole decline history, not just the most recent decliner. Emergency
// tickets prefer emergency-available contractors when any exist, falling
// back to the full pool otherwise.
func (m *Matcher) FindCandidate(ctx context.Context, specialization string, emergency bool, excludeIDs []uuid.UUID) (*Contractor, error) {
	pool, err := m.lister.ListActiveBySpecialization(ctx, specialization)
	if err != nil {
		return nil, err
	}

	candidates := excludeByID(pool, excludeIDs)
	if len(candidates) == 0 {
		return nil, nil
	}

	if emergency {
		if emergencyPool := filterEmergencyAvailable(candidates); len(emergencyPool) > 0 {
			candidates = emergencyPool
		}
	}

	rank(candidates)
	best := candidates[0]
	return &best, nil
}

// TopCandidates returns up to limit contractors for the specialization in
// rank order. Nothing has been offered yet, so there is no exclusion list.
// Emergency tickets prefer emergency-available contractors when any exist.
func (m *Matcher) TopCandidates(ctx context.Context, specialization string, emergency bool, limit int) ([]Contractor, error) {
	pool, err := m.lister.ListActiveBySpecialization(ctx, specialization)
	if err != nil {
		return nil, err
	}
	if emergency {
		if emergencyPool := filterEmergencyAvailable(pool); len(emergencyPool) > 0 {
			pool = emergencyPool
		}
	}
	rank(pool)
	if len(pool) > limit {
		pool = pool[:limit]
	}
	return pool, nil
}

func excludeByID(pool []Contractor, excludeIDs []uuid.UUID) []Contractor {
	if len(excludeIDs) == 0 {
		return pool
	}

	excluded := make(map[uuid.UUID]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	out := make([]Contractor, 0, len(pool))
	for _, c := range pool {
		if _, skip := excluded[c.ID]; !skip {
			out = append(out, c)
		}
	}
	return out
}

func filterEmergencyAvailable(pool []Contractor) []Contractor {
	out := make([]Contractor, 0, len(pool))
	for _, c := range pool {
		if c.EmergencyAvailable {
			out = append(out, c)
		}
	}
	return out
}

// rank orders candidates by preferred flag descending, then rating
// descending. Ties keep the pool's stable order.
func rank(pool []Contractor) {
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Preferred != pool[j].Preferred {
			return pool[i].Preferred
		}
		return pool[i].Rating > pool[j].Rating
	})
}
