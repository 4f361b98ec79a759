// Package classifier turns free-text tenant messages into a structured
// maintenance classification. An external model does the heavy lifting; a
// deterministic keyword classifier guarantees a usable result when the
// model is unavailable, so intake never stalls on classification.
package classifier

import (
	"context"

	"propcare_backend/internal/workflow/domain"
)

// Classification is the structured guess produced for a tenant message.
// It is a value object: never persisted, only consumed by the workflow engine.
type Classification struct {
	Category       domain.Category `json:"category"`
	Priority       domain.Priority `json:"priority"`
	IsEmergency    bool            `json:"isEmergency"`
	Specialization string          `json:"specialization"`
	Confidence     float64         `json:"confidence"`
	Summary        string          `json:"summary"`
	SuggestedReply string          `json:"suggestedReply"`
}

// ExternalClassifier is the best-effort provider contract. Implementations
// must respect the context deadline; any error triggers the deterministic
// fallback.
type ExternalClassifier interface {
	Classify(ctx context.Context, text string, attachmentCount int) (Classification, error)
}
