package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"propcare_backend/internal/workflow/domain"
	"propcare_backend/platform/config"

	"google.golang.org/genai"
)

// GeminiClassifier classifies tenant messages with the Gemini API. It is
// strictly best-effort: every failure path returns an error and the adapter
// falls back to the keyword classifier.
type GeminiClassifier struct {
	client *genai.Client
	model  string
}

// NewGeminiClassifier creates a classifier backed by the Gemini API.
// Returns nil when no API key is configured; the adapter treats a nil
// external classifier as permanently unavailable.
func NewGeminiClassifier(ctx context.Context, cfg config.ClassifierConfig) (*GeminiClassifier, error) {
	if cfg.GetGeminiAPIKey() == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClassifier{client: client, model: cfg.GetClassifierModel()}, nil
}

const classifyPromptFmt = `You triage maintenance requests for a property management agency.
Classify the tenant message below. Respond with JSON only, matching this schema:
{"category": one of [plumbing, electrical, heating, appliances, structural, pest, exterior, billing, general],
 "priority": one of [low, medium, high, urgent],
 "isEmergency": boolean (true only for immediate safety or property damage risk),
 "specialization": short contractor trade tag (e.g. "plumbing", "electrical"),
 "confidence": number 0-1,
 "summary": one line,
 "suggestedReply": one short sentence acknowledging the tenant, no contractor names}

The tenant attached %d photo(s).

Tenant message:
%s`

// Classify sends the message to Gemini with a JSON-constrained response.
func (g *GeminiClassifier) Classify(ctx context.Context, text string, attachmentCount int) (Classification, error) {
	prompt := fmt.Sprintf(classifyPromptFmt, attachmentCount, text)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return Classification{}, fmt.Errorf("gemini classify: %w", err)
	}

	raw := strings.TrimSpace(resp.Text())
	if raw == "" {
		return Classification{}, fmt.Errorf("gemini classify: empty response")
	}

	var result Classification
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return Classification{}, fmt.Errorf("gemini classify: malformed response: %w", err)
	}

	if err := validateClassification(result); err != nil {
		return Classification{}, fmt.Errorf("gemini classify: %w", err)
	}

	return result, nil
}

// validateClassification rejects responses the workflow cannot act on. The
// adapter treats a rejection like any other provider failure.
func validateClassification(c Classification) error {
	if !c.Category.Valid() {
		return fmt.Errorf("unknown category %q", c.Category)
	}
	switch c.Priority {
	case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh, domain.PriorityUrgent:
	default:
		return fmt.Errorf("unknown priority %q", c.Priority)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range", c.Confidence)
	}
	return nil
}
