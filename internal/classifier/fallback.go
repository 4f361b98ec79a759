package classifier

import (
	"strings"

	"propcare_backend/internal/workflow/domain"
)

// categoryRule holds the keyword lists for one category. Urgency keywords
// force priority=urgent and the emergency flag; regular keywords assign the
// category at its configured default priority.
type categoryRule struct {
	category        domain.Category
	specialization  string
	urgencyKeywords []string
	keywords        []string
	defaultPriority domain.Priority
}

// categoryRules are scanned in the fixed category priority order. The
// urgency pass runs first across all categories and stops at the first hit
// anywhere; only if no urgency keyword matched does the regular pass run.
var categoryRules = []categoryRule{
	{
		category:        domain.CategoryPlumbing,
		specialization:  "plumbing",
		urgencyKeywords: []string{"burst pipe", "flooding", "flood", "sewage", "water everywhere", "ceiling leaking"},
		keywords:        []string{"leak", "tap", "faucet", "drain", "toilet", "sink", "shower", "pipe", "water pressure", "blocked"},
		defaultPriority: domain.PriorityHigh,
	},
	{
		category:        domain.CategoryElectrical,
		specialization:  "electrical",
		urgencyKeywords: []string{"sparks", "sparking", "burning smell", "exposed wire", "electric shock", "fuse box smoking"},
		keywords:        []string{"socket", "light", "switch", "power", "electric", "fuse", "wiring", "outlet", "tripping"},
		defaultPriority: domain.PriorityHigh,
	},
	{
		category:        domain.CategoryHeating,
		specialization:  "heating",
		urgencyKeywords: []string{"gas leak", "leaking gas", "smell gas", "smell of gas", "carbon monoxide", "boiler leaking gas"},
		keywords:        []string{"boiler", "heating", "radiator", "hot water", "thermostat", "no heat", "cold"},
		defaultPriority: domain.PriorityHigh,
	},
	{
		category:        domain.CategoryAppliances,
		specialization:  "appliances",
		urgencyKeywords: []string{"appliance on fire", "oven smoking"},
		keywords:        []string{"washing machine", "dishwasher", "oven", "fridge", "freezer", "cooker", "dryer", "appliance", "hob"},
		defaultPriority: domain.PriorityMedium,
	},
	{
		category:        domain.CategoryStructural,
		specialization:  "general_builder",
		urgencyKeywords: []string{"ceiling collapsed", "ceiling collapsing", "wall collapsing", "structural collapse"},
		keywords:        []string{"crack", "damp", "mould", "mold", "ceiling", "wall", "floor", "subsidence", "plaster"},
		defaultPriority: domain.PriorityMedium,
	},
	{
		category:        domain.CategoryPest,
		specialization:  "pest_control",
		urgencyKeywords: []string{"rat infestation", "wasp nest inside"},
		keywords:        []string{"mice", "mouse", "rat", "cockroach", "bedbug", "bed bug", "ants", "wasps", "pest", "infestation"},
		defaultPriority: domain.PriorityMedium,
	},
	{
		category:        domain.CategoryExterior,
		specialization:  "roofing",
		urgencyKeywords: []string{"roof caving", "tree fallen on"},
		keywords:        []string{"roof", "gutter", "fence", "garden", "window broken", "door broken", "lock", "garage"},
		defaultPriority: domain.PriorityMedium,
	},
	{
		category:        domain.CategoryBilling,
		specialization:  "",
		urgencyKeywords: nil,
		keywords:        []string{"rent", "payment", "invoice", "bill", "deposit", "charge", "statement"},
		defaultPriority: domain.PriorityLow,
	},
	{
		category:        domain.CategoryGeneral,
		specialization:  "general_maintenance",
		urgencyKeywords: nil,
		keywords:        nil,
		defaultPriority: domain.PriorityMedium,
	},
}

const (
	fallbackConfidence  = 0.7
	emergencyConfidence = 0.9
)

// FallbackClassifier is the deterministic keyword classifier. It always
// returns a complete Classification and never fails.
type FallbackClassifier struct{}

// NewFallbackClassifier creates a deterministic keyword classifier.
func NewFallbackClassifier() *FallbackClassifier {
	return &FallbackClassifier{}
}

// Classify scans the message against the keyword tables. Urgency keywords
// always win over regular keywords across all categories: the urgency pass
// completes (in category order, stopping at the first hit) before any
// regular keyword is considered.
func (f *FallbackClassifier) Classify(text string, attachmentCount int) Classification {
	lowered := strings.ToLower(text)

	for _, rule := range categoryRules {
		for _, kw := range rule.urgencyKeywords {
			if strings.Contains(lowered, kw) {
				return Classification{
					Category:       rule.category,
					Priority:       domain.PriorityUrgent,
					IsEmergency:    true,
					Specialization: rule.specialization,
					Confidence:     emergencyConfidence,
					Summary:        summarize(text),
					SuggestedReply: emergencyReply,
				}
			}
		}
	}

	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return Classification{
					Category:       rule.category,
					Priority:       rule.defaultPriority,
					IsEmergency:    false,
					Specialization: rule.specialization,
					Confidence:     fallbackConfidence,
					Summary:        summarize(text),
					SuggestedReply: standardReply,
				}
			}
		}
	}

	return Classification{
		Category:       domain.CategoryGeneral,
		Priority:       domain.PriorityMedium,
		IsEmergency:    false,
		Specialization: "general_maintenance",
		Confidence:     fallbackConfidence,
		Summary:        summarize(text),
		SuggestedReply: standardReply,
	}
}

const (
	standardReply  = "Thanks for reporting this. We've logged your maintenance request and will be in touch shortly."
	emergencyReply = "This looks urgent. We've flagged it as an emergency and alerted the property manager immediately."
)

const summaryMaxLen = 120

func summarize(text string) string {
	trimmed := strings.Join(strings.Fields(text), " ")
	runes := []rune(trimmed)
	if len(runes) <= summaryMaxLen {
		return trimmed
	}
	return string(runes[:summaryMaxLen-3]) + "..."
}
