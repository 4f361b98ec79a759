package classifier

import (
	"strings"
	"testing"
	"unicode/utf8"

	"propcare_backend/internal/workflow/domain"
)

func TestFallback_GasLeakIsHeatingEmergency(t *testing.T) {
	f := NewFallbackClassifier()

	result := f.Classify("The boiler is leaking gas, help!", 0)

	if result.Category != domain.CategoryHeating {
		t.Fatalf("expected heating, got %s", result.Category)
	}
	if result.Priority != domain.PriorityUrgent {
		t.Fatalf("expected urgent, got %s", result.Priority)
	}
	if !result.IsEmergency {
		t.Fatal("expected emergency flag")
	}
	if result.Confidence != emergencyConfidence {
		t.Fatalf("expected confidence %v, got %v", emergencyConfidence, result.Confidence)
	}
}

func TestFallback_UrgencyWinsAcrossCategories(t *testing.T) {
	f := NewFallbackClassifier()

	// "leak" is a plumbing regular keyword, "sparks" an electrical urgency
	// keyword. Urgency must win even though plumbing is scanned first.
	result := f.Classify("Small leak under the sink and now sparks from the socket", 0)

	if result.Category != domain.CategoryElectrical {
		t.Fatalf("expected electrical, got %s", result.Category)
	}
	if result.Priority != domain.PriorityUrgent || !result.IsEmergency {
		t.Fatalf("expected urgent emergency, got %s emergency=%v", result.Priority, result.IsEmergency)
	}
}

func TestFallback_RegularKeywordUsesCategoryDefaultPriority(t *testing.T) {
	f := NewFallbackClassifier()

	cases := []struct {
		text     string
		category domain.Category
		priority domain.Priority
	}{
		{"the kitchen tap keeps dripping", domain.CategoryPlumbing, domain.PriorityHigh},
		{"bedroom light switch stopped working", domain.CategoryElectrical, domain.PriorityHigh},
		{"no hot water since yesterday", domain.CategoryHeating, domain.PriorityHigh},
		{"the washing machine will not spin", domain.CategoryAppliances, domain.PriorityMedium},
		{"damp patch on the bedroom wall", domain.CategoryStructural, domain.PriorityMedium},
		{"we have mice in the kitchen", domain.CategoryPest, domain.PriorityMedium},
		{"the gutter is hanging loose", domain.CategoryExterior, domain.PriorityMedium},
		{"question about my rent statement", domain.CategoryBilling, domain.PriorityLow},
	}

	for _, tc := range cases {
		result := f.Classify(tc.text, 0)
		if result.Category != tc.category {
			t.Fatalf("%q: expected %s, got %s", tc.text, tc.category, result.Category)
		}
		if result.Priority != tc.priority {
			t.Fatalf("%q: expected priority %s, got %s", tc.text, tc.priority, result.Priority)
		}
		if result.IsEmergency {
			t.Fatalf("%q: regular keyword must not set emergency", tc.text)
		}
	}
}

func TestFallback_FirstCategoryMatchWins(t *testing.T) {
	f := NewFallbackClassifier()

	// "leak" (plumbing) appears before "light" (electrical) in the
	// category scan order, regardless of word order in the message.
	result := f.Classify("the light above the leak is also broken", 0)

	if result.Category != domain.CategoryPlumbing {
		t.Fatalf("expected plumbing to win the scan, got %s", result.Category)
	}
}

func TestFallback_NoMatchDefaultsToGeneral(t *testing.T) {
	f := NewFallbackClassifier()

	result := f.Classify("hello, just checking in", 0)

	if result.Category != domain.CategoryGeneral {
		t.Fatalf("expected general, got %s", result.Category)
	}
	if result.Priority != domain.PriorityMedium {
		t.Fatalf("expected medium, got %s", result.Priority)
	}
	if result.Confidence != fallbackConfidence {
		t.Fatalf("expected confidence %v, got %v", fallbackConfidence, result.Confidence)
	}
}

func TestFallback_AlwaysComplete(t *testing.T) {
	f := NewFallbackClassifier()

	for _, text := range []string{"", "   ", "!!!", "zzzzz", "The boiler is leaking gas"} {
		result := f.Classify(text, 3)
		if result.Category == "" || result.Priority == "" {
			t.Fatalf("%q: classification incomplete: %+v", text, result)
		}
		if result.IsEmergency != (result.Priority == domain.PriorityUrgent) {
			t.Fatalf("%q: emergency flag and urgent priority must hold together, got %+v", text, result)
		}
	}
}

func TestSummarizeTruncatesOnRuneBoundary(t *testing.T) {
	f := NewFallbackClassifier()

	result := f.Classify(strings.Repeat("é", 2*summaryMaxLen), 0)

	if !utf8.ValidString(result.Summary) {
		t.Fatalf("summary is not valid UTF-8: %q", result.Summary)
	}
	if got := len([]rune(result.Summary)); got != summaryMaxLen {
		t.Fatalf("summary is %d runes, want %d", got, summaryMaxLen)
	}
	if !strings.HasSuffix(result.Summary, "...") {
		t.Fatalf("truncated summary missing ellipsis: %q", result.Summary)
	}
}
