package classifier

import (
	"context"
	"time"

	"propcare_backend/platform/logger"
)

// Adapter wraps the external classifier with the deterministic fallback.
// Classify always returns a usable Classification: the workflow cannot
// proceed without a category and priority, so the fallback is mandatory.
type Adapter struct {
	external ExternalClassifier
	fallback *FallbackClassifier
	timeout  time.Duration
	log      *logger.Logger
}

// NewAdapter creates a classifier adapter. external may be nil, in which
// case every classification uses the keyword fallback.
func NewAdapter(external ExternalClassifier, timeout time.Duration, log *logger.Logger) *Adapter {
	return &Adapter{
		external: external,
		fallback: NewFallbackClassifier(),
		timeout:  timeout,
		log:      log,
	}
}

// Classify classifies the message, preferring the external provider within
// a bounded timeout and falling back to keywords on any failure.
func (a *Adapter) Classify(ctx context.Context, text string, attachmentCount int) Classification {
	if a.external == nil {
		return a.fallback.Classify(text, attachmentCount)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result, err := a.external.Classify(callCtx, text, attachmentCount)
	if err != nil {
		a.log.ClassifierFallback(err.Error())
		return a.fallback.Classify(text, attachmentCount)
	}

	return result
}
