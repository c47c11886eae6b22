package embedding

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/agdesk/agdesk/internal/ai"
	"github.com/agdesk/agdesk/internal/pkg/retry"
)

const (
	defaultAttempts  = 5
	defaultBaseDelay = 3 * time.Second
)

// Adapter wraps an embedder with validation, normalization and a bounded
// retry loop. Exhausting all attempts returns (nil, nil): the caller is
// expected to degrade (the query path falls back to lexical search, the
// ingest pipeline fails the single chunk). Only context cancellation is
// surfaced as an error.
type Adapter struct {
	embedder  ai.IEmbedder
	dim       int
	attempts  int
	baseDelay time.Duration
}

type AdapterOption func(*Adapter)

func WithDimension(dim int) AdapterOption {
	return func(a *Adapter) {
		if dim > 0 {
			a.dim = dim
		}
	}
}

func WithAttempts(attempts int) AdapterOption {
	return func(a *Adapter) {
		if attempts > 0 {
			a.attempts = attempts
		}
	}
}

func WithBaseDelay(delay time.Duration) AdapterOption {
	return func(a *Adapter) {
		if delay >= 0 {
			a.baseDelay = delay
		}
	}
}

func NewAdapter(embedder ai.IEmbedder, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		embedder:  embedder,
		dim:       DefaultDimension,
		attempts:  defaultAttempts,
		baseDelay: defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Dimension() int {
	return a.dim
}

// Embed obtains one normalized vector for text. Transient upstream failures,
// malformed payloads and dimension mismatches all count as a failed attempt;
// the delay before attempt n is base * 1.5^n.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("embed_model", a.embedder.ModelName()))
	for attempt := 0; attempt < a.attempts; attempt++ {
		vec, err := a.embedder.Embed(ctx, text)
		if err == nil {
			err = Validate(vec, a.dim)
		}
		if err == nil {
			return Normalize(vec), nil
		}
		logger.Warn("embedding attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", a.attempts),
			zap.Error(err),
		)
		if attempt == a.attempts-1 {
			break
		}
		if serr := retry.Sleep(ctx, retry.ScaledBackoff(a.baseDelay, 1.5, attempt)); serr != nil {
			return nil, serr
		}
	}
	logger.Warn("embedding attempts exhausted, degrading")
	return nil, nil
}
