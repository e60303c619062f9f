// Package embedding provides decorators shared by the embedding adapters.
package embedding

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/sift-labs/tableqa/internal/core/ports/driven"
)

// Ensure Limited implements the interface.
var _ driven.EmbeddingService = (*Limited)(nil)

// Limited wraps an embedding service with a request rate limit, protecting
// hosted APIs from ingestion bursts. Batch calls count as one request.
type Limited struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
}

// NewLimited wraps the service with a limit of requestsPerSecond, allowing
// bursts up to burst. A non-positive rate disables limiting.
func NewLimited(inner driven.EmbeddingService, requestsPerSecond float64, burst int) *Limited {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return &Limited{inner: inner, limiter: limiter}
}

// Embed waits for a limiter slot before delegating.
func (l *Limited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.inner.Embed(ctx, text)
}

// EmbedBatch waits for a limiter slot before delegating.
func (l *Limited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the wrapped service's dimensionality.
func (l *Limited) Dimensions() int {
	return l.inner.Dimensions()
}

// ModelName returns the wrapped service's model name.
func (l *Limited) ModelName() string {
	return l.inner.ModelName()
}

// Ping delegates without consuming a limiter slot.
func (l *Limited) Ping(ctx context.Context) error {
	return l.inner.Ping(ctx)
}

// Close closes the wrapped service.
func (l *Limited) Close() error {
	return l.inner.Close()
}

func (l *Limited) wait(ctx context.Context) error {
	if l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
