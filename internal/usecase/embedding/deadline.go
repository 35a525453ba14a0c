package embedding

import (
	"context"
	"time"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// DeadlineEmbedder bounds every provider call with a per-call timeout
// so a stalled provider cannot hold an ingestion worker indefinitely.
type DeadlineEmbedder struct {
	inner    domain.Embedder
	deadline time.Duration
}

// NewDeadlineEmbedder wraps an embedder with a per-call deadline.
// A non-positive deadline disables the timeout.
func NewDeadlineEmbedder(inner domain.Embedder, deadline time.Duration) *DeadlineEmbedder {
	return &DeadlineEmbedder{inner: inner, deadline: deadline}
}

// Embed implements domain.Embedder.
func (d *DeadlineEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()
	return d.inner.Embed(ctx, text)
}

// BatchEmbed implements domain.BatchEmbedder.
func (d *DeadlineEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()
	if be, ok := d.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, d.inner, texts)
}

func (d *DeadlineEmbedder) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.deadline <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.deadline)
}
