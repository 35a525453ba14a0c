package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/metrics"
)

// Retry defaults: capped exponential backoff.
const (
	DefaultRetryBase     = 250 * time.Millisecond
	DefaultRetryFactor   = 2
	DefaultRetryMaxTries = 6
)

// RetryEmbedder retries transient embedding failures with capped
// exponential backoff. Fatal errors (misconfigured model, invalid
// argument, exhausted quota) are returned immediately.
type RetryEmbedder struct {
	inner    domain.Embedder
	model    string
	base     time.Duration
	factor   int
	maxTries int
	logger   *zap.Logger
}

// NewRetryEmbedder wraps an embedder with retry. Non-positive
// parameters select the defaults.
func NewRetryEmbedder(inner domain.Embedder, model string, base time.Duration, factor, maxTries int, logger *zap.Logger) *RetryEmbedder {
	if base <= 0 {
		base = DefaultRetryBase
	}
	if factor <= 1 {
		factor = DefaultRetryFactor
	}
	if maxTries <= 0 {
		maxTries = DefaultRetryMaxTries
	}
	return &RetryEmbedder{
		inner:    inner,
		model:    model,
		base:     base,
		factor:   factor,
		maxTries: maxTries,
		logger:   logger,
	}
}

// Embed implements domain.Embedder.
func (r *RetryEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var result domain.EmbeddingResult
	err := r.retry(ctx, func() error {
		var innerErr error
		result, innerErr = r.inner.Embed(ctx, text)
		return innerErr
	})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return result, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (r *RetryEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var result domain.BatchEmbeddingResult
	err := r.retry(ctx, func() error {
		var innerErr error
		result, innerErr = r.batchInner(ctx, texts)
		return innerErr
	})
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	return result, nil
}

func (r *RetryEmbedder) batchInner(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := r.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, r.inner, texts)
}

func (r *RetryEmbedder) retry(ctx context.Context, call func() error) error {
	delay := r.base

	var lastErr error
	for attempt := 1; attempt <= r.maxTries; attempt++ {
		lastErr = call()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == r.maxTries {
			break
		}

		metrics.EmbeddingRetriesTotal.WithLabelValues(r.model).Inc()
		r.logger.Warn("Embedding attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(lastErr),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("embedding retry interrupted: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= time.Duration(r.factor)
	}

	return fmt.Errorf("embedding failed after %d attempts: %w", r.maxTries, lastErr)
}

// retryable reports whether the error is worth another attempt.
func retryable(err error) bool {
	switch {
	case errors.Is(err, domain.ErrModelMisconfigured),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrEmbeddingQuotaExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
