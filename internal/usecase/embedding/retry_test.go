package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

type flakyEmbedder struct {
	calls    int
	failures int
	err      error
}

func (f *flakyEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.calls <= f.failures {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0}, TotalTokens: 3}, nil
}

func TestRetryEventualSuccess(t *testing.T) {
	inner := &flakyEmbedder{failures: 2, err: fmt.Errorf("boom: %w", domain.ErrEmbeddingUnavailable)}
	r := NewRetryEmbedder(inner, "m", time.Millisecond, 2, 6, zap.NewNop())

	res, err := r.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
	if len(res.Embedding) != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestRetryExhaustion(t *testing.T) {
	inner := &flakyEmbedder{failures: 100, err: fmt.Errorf("boom: %w", domain.ErrEmbeddingUnavailable)}
	r := NewRetryEmbedder(inner, "m", time.Millisecond, 2, 3, zap.NewNop())

	_, err := r.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Errorf("err = %v, want ErrEmbeddingUnavailable", err)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestRetryFatalErrorNotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "model misconfigured", err: domain.ErrModelMisconfigured},
		{name: "invalid argument", err: domain.ErrInvalidArgument},
		{name: "quota exceeded", err: domain.ErrEmbeddingQuotaExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &flakyEmbedder{failures: 100, err: fmt.Errorf("wrapped: %w", tt.err)}
			r := NewRetryEmbedder(inner, "m", time.Millisecond, 2, 6, zap.NewNop())

			_, err := r.Embed(context.Background(), "hello")
			if !errors.Is(err, tt.err) {
				t.Errorf("err = %v, want %v", err, tt.err)
			}
			if inner.calls != 1 {
				t.Errorf("calls = %d, want 1 (no retry)", inner.calls)
			}
		})
	}
}

func TestRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inner := &flakyEmbedder{failures: 100, err: fmt.Errorf("boom: %w", domain.ErrEmbeddingUnavailable)}
	r := NewRetryEmbedder(inner, "m", time.Hour, 2, 6, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := r.Embed(ctx, "hello")
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not stop on cancellation")
	}
}

func TestRetryBatchUsesFallbackForPlainEmbedder(t *testing.T) {
	inner := &flakyEmbedder{}
	r := NewRetryEmbedder(inner, "m", time.Millisecond, 2, 6, zap.NewNop())

	res, err := r.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Errorf("got %d embeddings, want 3", len(res.Embeddings))
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}
