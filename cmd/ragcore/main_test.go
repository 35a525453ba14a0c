package main

import (
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/config"
	"github.com/kailas-cloud/ragcore/internal/domain"
)

func TestBuildEmbedderSatisfiesServiceContracts(t *testing.T) {
	cfg := config.EmbeddingConfig{
		APIKey:     "sk-test",
		Model:      "test-model",
		Dimensions: 8,
	}

	embedder, health := buildEmbedder(cfg, nil, nil, zap.NewNop())
	if embedder == nil {
		t.Fatal("no embedder")
	}

	// The ingestion service needs batch embedding, the retrieval
	// service single embedding.
	var _ domain.BatchEmbedder = embedder
	var _ domain.Embedder = embedder

	if health == nil {
		t.Fatal("no health checker")
	}
}
