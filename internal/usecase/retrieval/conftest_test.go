package retrieval

import (
	"context"

	"github.com/kailas-cloud/ragcore/internal/chunker"
	"github.com/kailas-cloud/ragcore/internal/domain"
)

func tokensOf(text string) []string {
	return chunker.Tokens(text)
}

type mockSearcher struct {
	semanticFn func(ctx context.Context, collection, ownerID string, vector []float32, topK int) ([]domain.Hit, error)
	lexicalFn  func(ctx context.Context, collection, ownerID, query string, topK int) ([]domain.Hit, error)

	lexicalQueries []string
}

func (m *mockSearcher) SearchSemantic(
	ctx context.Context, collection, ownerID string, vector []float32, topK int,
) ([]domain.Hit, error) {
	if m.semanticFn != nil {
		return m.semanticFn(ctx, collection, ownerID, vector, topK)
	}
	return nil, nil
}

func (m *mockSearcher) SearchLexical(
	ctx context.Context, collection, ownerID, query string, topK int,
) ([]domain.Hit, error) {
	m.lexicalQueries = append(m.lexicalQueries, query)
	if m.lexicalFn != nil {
		return m.lexicalFn(ctx, collection, ownerID, query, topK)
	}
	return nil, nil
}

type mockColls struct {
	col domain.Collection
	err error
}

func (m *mockColls) Get(context.Context, string) (domain.Collection, error) {
	if m.err != nil {
		return domain.Collection{}, m.err
	}
	return m.col, nil
}

type mockEmbedder struct {
	err   error
	calls int
}

func (m *mockEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0, 0, 0}, TotalTokens: 3}, nil
}
