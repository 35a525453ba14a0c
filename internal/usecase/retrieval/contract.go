package retrieval

import (
	"context"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// ChunkSearcher runs owner-scoped searches over a collection's chunks.
type ChunkSearcher interface {
	SearchSemantic(ctx context.Context, collection, ownerID string, vector []float32, topK int) ([]domain.Hit, error)
	SearchLexical(ctx context.Context, collection, ownerID, query string, topK int) ([]domain.Hit, error)
}

// CollectionReader reads collections for existence and owner checks.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domain.Collection, error)
}
