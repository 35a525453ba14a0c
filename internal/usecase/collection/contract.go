package collection

import (
	"context"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// Repository defines the storage contract for collection metadata.
type Repository interface {
	Create(ctx context.Context, col domain.Collection) error
	Get(ctx context.Context, name string) (domain.Collection, error)
	List(ctx context.Context, ownerID string) ([]domain.Collection, error)
	Delete(ctx context.Context, name string) error
}

// ChunkStore removes and summarizes a collection's chunks.
type ChunkStore interface {
	DeleteByCollection(ctx context.Context, collection string) (int, error)
	Stats(ctx context.Context, col domain.Collection) (domain.CollectionStats, error)
}

// FileStore removes a collection's file records.
type FileStore interface {
	DeleteByCollection(ctx context.Context, collection string) (int, error)
}
