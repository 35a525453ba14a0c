package ingest

import (
	"context"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/extract"
)

// FileRepository defines the storage contract for file records.
type FileRepository interface {
	Create(ctx context.Context, f *domain.File) error
	Get(ctx context.Context, id string) (domain.File, error)
	Update(ctx context.Context, f *domain.File) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, ownerID string) ([]domain.File, error)
	Transition(ctx context.Context, id string, from, to domain.FileStatus, errorKind, errorMsg string) (bool, error)
	BindIngestKey(ctx context.Context, ingestKey, fileID string) error
	LookupIngestKey(ctx context.Context, ingestKey string) (string, error)
}

// CollectionReader reads collections for existence and parameter lookup.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domain.Collection, error)
}

// ChunkStore writes and removes a file's chunks.
type ChunkStore interface {
	Put(ctx context.Context, col domain.Collection, chunks []domain.Chunk) error
	DeleteByFile(ctx context.Context, collection, fileID string) (int, error)
}

// Extractor turns a stored file into plain text.
type Extractor interface {
	Extract(ctx context.Context, path, declaredMIME string) (*extract.Document, error)
}
