// Package collection handles owner-scoped collection lifecycle.
package collection

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// Service handles collection CRUD and stats.
type Service struct {
	repo   Repository
	chunks ChunkStore
	files  FileStore
	logger *zap.Logger
}

// New creates a collection service.
func New(repo Repository, chunks ChunkStore, files FileStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, chunks: chunks, files: files, logger: logger}
}

// Create validates and stores a new collection bound to one embedding model.
func (s *Service) Create(
	ctx context.Context, name, ownerID, modelID string, dimension, chunkSize, chunkOverlap int,
) (domain.Collection, error) {
	col, err := domain.NewCollection(name, ownerID, modelID, dimension, chunkSize, chunkOverlap)
	if err != nil {
		return domain.Collection{}, err
	}
	col.CreatedAt = time.Now().UnixMilli()

	if err := s.repo.Create(ctx, col); err != nil {
		return domain.Collection{}, fmt.Errorf("create collection: %w", err)
	}

	s.logger.Info("Collection created",
		zap.String("collection", col.Name),
		zap.String("model", col.ModelID),
		zap.Int("dimension", col.Dimension),
	)
	return col, nil
}

// Get retrieves a collection the owner can see.
func (s *Service) Get(ctx context.Context, name, ownerID string) (domain.Collection, error) {
	col, err := s.repo.Get(ctx, name)
	if err != nil {
		return domain.Collection{}, fmt.Errorf("get collection: %w", err)
	}
	if col.OwnerID != ownerID {
		return domain.Collection{}, fmt.Errorf("collection %s: %w", name, domain.ErrPermissionDenied)
	}
	return col, nil
}

// List returns the owner's collections.
func (s *Service) List(ctx context.Context, ownerID string) ([]domain.Collection, error) {
	cols, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return cols, nil
}

// Delete removes a collection and everything in it. Chunks and file
// records go first so a failure midway never leaves orphans behind a
// missing collection.
func (s *Service) Delete(ctx context.Context, name, ownerID string) error {
	if _, err := s.Get(ctx, name, ownerID); err != nil {
		return err
	}

	chunksDeleted, err := s.chunks.DeleteByCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("delete chunks of %s: %w", name, err)
	}
	filesDeleted, err := s.files.DeleteByCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("delete file records of %s: %w", name, err)
	}

	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}

	s.logger.Info("Collection deleted",
		zap.String("collection", name),
		zap.Int("chunks_deleted", chunksDeleted),
		zap.Int("files_deleted", filesDeleted),
	)
	return nil
}

// Stats summarizes a collection's indexed contents.
func (s *Service) Stats(ctx context.Context, name, ownerID string) (domain.CollectionStats, error) {
	col, err := s.Get(ctx, name, ownerID)
	if err != nil {
		return domain.CollectionStats{}, err
	}

	stats, err := s.chunks.Stats(ctx, col)
	if err != nil {
		return domain.CollectionStats{}, fmt.Errorf("collection stats: %w", err)
	}
	return stats, nil
}
