// Package ingest runs the file ingestion pipeline: extract, chunk,
// embed, index. Files move through a strict status machine (pending,
// processing, completed, failed) driven by a worker pool.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/metrics"
)

// Defaults for the worker pool and embedding batches.
const (
	DefaultWorkers         = 4
	DefaultQueueSize       = 256
	DefaultBatchSize       = 32
	DefaultBatchCharBudget = 100_000
)

// Config tunes the ingestion service.
type Config struct {
	Workers          int
	QueueSize        int
	BatchSize        int // chunks per embedding API call
	BatchCharBudget  int // characters per embedding API call
	MinSentenceChars int
}

// Request describes a file handed to the pipeline.
type Request struct {
	OwnerID      string
	Collection   string
	OriginalName string
	DeclaredMIME string
	StorageRef   string
	ContentHash  string
}

// Service orchestrates ingestion.
type Service struct {
	files     FileRepository
	colls     CollectionReader
	chunks    ChunkStore
	extractor Extractor
	embedder  domain.BatchEmbedder

	queue chan string
	cfg   Config
	sink  domain.EventSink

	logger *zap.Logger
}

// New creates an ingestion service. Run must be called to start the
// worker pool.
func New(
	files FileRepository,
	colls CollectionReader,
	chunks ChunkStore,
	extractor Extractor,
	embedder domain.BatchEmbedder,
	cfg Config,
	sink domain.EventSink,
	logger *zap.Logger,
) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchCharBudget <= 0 {
		cfg.BatchCharBudget = DefaultBatchCharBudget
	}
	if sink == nil {
		sink = domain.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		files:     files,
		colls:     colls,
		chunks:    chunks,
		extractor: extractor,
		embedder:  embedder,
		queue:     make(chan string, cfg.QueueSize),
		cfg:       cfg,
		sink:      sink,
		logger:    logger,
	}
}

// Run starts the worker pool and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.cfg.Workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case fileID := <-s.queue:
					s.process(ctx, fileID)
				}
			}
		})
	}
	return g.Wait()
}

// Enqueue registers a file and queues it for ingestion. When the same
// content was already ingested into the collection with the same
// chunking parameters and model, the existing completed file is
// returned and nothing is queued.
func (s *Service) Enqueue(ctx context.Context, req Request) (domain.File, error) {
	col, err := s.colls.Get(ctx, req.Collection)
	if err != nil {
		return domain.File{}, fmt.Errorf("get collection: %w", err)
	}
	if col.OwnerID != req.OwnerID {
		return domain.File{}, fmt.Errorf("collection %s: %w", req.Collection, domain.ErrPermissionDenied)
	}

	key := ingestKey(req.ContentHash, col)
	if existing, ok := s.completedWithKey(ctx, key); ok {
		s.logger.Info("Ingestion skipped, content already indexed",
			zap.String("file_id", existing.ID),
			zap.String("collection", col.Name),
		)
		return existing, nil
	}

	now := time.Now().UnixMilli()
	f := domain.File{
		ID:           uuid.NewString(),
		OwnerID:      req.OwnerID,
		Collection:   req.Collection,
		OriginalName: req.OriginalName,
		DeclaredMIME: req.DeclaredMIME,
		StorageRef:   req.StorageRef,
		ContentHash:  req.ContentHash,
		Status:       domain.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.files.Create(ctx, &f); err != nil {
		return domain.File{}, fmt.Errorf("create file record: %w", err)
	}

	select {
	case s.queue <- f.ID:
	case <-ctx.Done():
		return domain.File{}, ctx.Err()
	}
	return f, nil
}

// Retry re-queues a failed file. Files in any other state are rejected.
func (s *Service) Retry(ctx context.Context, fileID, ownerID string) (domain.File, error) {
	f, err := s.getOwned(ctx, fileID, ownerID)
	if err != nil {
		return domain.File{}, err
	}
	if f.Status != domain.StatusFailed {
		return domain.File{}, fmt.Errorf("file %s is %s: %w", fileID, f.Status, domain.ErrNotRetryable)
	}

	applied, err := s.files.Transition(ctx, fileID, domain.StatusFailed, domain.StatusPending, "", "")
	if err != nil {
		return domain.File{}, fmt.Errorf("reset file %s: %w", fileID, err)
	}
	if !applied {
		return domain.File{}, fmt.Errorf("file %s: %w", fileID, domain.ErrNotRetryable)
	}
	metrics.IngestTransitionsTotal.WithLabelValues(string(domain.StatusPending)).Inc()

	select {
	case s.queue <- fileID:
	case <-ctx.Done():
		return domain.File{}, ctx.Err()
	}

	f.Status = domain.StatusPending
	f.ErrorKind = ""
	f.ErrorMsg = ""
	return f, nil
}

// GetFile returns a file record the owner can see.
func (s *Service) GetFile(ctx context.Context, fileID, ownerID string) (domain.File, error) {
	return s.getOwned(ctx, fileID, ownerID)
}

// ListFiles returns the owner's file records.
func (s *Service) ListFiles(ctx context.Context, ownerID string) ([]domain.File, error) {
	files, err := s.files.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// DeleteFile removes a file record and every chunk it contributed.
func (s *Service) DeleteFile(ctx context.Context, fileID, ownerID string) error {
	f, err := s.getOwned(ctx, fileID, ownerID)
	if err != nil {
		return err
	}

	if _, err := s.chunks.DeleteByFile(ctx, f.Collection, fileID); err != nil {
		return fmt.Errorf("delete chunks of %s: %w", fileID, err)
	}
	if err := s.files.Delete(ctx, fileID); err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	return nil
}

func (s *Service) getOwned(ctx context.Context, fileID, ownerID string) (domain.File, error) {
	f, err := s.files.Get(ctx, fileID)
	if err != nil {
		return domain.File{}, fmt.Errorf("get file: %w", err)
	}
	if f.OwnerID != ownerID {
		return domain.File{}, fmt.Errorf("file %s: %w", fileID, domain.ErrPermissionDenied)
	}
	return f, nil
}

// completedWithKey resolves an ingest key to its completed file, when
// that file still exists.
func (s *Service) completedWithKey(ctx context.Context, key string) (domain.File, bool) {
	fileID, err := s.files.LookupIngestKey(ctx, key)
	if err != nil {
		return domain.File{}, false
	}
	f, err := s.files.Get(ctx, fileID)
	if err != nil || f.Status != domain.StatusCompleted {
		return domain.File{}, false
	}
	return f, true
}

// ingestKey fingerprints one ingestion: same content into the same
// collection with the same chunking and model produces the same key.
func ingestKey(contentHash string, col domain.Collection) string {
	h := sha256.Sum256([]byte(
		contentHash + "|" + col.Name + "|" +
			strconv.Itoa(col.ChunkSize) + "|" + strconv.Itoa(col.ChunkOverlap) + "|" +
			col.ModelID,
	))
	return hex.EncodeToString(h[:])
}

// process runs one file through the pipeline. Claiming the file is a
// compare-and-set on its status, so a file queued twice is processed
// once.
func (s *Service) process(ctx context.Context, fileID string) {
	claimed, err := s.files.Transition(ctx, fileID, domain.StatusPending, domain.StatusProcessing, "", "")
	if err != nil {
		s.logger.Error("Failed to claim file", zap.String("file_id", fileID), zap.Error(err))
		return
	}
	if !claimed {
		return
	}
	metrics.IngestTransitionsTotal.WithLabelValues(string(domain.StatusProcessing)).Inc()

	f, err := s.files.Get(ctx, fileID)
	if err != nil {
		s.logger.Error("Claimed file vanished", zap.String("file_id", fileID), zap.Error(err))
		return
	}

	start := time.Now()
	s.sink.Emit(domain.Event{
		Event:      domain.EventIngestionStarted,
		FileID:     f.ID,
		Collection: f.Collection,
		At:         start,
	})

	written, err := s.ingest(ctx, &f)
	if err != nil {
		s.fail(ctx, &f, err)
		return
	}

	s.complete(ctx, &f, written, time.Since(start))
}

// fail rolls back the file's chunks and records the failure. The
// triggering ctx may already be cancelled; the rollback and the status
// transition still have to land, or the file is stuck in processing.
func (s *Service) fail(ctx context.Context, f *domain.File, cause error) {
	ctx = context.WithoutCancel(ctx)
	kind := domain.ErrorKind(cause)

	if _, err := s.chunks.DeleteByFile(ctx, f.Collection, f.ID); err != nil {
		s.logger.Error("Failed to roll back chunks",
			zap.String("file_id", f.ID), zap.Error(err))
	}

	if _, err := s.files.Transition(
		ctx, f.ID, domain.StatusProcessing, domain.StatusFailed, kind, cause.Error(),
	); err != nil {
		s.logger.Error("Failed to record failure",
			zap.String("file_id", f.ID), zap.Error(err))
	}
	metrics.IngestTransitionsTotal.WithLabelValues(string(domain.StatusFailed)).Inc()

	s.logger.Warn("Ingestion failed",
		zap.String("file_id", f.ID),
		zap.String("collection", f.Collection),
		zap.String("kind", kind),
		zap.Error(cause),
	)
	s.sink.Emit(domain.Event{
		Event:      domain.EventIngestionFailed,
		FileID:     f.ID,
		Collection: f.Collection,
		At:         time.Now(),
		Payload: map[string]any{
			"error_kind": kind,
			"error":      cause.Error(),
			"retryable":  domain.RetryableKind(kind),
		},
	})
}

func (s *Service) complete(ctx context.Context, f *domain.File, written int, elapsed time.Duration) {
	col, err := s.colls.Get(ctx, f.Collection)
	if err == nil {
		f.IngestKey = ingestKey(f.ContentHash, col)
		if err := s.files.BindIngestKey(ctx, f.IngestKey, f.ID); err != nil {
			s.logger.Warn("Failed to bind ingest key",
				zap.String("file_id", f.ID), zap.Error(err))
		}
		f.UpdatedAt = time.Now().UnixMilli()
		if err := s.files.Update(ctx, f); err != nil {
			s.logger.Warn("Failed to store ingest key",
				zap.String("file_id", f.ID), zap.Error(err))
		}
	}

	if _, err := s.files.Transition(
		ctx, f.ID, domain.StatusProcessing, domain.StatusCompleted, "", "",
	); err != nil {
		s.logger.Error("Failed to record completion",
			zap.String("file_id", f.ID), zap.Error(err))
		return
	}
	metrics.IngestTransitionsTotal.WithLabelValues(string(domain.StatusCompleted)).Inc()
	metrics.IngestDuration.Observe(elapsed.Seconds())

	s.logger.Info("Ingestion completed",
		zap.String("file_id", f.ID),
		zap.String("collection", f.Collection),
		zap.Int("chunks", written),
		zap.Duration("elapsed", elapsed),
	)
	s.sink.Emit(domain.Event{
		Event:      domain.EventIngestionCompleted,
		FileID:     f.ID,
		Collection: f.Collection,
		At:         time.Now(),
		Payload: map[string]any{
			"chunks":      written,
			"duration_ms": elapsed.Milliseconds(),
		},
	})
}
