package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/chunker"
	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/metrics"
)

// ingest runs the extract/chunk/embed/index stages for one claimed
// file. Returns the number of chunks written.
func (s *Service) ingest(ctx context.Context, f *domain.File) (int, error) {
	col, err := s.colls.Get(ctx, f.Collection)
	if err != nil {
		return 0, fmt.Errorf("get collection: %w", err)
	}

	doc, err := s.extractor.Extract(ctx, f.StorageRef, f.DeclaredMIME)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", f.OriginalName, err)
	}

	ck, err := chunker.New(col.ChunkSize, col.ChunkOverlap, s.cfg.MinSentenceChars)
	if err != nil {
		return 0, fmt.Errorf("chunker for %s: %w", col.Name, err)
	}
	pieces := ck.Split(doc.Text)

	// Re-ingestion replaces the file's chunks wholesale. Stale chunks
	// beyond the new count would otherwise survive on deterministic keys.
	if _, err := s.chunks.DeleteByFile(ctx, col.Name, f.ID); err != nil {
		return 0, fmt.Errorf("clear previous chunks: %w", err)
	}

	if len(pieces) == 0 {
		s.logger.Info("File produced no chunks",
			zap.String("file_id", f.ID),
			zap.String("name", f.OriginalName),
		)
		return 0, nil
	}

	written := 0
	for _, batch := range batchPieces(pieces, s.cfg.BatchSize, s.cfg.BatchCharBudget) {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("%w: %w", domain.ErrCancelled, err)
		}

		n, tokens, err := s.embedAndPut(ctx, col, f, batch)
		if err != nil {
			return written, err
		}
		written += n

		s.sink.Emit(domain.Event{
			Event:      domain.EventChunkBatchEmbedded,
			FileID:     f.ID,
			Collection: col.Name,
			At:         time.Now(),
			Payload: map[string]any{
				"batch_size": n,
				"tokens":     tokens,
			},
		})
	}

	return written, nil
}

// embedAndPut vectorizes one batch and writes it to the store.
func (s *Service) embedAndPut(
	ctx context.Context, col domain.Collection, f *domain.File, batch []chunker.Chunk,
) (int, int, error) {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Text
	}

	res, err := s.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, 0, fmt.Errorf("embed batch of %d: %w", len(texts), err)
	}
	if len(res.Embeddings) != len(batch) {
		return 0, 0, fmt.Errorf(
			"embedder returned %d vectors for %d chunks: %w",
			len(res.Embeddings), len(batch), domain.ErrEmbeddingUnavailable,
		)
	}

	chunks := make([]domain.Chunk, len(batch))
	for i := range batch {
		chunks[i] = domain.Chunk{
			FileID:     f.ID,
			Collection: col.Name,
			OwnerID:    f.OwnerID,
			Ordinal:    batch[i].Ordinal,
			Text:       batch[i].Text,
			Keywords:   batch[i].Keywords,
			Vector:     res.Embeddings[i],
			ModelID:    col.ModelID,
			FileName:   f.OriginalName,
		}
	}

	if err := s.chunks.Put(ctx, col, chunks); err != nil {
		return 0, 0, fmt.Errorf("index batch of %d: %w", len(chunks), err)
	}
	metrics.IngestChunksWrittenTotal.Add(float64(len(chunks)))

	return len(chunks), res.TotalTokens, nil
}

// batchPieces groups chunks into embedding batches bounded by count and
// total characters. A single oversized chunk still forms a batch of one.
func batchPieces(pieces []chunker.Chunk, maxBatch, charBudget int) [][]chunker.Chunk {
	var batches [][]chunker.Chunk
	var current []chunker.Chunk
	chars := 0

	for _, p := range pieces {
		if len(current) > 0 && (len(current) >= maxBatch || chars+len(p.Text) > charBudget) {
			batches = append(batches, current)
			current = nil
			chars = 0
		}
		current = append(current, p)
		chars += len(p.Text)
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
