// Package chunk persists chunk hashes and runs vector and full-text
// search over a collection's FT index.
package chunk

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/ragcore/internal/db"
	"github.com/kailas-cloud/ragcore/internal/domain"
)

// store is the consumer interface for chunk operations (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	DelMulti(ctx context.Context, keys []string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// returnFields are the hash fields loaded for every search hit. The
// vector itself is never returned.
var returnFields = []string{"owner_id", "file_id", "ordinal", "text", "keywords", "model_id", "file_name"}

// knnReturnFields additionally requests the KNN distance attribute;
// with an explicit RETURN clause RediSearch omits it unless named.
var knnReturnFields = append(append([]string{}, returnFields...), "__vector_score")

// Repo implements the chunk repository.
type Repo struct {
	store store
}

// New creates a chunk repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Put upserts a batch of chunks into a collection. Every vector is
// checked against the collection dimension first; one mismatch rejects
// the whole batch. Vectors are normalized to unit length before
// storage so cosine scores are comparable. Keys are deterministic per
// (file, ordinal), so re-ingesting a file replaces its chunks.
func (r *Repo) Put(ctx context.Context, col domain.Collection, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for i := range chunks {
		if len(chunks[i].Vector) != col.Dimension {
			return fmt.Errorf("chunk %s/%d: %w",
				chunks[i].FileID, chunks[i].Ordinal,
				domain.NewDimensionMismatch(len(chunks[i].Vector), col.Dimension))
		}
	}

	items := make([]db.HashSetItem, len(chunks))
	for i := range chunks {
		domain.NormalizeL2(chunks[i].Vector)
		items[i] = db.HashSetItem{
			Key:    domain.ChunkKey(col.Name, chunks[i].FileID, chunks[i].Ordinal),
			Fields: chunkToHash(&chunks[i]),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("put %d chunks into %s: %w", len(chunks), col.Name, err)
	}
	return nil
}

// DeleteByFile removes every chunk a file contributed to a collection.
// Returns the number of chunks removed.
func (r *Repo) DeleteByFile(ctx context.Context, collection, fileID string) (int, error) {
	return r.deleteByPattern(ctx, domain.ChunkKeyPrefix(collection)+fileID+":*")
}

// DeleteByCollection removes every chunk in a collection. Returns the
// number of chunks removed.
func (r *Repo) DeleteByCollection(ctx context.Context, collection string) (int, error) {
	return r.deleteByPattern(ctx, domain.ChunkKeyPrefix(collection)+"*")
}

func (r *Repo) deleteByPattern(ctx context.Context, pattern string) (int, error) {
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return 0, fmt.Errorf("delete %d chunks: %w", len(keys), err)
	}
	return len(keys), nil
}

// SearchSemantic runs a KNN search scoped to one owner. Scores are
// cosine similarity in [0, 1].
func (r *Repo) SearchSemantic(
	ctx context.Context, collection, ownerID string, vector []float32, topK int,
) ([]domain.Hit, error) {
	q := &db.KNNQuery{
		IndexName:    domain.CollectionIndexName(collection),
		Prefilter:    db.TagFilter("owner_id", ownerID),
		Vector:       vector,
		K:            topK,
		ReturnFields: knnReturnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("knn search %s: %w", collection, err)
	}

	hits := make([]domain.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, domain.Hit{
			Chunk:    chunkFromEntry(collection, e),
			Score:    e.Score,
			Semantic: e.Score,
		})
	}
	return hits, nil
}

// SearchLexical runs a full-text search over the text field, scoped to
// one owner. Scores are raw BM25 weights.
func (r *Repo) SearchLexical(
	ctx context.Context, collection, ownerID, query string, topK int,
) ([]domain.Hit, error) {
	q := &db.TextQuery{
		IndexName:    domain.CollectionIndexName(collection),
		Field:        "text",
		Query:        query,
		Prefilter:    db.TagFilter("owner_id", ownerID),
		TopK:         topK,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("text search %s: %w", collection, err)
	}

	hits := make([]domain.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, domain.Hit{
			Chunk:   chunkFromEntry(collection, e),
			Score:   e.Score,
			Lexical: e.Score,
		})
	}
	return hits, nil
}

// Stats reports chunk and file counts for a collection.
func (r *Repo) Stats(ctx context.Context, col domain.Collection) (domain.CollectionStats, error) {
	count, err := r.store.SearchCount(ctx, domain.CollectionIndexName(col.Name), "*")
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return domain.CollectionStats{}, fmt.Errorf("collection %s: %w", col.Name, domain.ErrNotFound)
		}
		return domain.CollectionStats{}, fmt.Errorf("count chunks %s: %w", col.Name, err)
	}

	keys, err := r.store.Scan(ctx, domain.ChunkKeyPrefix(col.Name)+"*")
	if err != nil {
		return domain.CollectionStats{}, fmt.Errorf("scan chunks %s: %w", col.Name, err)
	}
	files := make(map[string]struct{})
	prefixLen := len(domain.ChunkKeyPrefix(col.Name))
	for _, k := range keys {
		if len(k) <= prefixLen {
			continue
		}
		files[fileIDFromKey(k[prefixLen:])] = struct{}{}
	}

	return domain.CollectionStats{
		ChunkCount: count,
		FileCount:  len(files),
		Dimension:  col.Dimension,
		ModelID:    col.ModelID,
	}, nil
}
