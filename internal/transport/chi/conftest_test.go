package chi

import (
	"context"
	"sync"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/extract"
)

// memCollectionRepo is an in-memory collection store shared across services.
type memCollectionRepo struct {
	mu   sync.Mutex
	cols map[string]domain.Collection
}

func newMemCollectionRepo() *memCollectionRepo {
	return &memCollectionRepo{cols: make(map[string]domain.Collection)}
}

func (r *memCollectionRepo) Create(_ context.Context, c domain.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cols[c.Name]; ok {
		return domain.ErrAlreadyExists
	}
	r.cols[c.Name] = c
	return nil
}

func (r *memCollectionRepo) Get(_ context.Context, name string) (domain.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cols[name]
	if !ok {
		return domain.Collection{}, domain.ErrNotFound
	}
	return c, nil
}

func (r *memCollectionRepo) List(_ context.Context, ownerID string) ([]domain.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Collection
	for _, c := range r.cols {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCollectionRepo) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cols[name]; !ok {
		return domain.ErrNotFound
	}
	delete(r.cols, name)
	return nil
}

// memFileRepo is an in-memory file record store with CAS transitions.
type memFileRepo struct {
	mu    sync.Mutex
	files map[string]domain.File
	keys  map[string]string
}

func newMemFileRepo() *memFileRepo {
	return &memFileRepo{files: make(map[string]domain.File), keys: make(map[string]string)}
}

func (r *memFileRepo) Create(_ context.Context, f *domain.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[f.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.files[f.ID] = *f
	return nil
}

func (r *memFileRepo) Get(_ context.Context, id string) (domain.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return domain.File{}, domain.ErrNotFound
	}
	return f, nil
}

func (r *memFileRepo) Update(_ context.Context, f *domain.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[f.ID] = *f
	return nil
}

func (r *memFileRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.files, id)
	return nil
}

func (r *memFileRepo) List(_ context.Context, ownerID string) ([]domain.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.File
	for _, f := range r.files {
		if f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFileRepo) Transition(
	_ context.Context, id string, from, to domain.FileStatus, errorKind, errorMsg string,
) (bool, error) {
	if !from.CanTransition(to) {
		return false, domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if f.Status != from {
		return false, nil
	}
	f.Status = to
	f.ErrorKind = errorKind
	f.ErrorMsg = errorMsg
	r.files[id] = f
	return true, nil
}

func (r *memFileRepo) BindIngestKey(_ context.Context, ingestKey, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[ingestKey] = fileID
	return nil
}

func (r *memFileRepo) LookupIngestKey(_ context.Context, ingestKey string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.keys[ingestKey]
	if !ok {
		return "", domain.ErrNotFound
	}
	return id, nil
}

// mockChunkStore satisfies every chunk-store contract the services need.
type mockChunkStore struct {
	searchSemanticFn func(ctx context.Context, collection, ownerID string, vector []float32, k int) ([]domain.Hit, error)
	searchLexicalFn  func(ctx context.Context, collection, ownerID, query string, k int) ([]domain.Hit, error)
	statsFn          func(ctx context.Context, col domain.Collection) (domain.CollectionStats, error)
}

func (m *mockChunkStore) Put(context.Context, domain.Collection, []domain.Chunk) error {
	return nil
}

func (m *mockChunkStore) DeleteByFile(context.Context, string, string) (int, error) {
	return 0, nil
}

func (m *mockChunkStore) DeleteByCollection(context.Context, string) (int, error) {
	return 0, nil
}

func (m *mockChunkStore) SearchSemantic(
	ctx context.Context, collection, ownerID string, vector []float32, k int,
) ([]domain.Hit, error) {
	if m.searchSemanticFn != nil {
		return m.searchSemanticFn(ctx, collection, ownerID, vector, k)
	}
	return nil, nil
}

func (m *mockChunkStore) SearchLexical(
	ctx context.Context, collection, ownerID, query string, k int,
) ([]domain.Hit, error) {
	if m.searchLexicalFn != nil {
		return m.searchLexicalFn(ctx, collection, ownerID, query, k)
	}
	return nil, nil
}

func (m *mockChunkStore) Stats(ctx context.Context, col domain.Collection) (domain.CollectionStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, col)
	}
	return domain.CollectionStats{Dimension: col.Dimension, ModelID: col.ModelID}, nil
}

// mockFileStore covers the collection cascade contract.
type mockFileStore struct{}

func (mockFileStore) DeleteByCollection(context.Context, string) (int, error) { return 0, nil }

// mockExtractor returns fixed text.
type mockExtractor struct {
	text string
}

func (m *mockExtractor) Extract(context.Context, string, string) (*extract.Document, error) {
	return &extract.Document{Text: m.text}, nil
}

// mockEmbedder returns unit vectors of a fixed dimension.
type mockEmbedder struct {
	dim     int
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) ModelID() string { return "test-model" }

func (m *mockEmbedder) Dimension() int { return m.dim }

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	vec := make([]float32, m.dim)
	vec[0] = 1
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: 1}, nil
}

func (m *mockEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, m.dim)
		vec[0] = 1
		vecs[i] = vec
	}
	return domain.BatchEmbeddingResult{Embeddings: vecs, TotalTokens: len(texts)}, nil
}

// mockPinger reports store health.
type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }
