package ingest

import (
	"context"
	"sync"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/extract"
)

// fakeFileRepo is an in-memory FileRepository that honors the status
// compare-and-set.
type fakeFileRepo struct {
	mu      sync.Mutex
	files   map[string]domain.File
	ingests map[string]string
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{
		files:   map[string]domain.File{},
		ingests: map[string]string{},
	}
}

func (r *fakeFileRepo) Create(_ context.Context, f *domain.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[f.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.files[f.ID] = *f
	return nil
}

func (r *fakeFileRepo) Get(_ context.Context, id string) (domain.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return domain.File{}, domain.ErrNotFound
	}
	return f, nil
}

func (r *fakeFileRepo) Update(_ context.Context, f *domain.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[f.ID] = *f
	return nil
}

func (r *fakeFileRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.files, id)
	return nil
}

func (r *fakeFileRepo) List(_ context.Context, ownerID string) ([]domain.File, error) {
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

func (r *fakeFileRepo) Transition(
	_ context.Context, id string, from, to domain.FileStatus, errorKind, errorMsg string,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok || f.Status != from {
		return false, nil
	}
	f.Status = to
	f.ErrorKind = errorKind
	f.ErrorMsg = errorMsg
	r.files[id] = f
	return true, nil
}

func (r *fakeFileRepo) BindIngestKey(_ context.Context, ingestKey, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ingests[ingestKey] = fileID
	return nil
}

func (r *fakeFileRepo) LookupIngestKey(_ context.Context, ingestKey string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.ingests[ingestKey]
	if !ok {
		return "", domain.ErrNotFound
	}
	return id, nil
}

// mockColls serves a fixed collection set.
type mockColls struct {
	cols map[string]domain.Collection
}

func (m *mockColls) Get(_ context.Context, name string) (domain.Collection, error) {
	col, ok := m.cols[name]
	if !ok {
		return domain.Collection{}, domain.ErrNotFound
	}
	return col, nil
}

// mockChunkStore records puts and deletes.
type mockChunkStore struct {
	mu      sync.Mutex
	putFn   func(ctx context.Context, col domain.Collection, chunks []domain.Chunk) error
	puts    [][]domain.Chunk
	deletes []string
}

func (m *mockChunkStore) Put(ctx context.Context, col domain.Collection, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putFn != nil {
		if err := m.putFn(ctx, col, chunks); err != nil {
			return err
		}
	}
	m.puts = append(m.puts, chunks)
	return nil
}

func (m *mockChunkStore) DeleteByFile(_ context.Context, collection, fileID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, collection+"/"+fileID)
	return 0, nil
}

func (m *mockChunkStore) totalChunks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.puts {
		n += len(p)
	}
	return n
}

// mockExtractor returns fixed text.
type mockExtractor struct {
	text string
	err  error
}

func (m *mockExtractor) Extract(context.Context, string, string) (*extract.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &extract.Document{Text: m.text}, nil
}

// mockEmbedder returns unit vectors of a fixed dimension.
type mockEmbedder struct {
	dim   int
	err   error
	calls int
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, m.dim)
		v[0] = 1
		embeddings[i] = v
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: 3 * len(texts)}, nil
}

// ctxFileRepo refuses writes once the context is done, like a real store.
type ctxFileRepo struct {
	*fakeFileRepo
}

func (r *ctxFileRepo) Transition(
	ctx context.Context, id string, from, to domain.FileStatus, errorKind, errorMsg string,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return r.fakeFileRepo.Transition(ctx, id, from, to, errorKind, errorMsg)
}

// ctxChunkStore refuses operations once the context is done.
type ctxChunkStore struct {
	*mockChunkStore
}

func (s *ctxChunkStore) DeleteByFile(ctx context.Context, collection, fileID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.mockChunkStore.DeleteByFile(ctx, collection, fileID)
}

// cancellingEmbedder cancels the surrounding context mid batch.
type cancellingEmbedder struct {
	cancel context.CancelFunc
}

func (e *cancellingEmbedder) BatchEmbed(ctx context.Context, _ []string) (domain.BatchEmbeddingResult, error) {
	e.cancel()
	return domain.BatchEmbeddingResult{}, ctx.Err()
}

// recordingSink captures emitted events.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *recordingSink) Emit(ev domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) Flush() {}

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Event
	}
	return out
}
