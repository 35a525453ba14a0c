// Package retrieval answers queries: hybrid semantic+lexical search,
// score fusion, reranking, optional query expansion and multi-hop, and
// token-budgeted context assembly.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// Quality filter bounds for returned chunks.
const (
	minChunkChars = 50
	maxChunkChars = 5000
	minChunkWords = 10
)

// Config tunes the retrieval service.
type Config struct {
	KMax       int
	MaxHops    int
	TokenChars int           // 1 token ~ TokenChars characters
	Deadline   time.Duration // bound on a whole Retrieve call; 0 disables
}

// Service implements the retrieval engine.
type Service struct {
	chunks   ChunkSearcher
	colls    CollectionReader
	embedder domain.Embedder
	cfg      Config
	logger   *zap.Logger
}

// New creates a retrieval service.
func New(chunks ChunkSearcher, colls CollectionReader, embedder domain.Embedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.KMax <= 0 {
		cfg.KMax = domain.MaxK
	}
	if cfg.MaxHops <= 0 {
		cfg.MaxHops = domain.MaxHops
	}
	if cfg.TokenChars <= 0 {
		cfg.TokenChars = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{chunks: chunks, colls: colls, embedder: embedder, cfg: cfg, logger: logger}
}

// Retrieve runs a query against a collection the owner can see.
// An embedding provider failure degrades to lexical-only results; a
// store failure fails the whole call with ErrRetrievalUnavailable.
func (s *Service) Retrieve(
	ctx context.Context, ownerID, collection, query string, opts domain.RetrievalOptions,
) (domain.RetrievalResponse, error) {
	if strings.TrimSpace(query) == "" {
		return domain.RetrievalResponse{}, fmt.Errorf("empty query: %w", domain.ErrInvalidArgument)
	}

	if s.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Deadline)
		defer cancel()
	}

	col, err := s.colls.Get(ctx, collection)
	if err != nil {
		return domain.RetrievalResponse{}, fmt.Errorf("get collection: %w", err)
	}
	if col.OwnerID != ownerID {
		return domain.RetrievalResponse{}, fmt.Errorf("collection %s: %w", collection, domain.ErrPermissionDenied)
	}

	opts = opts.Clamp(s.cfg.KMax, s.cfg.MaxHops)
	n := 2 * opts.K

	semantic, degraded, err := s.searchSemantic(ctx, collection, ownerID, query, n)
	if err != nil {
		return domain.RetrievalResponse{}, err
	}

	lexical, err := s.searchLexical(ctx, collection, ownerID, query, n, opts.ExpandQuery)
	if err != nil {
		return domain.RetrievalResponse{}, err
	}

	fused := fuse(semantic, lexical, query, opts.Alpha)
	if opts.Rerank {
		fused = rerank(fused, query)
	}

	results := fused
	if opts.K < len(results) {
		results = results[:opts.K:opts.K]
	}
	results = expandHops(results, fused, opts.MultiHop)
	results = filterQuality(results, opts.MinScore)

	resp := domain.RetrievalResponse{Hits: results, Degraded: degraded}
	if opts.ContextTokenBudget > 0 {
		resp.Context = s.assembleContext(results, opts.ContextTokenBudget)
	}
	return resp, nil
}

// searchSemantic embeds the query and runs KNN. Embedding failures are
// degraded to an empty semantic set; store failures are fatal.
func (s *Service) searchSemantic(
	ctx context.Context, collection, ownerID, query string, n int,
) ([]domain.Hit, bool, error) {
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrCancelled) {
			return nil, false, fmt.Errorf("%w: %w", domain.ErrCancelled, err)
		}
		s.logger.Warn("Query embedding failed, serving lexical only",
			zap.String("collection", collection), zap.Error(err))
		return nil, true, nil
	}

	hits, err := s.chunks.SearchSemantic(ctx, collection, ownerID, emb.Embedding, n)
	if err != nil {
		return nil, false, s.storeError("semantic search", collection, err)
	}
	return hits, false, nil
}

// searchLexical runs the lexical leg, optionally unioned with an
// expanded query derived from the original query's hits.
func (s *Service) searchLexical(
	ctx context.Context, collection, ownerID, query string, n int, expand bool,
) ([]domain.Hit, error) {
	hits, err := s.chunks.SearchLexical(ctx, collection, ownerID, query, n)
	if err != nil {
		return nil, s.storeError("lexical search", collection, err)
	}
	if !expand {
		return hits, nil
	}

	related := relatedTerms(query, hits)
	if len(related) == 0 {
		return hits, nil
	}

	expanded, err := s.chunks.SearchLexical(
		ctx, collection, ownerID, query+" "+strings.Join(related, " "), n,
	)
	if err != nil {
		return nil, s.storeError("expanded lexical search", collection, err)
	}

	return unionHits(hits, expanded), nil
}

func (s *Service) storeError(op, collection string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrPermissionDenied) {
		return fmt.Errorf("%s %s: %w", op, collection, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w: %w", op, collection, domain.ErrCancelled, err)
	}
	return fmt.Errorf("%s %s: %w: %w", op, collection, domain.ErrRetrievalUnavailable, err)
}

// unionHits merges two hit sets, keeping the higher-scored duplicate.
func unionHits(a, b []domain.Hit) []domain.Hit {
	out := make([]domain.Hit, 0, len(a)+len(b))
	byID := make(map[string]int, len(a))
	for _, h := range a {
		byID[h.Chunk.ID] = len(out)
		out = append(out, h)
	}
	for _, h := range b {
		if i, ok := byID[h.Chunk.ID]; ok {
			if h.Score > out[i].Score {
				out[i] = h
			}
			continue
		}
		byID[h.Chunk.ID] = len(out)
		out = append(out, h)
	}
	return out
}

// filterQuality drops low-score and degenerate chunks.
func filterQuality(hits []domain.Hit, minScore float64) []domain.Hit {
	out := hits[:0]
	for _, h := range hits {
		if h.Score < minScore {
			continue
		}
		if len(h.Chunk.Text) < minChunkChars || len(h.Chunk.Text) > maxChunkChars {
			continue
		}
		if len(strings.Fields(h.Chunk.Text)) < minChunkWords {
			continue
		}
		out = append(out, h)
	}
	return out
}

// assembleContext concatenates chunks under a token budget, each
// prefixed by its source filename.
func (s *Service) assembleContext(hits []domain.Hit, budget int) string {
	var b strings.Builder
	remaining := budget

	for _, h := range hits {
		block := "[" + h.Chunk.FileName + "]\n" + h.Chunk.Text
		cost := (len(block) + s.cfg.TokenChars - 1) / s.cfg.TokenChars
		if cost > remaining {
			break
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block)
		remaining -= cost
	}
	return b.String()
}
