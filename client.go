package ragcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/ragcore/internal/db"
	dbRedis "github.com/kailas-cloud/ragcore/internal/db/redis"
	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/extract"
	chunkrepo "github.com/kailas-cloud/ragcore/internal/repository/chunk"
	collectionrepo "github.com/kailas-cloud/ragcore/internal/repository/collection"
	"github.com/kailas-cloud/ragcore/internal/repository/embcache"
	filerepo "github.com/kailas-cloud/ragcore/internal/repository/file"
	openaiEmb "github.com/kailas-cloud/ragcore/internal/transport/openai"
	collectionuc "github.com/kailas-cloud/ragcore/internal/usecase/collection"
	embeddinguc "github.com/kailas-cloud/ragcore/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/ragcore/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragcore/internal/usecase/ingest"
	retrievaluc "github.com/kailas-cloud/ragcore/internal/usecase/retrieval"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the ragcore embedded entry point.
type Client struct {
	store       db.Store
	collSvc     *collectionuc.Service
	ingestSvc   *ingestuc.Service
	retrieveSvc *retrievaluc.Service
	healthSvc   *healthuc.Service
	obs         *observer

	modelID      string
	dimension    int
	chunkSize    int
	chunkOverlap int

	stopWorkers context.CancelFunc
	workersDone chan struct{}
}

// New creates a ragcore Client, connects to the database, and starts
// the ingestion worker pool. Close must be called to release resources.
func New(opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("ragcore: database address required (use WithRedis)")
	}
	if cfg.embedder == nil && cfg.openAIKey != "" {
		cfg.embedder, cfg.embedderHealth = buildOpenAIEmbedder(cfg)
	}
	if cfg.embedder == nil {
		return nil, errors.New("ragcore: embedder required (use WithOpenAI or WithEmbedder)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("ragcore: create store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("ragcore: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	return wireClient(store, cfg, obs)
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	collRepo := collectionrepo.New(store)
	if cfg.hnswM > 0 || cfg.hnswEFConstruct > 0 {
		collRepo = collRepo.WithHNSW(collectionrepo.HNSWConfig{
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
		})
	}
	fileRepo := filerepo.New(store)
	chunkRepo := chunkrepo.New(store)
	extractor := extract.New(cfg.csvSampleRows)

	embedder := cfg.embedder
	if cfg.cache {
		embedder = embcache.New(&batchAdapter{inner: embedder}, store, cfg.modelID, nil, cfg.logger)
	}

	collSvc := collectionuc.New(collRepo, chunkRepo, fileRepo, cfg.logger)
	ingestSvc := ingestuc.New(fileRepo, collRepo, chunkRepo, extractor, asBatchEmbedder(embedder),
		ingestuc.Config{Workers: cfg.workers}, cfg.sink, cfg.logger)
	retrieveSvc := retrievaluc.New(chunkRepo, collRepo, embedder, retrievaluc.Config{}, cfg.logger)

	// The decorated chain hides the provider's health probe, so the
	// checker travels in the config on its own.
	var embChecker healthuc.EmbeddingChecker
	if cfg.embedderHealth != nil {
		embChecker = cfg.embedderHealth
	}
	healthSvc := healthuc.New(store, embChecker)

	workerCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ingestSvc.Run(workerCtx)
	}()

	return &Client{
		store:        store,
		collSvc:      collSvc,
		ingestSvc:    ingestSvc,
		retrieveSvc:  retrieveSvc,
		healthSvc:    healthSvc,
		obs:          obs,
		modelID:      cfg.modelID,
		dimension:    cfg.dimensions,
		chunkSize:    cfg.chunkSize,
		chunkOverlap: cfg.chunkOverlap,
		stopWorkers:  stop,
		workersDone:  done,
	}, nil
}

// Close stops the ingestion workers and releases the store connection.
func (c *Client) Close() {
	if c.stopWorkers != nil {
		c.stopWorkers()
		<-c.workersDone
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok" or "degraded"
	Checks map[string]string // component name to "ok"/"error"
}

// Health checks the database and, when the embedding provider supports
// it, the provider itself.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(report.Status), Checks: checks}
}

// Collections returns the collection management service scoped to an owner.
func (c *Client) Collections(ownerID string) *CollectionService {
	return &CollectionService{client: c, owner: ownerID}
}

// Files returns the ingestion service scoped to an owner.
func (c *Client) Files(ownerID string) *FileService {
	return &FileService{client: c, owner: ownerID}
}

// Query runs a retrieval query against a collection.
func (c *Client) Query(
	ctx context.Context, ownerID, collection, query string, opts *QueryOptions,
) (_ QueryResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("query", start, err) }()

	resp, err := c.retrieveSvc.Retrieve(ctx, ownerID, collection, query, opts.toDomain())
	if err != nil {
		return QueryResult{}, fmt.Errorf("query: %w", err)
	}
	return queryResultFromDomain(resp), nil
}

// buildOpenAIEmbedder assembles the default provider chain for WithOpenAI:
// provider, retry, rate limit. The base provider comes back separately
// so the health probe survives the decorators.
func buildOpenAIEmbedder(cfg *clientConfig) (domain.Embedder, domain.HealthChecker) {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.openAIKey,
		BaseURL:    cfg.openAIBaseURL,
		Model:      cfg.modelID,
		Dimensions: cfg.dimensions,
		Logger:     cfg.logger,
	})
	var embedder domain.Embedder = base
	embedder = embeddinguc.NewRetryEmbedder(embedder, cfg.modelID, 0, 0, 0, cfg.logger)
	if cfg.rateLimitRPS > 0 {
		embedder = embeddinguc.NewRateLimitedEmbedder(embedder, cfg.rateLimitRPS, cfg.rateLimitBurst)
	}
	return embedder, base
}

// batchAdapter upgrades an Embedder-only chain to the batch contract
// the cache expects.
type batchAdapter struct {
	inner domain.Embedder
}

func (a *batchAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return a.inner.Embed(ctx, text)
}

func (a *batchAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := a.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, a.inner, texts)
}

func asBatchEmbedder(e domain.Embedder) domain.BatchEmbedder {
	if be, ok := e.(domain.BatchEmbedder); ok {
		return be
	}
	return &batchAdapter{inner: e}
}
