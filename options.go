package ragcore

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// Defaults applied when the corresponding option is omitted.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultDimensions   = 1536
	DefaultModel        = "text-embedding-3-small"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs            []string
	password         string
	readinessTimeout time.Duration

	openAIKey      string
	openAIBaseURL  string
	modelID        string
	dimensions     int
	rateLimitRPS   float64
	rateLimitBurst int

	embedder       domain.Embedder
	embedderHealth domain.HealthChecker
	cache          bool

	chunkSize    int
	chunkOverlap int

	hnswM           int
	hnswEFConstruct int
	csvSampleRows   int
	workers         int

	sink       domain.EventSink
	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		readinessTimeout: defaultReadinessTimeout,
		modelID:          DefaultModel,
		dimensions:       DefaultDimensions,
		chunkSize:        DefaultChunkSize,
		chunkOverlap:     DefaultChunkOverlap,
		cache:            true,
		logger:           zap.NewNop(),
	}
}

// WithRedis points the client at a Redis or Valkey deployment with the
// search module loaded.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) { c.addrs = addrs }
}

// WithPassword sets the database password.
func WithPassword(password string) Option {
	return func(c *clientConfig) { c.password = password }
}

// WithOpenAI configures the built-in OpenAI-compatible embedding
// provider. baseURL may be empty for api.openai.com.
func WithOpenAI(apiKey, baseURL string) Option {
	return func(c *clientConfig) {
		c.openAIKey = apiKey
		c.openAIBaseURL = baseURL
	}
}

// WithModel overrides the embedding model and its dimensionality.
func WithModel(modelID string, dimensions int) Option {
	return func(c *clientConfig) {
		c.modelID = modelID
		c.dimensions = dimensions
	}
}

// WithEmbedder supplies a custom embedding provider instead of the
// built-in OpenAI adapter. Providers that also implement
// HealthCheck(ctx) error feed the Health report.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = &embedderAdapter{inner: e}
		c.embedderHealth, _ = e.(domain.HealthChecker)
	}
}

// WithoutCache disables the store-backed embedding cache.
func WithoutCache() Option {
	return func(c *clientConfig) { c.cache = false }
}

// WithChunking overrides the default chunk size and overlap applied to
// new collections.
func WithChunking(size, overlap int) Option {
	return func(c *clientConfig) {
		c.chunkSize = size
		c.chunkOverlap = overlap
	}
}

// WithHNSW overrides vector index build parameters.
func WithHNSW(m, efConstruct int) Option {
	return func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	}
}

// WithWorkers sets the ingestion worker pool size.
func WithWorkers(n int) Option {
	return func(c *clientConfig) { c.workers = n }
}

// WithRateLimit throttles outbound embedding calls.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *clientConfig) {
		c.rateLimitRPS = rps
		c.rateLimitBurst = burst
	}
}

// WithEventSink registers a host callback for ingestion lifecycle events.
func WithEventSink(sink EventSink) Option {
	return func(c *clientConfig) {
		c.sink = &sinkAdapter{inner: sink}
	}
}

// WithLogger sets the client logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}

// WithPrometheus registers client metrics (operation counts and
// durations) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return func(c *clientConfig) { c.metricsReg = reg }
}

// Embedder is the public embedding provider contract for WithEmbedder.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is one vector with its token usage.
type EmbeddingResult struct {
	Embedding   []float32
	TotalTokens int
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:   r.Embedding,
		TotalTokens: r.TotalTokens,
	}, nil
}

// sinkAdapter bridges the public EventSink to the internal contract.
type sinkAdapter struct {
	inner EventSink
}

func (a *sinkAdapter) Emit(ev domain.Event) {
	a.inner.Emit(Event{
		Event:      ev.Event,
		FileID:     ev.FileID,
		Collection: ev.Collection,
		At:         ev.At,
		Payload:    ev.Payload,
	})
}

func (a *sinkAdapter) Flush() {
	a.inner.Flush()
}
