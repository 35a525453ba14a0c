package ragcore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

func TestDefaultClientConfig(t *testing.T) {
	cfg := defaultClientConfig()

	if cfg.modelID != DefaultModel {
		t.Errorf("modelID = %q, want %q", cfg.modelID, DefaultModel)
	}
	if cfg.dimensions != DefaultDimensions {
		t.Errorf("dimensions = %d, want %d", cfg.dimensions, DefaultDimensions)
	}
	if cfg.chunkSize != DefaultChunkSize || cfg.chunkOverlap != DefaultChunkOverlap {
		t.Errorf("chunking = %d/%d, want %d/%d",
			cfg.chunkSize, cfg.chunkOverlap, DefaultChunkSize, DefaultChunkOverlap)
	}
	if !cfg.cache {
		t.Error("cache should be enabled by default")
	}
	if cfg.readinessTimeout != defaultReadinessTimeout {
		t.Errorf("readinessTimeout = %v, want %v", cfg.readinessTimeout, defaultReadinessTimeout)
	}
}

func TestOptionsApply(t *testing.T) {
	cfg := defaultClientConfig()
	opts := []Option{
		WithRedis("redis-1:6379", "redis-2:6379"),
		WithPassword("secret"),
		WithModel("custom-model", 768),
		WithChunking(400, 40),
		WithHNSW(16, 200),
		WithWorkers(2),
		WithRateLimit(5, 10),
		WithoutCache(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) != 2 || cfg.addrs[0] != "redis-1:6379" {
		t.Errorf("addrs = %v", cfg.addrs)
	}
	if cfg.password != "secret" {
		t.Errorf("password = %q", cfg.password)
	}
	if cfg.modelID != "custom-model" || cfg.dimensions != 768 {
		t.Errorf("model = %q/%d", cfg.modelID, cfg.dimensions)
	}
	if cfg.chunkSize != 400 || cfg.chunkOverlap != 40 {
		t.Errorf("chunking = %d/%d", cfg.chunkSize, cfg.chunkOverlap)
	}
	if cfg.hnswM != 16 || cfg.hnswEFConstruct != 200 {
		t.Errorf("hnsw = %d/%d", cfg.hnswM, cfg.hnswEFConstruct)
	}
	if cfg.workers != 2 {
		t.Errorf("workers = %d", cfg.workers)
	}
	if cfg.rateLimitRPS != 5 || cfg.rateLimitBurst != 10 {
		t.Errorf("rate limit = %v/%d", cfg.rateLimitRPS, cfg.rateLimitBurst)
	}
	if cfg.cache {
		t.Error("cache should be disabled")
	}
}

func TestNewRequiresRedis(t *testing.T) {
	_, err := New(WithEmbedder(staticEmbedder{}))
	if err == nil || !strings.Contains(err.Error(), "database address") {
		t.Fatalf("err = %v, want database address error", err)
	}
}

func TestNewRequiresEmbedder(t *testing.T) {
	_, err := New(WithRedis("localhost:6379"))
	if err == nil || !strings.Contains(err.Error(), "embedder required") {
		t.Fatalf("err = %v, want embedder error", err)
	}
}

type staticEmbedder struct{}

func (staticEmbedder) Embed(context.Context, string) (EmbeddingResult, error) {
	return EmbeddingResult{Embedding: []float32{1, 0, 0}, TotalTokens: 3}, nil
}

func TestEmbedderAdapter(t *testing.T) {
	adapter := &embedderAdapter{inner: staticEmbedder{}}

	got, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got.Embedding) != 3 || got.TotalTokens != 3 {
		t.Errorf("got %+v", got)
	}
}

type checkedEmbedder struct {
	staticEmbedder
	checks int
}

func (e *checkedEmbedder) HealthCheck(context.Context) error {
	e.checks++
	return nil
}

func TestWithEmbedderCarriesHealthChecker(t *testing.T) {
	e := &checkedEmbedder{}
	cfg := defaultClientConfig()
	WithEmbedder(e)(cfg)

	if cfg.embedderHealth == nil {
		t.Fatal("health checker not captured")
	}
	if err := cfg.embedderHealth.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if e.checks != 1 {
		t.Errorf("got %d checks, want 1", e.checks)
	}

	WithEmbedder(staticEmbedder{})(cfg)
	if cfg.embedderHealth != nil {
		t.Error("checker kept for a provider without a probe")
	}
}

func TestBuildOpenAIEmbedderExposesHealth(t *testing.T) {
	cfg := defaultClientConfig()
	cfg.openAIKey = "sk-test"

	embedder, health := buildOpenAIEmbedder(cfg)
	if embedder == nil {
		t.Fatal("no embedder")
	}
	if health == nil {
		t.Fatal("decorated chain has no health checker")
	}
}

type failingEmbedder struct{ err error }

func (f failingEmbedder) Embed(context.Context, string) (EmbeddingResult, error) {
	return EmbeddingResult{}, f.err
}

func TestEmbedderAdapterWrapsError(t *testing.T) {
	sentinel := errors.New("provider down")
	adapter := &embedderAdapter{inner: failingEmbedder{err: sentinel}}

	_, err := adapter.Embed(context.Background(), "hello")
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want wrapped %v", err, sentinel)
	}
}

type recordingSink struct {
	events  []Event
	flushed bool
}

func (s *recordingSink) Emit(ev Event) { s.events = append(s.events, ev) }
func (s *recordingSink) Flush()        { s.flushed = true }

func TestSinkAdapter(t *testing.T) {
	rec := &recordingSink{}
	adapter := &sinkAdapter{inner: rec}

	at := time.Now()
	adapter.Emit(domain.Event{
		Event:      domain.EventIngestionCompleted,
		FileID:     "f-1",
		Collection: "docs",
		At:         at,
		Payload:    map[string]any{"chunks": 7},
	})
	adapter.Flush()

	if len(rec.events) != 1 {
		t.Fatalf("events = %d, want 1", len(rec.events))
	}
	ev := rec.events[0]
	if ev.Event != "ingestion_completed" || ev.FileID != "f-1" || ev.Collection != "docs" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Payload["chunks"] != 7 {
		t.Errorf("payload = %v", ev.Payload)
	}
	if !rec.flushed {
		t.Error("Flush not forwarded")
	}
}
