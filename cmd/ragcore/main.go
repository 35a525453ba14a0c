package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/config"
	"github.com/kailas-cloud/ragcore/internal/db"
	dbRedis "github.com/kailas-cloud/ragcore/internal/db/redis"
	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/extract"
	logpkg "github.com/kailas-cloud/ragcore/internal/logger"
	"github.com/kailas-cloud/ragcore/internal/metrics"
	chunkrepo "github.com/kailas-cloud/ragcore/internal/repository/chunk"
	collectionrepo "github.com/kailas-cloud/ragcore/internal/repository/collection"
	"github.com/kailas-cloud/ragcore/internal/repository/embcache"
	filerepo "github.com/kailas-cloud/ragcore/internal/repository/file"
	chiTransport "github.com/kailas-cloud/ragcore/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/ragcore/internal/transport/openai"
	"github.com/kailas-cloud/ragcore/internal/version"

	collectionuc "github.com/kailas-cloud/ragcore/internal/usecase/collection"
	embeddinguc "github.com/kailas-cloud/ragcore/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/ragcore/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragcore/internal/usecase/ingest"
	retrievaluc "github.com/kailas-cloud/ragcore/internal/usecase/retrieval"
)

func main() {
	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ragcore API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIngestMetrics()

	// Single BudgetTracker shared by the embedder chain, with counters
	// persisted in the KV store.
	var budget *embeddinguc.BudgetTracker
	if cfg.Embedding.BudgetDailyTokens > 0 || cfg.Embedding.BudgetMonthlyTokens > 0 {
		action := embeddinguc.BudgetActionWarn
		if cfg.Embedding.BudgetAction == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		budget = embeddinguc.NewBudgetTracker(
			cfg.Embedding.Model,
			cfg.Embedding.BudgetDailyTokens, cfg.Embedding.BudgetMonthlyTokens,
			action, logger,
		)
		budget.WithStore(ctx, store)
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var budgetChecker embeddinguc.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	embedder, embedderHealth := buildEmbedder(cfg.Embedding, store, budgetChecker, logger)
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	collRepo := collectionrepo.New(store).WithHNSW(collectionrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	fileRepo := filerepo.New(store)
	chunkRepo := chunkrepo.New(store)
	extractor := extract.New(cfg.Extract.CSVSampleRows)

	collSvc := collectionuc.New(collRepo, chunkRepo, fileRepo, logger)
	ingestSvc := ingestuc.New(fileRepo, collRepo, chunkRepo, extractor, embedder,
		ingestuc.Config{
			Workers:          cfg.Ingest.Workers,
			QueueSize:        cfg.Ingest.QueueSize,
			BatchSize:        cfg.Embedding.BatchSize,
			BatchCharBudget:  cfg.Embedding.BatchCharBudget,
			MinSentenceChars: cfg.Chunk.MinSentenceChars,
		},
		newZapSink(logger), logger)
	retrievalSvc := retrievaluc.New(chunkRepo, collRepo, embedder,
		retrievaluc.Config{
			KMax:       cfg.Retrieval.KMax,
			MaxHops:    cfg.Retrieval.MaxHops,
			TokenChars: cfg.Retrieval.TokenChars,
			Deadline:   time.Duration(cfg.Retrieval.DeadlineMS) * time.Millisecond,
		}, logger)
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedderHealth))

	retrievalDefaults := domain.DefaultRetrievalOptions()
	if cfg.Retrieval.KDefault > 0 {
		retrievalDefaults.K = cfg.Retrieval.KDefault
	}
	if cfg.Retrieval.Alpha > 0 {
		retrievalDefaults.Alpha = cfg.Retrieval.Alpha
	}
	if cfg.Retrieval.MinScore > 0 {
		retrievalDefaults.MinScore = cfg.Retrieval.MinScore
	}

	server := chiTransport.NewServer(collSvc, ingestSvc, retrievalSvc, healthSvc,
		chiTransport.Defaults{
			ModelID:      cfg.Embedding.Model,
			Dimension:    cfg.Embedding.Dimensions,
			ChunkSize:    cfg.Chunk.Size,
			ChunkOverlap: cfg.Chunk.Overlap,
			Retrieval:    retrievalDefaults,
		}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Router())

	// Ingestion worker pool runs until shutdown.
	workerCtx, stopWorkers := context.WithCancel(ctx)
	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		if err := ingestSvc.Run(workerCtx); err != nil && workerCtx.Err() == nil {
			logger.Error("Ingestion workers stopped", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	stopWorkers()
	select {
	case <-workersDone:
	case <-shutdownCtx.Done():
		logger.Warn("Ingestion workers did not stop in time")
	}

	logger.Info("Server stopped gracefully")
}

// embedderChain is the decorated embedding surface the ingestion and
// retrieval services consume.
type embedderChain interface {
	domain.Embedder
	domain.BatchEmbedder
}

// buildEmbedder assembles the decorator chain:
// OpenAI -> Cached -> Deadline -> Retry -> RateLimited -> Instrumented.
// The cache sits inside retry so a retried call still hits the cache;
// the deadline bounds each attempt, not the whole retry loop.
// The base provider comes back separately: only it can answer a health
// probe, and the decorators would hide that.
func buildEmbedder(
	cfg config.EmbeddingConfig,
	store db.Store,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) (embedderChain, domain.HealthChecker) {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Logger:     logger,
	})

	var embedder domain.Embedder = embcache.New(base, store, cfg.Model, metrics.EmbeddingCacheTotal, logger)

	embedder = embeddinguc.NewDeadlineEmbedder(embedder, time.Duration(cfg.DeadlineMS)*time.Millisecond)
	embedder = embeddinguc.NewRetryEmbedder(embedder, cfg.Model,
		time.Duration(cfg.RetryBaseMS)*time.Millisecond, 0, cfg.Retries, logger)
	embedder = embeddinguc.NewRateLimitedEmbedder(embedder, cfg.RateLimitRPS, cfg.RateLimitBurst)
	return embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Model, budget, logger), base
}

// embeddingHealthChecker adapts the embedding provider's own health
// probe to the health service contract.
type embeddingHealthChecker struct {
	checker domain.HealthChecker
}

func newEmbeddingHealthChecker(checker domain.HealthChecker) *embeddingHealthChecker {
	return &embeddingHealthChecker{checker: checker}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if err := h.checker.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}

// zapSink logs ingestion lifecycle events as structured log lines. Hosts
// embedding the library can supply their own sink instead.
type zapSink struct {
	logger *zap.Logger
}

func newZapSink(logger *zap.Logger) *zapSink {
	return &zapSink{logger: logger.Named("ingest_events")}
}

func (s *zapSink) Emit(ev domain.Event) {
	s.logger.Info(ev.Event,
		zap.String("file_id", ev.FileID),
		zap.String("collection", ev.Collection),
		zap.Time("at", ev.At),
		zap.Any("payload", ev.Payload),
	)
}

func (s *zapSink) Flush() {
	_ = s.logger.Sync()
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
