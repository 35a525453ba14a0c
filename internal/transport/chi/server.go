package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/logger"
	collectionuc "github.com/kailas-cloud/ragcore/internal/usecase/collection"
	healthuc "github.com/kailas-cloud/ragcore/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragcore/internal/usecase/ingest"
	retrievaluc "github.com/kailas-cloud/ragcore/internal/usecase/retrieval"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Defaults carries server-side parameters applied when a request omits them.
// The embedding model is never client-chosen; collections bind to the model
// the server is configured with.
type Defaults struct {
	ModelID      string
	Dimension    int
	ChunkSize    int
	ChunkOverlap int
	Retrieval    domain.RetrievalOptions
}

// Server exposes the knowledge base over HTTP.
type Server struct {
	collections   *collectionuc.Service
	ingest        *ingestuc.Service
	retrieval     *retrievaluc.Service
	health        *healthuc.Service
	defaults      Defaults
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	collections *collectionuc.Service,
	ingest *ingestuc.Service,
	retrieval *retrievaluc.Service,
	health *healthuc.Service,
	defaults Defaults,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		collections: collections,
		ingest:      ingest,
		retrieval:   retrieval,
		health:      health,
		defaults:    defaults,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrPermissionDenied, http.StatusForbidden, codePermissionDenied),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadRequest, codeDimensionMismatch),
		sentinelHandler(domain.ErrUnsupportedFormat, http.StatusBadRequest, codeUnsupportedFormat),
		sentinelHandler(domain.ErrNotRetryable, http.StatusConflict, codeNotRetryable),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, codeQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrRetrievalUnavailable, http.StatusServiceUnavailable, codeUnavailable),
	}
	return s
}

// Router builds the HTTP route table. Cross-cutting middleware (auth,
// request logging, metrics) is composed by the caller.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.healthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/collections", func(r chi.Router) {
		r.Post("/", s.createCollection)
		r.Get("/", s.listCollections)
		r.Route("/{collection}", func(r chi.Router) {
			r.Get("/", s.getCollection)
			r.Delete("/", s.deleteCollection)
			r.Get("/stats", s.collectionStats)
			r.Post("/files", s.ingestFile)
			r.Post("/query", s.query)
		})
	})

	r.Route("/files", func(r chi.Router) {
		r.Get("/", s.listFiles)
		r.Route("/{file}", func(r chi.Router) {
			r.Get("/", s.getFile)
			r.Delete("/", s.deleteFile)
			r.Post("/retry", s.retryFile)
		})
	})

	return r
}

// createCollection handles POST /collections.
func (s *Server) createCollection(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	size := s.defaults.ChunkSize
	if req.ChunkSize != nil {
		size = *req.ChunkSize
	}
	overlap := s.defaults.ChunkOverlap
	if req.ChunkOverlap != nil {
		overlap = *req.ChunkOverlap
	}

	col, err := s.collections.Create(r.Context(), req.Name, owner,
		s.defaults.ModelID, s.defaults.Dimension, size, overlap)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, collectionToDTO(col))
}

// listCollections handles GET /collections.
func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	cols, err := s.collections.List(r.Context(), owner)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]collectionResponse, len(cols))
	for i, c := range cols {
		items[i] = collectionToDTO(c)
	}
	writeJSON(w, http.StatusOK, collectionListResponse{Items: items})
}

// getCollection handles GET /collections/{collection}.
func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	col, err := s.collections.Get(r.Context(), chi.URLParam(r, "collection"), owner)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, collectionToDTO(col))
}

// deleteCollection handles DELETE /collections/{collection}.
func (s *Server) deleteCollection(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	if err := s.collections.Delete(r.Context(), chi.URLParam(r, "collection"), owner); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// collectionStats handles GET /collections/{collection}/stats.
func (s *Server) collectionStats(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	stats, err := s.collections.Stats(r.Context(), chi.URLParam(r, "collection"), owner)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statsToDTO(stats))
}

// ingestFile handles POST /collections/{collection}/files. Ingestion is
// asynchronous; the response reports the queued file record.
func (s *Server) ingestFile(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	var req ingestFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.StorageRef == "" || req.OriginalName == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "storage_ref and original_name are required")
		return
	}

	f, err := s.ingest.Enqueue(r.Context(), ingestuc.Request{
		OwnerID:      owner,
		Collection:   chi.URLParam(r, "collection"),
		OriginalName: req.OriginalName,
		DeclaredMIME: req.DeclaredMIME,
		StorageRef:   req.StorageRef,
		ContentHash:  req.ContentHash,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusAccepted
	if f.Status == domain.StatusCompleted {
		// Idempotent re-submission of already ingested content.
		status = http.StatusOK
	}
	writeJSON(w, status, fileToDTO(f))
}

// listFiles handles GET /files.
func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	files, err := s.ingest.ListFiles(r.Context(), owner)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]fileResponse, len(files))
	for i, f := range files {
		items[i] = fileToDTO(f)
	}
	writeJSON(w, http.StatusOK, fileListResponse{Items: items})
}

// getFile handles GET /files/{file}.
func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	f, err := s.ingest.GetFile(r.Context(), chi.URLParam(r, "file"), owner)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fileToDTO(f))
}

// deleteFile handles DELETE /files/{file}.
func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	if err := s.ingest.DeleteFile(r.Context(), chi.URLParam(r, "file"), owner); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// retryFile handles POST /files/{file}/retry.
func (s *Server) retryFile(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	f, err := s.ingest.Retry(r.Context(), chi.URLParam(r, "file"), owner)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, fileToDTO(f))
}

// query handles POST /collections/{collection}/query.
func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	opts := optionsFromDTO(req, s.defaults.Retrieval)
	resp, err := s.retrieval.Retrieve(r.Context(), owner, chi.URLParam(r, "collection"), req.Query, opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	hits := make([]hitResponse, len(resp.Hits))
	for i, h := range resp.Hits {
		hits[i] = hitToDTO(h)
	}
	writeJSON(w, http.StatusOK, queryResponse{
		Hits:     hits,
		Context:  resp.Context,
		Degraded: resp.Degraded,
	})
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// requireOwner extracts the X-Owner-ID scoping header or rejects the request.
func (s *Server) requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := r.Header.Get("X-Owner-ID")
	if owner == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "X-Owner-ID header is required")
		return "", false
	}
	return owner, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrPermissionDenied,
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrInvalidArgument,
		domain.ErrDimensionMismatch,
		domain.ErrUnsupportedFormat,
		domain.ErrNotRetryable,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingUnavailable,
		domain.ErrRetrievalUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	// The request logger carries the request_id the middleware attached.
	log := logger.FromContext(r.Context(), s.logger)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
