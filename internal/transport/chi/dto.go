package chi

import (
	"time"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// errorCode labels an error response for machine consumption.
type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeValidationFailed  errorCode = "validation_failed"
	codeNotFound          errorCode = "not_found"
	codeAlreadyExists     errorCode = "already_exists"
	codePermissionDenied  errorCode = "permission_denied"
	codeDimensionMismatch errorCode = "dimension_mismatch"
	codeUnsupportedFormat errorCode = "unsupported_format"
	codeQuotaExceeded     errorCode = "embedding_quota_exceeded"
	codeProviderError     errorCode = "embedding_provider_error"
	codeUnavailable       errorCode = "retrieval_unavailable"
	codeNotRetryable      errorCode = "not_retryable"
	codeUnauthorized      errorCode = "unauthorized"
	codeInternalError     errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type createCollectionRequest struct {
	Name         string `json:"name"`
	ChunkSize    *int   `json:"chunk_size,omitempty"`
	ChunkOverlap *int   `json:"chunk_overlap,omitempty"`
}

type collectionResponse struct {
	Name         string    `json:"name"`
	Model        string    `json:"model"`
	Dimensions   int       `json:"dimensions"`
	ChunkSize    int       `json:"chunk_size"`
	ChunkOverlap int       `json:"chunk_overlap"`
	CreatedAt    time.Time `json:"created_at"`
}

type collectionListResponse struct {
	Items []collectionResponse `json:"items"`
}

type statsResponse struct {
	Chunks     int    `json:"chunks"`
	Files      int    `json:"files"`
	Dimensions int    `json:"dimensions"`
	Model      string `json:"model"`
}

type ingestFileRequest struct {
	StorageRef   string `json:"storage_ref"`
	OriginalName string `json:"original_name"`
	DeclaredMIME string `json:"declared_mime,omitempty"`
	ContentHash  string `json:"content_hash"`
}

type fileResponse struct {
	ID           string    `json:"id"`
	Collection   string    `json:"collection"`
	OriginalName string    `json:"original_name"`
	DeclaredMIME string    `json:"declared_mime,omitempty"`
	Status       string    `json:"status"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	Error        string    `json:"error,omitempty"`
	Retryable    *bool     `json:"retryable,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type fileListResponse struct {
	Items []fileResponse `json:"items"`
}

type queryRequest struct {
	Query              string   `json:"query"`
	K                  *int     `json:"k,omitempty"`
	Alpha              *float64 `json:"alpha,omitempty"`
	MinScore           *float64 `json:"min_score,omitempty"`
	Rerank             *bool    `json:"rerank,omitempty"`
	ExpandQuery        *bool    `json:"expand_query,omitempty"`
	MultiHop           *int     `json:"multi_hop,omitempty"`
	ContextTokenBudget *int     `json:"context_token_budget,omitempty"`
}

type hitResponse struct {
	ID            string  `json:"id"`
	FileID        string  `json:"file_id"`
	FileName      string  `json:"file_name,omitempty"`
	Ordinal       int     `json:"ordinal"`
	Text          string  `json:"text"`
	Score         float64 `json:"score"`
	SemanticScore float64 `json:"semantic_score"`
	LexicalScore  float64 `json:"lexical_score"`
	RerankScore   float64 `json:"rerank_score,omitempty"`
	Hop           int     `json:"hop,omitempty"`
}

type queryResponse struct {
	Hits     []hitResponse `json:"hits"`
	Context  string        `json:"context,omitempty"`
	Degraded bool          `json:"degraded,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func collectionToDTO(c domain.Collection) collectionResponse {
	return collectionResponse{
		Name:         c.Name,
		Model:        c.ModelID,
		Dimensions:   c.Dimension,
		ChunkSize:    c.ChunkSize,
		ChunkOverlap: c.ChunkOverlap,
		CreatedAt:    time.UnixMilli(c.CreatedAt).UTC(),
	}
}

func statsToDTO(s domain.CollectionStats) statsResponse {
	return statsResponse{
		Chunks:     s.ChunkCount,
		Files:      s.FileCount,
		Dimensions: s.Dimension,
		Model:      s.ModelID,
	}
}

func fileToDTO(f domain.File) fileResponse {
	resp := fileResponse{
		ID:           f.ID,
		Collection:   f.Collection,
		OriginalName: f.OriginalName,
		DeclaredMIME: f.DeclaredMIME,
		Status:       string(f.Status),
		CreatedAt:    time.UnixMilli(f.CreatedAt).UTC(),
		UpdatedAt:    time.UnixMilli(f.UpdatedAt).UTC(),
	}
	if f.Status == domain.StatusFailed {
		resp.ErrorKind = f.ErrorKind
		resp.Error = f.ErrorMsg
		retryable := domain.RetryableKind(f.ErrorKind)
		resp.Retryable = &retryable
	}
	return resp
}

func hitToDTO(h domain.Hit) hitResponse {
	return hitResponse{
		ID:            h.Chunk.ID,
		FileID:        h.Chunk.FileID,
		FileName:      h.Chunk.FileName,
		Ordinal:       h.Chunk.Ordinal,
		Text:          h.Chunk.Text,
		Score:         h.Score,
		SemanticScore: h.Semantic,
		LexicalScore:  h.Lexical,
		RerankScore:   h.Rerank,
		Hop:           h.Hop,
	}
}

// optionsFromDTO overlays request fields onto the server defaults.
func optionsFromDTO(req queryRequest, base domain.RetrievalOptions) domain.RetrievalOptions {
	opts := base
	if req.K != nil {
		opts.K = *req.K
	}
	if req.Alpha != nil {
		opts.Alpha = *req.Alpha
	}
	if req.MinScore != nil {
		opts.MinScore = *req.MinScore
	}
	if req.Rerank != nil {
		opts.Rerank = *req.Rerank
	}
	if req.ExpandQuery != nil {
		opts.ExpandQuery = *req.ExpandQuery
	}
	if req.MultiHop != nil {
		opts.MultiHop = *req.MultiHop
	}
	if req.ContextTokenBudget != nil {
		opts.ContextTokenBudget = *req.ContextTokenBudget
	}
	return opts
}
