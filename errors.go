package ragcore

import "github.com/kailas-cloud/ragcore/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrPermissionDenied       = domain.ErrPermissionDenied
	ErrAlreadyExists          = domain.ErrAlreadyExists
	ErrInvalidArgument        = domain.ErrInvalidArgument
	ErrUnreadable             = domain.ErrUnreadable
	ErrUnsupportedFormat      = domain.ErrUnsupportedFormat
	ErrEmbeddingUnavailable   = domain.ErrEmbeddingUnavailable
	ErrModelMisconfigured     = domain.ErrModelMisconfigured
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrDimensionMismatch      = domain.ErrDimensionMismatch
	ErrRetrievalUnavailable   = domain.ErrRetrievalUnavailable
	ErrNotRetryable           = domain.ErrNotRetryable
)
