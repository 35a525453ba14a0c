package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing file or collection for the owner.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied signals an owner mismatch on a scoped resource.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidArgument signals a malformed request.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnreadable signals that a file could not be decoded.
	ErrUnreadable = errors.New("unreadable")
	// ErrUnsupportedFormat signals a MIME type with no extraction strategy.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrEmbeddingUnavailable signals exhausted retries against the embedding provider.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrModelMisconfigured signals a wrong-dimension response or missing model. Fatal.
	ErrModelMisconfigured = errors.New("model misconfigured")
	// ErrEmbeddingQuotaExceeded signals an exhausted token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding token budget exceeded")

	// ErrDimensionMismatch signals a vector whose length disagrees with the collection model.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrRetrievalUnavailable signals an unreachable vector store during a query.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrCancelled signals cooperative cancellation. Retryable.
	ErrCancelled = errors.New("cancelled")

	// ErrNotRetryable signals a retry request on a file that is not in the failed state.
	ErrNotRetryable = errors.New("file is not in a retryable state")
)

// DimensionMismatchError wraps ErrDimensionMismatch with the observed lengths.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: got %d, want %d", ErrDimensionMismatch.Error(), e.Got, e.Want)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(got, want int) error {
	return &DimensionMismatchError{Got: got, Want: want}
}

// ErrorKind maps an error to its taxonomy name for events and API responses.
// Unrecognized errors report as "internal".
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrUnreadable):
		return "unreadable"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrModelMisconfigured):
		return "model_misconfigured"
	case errors.Is(err, ErrEmbeddingUnavailable):
		return "embedding_unavailable"
	case errors.Is(err, ErrEmbeddingQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, ErrRetrievalUnavailable):
		return "retrieval_unavailable"
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	default:
		return "internal"
	}
}

// RetryableKind reports whether a failure kind may be retried by the host.
func RetryableKind(kind string) bool {
	switch kind {
	case "embedding_unavailable", "cancelled", "retrieval_unavailable", "internal":
		return true
	}
	return false
}
