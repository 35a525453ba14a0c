package domain

// FileStatus is the ingestion state of a file.
type FileStatus string

const (
	// StatusPending means the file is queued for ingestion.
	StatusPending FileStatus = "pending"
	// StatusProcessing means exactly one worker holds the file.
	StatusProcessing FileStatus = "processing"
	// StatusCompleted means all chunks are indexed.
	StatusCompleted FileStatus = "completed"
	// StatusFailed means ingestion failed; the error field says why.
	StatusFailed FileStatus = "failed"
)

// CanTransition reports whether from -> to is a legal status transition.
// Status is monotonic except failed -> pending on explicit retry.
func (s FileStatus) CanTransition(to FileStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	case StatusFailed:
		return to == StatusPending
	}
	return false
}

// File is an uploaded document tracked through the ingestion state machine.
// Byte content is reference-counted by ContentHash; the record is owner-scoped.
type File struct {
	ID           string
	OwnerID      string
	Collection   string
	OriginalName string
	DeclaredMIME string
	StorageRef   string
	ContentHash  string
	Status       FileStatus
	ErrorKind    string
	ErrorMsg     string
	// IngestKey identifies the last successful ingestion parameters
	// (content hash + collection + chunking + model). Matching keys make
	// re-ingestion a no-op.
	IngestKey string
	CreatedAt int64 // unix millis
	UpdatedAt int64
}
