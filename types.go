package ragcore

import (
	"time"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// CollectionInfo describes a collection and its model binding.
type CollectionInfo struct {
	Name         string
	Model        string
	Dimensions   int
	ChunkSize    int
	ChunkOverlap int
	CreatedAt    time.Time
}

// Stats summarizes the indexed contents of a collection.
type Stats struct {
	Chunks     int
	Files      int
	Dimensions int
	Model      string
}

// FileStatus is the ingestion state of a file.
type FileStatus string

// File status values.
const (
	StatusPending    FileStatus = FileStatus(domain.StatusPending)
	StatusProcessing FileStatus = FileStatus(domain.StatusProcessing)
	StatusCompleted  FileStatus = FileStatus(domain.StatusCompleted)
	StatusFailed     FileStatus = FileStatus(domain.StatusFailed)
)

// FileInfo describes an uploaded file and its ingestion progress.
type FileInfo struct {
	ID           string
	Collection   string
	OriginalName string
	DeclaredMIME string
	Status       FileStatus
	ErrorKind    string
	Error        string
	Retryable    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IngestRequest describes a file to ingest. StorageRef is a local path
// the ingestion workers can read.
type IngestRequest struct {
	Collection   string
	OriginalName string
	DeclaredMIME string
	StorageRef   string
	ContentHash  string
}

// QueryOptions tunes a retrieval query. The zero value selects the
// documented defaults with reranking enabled.
type QueryOptions struct {
	K                  int
	Alpha              float64
	MinScore           float64
	DisableRerank      bool
	ExpandQuery        bool
	MultiHop           int
	ContextTokenBudget int
}

// Hit is one retrieval result with its score decomposition.
type Hit struct {
	ID       string
	FileID   string
	FileName string
	Ordinal  int
	Text     string
	Score    float64
	Semantic float64
	Lexical  float64
	Rerank   float64
	Hop      int
}

// QueryResult carries ranked hits and, when a token budget was set, an
// assembled context string. Degraded marks lexical-only results after
// an embedding provider failure.
type QueryResult struct {
	Hits     []Hit
	Context  string
	Degraded bool
}

// Event is an ingestion lifecycle notification.
type Event struct {
	Event      string
	FileID     string
	Collection string
	At         time.Time
	Payload    map[string]any
}

// EventSink receives ingestion events. Implementations must not block.
type EventSink interface {
	Emit(ev Event)
	Flush()
}

func collectionFromDomain(c domain.Collection) CollectionInfo {
	return CollectionInfo{
		Name:         c.Name,
		Model:        c.ModelID,
		Dimensions:   c.Dimension,
		ChunkSize:    c.ChunkSize,
		ChunkOverlap: c.ChunkOverlap,
		CreatedAt:    time.UnixMilli(c.CreatedAt).UTC(),
	}
}

func statsFromDomain(s domain.CollectionStats) Stats {
	return Stats{
		Chunks:     s.ChunkCount,
		Files:      s.FileCount,
		Dimensions: s.Dimension,
		Model:      s.ModelID,
	}
}

func fileFromDomain(f domain.File) FileInfo {
	info := FileInfo{
		ID:           f.ID,
		Collection:   f.Collection,
		OriginalName: f.OriginalName,
		DeclaredMIME: f.DeclaredMIME,
		Status:       FileStatus(f.Status),
		CreatedAt:    time.UnixMilli(f.CreatedAt).UTC(),
		UpdatedAt:    time.UnixMilli(f.UpdatedAt).UTC(),
	}
	if f.Status == domain.StatusFailed {
		info.ErrorKind = f.ErrorKind
		info.Error = f.ErrorMsg
		info.Retryable = domain.RetryableKind(f.ErrorKind)
	}
	return info
}

func hitFromDomain(h domain.Hit) Hit {
	return Hit{
		ID:       h.Chunk.ID,
		FileID:   h.Chunk.FileID,
		FileName: h.Chunk.FileName,
		Ordinal:  h.Chunk.Ordinal,
		Text:     h.Chunk.Text,
		Score:    h.Score,
		Semantic: h.Semantic,
		Lexical:  h.Lexical,
		Rerank:   h.Rerank,
		Hop:      h.Hop,
	}
}

func queryResultFromDomain(r domain.RetrievalResponse) QueryResult {
	hits := make([]Hit, len(r.Hits))
	for i, h := range r.Hits {
		hits[i] = hitFromDomain(h)
	}
	return QueryResult{Hits: hits, Context: r.Context, Degraded: r.Degraded}
}

func (o *QueryOptions) toDomain() domain.RetrievalOptions {
	opts := domain.DefaultRetrievalOptions()
	if o == nil {
		return opts
	}
	if o.K > 0 {
		opts.K = o.K
	}
	if o.Alpha > 0 {
		opts.Alpha = o.Alpha
	}
	if o.MinScore > 0 {
		opts.MinScore = o.MinScore
	}
	opts.Rerank = !o.DisableRerank
	opts.ExpandQuery = o.ExpandQuery
	opts.MultiHop = o.MultiHop
	opts.ContextTokenBudget = o.ContextTokenBudget
	return opts
}
