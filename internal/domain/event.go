package domain

import "time"

// Event names emitted by the ingestion pipeline.
const (
	EventIngestionStarted   = "ingestion_started"
	EventIngestionCompleted = "ingestion_completed"
	EventIngestionFailed    = "ingestion_failed"
	EventChunkBatchEmbedded = "chunk_batch_embedded"
)

// Event is a structured ingestion lifecycle notification for the host.
type Event struct {
	Event      string
	FileID     string
	Collection string
	At         time.Time
	Payload    map[string]any
}

// EventSink receives ingestion events. Supplied by the host; implementations
// must not block the pipeline for long.
type EventSink interface {
	Emit(ev Event)
	// Flush drains buffered events. Called on teardown.
	Flush()
}

// NopSink discards all events.
type NopSink struct{}

// Emit implements EventSink.
func (NopSink) Emit(Event) {}

// Flush implements EventSink.
func (NopSink) Flush() {}
