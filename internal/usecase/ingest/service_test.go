package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

const longText = "This is the first sentence of the test document. " +
	"Here comes another sentence with different words inside. " +
	"A third sentence keeps the chunker busy for a while longer. " +
	"The fourth sentence closes out the sample text nicely."

func testSetup(t *testing.T) (*Service, *fakeFileRepo, *mockChunkStore, *mockExtractor, *mockEmbedder, *recordingSink) {
	t.Helper()

	files := newFakeFileRepo()
	colls := &mockColls{cols: map[string]domain.Collection{
		"docs": {
			Name:         "docs",
			OwnerID:      "alice",
			ModelID:      "test-model",
			Dimension:    4,
			ChunkSize:    120,
			ChunkOverlap: 20,
		},
	}}
	chunks := &mockChunkStore{}
	extractor := &mockExtractor{text: longText}
	embedder := &mockEmbedder{dim: 4}
	sink := &recordingSink{}

	svc := New(files, colls, chunks, extractor, embedder,
		Config{Workers: 1, QueueSize: 8, BatchSize: 2}, sink, nil)
	return svc, files, chunks, extractor, embedder, sink
}

func enqueue(t *testing.T, svc *Service) domain.File {
	t.Helper()
	f, err := svc.Enqueue(context.Background(), Request{
		OwnerID:      "alice",
		Collection:   "docs",
		OriginalName: "sample.txt",
		DeclaredMIME: "text/plain",
		StorageRef:   "/tmp/sample.txt",
		ContentHash:  "abc123",
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	return f
}

func TestEnqueueCreatesPendingFile(t *testing.T) {
	svc, files, _, _, _, _ := testSetup(t)

	f := enqueue(t, svc)

	stored, err := files.Get(context.Background(), f.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != domain.StatusPending {
		t.Errorf("got status %q, want pending", stored.Status)
	}
	if stored.Collection != "docs" || stored.ContentHash != "abc123" {
		t.Errorf("unexpected record: %+v", stored)
	}
}

func TestEnqueueUnknownCollection(t *testing.T) {
	svc, _, _, _, _, _ := testSetup(t)

	_, err := svc.Enqueue(context.Background(), Request{OwnerID: "alice", Collection: "nope"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestEnqueueOwnerMismatch(t *testing.T) {
	svc, _, _, _, _, _ := testSetup(t)

	_, err := svc.Enqueue(context.Background(), Request{OwnerID: "bob", Collection: "docs"})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("got %v, want ErrPermissionDenied", err)
	}
}

func TestProcessHappyPath(t *testing.T) {
	svc, files, chunks, _, _, sink := testSetup(t)
	f := enqueue(t, svc)

	svc.process(context.Background(), f.ID)

	stored, _ := files.Get(context.Background(), f.ID)
	if stored.Status != domain.StatusCompleted {
		t.Fatalf("got status %q (%s), want completed", stored.Status, stored.ErrorMsg)
	}
	if stored.IngestKey == "" {
		t.Error("ingest key not recorded")
	}
	if chunks.totalChunks() == 0 {
		t.Error("no chunks written")
	}

	names := sink.names()
	if names[0] != domain.EventIngestionStarted {
		t.Errorf("first event %q, want ingestion_started", names[0])
	}
	if names[len(names)-1] != domain.EventIngestionCompleted {
		t.Errorf("last event %q, want ingestion_completed", names[len(names)-1])
	}
	sawBatch := false
	for _, n := range names {
		if n == domain.EventChunkBatchEmbedded {
			sawBatch = true
		}
	}
	if !sawBatch {
		t.Error("no chunk_batch_embedded event")
	}
}

func TestProcessChunksCarryProvenance(t *testing.T) {
	svc, _, chunks, _, _, _ := testSetup(t)
	f := enqueue(t, svc)

	svc.process(context.Background(), f.ID)

	if len(chunks.puts) == 0 {
		t.Fatal("no chunks written")
	}
	c := chunks.puts[0][0]
	if c.FileID != f.ID || c.OwnerID != "alice" || c.Collection != "docs" {
		t.Errorf("bad provenance: %+v", c)
	}
	if c.FileName != "sample.txt" || c.ModelID != "test-model" {
		t.Errorf("bad provenance: %+v", c)
	}
	if len(c.Vector) != 4 {
		t.Errorf("got %d dims, want 4", len(c.Vector))
	}
	if len(c.Keywords) == 0 {
		t.Error("no keywords recorded")
	}
}

func TestProcessExtractionFailure(t *testing.T) {
	svc, files, _, extractor, _, sink := testSetup(t)
	extractor.err = domain.ErrUnreadable
	f := enqueue(t, svc)

	svc.process(context.Background(), f.ID)

	stored, _ := files.Get(context.Background(), f.ID)
	if stored.Status != domain.StatusFailed {
		t.Fatalf("got status %q, want failed", stored.Status)
	}
	if stored.ErrorKind != "unreadable" {
		t.Errorf("got kind %q, want unreadable", stored.ErrorKind)
	}

	names := sink.names()
	if names[len(names)-1] != domain.EventIngestionFailed {
		t.Errorf("last event %q, want ingestion_failed", names[len(names)-1])
	}
}

func TestProcessEmbeddingFailureRollsBack(t *testing.T) {
	svc, files, chunks, _, embedder, _ := testSetup(t)
	embedder.err = domain.ErrEmbeddingUnavailable
	f := enqueue(t, svc)

	svc.process(context.Background(), f.ID)

	stored, _ := files.Get(context.Background(), f.ID)
	if stored.Status != domain.StatusFailed {
		t.Fatalf("got status %q, want failed", stored.Status)
	}
	if stored.ErrorKind != "embedding_unavailable" {
		t.Errorf("got kind %q, want embedding_unavailable", stored.ErrorKind)
	}

	// One clear before writing, one rollback after the failure.
	rollback := false
	for _, d := range chunks.deletes {
		if strings.HasSuffix(d, "/"+f.ID) {
			rollback = true
		}
	}
	if !rollback {
		t.Error("chunks not rolled back")
	}
}

func TestProcessCancelledMidEmbeddingRecordsFailure(t *testing.T) {
	files := &ctxFileRepo{newFakeFileRepo()}
	colls := &mockColls{cols: map[string]domain.Collection{
		"docs": {
			Name:         "docs",
			OwnerID:      "alice",
			ModelID:      "test-model",
			Dimension:    4,
			ChunkSize:    120,
			ChunkOverlap: 20,
		},
	}}
	chunks := &ctxChunkStore{&mockChunkStore{}}
	extractor := &mockExtractor{text: longText}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	embedder := &cancellingEmbedder{cancel: cancel}

	svc := New(files, colls, chunks, extractor, embedder,
		Config{Workers: 1, QueueSize: 8, BatchSize: 2}, nil, nil)

	f := enqueue(t, svc)
	svc.process(ctx, f.ID)

	stored, err := files.Get(context.Background(), f.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != domain.StatusFailed {
		t.Fatalf("got status %q, want failed", stored.Status)
	}
	if stored.ErrorKind != "cancelled" {
		t.Errorf("got kind %q, want cancelled", stored.ErrorKind)
	}

	// One clear before writing, one rollback after the cancellation.
	deletes := 0
	for _, d := range chunks.deletes {
		if strings.HasSuffix(d, "/"+f.ID) {
			deletes++
		}
	}
	if deletes < 2 {
		t.Errorf("got %d deletes, want clear plus rollback", deletes)
	}
}

func TestProcessClaimIsExclusive(t *testing.T) {
	svc, files, _, _, embedder, _ := testSetup(t)
	f := enqueue(t, svc)

	svc.process(context.Background(), f.ID)
	svc.process(context.Background(), f.ID)

	if embedder.calls == 0 {
		t.Fatal("file never processed")
	}
	firstCalls := embedder.calls
	svc.process(context.Background(), f.ID)
	if embedder.calls != firstCalls {
		t.Error("completed file processed again")
	}

	stored, _ := files.Get(context.Background(), f.ID)
	if stored.Status != domain.StatusCompleted {
		t.Errorf("got status %q, want completed", stored.Status)
	}
}

func TestEnqueueIdempotentSkipsCompleted(t *testing.T) {
	svc, _, _, _, embedder, _ := testSetup(t)
	f := enqueue(t, svc)
	svc.process(context.Background(), f.ID)
	callsAfterFirst := embedder.calls

	again := enqueue(t, svc)
	if again.ID != f.ID {
		t.Errorf("got new file %s, want existing %s", again.ID, f.ID)
	}
	if embedder.calls != callsAfterFirst {
		t.Error("duplicate content re-embedded")
	}
}

func TestRetryRequeuesFailedFile(t *testing.T) {
	svc, files, _, extractor, _, _ := testSetup(t)
	extractor.err = domain.ErrUnreadable
	f := enqueue(t, svc)
	svc.process(context.Background(), f.ID)

	extractor.err = nil
	retried, err := svc.Retry(context.Background(), f.ID, "alice")
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if retried.Status != domain.StatusPending {
		t.Errorf("got status %q, want pending", retried.Status)
	}

	svc.process(context.Background(), f.ID)
	stored, _ := files.Get(context.Background(), f.ID)
	if stored.Status != domain.StatusCompleted {
		t.Errorf("got status %q after retry, want completed", stored.Status)
	}
}

func TestRetryRejectsNonFailed(t *testing.T) {
	svc, _, _, _, _, _ := testSetup(t)
	f := enqueue(t, svc)

	_, err := svc.Retry(context.Background(), f.ID, "alice")
	if !errors.Is(err, domain.ErrNotRetryable) {
		t.Errorf("got %v, want ErrNotRetryable", err)
	}
}

func TestDeleteFileRemovesChunks(t *testing.T) {
	svc, files, chunks, _, _, _ := testSetup(t)
	f := enqueue(t, svc)
	svc.process(context.Background(), f.ID)

	if err := svc.DeleteFile(context.Background(), f.ID, "alice"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}

	if _, err := files.Get(context.Background(), f.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Error("file record still present")
	}
	found := false
	for _, d := range chunks.deletes {
		if d == "docs/"+f.ID {
			found = true
		}
	}
	if !found {
		t.Error("chunks not deleted")
	}
}

func TestDeleteFileOwnerMismatch(t *testing.T) {
	svc, _, _, _, _, _ := testSetup(t)
	f := enqueue(t, svc)

	err := svc.DeleteFile(context.Background(), f.ID, "bob")
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("got %v, want ErrPermissionDenied", err)
	}
}
