package ragcore

import (
	"context"
	"time"

	"github.com/kailas-cloud/ragcore/internal/usecase/ingest"
)

// FileService manages file ingestion for a single owner.
type FileService struct {
	client *Client
	owner  string
}

// Ingest registers a file and queues it for background processing.
// Resubmitting the same content hash into the same collection returns
// the already completed file instead of queueing again.
func (s *FileService) Ingest(ctx context.Context, req IngestRequest) (_ FileInfo, err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("files.ingest", start, err) }()

	f, err := s.client.ingestSvc.Enqueue(ctx, ingest.Request{
		OwnerID:      s.owner,
		Collection:   req.Collection,
		OriginalName: req.OriginalName,
		DeclaredMIME: req.DeclaredMIME,
		StorageRef:   req.StorageRef,
		ContentHash:  req.ContentHash,
	})
	if err != nil {
		return FileInfo{}, err
	}
	return fileFromDomain(f), nil
}

// Get returns one file by ID.
func (s *FileService) Get(ctx context.Context, fileID string) (_ FileInfo, err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("files.get", start, err) }()

	f, err := s.client.ingestSvc.GetFile(ctx, fileID, s.owner)
	if err != nil {
		return FileInfo{}, err
	}
	return fileFromDomain(f), nil
}

// List returns all files owned by the service's owner.
func (s *FileService) List(ctx context.Context) (_ []FileInfo, err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("files.list", start, err) }()

	files, err := s.client.ingestSvc.ListFiles(ctx, s.owner)
	if err != nil {
		return nil, err
	}
	out := make([]FileInfo, len(files))
	for i, f := range files {
		out[i] = fileFromDomain(f)
	}
	return out, nil
}

// Delete removes a file and its indexed chunks.
func (s *FileService) Delete(ctx context.Context, fileID string) (err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("files.delete", start, err) }()

	err = s.client.ingestSvc.DeleteFile(ctx, fileID, s.owner)
	return err
}

// Retry requeues a failed file whose error kind is retryable.
func (s *FileService) Retry(ctx context.Context, fileID string) (_ FileInfo, err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("files.retry", start, err) }()

	f, err := s.client.ingestSvc.Retry(ctx, fileID, s.owner)
	if err != nil {
		return FileInfo{}, err
	}
	return fileFromDomain(f), nil
}
