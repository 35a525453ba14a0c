// Package file persists file records and their ingestion status. Status
// transitions are compare-and-set so concurrent workers cannot both
// claim the same file.
package file

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/ragcore/internal/db"
	"github.com/kailas-cloud/ragcore/internal/domain"
)

// store is the consumer interface for file records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	Eval(ctx context.Context, script string, keys, args []string) (int64, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// transitionScript compares the stored status before switching it, so a
// lost race leaves the record untouched.
const transitionScript = `
local cur = redis.call('HGET', KEYS[1], 'status')
if cur == ARGV[1] then
  redis.call('HSET', KEYS[1], 'status', ARGV[2], 'error_kind', ARGV[3], 'error_msg', ARGV[4], 'updated_at', ARGV[5])
  return 1
end
return 0
`

// Repo implements the file repository.
type Repo struct {
	store store
}

// New creates a file repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create stores a new file record.
func (r *Repo) Create(ctx context.Context, f *domain.File) error {
	key := domain.FileKey(f.ID)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	if err := r.store.HSet(ctx, key, fileToHash(f)); err != nil {
		return fmt.Errorf("hset file %s: %w", f.ID, err)
	}
	return nil
}

// Get returns a file record by id.
func (r *Repo) Get(ctx context.Context, id string) (domain.File, error) {
	m, err := r.store.HGetAll(ctx, domain.FileKey(id))
	if err != nil {
		return domain.File{}, fmt.Errorf("hgetall file %s: %w", id, err)
	}
	if len(m) == 0 {
		return domain.File{}, domain.ErrNotFound
	}
	return fileFromHash(m)
}

// Update overwrites a file record.
func (r *Repo) Update(ctx context.Context, f *domain.File) error {
	if err := r.store.HSet(ctx, domain.FileKey(f.ID), fileToHash(f)); err != nil {
		return fmt.Errorf("hset file %s: %w", f.ID, err)
	}
	return nil
}

// Transition atomically moves the file from one status to another.
// Returns false without error when the stored status no longer matches
// from (another worker won the race, or the file is gone).
func (r *Repo) Transition(ctx context.Context, id string, from, to domain.FileStatus, errorKind, errorMsg string) (bool, error) {
	if !from.CanTransition(to) {
		return false, fmt.Errorf("%w: transition %s -> %s", domain.ErrInvalidArgument, from, to)
	}

	now := time.Now().UnixMilli()
	applied, err := r.store.Eval(ctx, transitionScript,
		[]string{domain.FileKey(id)},
		[]string{string(from), string(to), errorKind, errorMsg, fmt.Sprintf("%d", now)},
	)
	if err != nil {
		return false, fmt.Errorf("transition file %s: %w", id, err)
	}
	return applied == 1, nil
}

// Delete removes a file record.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := domain.FileKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del file %s: %w", id, err)
	}
	return nil
}

// List returns the owner's file records.
func (r *Repo) List(ctx context.Context, ownerID string) ([]domain.File, error) {
	keys, err := r.store.Scan(ctx, domain.FileKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan files: %w", err)
	}
	if len(keys) == 0 {
		return []domain.File{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi files: %w", err)
	}

	files := make([]domain.File, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		f, err := fileFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse file %s: %w", keys[i], err)
		}
		if f.OwnerID != ownerID {
			continue
		}
		files = append(files, f)
	}
	return files, nil
}

// DeleteByCollection removes every file record bound to a collection.
// Returns the number of records removed.
func (r *Repo) DeleteByCollection(ctx context.Context, collection string) (int, error) {
	keys, err := r.store.Scan(ctx, domain.FileKey("*"))
	if err != nil {
		return 0, fmt.Errorf("scan files: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("hgetall multi files: %w", err)
	}

	deleted := 0
	for i, m := range results {
		if len(m) == 0 || m["collection"] != collection {
			continue
		}
		if err := r.store.Del(ctx, keys[i]); err != nil {
			return deleted, fmt.Errorf("del file %s: %w", keys[i], err)
		}
		deleted++
	}
	return deleted, nil
}

// BindIngestKey records that fileID completed ingestion under this key.
func (r *Repo) BindIngestKey(ctx context.Context, ingestKey, fileID string) error {
	if err := r.store.Set(ctx, domain.IngestMapKey(ingestKey), []byte(fileID)); err != nil {
		return fmt.Errorf("bind ingest key: %w", err)
	}
	return nil
}

// LookupIngestKey returns the file that last completed ingestion under
// this key, or ErrNotFound.
func (r *Repo) LookupIngestKey(ctx context.Context, ingestKey string) (string, error) {
	data, err := r.store.Get(ctx, domain.IngestMapKey(ingestKey))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("lookup ingest key: %w", err)
	}
	return string(data), nil
}
