package file

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

func fileToHash(f *domain.File) map[string]string {
	return map[string]string{
		"id":            f.ID,
		"owner_id":      f.OwnerID,
		"collection":    f.Collection,
		"original_name": f.OriginalName,
		"declared_mime": f.DeclaredMIME,
		"storage_ref":   f.StorageRef,
		"content_hash":  f.ContentHash,
		"status":        string(f.Status),
		"error_kind":    f.ErrorKind,
		"error_msg":     f.ErrorMsg,
		"ingest_key":    f.IngestKey,
		"created_at":    strconv.FormatInt(f.CreatedAt, 10),
		"updated_at":    strconv.FormatInt(f.UpdatedAt, 10),
	}
}

func fileFromHash(m map[string]string) (domain.File, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domain.File{}, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := strconv.ParseInt(m["updated_at"], 10, 64)
	if err != nil {
		return domain.File{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return domain.File{
		ID:           m["id"],
		OwnerID:      m["owner_id"],
		Collection:   m["collection"],
		OriginalName: m["original_name"],
		DeclaredMIME: m["declared_mime"],
		StorageRef:   m["storage_ref"],
		ContentHash:  m["content_hash"],
		Status:       domain.FileStatus(m["status"]),
		ErrorKind:    m["error_kind"],
		ErrorMsg:     m["error_msg"],
		IngestKey:    m["ingest_key"],
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}
