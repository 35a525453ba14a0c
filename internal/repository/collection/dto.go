package collection

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// collectionToHash converts a domain Collection to a map for HSET.
func collectionToHash(col domain.Collection) map[string]string {
	return map[string]string{
		"name":          col.Name,
		"owner_id":      col.OwnerID,
		"model_id":      col.ModelID,
		"dimension":     strconv.Itoa(col.Dimension),
		"chunk_size":    strconv.Itoa(col.ChunkSize),
		"chunk_overlap": strconv.Itoa(col.ChunkOverlap),
		"created_at":    strconv.FormatInt(col.CreatedAt, 10),
	}
}

// collectionFromHash hydrates a domain Collection from an HGETALL result map.
func collectionFromHash(m map[string]string) (domain.Collection, error) {
	dimension, err := strconv.Atoi(m["dimension"])
	if err != nil {
		return domain.Collection{}, fmt.Errorf("invalid dimension: %w", err)
	}
	chunkSize, err := strconv.Atoi(m["chunk_size"])
	if err != nil {
		return domain.Collection{}, fmt.Errorf("invalid chunk_size: %w", err)
	}
	chunkOverlap, err := strconv.Atoi(m["chunk_overlap"])
	if err != nil {
		return domain.Collection{}, fmt.Errorf("invalid chunk_overlap: %w", err)
	}
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domain.Collection{}, fmt.Errorf("invalid created_at: %w", err)
	}

	return domain.Collection{
		Name:         m["name"],
		OwnerID:      m["owner_id"],
		ModelID:      m["model_id"],
		Dimension:    dimension,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		CreatedAt:    createdAt,
	}, nil
}
