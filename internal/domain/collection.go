package domain

import (
	"fmt"
	"strings"
)

// KeyPrefix namespaces all store keys.
const KeyPrefix = "ragcore:"

// Collection is a named, owner-scoped bucket of chunks bound to one embedding model.
// The model binding is immutable once the first chunk is inserted; changing the
// model means re-creating the collection.
type Collection struct {
	Name         string
	OwnerID      string
	ModelID      string
	Dimension    int
	ChunkSize    int
	ChunkOverlap int
	CreatedAt    int64 // unix millis
}

// NewCollection validates and constructs a collection.
func NewCollection(name, ownerID, modelID string, dimension, chunkSize, chunkOverlap int) (Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Collection{}, fmt.Errorf("%w: collection name is required", ErrInvalidArgument)
	}
	if !isValidName(name) {
		return Collection{}, fmt.Errorf("%w: collection name %q contains invalid characters", ErrInvalidArgument, name)
	}
	if ownerID == "" {
		return Collection{}, fmt.Errorf("%w: owner id is required", ErrInvalidArgument)
	}
	if modelID == "" {
		return Collection{}, fmt.Errorf("%w: embedding model id is required", ErrInvalidArgument)
	}
	if dimension <= 0 {
		return Collection{}, fmt.Errorf("%w: dimension must be positive", ErrInvalidArgument)
	}
	if chunkSize <= 0 {
		return Collection{}, fmt.Errorf("%w: chunk size must be positive", ErrInvalidArgument)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return Collection{}, fmt.Errorf("%w: overlap must satisfy 0 <= overlap < chunk size", ErrInvalidArgument)
	}
	return Collection{
		Name:         name,
		OwnerID:      ownerID,
		ModelID:      modelID,
		Dimension:    dimension,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}, nil
}

// isValidName matches [a-zA-Z0-9_-]+.
func isValidName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isAlpha && !isDigit && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

// CollectionStats summarizes the indexed contents of a collection.
type CollectionStats struct {
	ChunkCount int
	FileCount  int
	Dimension  int
	ModelID    string
}
