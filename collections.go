package ragcore

import (
	"context"
	"time"
)

// CollectionService manages collections for a single owner.
type CollectionService struct {
	client *Client
	owner  string
}

// CollectionOption overrides client-level chunking defaults for one
// collection.
type CollectionOption func(*collectionConfig)

type collectionConfig struct {
	chunkSize    int
	chunkOverlap int
}

// WithCollectionChunking sets the chunk size and overlap for the new
// collection, overriding the client defaults.
func WithCollectionChunking(size, overlap int) CollectionOption {
	return func(c *collectionConfig) {
		c.chunkSize = size
		c.chunkOverlap = overlap
	}
}

// Create creates a collection bound to the client's embedding model.
func (s *CollectionService) Create(ctx context.Context, name string, opts ...CollectionOption) (_ CollectionInfo, err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("collections.create", start, err) }()

	cfg := collectionConfig{
		chunkSize:    s.client.chunkSize,
		chunkOverlap: s.client.chunkOverlap,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	coll, err := s.client.collSvc.Create(ctx, name, s.owner, s.client.modelID, s.client.dimension, cfg.chunkSize, cfg.chunkOverlap)
	if err != nil {
		return CollectionInfo{}, err
	}
	return collectionFromDomain(coll), nil
}

// Get returns one collection by name.
func (s *CollectionService) Get(ctx context.Context, name string) (_ CollectionInfo, err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("collections.get", start, err) }()

	coll, err := s.client.collSvc.Get(ctx, name, s.owner)
	if err != nil {
		return CollectionInfo{}, err
	}
	return collectionFromDomain(coll), nil
}

// List returns all collections owned by the service's owner.
func (s *CollectionService) List(ctx context.Context) (_ []CollectionInfo, err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("collections.list", start, err) }()

	colls, err := s.client.collSvc.List(ctx, s.owner)
	if err != nil {
		return nil, err
	}
	out := make([]CollectionInfo, len(colls))
	for i, c := range colls {
		out[i] = collectionFromDomain(c)
	}
	return out, nil
}

// Delete removes a collection together with its files and chunks.
func (s *CollectionService) Delete(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("collections.delete", start, err) }()

	err = s.client.collSvc.Delete(ctx, name, s.owner)
	return err
}

// Stats reports chunk and file counts for a collection.
func (s *CollectionService) Stats(ctx context.Context, name string) (_ Stats, err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("collections.stats", start, err) }()

	stats, err := s.client.collSvc.Stats(ctx, name, s.owner)
	if err != nil {
		return Stats{}, err
	}
	return statsFromDomain(stats), nil
}
