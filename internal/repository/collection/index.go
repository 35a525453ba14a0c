package collection

import (
	"github.com/kailas-cloud/ragcore/internal/db"
	"github.com/kailas-cloud/ragcore/internal/domain"
)

// buildIndex defines the per-collection chunk index: HNSW cosine vector
// search, BM25 over chunk text, plus TAG/NUMERIC fields for owner and
// provenance filters.
func buildIndex(name string, dimension int, hnsw HNSWConfig) *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:     domain.CollectionIndexName(name),
		Prefixes: []string{domain.ChunkKeyPrefix(name)},
		Fields: []db.IndexField{
			{Name: "owner_id", Type: db.IndexFieldTag},
			{Name: "file_id", Type: db.IndexFieldTag},
			{Name: "ordinal", Type: db.IndexFieldNumeric},
			{Name: "text", Type: db.IndexFieldText},
			{
				Name:              "__vector",
				Alias:             "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         dimension,
				VectorDistance:    db.DistanceCosine,
				VectorM:           hnsw.M,
				VectorEFConstruct: hnsw.EFConstruct,
			},
		},
	}
}
