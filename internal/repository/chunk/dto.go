package chunk

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/ragcore/internal/db"
	"github.com/kailas-cloud/ragcore/internal/domain"
)

func chunkToHash(c *domain.Chunk) map[string]string {
	return map[string]string{
		"owner_id":  c.OwnerID,
		"file_id":   c.FileID,
		"ordinal":   strconv.Itoa(c.Ordinal),
		"text":      c.Text,
		"keywords":  strings.Join(c.Keywords, ","),
		"model_id":  c.ModelID,
		"file_name": c.FileName,
		"__vector":  vectorToBytes(c.Vector),
	}
}

// chunkFromEntry rebuilds a chunk from a search hit. The vector is not
// loaded back.
func chunkFromEntry(collection string, e db.SearchEntry) domain.Chunk {
	ordinal, _ := strconv.Atoi(e.Fields["ordinal"])

	var keywords []string
	if kw := e.Fields["keywords"]; kw != "" {
		keywords = strings.Split(kw, ",")
	}

	return domain.Chunk{
		ID:         strings.TrimPrefix(e.Key, domain.ChunkKeyPrefix(collection)),
		FileID:     e.Fields["file_id"],
		Collection: collection,
		OwnerID:    e.Fields["owner_id"],
		Ordinal:    ordinal,
		Text:       e.Fields["text"],
		Keywords:   keywords,
		ModelID:    e.Fields["model_id"],
		FileName:   e.Fields["file_name"],
	}
}

// fileIDFromKey extracts the file id from a "fileID:ordinal" key suffix.
func fileIDFromKey(suffix string) string {
	if i := strings.LastIndexByte(suffix, ':'); i > 0 {
		return suffix[:i]
	}
	return suffix
}

// vectorToBytes serializes []float32 to the binary form the FT index
// expects (little-endian float32).
func vectorToBytes(v []float32) string {
	b := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return string(b)
}

// bytesToVector deserializes a binary string to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
