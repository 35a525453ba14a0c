package domain

import "strconv"

// Store key layout:
//
//	ragcore:collection:{name}        collection metadata hash
//	ragcore:{name}:idx               FT index name for a collection
//	ragcore:{name}:chunk:{file}:{n}  chunk hash
//	ragcore:file:{id}                file record hash
//	ragcore:ingest:{key}             ingest-key -> file id mapping

// CollectionMetaKey returns the metadata hash key for a collection.
func CollectionMetaKey(name string) string {
	return KeyPrefix + "collection:" + name
}

// CollectionIndexName returns the FT index name for a collection.
func CollectionIndexName(name string) string {
	return KeyPrefix + name + ":idx"
}

// ChunkKeyPrefix returns the key prefix shared by all chunk hashes of a
// collection. The collection FT index is defined over this prefix.
func ChunkKeyPrefix(collection string) string {
	return KeyPrefix + collection + ":chunk:"
}

// ChunkKey returns the hash key for one chunk. Deterministic per
// (file, ordinal) so a duplicate put replaces the existing chunk.
func ChunkKey(collection, fileID string, ordinal int) string {
	return ChunkKeyPrefix(collection) + fileID + ":" + strconv.Itoa(ordinal)
}

// FileKey returns the hash key for a file record.
func FileKey(id string) string {
	return KeyPrefix + "file:" + id
}

// IngestMapKey returns the key mapping an ingest key to the file that
// last completed with it.
func IngestMapKey(ingestKey string) string {
	return KeyPrefix + "ingest:" + ingestKey
}
