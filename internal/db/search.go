package db

// KNNQuery is the input for vector similarity search.
// Prefilter is an FT query string restricting candidates before KNN
// (e.g. "@owner_id:{alice}"); empty means "*".
type KNNQuery struct {
	IndexName    string
	Prefilter    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for full-text search over a TEXT field.
type TextQuery struct {
	IndexName    string
	Field        string
	Query        string
	Prefilter    string
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
