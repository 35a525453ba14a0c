package domain

// Retrieval defaults and caps.
const (
	DefaultK        = 5
	MaxK            = 50
	DefaultAlpha    = 0.7
	DefaultMinScore = 0.1
	MaxHops         = 3
)

// RetrievalOptions tunes a single query.
type RetrievalOptions struct {
	K                  int
	Alpha              float64 // semantic weight in hybrid fusion, [0,1]
	MinScore           float64 // post-fusion score floor
	Rerank             bool
	ExpandQuery        bool
	MultiHop           int // hops >= 0, capped at MaxHops
	ContextTokenBudget int // 0 disables context assembly
}

// DefaultRetrievalOptions returns the documented defaults (rerank on).
func DefaultRetrievalOptions() RetrievalOptions {
	return RetrievalOptions{
		K:        DefaultK,
		Alpha:    DefaultAlpha,
		MinScore: DefaultMinScore,
		Rerank:   true,
	}
}

// Clamp normalizes an options struct into its legal ranges.
func (o RetrievalOptions) Clamp(kMax, maxHops int) RetrievalOptions {
	if o.K <= 0 {
		o.K = DefaultK
	}
	if kMax > 0 && o.K > kMax {
		o.K = kMax
	}
	if o.Alpha < 0 {
		o.Alpha = 0
	}
	if o.Alpha > 1 {
		o.Alpha = 1
	}
	if o.MinScore < 0 {
		o.MinScore = 0
	}
	if o.MultiHop < 0 {
		o.MultiHop = 0
	}
	if maxHops > 0 && o.MultiHop > maxHops {
		o.MultiHop = maxHops
	}
	if o.ContextTokenBudget < 0 {
		o.ContextTokenBudget = 0
	}
	return o
}

// RetrievalResponse is the outcome of a query: ranked hits and, when a token
// budget was set, an assembled context string. Degraded marks lexical-only
// results after an embedding provider failure.
type RetrievalResponse struct {
	Hits     []Hit
	Context  string
	Degraded bool
}
