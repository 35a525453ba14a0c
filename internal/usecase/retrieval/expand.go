package retrieval

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kailas-cloud/ragcore/internal/chunker"
	"github.com/kailas-cloud/ragcore/internal/domain"
)

const (
	maxRelatedTerms = 3
	// entityMatches is how many distinct entities a candidate must share
	// with the current results to join a hop.
	entityMatches = 2
	// hopSeed is how many top results seed entity extraction per hop.
	hopSeed = 5
)

// relatedTerms derives up to maxRelatedTerms expansion terms from the
// hits of the original query: the terms that co-occur most often with
// the query terms, excluding the query terms themselves.
func relatedTerms(query string, hits []domain.Hit) []string {
	queryTerms := make(map[string]struct{})
	for _, t := range chunker.Tokens(query) {
		queryTerms[t] = struct{}{}
	}
	if len(queryTerms) == 0 || len(hits) == 0 {
		return nil
	}

	freq := make(map[string]int)
	var order []string
	for i := range hits {
		for _, t := range chunker.Tokens(hits[i].Chunk.Text) {
			if _, isQuery := queryTerms[t]; isQuery {
				continue
			}
			if freq[t] == 0 {
				order = append(order, t)
			}
			freq[t]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})
	if len(order) > maxRelatedTerms {
		order = order[:maxRelatedTerms]
	}
	return order
}

// entities collects hop seeds from a chunk: its stored keywords plus
// capitalized tokens from the text, lowercased for matching.
func entities(c *domain.Chunk) map[string]struct{} {
	out := make(map[string]struct{})
	for _, kw := range c.Keywords {
		out[strings.ToLower(kw)] = struct{}{}
	}
	for _, word := range strings.Fields(c.Text) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if len(word) <= 2 {
			continue
		}
		runes := []rune(word)
		if unicode.IsUpper(runes[0]) {
			out[strings.ToLower(word)] = struct{}{}
		}
	}
	return out
}

// expandHops appends multi-hop candidates: per hop, entities extracted
// from the current top results select pool chunks sharing at least
// entityMatches of them. Results stay deduplicated by chunk id.
func expandHops(results []domain.Hit, pool []domain.Hit, hops int) []domain.Hit {
	if hops <= 0 || len(results) == 0 {
		return results
	}

	have := make(map[string]struct{}, len(results))
	for _, h := range results {
		have[h.Chunk.ID] = struct{}{}
	}

	for hop := 1; hop <= hops; hop++ {
		seeds := results
		if len(seeds) > hopSeed {
			seeds = seeds[:hopSeed]
		}
		ents := make(map[string]struct{})
		for i := range seeds {
			for e := range entities(&seeds[i].Chunk) {
				ents[e] = struct{}{}
			}
		}
		if len(ents) == 0 {
			break
		}

		added := 0
		for _, cand := range pool {
			if _, ok := have[cand.Chunk.ID]; ok {
				continue
			}
			if countEntityMatches(cand.Chunk.Text, ents) < entityMatches {
				continue
			}
			cand.Hop = hop
			results = append(results, cand)
			have[cand.Chunk.ID] = struct{}{}
			added++
		}
		if added == 0 {
			break
		}
	}
	return results
}

func countEntityMatches(text string, ents map[string]struct{}) int {
	present := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if word != "" {
			present[word] = struct{}{}
		}
	}

	n := 0
	for e := range ents {
		if _, ok := present[e]; ok {
			n++
		}
	}
	return n
}
