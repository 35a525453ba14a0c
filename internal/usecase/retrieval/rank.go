package retrieval

import (
	"math"
	"sort"
	"strings"

	"github.com/kailas-cloud/ragcore/internal/chunker"
	"github.com/kailas-cloud/ragcore/internal/domain"
)

// Rerank weights and the exact-phrase bonus applied during fusion.
const (
	weightCoverage  = 0.4
	weightRelevance = 0.3
	weightQuality   = 0.2
	weightFusion    = 0.1

	phraseBoost = 0.3

	qualityFullWords     = 200
	qualityFullSentences = 10
)

// normalizeScores rescales hit scores to [0, 1] by min-max. A uniform
// list maps to all ones.
func normalizeScores(hits []domain.Hit) map[string]float64 {
	if len(hits) == 0 {
		return nil
	}

	lo, hi := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		if h.Score < lo {
			lo = h.Score
		}
		if h.Score > hi {
			hi = h.Score
		}
	}

	norm := make(map[string]float64, len(hits))
	for _, h := range hits {
		if hi == lo {
			norm[h.Chunk.ID] = 1
			continue
		}
		norm[h.Chunk.ID] = (h.Score - lo) / (hi - lo)
	}
	return norm
}

// fuse merges semantic and lexical hit sets into one ranked list.
// score = alpha*sem + (1-alpha)*lex, each component min-max normalized;
// a missing component counts as 0. Chunks containing the query verbatim
// get a fixed bonus.
func fuse(semantic, lexical []domain.Hit, query string, alpha float64) []domain.Hit {
	semNorm := normalizeScores(semantic)
	lexNorm := normalizeScores(lexical)

	merged := make(map[string]domain.Hit, len(semantic)+len(lexical))
	for _, h := range semantic {
		h.Semantic = semNorm[h.Chunk.ID]
		h.Lexical = 0
		merged[h.Chunk.ID] = h
	}
	for _, h := range lexical {
		if existing, ok := merged[h.Chunk.ID]; ok {
			existing.Lexical = lexNorm[h.Chunk.ID]
			merged[h.Chunk.ID] = existing
			continue
		}
		h.Semantic = 0
		h.Lexical = lexNorm[h.Chunk.ID]
		merged[h.Chunk.ID] = h
	}

	loweredQuery := strings.ToLower(strings.TrimSpace(query))
	fused := make([]domain.Hit, 0, len(merged))
	for _, h := range merged {
		h.Score = alpha*h.Semantic + (1-alpha)*h.Lexical
		if loweredQuery != "" && strings.Contains(strings.ToLower(h.Chunk.Text), loweredQuery) {
			h.Score = min(h.Score+phraseBoost, 1)
		}
		fused = append(fused, h)
	}

	sortHits(fused, func(h domain.Hit) float64 { return h.Score })
	return fused
}

// rerank reorders candidates by a blend of query coverage, TF-IDF
// relevance over the candidate set, document quality, and the fusion
// score. The fusion score itself is preserved on each hit.
func rerank(hits []domain.Hit, query string) []domain.Hit {
	if len(hits) == 0 {
		return hits
	}

	queryTerms := chunker.Tokens(query)
	idf := inverseDocFrequency(hits)
	queryVec := tfidfVector(queryTerms, idf)

	for i := range hits {
		terms := chunker.Tokens(hits[i].Chunk.Text)
		coverage := queryCoverage(queryTerms, terms)
		relevance := cosine(queryVec, tfidfVector(terms, idf))
		quality := documentQuality(hits[i].Chunk.Text, terms)

		hits[i].Rerank = weightCoverage*coverage +
			weightRelevance*relevance +
			weightQuality*quality +
			weightFusion*hits[i].Score
	}

	sortHits(hits, func(h domain.Hit) float64 { return h.Rerank })
	return hits
}

// queryCoverage is the fraction of distinct query terms present in the chunk.
func queryCoverage(queryTerms, chunkTerms []string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}

	present := make(map[string]struct{}, len(chunkTerms))
	for _, t := range chunkTerms {
		present[t] = struct{}{}
	}

	seen := make(map[string]struct{}, len(queryTerms))
	matched, distinct := 0, 0
	for _, t := range queryTerms {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		distinct++
		if _, ok := present[t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(distinct)
}

// documentQuality scores a chunk by length, sentence count, and the
// share of content-bearing words, each clamped to 1.
func documentQuality(text string, terms []string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	lengthScore := math.Min(1, float64(len(words))/qualityFullWords)
	sentenceScore := math.Min(1, float64(sentenceCount(text))/qualityFullSentences)
	contentRatio := float64(len(terms)) / float64(len(words))
	if contentRatio > 1 {
		contentRatio = 1
	}

	return (lengthScore + sentenceScore + contentRatio) / 3
}

func sentenceCount(text string) int {
	n := 0
	inRun := false
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if !inRun {
				n++
			}
			inRun = true
			continue
		}
		inRun = false
	}
	if n == 0 && strings.TrimSpace(text) != "" {
		return 1
	}
	return n
}

// inverseDocFrequency computes idf over the candidate set.
func inverseDocFrequency(hits []domain.Hit) map[string]float64 {
	df := make(map[string]int)
	for i := range hits {
		seen := make(map[string]struct{})
		for _, t := range chunker.Tokens(hits[i].Chunk.Text) {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	n := float64(len(hits))
	idf := make(map[string]float64, len(df))
	for t, d := range df {
		idf[t] = math.Log((n+1)/float64(d+1)) + 1
	}
	return idf
}

// tfidfVector builds a sparse tf-idf vector. Terms absent from idf get
// the out-of-corpus weight log(n+1)+1 via a zero df; they only matter
// for the query side.
func tfidfVector(terms []string, idf map[string]float64) map[string]float64 {
	tf := make(map[string]int, len(terms))
	for _, t := range terms {
		tf[t]++
	}

	vec := make(map[string]float64, len(tf))
	for t, c := range tf {
		w, ok := idf[t]
		if !ok {
			w = 1
		}
		vec[t] = float64(c) * w
	}
	return vec
}

func cosine(a, b map[string]float64) float64 {
	var dot, na, nb float64
	for t, w := range a {
		na += w * w
		if bw, ok := b[t]; ok {
			dot += w * bw
		}
	}
	for _, w := range b {
		nb += w * w
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// sortHits orders descending by key, breaking ties by chunk id for
// stable output.
func sortHits(hits []domain.Hit, key func(domain.Hit) float64) {
	sort.SliceStable(hits, func(i, j int) bool {
		ki, kj := key(hits[i]), key(hits[j])
		if ki != kj {
			return ki > kj
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
}
