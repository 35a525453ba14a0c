package retrieval

import (
	"testing"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

func TestRelatedTerms(t *testing.T) {
	hits := []domain.Hit{
		{Chunk: domain.Chunk{ID: "1", Text: "replication uses quorum writes and consensus rounds with consensus leaders"}},
		{Chunk: domain.Chunk{ID: "2", Text: "consensus requires quorum acknowledgement from follower nodes"}},
	}

	terms := relatedTerms("replication quorum", hits)
	if len(terms) == 0 || len(terms) > maxRelatedTerms {
		t.Fatalf("got %d terms, want 1..%d", len(terms), maxRelatedTerms)
	}
	if terms[0] != "consensus" {
		t.Errorf("got top term %q, want consensus", terms[0])
	}
	for _, term := range terms {
		if term == "replication" || term == "quorum" {
			t.Errorf("query term %q leaked into expansion", term)
		}
	}
}

func TestRelatedTermsEmpty(t *testing.T) {
	if got := relatedTerms("the a of", []domain.Hit{{Chunk: domain.Chunk{Text: "something"}}}); got != nil {
		t.Errorf("got %v for stop-word query, want nil", got)
	}
	if got := relatedTerms("query", nil); got != nil {
		t.Errorf("got %v for no hits, want nil", got)
	}
}

func TestEntities(t *testing.T) {
	c := domain.Chunk{
		Text:     "The Raft protocol was described by Diego Ongaro. raft is simple.",
		Keywords: []string{"protocol", "consensus"},
	}

	ents := entities(&c)

	for _, want := range []string{"protocol", "consensus", "raft", "diego", "ongaro"} {
		if _, ok := ents[want]; !ok {
			t.Errorf("missing entity %q in %v", want, ents)
		}
	}
	// "The" is capitalized but kept; lowercase "is" and "simple" are not entities.
	if _, ok := ents["simple"]; ok {
		t.Error("lowercase word extracted as entity")
	}
}

func TestExpandHops(t *testing.T) {
	results := []domain.Hit{{
		Chunk: domain.Chunk{
			ID:       "seed",
			Text:     "The Paxos protocol coordinates replicas.",
			Keywords: []string{"paxos", "protocol"},
		},
		Score: 0.9,
	}}
	pool := []domain.Hit{
		results[0],
		{Chunk: domain.Chunk{ID: "linked", Text: "paxos is a consensus protocol for distributed state"}, Score: 0.2},
		{Chunk: domain.Chunk{ID: "unrelated", Text: "cooking pasta requires salted water"}, Score: 0.3},
	}

	out := expandHops(results, pool, 1)

	if len(out) != 2 {
		t.Fatalf("got %v, want seed plus linked", ids(out))
	}
	if out[1].Chunk.ID != "linked" {
		t.Errorf("got %q appended, want linked", out[1].Chunk.ID)
	}
	if out[1].Hop != 1 {
		t.Errorf("got hop %d, want 1", out[1].Hop)
	}
}

func TestExpandHopsNoDuplicates(t *testing.T) {
	results := []domain.Hit{{
		Chunk: domain.Chunk{ID: "seed", Text: "Paxos protocol here", Keywords: []string{"paxos", "protocol"}},
	}}
	pool := []domain.Hit{
		{Chunk: domain.Chunk{ID: "linked", Text: "paxos consensus protocol explained at length"}},
	}

	out := expandHops(results, pool, 3)

	seen := map[string]int{}
	for _, h := range out {
		seen[h.Chunk.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("chunk %s appended %d times", id, n)
		}
	}
}

func TestExpandHopsZero(t *testing.T) {
	results := []domain.Hit{{Chunk: domain.Chunk{ID: "a", Text: "Alpha Beta words"}}}
	pool := []domain.Hit{{Chunk: domain.Chunk{ID: "b", Text: "alpha beta gamma"}}}

	out := expandHops(results, pool, 0)
	if len(out) != 1 {
		t.Errorf("got %d results, want untouched 1", len(out))
	}
}
