package chunker

import (
	"regexp"
	"sort"
	"strings"
)

// TopKeywords is the number of keywords kept per chunk.
const TopKeywords = 10

var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "have": {}, "has": {}, "had": {}, "do": {},
	"does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "must": {}, "can": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "i": {},
	"you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {},
	"me": {}, "him": {}, "her": {}, "us": {}, "them": {},
}

// IsStopWord reports whether the lowercase word is in the stop-word set.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// Keywords extracts up to top keywords from text: lowercase word tokens
// longer than two characters minus stop words, ranked by frequency.
// Ties keep first-occurrence order.
func Keywords(text string, top int) []string {
	words := Tokens(text)
	if len(words) == 0 {
		return nil
	}

	freq := make(map[string]int, len(words))
	order := make([]string, 0, len(words))
	for _, w := range words {
		if freq[w] == 0 {
			order = append(order, w)
		}
		freq[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	if len(order) > top {
		order = order[:top]
	}
	return order
}

// Tokens returns the lowercase content words of text: word tokens
// longer than two characters that are not stop words.
func Tokens(text string) []string {
	matches := wordRe.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(matches))
	for _, w := range matches {
		if len(w) <= 2 || IsStopWord(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}
