// Package chunker splits extracted text into ordered, sentence-aware
// chunks with configurable overlap, and annotates each chunk with
// frequency-ranked keywords.
package chunker

import (
	"fmt"
	"regexp"
	"strings"
)

// Defaults for chunk geometry.
const (
	DefaultSize             = 1000
	DefaultOverlap          = 200
	DefaultMinSentenceChars = 10
)

// Chunk is a single piece of a split text body. Ordinals are 0-based
// and dense within a body.
type Chunk struct {
	Ordinal  int
	Text     string
	Keywords []string
}

// Chunker packs sentences into chunks of at most size characters,
// seeding each new chunk with an overlap suffix of the previous one.
type Chunker struct {
	size             int
	overlap          int
	minSentenceChars int
}

// New validates geometry and returns a Chunker. Requires
// 0 <= overlap < size.
func New(size, overlap, minSentenceChars int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", size, overlap)
	}
	if minSentenceChars < 0 {
		minSentenceChars = DefaultMinSentenceChars
	}
	return &Chunker{size: size, overlap: overlap, minSentenceChars: minSentenceChars}, nil
}

// Split chunks a text body. Empty or whitespace-only input yields nil.
// Chunk texts keep their boundary whitespace, so with zero overlap they
// concatenate back to the normalized body.
func (c *Chunker) Split(text string) []Chunk {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	sentences := c.sentences(normalized)

	var chunks []Chunk
	current := ""
	var currentSentences []string

	emit := func() {
		if strings.TrimSpace(current) == "" {
			return
		}
		chunks = append(chunks, Chunk{
			Ordinal:  len(chunks),
			Text:     current,
			Keywords: Keywords(current, TopKeywords),
		})
	}

	for _, sentence := range sentences {
		if len(current)+len(sentence) > c.size && current != "" {
			emit()
			seed := c.overlapSuffix(currentSentences)
			current = seed + sentence
			currentSentences = []string{sentence}
		} else {
			current += sentence
			currentSentences = append(currentSentences, sentence)
		}
	}
	emit()

	return chunks
}

// sentences splits normalized text on terminal punctuation, gluing
// fragments shorter than minSentenceChars to the following sentence,
// then hard-splitting any sentence that alone exceeds the chunk size.
func (c *Chunker) sentences(text string) []string {
	raw := splitTerminal(text)

	glued := make([]string, 0, len(raw))
	pending := ""
	for _, s := range raw {
		s = pending + s
		pending = ""
		if len(strings.TrimSpace(s)) < c.minSentenceChars {
			pending = s
			continue
		}
		glued = append(glued, s)
	}
	if pending != "" {
		if len(glued) > 0 {
			glued[len(glued)-1] += pending
		} else if strings.TrimSpace(pending) != "" {
			glued = append(glued, pending)
		}
	}

	out := make([]string, 0, len(glued))
	for _, s := range glued {
		if len(s) > c.size {
			out = append(out, c.hardSplit(s)...)
		} else {
			out = append(out, s)
		}
	}
	return out
}

// splitTerminal breaks text after runs of '.', '!' or '?', keeping the
// punctuation with the preceding sentence. Concatenating the returned
// slices reproduces the input exactly.
func splitTerminal(text string) []string {
	var sentences []string
	var b strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		b.WriteRune(runes[i])
		if !isTerminal(runes[i]) {
			continue
		}
		for i+1 < len(runes) && isTerminal(runes[i+1]) {
			i++
			b.WriteRune(runes[i])
		}
		sentences = append(sentences, b.String())
		b.Reset()
	}
	if b.Len() > 0 {
		sentences = append(sentences, b.String())
	}
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// hardSplit cuts an oversized sentence at the last word boundary before
// the chunk size, falling back to a mid-word cut when a single word is
// longer than the chunk itself.
func (c *Chunker) hardSplit(s string) []string {
	var pieces []string
	runes := []rune(s)
	for len(runes) > c.size {
		cut := c.size
		for i := c.size; i > 0; i-- {
			if runes[i-1] == ' ' {
				cut = i
				break
			}
			if i == 1 {
				cut = c.size
			}
		}
		pieces = append(pieces, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		pieces = append(pieces, string(runes))
	}
	return pieces
}

// overlapSuffix builds the seed for the next chunk: the last one or two
// sentences of the emitted chunk, truncated from the right to at most
// the overlap length.
func (c *Chunker) overlapSuffix(sentences []string) string {
	if c.overlap == 0 || len(sentences) == 0 {
		return ""
	}

	tail := sentences
	if len(tail) > 2 {
		tail = tail[len(tail)-2:]
	}
	suffix := strings.Join(tail, "")

	runes := []rune(suffix)
	if len(runes) > c.overlap {
		suffix = string(runes[len(runes)-c.overlap:])
	}
	return suffix
}

var (
	paragraphBreakRe = regexp.MustCompile(`\n[ \t\r]*\n+`)
)

// Normalize collapses runs of whitespace to single spaces while
// preserving paragraph breaks as a single blank line.
func Normalize(text string) string {
	paragraphs := paragraphBreakRe.Split(text, -1)
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
