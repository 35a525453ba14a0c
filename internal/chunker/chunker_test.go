package chunker

import (
	"reflect"
	"strings"
	"testing"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{name: "valid", size: 1000, overlap: 200, wantErr: false},
		{name: "zero overlap", size: 100, overlap: 0, wantErr: false},
		{name: "zero size", size: 0, overlap: 0, wantErr: true},
		{name: "negative size", size: -5, overlap: 0, wantErr: true},
		{name: "overlap equals size", size: 100, overlap: 100, wantErr: true},
		{name: "overlap exceeds size", size: 100, overlap: 150, wantErr: true},
		{name: "negative overlap", size: 100, overlap: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.size, tt.overlap, DefaultMinSentenceChars)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%d, %d) error = %v, wantErr %v", tt.size, tt.overlap, err, tt.wantErr)
			}
		})
	}
}

func TestSplitEmpty(t *testing.T) {
	c, err := New(DefaultSize, DefaultOverlap, DefaultMinSentenceChars)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, text := range []string{"", "   ", "\n\n\t  \n"} {
		if got := c.Split(text); got != nil {
			t.Errorf("Split(%q) = %v, want nil", text, got)
		}
	}
}

func TestSplitSingleChunk(t *testing.T) {
	c, err := New(DefaultSize, DefaultOverlap, DefaultMinSentenceChars)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := c.Split("A modest body of text. It fits in one chunk.")
	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}
	if got[0].Ordinal != 0 {
		t.Errorf("ordinal = %d, want 0", got[0].Ordinal)
	}
	if got[0].Text != "A modest body of text. It fits in one chunk." {
		t.Errorf("unexpected text: %q", got[0].Text)
	}
}

func TestSplitPackingAndOverlap(t *testing.T) {
	c, err := New(50, 22, DefaultMinSentenceChars)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text := "First sentence here. Second sentence here. Third sentence goes here."
	got := c.Split(text)

	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
	if got[0].Text != "First sentence here. Second sentence here." {
		t.Errorf("chunk 0 = %q", got[0].Text)
	}
	// the new chunk is seeded with the previous chunk's last sentence,
	// boundary space included
	if !strings.HasPrefix(got[1].Text, " Second sentence here.") {
		t.Errorf("chunk 1 missing overlap seed: %q", got[1].Text)
	}
	if !strings.Contains(got[1].Text, "Third sentence goes here.") {
		t.Errorf("chunk 1 missing own sentence: %q", got[1].Text)
	}

	for i, ch := range got {
		if ch.Ordinal != i {
			t.Errorf("chunk %d ordinal = %d", i, ch.Ordinal)
		}
		if len(ch.Text) > 50 {
			t.Errorf("chunk %d length %d exceeds size", i, len(ch.Text))
		}
		if strings.TrimSpace(ch.Text) == "" {
			t.Errorf("chunk %d is blank", i)
		}
	}
}

func TestSplitCoverage(t *testing.T) {
	c, err := New(80, 20, DefaultMinSentenceChars)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sentences := []string{
		"The quick brown fox jumps over the lazy dog.",
		"Pack my box with five dozen liquor jugs.",
		"How vexingly quick daft zebras jump.",
		"Sphinx of black quartz judge my vow.",
	}
	text := strings.Join(sentences, " ")

	got := c.Split(text)
	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}

	all := ""
	for _, ch := range got {
		all += ch.Text + " "
	}
	for _, s := range sentences {
		if !strings.Contains(all, s) {
			t.Errorf("sentence %q not covered by any chunk", s)
		}
	}
}

func TestSplitReconstructsBody(t *testing.T) {
	c, err := New(60, 0, DefaultMinSentenceChars)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text := "First sentence here. Second sentence here. " +
		"Third sentence goes here. The fourth one rounds the body out."
	normalized := Normalize(text)

	got := c.Split(text)
	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}

	var b strings.Builder
	for _, ch := range got {
		b.WriteString(ch.Text)
	}
	if b.String() != normalized {
		t.Errorf("chunks reconstruct %q, want %q", b.String(), normalized)
	}
	if !strings.Contains(b.String(), "here. Second") {
		t.Error("sentence boundary space lost")
	}
}

func TestSplitGluesShortFragments(t *testing.T) {
	c, err := New(DefaultSize, DefaultOverlap, DefaultMinSentenceChars)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := c.Split("Hi. Ok. This is a longer sentence that follows the fragments.")
	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}
	if !strings.HasPrefix(got[0].Text, "Hi. Ok. This is a longer") {
		t.Errorf("fragments not glued forward: %q", got[0].Text)
	}
}

func TestSplitHardSplitsOversizedSentence(t *testing.T) {
	c, err := New(20, 5, DefaultMinSentenceChars)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := c.Split("aaaa bbbb cccc dddd eeee ffff")
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
	if got[0].Text != "aaaa bbbb cccc dddd " {
		t.Errorf("chunk 0 = %q", got[0].Text)
	}
	if got[1].Text != "dddd eeee ffff" {
		t.Errorf("chunk 1 = %q", got[1].Text)
	}
	for i, ch := range got {
		if len(ch.Text) > 20 {
			t.Errorf("chunk %d length %d exceeds size", i, len(ch.Text))
		}
	}
}

func TestSplitHardSplitsUnbrokenRun(t *testing.T) {
	c, err := New(10, 0, DefaultMinSentenceChars)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := c.Split(strings.Repeat("x", 25))
	if len(got) != 3 {
		t.Fatalf("got %d chunks, want 3", len(got))
	}
	for i, ch := range got {
		if len(ch.Text) > 10 {
			t.Errorf("chunk %d length %d exceeds size", i, len(ch.Text))
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "collapse spaces", in: "a   b\t c", want: "a b c"},
		{name: "preserve paragraph break", in: "para one\n\n\npara   two", want: "para one\n\npara two"},
		{name: "single newline is a space", in: "line one\nline two", want: "line one line two"},
		{name: "trim", in: "  text  ", want: "text"},
		{name: "empty", in: "   \n\n  ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKeywords(t *testing.T) {
	text := "alpha alpha alpha beta beta gamma the and of it"
	got := Keywords(text, 10)
	want := []string{"alpha", "beta", "gamma"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords = %v, want %v", got, want)
	}
}

func TestKeywordsTopLimit(t *testing.T) {
	var words []string
	for _, w := range []string{
		"apple", "banana", "cherry", "durian", "elder",
		"feijoa", "grape", "honeydew", "icaco", "jujube",
		"kumquat", "lemon",
	} {
		words = append(words, w)
	}
	got := Keywords(strings.Join(words, " "), TopKeywords)
	if len(got) != TopKeywords {
		t.Errorf("got %d keywords, want %d", len(got), TopKeywords)
	}
}

func TestKeywordsTieOrder(t *testing.T) {
	got := Keywords("zeta alpha zeta alpha", 10)
	want := []string{"zeta", "alpha"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords = %v, want %v", got, want)
	}
}

func TestTokensFiltersShortAndStopWords(t *testing.T) {
	got := Tokens("The DOG ran to a big red Barn")
	want := []string{"dog", "ran", "big", "red", "barn"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}
}
