package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"beruang/domain"
)

func testMeta() domain.VocabMeta {
	return domain.VocabMeta{
		WordIndex: map[string]int{
			"budget":  2,
			"savings": 3,
			"track":   4,
			"expense": 5,
			"income":  6,
			"add":     7,
			"rare":    9999,
		},
		MaxLen:       6,
		MaxVocabSize: 100,
	}
}

func TestLevenshtein(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"budget", "", 6},
		{"budget", "budget", 0},
		{"budget", "budgte", 2},
		{"budget", "buget", 1},
		{"kitten", "sitting", 3},
		{"café", "cafe", 1},
	}
	for _, tt := range tests {
		req.Equal(tt.want, Levenshtein(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
		req.Equal(tt.want, Levenshtein(tt.b, tt.a), "distance must be symmetric")
	}
}

func TestClean(t *testing.T) {
	req := require.New(t)

	req.Equal([]string{"how", "much", "did", "i", "spend"}, Clean("How much did I spend?!"))
	req.Equal([]string{"track", "rm12", "50"}, Clean("  Track   RM12.50 "))
	req.Empty(Clean("!!! ... ???"))
}

func TestAutoCorrect(t *testing.T) {
	req := require.New(t)
	meta := testMeta()

	tests := []struct {
		name   string
		tokens []string
		want   []string
	}{
		{
			name:   "known words untouched",
			tokens: []string{"budget", "track"},
			want:   []string{"budget", "track"},
		},
		{
			name:   "single typo corrected",
			tokens: []string{"buget"},
			want:   []string{"budget"},
		},
		{
			name:   "long word gets wider budget",
			tokens: []string{"savngs"}, // distance 1, len 6 -> budget 1
			want:   []string{"savings"},
		},
		{
			name:   "short tokens never corrected",
			tokens: []string{"adb"},
			want:   []string{"adb"},
		},
		{
			name:   "too far keeps original",
			tokens: []string{"boooking"},
			want:   []string{"boooking"},
		},
		{
			name:   "different first letter is never a candidate",
			tokens: []string{"mudget"},
			want:   []string{"mudget"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.want, AutoCorrect(tt.tokens, meta.WordIndex))
		})
	}
}

func TestAutoCorrectTieKeepsOriginal(t *testing.T) {
	req := require.New(t)
	// Both candidates are distance 1 from the input; an ambiguous
	// correction must leave the token alone.
	wordIndex := map[string]int{"tract": 2, "track": 3}
	req.Equal([]string{"tracs"}, AutoCorrect([]string{"tracs"}, wordIndex))
}

func TestNormalize(t *testing.T) {
	req := require.New(t)
	meta := testMeta()

	tests := []struct {
		name string
		text string
		want []int
	}{
		{
			name: "left padded",
			text: "track expense",
			want: []int{0, 0, 0, 0, 4, 5},
		},
		{
			name: "unknown words map to 1",
			text: "please track my zzzz",
			want: []int{0, 0, 1, 4, 1, 1},
		},
		{
			name: "over vocab limit degrades to unknown",
			text: "rare budget",
			want: []int{0, 0, 0, 0, 1, 2},
		},
		{
			name: "truncates from the front keeping recent tokens",
			text: "one two three four five budget savings track",
			want: []int{1, 1, 1, 2, 3, 4},
		},
		{
			name: "empty text is all padding",
			text: "",
			want: []int{0, 0, 0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.want, Normalize(tt.text, meta))
		})
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	req := require.New(t)
	meta := testMeta()

	first := Normalize("budgte and savngs tips", meta)
	for i := 0; i < 50; i++ {
		req.Equal(first, Normalize("budgte and savngs tips", meta))
	}
}
