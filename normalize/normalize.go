// Package normalize prepares raw chat text for the intent classifier.
// It cleans, fuzzy-corrects against the model vocabulary, and produces
// the fixed-length index sequence the embedding layer expects.
package normalize

import (
	"strings"
	"unicode"

	"beruang/domain"
)

// minCorrectableLen guards the autocorrector: short tokens are too
// error-prone to correct reliably.
const minCorrectableLen = 4

// Clean lowercases, strips everything that is not a letter, digit or
// whitespace, collapses whitespace and splits into tokens.
func Clean(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

// Levenshtein computes the classic dynamic-programming edit distance.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(rb); i++ {
		curr[0] = i
		for j := 1; j <= len(ra); j++ {
			cost := 1
			if rb[i-1] == ra[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j-1]+cost, min(curr[j-1]+1, prev[j]+1))
		}
		prev, curr = curr, prev
	}
	return prev[len(ra)]
}

// AutoCorrect replaces unknown tokens with their closest vocabulary entry.
// Only entries sharing the token's first character are considered, and a
// candidate is accepted only when its distance is within the length-based
// budget and a strict minimum among candidates. Ties keep the original.
func AutoCorrect(tokens []string, wordIndex map[string]int) []string {
	out := make([]string, len(tokens))
	for i, word := range tokens {
		out[i] = word
		if _, known := wordIndex[word]; known || len(word) < minCorrectableLen {
			continue
		}

		budget := 1
		if len(word) > 6 {
			budget = 2
		}

		best := word
		minDist := budget + 1
		tied := false
		for candidate := range wordIndex {
			if candidate == "" || candidate[0] != word[0] {
				continue
			}
			dist := Levenshtein(word, candidate)
			if dist > budget {
				continue
			}
			switch {
			case dist < minDist:
				minDist, best, tied = dist, candidate, false
			case dist == minDist:
				tied = true
			}
		}
		if !tied {
			out[i] = best
		}
	}
	return out
}

// Normalize turns text into a sequence of exactly meta.MaxLen vocabulary
// indices: 0 pads on the left, 1 marks unknown words, anything beyond the
// vocabulary cap degrades to unknown. When the corrected token stream is
// longer than MaxLen the front is dropped, keeping the most recent tokens.
func Normalize(text string, meta domain.VocabMeta) []int {
	tokens := AutoCorrect(Clean(text), meta.WordIndex)
	limit := meta.VocabLimit()

	sequence := make([]int, 0, len(tokens))
	for _, word := range tokens {
		idx, ok := meta.WordIndex[word]
		if !ok || idx >= limit {
			idx = domain.TokenUnknown
		}
		sequence = append(sequence, idx)
	}

	if len(sequence) >= meta.MaxLen {
		return sequence[len(sequence)-meta.MaxLen:]
	}

	padded := make([]int, meta.MaxLen)
	copy(padded[meta.MaxLen-len(sequence):], sequence)
	return padded
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
