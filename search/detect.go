// Package search answers "is this about a real place?" and, when it is,
// fetches grounded web results so the remote model cannot hallucinate
// restaurant or hotel names.
package search

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Keyword groups, Malay and English mixed because users freely code-switch.
var (
	locationKeywords = []string{
		"makanan", "makan", "food", "eat", "dining", "lunch", "dinner", "breakfast", "brunch",
		"restaurant", "restoran", "kedai makan",
		"hotel", "hostel", "penginapan", "homestay", "resort",
		"tempat", "place", "location", "lokasi", "attraction", "tarikan",
		"cafe", "kafe", "coffee", "kopi",
		"bar", "pub", "club", "nightlife",
		"shop", "kedai", "mall", "shopping",
		"spa", "massage", "urut",
		"gym", "fitness",
		"clinic", "klinik", "hospital",
	}

	locationIndicators = []string{
		"kat", "di", "dekat", "near", "around", "dalam", "in", "at",
		"area", "kawasan", "sekitar",
	}

	recommendationWords = []string{
		"sedap", "best", "popular", "famous", "terkenal", "recommended", "recommend",
		"cheap", "murah", "affordable", "budget",
		"good", "bagus", "nice", "cantik",
		"top", "terbaik", "suggest", "suggestion",
	}

	verificationWords = []string{
		"wujud", "exist", "betul ke", "right?", "real?", "mana", "where",
	}

	foodKeywords = []string{
		"makan", "food", "restaurant", "cafe", "warung", "kedai", "sarapan", "lunch", "dinner",
	}
)

// Detector classifies messages as location queries using the lexical
// heuristic the mobile app was tuned against. Stateless.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// IsLocationQuery fires when a place keyword pairs with an indicator or a
// recommendation word, or when an indicator pairs with a verification word
// ("does X even exist?").
func (d *Detector) IsLocationQuery(message string) bool {
	lower := strings.ToLower(message)

	hasKeyword := containsAny(lower, locationKeywords)
	hasIndicator := containsAnyWord(lower, locationIndicators)
	hasRecommendation := containsAny(lower, recommendationWords)
	hasVerification := containsAny(lower, verificationWords)

	return (hasKeyword && (hasIndicator || hasRecommendation)) ||
		(hasIndicator && hasVerification)
}

// Language tags the message so logs can tell Malay from English traffic.
func (d *Detector) Language(message string) string {
	info := whatlanggo.Detect(message)
	return info.Lang.Iso6391()
}

// AppendHalalFilter adds a halal qualifier to food queries that do not
// state a preference, a safety default for the majority of users.
func AppendHalalFilter(query string) string {
	lower := strings.ToLower(query)
	if !containsAny(lower, foodKeywords) {
		return query
	}
	if strings.Contains(lower, "halal") {
		return query
	}
	return query + " halal"
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

// containsAnyWord matches whole words only; short indicators like "in" or
// "at" would otherwise fire inside almost any message.
func containsAnyWord(text string, needles []string) bool {
	words := strings.Fields(text)
	for _, needle := range needles {
		for _, w := range words {
			if strings.Trim(w, ".,!?") == needle {
				return true
			}
		}
	}
	return false
}
