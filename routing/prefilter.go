// Package routing decides whether a chat turn is answered by a canned
// local reply or escalated to the remote model.
package routing

import (
	"regexp"
	"strings"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Red-flag keywords: topics that always deserve the more capable model,
// regardless of what the narrow classifier would say. Multi-word phrases
// are matched as substrings.
var redFlags = []string{
	"invest", "crypto", "stock", "debt", "loan", "buy", "sell",
	"salary", "finance", "money", "budget", "save for", "afford",
	"survive", "bank", "insurance", "tax", "profit", "loss", "worth",
	"bitcoin", "gold", "property", "car", "house", "wedding",
	"unrealistic", "opinion", "thoughts", "compare", "pros and cons",
}

// Complex-advice starter phrases, matched at the beginning of the message.
var complexStarters = []string{
	"why", "how", "what if", "should i", "can i", "explain", "tell me about",
}

// App-help phrasing that bypasses the pre-filter entirely. Questions about
// the app itself are exactly what the local classifier was trained on,
// even when they mention a red-flag word like "income".
var appHelpPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^how (to|do i|can i) (add|save|use|check|see|view|delete|edit|remove|track|log|record)`),
	regexp.MustCompile(`^where (is|can i|do i|to) (add|find|see|view|check)`),
	regexp.MustCompile(`^what (is|does) (this|the) (app|feature|screen|button|page)`),
	regexp.MustCompile(`in this app`),
	regexp.MustCompile(`in beruang`),
	regexp.MustCompile(`this app`),
	regexp.MustCompile(`the app`),
}

// maxSimpleWords is the word count above which a red flag alone forces
// remote routing, without needing a complex starter.
const maxSimpleWords = 5

// Prefilter is the cheap lexical gate that runs before any model
// invocation. Built once at startup, read-only afterwards.
type Prefilter struct {
	flags *goahocorasick.Machine
}

// NewPrefilter builds the red-flag keyword automaton.
func NewPrefilter() (*Prefilter, error) {
	patterns := make([][]rune, len(redFlags))
	for i, flag := range redFlags {
		patterns[i] = []rune(flag)
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Prefilter{flags: machine}, nil
}

// ShouldEscalate reports whether the message must skip the classifier and
// go straight to the remote model: a complex starter combined with a red
// flag, or a red flag in anything longer than a trivially short message.
// App-help phrasing bypasses the check entirely.
func (p *Prefilter) ShouldEscalate(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))

	for _, pattern := range appHelpPatterns {
		if pattern.MatchString(lower) {
			return false
		}
	}

	hasRedFlag := len(p.flags.MultiPatternSearch([]rune(lower), true)) > 0
	if !hasRedFlag {
		return false
	}

	hasStarter := false
	for _, starter := range complexStarters {
		if strings.HasPrefix(lower, starter) {
			hasStarter = true
			break
		}
	}

	return hasStarter || len(strings.Fields(lower)) > maxSimpleWords
}
