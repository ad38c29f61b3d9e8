// Package ood gates local answers behind an out-of-distribution check.
// Five independent signals each contribute a reason; the verdict combines
// a reason count against a configurable decision threshold with a hard
// floor on top-1 confidence.
package ood

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"beruang/domain"
)

// Config tunes the individual checks. Zero values fall back to the
// defaults the model was calibrated with.
type Config struct {
	// DecisionThreshold is how many triggered reasons flip the verdict on
	// their own. Deployments have run both 1 and 2; 2 is the default here
	// so a single weak signal does not discard an otherwise confident
	// prediction, while raw low confidence still always gates.
	DecisionThreshold int
	UnknownRatioMax   float64 // flag above this fraction of unknown tokens
	WordCountMax      int     // flag messages longer than this many words
	EntropyMax        float64 // flag normalized entropy above this
	MarginMin         float64 // flag top-2 gap below this
}

// DefaultConfig matches the thresholds the intent model was tuned against.
func DefaultConfig() Config {
	return Config{
		DecisionThreshold: 2,
		UnknownRatioMax:   0.6,
		WordCountMax:      20,
		EntropyMax:        0.6,
		MarginMin:         0.10,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DecisionThreshold <= 0 {
		c.DecisionThreshold = def.DecisionThreshold
	}
	if c.UnknownRatioMax <= 0 {
		c.UnknownRatioMax = def.UnknownRatioMax
	}
	if c.WordCountMax <= 0 {
		c.WordCountMax = def.WordCountMax
	}
	if c.EntropyMax <= 0 {
		c.EntropyMax = def.EntropyMax
	}
	if c.MarginMin <= 0 {
		c.MarginMin = def.MarginMin
	}
	return c
}

// Detector scores prediction trustworthiness. Stateless and safe for
// concurrent use.
type Detector struct {
	cfg Config
}

func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg.withDefaults()}
}

// Detect derives a verdict from one prediction plus its originating token
// sequence and message text. The sequence may be nil when the embedding
// path does not produce one.
func (d *Detector) Detect(message string, sequence []int, prediction domain.Prediction, labels domain.Labels) domain.OODVerdict {
	var reasons []string

	if sequence != nil {
		valid, unknown, nonPad := 0, 0, 0
		for _, tok := range sequence {
			if tok > domain.TokenUnknown {
				valid++
			}
			if tok == domain.TokenUnknown {
				unknown++
			}
			if tok != domain.TokenPad {
				nonPad++
			}
		}

		// Degenerate input: nothing the model has ever seen. Short-circuit;
		// the remaining checks would only read noise.
		if valid == 0 {
			return domain.OODVerdict{
				IsOOD:           true,
				Reasons:         []string{"No recognized words"},
				Confidence:      0,
				PredictedIntent: domain.IntentUnknown,
			}
		}

		if ratio := float64(unknown) / float64(nonPad); ratio > d.cfg.UnknownRatioMax {
			reasons = append(reasons, fmt.Sprintf("%.0f%% unknown words", ratio*100))
		}
	}

	if words := len(strings.Fields(message)); words > d.cfg.WordCountMax {
		reasons = append(reasons, "Query too long (complex)")
	}

	topIdx, topConf := prediction.Top()
	intent := labels.Name(topIdx)
	threshold := labels.Threshold(intent)

	if topConf < threshold {
		reasons = append(reasons, fmt.Sprintf("Confidence %.1f%% < threshold %.1f%%",
			topConf*100, threshold*100))
	}

	entropy := normalizedEntropy(prediction)
	if entropy > d.cfg.EntropyMax {
		reasons = append(reasons, fmt.Sprintf("High uncertainty (entropy: %.2f)", entropy))
	}

	margin := topMargin(prediction)
	if margin < d.cfg.MarginMin {
		reasons = append(reasons, fmt.Sprintf("Low confidence gap (%.1f%%)", margin*100))
	}

	return domain.OODVerdict{
		IsOOD:           len(reasons) >= d.cfg.DecisionThreshold || topConf < threshold,
		Reasons:         reasons,
		Confidence:      topConf,
		Entropy:         entropy,
		Margin:          margin,
		PredictedIntent: intent,
	}
}

// normalizedEntropy is the Shannon entropy of the distribution divided by
// its maximum (log of class count), yielding a 0..1 uncertainty score.
func normalizedEntropy(prediction domain.Prediction) float64 {
	if len(prediction) < 2 {
		return 0
	}
	var entropy float64
	for _, p := range prediction {
		if p > 0 {
			entropy -= p * math.Log(p)
		}
	}
	return entropy / math.Log(float64(len(prediction)))
}

// topMargin is the gap between the two highest probabilities.
func topMargin(prediction domain.Prediction) float64 {
	if len(prediction) < 2 {
		return 1
	}
	sorted := make([]float64, len(prediction))
	copy(sorted, prediction)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	return sorted[0] - sorted[1]
}
