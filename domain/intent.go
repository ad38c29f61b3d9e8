package domain

// Reserved sentinel intents. Neither ever resolves to a canned reply:
// COMPLEX_ADVICE always escalates to the remote model, GARBAGE marks
// training noise the classifier learned to absorb.
const (
	IntentComplexAdvice = "COMPLEX_ADVICE"
	IntentGarbage       = "GARBAGE"
	IntentUnknown       = "UNKNOWN"
)

// Sequence token values produced by the normalizer.
const (
	TokenPad     = 0
	TokenUnknown = 1
)

// Prediction is a probability distribution over the label set,
// in label-index order. Ephemeral, one per classified request.
type Prediction []float64

// Top returns the arg-max index and its probability.
func (p Prediction) Top() (int, float64) {
	best, bestIdx := -1.0, 0
	for i, v := range p {
		if v > best {
			best, bestIdx = v, i
		}
	}
	return bestIdx, best
}

// VocabMeta is the static vocabulary configuration, loaded once at startup
// and shared read-only across requests.
type VocabMeta struct {
	WordIndex    map[string]int `json:"wordIndex"`
	MaxLen       int            `json:"maxLen"`
	MaxVocabSize int            `json:"maxVocabSize"`
}

// VocabLimit returns the effective vocabulary size cap.
func (v VocabMeta) VocabLimit() int {
	if v.MaxVocabSize > 0 {
		return v.MaxVocabSize
	}
	return 10000
}

// Labels maps classifier output indices to intent names and carries the
// confidence thresholds the OOD detector compares against.
type Labels struct {
	LabelMap             map[int]string     `json:"labelMap"`
	ConfidenceThresholds map[string]float64 `json:"confidenceThresholds"`
	GlobalThreshold      float64            `json:"globalThreshold"`
}

// Name resolves an output index to its intent name.
func (l Labels) Name(idx int) string {
	if name, ok := l.LabelMap[idx]; ok {
		return name
	}
	return IntentUnknown
}

// Threshold returns the per-intent override if present, else the global default.
func (l Labels) Threshold(intent string) float64 {
	if t, ok := l.ConfidenceThresholds[intent]; ok {
		return t
	}
	if l.GlobalThreshold > 0 {
		return l.GlobalThreshold
	}
	return 0.70
}
