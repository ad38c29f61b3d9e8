package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"beruang/domain"
)

// Metadata is the on-disk companion file of a trained intent model:
// vocabulary, label map, thresholds and the dense output layer weights.
type Metadata struct {
	WordIndex            map[string]int     `json:"wordIndex"`
	MaxLen               int                `json:"maxLen"`
	MaxVocabSize         int                `json:"maxVocabSize"`
	LabelMap             map[string]string  `json:"labelMap"`
	ConfidenceThresholds map[string]float64 `json:"confidenceThresholds"`
	GlobalThreshold      float64            `json:"globalThreshold"`
	FeatureSize          int                `json:"featureSize"`
	Weights              [][]float64        `json:"weights"` // classes x features
	Bias                 []float64          `json:"bias"`
}

// LoadMetadata reads and validates the model metadata file. A missing or
// malformed file is a startup failure, never a request-time one.
func LoadMetadata(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("parsing model metadata: %w", err)
	}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model metadata %s: %w", path, err)
	}
	return &meta, nil
}

func (m *Metadata) Validate() error {
	if len(m.WordIndex) == 0 {
		return fmt.Errorf("empty word index")
	}
	if m.MaxLen <= 0 {
		return fmt.Errorf("maxLen must be positive, got %d", m.MaxLen)
	}
	if len(m.LabelMap) == 0 {
		return fmt.Errorf("empty label map")
	}
	if len(m.Weights) != len(m.LabelMap) {
		return fmt.Errorf("weights rows (%d) do not match label count (%d)",
			len(m.Weights), len(m.LabelMap))
	}
	for i, row := range m.Weights {
		if len(row) != m.FeatureSize {
			return fmt.Errorf("weights row %d has %d features, expected %d",
				i, len(row), m.FeatureSize)
		}
	}
	if len(m.Bias) != len(m.Weights) {
		return fmt.Errorf("bias length (%d) does not match class count (%d)",
			len(m.Bias), len(m.Weights))
	}
	return nil
}

// Vocab extracts the static vocabulary configuration.
func (m *Metadata) Vocab() domain.VocabMeta {
	return domain.VocabMeta{
		WordIndex:    m.WordIndex,
		MaxLen:       m.MaxLen,
		MaxVocabSize: m.MaxVocabSize,
	}
}

// Labels extracts the label set and thresholds. JSON object keys are
// strings, so the index keys are parsed here once at startup.
func (m *Metadata) Labels() (domain.Labels, error) {
	labelMap := make(map[int]string, len(m.LabelMap))
	for key, name := range m.LabelMap {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return domain.Labels{}, fmt.Errorf("label index %q is not numeric: %w", key, err)
		}
		labelMap[idx] = name
	}
	return domain.Labels{
		LabelMap:             labelMap,
		ConfidenceThresholds: m.ConfidenceThresholds,
		GlobalThreshold:      m.GlobalThreshold,
	}, nil
}

// LinearModel is a dense output layer with softmax activation, the
// predictor half of the classifier capability. Weights are immutable
// after construction, so concurrent predictions are safe.
type LinearModel struct {
	weights [][]float64
	bias    []float64
}

func NewLinearModel(weights [][]float64, bias []float64) *LinearModel {
	return &LinearModel{weights: weights, bias: bias}
}

func (m *LinearModel) Predict(vector []float64) (domain.Prediction, error) {
	if len(m.weights) == 0 {
		return nil, fmt.Errorf("model has no weights")
	}
	if len(vector) != len(m.weights[0]) {
		return nil, fmt.Errorf("feature vector has %d dims, model expects %d",
			len(vector), len(m.weights[0]))
	}

	logits := make([]float64, len(m.weights))
	for class, row := range m.weights {
		sum := m.bias[class]
		for i, w := range row {
			sum += w * vector[i]
		}
		logits[class] = sum
	}
	return softmax(logits), nil
}

// softmax converts logits to a probability distribution, shifting by the
// max logit for numeric stability.
func softmax(logits []float64) domain.Prediction {
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}

	probs := make(domain.Prediction, len(logits))
	var total float64
	for i, l := range logits {
		probs[i] = math.Exp(l - maxLogit)
		total += probs[i]
	}
	for i := range probs {
		probs[i] /= total
	}
	return probs
}
