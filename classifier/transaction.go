package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"beruang/domain"
	"beruang/errors"
	"beruang/normalize"
)

// TransactionMetadata is the on-disk companion file of the trained
// expense model. It carries two dense output heads over a shared
// vocabulary: one for the budget category, one for the subcategory.
type TransactionMetadata struct {
	WordIndex          map[string]int    `json:"wordIndex"`
	MaxLen             int               `json:"maxLen"`
	MaxVocabSize       int               `json:"maxVocabSize"`
	CategoryIndex      map[string]string `json:"categoryIndex"`
	SubcategoryIndex   map[string]string `json:"subcategoryIndex"`
	FeatureSize        int               `json:"featureSize"`
	CategoryWeights    [][]float64       `json:"categoryWeights"`
	CategoryBias       []float64         `json:"categoryBias"`
	SubcategoryWeights [][]float64       `json:"subcategoryWeights"`
	SubcategoryBias    []float64         `json:"subcategoryBias"`
}

// LoadTransactionMetadata reads and validates the expense model metadata.
// Like the intent model, a bad file fails startup, not requests.
func LoadTransactionMetadata(path string) (*TransactionMetadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading transaction metadata: %w", err)
	}
	var meta TransactionMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("parsing transaction metadata: %w", err)
	}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transaction metadata %s: %w", path, err)
	}
	return &meta, nil
}

func (m *TransactionMetadata) Validate() error {
	if len(m.WordIndex) == 0 {
		return fmt.Errorf("empty word index")
	}
	if m.MaxLen <= 0 {
		return fmt.Errorf("maxLen must be positive, got %d", m.MaxLen)
	}
	if err := validateHead("category", m.CategoryIndex, m.CategoryWeights, m.CategoryBias, m.FeatureSize); err != nil {
		return err
	}
	return validateHead("subcategory", m.SubcategoryIndex, m.SubcategoryWeights, m.SubcategoryBias, m.FeatureSize)
}

func validateHead(name string, index map[string]string, weights [][]float64, bias []float64, featureSize int) error {
	if len(index) == 0 {
		return fmt.Errorf("empty %s index", name)
	}
	if len(weights) != len(index) {
		return fmt.Errorf("%s weights rows (%d) do not match label count (%d)",
			name, len(weights), len(index))
	}
	for i, row := range weights {
		if len(row) != featureSize {
			return fmt.Errorf("%s weights row %d has %d features, expected %d",
				name, i, len(row), featureSize)
		}
	}
	if len(bias) != len(weights) {
		return fmt.Errorf("%s bias length (%d) does not match class count (%d)",
			name, len(bias), len(weights))
	}
	return nil
}

// Vocab extracts the static vocabulary configuration.
func (m *TransactionMetadata) Vocab() domain.VocabMeta {
	return domain.VocabMeta{
		WordIndex:    m.WordIndex,
		MaxLen:       m.MaxLen,
		MaxVocabSize: m.MaxVocabSize,
	}
}

// TransactionModel runs both output heads of the expense model behind
// the TransactionClassifier capability. Read-only after Load, safe for
// concurrent prediction.
type TransactionModel struct {
	log           *slog.Logger
	embedder      *HashingEmbedder
	category      *LinearModel
	subcategory   *LinearModel
	vocab         domain.VocabMeta
	categories    map[int]string
	subcategories map[int]string
	ready         atomic.Bool
}

func NewTransactionModel(log *slog.Logger) *TransactionModel {
	return &TransactionModel{log: log}
}

// Load wires the metadata into runnable heads. Until it has been called
// every Predict returns ErrModelUnavailable.
func (t *TransactionModel) Load(meta *TransactionMetadata) error {
	categories, err := parseIndex(meta.CategoryIndex)
	if err != nil {
		return fmt.Errorf("category index: %w", err)
	}
	subcategories, err := parseIndex(meta.SubcategoryIndex)
	if err != nil {
		return fmt.Errorf("subcategory index: %w", err)
	}

	t.vocab = meta.Vocab()
	t.embedder = NewHashingEmbedder(meta.FeatureSize, t.vocab)
	t.category = NewLinearModel(meta.CategoryWeights, meta.CategoryBias)
	t.subcategory = NewLinearModel(meta.SubcategoryWeights, meta.SubcategoryBias)
	t.categories = categories
	t.subcategories = subcategories
	t.ready.Store(true)
	t.log.Info("Transaction classifier loaded",
		"categories", len(categories), "subcategories", len(subcategories))
	return nil
}

func (t *TransactionModel) Ready() bool {
	return t.ready.Load()
}

// Predict categorises one expense description. A description with no
// in-vocabulary word falls back to WANTS/Others instead of letting the
// model hallucinate a bucket from noise.
func (t *TransactionModel) Predict(ctx context.Context, description string) (domain.TransactionPrediction, error) {
	if err := ctx.Err(); err != nil {
		return domain.TransactionPrediction{}, err
	}
	if !t.Ready() {
		return domain.TransactionPrediction{}, errors.ErrModelUnavailable
	}

	sequence := normalize.Normalize(description, t.vocab)
	valid := 0
	for _, tok := range sequence {
		if tok > domain.TokenUnknown {
			valid++
		}
	}
	if valid == 0 {
		return domain.TransactionPrediction{
			Category:    domain.FallbackCategory,
			Subcategory: domain.FallbackSubcategory,
			Fallback:    true,
		}, nil
	}

	vec, err := t.embedder.Embed(description)
	if err != nil {
		return domain.TransactionPrediction{}, err
	}
	catPred, err := t.category.Predict(vec)
	if err != nil {
		return domain.TransactionPrediction{}, err
	}
	subPred, err := t.subcategory.Predict(vec)
	if err != nil {
		return domain.TransactionPrediction{}, err
	}

	catIdx, catConf := catPred.Top()
	subIdx, subConf := subPred.Top()
	return domain.TransactionPrediction{
		Category:              strings.ToUpper(labelAt(t.categories, catIdx)),
		Subcategory:           labelAt(t.subcategories, subIdx),
		CategoryConfidence:    catConf,
		SubcategoryConfidence: subConf,
	}, nil
}

func parseIndex(index map[string]string) (map[int]string, error) {
	out := make(map[int]string, len(index))
	for key, name := range index {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("label index %q is not numeric: %w", key, err)
		}
		out[idx] = name
	}
	return out, nil
}

func labelAt(index map[int]string, idx int) string {
	if name, ok := index[idx]; ok {
		return name
	}
	return domain.IntentUnknown
}
