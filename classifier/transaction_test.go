package classifier

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"beruang/domain"
	"beruang/errors"
)

func testTransactionMeta() *TransactionMetadata {
	return &TransactionMetadata{
		WordIndex:          map[string]int{"nasi": 2, "lemak": 3, "grab": 4, "movie": 5},
		MaxLen:             8,
		MaxVocabSize:       100,
		CategoryIndex:      map[string]string{"0": "Needs", "1": "Wants"},
		SubcategoryIndex:   map[string]string{"0": "Food", "1": "Transport", "2": "Entertainment"},
		FeatureSize:        16,
		CategoryWeights:    randomishWeights(2, 16),
		CategoryBias:       []float64{0.1, -0.1},
		SubcategoryWeights: randomishWeights(3, 16),
		SubcategoryBias:    []float64{0, 0, 0},
	}
}

func TestTransactionModelNotReady(t *testing.T) {
	req := require.New(t)
	model := NewTransactionModel(slog.Default())

	req.False(model.Ready())
	_, err := model.Predict(context.Background(), "nasi lemak")
	req.ErrorIs(err, errors.ErrModelUnavailable)
}

func TestTransactionModelPredict(t *testing.T) {
	req := require.New(t)
	model := NewTransactionModel(slog.Default())
	req.NoError(model.Load(testTransactionMeta()))
	req.True(model.Ready())

	pred, err := model.Predict(context.Background(), "nasi lemak")
	req.NoError(err)
	req.False(pred.Fallback)
	req.Contains([]string{"NEEDS", "WANTS"}, pred.Category, "category is upper-cased")
	req.Contains([]string{"Food", "Transport", "Entertainment"}, pred.Subcategory)
	req.Greater(pred.CategoryConfidence, 0.0)
	req.Greater(pred.SubcategoryConfidence, 0.0)

	again, err := model.Predict(context.Background(), "nasi lemak")
	req.NoError(err)
	req.Equal(pred, again, "prediction must be deterministic")
}

func TestTransactionModelFallback(t *testing.T) {
	req := require.New(t)
	model := NewTransactionModel(slog.Default())
	req.NoError(model.Load(testTransactionMeta()))

	// No in-vocabulary word: the heads are never consulted.
	pred, err := model.Predict(context.Background(), "xyzzy frobnicate")
	req.NoError(err)
	req.True(pred.Fallback)
	req.Equal(domain.FallbackCategory, pred.Category)
	req.Equal(domain.FallbackSubcategory, pred.Subcategory)
	req.Zero(pred.CategoryConfidence)
	req.Zero(pred.SubcategoryConfidence)
}

func TestLoadTransactionMetadata(t *testing.T) {
	req := require.New(t)

	path := filepath.Join(t.TempDir(), "transaction.json")
	payload := `{
		"wordIndex": {"grab": 2, "ride": 3},
		"maxLen": 8,
		"maxVocabSize": 100,
		"categoryIndex": {"0": "Needs", "1": "Wants"},
		"subcategoryIndex": {"0": "Transport", "1": "Others"},
		"featureSize": 2,
		"categoryWeights": [[0.5, -0.5], [-0.5, 0.5]],
		"categoryBias": [0, 0],
		"subcategoryWeights": [[0.3, -0.3], [-0.3, 0.3]],
		"subcategoryBias": [0, 0]
	}`
	req.NoError(os.WriteFile(path, []byte(payload), 0o600))

	meta, err := LoadTransactionMetadata(path)
	req.NoError(err)
	req.Equal(8, meta.Vocab().MaxLen)

	model := NewTransactionModel(slog.Default())
	req.NoError(model.Load(meta))

	pred, err := model.Predict(context.Background(), "grab ride")
	req.NoError(err)
	req.False(pred.Fallback)
}

func TestLoadTransactionMetadataMalformed(t *testing.T) {
	req := require.New(t)

	path := filepath.Join(t.TempDir(), "transaction.json")
	req.NoError(os.WriteFile(path, []byte(`{"wordIndex": {"a": 2}, "maxLen": 8,
		"categoryIndex": {"0": "Needs"}, "subcategoryIndex": {"0": "Food"},
		"featureSize": 3,
		"categoryWeights": [[1, 2]], "categoryBias": [0],
		"subcategoryWeights": [[1, 2, 3]], "subcategoryBias": [0]}`), 0o600))

	_, err := LoadTransactionMetadata(path)
	req.ErrorContains(err, "features")
}
