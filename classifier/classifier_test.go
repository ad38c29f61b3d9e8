package classifier

import (
	"context"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"beruang/domain"
	"beruang/errors"
)

func TestAdapterNotReady(t *testing.T) {
	req := require.New(t)
	adapter := NewAdapter(slog.Default())

	_, err := adapter.Classify(context.Background(), "hello")
	req.ErrorIs(err, errors.ErrModelUnavailable)
	req.False(adapter.Ready())
}

func TestAdapterClassify(t *testing.T) {
	req := require.New(t)
	meta := domain.VocabMeta{
		WordIndex:    map[string]int{"track": 2, "expense": 3},
		MaxLen:       5,
		MaxVocabSize: 100,
	}

	embedder := NewHashingEmbedder(64, meta)
	model := NewLinearModel(randomishWeights(3, 64), []float64{0.1, -0.1, 0})

	adapter := NewAdapter(slog.Default())
	adapter.Load(embedder, model)
	req.True(adapter.Ready())

	pred, err := adapter.Classify(context.Background(), "track my expense")
	req.NoError(err)
	req.Len(pred, 3)

	var sum float64
	for _, p := range pred {
		req.GreaterOrEqual(p, 0.0)
		sum += p
	}
	req.InDelta(1.0, sum, 1e-9)

	again, err := adapter.Classify(context.Background(), "track my expense")
	req.NoError(err)
	req.Equal(pred, again, "classification must be deterministic")
}

func TestHashingEmbedderBinaryFeatures(t *testing.T) {
	req := require.New(t)
	meta := domain.VocabMeta{WordIndex: map[string]int{}, MaxLen: 5}
	embedder := NewHashingEmbedder(32, meta)

	vec, err := embedder.Embed("money money money")
	req.NoError(err)

	var active int
	for _, v := range vec {
		req.Contains([]float64{0, 1}, v)
		if v == 1 {
			active++
		}
	}
	req.Equal(1, active, "repeated word hashes to a single binary slot")
}

func TestLinearModelDimensionMismatch(t *testing.T) {
	req := require.New(t)
	model := NewLinearModel([][]float64{{1, 2, 3}}, []float64{0})

	_, err := model.Predict([]float64{1, 2})
	req.Error(err)
}

func TestSoftmaxStability(t *testing.T) {
	req := require.New(t)
	probs := softmax([]float64{1000, 999, 998})
	req.False(math.IsNaN(probs[0]))
	req.Greater(probs[0], probs[1])
	req.Greater(probs[1], probs[2])
}

func TestLoadMetadata(t *testing.T) {
	req := require.New(t)

	path := filepath.Join(t.TempDir(), "metadata.json")
	payload := `{
		"wordIndex": {"track": 2, "expense": 3},
		"maxLen": 10,
		"maxVocabSize": 100,
		"labelMap": {"0": "GREETING", "1": "TRACK_EXPENSE"},
		"confidenceThresholds": {"GREETING": 0.8},
		"globalThreshold": 0.7,
		"featureSize": 2,
		"weights": [[0.5, -0.5], [-0.5, 0.5]],
		"bias": [0, 0]
	}`
	req.NoError(os.WriteFile(path, []byte(payload), 0o600))

	meta, err := LoadMetadata(path)
	req.NoError(err)

	labels, err := meta.Labels()
	req.NoError(err)
	req.Equal("TRACK_EXPENSE", labels.Name(1))
	req.Equal(0.8, labels.Threshold("GREETING"))
	req.Equal(0.7, labels.Threshold("TRACK_EXPENSE"))

	vocab := meta.Vocab()
	req.Equal(10, vocab.MaxLen)
}

func TestLoadMetadataMissingFile(t *testing.T) {
	req := require.New(t)
	_, err := LoadMetadata(filepath.Join(t.TempDir(), "nope.json"))
	req.Error(err)
}

func TestLoadMetadataMalformed(t *testing.T) {
	req := require.New(t)

	path := filepath.Join(t.TempDir(), "metadata.json")
	req.NoError(os.WriteFile(path, []byte(`{"wordIndex": {"a": 2}, "maxLen": 5,
		"labelMap": {"0": "X"}, "featureSize": 3, "weights": [[1, 2]], "bias": [0]}`), 0o600))

	_, err := LoadMetadata(path)
	req.ErrorContains(err, "features")
}

// randomishWeights builds a deterministic weight matrix without pulling in
// a seed dependency.
func randomishWeights(classes, features int) [][]float64 {
	weights := make([][]float64, classes)
	for c := range weights {
		weights[c] = make([]float64, features)
		for f := range weights[c] {
			weights[c][f] = math.Sin(float64(c*features + f))
		}
	}
	return weights
}
