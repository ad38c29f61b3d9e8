// Package classifier adapts the opaque intent model behind the two
// pluggable capabilities the pipeline consumes: text embedding and
// distribution prediction. Either half can be swapped without touching
// routing logic.
package classifier

import (
	"context"
	"log/slog"
	"sync/atomic"

	"beruang/contract"
	"beruang/domain"
	"beruang/errors"
)

// Adapter composes an embedder and a predictor into the full
// text-to-distribution capability. It is read-only after Load and safe
// for concurrent classification.
type Adapter struct {
	log       *slog.Logger
	embedder  contract.Embedder
	predictor contract.Predictor
	ready     atomic.Bool
}

func NewAdapter(log *slog.Logger) *Adapter {
	return &Adapter{log: log}
}

// Load wires the concrete capabilities. Until it has been called every
// Classify returns ErrModelUnavailable, which callers treat as
// "cannot classify, must route remote".
func (a *Adapter) Load(embedder contract.Embedder, predictor contract.Predictor) {
	a.embedder = embedder
	a.predictor = predictor
	a.ready.Store(true)
	a.log.Info("Intent classifier loaded")
}

func (a *Adapter) Ready() bool {
	return a.ready.Load()
}

func (a *Adapter) Classify(ctx context.Context, text string) (domain.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !a.Ready() {
		return nil, errors.ErrModelUnavailable
	}

	vec, err := a.embedder.Embed(text)
	if err != nil {
		return nil, err
	}
	return a.predictor.Predict(vec)
}
