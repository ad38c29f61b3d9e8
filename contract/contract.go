//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"beruang/domain"
	"context"
	"reflect"
)

// Worker is a long-running loop. Workers don't protect themselves; panic
// recovery and restarts belong to the supervisor.
type Worker interface {
	Run(ctx context.Context) error
}

type Supervisor interface {
	Add(worker ...Worker) Supervisor
	Run(ctx context.Context)
	Stop()
}

// WorkerName retrieves the type name of a worker via reflection, for
// logging and supervision without manual naming.
func WorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Embedder turns raw text into the fixed-length numeric representation
// the predictor consumes.
type Embedder interface {
	Embed(text string) ([]float64, error)
}

// Predictor produces a probability distribution over the intent label set.
type Predictor interface {
	Predict(vector []float64) (domain.Prediction, error)
}

// Classifier is the full text-to-distribution capability. Implementations
// must be safe for concurrent use and must return errors.ErrModelUnavailable
// until initialization has completed.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.Prediction, error)
	Ready() bool
}

// TransactionClassifier categorises a free-text expense description into
// a budget category and subcategory. Same availability contract as
// Classifier: errors.ErrModelUnavailable until loaded.
type TransactionClassifier interface {
	Predict(ctx context.Context, description string) (domain.TransactionPrediction, error)
	Ready() bool
}

// ReplyStore serves pre-authored replies for intents.
type ReplyStore interface {
	HasReply(intent string) bool
	Reply(intent string) (string, bool)
}

// KnowledgeStore is the full static knowledge surface: canned replies
// plus the regional statistics block used in remote prompts.
type KnowledgeStore interface {
	ReplyStore
	DosmData(state string) string
}

// Router produces the base routing decision for one message. It never
// fails; every degraded condition maps to a remote decision.
type Router interface {
	Route(ctx context.Context, message string) domain.Decision
}

// TipsFinder looks up expert advice relevant to a message.
type TipsFinder interface {
	RelevantTips(ctx context.Context, message string) ([]domain.Tip, error)
}

// TokenStream is an incrementally-produced remote completion.
// Iterate with Next, read the fragment with Current, then check Err.
type TokenStream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// LLMClient is the remote model boundary. Failures must be catchable;
// they never crash the orchestrator.
type LLMClient interface {
	Chat(ctx context.Context, messages []domain.PromptMessage) (string, error)
	Stream(ctx context.Context, messages []domain.PromptMessage) (TokenStream, error)
}

// PlaceSearcher is the optional web lookup for location queries.
// A nil result with nil error means "nothing useful found".
type PlaceSearcher interface {
	IsLocationQuery(message string) bool
	Search(ctx context.Context, query string) (*domain.SearchResult, error)
}

// EventSink receives stream frames for one client connection.
// Consume returning an error means the client is gone.
type EventSink interface {
	Consume(ctx context.Context, event domain.StreamEvent) error
}
