package routing

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"beruang/domain"
	"beruang/errors"
	"beruang/mocks"
	"beruang/ood"
)

func testVocab() domain.VocabMeta {
	return domain.VocabMeta{
		WordIndex: map[string]int{
			"hello": 2, "track": 3, "lunch": 4, "balance": 5, "check": 6,
		},
		MaxLen:       10,
		MaxVocabSize: 100,
	}
}

func testLabels() domain.Labels {
	return domain.Labels{
		LabelMap: map[int]string{
			0: "GREETING",
			1: "TRACK_EXPENSE",
			2: domain.IntentComplexAdvice,
			3: domain.IntentGarbage,
		},
		GlobalThreshold: 0.70,
	}
}

func newTestRouter(t *testing.T, classifier *mocks.MockClassifier, store *mocks.MockReplyStore) *Router {
	t.Helper()
	prefilter, err := NewPrefilter()
	require.NoError(t, err)
	return NewRouter(slog.Default(), prefilter, classifier,
		ood.NewDetector(ood.DefaultConfig()), store, testVocab(), testLabels())
}

func TestRoutePrefilterShortCircuit(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockClassifier(ctrl)
	store := mocks.NewMockReplyStore(ctrl)
	// No expectations registered: any classifier or store call fails the test.

	router := newTestRouter(t, classifier, store)
	decision := router.Route(context.Background(), "should i invest in crypto or stocks for retirement")

	req.Equal(domain.RouteRemote, decision.Route)
	req.Equal("complex query pre-filter", decision.Reason)
	req.Equal(1.0, decision.Confidence)
	req.True(decision.Prefiltered)
}

func TestRouteLocal(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockClassifier(ctrl)
	store := mocks.NewMockReplyStore(ctrl)

	classifier.EXPECT().Classify(gomock.Any(), "track lunch").
		Return(domain.Prediction{0.02, 0.95, 0.02, 0.01}, nil)
	store.EXPECT().HasReply("TRACK_EXPENSE").Return(true)

	router := newTestRouter(t, classifier, store)
	decision := router.Route(context.Background(), "track lunch")

	req.Equal(domain.RouteLocal, decision.Route)
	req.Equal("TRACK_EXPENSE", decision.Intent)
	req.InDelta(0.95, decision.Confidence, 1e-9)
	req.NotNil(decision.Verdict)
	req.False(decision.Verdict.IsOOD)
}

func TestRouteModelUnavailable(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockClassifier(ctrl)
	store := mocks.NewMockReplyStore(ctrl)

	classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).
		Return(nil, errors.ErrModelUnavailable)

	router := newTestRouter(t, classifier, store)
	decision := router.Route(context.Background(), "hello")

	req.Equal(domain.RouteRemote, decision.Route)
	req.Contains(decision.Reason, "not loaded")
}

func TestRouteOODGoesRemote(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockClassifier(ctrl)
	store := mocks.NewMockReplyStore(ctrl)

	// Low confidence: the OOD gate must reject before the store is asked.
	classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).
		Return(domain.Prediction{0.40, 0.30, 0.20, 0.10}, nil)

	router := newTestRouter(t, classifier, store)
	decision := router.Route(context.Background(), "hello")

	req.Equal(domain.RouteRemote, decision.Route)
	req.NotNil(decision.Verdict)
	req.True(decision.Verdict.IsOOD)
	req.NotEmpty(decision.Verdict.Reasons)
}

func TestRouteNoRecognizedWords(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockClassifier(ctrl)
	store := mocks.NewMockReplyStore(ctrl)

	// Every word is out of vocabulary. Even a confident prediction must
	// be discarded: there was nothing real behind it.
	classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).
		Return(domain.Prediction{0.96, 0.02, 0.01, 0.01}, nil)

	router := newTestRouter(t, classifier, store)
	decision := router.Route(context.Background(), "xyzzy frobnicate")

	req.Equal(domain.RouteRemote, decision.Route)
	req.Equal(errors.ErrNoSignal.Error(), decision.Reason)
	req.NotNil(decision.Verdict)
	req.Equal(domain.IntentUnknown, decision.Verdict.PredictedIntent)
}

func TestRouteSentinelIntent(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockClassifier(ctrl)
	store := mocks.NewMockReplyStore(ctrl)

	classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).
		Return(domain.Prediction{0.01, 0.01, 0.97, 0.01}, nil)

	router := newTestRouter(t, classifier, store)
	decision := router.Route(context.Background(), "hello")

	req.Equal(domain.RouteRemote, decision.Route)
	req.Contains(decision.Reason, domain.IntentComplexAdvice)
}

func TestRouteNoCannedReply(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockClassifier(ctrl)
	store := mocks.NewMockReplyStore(ctrl)

	classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).
		Return(domain.Prediction{0.96, 0.02, 0.01, 0.01}, nil)
	store.EXPECT().HasReply("GREETING").Return(false)

	router := newTestRouter(t, classifier, store)
	decision := router.Route(context.Background(), "hello")

	req.Equal(domain.RouteRemote, decision.Route)
	req.Contains(decision.Reason, "no canned reply")
}

func TestOverride(t *testing.T) {
	req := require.New(t)
	local := domain.Local("GREETING", 0.75)
	highLocal := domain.Local("GREETING", 0.92)
	remote := domain.Remote("already remote")

	t.Run("web results win over local", func(t *testing.T) {
		got := Override(highLocal, "makan near klcc", 0, true)
		req.Equal(domain.RouteRemote, got.Route)
	})

	t.Run("short follow-up with modest confidence", func(t *testing.T) {
		got := Override(local, "and then?", 4, false)
		req.Equal(domain.RouteRemote, got.Route)
	})

	t.Run("short follow-up with high confidence stays local", func(t *testing.T) {
		got := Override(highLocal, "thanks!", 4, false)
		req.Equal(domain.RouteLocal, got.Route)
	})

	t.Run("short message without history stays local", func(t *testing.T) {
		got := Override(local, "hello", 0, false)
		req.Equal(domain.RouteLocal, got.Route)
	})

	t.Run("remote decisions pass through", func(t *testing.T) {
		req.Equal(remote, Override(remote, "and then?", 4, true))
	})
}
