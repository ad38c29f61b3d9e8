package routing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"beruang/contract"
	"beruang/domain"
	"beruang/errors"
	"beruang/normalize"
	"beruang/ood"
)

// shortFollowUpLen is the message length under which a turn with prior
// history is treated as a follow-up that needs conversation context.
const shortFollowUpLen = 20

// highConfidence is the bar a local decision must clear to survive the
// short-follow-up override.
const highConfidence = 0.80

const prefilterReason = "complex query pre-filter"

// Router combines the pre-filter, the classifier, the OOD gate and the
// canned-reply store into one routing decision per request.
type Router struct {
	log        *slog.Logger
	prefilter  *Prefilter
	classifier contract.Classifier
	detector   *ood.Detector
	store      contract.ReplyStore
	vocab      domain.VocabMeta
	labels     domain.Labels
}

func NewRouter(
	log *slog.Logger,
	prefilter *Prefilter,
	classifier contract.Classifier,
	detector *ood.Detector,
	store contract.ReplyStore,
	vocab domain.VocabMeta,
	labels domain.Labels,
) *Router {
	return &Router{
		log:        log,
		prefilter:  prefilter,
		classifier: classifier,
		detector:   detector,
		store:      store,
		vocab:      vocab,
		labels:     labels,
	}
}

// Route produces the base routing decision. The classifier is never
// invoked for prefiltered messages; every failure path degrades to a
// remote decision rather than an error.
func (r *Router) Route(ctx context.Context, message string) domain.Decision {
	if r.prefilter.ShouldEscalate(message) {
		r.log.Info("Pre-filter escalation", "message", message)
		decision := domain.Remote(prefilterReason)
		decision.Confidence = 1.0
		decision.Prefiltered = true
		return decision
	}

	prediction, err := r.classifier.Classify(ctx, message)
	if err != nil {
		r.log.Warn("Classifier unavailable, routing remote", "err", err)
		return domain.Remote(errors.ErrModelUnavailable.Error())
	}

	sequence := normalize.Normalize(message, r.vocab)
	verdict := r.detector.Detect(message, sequence, prediction, r.labels)

	decision := r.decide(verdict)
	decision.Verdict = &verdict

	r.log.Info("Routing decision",
		"intent", verdict.PredictedIntent,
		"confidence", fmt.Sprintf("%.2f", verdict.Confidence),
		"ood", verdict.IsOOD,
		"route", decision.Route.String(),
		"reasons", strings.Join(verdict.Reasons, ", "))

	return decision
}

func (r *Router) decide(verdict domain.OODVerdict) domain.Decision {
	if verdict.IsOOD {
		if verdict.PredictedIntent == domain.IntentUnknown {
			return domain.Remote(errors.ErrNoSignal.Error())
		}
		reason := "out of distribution"
		if len(verdict.Reasons) > 0 {
			reason = verdict.Reasons[0]
		}
		return domain.Remote(reason)
	}

	intent := verdict.PredictedIntent
	if intent == domain.IntentComplexAdvice || intent == domain.IntentGarbage {
		return domain.Remote("sentinel intent " + intent)
	}
	if !r.store.HasReply(intent) {
		return domain.Remote("no canned reply for " + intent)
	}
	return domain.Local(intent, verdict.Confidence)
}

// Override is the caller-side policy composed on top of the base decision.
// A local answer is discarded when external search results should take
// priority, or when a short follow-up continues prior conversation and the
// local confidence is not high.
func Override(decision domain.Decision, message string, historyLen int, hasWebResults bool) domain.Decision {
	if decision.Route != domain.RouteLocal {
		return decision
	}
	if hasWebResults {
		return domain.Remote("web search results take priority")
	}
	isShortFollowUp := len(strings.TrimSpace(message)) < shortFollowUpLen && historyLen > 0
	if isShortFollowUp && decision.Confidence < highConfidence {
		return domain.Remote("short follow-up needs conversation context")
	}
	return decision
}
