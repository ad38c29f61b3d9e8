// Package stream delivers one chat turn to the client as an event stream:
// an immediate thinking frame, token frames at typing cadence (local) or
// relayed verbatim (remote), heartbeats while a remote stream is open, and
// a single terminal done or error frame.
package stream

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"beruang/budget"
	"beruang/contract"
	"beruang/domain"
	"beruang/errors"
	"beruang/llm"
	"beruang/routing"
)

// Config tunes the delivery timing. Zero values fall back to defaults.
type Config struct {
	// TokenDelay is the pause between consecutive local token frames.
	TokenDelay time.Duration
	// HeartbeatInterval paces keep-alive frames during a remote relay.
	HeartbeatInterval time.Duration
	// PartialAfterBytes is how much relayed content makes a premature
	// remote termination a soft success instead of an error.
	PartialAfterBytes int
}

func DefaultConfig() Config {
	return Config{
		TokenDelay:        30 * time.Millisecond,
		HeartbeatInterval: 15 * time.Second,
		PartialAfterBytes: 20,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TokenDelay <= 0 {
		c.TokenDelay = def.TokenDelay
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.PartialAfterBytes <= 0 {
		c.PartialAfterBytes = def.PartialAfterBytes
	}
	return c
}

// Orchestrator runs the full turn: concurrent context gathering, the
// routing decision, then local emission or remote relay. The tips finder,
// searcher and LLM clients are optional; a nil collaborator simply
// contributes nothing.
type Orchestrator struct {
	log      *slog.Logger
	cfg      Config
	router   contract.Router
	store    contract.KnowledgeStore
	tips     contract.TipsFinder
	searcher contract.PlaceSearcher
	llm      contract.LLMClient
	grounded contract.LLMClient
}

func NewOrchestrator(
	log *slog.Logger,
	cfg Config,
	router contract.Router,
	store contract.KnowledgeStore,
	tips contract.TipsFinder,
	searcher contract.PlaceSearcher,
	llmClient contract.LLMClient,
	grounded contract.LLMClient,
) *Orchestrator {
	return &Orchestrator{
		log:      log,
		cfg:      cfg.withDefaults(),
		router:   router,
		store:    store,
		tips:     tips,
		searcher: searcher,
		llm:      llmClient,
		grounded: grounded,
	}
}

// gathered holds the outcome of the concurrent context tasks. Each task
// writes its own field and the fields are only read after the join, so no
// locking is needed. A failed task leaves its field zero.
type gathered struct {
	tips []domain.Tip
	web  *domain.SearchResult
}

func (o *Orchestrator) gather(ctx context.Context, message string) gathered {
	var g gathered
	var wg sync.WaitGroup

	if o.tips != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer o.recoverTask("expert tips")
			tips, err := o.tips.RelevantTips(ctx, message)
			if err != nil {
				o.log.Warn("Tips lookup failed, continuing without", "err", err)
				return
			}
			g.tips = tips
		}()
	}

	if o.searcher != nil && o.searcher.IsLocationQuery(message) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer o.recoverTask("web search")
			result, err := o.searcher.Search(ctx, message)
			if err != nil {
				o.log.Warn("Web search failed, continuing without", "err", err)
				return
			}
			g.web = result
		}()
	}

	wg.Wait()
	return g
}

func (o *Orchestrator) recoverTask(name string) {
	if r := recover(); r != nil {
		o.log.Error("Context task panicked, continuing without", "task", name, "panic", r)
	}
}

// Run delivers one turn to sink. A sink error means the client is gone and
// always surfaces as ErrStreamInterrupted. Failures during delivery emit a
// terminal error frame before returning, so the client never hangs.
func (o *Orchestrator) Run(ctx context.Context, req domain.ChatRequest, sink contract.EventSink) error {
	start := time.Now()
	if strings.TrimSpace(req.Message) == "" {
		return errors.ErrEmptyMessage
	}

	if err := sink.Consume(ctx, domain.Thinking()); err != nil {
		return errors.ErrStreamInterrupted
	}

	decision, g := o.route(ctx, req)

	if decision.Route == domain.RouteLocal {
		if reply, ok := o.store.Reply(decision.Intent); ok {
			return o.emitLocal(ctx, sink, reply, decision.Intent, start)
		}
		decision = domain.Remote("no canned reply for " + decision.Intent)
	}
	return o.relayRemote(ctx, req, g, sink, start)
}

// Answer is the non-streaming fallback: one synchronous call returning the
// final text and the source that produced it.
func (o *Orchestrator) Answer(ctx context.Context, req domain.ChatRequest) (string, string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", "", errors.ErrEmptyMessage
	}

	decision, g := o.route(ctx, req)

	if decision.Route == domain.RouteLocal {
		if reply, ok := o.store.Reply(decision.Intent); ok {
			return reply, domain.RouteLocal.String(), nil
		}
	}

	client := o.pickClient(g)
	if client == nil {
		return "", "", errors.ErrNoRemoteClient
	}
	text, err := client.Chat(ctx, o.promptMessages(req, g))
	if err != nil {
		return "", "", err
	}
	return text, domain.RouteRemote.String(), nil
}

// route runs context gathering concurrently with the base routing
// decision, joins, then applies the caller-side overrides.
func (o *Orchestrator) route(ctx context.Context, req domain.ChatRequest) (domain.Decision, gathered) {
	var (
		g  gathered
		wg sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		g = o.gather(ctx, req.Message)
	}()
	decision := o.router.Route(ctx, req.Message)
	wg.Wait()

	return routing.Override(decision, req.Message, len(req.History), g.web != nil), g
}

// emitLocal streams the canned reply word by word at typing cadence.
func (o *Orchestrator) emitLocal(ctx context.Context, sink contract.EventSink, reply, intent string, start time.Time) error {
	words := strings.Fields(reply)
	for i, word := range words {
		if i > 0 {
			select {
			case <-ctx.Done():
				return errors.ErrStreamInterrupted
			case <-time.After(o.cfg.TokenDelay):
			}
		}
		if err := sink.Consume(ctx, domain.Token(word+" ")); err != nil {
			return errors.ErrStreamInterrupted
		}
	}
	return sink.Consume(ctx, o.doneEvent(domain.RouteLocal, intent, start, false))
}

// relayRemote opens the upstream token stream and relays each chunk as a
// token frame, with heartbeats interleaved so intermediaries never time
// out. Heartbeats never reorder tokens; chunks are relayed in generation
// order from a single channel.
func (o *Orchestrator) relayRemote(ctx context.Context, req domain.ChatRequest, g gathered, sink contract.EventSink, start time.Time) error {
	client := o.pickClient(g)
	if client == nil {
		_ = sink.Consume(ctx, o.errorEvent(errors.ErrNoRemoteClient))
		return errors.ErrNoRemoteClient
	}

	tokens, err := client.Stream(ctx, o.promptMessages(req, g))
	if err != nil {
		o.log.Error("Opening remote stream failed", "err", err)
		_ = sink.Consume(ctx, o.errorEvent(err))
		return err
	}
	defer tokens.Close()

	heartbeat := time.NewTicker(o.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	chunks := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(chunks)
		for tokens.Next() {
			select {
			case chunks <- tokens.Current():
			case <-ctx.Done():
				return
			}
		}
		errc <- tokens.Err()
	}()

	var streamed int
	for {
		select {
		case <-ctx.Done():
			return errors.ErrStreamInterrupted

		case <-heartbeat.C:
			if err := sink.Consume(ctx, domain.Heartbeat()); err != nil {
				return errors.ErrStreamInterrupted
			}

		case chunk, open := <-chunks:
			if !open {
				var streamErr error
				select {
				case streamErr = <-errc:
				default:
				}
				if streamErr != nil && streamed <= o.cfg.PartialAfterBytes {
					o.log.Error("Remote stream failed before meaningful content", "err", streamErr)
					_ = sink.Consume(ctx, o.errorEvent(streamErr))
					return streamErr
				}
				if streamErr != nil {
					o.log.Warn("Remote stream ended early, content already delivered",
						"err", streamErr, "streamed_bytes", streamed)
				}
				return sink.Consume(ctx, o.doneEvent(domain.RouteRemote, domain.IntentComplexAdvice, start, streamErr != nil))
			}
			streamed += len(chunk)
			if err := sink.Consume(ctx, domain.Token(chunk)); err != nil {
				return errors.ErrStreamInterrupted
			}
		}
	}
}

// pickClient prefers the grounded low-temperature client when real web
// results are part of the prompt.
func (o *Orchestrator) pickClient(g gathered) contract.LLMClient {
	if g.web != nil && o.grounded != nil {
		return o.grounded
	}
	return o.llm
}

// promptMessages assembles the remote prompt: truncated history plus the
// user turn augmented with every context block gathered for this request.
func (o *Orchestrator) promptMessages(req domain.ChatRequest, g gathered) []domain.PromptMessage {
	now := time.Now()
	pctx := llm.PromptContext{
		Profile:       req.UserProfile,
		BudgetContext: req.BudgetContext,
		Transactions:  req.Transactions,
		Tips:          g.tips,
		WebResults:    g.web,
		Now:           now,
	}

	if pctx.BudgetContext == "" && req.UserProfile != nil && req.UserProfile.MonthlyIncome > 0 && len(req.Transactions) > 0 {
		snapshot := budget.Compute(budgetTransactions(req.Transactions), req.UserProfile.MonthlyIncome, now)
		pctx.BudgetContext = snapshot.FormatForPrompt()
	}
	if o.store != nil {
		state := ""
		if req.UserProfile != nil {
			state = req.UserProfile.State
		}
		pctx.DosmContext = o.store.DosmData(state)
	}

	return llm.BuildMessages(req.Message, req.History, pctx)
}

func budgetTransactions(transactions []domain.Transaction) []budget.Transaction {
	return lo.Map(transactions, func(t domain.Transaction, _ int) budget.Transaction {
		return budget.Transaction{
			Date:     t.Date,
			Name:     t.Name,
			Amount:   t.Amount,
			Type:     t.Type,
			Category: t.Category,
		}
	})
}

func (o *Orchestrator) doneEvent(source domain.Route, intent string, start time.Time, partial bool) domain.StreamEvent {
	return domain.StreamEvent{
		Type:           domain.EventDone,
		Source:         source.String(),
		Intent:         intent,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		Partial:        partial,
	}
}

func (o *Orchestrator) errorEvent(err error) domain.StreamEvent {
	o.log.Debug("Emitting terminal error frame", "err", err)
	return domain.StreamEvent{
		Type:    domain.EventError,
		Error:   "stream failed",
		Message: "Aiyah, something broke on my end 🐻💔 Try again?",
	}
}
