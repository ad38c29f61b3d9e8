package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"beruang/classifier"
	"beruang/contract"
	apperrors "beruang/errors"
	"beruang/internal"
	"beruang/knowledge"
	"beruang/llm"
	"beruang/observability"
	"beruang/ood"
	"beruang/routing"
	"beruang/search"
	"beruang/server"
	"beruang/stream"
	"beruang/workers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so deferred cleanup always executes.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrConfig, err)
	}
	log := internal.LoggerFromString(config.LogLevel)

	// 2. Model metadata (fatal at startup, never at request time)
	meta, err := classifier.LoadMetadata(config.ModelMetadataPath)
	if err != nil {
		return err
	}
	labels, err := meta.Labels()
	if err != nil {
		return err
	}

	adapter := classifier.NewAdapter(log)
	adapter.Load(
		classifier.NewHashingEmbedder(meta.FeatureSize, meta.Vocab()),
		classifier.NewLinearModel(meta.Weights, meta.Bias),
	)

	var txn contract.TransactionClassifier
	if config.TransactionMetadataPath != "" {
		txnMeta, err := classifier.LoadTransactionMetadata(config.TransactionMetadataPath)
		if err != nil {
			return err
		}
		txnModel := classifier.NewTransactionModel(log)
		if err := txnModel.Load(txnMeta); err != nil {
			return err
		}
		txn = txnModel
	} else {
		log.Warn("TRANSACTION_METADATA_PATH not set, expense categorisation disabled")
	}

	// 3. Routing pipeline
	prefilter, err := routing.NewPrefilter()
	if err != nil {
		return fmt.Errorf("building pre-filter: %w", err)
	}
	detector := ood.NewDetector(ood.Config{DecisionThreshold: config.OODDecisionThreshold})

	store, err := knowledge.NewStore(log)
	if err != nil {
		return fmt.Errorf("loading knowledge base: %w", err)
	}
	tips, err := knowledge.NewTipsIndex(log)
	if err != nil {
		return fmt.Errorf("indexing expert tips: %w", err)
	}
	defer func() {
		log.Info("Closing tips index...")
		_ = tips.Close()
	}()

	router := routing.NewRouter(log, prefilter, adapter, detector, store, meta.Vocab(), labels)

	// 4. Optional collaborators
	var searcher contract.PlaceSearcher
	if config.TavilyAPIKey != "" {
		opts := badger.DefaultOptions(config.SearchCachePath).WithLoggingLevel(badger.WARNING)
		if config.SearchCachePath == "" {
			opts = opts.WithInMemory(true)
		}
		db, err := badger.Open(opts)
		if err != nil {
			return fmt.Errorf("opening search cache: %w", err)
		}
		defer func() {
			log.Info("Closing search cache...")
			_ = db.Close()
		}()
		searcher = search.NewService(log, config.TavilyAPIKey, search.NewCache(db, log))
	} else {
		log.Warn("TAVILY_API_KEY not set, web search disabled")
	}

	var llmClient, grounded contract.LLMClient
	if config.AnthropicAPIKey != "" {
		client := llm.NewAnthropic(config.AnthropicAPIKey, config.LLMModel)
		llmClient = client
		grounded = client.Grounded()
	} else {
		log.Warn("ANTHROPIC_API_KEY not set, remote answers disabled")
	}

	// 5. Orchestration & observability
	orch := stream.NewOrchestrator(log, stream.Config{
		TokenDelay:        config.TokenDelay,
		HeartbeatInterval: config.HeartbeatInterval,
	}, router, store, tips, searcher, llmClient, grounded)

	metrics := observability.NewManager(log)
	reporter := observability.NewReporter(log, metrics, config.StatsInterval)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Supervise the long-running loops until shutdown
	srv := server.New(log, orch, adapter, txn, metrics, fmt.Sprintf("%s:%d", config.Host, config.Port))
	sup := workers.NewSupervisor(log)
	sup.Add(srv, reporter).Run(ctx)

	log.Info("Program stopped cleanly")
	return nil
}
