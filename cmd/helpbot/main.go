package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/adapters/embedding"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/adapters/filewatcher"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/adapters/holidays"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/adapters/llm"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/adapters/loader"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/adapters/parser"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/adapters/session"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/adapters/transcript"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/adapters/vectordb"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/usecases"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/workdays"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/infrastructure/cli"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/infrastructure/config"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/infrastructure/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Build: buildRuntime,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		},
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

// buildRuntime wires the application from configuration.
func buildRuntime(ctx context.Context, opts cli.BuildOptions) (*cli.Runtime, error) {
	cfg, err := config.Load(opts.ConfigPath, opts.ConfigRequired)
	if err != nil {
		return nil, err
	}
	if opts.StoreBackend != "" {
		cfg.Store.Backend = opts.StoreBackend
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	holidaySet, err := holidays.England(cfg.Holidays.FromYear, cfg.Holidays.ToYear)
	if err != nil {
		return nil, fmt.Errorf("building holiday calendar: %w", err)
	}
	logger.Debug("holiday calendar loaded",
		zap.Int("from", cfg.Holidays.FromYear),
		zap.Int("to", cfg.Holidays.ToYear),
		zap.Int("days", holidaySet.Len()))

	dates := usecases.NewOptOutCalculator(parser.NewDateParser(), workdays.NewCalendar(holidaySet), time.Now, logger)

	rt := &cli.Runtime{
		Config: cfg,
		Logger: logger,
		Dates:  dates,
		Close: func() error {
			logger.Sync()
			return nil
		},
	}
	if opts.DatesOnly {
		return rt, nil
	}

	if err := cfg.Credentials(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := newVectorStore(cfg)
	if err != nil {
		return nil, err
	}
	rt.Close = func() error {
		err := closeStore()
		logger.Sync()
		return err
	}

	completions := newCompletionService(cfg, logger)
	sessions := session.NewStore(cfg.SessionWindow(), nil)
	sink := transcript.NewZapSink(logger)

	ingest := usecases.NewIngestUseCase(embedder, store, usecases.IngestConfig{
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
		BatchSize:    cfg.Ingest.BatchSize,
		Concurrency:  cfg.Ingest.Concurrency,
		Categories:   cfg.Ingest.Categories,
	}, logger)

	rt.Chat = usecases.NewChatUseCase(usecases.ChatDeps{
		Conversations: sessions,
		Dates:         dates,
		Retriever:     usecases.NewSearchUseCase(embedder, store),
		Assembler:     usecases.NewContextAssembler(cfg.Context.HistoryTurns, cfg.Context.TurnCharLimit),
		Answers:       usecases.NewAnswerPromptBuilder(completions, nil),
		Followups:     usecases.NewFollowupPredictor(completions, logger),
		Transcripts:   sink,
		Logger:        logger,
	}, usecases.ChatConfig{
		Category: cfg.Retrieval.Category,
		TopN:     cfg.Retrieval.TopN,
	})
	rt.Sessions = sessions
	rt.Transcripts = sink
	rt.Reindexer = usecases.NewReindexer(loader.NewArticleLoader(logger), ingest, logger)
	rt.NewWatcher = func() (ports.FileWatcher, error) {
		return filewatcher.NewFSNotifyWatcher(cfg.WatchDebounce(), logger)
	}

	logger.Info("helpbot ready",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("store", cfg.Store.Backend))

	return rt, nil
}

func newEmbedder(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.EmbeddingService, error) {
	if cfg.Embedding.Provider == config.EmbeddingGenAI {
		return embedding.NewGenAIAdapter(ctx, embedding.GenAIOptions{
			APIKey:     cfg.Embedding.APIKey,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			BaseURL:    cfg.Embedding.BaseURL,
		}, logger)
	}
	return embedding.NewOllamaAdapter(cfg.Embedding.BaseURL, cfg.Embedding.Model, logger), nil
}

func newVectorStore(cfg *config.Config) (ports.VectorStore, func() error, error) {
	if cfg.Store.Backend == config.StoreMemory {
		return vectordb.NewInMemoryStore(), func() error { return nil }, nil
	}
	store, err := vectordb.NewSQLiteStore(cfg.Store.DataPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening vector store: %w", err)
	}
	return store, store.Close, nil
}

func newCompletionService(cfg *config.Config, logger *zap.Logger) ports.CompletionService {
	observer := llm.NewZapObserver(logger.Named("llm"))
	if cfg.LLM.Provider == llm.ProviderOllama {
		return llm.NewOllamaClient(cfg.LLM, observer)
	}
	return llm.NewOpenAIClient(cfg.LLM, observer)
}
