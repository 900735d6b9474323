package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/kirillkom/homestay-faq-assistant/internal/config"
	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
	"github.com/kirillkom/homestay-faq-assistant/internal/core/ports"
	"github.com/kirillkom/homestay-faq-assistant/internal/core/retrieval"
	"github.com/kirillkom/homestay-faq-assistant/internal/core/usecase"
	"github.com/kirillkom/homestay-faq-assistant/internal/infrastructure/importer/xlsx"
	"github.com/kirillkom/homestay-faq-assistant/internal/infrastructure/llm/embedcache"
	"github.com/kirillkom/homestay-faq-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/homestay-faq-assistant/internal/infrastructure/llm/openai"
	"github.com/kirillkom/homestay-faq-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/homestay-faq-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/homestay-faq-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/homestay-faq-assistant/internal/infrastructure/snapshot"
)

type Options struct {
	Service string
	Logger  *slog.Logger
	// BreakerObserver receives circuit breaker transitions, typically a metrics gauge.
	BreakerObserver resilience.StateObserver
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue      *nats.Queue
	FAQRepo    ports.FAQRepository
	MessageLog ports.MessageLogStore
	Snapshot   *snapshot.Cache

	ResponderUC *usecase.ResponderUseCase
	SearchUC    *usecase.SearchUseCase
	IndexUC     *usecase.IndexFAQUseCase
	ImportUC    *usecase.ImportFAQsUseCase

	closeOnce sync.Once
	closeFn   func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tuning, err := config.LoadTuning(cfg.RetrievalConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load retrieval tuning: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	faqRepo := postgres.NewFAQRepository(db)
	homestayRepo := postgres.NewHomestayRepository(db)
	messageLog := postgres.NewMessageLogRepository(db)

	executor := resilience.NewExecutor(
		resilience.ForProviderTimeout(cfg.ProviderTimeout),
		resilience.WithLogger(logger),
		resilience.WithStateObserver(opts.BreakerObserver),
	)

	queue, err := nats.New(cfg.NATSURL, cfg.NATSFAQSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
		ClientName:         "homestay-faq-" + opts.Service,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	embedder, synthesizer, err := newProviders(cfg, executor, logger)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}

	scorer := retrieval.NewScorer(cfg.RetrievalConfig(tuning))
	cache := snapshot.New(faqRepo, homestayRepo, cfg.SnapshotTTL)

	responderCfg := usecase.ResponderConfig{
		GreetingMessages: tuning.GreetingMessages,
		FallbackMessages: tuning.FallbackMessages,
		SystemPrompt:     tuning.SystemPrompt,
		ProviderTimeout:  cfg.ProviderTimeout,
	}

	app := &App{
		Config:     cfg,
		Logger:     logger,
		Queue:      queue,
		FAQRepo:    faqRepo,
		MessageLog: messageLog,
		Snapshot:   cache,

		ResponderUC: usecase.NewResponderUseCase(scorer, cache, embedder, synthesizer, responderCfg),
		SearchUC:    usecase.NewSearchUseCase(scorer, cache, embedder, cfg.ProviderTimeout),
		IndexUC:     usecase.NewIndexFAQUseCase(faqRepo, embedder),
		ImportUC:    usecase.NewImportFAQsUseCase(faqRepo, xlsx.NewParser(), queue),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}
	logger.Info("bootstrap_ready",
		"llm_provider", cfg.LLMProvider,
		"embeddings_enabled", embedder != nil,
		"chat_configured", synthesizer != nil,
		"similarity_threshold", scorer.Config().SimilarityThreshold,
	)
	return app, nil
}

// newProviders returns untyped nil interfaces for missing providers: a nil
// synthesizer makes the responder report missing credentials and a nil
// embedder keeps retrieval on the lexical path.
func newProviders(cfg config.Config, executor *resilience.Executor, logger *slog.Logger) (ports.Embedder, ports.AnswerSynthesizer, error) {
	var (
		embedder    ports.Embedder
		synthesizer ports.AnswerSynthesizer
	)

	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "", "ollama":
		client := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.WithExecutor(executor))
		embedder = ollama.NewEmbedder(client)
		synthesizer = ollama.NewSynthesizer(client)
	case "openai":
		client, err := openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIChatModel, cfg.OpenAIEmbedModel, openai.WithExecutor(executor))
		if err != nil {
			if !domain.IsKind(err, domain.ErrConfiguration) {
				return nil, nil, fmt.Errorf("init openai client: %w", err)
			}
			logger.Warn("llm_provider_not_configured", "provider", "openai", "error", err)
			return nil, nil, nil
		}
		embedder = openai.NewEmbedder(client)
		synthesizer = openai.NewSynthesizer(client)
	default:
		return nil, nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}

	if !cfg.EmbeddingsEnabled {
		return nil, synthesizer, nil
	}
	return embedcache.New(embedder, cfg.EmbedCacheSize, cfg.EmbedCacheTTL), synthesizer, nil
}

func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.closeFn != nil {
			a.closeFn()
		}
	})
}
