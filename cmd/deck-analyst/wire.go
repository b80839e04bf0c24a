package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ramonehamilton/deck-analyst/internal/analysis"
	"github.com/ramonehamilton/deck-analyst/internal/cards"
	"github.com/ramonehamilton/deck-analyst/internal/cards/scryfall"
	"github.com/ramonehamilton/deck-analyst/internal/config"
	"github.com/ramonehamilton/deck-analyst/internal/curation"
	"github.com/ramonehamilton/deck-analyst/internal/inference"
	"github.com/ramonehamilton/deck-analyst/internal/llm"
	"github.com/ramonehamilton/deck-analyst/internal/logging"
	"github.com/ramonehamilton/deck-analyst/internal/metrics"
	"github.com/ramonehamilton/deck-analyst/internal/storage"
	"github.com/ramonehamilton/deck-analyst/internal/validation"
)

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	db       *storage.DB
	resolver *cards.Resolver
	tables   *curation.Store
	engine   *inference.Engine

	// service is nil when no generator could be configured.
	service *analysis.Service
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debugMode {
		cfg.App.DebugMode = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newApp wires storage, the resolver, inference and, when withGenerator is
// set, the generation pipeline.
func newApp(ctx context.Context, withGenerator bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.App.DebugMode)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, err
	}
	a.db, err = storage.Open(storage.DefaultConfig(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open card cache: %w", err)
	}

	opts := scryfall.DefaultOptions()
	opts.BaseURL = cfg.Cards.BaseURL
	opts.RateLimit = config.Duration(cfg.Cards.RateLimit)
	a.resolver = cards.NewResolver(scryfall.NewClient(opts), cards.ResolverConfig{
		MemorySize: cfg.Cards.MemorySize,
		MemoryTTL:  config.Duration(cfg.Cards.MemoryTTL),
		StaleAfter: config.Duration(cfg.Storage.CardTTL),
	},
		cards.WithStore(a.db.Cards()),
		cards.WithLogger(logger),
		cards.WithMetrics(a.metrics),
	)

	a.tables, err = curation.NewStore(cfg.Curation.TablesPath, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load curated tables: %w", err)
	}
	if cfg.Curation.Watch && cfg.Curation.TablesPath != "" {
		if err := a.tables.Watch(ctx, cfg.Curation.TablesPath); err != nil {
			logger.Warn("Curated tables watch disabled", zap.Error(err))
		}
	}

	cache := inference.NewCache(config.Duration(cfg.Inference.CacheTTL), cfg.Inference.MaxEntries, a.metrics)
	a.engine = inference.NewEngine(a.resolver, inference.WithCache(cache), inference.WithLogger(logger))

	if !withGenerator {
		return a, nil
	}

	gen, err := llm.NewGenerator(ctx, llm.ProviderConfig{
		Provider: cfg.Generation.Provider,
		APIKey:   cfg.Generation.APIKey,
		BaseURL:  cfg.Generation.BaseURL,
		Model:    cfg.Generation.Model,
	}, logger)
	if err != nil {
		logger.Warn("Analysis generation disabled", zap.Error(err))
		return a, nil
	}

	orchestrator := analysis.NewOrchestrator(gen, analysisConfig(cfg), analysis.NewInFlight(), logger, a.metrics)
	validator := validation.NewValidator(a.resolver, a.tables, logger, a.metrics)
	controller := analysis.NewRetryController(orchestrator, validator, cfg.Generation.MaxRetries, logger, a.metrics)
	a.service = analysis.NewService(a.engine, controller, logger)
	return a, nil
}

func analysisConfig(cfg *config.Config) analysis.Config {
	g := cfg.Generation
	model, fallback := llm.DefaultModels(g.Provider)
	if g.Model != "" {
		model = g.Model
	}
	if g.FallbackModel != "" {
		fallback = g.FallbackModel
	}
	return analysis.Config{
		Model:         model,
		FallbackModel: fallback,
		Style:         llm.APIStyle(g.APIStyle),
		Timeout:       config.Duration(g.Timeout),
		MaxDeckChars:  g.MaxDeckChars,
		MaxRetries:    g.MaxRetries,
		Tokens: analysis.TokenTiers{
			Small:  g.Tokens.Small,
			Medium: g.Tokens.Medium,
			High:   g.Tokens.High,
			Cap:    g.Tokens.Cap,
		},
	}
}

// Close releases the database and flushes the logger.
func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("Error closing database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
