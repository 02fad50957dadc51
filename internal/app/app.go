// Package app wires configuration, clients, storage, and services.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/bobmcallan/tenk/internal/clients/edgar"
	"github.com/bobmcallan/tenk/internal/clients/gemini"
	"github.com/bobmcallan/tenk/internal/common"
	"github.com/bobmcallan/tenk/internal/interfaces"
	"github.com/bobmcallan/tenk/internal/segment"
	"github.com/bobmcallan/tenk/internal/services/company"
	"github.com/bobmcallan/tenk/internal/services/filing"
	"github.com/bobmcallan/tenk/internal/storage"
)

// App holds all application dependencies.
type App struct {
	Config *common.Config
	Logger *common.Logger

	Store interfaces.SectionStore
	Edgar interfaces.EdgarClient

	// Composer is nil when no API key is configured; handlers degrade to 503.
	Composer interfaces.ComposerClient

	FilingService  interfaces.FilingService
	CompanyService interfaces.CompanyService
}

// NewApp creates the application with all dependencies wired.
func NewApp(ctx context.Context, cfg *common.Config) (*App, error) {
	logger := common.NewLoggerFromConfig(cfg.Logging)

	store, err := storage.NewSectionStore(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	edgarClient := edgar.NewClient(cfg.Clients.Edgar.UserAgent,
		edgar.WithBaseURL(cfg.Clients.Edgar.BaseURL),
		edgar.WithArchiveURL(cfg.Clients.Edgar.ArchiveURL),
		edgar.WithTickerFileURL(cfg.Clients.Edgar.TickerFileURL),
		edgar.WithRateLimit(cfg.Clients.Edgar.RateLimit),
		edgar.WithTimeouts(cfg.Clients.Edgar.GetConnectTimeout(), cfg.Clients.Edgar.GetReadTimeout()),
		edgar.WithMaxFilingSize(cfg.Clients.Edgar.MaxFilingSize()),
		edgar.WithLogger(logger),
	)

	var composer interfaces.ComposerClient
	apiKey := cfg.Clients.Gemini.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey != "" {
		opts := []gemini.ClientOption{gemini.WithLogger(logger)}
		if cfg.Clients.Gemini.Model != "" {
			opts = append(opts, gemini.WithModel(cfg.Clients.Gemini.Model))
		}
		client, err := gemini.NewClient(ctx, apiKey, opts...)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		composer = client
	} else {
		logger.Warn().Msg("No Gemini API key configured, analysis and chat endpoints disabled")
	}

	segmenter := segment.NewSegmenter(
		cfg.Segmenter.MinSectionLength,
		cfg.Segmenter.MaxSectionLength,
		cfg.Segmenter.MaxSpanLength,
	)

	app := &App{
		Config:         cfg,
		Logger:         logger,
		Store:          store,
		Edgar:          edgarClient,
		Composer:       composer,
		FilingService:  filing.NewService(edgarClient, store, segmenter, logger),
		CompanyService: company.NewService(edgarClient, logger),
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("storage", cfg.Storage.Backend).
		Bool("composer", composer != nil).
		Msg("Application initialized")

	return app, nil
}

// Close releases application resources.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
