package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexjc/weboptout/internal/classify"
	"github.com/alexjc/weboptout/internal/config"
	"github.com/alexjc/weboptout/internal/crawl"
	"github.com/alexjc/weboptout/internal/infrastructure/cache"
	"github.com/alexjc/weboptout/internal/infrastructure/httpclient"
	"github.com/alexjc/weboptout/internal/infrastructure/language"
	"github.com/alexjc/weboptout/internal/infrastructure/render"
	"github.com/alexjc/weboptout/internal/infrastructure/storage"
	"github.com/alexjc/weboptout/internal/logging"
	"github.com/alexjc/weboptout/internal/ports"
	"github.com/alexjc/weboptout/internal/usecase"
)

// Application wires configs to the checking use cases and owns the shared
// resources (browser, cache, database) for the process lifetime.
type Application struct {
	cfg     config.Config
	Checker *usecase.Checker
	Batch   *usecase.Batch

	browser *render.Chrome
	store   ports.ReservationStore
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	pages, err := cache.NewDisk(cfg.Cache.Dir, baseLogger.With("component", "cache"))
	if err != nil {
		return nil, fmt.Errorf("open page cache: %w", err)
	}

	fetcher, err := httpclient.NewCachingFetcher(
		httpclient.New(cfg.HTTP),
		pages,
		cfg.Cache.MemoEntries,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("wire caching fetcher: %w", err)
	}

	app := &Application{cfg: cfg}

	var renderer ports.Renderer
	if cfg.Render.Enabled {
		browser, err := render.NewChrome(ctx)
		if err != nil {
			return nil, fmt.Errorf("wire rendering fallback: %w", err)
		}
		app.browser = browser
		renderer = render.NewFallback(browser, render.Options{
			Timeout:      time.Duration(cfg.Render.Timeout),
			PollInterval: time.Duration(cfg.Render.PollInterval),
			MaxPolls:     cfg.Render.MaxPolls,
			SettleDelay:  time.Duration(cfg.Render.SettleDelay),
		}, pages, baseLogger.With("component", "render"))
	}

	if cfg.Database.Enabled {
		store, err := storage.NewSQLiteRepository(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("open reservation database: %w", err)
		}
		app.store = store
	}

	classifier := classify.New(classify.Thresholds{
		LanguageCheckLength: cfg.Classify.LanguageCheckLength,
		ShortTextLength:     cfg.Classify.ShortTextLength,
		MinLegalWords:       cfg.Classify.MinLegalWords,
		MaxExcerptLength:    cfg.Classify.MaxExcerptLength,
	}, language.Detector{}, baseLogger.With("component", "classify"))

	controller := crawl.New(fetcher, renderer, cfg.Crawl.AttemptBudget,
		baseLogger.With("component", "crawl"))

	app.Checker = usecase.NewChecker(usecase.CheckerDeps{
		Stream:     controller,
		Classifier: classifier,
		Store:      app.store,
		Logger:     baseLogger.With("component", "checker"),
	})
	app.Batch = usecase.NewBatch(app.Checker, int64(cfg.Crawl.MaxConcurrent),
		baseLogger.With("component", "batch"))

	return app, nil
}

// Close releases the shared browser and database. The reservation table is
// refreshed by the checker as verdicts complete, so closing is cheap.
func (a *Application) Close() error {
	var firstErr error
	if a.browser != nil {
		if err := a.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
