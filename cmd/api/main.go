package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"colorbook/internal/http/handlers"
	"colorbook/internal/http/httpapi"
	"colorbook/internal/infra"
	"colorbook/internal/pipeline"
	"colorbook/internal/providers/falai"
	"colorbook/internal/publish"
	"colorbook/internal/queue"
	"colorbook/internal/quota"
	"colorbook/internal/render"
	"colorbook/internal/safety"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := publish.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure storage")
	}

	var (
		jobs       queue.Queue
		quotaStore quota.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: db connection failed")
		}
		defer pool.Close()
		jobs = queue.NewPostgres(pool)
		quotaStore = quota.NewPostgresStore(pool)
	} else {
		// No database: in-memory queue with an embedded worker, so a single
		// process serves the whole pipeline.
		logger.Warn().Msg("api: DATABASE_URL not set, running in-memory with embedded worker")
		jobs = queue.NewMemory()
		quotaStore = quota.NewMemoryStore()
	}

	quotaSvc := quota.NewService(quota.Options{
		Store:        quotaStore,
		FreeLimit:    cfg.FreeDailyLimit,
		PremiumLimit: cfg.PremiumDailyLimit,
		Logger:       logger,
	})

	if cfg.DatabaseURL == "" {
		orch := buildOrchestrator(cfg, logger, jobs, store, quotaSvc)
		worker := pipeline.NewWorker(jobs, orch, logger, cfg.WorkerPollInterval)
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("api: embedded worker stopped")
			}
		}()
	}

	app := handlers.NewApp(jobs, quotaSvc, logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		RateLimitPerMin: cfg.RateLimitPerMin,
		StaticDir:       cfg.StoragePath,
	})

	server := infra.NewHTTPServer(cfg, router)
	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func buildOrchestrator(cfg *infra.Config, logger infra.Logger, jobs queue.Queue, store publish.Store, quotaSvc *quota.Service) *pipeline.Orchestrator {
	moderator := safety.NewAnthropicModerator(safety.ModeratorOptions{
		APIKey: cfg.AnthropicAPIKey,
		Model:  cfg.AnthropicModel,
	})
	generator := falai.NewClient(falai.Options{
		BaseURL: cfg.FalBaseURL,
		APIKey:  cfg.FalKey,
		Model:   cfg.FalModel,
	})
	renderer := render.New(render.Options{
		Generator:   generator,
		Concurrency: int64(cfg.RenderConcurrency),
		Logger:      logger,
	})
	return pipeline.New(pipeline.Options{
		Filter:   safety.NewFilter(moderator, logger),
		Renderer: renderer,
		Store:    store,
		Reporter: jobs,
		Usage:    quotaSvc,
		Logger:   logger,
		Timeout:  cfg.JobTimeout,
	})
}
