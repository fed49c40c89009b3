package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

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

	// A standalone worker needs the shared queue, so the database is not
	// optional here the way it is for the API.
	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("worker: DATABASE_URL is required")
	}
	if cfg.FalKey == "" {
		logger.Fatal().Msg("worker: FAL_KEY is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	store, err := publish.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	jobs := queue.NewPostgres(pool)
	quotaSvc := quota.NewService(quota.Options{
		Store:        quota.NewPostgresStore(pool),
		FreeLimit:    cfg.FreeDailyLimit,
		PremiumLimit: cfg.PremiumDailyLimit,
		Logger:       logger,
	})

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

	orch := pipeline.New(pipeline.Options{
		Filter:   safety.NewFilter(moderator, logger),
		Renderer: renderer,
		Store:    store,
		Reporter: jobs,
		Usage:    quotaSvc,
		Logger:   logger,
		Timeout:  cfg.JobTimeout,
	})

	worker := pipeline.NewWorker(jobs, orch, logger, cfg.WorkerPollInterval)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
