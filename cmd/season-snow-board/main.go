package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/i474232898/season-snow-board/internal/api/http"
	"github.com/i474232898/season-snow-board/internal/board"
	"github.com/i474232898/season-snow-board/internal/config"
	"github.com/i474232898/season-snow-board/internal/scheduler"
	"github.com/i474232898/season-snow-board/internal/snow"
	"github.com/i474232898/season-snow-board/internal/snow/providers"
	"github.com/i474232898/season-snow-board/internal/store"
	"github.com/i474232898/season-snow-board/internal/vestaboard"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Set up logger
	var logger *zap.Logger
	if cfg.Env == "dev" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("error: %v", err)
	}
	sugar := logger.Sugar()

	if err := run(cfg, sugar); err != nil {
		sugar.Errorw("season-snow-board: run failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(cfg *config.AppConfig, logger *zap.SugaredLogger) error {
	totalsStore, closeStore, err := store.Open(cfg.StoreDriver, cfg.DataFile, cfg.Resorts)
	if err != nil {
		return err
	}
	defer closeStore()

	policy, err := snow.PolicyByName(cfg.SeasonStartPolicy)
	if err != nil {
		return err
	}

	// Open-Meteo gets one attempt per resort, each resort behind its own breaker.
	provider := providers.NewOpenMeteoProvider(providers.HTTPClientConfig{
		Client: &http.Client{Timeout: cfg.FetchTimeout},
	}, cfg.OpenMeteoURL, cfg.OpenMeteoTimezone)

	labels := make([]string, 0, len(cfg.Resorts))
	for _, r := range cfg.Resorts {
		labels = append(labels, r.Name)
	}
	formatter, err := board.NewFormatter(labels, cfg.DisplayLocation)
	if err != nil {
		return err
	}

	var publisher snow.Publisher
	if !cfg.DryRun {
		publisher = vestaboard.NewClient(&http.Client{Timeout: cfg.PublishTimeout}, cfg.VestaboardURL, cfg.VestaboardKey)
	}

	service := snow.NewService(cfg.Resorts, totalsStore, provider, formatter, publisher, logger, snow.Options{
		DryRun: cfg.DryRun,
		Policy: policy,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule == "" {
		_, err := service.Run(ctx)
		return err
	}
	return serve(ctx, cfg, service, logger)
}

// serve keeps the process alive: scheduled runs plus the status API.
func serve(ctx context.Context, cfg *config.AppConfig, service *snow.Service, logger *zap.SugaredLogger) error {
	runTimeout := time.Duration(len(cfg.Resorts))*cfg.FetchTimeout + cfg.PublishTimeout + 10*time.Second

	sched := scheduler.New(cfg.Schedule, cfg.DisplayLocation, runTimeout, service, logger)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := httpapi.NewApp()
	httpapi.RegisterRoutes(app, service)

	logger.Infow("season-snow-board: listening", "port", cfg.Port)
	if err := httpapi.Serve(ctx, app, ":"+cfg.Port); err != nil {
		return err
	}
	logger.Info("season-snow-board: shutdown OK")
	return nil
}
