package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/vinyareddy314/cms-go/internal/repository"
	"github.com/vinyareddy314/cms-go/internal/service"
	"github.com/vinyareddy314/cms-go/pkg/config"
	"github.com/vinyareddy314/cms-go/pkg/database"
	"github.com/vinyareddy314/cms-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	lessonRepo := repository.NewLessonRepository(db)
	termRepo := repository.NewTermRepository(db)
	programRepo := repository.NewProgramRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	metricsSvc := service.NewMetricsService()

	publisher := service.NewPublisherService(
		lessonRepo,
		termRepo,
		programRepo,
		assetRepo,
		db,
		metricsSvc,
		logr,
		service.PublishPolicy{AllowMissingThumbnails: cfg.Publish.AllowMissingThumbnails},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logr.Sugar().Infow("publish worker starting", "interval", cfg.Worker.Interval)
	publisher.Run(ctx, cfg.Worker.Interval)
	logr.Sugar().Infow("publish worker stopped")
}
