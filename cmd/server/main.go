package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/AsaTyr2018/VisionSuit-sub004/internal/analysis/frequency"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/analysis/pixel"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/api"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/config"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/database"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/handler"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/moderation"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/observability"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/repository"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/screening"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/service"
	"github.com/AsaTyr2018/VisionSuit-sub004/pkg/logger"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(logger.Config{
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
	})
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zlog.Sync() //nolint:errcheck

	db, err := database.Init(database.Config{Path: cfg.DBPath})
	if err != nil {
		zlog.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	metrics := observability.NewMetrics()
	analyzer := pixel.NewAnalyzer(pixel.DefaultConfig())

	scheduler := screening.NewScheduler(screening.Config{
		MaxWorkers:            cfg.Screening.MaxWorkers,
		MaxBatchSize:          cfg.Screening.MaxBatchSize,
		QueueSoftLimit:        cfg.Screening.QueueSoftLimit,
		QueueHardLimit:        cfg.Screening.QueueHardLimit,
		MaxRetries:            cfg.Screening.MaxRetries,
		Backoff:               time.Duration(cfg.Screening.BackoffMs) * time.Millisecond,
		PressureCooldown:      time.Duration(cfg.Screening.PressureCooldownMs) * time.Millisecond,
		PressureHeuristicOnly: cfg.Screening.PressureHeuristicOnly,
	}, analyzer.Analyze, zlog, metrics)

	repo := repository.NewModerationRepository(db)
	screeningService := service.NewScreeningService(
		scheduler, repo, moderationConfig(cfg.Moderation), zlog, metrics)

	router := api.SetupRouter(api.Deps{
		Config:    cfg,
		Logger:    zlog,
		Screening: handler.NewScreeningHandler(screeningService),
		Metrics:   metrics,
		Saturated: scheduler.Saturated,
	})

	server := &http.Server{
		Addr:    cfg.Port,
		Handler: router,
	}

	go func() {
		zlog.Info("Server starting", zap.String("addr", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Error("Server shutdown failed", zap.Error(err))
	}

	// Fail remaining queued analyses so no future blocks forever.
	scheduler.Close()
	zlog.Info("Server stopped")
}

// moderationConfig maps environment settings onto the aggregator's
// configuration, falling back to the built-in keyword packs for any
// category left unset.
func moderationConfig(cfg config.ModerationConfig) moderation.Config {
	packs := frequency.DefaultKeywordPacks()
	if len(cfg.AdultKeywords) > 0 {
		packs.Adult = cfg.AdultKeywords
	}
	if len(cfg.MinorKeywords) > 0 {
		packs.Minor = cfg.MinorKeywords
	}
	if len(cfg.BeastKeywords) > 0 {
		packs.Beast = cfg.BeastKeywords
	}

	return moderation.Config{
		Thresholds: moderation.Thresholds{
			Adult: cfg.AdultThreshold,
			Minor: cfg.MinorThreshold,
			Beast: cfg.BeastThreshold,
		},
		Packs:        packs,
		BypassFilter: cfg.BypassFilter,
	}
}
