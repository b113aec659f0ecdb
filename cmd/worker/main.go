package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/waypointhq/waypoint/internal/app"
	"github.com/waypointhq/waypoint/internal/planning/application/commands"
	"github.com/waypointhq/waypoint/pkg/config"
	"github.com/waypointhq/waypoint/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()
	logger.Info("starting waypoint worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	container.StartOutboxProcessor(ctx)
	logger.Info("outbox processor started",
		"poll_interval", cfg.OutboxPollInterval,
		"batch_size", cfg.OutboxBatchSize,
	)

	scheduler := cron.New()

	// Nightly missed-day sweep. The swept date defaults to yesterday, which
	// is the day that just ended when the cron expression fires shortly after midnight.
	_, err = scheduler.AddFunc(cfg.MissedDaySweepSpec, func() {
		result, err := container.SweepMissedDaysHandler.Handle(ctx, commands.SweepMissedDaysCommand{})
		if err != nil {
			logger.Error("missed day sweep failed", "error", err)
			return
		}
		logger.Info("missed day sweep finished",
			slog.Int("plans_checked", result.PlansChecked),
			slog.Int("plans_missed", result.PlansMissed),
			slog.Int("plans_applied", result.PlansApplied),
			slog.Int("failures", result.Failures),
		)
	})
	if err != nil {
		logger.Error("invalid sweep schedule", "spec", cfg.MissedDaySweepSpec, "error", err)
		os.Exit(1)
	}

	_, err = scheduler.AddFunc("@daily", func() {
		deleted, err := container.OutboxRepo.DeleteOld(ctx, cfg.OutboxRetentionDays)
		if err != nil {
			logger.Error("outbox cleanup failed", "error", err)
			return
		}
		if deleted > 0 {
			logger.Info("outbox cleanup finished",
				slog.Int64("deleted", deleted),
				slog.Int("retention_days", cfg.OutboxRetentionDays),
			)
		}
	})
	if err != nil {
		logger.Error("failed to register outbox cleanup", "error", err)
		os.Exit(1)
	}

	scheduler.Start()
	logger.Info("sweep scheduler started", "spec", cfg.MissedDaySweepSpec)

	<-ctx.Done()
	cronCtx := scheduler.Stop()
	<-cronCtx.Done()
	logger.Info("waypoint worker stopped")
}
