package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/waypointhq/waypoint/adapter/cli"
	"github.com/waypointhq/waypoint/internal/app"
	"github.com/waypointhq/waypoint/pkg/config"
	"github.com/waypointhq/waypoint/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		// Commands print a helpful error instead of panicking on a nil app.
		logger.Error("failed to initialize waypoint", "error", err)
	} else {
		defer container.Close()
		container.StartOutboxProcessor(ctx)

		cli.SetApp(&cli.App{
			UserID:                       container.UserID,
			CreatePlanHandler:            container.CreatePlanHandler,
			GenerateScheduleHandler:      container.GenerateScheduleHandler,
			AnalyzeMissedDayHandler:      container.AnalyzeMissedDayHandler,
			ApplyRescheduleHandler:       container.ApplyRescheduleHandler,
			CompletePlacementHandler:     container.CompletePlacementHandler,
			SweepMissedDaysHandler:       container.SweepMissedDaysHandler,
			GetScheduleHandler:           container.GetScheduleHandler,
			ListRescheduleHistoryHandler: container.ListRescheduleHistoryHandler,
			SettingsService:              container.SettingsService,
			OAuthService:                 container.OAuthService,
		})
	}

	cli.Execute(ctx)
}
