package main

import (
	"context"
	"os"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/cli"
	applog "finanzas/internal/log"
	"finanzas/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentReminder)
	logger.Info("Starting reminder-worker", "interval", cfg.ReminderInterval, "timezone", cfg.Timezone)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the reminder worker")
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger.Logger)
	defer cancel()

	backendResult, err := cli.OpenStore(ctx, logger.Logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer backendResult.Cleanup()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	processor := services.NewReminderProcessor(backendResult.Store, amqpClient)
	scheduler := services.NewReminderScheduler(processor, services.ReminderSchedulerConfig{
		Interval: cfg.ReminderInterval,
		Location: cfg.Location(),
	})

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start reminder scheduler", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		logger.Error("Reminder scheduler stop error", "error", err)
	}
	logger.Info("Reminder worker stopped")
}
