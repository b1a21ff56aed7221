package main

import (
	"os"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/cli"
	"finanzas/internal/core"
	applog "finanzas/internal/log"
	"finanzas/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting sheets-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sheets worker")
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

	mirror, err := cli.OpenMirror(ctx, logger.Logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize spreadsheet mirror", "error", err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	if err := amqpClient.DeclareQueue(cfg.AMQPReminderQueue, amqp.RoutingPaymentDue); err != nil {
		logger.Error("Failed to declare reminder queue", "error", err, "queue", cfg.AMQPReminderQueue)
		os.Exit(1)
	}

	sheetsWorker := worker.NewSheetsWorker(mirror, backendResult.Store)

	// Catch up on transactions recorded while the worker was down.
	period := core.PeriodOf(core.DateOf(time.Now().In(cfg.Location())))
	synced, err := sheetsWorker.StartupSyncCheck(ctx, period)
	if err != nil {
		logger.Error("Failed startup sync check", "error", err, "period", period.String())
	} else {
		logger.Info("Startup sync check completed", "period", period.String(), "synced", synced)
	}

	logger.Info("Consuming events", "queue", cfg.AMQPQueue, "reminder_queue", cfg.AMQPReminderQueue)
	if err := sheetsWorker.Run(ctx, amqpClient, cfg.AMQPReminderQueue); err != nil {
		logger.Error("Message consumption failed", "error", err)
		cancel()
		return
	}
	logger.Info("Sheets worker stopped")
}
