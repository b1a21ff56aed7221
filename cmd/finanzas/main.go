package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"finanzas/internal/cache"
	"finanzas/internal/cli"
	"finanzas/internal/core"
	apphttp "finanzas/internal/http"
	applog "finanzas/internal/log"
	"finanzas/internal/services"
)

// pinger is implemented by the stores that can check their connection.
type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)
	logger.Info("Starting finanzas server", "backend", cfg.DataBackend, "port", cfg.Port)

	ctx, cancel := cli.SignalContext(logger.Logger)
	defer cancel()

	backendResult, err := cli.OpenStore(ctx, logger.Logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := backendResult.Cleanup(); err != nil {
			logger.Error("Failed to close data backend", "error", err)
		}
	}()
	store := backendResult.Store

	dashboardCache := cache.NewOwnerLRU[core.Dashboard](cfg.DashboardCacheSize, cfg.DashboardCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(dashboardCache)
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	dashboard := services.NewDashboardService(store, dashboardCache)

	// A nil *amqp.Client must not reach the service as a non-nil interface.
	var publisher services.EventPublisher
	if amqpClient := cli.ConnectAMQP(logger.Logger, cfg); amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	svc := apphttp.Services{
		Transactions: services.NewTransactionService(store, publisher, dashboard),
		Planning:     services.NewPlanningService(store, dashboard),
		Dashboard:    dashboard,
	}
	if p, ok := store.(pinger); ok {
		svc.Ready = p.Ping
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               net.JoinHostPort("", cfg.Port),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		MetricsEnabled:     cfg.MetricsEnabled,
		Location:           cfg.Location(),
	}, svc, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		cancel()
		return
	}
	logger.Info("Server stopped gracefully")
}
