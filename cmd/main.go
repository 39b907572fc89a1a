// @title        Generator Ledger API
// @version      1.0
// @description  Standby generator shifts, fuel and maintenance, reconciled with the spreadsheet ledger.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "time/tzdata"

	_ "generator_ledger/docs"
	"generator_ledger/internal/app"
	"generator_ledger/internal/config"
	"generator_ledger/internal/handlers"
	"generator_ledger/internal/logger"
	"generator_ledger/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.InfoLevel, logger.FormatConsole).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Open(ctx, cfg, log, app.Options{})
	if err != nil {
		log.Fatalw("failed to start", "err", err)
	}
	defer a.Close()

	services := a.Services
	apiHandler := handlers.NewHandler(services, log, cfg.Location())

	workers := startWorkers(ctx,
		services.Reconciler.Run,
		func(ctx context.Context) { services.Scheduler.Run(ctx, cfg.Shifts.SchedulerTick) },
	)

	srv := server.New(cfg.Port, apiHandler.InitRoutes())
	runHTTPServer(srv, cfg.Port, log)

	waitForShutdown(cancel, srv, workers, log)
}

// startWorkers runs each loop in its own goroutine until ctx is canceled.
func startWorkers(ctx context.Context, loops ...func(context.Context)) *sync.WaitGroup {
	var wg sync.WaitGroup
	for _, loop := range loops {
		loop := loop
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop(ctx)
		}()
	}
	return &wg
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, log *logger.Logger) {
	go func() {
		log.Infow("http_listening", "port", port)
		if err := srv.Run(); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
// The store is closed by the caller only after the workers have returned.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, workers *sync.WaitGroup, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the reconciler and the scheduler
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
	workers.Wait()
	log.Infow("workers_stopped")
}
