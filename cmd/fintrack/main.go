package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/session"
)

// reapInterval is how often idle sessions are torn down.
const reapInterval = time.Minute

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting fintrack",
		"port", cfg.Port,
		log.FieldBackend, cfg.LedgerBackend,
		"events", cfg.EventsBackend)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backends", log.FieldError, err)
		os.Exit(1)
	}

	sessions := session.NewManager(res.Stores, session.Options{
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.SessionMax,
	}, logger)

	reaper := cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())
	reaper.Register(sessions)

	srv := apphttp.NewServer(":"+cfg.Port, sessions, res.Publisher, logger, apphttp.Config{
		CurrencySymbol:     cfg.CurrencySymbol,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              res.Ping,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		reaper.Run(reapInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		err := srv.Shutdown(shutdownCtx)
		reaper.Stop()
		return err
	})

	exitCode := 0
	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		exitCode = 1
	}

	// In-flight requests are done; drop every ledger before the storage goes.
	n := sessions.Shutdown()
	logger.Info("Sessions closed", "count", n)

	if err := res.Cleanup(); err != nil {
		logger.Error("Backend cleanup failed", log.FieldError, err)
		exitCode = 1
	}

	logger.Info("Server stopped")
	os.Exit(exitCode)
}
