// Command server runs the SMS labeling service: HTTP control surface
// over the rule/model classification pipeline and its embedded store.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/smilemakc/smslabel/internal/batch"
	"github.com/smilemakc/smslabel/internal/config"
	"github.com/smilemakc/smslabel/internal/infrastructure/api/rest"
	"github.com/smilemakc/smslabel/internal/infrastructure/logger"
	"github.com/smilemakc/smslabel/internal/provider"
	"github.com/smilemakc/smslabel/internal/settings"
	"github.com/smilemakc/smslabel/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.Logging)
	logger.SetDefault(appLogger)

	appLogger.Info("starting smslabel server", "port", cfg.Server.Port, "db", cfg.Database.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg.Database.Path, appLogger.Slog())
	if err != nil {
		appLogger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	buildProvider := func() (provider.Provider, error) {
		f, _, err := settings.Load(cfg.Batch.SettingsPath)
		if err != nil {
			return nil, err
		}
		return provider.Build(f.Provider.ToProviderSettings())
	}

	executor := batch.New(st, buildProvider, cfg.Batch.LogDir, appLogger.Slog())

	srv := rest.New(cfg, appLogger, st, executor, buildProvider)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		appLogger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		appLogger.Info("shutdown initiated", "signal", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("graceful shutdown failed", "error", err)
		}
	}

	appLogger.Info("server stopped")
}
