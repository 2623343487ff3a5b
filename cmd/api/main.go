package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"family-health-records/internal/adapters/auth/identity"
	"family-health-records/internal/config"
	"family-health-records/internal/platform/logger"
	"family-health-records/internal/ports/auth"
	"family-health-records/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{}).Error("invalid config", logger.Err(err))
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.AppName,
	})

	stores, closeStores, err := router.OpenStores(cfg.Storage)
	if err != nil {
		log.Error("storage init failed", map[string]any{"driver": cfg.Storage.Driver, "error": err.Error()})
		os.Exit(1)
	}
	defer func() {
		if err := closeStores(); err != nil {
			log.Warn("storage close failed", logger.Err(err))
		}
	}()

	// sin AUTH_BASE_URL => modo dev (X-Debug-User-ID / X-Debug-User-Email)
	var verifier auth.AuthVerifier
	if cfg.Auth.Enabled() {
		client, err := identity.NewClient(identity.Config{
			BaseURL: cfg.Auth.BaseURL,
			APIKey:  cfg.Auth.APIKey,
			Timeout: cfg.Auth.Timeout,
		})
		if err != nil {
			log.Error("identity client init failed", logger.Err(err))
			os.Exit(1)
		}
		verifier = identity.NewVerifier(client)
	} else {
		log.Warn("auth verifier disabled, using debug headers", nil)
	}

	app := router.New(router.Options{
		AuthVerifier:       verifier,
		Stores:             &stores,
		Logger:             log,
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		ShareLinkBaseURL:   cfg.ShareLinkBaseURL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Grants.StartRetentionJob(ctx, cfg.Retention.Interval, cfg.Retention.MaxAge)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      app.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":    srv.Addr,
			"storage": cfg.Storage.Driver,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error("server error", logger.Err(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", logger.Err(err))
	}
	log.Info("server stopped", nil)
}
