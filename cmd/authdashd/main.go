package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucaspires-source/authdash/internal/config"
	"github.com/lucaspires-source/authdash/internal/directory"
	"github.com/lucaspires-source/authdash/internal/kvstore"
	"github.com/lucaspires-source/authdash/internal/logger"
	"github.com/lucaspires-source/authdash/internal/server"
)

func main() {
	if err := run(); err != nil {
		logger.Error("%v", err)
		logger.Close()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}

	lvl, _ := logger.ParseLevel(cfg.LogLevel)
	logger.SetLevel(lvl)
	if err := logger.Init(cfg.DataDir); err != nil {
		logger.Warn("File logging disabled: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}
	store, err := kvstore.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return err
	}
	defer store.Close()

	dir, err := directory.New(cfg.Directory.BaseURL, directory.Options{
		HTTPClient: &http.Client{Timeout: cfg.Directory.Timeout},
		APIKey:     cfg.Directory.APIKey,
	})
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		ListenAddr:  cfg.ListenAddr,
		JWTSecret:   cfg.JWTSecret,
		Notice:      cfg.Notice,
		CORSOrigins: cfg.CORSOrigins,
		PerPage:     cfg.Directory.PerPage,
	}, store, dir)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		logger.Warn("No jwt_secret configured; browser profiles will not survive a restart")
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("authdash listening on %s (directory %s, storage %s)", cfg.ListenAddr, cfg.Directory.BaseURL, cfg.Storage.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
