package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vocabuddy/internal/cache"
	"vocabuddy/internal/handlers"
	"vocabuddy/internal/repository"
	"vocabuddy/internal/scheduler"
	"vocabuddy/internal/security"
	"vocabuddy/internal/selection"
	"vocabuddy/internal/service"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger := loadConfig(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// Initialize repositories
	wordRepo := repository.NewWordRepository(db)
	practiceRepo := repository.NewPracticeRepository(db)

	// Initialize services
	selectionCache := cache.NewSelectionCache(cfg.CacheMaxItems)
	selector := selection.NewSelector(wordRepo, selectionCache, selection.Options{
		StoreTimeout:   cfg.StoreTimeout,
		AlgorithmicTTL: cfg.CacheAlgorithmicTTL,
		RandomTTL:      cfg.CacheRandomTTL,
		Logger:         logger,
	})
	practiceService := service.NewPracticeService(practiceRepo, selector, selectionCache, logger)

	limiter := security.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.TrustProxy = cfg.RateLimitTrustProxy

	// Background maintenance
	jobs := scheduler.New(cfg.CacheSweepInterval, logger)
	jobs.Add("selection cache sweep", selectionCache)
	jobs.Add("rate limiter sweep", limiter)
	if err := jobs.Start(); err != nil {
		return err
	}
	defer jobs.Stop()

	practiceHandler := handlers.NewPracticeHandler(practiceService, selector)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.NewRouter(practiceHandler, limiter, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
