package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"livraria/internal/config"
	"livraria/internal/infra"
	"livraria/internal/repository"
	"livraria/internal/router"
	"livraria/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(infra.DatabaseOptions{
		Driver:      cfg.DBDriver,
		DSN:         cfg.DatabaseURL,
		AutoMigrate: cfg.DBAutoMigrate,
		Debug:       !cfg.IsProduction(),
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to connect to database")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if rdb == nil {
		log.Warn().Msg("REDIS_URL empty: totals cache and stock notifications disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stock checks run after each committed purchase; without Redis there
	// is no queue and the pool is not started.
	var workers *sync.WaitGroup
	if rdb != nil {
		handlers := &worker.Handlers{
			Estoque: worker.NewEstoqueWorker(repository.NewLivroRepository(db), rdb, cfg.EstoqueMinimo),
		}
		workers = worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)
	}

	r := router.New(ctx, cfg, db, rdb)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("livraria backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	cancel()
	if workers != nil {
		workers.Wait()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}
