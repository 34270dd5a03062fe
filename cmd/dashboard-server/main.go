package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tiledash/internal/config"
	"tiledash/internal/server"
	"tiledash/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	logger := config.GetLogger()

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		// Uploads still work without the store; persistence endpoints
		// answer 503 until the next restart.
		logger.WithError(err).Warn("store unavailable, starting degraded")
		db = nil
	} else {
		defer db.Close()
	}

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: server.New(db, cfg).Router(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.WithField("addr", cfg.ServerAddr).Info("dashboard server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	must(srv.Shutdown(shutdownCtx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
