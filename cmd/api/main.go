// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kbrooks/land-tracker/internal/api"
	"github.com/kbrooks/land-tracker/internal/config"
	"github.com/kbrooks/land-tracker/internal/storage"
	"github.com/kbrooks/land-tracker/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg, err := config.Load("configs")
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logg := logger.New("api")
	defer logg.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(ctx, cfg.Storage, logg)
	if err != nil {
		logg.Fatalw("initializing storage", "error", err)
	}

	srv := api.NewServer(cfg.App.Port, api.NewHandler(store, logg))

	go func() {
		logg.Infow("api listening", "port", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Errorw("server error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logg.Info("shutdown signal received")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Errorw("server shutdown", "error", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		logg.Errorw("storage close", "error", err)
	}
}
