package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/pagetree/internal/api"
	"github.com/dgallion1/pagetree/internal/config"
	"github.com/dgallion1/pagetree/internal/docstore"
	"github.com/dgallion1/pagetree/internal/service"
	"github.com/dgallion1/pagetree/internal/translate"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open the page store.
	store, err := docstore.Open(cfg.DBPath)
	if err != nil {
		log.Error("open store", "error", err)
		os.Exit(1)
	}
	if err := store.EnableCapability(ctx, docstore.CapMultilingual); err != nil {
		log.Error("enable multilingual capability", "error", err)
		os.Exit(1)
	}

	// Load the translation field map.
	fields := translate.DefaultFieldMap()
	if cfg.FieldMapPath != "" {
		fields, err = translate.LoadFieldMap(cfg.FieldMapPath)
		if err != nil {
			log.Error("load field map", "error", err)
			os.Exit(1)
		}
	}

	// Initialize service and batch pipeline.
	svc := service.New(store, cfg, fields, log)
	batch := service.NewBatcher(svc, log)
	batch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(svc, batch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		batch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		store.Close()
	}()

	log.Info("starting pagetree", "port", cfg.Port, "db", cfg.DBPath)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
