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

	"printssistant/internal/app"
	"printssistant/internal/config"
	"printssistant/internal/logger"
	"printssistant/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "printssistant-server:", err)
		os.Exit(1)
	}
}

func run() error {
	overrides := map[string]any{}
	// PORT is honored for platforms that inject it
	if port := os.Getenv("PORT"); port != "" {
		overrides["addr"] = ":" + port
	}
	cfg, err := config.Load(overrides)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.JSON)

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	srv := server.New(a.Runner,
		server.WithChecklist(a.Checklist),
		server.WithMappingPath(cfg.MappingPath),
		server.WithConfigDir(cfg.ConfigDir),
		server.WithLogger(log),
	)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("printssistant running", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
