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

	"github.com/piwi3910/DrapeCalc/internal/config"
	"github.com/piwi3910/DrapeCalc/internal/logger"
	"github.com/piwi3910/DrapeCalc/internal/project"
	"github.com/piwi3910/DrapeCalc/internal/server"
	"github.com/piwi3910/DrapeCalc/internal/store"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Logger())

	code := 0
	if err := run(cfg, log); err != nil {
		log.Error("drapecalc stopped", "error", err)
		code = 1
	}
	_ = log.Close()
	os.Exit(code)
}

func run(cfg config.Config, log *logger.Logger) error {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = project.DefaultConfigDir()
	}

	ws, err := project.OpenWorkspace(dataDir)
	if err != nil {
		return fmt.Errorf("open workspace %s: %w", dataDir, err)
	}

	dbPath := cfg.ResolveDBPath(dataDir)
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.Migrate(ctx, db, log); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.New(ws, store.NewQuotes(db), log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr, "data_dir", dataDir, "db", dbPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	return srv.Shutdown(shutdownCtx)
}
