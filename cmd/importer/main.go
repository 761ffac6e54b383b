// importer loads users from a delimiter-separated file whose header names fullName, email,
// access ("salt:hash") and phone. Usage: go run ./cmd/importer -file users.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"user-enrollment/backend/internal/app"
	"user-enrollment/backend/internal/config"
	"user-enrollment/backend/internal/logging"
)

func main() {
	path := flag.String("file", "", "Path to the import file")
	delimiter := flag.String("delimiter", "", "Field delimiter; overrides IMPORT_DELIMITER")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.New("importer", "production", "").WithError(err).Fatal("config")
	}
	log := logging.New(cfg.ServiceName+"-importer", cfg.Env, cfg.LogLevel)
	if *delimiter != "" {
		if err := config.ValidateDelimiter(*delimiter); err != nil {
			log.WithError(err).Fatal("importer: -delimiter")
		}
		cfg.ImportDelimiter = *delimiter
	}

	if err := run(cfg, log, *path); err != nil {
		log.WithError(err).Error("importer failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logrus.Logger, path string) error {
	if path == "" {
		return errors.New("-file is required")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := a.Close(shutdownCtx); err != nil {
			log.WithError(err).Warn("importer: shutdown")
		}
	}()
	if err := a.Health.Check(ctx); err != nil {
		return fmt.Errorf("dependency check: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := a.Accounts.Import(ctx, f, cfg.Delimiter())
	for _, fe := range report.Failed {
		log.WithField("line", fe.Line).WithError(fe.Err).Warn("importer: row rejected")
	}
	return err
}
