// migrate applies the embedded SQL migrations; run with go run ./cmd/migrate -direction up.
package main

import (
	"errors"
	"flag"
	"os"

	"user-enrollment/backend/internal/config"
	"user-enrollment/backend/internal/db/migrate"
	"user-enrollment/backend/internal/logging"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.New("migrate", "production", "").WithError(err).Fatal("config")
	}
	log := logging.New("migrate", cfg.Env, cfg.LogLevel)

	dir, err := migrate.ParseDirection(*direction)
	if err != nil {
		log.WithError(err).Fatal("migrate")
	}
	if err := migrate.Run(cfg.DatabaseURL, dir); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("migrate: already at target version")
			return
		}
		log.WithError(err).Error("migrate failed")
		os.Exit(1)
	}
	v, dirty, err := migrate.Version(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Warn("migrate: could not read version")
		return
	}
	log.WithField("version", v).WithField("dirty", dirty).Info("migrate: done")
}
