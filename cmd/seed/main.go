// seed enrolls development users for local testing. Idempotent: logins that already exist are
// left alone. Requires APP_ENV other than production.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"user-enrollment/backend/internal/accesscode"
	"user-enrollment/backend/internal/app"
	"user-enrollment/backend/internal/config"
	"user-enrollment/backend/internal/logging"
	"user-enrollment/backend/internal/user/service"
)

const (
	devUserEmail = "dev@example.com"
	devPassword  = "password123"
	devUserName  = "Dev User"
	devPhone     = "+10000000001"
	devPhoneName = "Phone User"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("seed", "production", "").WithError(err).Fatal("config")
	}
	log := logging.New(cfg.ServiceName+"-seed", cfg.Env, cfg.LogLevel)
	if cfg.Env == "production" {
		log.Fatal("seed: refusing to run with APP_ENV=production")
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("seed: setup")
	}
	ok := seed(ctx, a, log)

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := a.Close(shutdownCtx); err != nil {
		log.WithError(err).Warn("seed: shutdown")
	}
	if !ok {
		os.Exit(1)
	}
}

func seed(ctx context.Context, a *app.App, log logrus.FieldLogger) bool {
	ok := true
	if _, err := a.Accounts.RegisterByEmail(ctx, devUserName, devUserEmail, devPassword); err != nil {
		ok = report(log, devUserEmail, err) && ok
	} else {
		log.WithField("login", devUserEmail).Info("seed: created password user")
	}

	if _, err := a.Accounts.RegisterByPhone(ctx, devPhoneName, devPhone); err != nil {
		ok = report(log, logging.MaskPhone(devPhone), err) && ok
	} else {
		log.WithField("login", logging.MaskPhone(devPhone)).Info("seed: created phone user")
		if a.Codes != nil {
			ok = printCode(ctx, a, log) && ok
		}
	}
	return ok
}

// printCode reads the phone user's access code back from the dev store and writes it to stdout.
// Codes stay out of the log.
func printCode(ctx context.Context, a *app.App, log logrus.FieldLogger) bool {
	waitCtx, cancel := context.WithTimeout(ctx, a.Config.NotifyTimeout())
	defer cancel()
	code, err := accesscode.Await(waitCtx, a.Codes, devPhone)
	if err != nil {
		log.WithError(err).Error("seed: read access code")
		return false
	}
	fmt.Printf("%s access code: %s\n", devPhone, code)
	return true
}

func report(log logrus.FieldLogger, login string, err error) bool {
	if errors.Is(err, service.ErrLoginTaken) {
		log.WithField("login", login).Info("seed: already present")
		return true
	}
	log.WithError(err).WithField("login", login).Error("seed: create failed")
	return false
}
