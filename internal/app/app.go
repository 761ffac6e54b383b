// Package app builds the enrollment services from Config. Binaries call New once and Close on exit.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"user-enrollment/backend/internal/accesscode"
	"user-enrollment/backend/internal/config"
	"user-enrollment/backend/internal/db"
	"user-enrollment/backend/internal/health"
	"user-enrollment/backend/internal/notify"
	"user-enrollment/backend/internal/notify/sms"
	"user-enrollment/backend/internal/security"
	"user-enrollment/backend/internal/telemetry"
	oteltelemetry "user-enrollment/backend/internal/telemetry/otel"
	"user-enrollment/backend/internal/user/repository"
	"user-enrollment/backend/internal/user/service"
)

// App holds the wired services.
type App struct {
	Config   *config.Config
	Log      logrus.FieldLogger
	Creds    *security.Engine
	Repo     repository.Repository
	Factory  *service.Factory
	Accounts *service.AccountService
	Health   *health.Checker
	// Codes holds delivered access codes when OTP_RETURN_TO_CLIENT is set; nil otherwise.
	Codes accesscode.Store

	closers []func(context.Context) error
}

// New wires the services described by cfg. On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	a := &App{Config: cfg, Log: log, Health: health.NewChecker()}
	if err := a.init(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	digest, err := security.DigestByName(cfg.PasswordDigest)
	if err != nil {
		return err
	}
	a.Creds = security.NewEngine(digest)

	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		a.onClose(func(context.Context) error { return conn.Close() })
		a.Health.Add("postgres", conn)
		a.Repo = repository.NewPostgresRepository(conn, a.Creds)
	} else {
		a.Log.Warn("DATABASE_URL not set; users are kept in memory")
		a.Repo = repository.NewMemoryRepository(a.Creds)
	}

	notifier, err := a.notifier()
	if err != nil {
		return err
	}

	events, err := a.events(ctx)
	if err != nil {
		return err
	}

	a.Factory = service.NewFactory(a.Creds, notify.NewAsync(notifier, cfg.NotifyTimeout(), a.Log), a.Log)
	a.Accounts = service.NewAccountService(a.Factory, a.Repo, notify.NewAsync(notifier, cfg.NotifyTimeout(), a.Log), events, a.Log)
	return nil
}

// notifier picks the access-code delivery path: stored for read-back in development, queued
// on RabbitMQ, sent directly over SMS, or dropped.
func (a *App) notifier() (notify.Notifier, error) {
	cfg := a.Config
	switch {
	case cfg.OTPReturnToClient:
		if cfg.RedisAddr != "" {
			rdb := accesscode.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			a.onClose(func(context.Context) error { return rdb.Close() })
			a.Health.Add("redis", redisPinger(rdb))
			a.Codes = accesscode.NewRedisStore(rdb)
		} else {
			a.Codes = accesscode.NewMemoryStore()
		}
		a.Log.Warn("OTP_RETURN_TO_CLIENT is set; access codes are stored instead of sent")
		return accesscode.NewRecorder(a.Codes, cfg.AccessCodeTTL()), nil

	case cfg.RabbitMQURL != "":
		pub, err := notify.NewRabbitPublisher(cfg.RabbitMQURL, cfg.SMSQueue)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
		a.onClose(func(context.Context) error { pub.Close(); return nil })
		return pub, nil

	case cfg.SMSLocalAPIKey != "":
		return sms.NewSMSLocalClient(cfg.SMSLocalAPIKey, cfg.SMSLocalBaseURL, cfg.SMSLocalSender), nil

	default:
		a.Log.Warn("no SMS delivery configured; access codes are discarded")
		return notify.Discard, nil
	}
}

func (a *App) events(ctx context.Context) (telemetry.EventEmitter, error) {
	cfg := a.Config
	providers, err := oteltelemetry.NewProviders(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		return nil, fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()
	exporting := cfg.OTLPEndpoint != ""
	a.onClose(func(ctx context.Context) error {
		if exporting {
			// Let in-flight async emits reach the exporter.
			time.Sleep(telemetry.ShutdownDrainDuration)
		}
		return providers.Shutdown(ctx)
	})
	return oteltelemetry.NewEventEmitter(providers.LoggerProvider, providers.MeterProvider)
}

func (a *App) onClose(f func(context.Context) error) {
	a.closers = append(a.closers, f)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && !errors.Is(err, sql.ErrConnDone) {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func redisPinger(rdb *redis.Client) health.Pinger {
	return health.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
}
