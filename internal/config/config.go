// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// Env is the application environment ("development", "production", ...).
	Env string `mapstructure:"APP_ENV"`
	// LogLevel overrides the environment's default logrus level when set.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// ServiceName names the process in logs and OTel resources.
	ServiceName string `mapstructure:"SERVICE_NAME"`
	// DatabaseURL is the Postgres DSN. Empty selects the in-memory repository where a binary allows it.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// PasswordDigest is "md5" (default, compatible with existing hashes) or "argon2id".
	PasswordDigest string `mapstructure:"PASSWORD_DIGEST"`
	// AccessCodeTTLRaw is how long a dev-mode access code can be read back (e.g. "10m").
	AccessCodeTTLRaw string `mapstructure:"ACCESS_CODE_TTL"`
	// OTPReturnToClient stores access codes for read-back instead of sending SMS. Rejected when Env is production.
	OTPReturnToClient bool `mapstructure:"OTP_RETURN_TO_CLIENT"`

	// Redis backs the dev access-code store when RedisAddr is set.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// RabbitMQURL enables queued SMS delivery on SMSQueue.
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	SMSQueue    string `mapstructure:"SMS_QUEUE"`

	// SMSLocalAPIKey is the API key for SMS Local; the worker refuses to start without it.
	SMSLocalAPIKey string `mapstructure:"SMS_LOCAL_API_KEY"`
	// SMSLocalSender is the optional sender ID for SMS Local.
	SMSLocalSender string `mapstructure:"SMS_LOCAL_SENDER"`
	// SMSLocalBaseURL is the SMS Local API URL.
	SMSLocalBaseURL string `mapstructure:"SMS_LOCAL_BASE_URL"`
	// NotifyTimeoutRaw bounds one delivery attempt (e.g. "5s").
	NotifyTimeoutRaw string `mapstructure:"NOTIFY_TIMEOUT"`

	// OTLPEndpoint is the collector address; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext gRPC to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// ImportDelimiter is the CSV field separator for cmd/importer.
	ImportDelimiter string `mapstructure:"IMPORT_DELIMITER"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("SERVICE_NAME", "user-enrollment")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("PASSWORD_DIGEST", "md5")
	v.SetDefault("ACCESS_CODE_TTL", "10m")
	v.SetDefault("OTP_RETURN_TO_CLIENT", false)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("SMS_QUEUE", "sms.access_codes")
	v.SetDefault("SMS_LOCAL_API_KEY", "")
	v.SetDefault("SMS_LOCAL_SENDER", "")
	v.SetDefault("SMS_LOCAL_BASE_URL", "https://www.smslocal.com/dev/bulkV2")
	v.SetDefault("NOTIFY_TIMEOUT", "5s")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("IMPORT_DELIMITER", ";")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.OTPReturnToClient && cfg.Env == "production" {
		return nil, errors.New("config: OTP_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}
	switch cfg.PasswordDigest {
	case "md5", "argon2id":
	default:
		return nil, fmt.Errorf("config: PASSWORD_DIGEST must be md5 or argon2id, got %q", cfg.PasswordDigest)
	}
	if err := ValidateDelimiter(cfg.ImportDelimiter); err != nil {
		return nil, err
	}
	if cfg.RabbitMQURL != "" && cfg.SMSQueue == "" {
		return nil, errors.New("config: SMS_QUEUE must be set when RABBITMQ_URL is set")
	}

	return &cfg, nil
}

// ValidateDelimiter reports whether s can separate import fields: exactly one character, and
// not a quote, line break or the Unicode replacement character.
func ValidateDelimiter(s string) error {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) {
		return errors.New("config: IMPORT_DELIMITER must be a single character")
	}
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return fmt.Errorf("config: IMPORT_DELIMITER %q cannot separate fields", s)
	}
	return nil
}

// AccessCodeTTL parses AccessCodeTTLRaw. Returns 10m if unset or invalid.
func (c *Config) AccessCodeTTL() time.Duration {
	return parseDuration(c.AccessCodeTTLRaw, 10*time.Minute)
}

// NotifyTimeout parses NotifyTimeoutRaw. Returns 5s if unset or invalid.
func (c *Config) NotifyTimeout() time.Duration {
	return parseDuration(c.NotifyTimeoutRaw, 5*time.Second)
}

// Delimiter returns ImportDelimiter as a rune.
func (c *Config) Delimiter() rune {
	for _, r := range c.ImportDelimiter {
		return r
	}
	return ';'
}

func parseDuration(raw string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
