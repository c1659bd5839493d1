package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DatabaseBackend selects the gorm dialector.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config holds process configuration loaded from the environment.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	CORSOrigins []string

	DBBackend DatabaseBackend
	DBDSN     string

	JWTSecret string

	NATSURL string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	IdempotencyTTL time.Duration

	ReconcileSchedule string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeCurrency      string
	StripeSuccessURL    string
	StripeCancelURL     string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// NotifyTimezone is the zone times are shown in on confirmations.
	NotifyTimezone *time.Location
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	return LoadWithFile(".env")
}

// LoadWithFile is Load with an explicit env file path. A missing file is not an error.
func LoadWithFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	port, err := getEnvInt("HTTP_PORT", 8080)
	if err != nil {
		return nil, err
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	ttl, err := time.ParseDuration(getEnv("IDEMPOTENCY_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("IDEMPOTENCY_TTL: %w", err)
	}

	loc, err := time.LoadLocation(getEnv("NOTIFY_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("NOTIFY_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Environment:         getEnv("PARKING_ENV", "development"),
		HTTPBind:            getEnv("HTTP_BIND", "0.0.0.0"),
		HTTPPort:            port,
		CORSOrigins:         splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		DBBackend:           DatabaseBackend(strings.ToLower(getEnv("DB_BACKEND", string(DatabasePostgres)))),
		DBDSN:               os.Getenv("DB_DSN"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		NATSURL:             os.Getenv("NATS_URL"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             redisDB,
		IdempotencyTTL:      ttl,
		ReconcileSchedule:   getEnv("RECONCILE_SCHEDULE", "@every 5m"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeCurrency:      getEnv("STRIPE_CURRENCY", "usd"),
		StripeSuccessURL:    getEnv("STRIPE_SUCCESS_URL", "http://localhost:3000/tickets/paid?session_id={CHECKOUT_SESSION_ID}"),
		StripeCancelURL:     getEnv("STRIPE_CANCEL_URL", "http://localhost:3000/tickets/payment-failed?session_id={CHECKOUT_SESSION_ID}"),
		SendGridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail:   os.Getenv("SENDGRID_FROM_EMAIL"),
		SendGridFromName:    getEnv("SENDGRID_FROM_NAME", "Parking Lot"),
		TwilioAccountSID:    os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:     os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:    os.Getenv("TWILIO_FROM_NUMBER"),
		NotifyTimezone:      loc,
	}

	// DATABASE_URL is what older deployments set.
	if cfg.DBDSN == "" {
		cfg.DBDSN = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can start a server.
func (c *Config) Validate() error {
	switch c.DBBackend {
	case DatabasePostgres, DatabaseMySQL, DatabaseSQLite:
	default:
		return fmt.Errorf("unknown DB_BACKEND %q", c.DBBackend)
	}
	if c.DBDSN == "" {
		return errors.New("DB_DSN not set")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET not set")
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTPPort)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

func (c *Config) PaymentsEnabled() bool {
	return c.StripeSecretKey != ""
}

func (c *Config) EmailEnabled() bool {
	return c.SendGridAPIKey != "" && c.SendGridFromEmail != ""
}

func (c *Config) SMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
