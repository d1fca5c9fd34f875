// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/iliyamo/discover-nairobi/internal/catalog"
	"github.com/iliyamo/discover-nairobi/internal/payment"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMySQL  = "mysql"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	StoreDriver    string // memory, redis or mysql
	StorePrefix    string // key prefix for the redis store
	DBUser         string
	DBPass         string
	DBHost         string
	DBPort         string
	DBName         string
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	AMQPURL        string // RabbitMQ url; empty disables booking events
	BookingLogPath string // where the consumer appends booking events

	Payment PaymentConfig
	Catalog catalog.RemoteConfig
}

// PaymentConfig selects how M-PESA outcomes are decided.
//
// Gateway "simulated" draws a random outcome after the confirm delay;
// "callback" waits for POST /v1/payments/mpesa/callback carrying
// WebhookSecret in the X-Webhook-Secret header.
type PaymentConfig struct {
	Gateway         string          `envconfig:"PAYMENT_GATEWAY" default:"simulated"`
	FailureRate     float64         `envconfig:"PAYMENT_FAILURE_RATE" default:"0.1"`
	CallbackTimeout time.Duration   `envconfig:"PAYMENT_CALLBACK_TIMEOUT" default:"60s"`
	WebhookSecret   string          `envconfig:"PAYMENT_WEBHOOK_SECRET"`
	Timings         payment.Timings `ignored:"true"`
}

// Load reads configuration values from the environment.  A .env file in
// the working directory is applied first when present; variables already
// set win.  Required variables are enforced by must().
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	cfg := Config{
		Env:            getenv("APP_ENV", "dev"),
		Port:           getenv("APP_PORT", "8080"),
		StoreDriver:    getenv("STORE_DRIVER", StoreMemory),
		StorePrefix:    getenv("STORE_PREFIX", "dn"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		AMQPURL:        os.Getenv("AMQP_URL"),
		BookingLogPath: getenv("BOOKING_LOG_PATH", "logs/booking.log"),
	}
	if cfg.StoreDriver == StoreMySQL {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	}
	if err := envconfig.Process("", &cfg.Payment); err != nil {
		log.Fatalf("invalid payment config: %v", err)
	}
	if err := envconfig.Process("PAYMENT", &cfg.Payment.Timings); err != nil {
		log.Fatalf("invalid payment timings: %v", err)
	}
	if err := envconfig.Process("", &cfg.Catalog); err != nil {
		log.Fatalf("invalid catalog config: %v", err)
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
