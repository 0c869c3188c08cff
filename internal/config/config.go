package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment    DeploymentConfig    `mapstructure:"deployment" validate:"required"`
	Server        ServerConfig        `mapstructure:"server" validate:"required"`
	Logging       LoggingConfig       `mapstructure:"logging" validate:"required"`
	Postgres      PostgresConfig      `mapstructure:"postgres" validate:"required"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Auth          AuthConfig          `mapstructure:"auth" validate:"required"`
	Pricing       PricingConfig       `mapstructure:"pricing"`
	Renewal       RenewalConfig       `mapstructure:"renewal"`
	Cache         CacheConfig         `mapstructure:"cache"`
	ProductLookup ProductLookupConfig `mapstructure:"product_lookup"`
	Sentry        SentryConfig        `mapstructure:"sentry"`
	Events        EventsConfig        `mapstructure:"events"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required,oneof=local api"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host" validate:"required"`
	Port                   int    `mapstructure:"port" validate:"required"`
	User                   string `mapstructure:"user" validate:"required"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname" validate:"required"`
	SSLMode                string `mapstructure:"sslmode" validate:"required"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" default:"10"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" default:"5"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" default:"60"`
	AutoMigrate            bool   `mapstructure:"auto_migrate" default:"false"`
}

type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url" validate:"required_if=Enabled true"`
}

type AuthConfig struct {
	Secret string       `mapstructure:"secret" validate:"required"`
	APIKey APIKeyConfig `mapstructure:"api_key"`
}

type APIKeyConfig struct {
	Header string                   `mapstructure:"header" validate:"required" default:"x-api-key"`
	Keys   map[string]APIKeyDetails `mapstructure:"keys"` // map of hashed API key to its details
}

type APIKeyDetails struct {
	UserID   string `mapstructure:"user_id" json:"user_id" validate:"required"`
	Name     string `mapstructure:"name" json:"name" validate:"required"`
	IsActive bool   `mapstructure:"is_active" json:"is_active" validate:"required"`
}

// PricingConfig holds the subscription pricing policy
type PricingConfig struct {
	DiscountRate float64 `mapstructure:"discount_rate" validate:"gte=0,lte=1" default:"0.10"`
	TaxRate      float64 `mapstructure:"tax_rate" validate:"gte=0" default:"0.15"`
	ShippingFlat float64 `mapstructure:"shipping_flat" validate:"gte=0" default:"0"`
}

type RenewalConfig struct {
	PricingStrategy types.PricingStrategy `mapstructure:"pricing_strategy" default:"lock_at_creation"`
	MaxConcurrency  int                   `mapstructure:"max_concurrency" validate:"gte=0" default:"4"`
	AttemptTimeout  time.Duration         `mapstructure:"attempt_timeout" default:"30s"`
	LockTTL         time.Duration         `mapstructure:"lock_ttl" default:"15m"`
}

type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	ProductTTL time.Duration `mapstructure:"product_ttl" default:"5m"`
}

// ProductLookupConfig configures the circuit breaker wrapped around catalog lookups
type ProductLookupConfig struct {
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures" default:"5"`
	BreakerOpenTimeout time.Duration `mapstructure:"breaker_open_timeout" default:"30s"`
	BreakerInterval    time.Duration `mapstructure:"breaker_interval" default:"60s"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" default:"1.0"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional and only used for local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/brewcycle")

	// Set up environment variables support
	v.SetEnvPrefix("BREWCYCLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Renewal.PricingStrategy != "" {
		if err := c.Renewal.PricingStrategy.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Postgres: PostgresConfig{
			Host:                   "localhost",
			Port:                   5432,
			User:                   "brewcycle",
			DBName:                 "brewcycle",
			SSLMode:                "disable",
			MaxOpenConns:           10,
			MaxIdleConns:           5,
			ConnMaxLifetimeMinutes: 60,
		},
		Auth: AuthConfig{
			Secret: "local-development-secret",
			APIKey: APIKeyConfig{Header: "x-api-key"},
		},
		Pricing: PricingConfig{
			DiscountRate: 0.10,
			TaxRate:      0.15,
			ShippingFlat: 0,
		},
		Renewal: RenewalConfig{
			PricingStrategy: types.PricingStrategyLockAtCreation,
			MaxConcurrency:  4,
			AttemptTimeout:  30 * time.Second,
			LockTTL:         15 * time.Minute,
		},
		Cache: CacheConfig{Enabled: true, ProductTTL: 5 * time.Minute},
		ProductLookup: ProductLookupConfig{
			BreakerMaxFailures: 5,
			BreakerOpenTimeout: 30 * time.Second,
			BreakerInterval:    60 * time.Second,
		},
		Events: EventsConfig{Enabled: true, Topic: "subscription_events"},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 60)
	v.SetDefault("auth.api_key.header", "x-api-key")
	v.SetDefault("pricing.discount_rate", 0.10)
	v.SetDefault("pricing.tax_rate", 0.15)
	v.SetDefault("pricing.shipping_flat", 0)
	v.SetDefault("renewal.pricing_strategy", types.PricingStrategyLockAtCreation)
	v.SetDefault("renewal.max_concurrency", 4)
	v.SetDefault("renewal.attempt_timeout", "30s")
	v.SetDefault("renewal.lock_ttl", "15m")
	v.SetDefault("cache.product_ttl", "5m")
	v.SetDefault("product_lookup.breaker_max_failures", 5)
	v.SetDefault("product_lookup.breaker_open_timeout", "30s")
	v.SetDefault("product_lookup.breaker_interval", "60s")
	v.SetDefault("sentry.sample_rate", 1.0)
	v.SetDefault("events.topic", "subscription_events")
}
