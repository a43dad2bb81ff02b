package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	CORSAllowOrigins []string `mapstructure:"CORS_ALLOW_ORIGINS"`

	// Storage.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`
	StoreDriver  string `mapstructure:"STORE_DRIVER"` // mongo or memory

	// Payments.
	StripeSecretKey    string        `mapstructure:"STRIPE_SECRET_KEY"`
	BookingPriceMinor  int64         `mapstructure:"BOOKING_PRICE_MINOR"`
	PaymentCurrency    string        `mapstructure:"PAYMENT_CURRENCY"`
	PaymentMethodTypes []string      `mapstructure:"PAYMENT_METHOD_TYPES"`
	PaymentTimeout     time.Duration `mapstructure:"PAYMENT_TIMEOUT"`

	// Calendar.
	SlotDuration  time.Duration `mapstructure:"SLOT_DURATION"`
	BusinessStart time.Duration `mapstructure:"BUSINESS_START"` // offset from UTC midnight
	BusinessEnd   time.Duration `mapstructure:"BUSINESS_END"`
	MaxRangeDays  int           `mapstructure:"MAX_RANGE_DAYS"`

	// Redis configuration.
	RedisEnabled         bool          `mapstructure:"REDIS_ENABLED"`
	RedisAddr            string        `mapstructure:"REDIS_ADDR"`
	RedisPassword        string        `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB         int           `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB         int           `mapstructure:"REDIS_QUEUE_DB"`
	AvailabilityCacheTTL time.Duration `mapstructure:"AVAILABILITY_CACHE_TTL"`
}

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

var configKeys = []string{
	"APP_PORT", "ENV", "LOG_LEVEL", "JWT_SECRET", "MAX_REQUESTS_PER_MIN", "CORS_ALLOW_ORIGINS",
	"DATABASE_URL", "DATABASE_NAME", "STORE_DRIVER",
	"STRIPE_SECRET_KEY", "BOOKING_PRICE_MINOR", "PAYMENT_CURRENCY", "PAYMENT_METHOD_TYPES", "PAYMENT_TIMEOUT",
	"SLOT_DURATION", "BUSINESS_START", "BUSINESS_END", "MAX_RANGE_DAYS",
	"REDIS_ENABLED", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_CACHE_DB", "REDIS_QUEUE_DB", "AVAILABILITY_CACHE_TTL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("CORS_ALLOW_ORIGINS", []string{"*"})
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "slotbook")
	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("BOOKING_PRICE_MINOR", 1500)
	v.SetDefault("PAYMENT_CURRENCY", "eur")
	v.SetDefault("PAYMENT_METHOD_TYPES", []string{"card"})
	v.SetDefault("PAYMENT_TIMEOUT", 10*time.Second)
	v.SetDefault("SLOT_DURATION", 30*time.Minute)
	v.SetDefault("BUSINESS_START", 9*time.Hour)
	v.SetDefault("BUSINESS_END", 18*time.Hour)
	v.SetDefault("MAX_RANGE_DAYS", 31)
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("AVAILABILITY_CACHE_TTL", 30*time.Second)
}

// LoadConfig reads config.yaml from the working directory or ./config when present,
// overlays environment variables and validates the result.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("No config file found, using environment variables only")
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	// Unmarshal only sees keys viper knows about; bind each so env-only values apply.
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.PaymentCurrency = strings.ToLower(strings.TrimSpace(cfg.PaymentCurrency))
	cfg.PaymentMethodTypes = splitList(cfg.PaymentMethodTypes)
	cfg.CORSAllowOrigins = splitList(cfg.CORSAllowOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid key at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		problems = append(problems, fmt.Sprintf("ENV must be one of %s, %s, %s", EnvDevelopment, EnvProduction, EnvTest))
	}
	switch c.StoreDriver {
	case StoreMongo, StoreMemory:
	default:
		problems = append(problems, fmt.Sprintf("STORE_DRIVER must be %s or %s", StoreMongo, StoreMemory))
	}
	if c.StoreDriver == StoreMongo && c.DatabaseURL == "" {
		problems = append(problems, "DATABASE_URL is required")
	}
	if c.IsProduction() && c.StripeSecretKey == "" {
		problems = append(problems, "STRIPE_SECRET_KEY is required in production")
	}
	if c.BookingPriceMinor <= 0 {
		problems = append(problems, "BOOKING_PRICE_MINOR must be positive")
	}
	if len(c.PaymentCurrency) != 3 {
		problems = append(problems, "PAYMENT_CURRENCY must be a 3-letter ISO code")
	}
	if len(c.PaymentMethodTypes) == 0 {
		problems = append(problems, "PAYMENT_METHOD_TYPES must not be empty")
	}
	if c.PaymentTimeout <= 0 {
		problems = append(problems, "PAYMENT_TIMEOUT must be positive")
	}
	if c.SlotDuration < time.Minute || c.SlotDuration%time.Millisecond != 0 {
		problems = append(problems, "SLOT_DURATION must be at least 1m")
	}
	if c.BusinessStart < 0 || c.BusinessEnd > 24*time.Hour || c.BusinessEnd <= c.BusinessStart {
		problems = append(problems, "BUSINESS_START and BUSINESS_END must satisfy 0 <= start < end <= 24h")
	}
	if c.MaxRangeDays <= 0 {
		problems = append(problems, "MAX_RANGE_DAYS must be positive")
	}
	if c.MaxRequestsPerMin <= 0 {
		problems = append(problems, "MAX_REQUESTS_PER_MIN must be positive")
	}
	if c.RedisEnabled && c.RedisAddr == "" {
		problems = append(problems, "REDIS_ADDR is required when REDIS_ENABLED is true")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
