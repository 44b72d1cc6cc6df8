// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// FailureModeAck acknowledges the provider even when the projection could not be stored.
	FailureModeAck = "ack"
	// FailureModeRetry answers 503 on persistence failures so the provider redelivers.
	FailureModeRetry = "retry"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE" validate:"oneof=debug release test"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT" validate:"required"`
	ServerTimeout time.Duration `mapstructure:"-"`

	// Database Configuration
	DBDriver          string        `mapstructure:"DB_DRIVER" validate:"oneof=postgres sqlite"`
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"-"`
	DBSQLitePath      string        `mapstructure:"DB_SQLITE_PATH"`
	DBAutoMigrate     bool          `mapstructure:"DB_AUTO_MIGRATE"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	CORSAllowedOrigins []string `mapstructure:"-"`

	// Webhook Configuration
	WebhookPath            string        `mapstructure:"WEBHOOK_PATH" validate:"required,startswith=/"`
	WebhookSecret          string        `mapstructure:"WEBHOOK_SECRET" validate:"required"`
	WebhookIDHeader        string        `mapstructure:"WEBHOOK_ID_HEADER" validate:"required"`
	WebhookTimestampHeader string        `mapstructure:"WEBHOOK_TIMESTAMP_HEADER" validate:"required"`
	WebhookSignatureHeader string        `mapstructure:"WEBHOOK_SIGNATURE_HEADER" validate:"required"`
	WebhookMaxBodyBytes    int64         `mapstructure:"WEBHOOK_MAX_BODY_BYTES" validate:"gt=0"`
	WebhookPersistTimeout  time.Duration `mapstructure:"-"`
	WebhookFailureMode     string        `mapstructure:"WEBHOOK_FAILURE_MODE" validate:"oneof=ack retry"`

	// Dead-letter retention
	DeadLetterRetentionDays int    `mapstructure:"DEAD_LETTER_RETENTION_DAYS" validate:"gte=0"`
	DeadLetterPruneSchedule string `mapstructure:"DEAD_LETTER_PRUNE_SCHEDULE"`

	// Metrics
	MetricsEnabled bool   `mapstructure:"METRICS_ENABLED"`
	MetricsPath    string `mapstructure:"METRICS_PATH" validate:"required_if=MetricsEnabled true"`
}

var validate = validator.New()

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Fields tagged mapstructure:"-" carry units or lists viper cannot decode from env strings.
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.WebhookPersistTimeout = time.Duration(v.GetInt("WEBHOOK_PERSIST_TIMEOUT_MS")) * time.Millisecond
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.WebhookFailureMode = strings.ToLower(strings.TrimSpace(cfg.WebhookFailureMode))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags and the few cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.WebhookPersistTimeout <= 0 {
		return fmt.Errorf("invalid configuration: WEBHOOK_PERSIST_TIMEOUT_MS must be positive")
	}
	if c.DBDriver == "sqlite" && strings.TrimSpace(c.DBSQLitePath) == "" {
		return fmt.Errorf("invalid configuration: DB_SQLITE_PATH is required when DB_DRIVER=sqlite")
	}
	return nil
}

// PostgresDSN builds the GORM DSN from the individual DB_* settings.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimezone)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "identity_sync_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 50)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_SQLITE_PATH", "identity_sync.db")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	// Header names follow Svix, which signs Clerk webhooks.
	v.SetDefault("WEBHOOK_PATH", "/webhook")
	v.SetDefault("WEBHOOK_SECRET", "")
	v.SetDefault("WEBHOOK_ID_HEADER", "svix-id")
	v.SetDefault("WEBHOOK_TIMESTAMP_HEADER", "svix-timestamp")
	v.SetDefault("WEBHOOK_SIGNATURE_HEADER", "svix-signature")
	v.SetDefault("WEBHOOK_MAX_BODY_BYTES", 1<<20)
	v.SetDefault("WEBHOOK_PERSIST_TIMEOUT_MS", 5000)
	v.SetDefault("WEBHOOK_FAILURE_MODE", FailureModeAck)

	v.SetDefault("DEAD_LETTER_RETENTION_DAYS", 30)
	v.SetDefault("DEAD_LETTER_PRUNE_SCHEDULE", "@daily")

	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_PATH", "/metrics")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
