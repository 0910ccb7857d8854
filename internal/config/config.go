package config

import (
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Credential store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	// Server
	Env      string
	Port     string
	LogLevel string

	// Per-user ledger files
	DataDir string

	// Credential database
	CredentialDriver string
	CredentialDBPath string
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	DBSSLMode        string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Budget alerts; an empty URL disables publishing
	AMQPURL   string
	AMQPQueue string

	// Receipts
	MaxReceiptBytes int64
}

// defaults maps every supported key to its fallback value.
var defaults = map[string]any{
	"ENV":                  "development",
	"PORT":                 "8080",
	"LOG_LEVEL":            "info",
	"DATA_DIR":             "./data/ledgers",
	"CREDENTIAL_DB_DRIVER": DriverSQLite,
	"CREDENTIAL_DB_PATH":   "./data/users.db",
	"DB_HOST":              "localhost",
	"DB_PORT":              "5432",
	"DB_USER":              "expensetracker",
	"DB_PASSWORD":          "expensetracker",
	"DB_NAME":              "expensetracker",
	"DB_SSLMODE":           "disable",
	"JWT_SECRET":           "fallback-secret-key-for-dev-only",
	"JWT_EXPIRES_IN":       "24h",
	"AMQP_URL":             "",
	"AMQP_QUEUE":           "budget_alerts",
	"MAX_RECEIPT_BYTES":    int64(5 << 20),
}

// NewViper returns a viper instance with defaults and environment binding.
// Callers may bind command-line flags onto it before calling FromViper.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return v
}

// Load loads configuration from the environment, after reading .env if present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	return FromViper(NewViper())
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:      v.GetString("ENV"),
		Port:     v.GetString("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		DataDir: v.GetString("DATA_DIR"),

		CredentialDriver: strings.ToLower(v.GetString("CREDENTIAL_DB_DRIVER")),
		CredentialDBPath: v.GetString("CREDENTIAL_DB_PATH"),
		DBHost:           v.GetString("DB_HOST"),
		DBPort:           v.GetString("DB_PORT"),
		DBUser:           v.GetString("DB_USER"),
		DBPassword:       v.GetString("DB_PASSWORD"),
		DBName:           v.GetString("DB_NAME"),
		DBSSLMode:        v.GetString("DB_SSLMODE"),

		JWTSecret: v.GetString("JWT_SECRET"),

		AMQPURL:   v.GetString("AMQP_URL"),
		AMQPQueue: v.GetString("AMQP_QUEUE"),

		MaxReceiptBytes: v.GetInt64("MAX_RECEIPT_BYTES"),
	}

	expStr := v.GetString("JWT_EXPIRES_IN")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	cfg.JWTExpirationDur = expDur

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.DataDir) == "" {
		problems = append(problems, "DATA_DIR cannot be empty")
	}

	switch c.CredentialDriver {
	case DriverSQLite:
		if strings.TrimSpace(c.CredentialDBPath) == "" {
			problems = append(problems, "CREDENTIAL_DB_PATH cannot be empty when using the sqlite driver")
		}
	case DriverPostgres:
		if c.DBHost == "" || c.DBName == "" {
			problems = append(problems, "DB_HOST and DB_NAME are required when using the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid credential driver '%s': must be one of [%s %s]", c.CredentialDriver, DriverSQLite, DriverPostgres))
	}

	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP_QUEUE cannot be empty when AMQP_URL is set")
		}
	}

	if c.MaxReceiptBytes <= 0 {
		problems = append(problems, fmt.Sprintf("invalid MAX_RECEIPT_BYTES %d: must be positive", c.MaxReceiptBytes))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// PostgresURL returns the credential database URL for the postgres driver.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(c.DBUser), url.QueryEscape(c.DBPassword), c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}
