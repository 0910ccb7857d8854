package database

import (
	"fmt"

	"expensetracker/internal/config"
)

// Config holds credential database configuration
type Config struct {
	Driver   string
	Path     string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	// postgresURL is the migrate-style URL of the postgres database.
	postgresURL string
}

// NewConfig derives the credential database configuration from the
// application configuration.
func NewConfig(cfg *config.Config) *Config {
	return &Config{
		Driver:      cfg.CredentialDriver,
		Path:        cfg.CredentialDBPath,
		Host:        cfg.DBHost,
		Port:        cfg.DBPort,
		User:        cfg.DBUser,
		Password:    cfg.DBPassword,
		DBName:      cfg.DBName,
		SSLMode:     cfg.DBSSLMode,
		postgresURL: cfg.PostgresURL(),
	}
}

// DSN returns the connection string gorm opens.
func (c *Config) DSN() string {
	if c.Driver == config.DriverPostgres {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000", c.Path)
}

// MigrationURL returns the database URL golang-migrate connects to.
func (c *Config) MigrationURL() string {
	if c.Driver == config.DriverPostgres {
		return c.postgresURL
	}
	return "sqlite3://" + c.Path
}
