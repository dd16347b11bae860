package postgres

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Default connection pool settings.
const (
	DefaultMaxOpenConns        = 50
	DefaultMaxIdleConns        = 25
	DefaultConnMaxLifetime     = time.Minute
	DefaultHealthCheckInterval = 10 * time.Second
	DefaultSSLMode             = "disable"
)

// Config defines the configuration of the PostgreSQL connection that backs
// the dead-letter store.
type Config struct {
	Connection        Connection
	ConnectionDetails ConnectionDetails
}

// Connection holds the parameters of the libpq connection string.
type Connection struct {
	Host     string `yaml:"host" envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     string `yaml:"port" envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `yaml:"user" envconfig:"POSTGRES_USER"`
	Password string `yaml:"password" envconfig:"POSTGRES_PASSWORD"`
	DbName   string `yaml:"db_name" envconfig:"POSTGRES_DB"`

	// SSLMode is passed to the driver as is.
	// Default: "disable"
	SSLMode string `yaml:"ssl_mode" envconfig:"POSTGRES_SSL_MODE"`
}

// ConnectionDetails configures the connection pool and the health check.
type ConnectionDetails struct {
	MaxOpenConns        int           `yaml:"max_open_conns" envconfig:"POSTGRES_MAX_OPEN_CONNS"`
	MaxIdleConns        int           `yaml:"max_idle_conns" envconfig:"POSTGRES_MAX_IDLE_CONNS"`
	ConnMaxLifetime     time.Duration `yaml:"conn_max_lifetime" envconfig:"POSTGRES_CONN_MAX_LIFETIME"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval" envconfig:"POSTGRES_HEALTH_CHECK_INTERVAL"`
}

// LoadConfig reads the configuration from POSTGRES_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load postgres config: %w", err)
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	if c.Connection.SSLMode == "" {
		c.Connection.SSLMode = DefaultSSLMode
	}
	if c.ConnectionDetails.MaxOpenConns <= 0 {
		c.ConnectionDetails.MaxOpenConns = DefaultMaxOpenConns
	}
	if c.ConnectionDetails.MaxIdleConns <= 0 {
		c.ConnectionDetails.MaxIdleConns = DefaultMaxIdleConns
	}
	if c.ConnectionDetails.ConnMaxLifetime <= 0 {
		c.ConnectionDetails.ConnMaxLifetime = DefaultConnMaxLifetime
	}
	if c.ConnectionDetails.HealthCheckInterval <= 0 {
		c.ConnectionDetails.HealthCheckInterval = DefaultHealthCheckInterval
	}
	return c
}

// DSN returns the connection string in key=value form.
func (c Connection) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DbName, c.SSLMode)
}
