package storage

import (
	"fmt"
	"strings"
	"time"
)

// Driver selects the relational database behind the store
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Config holds database connection settings
type Config struct {
	Driver       Driver        `json:"driver" yaml:"driver" mapstructure:"driver"`
	DSN          string        `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
	AutoMigrate  bool          `json:"auto_migrate" yaml:"auto_migrate" mapstructure:"auto_migrate"`
	MaxOpenConns int           `json:"max_open_conns" yaml:"max_open_conns" mapstructure:"max_open_conns"`
	SlowQuery    time.Duration `json:"slow_query" yaml:"slow_query" mapstructure:"slow_query"`
}

// DefaultConfig returns a local sqlite database in the working directory
func DefaultConfig() *Config {
	return &Config{
		Driver:       DriverSQLite,
		DSN:          "banktx.db",
		AutoMigrate:  true,
		MaxOpenConns: 10,
		SlowQuery:    200 * time.Millisecond,
	}
}

// Validate checks if the database configuration is valid
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Driver)
	}

	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("database dsn cannot be empty")
	}

	if c.MaxOpenConns < 1 {
		return fmt.Errorf("max open connections must be at least 1, got %d", c.MaxOpenConns)
	}

	if c.SlowQuery < 0 {
		return fmt.Errorf("slow query threshold cannot be negative: %s", c.SlowQuery)
	}

	return nil
}
