// Package config assembles the application configuration from viper:
// built-in defaults, an optional config file, BANKTX_* environment
// variables and command-line flags, in increasing priority.
package config

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"golang-bank-transaction-service/internal/api"
	"golang-bank-transaction-service/internal/ingest"
	"golang-bank-transaction-service/internal/storage"
	"golang-bank-transaction-service/pkg/errors"
	"golang-bank-transaction-service/pkg/logger"
)

// EnvPrefix is prepended to every environment variable, e.g. BANKTX_INGEST_CHUNK_SIZE
const EnvPrefix = "BANKTX"

// Config is the complete application configuration
type Config struct {
	Ingest   ingest.Config  `json:"ingest" yaml:"ingest" mapstructure:"ingest"`
	Database storage.Config `json:"database" yaml:"database" mapstructure:"database"`
	HTTP     api.Config     `json:"http" yaml:"http" mapstructure:"http"`
	Log      logger.Config  `json:"log" yaml:"log" mapstructure:"log"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Ingest:   *ingest.DefaultConfig(),
		Database: *storage.DefaultConfig(),
		HTTP:     *api.DefaultConfig(),
		Log:      *logger.DefaultConfig(),
	}
}

// SetDefaults registers every key with its default value. Keys must be known
// to viper for environment variables to be picked up on Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("ingest.chunk_size", d.Ingest.ChunkSize)
	v.SetDefault("ingest.commit_mode", string(d.Ingest.CommitMode))
	v.SetDefault("ingest.read_failure", string(d.Ingest.ReadFailure))
	v.SetDefault("ingest.max_line_bytes", d.Ingest.MaxLineBytes)

	v.SetDefault("database.driver", string(d.Database.Driver))
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.auto_migrate", d.Database.AutoMigrate)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.slow_query", d.Database.SlowQuery)

	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.base_path", d.HTTP.BasePath)
	v.SetDefault("http.read_timeout", d.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", d.HTTP.WriteTimeout)
	v.SetDefault("http.default_page_size", d.HTTP.DefaultPageSize)
	v.SetDefault("http.max_page_size", d.HTTP.MaxPageSize)

	v.SetDefault("log.level", string(d.Log.Level))
	v.SetDefault("log.format", string(d.Log.Format))
	v.SetDefault("log.output", string(d.Log.Output))
	v.SetDefault("log.file", d.Log.File)
}

// BindEnv enables BANKTX_* environment overrides
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.ConfigurationError("config", v.ConfigFileUsed(), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section of the configuration
func (c *Config) Validate() error {
	if err := c.Ingest.Validate(); err != nil {
		return errors.ConfigurationError("ingest", c.Ingest, err)
	}
	if err := c.Database.Validate(); err != nil {
		return errors.ConfigurationError("database", c.Database.Driver, err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return errors.ConfigurationError("http", c.HTTP.Addr, err)
	}
	if err := c.Log.Validate(); err != nil {
		return errors.ConfigurationError("log", c.Log.Level, err)
	}
	return nil
}

var dsnPassword = regexp.MustCompile(`(?i)(password=)\S+`)

// Redacted returns a copy safe to print, with database passwords masked
func (c *Config) Redacted() *Config {
	out := *c
	out.Database.DSN = redactDSN(c.Database.DSN)
	return &out
}

func redactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			return u.Redacted()
		}
	}
	return dsnPassword.ReplaceAllString(dsn, "${1}xxxxx")
}
