// Package config loads server settings from the environment.
//
// Every key is read as BANKLEDGER_<KEY>. Keys carrying an explicit envconfig tag
// (DATABASE_URL, REDIS_URL, LOG_LEVEL, LOG_FORMAT, DEV_SEED) also fall back to
// the unprefixed name.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/govalues/money"
	"github.com/kelseyhightower/envconfig"
)

const prefix = "bankledger"

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMySQL    = "mysql"
)

type MySQL struct {
	Host            string        `default:"localhost"`
	Port            int           `default:"3306"`
	User            string        `default:"root"`
	Password        string
	DBName          string        `split_words:"true" default:"bankledger"`
	MaxOpenConns    int           `split_words:"true" default:"25"`
	MaxIdleConns    int           `split_words:"true" default:"10"`
	ConnMaxLifetime time.Duration `split_words:"true" default:"5m"`
	ConnectRetries  uint64        `split_words:"true" default:"10"`
	LogLevel        string        `split_words:"true" default:"error"`
}

type Config struct {
	Addr            string        `default:":8080"`
	Store           string        `default:"memory"`
	DatabaseURL     string        `envconfig:"DATABASE_URL"`
	MySQL           MySQL         `envconfig:"MYSQL"`
	RedisURL        string        `envconfig:"REDIS_URL"`
	LockTTL         time.Duration `split_words:"true" default:"5s"`
	LockRetries     uint64        `split_words:"true" default:"8"`
	Currency        string        `default:"USD"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	DevSeed         bool          `envconfig:"DEV_SEED"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

// Load reads the environment, applies defaults and validates the result.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process(prefix, &c); err != nil {
		return Config{}, err
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) normalize() {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreMySQL:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q (want memory, postgres or mysql)", c.Store)
	}
	if _, err := money.ParseCurr(c.Currency); err != nil {
		return fmt.Errorf("invalid currency %q: %w", c.Currency, err)
	}
	if c.LockTTL <= 0 {
		return errors.New("lock TTL must be positive")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q (want json or text)", c.LogFormat)
	}
	return nil
}
