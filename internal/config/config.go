// Package config loads the host runtime's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultListen   = ":8080"
	DefaultLogLevel = "info"
	// DefaultDatabase is the file backing the "default" label when no
	// databases are configured.
	DefaultDatabase = "sqlite_db.db"
)

type SQLiteConfig struct {
	// Databases maps labels to database file paths.
	Databases     map[string]string `toml:"databases"`
	AllowedLabels []string          `toml:"allowed_labels"`
}

type PgConfig struct {
	Enabled      bool     `toml:"enabled"`
	AllowedHosts []string `toml:"allowed_hosts"`
}

type Config struct {
	Listen   string       `toml:"listen"`
	Wasm     string       `toml:"wasm"`
	LogLevel string       `toml:"log_level"`
	SQLite   SQLiteConfig `toml:"sqlite"`
	Pg       PgConfig     `toml:"pg"`
}

func NewConfig() *Config {
	return &Config{
		Listen:   DefaultListen,
		LogLevel: DefaultLogLevel,
	}
}

// FromFile loads path, after loading envFile into the environment when it
// exists. Values of the form ${NAME} are replaced by the environment
// variable NAME.
func FromFile(path, envFile string) (*Config, error) {
	if err := loadEnv(envFile); err != nil {
		return nil, err
	}

	conf := NewConfig()
	if path != "" {
		md, err := toml.DecodeFile(path, conf)
		if err != nil {
			return nil, fmt.Errorf("Error loading config TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
		}
	}
	conf.resolve()
	return conf, nil
}

func loadEnv(envFile string) error {
	if envFile == "" {
		return nil
	}
	if _, err := os.Stat(envFile); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("Error loading .env file: %w", err)
	}
	return nil
}

func (c *Config) resolve() {
	if len(c.SQLite.Databases) == 0 {
		c.SQLite.Databases = map[string]string{"default": DefaultDatabase}
	}
	for label, path := range c.SQLite.Databases {
		c.SQLite.Databases[label] = fromEnv(path)
	}
	for i, h := range c.Pg.AllowedHosts {
		c.Pg.AllowedHosts[i] = fromEnv(h)
	}
	c.Wasm = fromEnv(c.Wasm)
}

func fromEnv(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		return os.Getenv(strings.TrimSuffix(strings.TrimPrefix(value, "${"), "}"))
	}
	return value
}

// Validate reports configuration the runtime cannot start with.
func (c *Config) Validate() error {
	if c.Wasm == "" {
		return errors.New("a component must be configured with wasm or -wasm")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	for _, label := range c.SQLite.AllowedLabels {
		if _, ok := c.SQLite.Databases[label]; !ok {
			return fmt.Errorf("allowed label %q has no database", label)
		}
	}
	return nil
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
