package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	BackendSQLite = "sqlite"
	BackendLibSQL = "libsql"
	BackendMemory = "memory"
)

type Config struct {
	DB       DBConfig       `toml:"database"`
	Log      LogConfig      `toml:"log"`
	Calendar CalendarConfig `toml:"calendar"`

	Dir string `toml:"-"` // Directory holding config, state, logs and the default database.
}

type DBConfig struct {
	Backend          string `toml:"backend"`           // sqlite, libsql or memory.
	ConnectionString string `toml:"connection_string"` // File path for sqlite/memory, URL for libsql.
	AuthToken        string `toml:"auth_token"`        // libsql only.
}

type LogConfig struct {
	Debug bool `toml:"debug"`
}

type CalendarConfig struct {
	Timezone string `toml:"timezone"` // IANA name, empty for the system zone.
}

// GetConfigDir returns the directory the app keeps its files in.
func GetConfigDir() (string, error) {
	if dir := os.Getenv("PRACTICEBUDDY_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "practicebuddy"), nil
}

// Returns the path to the config file.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LoadConfig reads the configuration from the default location.
func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(path)
}

// LoadConfigFrom reads the configuration at path. A missing file yields the defaults.
// Environment variables (and a .env file in the working directory) take precedence.
func LoadConfigFrom(path string) (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	cfg := Config{Dir: filepath.Dir(path)}
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("Failed to parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if cfg.DB.Backend != BackendSQLite && cfg.DB.Backend != BackendLibSQL && cfg.DB.Backend != BackendMemory {
		return nil, fmt.Errorf("unknown database backend: %s", cfg.DB.Backend)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if url := os.Getenv("TURSO_DATABASE_URL"); url != "" {
		c.DB.Backend = BackendLibSQL
		c.DB.ConnectionString = url
		if token := os.Getenv("TURSO_AUTH_TOKEN"); token != "" {
			c.DB.AuthToken = token
		}
	}
	if db := os.Getenv("PRACTICEBUDDY_DB"); db != "" {
		c.DB.ConnectionString = db
	}
	if tz := os.Getenv("PRACTICEBUDDY_TZ"); tz != "" {
		c.Calendar.Timezone = tz
	}

	// Check for a DEV_MODE environment variable.
	if os.Getenv("DEV_MODE") == "true" {
		c.DB.Backend = BackendSQLite
		c.DB.ConnectionString = "./local.db"
	}
}

func (c *Config) applyDefaults() {
	if c.DB.Backend == "" {
		c.DB.Backend = BackendSQLite
		if isRemoteURL(c.DB.ConnectionString) {
			c.DB.Backend = BackendLibSQL
		}
	}
	if c.DB.ConnectionString == "" {
		switch c.DB.Backend {
		case BackendSQLite:
			c.DB.ConnectionString = filepath.Join(c.Dir, "practicebuddy.db")
		case BackendMemory:
			c.DB.ConnectionString = filepath.Join(c.Dir, "practicebuddy.toml")
		}
	}
}

// Location is the calendar used for day and week boundaries.
func (c *Config) Location() (*time.Location, error) {
	if c.Calendar.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Calendar.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Calendar.Timezone, err)
	}
	return loc, nil
}

func isRemoteURL(s string) bool {
	for _, prefix := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
