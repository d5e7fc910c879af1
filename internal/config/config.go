package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lucaspires-source/authdash/internal/kvstore"
	"github.com/lucaspires-source/authdash/internal/logger"
)

// ErrConfigFailed marks any problem reading or validating the configuration.
var ErrConfigFailed = errors.New("config: failed to load")

const (
	DefaultPath       = "authdash.yaml"
	DefaultListenAddr = ":14392"
	DefaultDataDir    = "./authdash_data"
	DefaultBaseURL    = "https://reqres.in"
	DefaultPerPage    = 6
)

type Config struct {
	ListenAddr  string    `yaml:"listen_addr"`
	DataDir     string    `yaml:"data_dir"`
	LogLevel    string    `yaml:"log_level"`
	JWTSecret   string    `yaml:"jwt_secret"`
	Notice      string    `yaml:"notice"`
	CORSOrigins []string  `yaml:"cors_origins"`
	Directory   Directory `yaml:"directory"`
	Storage     Storage   `yaml:"storage"`
}

type Directory struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	PerPage int           `yaml:"per_page"`
	Timeout time.Duration `yaml:"timeout"`
}

type Storage struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Error carries the file that failed to load.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ErrConfigFailed.Error()
	}
	return fmt.Sprintf("%v: %s: %v", ErrConfigFailed, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Path returns AUTHDASH_CONFIG or the default file name.
func Path() string {
	return getenvDefault("AUTHDASH_CONFIG", DefaultPath)
}

// Load reads path if it exists, applies AUTHDASH_* environment overrides,
// fills defaults and validates. A missing file is not an error.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, &Error{Path: path, Err: err}
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, &Error{Path: path, Err: err}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	c.ListenAddr = getenvDefault("AUTHDASH_LISTEN", c.ListenAddr)
	c.DataDir = getenvDefault("AUTHDASH_DATA_DIR", c.DataDir)
	c.JWTSecret = getenvDefault("AUTHDASH_JWT_SECRET", c.JWTSecret)
	c.LogLevel = getenvDefault("AUTHDASH_LOG_LEVEL", c.LogLevel)
	c.Directory.BaseURL = getenvDefault("AUTHDASH_API_URL", c.Directory.BaseURL)
	c.Directory.APIKey = getenvDefault("AUTHDASH_API_KEY", c.Directory.APIKey)
	c.Storage.Driver = getenvDefault("AUTHDASH_STORAGE", c.Storage.Driver)
	if dsn := os.Getenv("AUTHDASH_STORAGE_DSN"); dsn != "" {
		// One variable addresses every driver: a path for file/sqlite, a
		// URL for postgres, host:port for redis.
		switch strings.ToLower(c.Storage.Driver) {
		case "redis":
			c.Storage.Addr = dsn
		case "postgres":
			c.Storage.DSN = dsn
		default:
			c.Storage.Path = dsn
		}
	}
	if v := os.Getenv("AUTHDASH_PER_PAGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUTHDASH_PER_PAGE: %w", err)
		}
		c.Directory.PerPage = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	c.LogLevel = strings.TrimSpace(strings.ToLower(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Directory.BaseURL == "" {
		c.Directory.BaseURL = DefaultBaseURL
	}
	c.Directory.BaseURL = strings.TrimRight(c.Directory.BaseURL, "/")
	if c.Directory.PerPage == 0 {
		c.Directory.PerPage = DefaultPerPage
	}
	c.Storage.Driver = strings.TrimSpace(strings.ToLower(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = "file"
	}
	if c.Storage.Path == "" {
		switch c.Storage.Driver {
		case "file":
			c.Storage.Path = filepath.Join(c.DataDir, "storage.json")
		case "sqlite":
			c.Storage.Path = filepath.Join(c.DataDir, "storage.db")
		}
	}
}

func (c *Config) validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Directory.PerPage < 0 {
		return errors.New("directory.per_page must be positive")
	}
	if c.Directory.Timeout < 0 {
		return errors.New("directory.timeout must not be negative")
	}
	if !strings.HasPrefix(c.Directory.BaseURL, "http://") && !strings.HasPrefix(c.Directory.BaseURL, "https://") {
		return fmt.Errorf("directory.base_url %q is not an http(s) URL", c.Directory.BaseURL)
	}
	switch c.Storage.Driver {
	case "file", "sqlite":
	case "redis":
		if c.Storage.Addr == "" {
			return errors.New("storage.addr is required for redis")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver)
	}
	return nil
}

// StoreOptions maps the storage section onto kvstore.Options.
func (c *Config) StoreOptions() kvstore.Options {
	return kvstore.Options{
		Driver:   c.Storage.Driver,
		Path:     c.Storage.Path,
		DSN:      c.Storage.DSN,
		Addr:     c.Storage.Addr,
		Password: c.Storage.Password,
		DB:       c.Storage.DB,
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
