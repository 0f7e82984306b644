package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultMealDBBaseURL = "https://www.themealdb.com/api/json/v1/1/"
	defaultHTTPAddr      = ":8080"
	defaultSyncAddr      = ":7070"
	defaultDetailCache   = 256
	defaultLogLevel      = "info"
)

// Config is the runtime configuration of the api-server and tools.
//
// Values come from, in order of precedence: MEALHUB_* env vars, the TOML
// file, then defaults. A .env file in the working directory is loaded into
// the environment first.
type Config struct {
	HTTPAddr          string   `toml:"http_addr"`
	SyncAddr          string   `toml:"sync_addr"` // TCP event stream; empty disables
	MealDBBaseURL     string   `toml:"mealdb_base_url"`
	RequestsPerSecond float64  `toml:"requests_per_second"` // 0 = unlimited
	DetailCacheSize   int      `toml:"detail_cache_size"`   // 0 disables
	LogLevel          string   `toml:"log_level"`
	LogDevelopment    bool     `toml:"log_development"`
	TrustedProxies    []string `toml:"trusted_proxies"`
}

func DefaultConfig() Config {
	return Config{
		HTTPAddr:        defaultHTTPAddr,
		SyncAddr:        defaultSyncAddr,
		MealDBBaseURL:   DefaultMealDBBaseURL,
		DetailCacheSize: defaultDetailCache,
		LogLevel:        defaultLogLevel,
		TrustedProxies:  []string{"127.0.0.1"},
	}
}

// DefaultConfigPath is ~/.mealhub/config.toml unless MEALHUB_CONFIG is set.
func DefaultConfigPath() string {
	if p := os.Getenv("MEALHUB_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".mealhub", "config.toml")
}

// LoadConfig reads the config at path. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if strings.TrimSpace(path) == "" {
		path = DefaultConfigPath()
	}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("MEALHUB_HTTP_ADDR"); ok {
		cfg.HTTPAddr = v
	}
	if v, ok := os.LookupEnv("MEALHUB_SYNC_ADDR"); ok {
		cfg.SyncAddr = v
	}
	if v := os.Getenv("MEALHUB_MEALDB_URL"); v != "" {
		cfg.MealDBBaseURL = v
	}
	if v := os.Getenv("MEALHUB_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MEALHUB_RPS: %w", err)
		}
		cfg.RequestsPerSecond = rps
	}
	if v := os.Getenv("MEALHUB_DETAIL_CACHE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MEALHUB_DETAIL_CACHE: %w", err)
		}
		cfg.DetailCacheSize = n
	}
	if v := os.Getenv("MEALHUB_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MEALHUB_LOG_DEV"); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MEALHUB_LOG_DEV: %w", err)
		}
		cfg.LogDevelopment = dev
	}
	return nil
}

func (c *Config) normalize() {
	c.HTTPAddr = strings.TrimSpace(c.HTTPAddr)
	if c.HTTPAddr == "" {
		c.HTTPAddr = defaultHTTPAddr
	}
	c.SyncAddr = strings.TrimSpace(c.SyncAddr)
	c.MealDBBaseURL = strings.TrimSpace(c.MealDBBaseURL)
	if c.MealDBBaseURL == "" {
		c.MealDBBaseURL = DefaultMealDBBaseURL
	}
	if c.RequestsPerSecond < 0 {
		c.RequestsPerSecond = 0
	}
	if c.DetailCacheSize < 0 {
		c.DetailCacheSize = 0
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}
