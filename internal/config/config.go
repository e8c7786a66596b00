package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// HardConcurrencyCap bounds the probe pool no matter what configuration asks
// for.
const HardConcurrencyCap = 10

type Config struct {
	Addr           string        // API bind address, e.g., "127.0.0.1:8080"
	LogDir         string        // logs directory
	AdminKeys      []string      // API keys allowed to launch batches
	PublicKeys     []string      // API keys allowed to read results
	AllowedOrigins []string      // CORS origins; empty means allow all
	MaxConcurrency int           // probe pool size, clamped to HardConcurrencyCap
	DefaultPort    int           // SSH port applied when a batch omits one
	DefaultTimeout time.Duration // per-probe timeout applied when omitted
	RatePerMin     int           // API rate limit (requests/min per IP); 0 disables
	RateBurst      int
}

// FromEnv builds a Config from environment variables with local-dev defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:           "127.0.0.1:8080",
		LogDir:         "logs",
		MaxConcurrency: HardConcurrencyCap,
		DefaultPort:    22,
		DefaultTimeout: 10 * time.Second,
		RatePerMin:     120,
		RateBurst:      60,
	}

	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	cfg.AdminKeys = splitList(os.Getenv("ADMIN_API_KEYS"))
	cfg.PublicKeys = splitList(os.Getenv("PUBLIC_API_KEYS"))
	cfg.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))

	if v := os.Getenv("MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxConcurrency = n
		}
	}
	if v := os.Getenv("SSH_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 65535 {
			cfg.DefaultPort = n
		}
	}
	if v := os.Getenv("SSH_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultTimeout = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("RATE_PER_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RatePerMin = n
		}
	}

	return cfg.clamped()
}

// fileConfig is the YAML overlay shape; zero values leave the env/default
// value in place.
type fileConfig struct {
	Addr                  string   `yaml:"addr"`
	LogDir                string   `yaml:"log_dir"`
	AdminKeys             []string `yaml:"admin_api_keys"`
	PublicKeys            []string `yaml:"public_api_keys"`
	AllowedOrigins        []string `yaml:"allowed_origins"`
	MaxConcurrency        int      `yaml:"max_concurrency"`
	DefaultPort           int      `yaml:"default_port"`
	DefaultTimeoutSeconds int      `yaml:"default_timeout_seconds"`
	RatePerMin            int      `yaml:"rate_per_min"`
	RateBurst             int      `yaml:"rate_burst"`
}

// Load returns FromEnv overlaid with the YAML file at path. A missing file
// falls back to the env config.
func Load(path string) (Config, error) {
	cfg := FromEnv()
	if path == "" {
		return cfg, nil
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(content, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if fc.LogDir != "" {
		cfg.LogDir = fc.LogDir
	}
	if len(fc.AdminKeys) > 0 {
		cfg.AdminKeys = fc.AdminKeys
	}
	if len(fc.PublicKeys) > 0 {
		cfg.PublicKeys = fc.PublicKeys
	}
	if len(fc.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.MaxConcurrency > 0 {
		cfg.MaxConcurrency = fc.MaxConcurrency
	}
	if fc.DefaultPort >= 1 && fc.DefaultPort <= 65535 {
		cfg.DefaultPort = fc.DefaultPort
	}
	if fc.DefaultTimeoutSeconds > 0 {
		cfg.DefaultTimeout = time.Duration(fc.DefaultTimeoutSeconds) * time.Second
	}
	if fc.RatePerMin > 0 {
		cfg.RatePerMin = fc.RatePerMin
	}
	if fc.RateBurst > 0 {
		cfg.RateBurst = fc.RateBurst
	}

	return cfg.clamped(), nil
}

func (c Config) clamped() Config {
	if c.MaxConcurrency < 1 {
		c.MaxConcurrency = 1
	}
	if c.MaxConcurrency > HardConcurrencyCap {
		c.MaxConcurrency = HardConcurrencyCap
	}
	return c
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
