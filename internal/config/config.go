package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the connection and runtime settings of composer. Fields carry
// env tags; environment variables override the file.
type Config struct {
	URL            string        `env:"HASS_URL"`
	Token          string        `env:"HASS_TOKEN"`
	Domain         string        `env:"COMPOSER_DOMAIN"`
	RequestTimeout time.Duration `env:"COMPOSER_REQUEST_TIMEOUT"`
	ConnectTimeout time.Duration `env:"COMPOSER_CONNECT_TIMEOUT"`
	RateLimit      float64       `env:"COMPOSER_RATE_LIMIT"`
	RateBurst      int           `env:"COMPOSER_RATE_BURST"`
	LogFile        string        `env:"COMPOSER_LOG_FILE"`
	LogLevel       string        `env:"COMPOSER_LOG_LEVEL"`
	AutoRefresh    time.Duration `env:"COMPOSER_AUTO_REFRESH"`
}

const (
	defaultConfigPath     = "~/.config/composer/config.toml"
	defaultURL            = "http://homeassistant.local:8123"
	defaultDomain         = "nidia_magic_composer"
	defaultLogFile        = "~/.local/state/composer/composer.log"
	defaultLogLevel       = "info"
	defaultRequestTimeout = 10 * time.Second
	defaultConnectTimeout = 30 * time.Second
	defaultRateLimit      = 20
	defaultRateBurst      = 5
)

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		URL:            defaultURL,
		Domain:         defaultDomain,
		RequestTimeout: defaultRequestTimeout,
		ConnectTimeout: defaultConnectTimeout,
		RateLimit:      defaultRateLimit,
		RateBurst:      defaultRateBurst,
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
	}
}

type fileConfig struct {
	URL            string  `toml:"url"`
	Token          string  `toml:"token"`
	Domain         string  `toml:"domain"`
	RequestTimeout string  `toml:"request_timeout"`
	ConnectTimeout string  `toml:"connect_timeout"`
	RateLimit      float64 `toml:"rate_limit"`
	RateBurst      int     `toml:"rate_burst"`
	LogFile        string  `toml:"log_file"`
	LogLevel       string  `toml:"log_level"`
	AutoRefresh    string  `toml:"auto_refresh"`
}

// Load reads the config file, falling back to defaults when it is missing,
// then applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Defaults()
	if err := readFile(resolved, &cfg); err != nil {
		return Config{}, err
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	setString(&cfg.URL, raw.URL)
	setString(&cfg.Token, raw.Token)
	setString(&cfg.Domain, raw.Domain)
	setString(&cfg.LogFile, raw.LogFile)
	setString(&cfg.LogLevel, raw.LogLevel)
	if raw.RateLimit > 0 {
		cfg.RateLimit = raw.RateLimit
	}
	if raw.RateBurst > 0 {
		cfg.RateBurst = raw.RateBurst
	}
	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
		{"connect_timeout", raw.ConnectTimeout, &cfg.ConnectTimeout},
		{"auto_refresh", raw.AutoRefresh, &cfg.AutoRefresh},
	}
	for _, d := range durations {
		value := strings.TrimSpace(d.raw)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parse config: %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

func (c *Config) normalize() {
	defaults := Defaults()
	c.URL = strings.TrimRight(strings.TrimSpace(c.URL), "/")
	if c.URL == "" {
		c.URL = defaults.URL
	}
	c.Token = strings.TrimSpace(c.Token)
	c.Domain = strings.TrimSpace(c.Domain)
	if c.Domain == "" {
		c.Domain = defaults.Domain
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if strings.TrimSpace(c.LogFile) == "" {
		c.LogFile = defaults.LogFile
	}
	c.LogFile = mustExpand(c.LogFile)
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaults.RequestTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaults.ConnectTimeout
	}
	if c.RateLimit <= 0 {
		c.RateLimit = defaults.RateLimit
	}
	if c.RateBurst <= 0 {
		c.RateBurst = defaults.RateBurst
	}
	if c.AutoRefresh < 0 {
		c.AutoRefresh = 0
	}
}

// Validate reports settings that make a connection impossible.
func (c Config) Validate() error {
	if c.Token == "" {
		return errors.New("missing access token: set token in the config file or HASS_TOKEN")
	}
	return nil
}

// DefaultPath returns the expanded default config location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func setString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
