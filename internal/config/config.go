// Package config loads the console's settings.
//
// Settings come from three layers, later ones winning:
//  1. built-in defaults
//  2. an optional YAML file (CONFIG_FILE, or the path given to Load)
//  3. environment variables, after a .env file in the working directory
//     has been loaded into the environment
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sakif/pin-admin/internal/apperror"
)

// Config is the full runtime configuration.
type Config struct {
	Port       int      `yaml:"port"`
	APIBaseURL string   `yaml:"api_base_url"`
	APITimeout Duration `yaml:"api_timeout"`

	SessionSecret string   `yaml:"session_secret"`
	SessionTTL    Duration `yaml:"session_ttl"`
	CookieSecure  bool     `yaml:"cookie_secure"`

	DBPath string `yaml:"db_path"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	LoginRatePerMin int      `yaml:"login_rate_per_min"`
	SnapshotTTL     Duration `yaml:"snapshot_ttl"`
	Timezone        string   `yaml:"timezone"`

	// ActivityRetention is how long audit entries are kept. Zero keeps them
	// forever.
	ActivityRetention Duration `yaml:"activity_retention"`
}

// Duration reads "30s"-style strings from YAML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", node.Value, err)
	}
	d.Duration = parsed
	return nil
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Port:            8080,
		APIBaseURL:      "http://localhost:3000",
		APITimeout:      Duration{15 * time.Second},
		SessionTTL:      Duration{12 * time.Hour},
		DBPath:          "data/admin.db",
		LogLevel:        "info",
		LogFormat:       "text",
		LoginRatePerMin: 10,
		SnapshotTTL:     Duration{5 * time.Minute},
		Timezone:        "Local",

		ActivityRetention: Duration{90 * 24 * time.Hour},
	}
}

// Load builds the configuration. path may be empty; a missing file is not
// an error, a malformed one is.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return apperror.ValidationFailed(key, fmt.Sprintf("%s must be an integer, got %q", key, v))
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return apperror.ValidationFailed(key, fmt.Sprintf("%s must be a duration, got %q", key, v))
		}
		dst.Duration = d
		return nil
	}

	str("API_BASE_URL", &c.APIBaseURL)
	str("SESSION_SECRET", &c.SessionSecret)
	str("DB_PATH", &c.DBPath)
	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("TIMEZONE", &c.Timezone)
	if v, ok := lookup("COOKIE_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return apperror.ValidationFailed("COOKIE_SECURE", fmt.Sprintf("COOKIE_SECURE must be a boolean, got %q", v))
		}
		c.CookieSecure = b
	}
	for key, dst := range map[string]*int{
		"PORT":               &c.Port,
		"REDIS_DB":           &c.RedisDB,
		"LOGIN_RATE_PER_MIN": &c.LoginRatePerMin,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	for key, dst := range map[string]*Duration{
		"API_TIMEOUT":  &c.APITimeout,
		"SESSION_TTL":  &c.SessionTTL,
		"SNAPSHOT_TTL": &c.SnapshotTTL,

		"ACTIVITY_RETENTION": &c.ActivityRetention,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks required settings and ranges.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return apperror.ValidationFailed("port", fmt.Sprintf("port %d out of range", c.Port))
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return apperror.ValidationFailed("api_base_url", "api_base_url must be an http(s) URL")
	}
	if len(c.SessionSecret) < 16 {
		return apperror.ValidationFailed("session_secret", "SESSION_SECRET must be at least 16 characters")
	}
	if c.LoginRatePerMin < 0 {
		return apperror.ValidationFailed("login_rate_per_min", "login_rate_per_min must not be negative")
	}
	if c.ActivityRetention.Duration < 0 {
		return apperror.ValidationFailed("activity_retention", "activity_retention must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return apperror.ValidationFailed("timezone", err.Error())
	}
	return nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
