// Package config loads pkgcompare settings from flags, the environment and
// an optional .env file.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. PKGCOMPARE_ADDR.
const EnvPrefix = "PKGCOMPARE"

// Keys.
const (
	KeyAddr         = "addr"
	KeyRegistryURL  = "registry_url"
	KeyDownloadsURL = "downloads_url"
	KeyUserAgent    = "user_agent"
	KeyTimeout      = "timeout"
	KeyMaxSessions  = "max_sessions"
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
)

// Config holds runtime settings.
type Config struct {
	Addr         string
	RegistryURL  string
	DownloadsURL string
	UserAgent    string
	// Timeout bounds each registry request. Zero leaves it to the platform.
	Timeout     time.Duration
	MaxSessions int
	LogLevel    string
	LogFormat   string
}

// New returns a viper instance with defaults and environment binding set up.
// Callers bind their flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyRegistryURL, "")
	v.SetDefault(KeyDownloadsURL, "")
	v.SetDefault(KeyUserAgent, "pkgcompare")
	v.SetDefault(KeyTimeout, time.Duration(0))
	v.SetDefault(KeyMaxSessions, 1024)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	return v
}

// LoadDotEnv reads .env from the working directory if there is one.
// Variables already set in the environment win.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Load reads the settings out of v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Addr:         v.GetString(KeyAddr),
		RegistryURL:  strings.TrimRight(v.GetString(KeyRegistryURL), "/"),
		DownloadsURL: strings.TrimRight(v.GetString(KeyDownloadsURL), "/"),
		UserAgent:    v.GetString(KeyUserAgent),
		Timeout:      v.GetDuration(KeyTimeout),
		MaxSessions:  v.GetInt(KeyMaxSessions),
		LogLevel:     v.GetString(KeyLogLevel),
		LogFormat:    v.GetString(KeyLogFormat),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("max_sessions must be positive, got %d", c.MaxSessions)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// NewLogger builds the process logger writing to out.
func (c *Config) NewLogger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
