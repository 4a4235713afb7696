// Package config handles regionwatch configuration
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/GriffinCanCode/regionwatch/internal/errors"
	"github.com/GriffinCanCode/regionwatch/internal/screen"
)

type Config struct {
	Region          string        `yaml:"region"` // x,y,w,h
	Threshold       float64       `yaml:"threshold"`
	Interval        time.Duration `yaml:"interval"`
	OutputDir       string        `yaml:"output_dir"`
	SaveSnapshots   bool          `yaml:"save_snapshots"`
	MetricsFile     string        `yaml:"metrics_file"`
	LogLevel        string        `yaml:"log_level"`
	CaptureFallback bool          `yaml:"capture_fallback"`
	Timeout         time.Duration `yaml:"timeout"` // 0 waits forever
}

func Load() *Config {
	return &Config{
		Region:          getEnv("REGIONWATCH_REGION", ""),
		Threshold:       getEnvFloat("REGIONWATCH_THRESHOLD", 0.90),
		Interval:        getEnvDuration("REGIONWATCH_INTERVAL", 500*time.Millisecond),
		OutputDir:       getEnv("REGIONWATCH_OUTPUT_DIR", "Images"),
		SaveSnapshots:   getEnvBool("REGIONWATCH_SAVE_SNAPSHOTS", true),
		MetricsFile:     getEnv("REGIONWATCH_METRICS_FILE", ""),
		LogLevel:        getEnv("REGIONWATCH_LOG_LEVEL", "info"),
		CaptureFallback: getEnvBool("REGIONWATCH_CAPTURE_FALLBACK", true),
		Timeout:         getEnvDuration("REGIONWATCH_TIMEOUT", 0),
	}
}

// LoadFile overlays the keys present in a YAML file onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ConfigInvalid, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return apperrors.Wrapf(err, apperrors.ConfigInvalid, "parse config %s", path)
	}
	return nil
}

// Validate checks every field the run depends on.
func (c *Config) Validate() error {
	if c.Region == "" {
		return apperrors.New(apperrors.ConfigMissing, "region not set").WithMetadata("field", "region")
	}
	r, err := screen.ParseRegion(c.Region)
	if err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		return apperrors.Newf(apperrors.ConfigInvalid, "threshold %v outside (0,1]", c.Threshold).
			WithMetadata("field", "threshold")
	}
	if c.Interval <= 0 {
		return apperrors.Newf(apperrors.ConfigInvalid, "interval %v must be positive", c.Interval).
			WithMetadata("field", "interval")
	}
	if c.Timeout < 0 {
		return apperrors.Newf(apperrors.ConfigInvalid, "timeout %v is negative", c.Timeout).
			WithMetadata("field", "timeout")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// ParsedRegion returns Region as a screen.Region.
func (c *Config) ParsedRegion() (screen.Region, error) {
	return screen.ParseRegion(c.Region)
}

// SlogLevel parses LogLevel (debug, info, warn, error).
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, apperrors.Wrapf(err, apperrors.ConfigInvalid, "log level %q", c.LogLevel).
			WithMetadata("field", "log_level")
	}
	return lvl, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}
