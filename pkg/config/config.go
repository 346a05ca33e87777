// Package config reads the s3grab YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	// DefaultListen is the address of the HTTP API when none is configured.
	DefaultListen = ":8081"
	// DefaultHealthInterval is the period of the store connectivity probe.
	DefaultHealthInterval = 30 * time.Second
	// DefaultConcurrency downloads one file at a time.
	DefaultConcurrency = 1
)

var (
	// ErrInvalidSchedule is returned when a schedule entry is incomplete.
	ErrInvalidSchedule = errors.New("invalid schedule")
	// ErrInvalidConcurrency is returned for a negative concurrency.
	ErrInvalidConcurrency = errors.New("concurrency must be >= 0")
)

// Config is the struct for the configuration
type Config struct {
	LogLevel       string        `yaml:"loglevel"`
	S3endpoint     string        `yaml:"s3endpoint"`
	ForcePathStyle bool          `yaml:"forcepathstyle"`
	SettingsFile   string        `yaml:"settingsfile"`
	KeyFile        string        `yaml:"keyfile"`
	Concurrency    int           `yaml:"concurrency"`
	Listen         string        `yaml:"listen"`
	HealthInterval time.Duration `yaml:"healthinterval"`
	Schedules      []Schedule    `yaml:"schedules"`
}

// Schedule describes a download that is replayed on a cron expression.
type Schedule struct {
	Name        string   `yaml:"name"`
	Cron        string   `yaml:"cron"`
	Bucket      string   `yaml:"bucket"`
	Items       []string `yaml:"items"`
	Destination string   `yaml:"destination"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// ReadYamlCnxFile reads a yaml file and returns a Config struct
func ReadYamlCnxFile(filename string) (Config, error) {
	var config Config

	yamlFile, err := os.ReadFile(filename)
	if err != nil {
		return config, fmt.Errorf("error reading YAML file: %w", err)
	}

	err = yaml.Unmarshal(yamlFile, &config)
	if err != nil {
		return config, fmt.Errorf("error parsing YAML file: %w", err)
	}
	config.applyDefaults()
	return config, config.Validate()
}

// Validate checks the fields that cannot be defaulted.
func (c Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidConcurrency, c.Concurrency)
	}
	for i, s := range c.Schedules {
		switch {
		case s.Cron == "":
			return fmt.Errorf("%w: schedule #%d has no cron expression", ErrInvalidSchedule, i)
		case s.Bucket == "":
			return fmt.Errorf("%w: schedule #%d has no bucket", ErrInvalidSchedule, i)
		case len(s.Items) == 0:
			return fmt.Errorf("%w: schedule #%d has no items", ErrInvalidSchedule, i)
		case s.Destination == "":
			return fmt.Errorf("%w: schedule #%d has no destination", ErrInvalidSchedule, i)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = DefaultHealthInterval
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.SettingsFile == "" || c.KeyFile == "" {
		dir := defaultDir()
		if c.SettingsFile == "" {
			c.SettingsFile = filepath.Join(dir, "aws_settings.enc")
		}
		if c.KeyFile == "" {
			c.KeyFile = filepath.Join(dir, "secret.key")
		}
	}
}

// defaultDir is ~/.s3grab, or the working directory when home is unknown.
func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".s3grab")
}
