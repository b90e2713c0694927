// Package config loads the conversion job list and run settings from
// defaults, an optional YAML file and TABJSON_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/nconklindev/tabjson/internal/document"
	"github.com/nconklindev/tabjson/internal/types"
)

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "tabjson.yaml"

const envPrefix = "TABJSON"

// Config holds everything a run needs.
type Config struct {
	// BaseDir is the directory relative job paths are resolved against.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`

	// Jobs is converted in order.
	Jobs []types.Job `mapstructure:"jobs" yaml:"jobs"`

	// OverflowKey holds the extra cells of rows wider than their header.
	OverflowKey string `mapstructure:"overflow_key" yaml:"overflow_key"`

	// StopOnError aborts the remaining jobs after the first failure.
	StopOnError bool `mapstructure:"stop_on_error" yaml:"stop_on_error"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// DefaultJobs is the regional dataset list converted when no jobs are
// configured.
func DefaultJobs() []types.Job {
	return []types.Job{
		{Source: "ny_data.csv", Destination: "ny_data.json"},
		{Source: "nj_data.csv", Destination: "nj_data.json"},
		{Source: "pa_data.csv", Destination: "pa_data.json"},
	}
}

// Load reads configuration. An explicit path must exist; without one,
// DefaultFile is used if present.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("base_dir", ".")
	v.SetDefault("overflow_key", document.DefaultOverflowKey)
	v.SetDefault("stop_on_error", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigFile(DefaultFile)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config %s: %w", DefaultFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if len(cfg.Jobs) == 0 {
		cfg.Jobs = DefaultJobs()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first problem that would make a run meaningless.
func (c *Config) Validate() error {
	if c.OverflowKey == "" {
		return errors.New("config: overflow_key must not be empty")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: log_format %q must be text or json", c.LogFormat)
	}
	for i, job := range c.Jobs {
		if job.Source == "" || job.Destination == "" {
			return fmt.Errorf("config: job %d needs both source and destination", i+1)
		}
		if filepath.Clean(job.Source) == filepath.Clean(job.Destination) {
			return fmt.Errorf("config: job %d writes over its own source %s", i+1, job.Source)
		}
	}
	return nil
}

// ResolvedJobs returns the jobs with relative paths joined to BaseDir.
func (c *Config) ResolvedJobs() []types.Job {
	jobs := make([]types.Job, len(c.Jobs))
	for i, job := range c.Jobs {
		jobs[i] = types.Job{
			Source:      c.resolve(job.Source),
			Destination: c.resolve(job.Destination),
		}
	}
	return jobs
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// ParseLevel maps a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: log_level %q: %w", s, err)
	}
	return level, nil
}
