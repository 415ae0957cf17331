package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"tsh/internal/jobs"
)

const (
	DefaultPrompt      = "tsh> "
	DefaultHistorySize = 1000
	historyFileName    = ".tsh_history"
	configFileName     = ".tsh.yml"
)

type Config struct {
	HomeDir     string       `yaml:"home_dir"`
	HistoryFile string       `yaml:"history_file"`
	HistorySize int          `yaml:"history_size"`
	Prompt      string       `yaml:"prompt"`
	MaxJobs     int          `yaml:"max_jobs"`
	Logger      LoggerConfig `yaml:"logger"`
}

// LoggerConfig selects the slog handler used for diagnostics.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stderr, stdout or a file path
}

// Defaults returns a config with every field populated except the
// home-relative paths, which Load fills in.
func Defaults() *Config {
	return &Config{
		HistorySize: DefaultHistorySize,
		Prompt:      DefaultPrompt,
		MaxJobs:     jobs.DefaultCapacity,
		Logger: LoggerConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Path returns the config file location: $TSH_CONFIG, or ~/.tsh.yml.
func Path() string {
	if p := os.Getenv("TSH_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(home, configFileName)
}

// Load reads file over the defaults. A missing file is not an error.
func Load(file string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(file)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", file, err)
		}
	}

	ApplyEnvOverrides(cfg)

	if cfg.HomeDir == "" {
		cfg.HomeDir, err = os.UserHomeDir()
		if err != nil {
			return nil, err
		}
	}

	if cfg.HistoryFile == "" {
		cfg.HistoryFile = filepath.Join(cfg.HomeDir, historyFileName)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides lets TSH_* variables take precedence over the file.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TSH_PROMPT"); v != "" {
		cfg.Prompt = v
	}
	if v := os.Getenv("TSH_HISTORY_FILE"); v != "" {
		cfg.HistoryFile = v
	}
	if v := os.Getenv("TSH_MAX_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxJobs = n
		}
	}
	if v := os.Getenv("TSH_LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
}

func (c *Config) Validate() error {
	if c.MaxJobs < 1 {
		return fmt.Errorf("max_jobs must be at least 1, got %d", c.MaxJobs)
	}
	if c.HistorySize < 0 {
		return fmt.Errorf("history_size must not be negative, got %d", c.HistorySize)
	}
	return nil
}
