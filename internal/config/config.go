package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file kept in the data directory.
const FileName = "bonustrack.yaml"

// Config represents the top-level bonustrack.yaml configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Parser    ParserConfig    `yaml:"parser"`
	Reminders RemindersConfig `yaml:"reminders"`
	Server    ServerConfig    `yaml:"server"`
	Git       GitConfig       `yaml:"git"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "json" or "sqlite"
	Key     string `yaml:"key"`
}

// ParserConfig configures the OpenAI-compatible chat endpoint used to
// turn free text into a bonus.
type ParserConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RemindersConfig controls the background reminder job.
type RemindersConfig struct {
	Schedule     string `yaml:"schedule"` // cron spec
	DeadlineDays int    `yaml:"deadline_days"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a bonustrack.yaml file from disk. Missing fields keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new data directory.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: "json",
			Key:     "bankBonuses",
		},
		Parser: ParserConfig{
			BaseURL:     "https://api.cerebras.ai/v1",
			Model:       "llama-3.3-70b",
			Temperature: 0.1,
			MaxTokens:   1000,
			Timeout:     30 * time.Second,
		},
		Reminders: RemindersConfig{
			Schedule:     "0 9 * * *",
			DeadlineDays: 7,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "Bonus Tracker",
			AuthorEmail: "tracker@bonustrack.local",
		},
	}
}
