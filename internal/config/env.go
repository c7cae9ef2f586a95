package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env holds settings that come from the process environment rather than
// bonustrack.yaml. Secrets live only here.
type Env struct {
	APIKey        string `env:"BONUSTRACK_API_KEY"`
	ParserBaseURL string `env:"BONUSTRACK_PARSER_BASE_URL"`
	ParserModel   string `env:"BONUSTRACK_PARSER_MODEL"`
	Addr          string `env:"BONUSTRACK_ADDR"`
}

// LoadDotEnv loads <dir>/.env into the process environment when it exists.
// Variables already set win.
func LoadDotEnv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, ".env"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// ParseEnv reads Env from environment variables.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// Apply overlays the non-empty environment settings onto cfg.
func (e Env) Apply(cfg *Config) {
	if e.ParserBaseURL != "" {
		cfg.Parser.BaseURL = e.ParserBaseURL
	}
	if e.ParserModel != "" {
		cfg.Parser.Model = e.ParserModel
	}
	if e.Addr != "" {
		cfg.Server.Addr = e.Addr
	}
}
