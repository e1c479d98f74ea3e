// Package config loads the application configuration from an optional YAML
// file, .env files and the environment, in that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/naka-gawa/repo-event-stats/internal/gateway"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. RES_STORE_BACKEND.
const EnvPrefix = "RES"

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Listen      string       `yaml:"listen" validate:"required"`
	Concurrency int          `yaml:"concurrency" validate:"min=1,max=5"`
	Store       StoreConfig  `yaml:"store"`
	GitHub      GitHubConfig `yaml:"github" envconfig:"GITHUB"`
}

// StoreConfig selects and configures the statistics store.
type StoreConfig struct {
	Backend    string `yaml:"backend" validate:"oneof=file sqlite redis"`
	Dir        string `yaml:"dir" validate:"required_if=Backend file"`
	SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH" validate:"required_if=Backend sqlite"`
	RedisURL   string `yaml:"redis_url" split_words:"true" validate:"required_if=Backend redis"`
	// MemoSize is the number of records kept in memory; 0 disables the memo.
	// A memoized record outlives a `cache clear` run from another process
	// until this process restarts.
	MemoSize int `yaml:"memo_size" split_words:"true" validate:"gte=0"`
}

// GitHubConfig configures the events API client.
type GitHubConfig struct {
	BaseURL string `yaml:"base_url" split_words:"true" validate:"omitempty,url"`
	Token   string `yaml:"token"`

	AppClientID       string `yaml:"app_client_id" split_words:"true"`
	AppPrivateKey     string `yaml:"app_private_key" split_words:"true" validate:"required_with=AppClientID"`
	AppInstallationID int64  `yaml:"app_installation_id" split_words:"true" validate:"required_with=AppClientID"`

	Timeout                  time.Duration `yaml:"timeout" validate:"gte=0"`
	RequestsPerMinute        int           `yaml:"requests_per_minute" split_words:"true" validate:"gte=0"`
	WaitOnSecondaryRateLimit bool          `yaml:"wait_on_secondary_rate_limit" split_words:"true"`
}

// Options converts the GitHub section into gateway options.
func (c GitHubConfig) Options() gateway.Options {
	return gateway.Options{
		BaseURL:                  c.BaseURL,
		Token:                    c.Token,
		AppClientID:              c.AppClientID,
		AppPrivateKey:            []byte(c.AppPrivateKey),
		AppInstallationID:        c.AppInstallationID,
		Timeout:                  c.Timeout,
		RequestsPerMinute:        c.RequestsPerMinute,
		WaitOnSecondaryRateLimit: c.WaitOnSecondaryRateLimit,
	}
}

// Default returns a Config that reproduces the plain behaviour: CSV files
// under ./statistics, one repository at a time, unauthenticated requests.
func Default() *Config {
	return &Config{
		Listen:      ":8080",
		Concurrency: 1,
		Store: StoreConfig{
			Backend:    BackendFile,
			Dir:        "statistics",
			SQLitePath: "statistics.db",
			MemoSize:   128,
		},
	}
}

// Loader loads a Config.
type Loader struct {
	Prefix   string
	EnvFiles []string
	Validate *validator.Validate
	logger   *log.Logger
}

// NewLoader returns a Loader reading RES_* variables and the .env file in
// the working directory.
func NewLoader(logger *log.Logger) *Loader {
	return &Loader{
		Prefix:   EnvPrefix,
		EnvFiles: []string{".env"},
		Validate: validator.New(),
		logger:   logger,
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment are used.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := l.loadDotEnv(); err != nil {
		return nil, err
	}
	if err := envconfig.Process(l.Prefix, cfg); err != nil {
		return nil, fmt.Errorf("env load: %w", err)
	}
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
	}

	if err := l.Validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	l.logger.Printf("config loaded store=%s concurrency=%d token_set=%t",
		cfg.Store.Backend, cfg.Concurrency, cfg.GitHub.Token != "")
	return cfg, nil
}

// loadDotEnv loads the env files that exist. Variables already set in the
// environment win.
func (l *Loader) loadDotEnv() error {
	for _, f := range l.EnvFiles {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("dotenv %s: %w", f, err)
		}
	}
	return nil
}
