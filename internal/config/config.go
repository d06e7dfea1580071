package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all environment backed configuration for chatdeck.
type Config struct {
	// Data directory; empty means ~/.chatdeck.
	DataDir string `env:"CHATDECK_DATA_DIR"`
	DBPath  string `env:"CHATDECK_DB_PATH"`

	// Logging
	LogLevel  string `env:"CHATDECK_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"CHATDECK_LOG_FORMAT" envDefault:"console"`
	LogFile   string `env:"CHATDECK_LOG_FILE"`

	// Identity of the local user owning the chats.
	UserID string `env:"CHATDECK_USER_ID" envDefault:"local"`

	// Remote history API; empty means the local database serves history.
	APIBaseURL     string        `env:"CHATDECK_API_URL"`
	APIToken       string        `env:"CHATDECK_API_TOKEN"`
	RequestTimeout time.Duration `env:"CHATDECK_REQUEST_TIMEOUT" envDefault:"30s"`

	// Model provider
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL"`
	DefaultModel    string `env:"CHATDECK_DEFAULT_MODEL"`
	ModelsFile      string `env:"CHATDECK_MODELS_FILE"`
	TestEnvironment bool   `env:"CHATDECK_TEST_ENVIRONMENT" envDefault:"false"`

	PageSize int `env:"CHATDECK_PAGE_SIZE" envDefault:"20"`
}

// Load parses the environment and fills in paths under the data directory.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if strings.TrimSpace(cfg.DataDir) == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(homeDir, ".chatdeck")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "chatdeck.db")
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "chatdeck.log")
	}
	if cfg.ModelsFile == "" {
		cfg.ModelsFile = filepath.Join(cfg.DataDir, "models.yml")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("CHATDECK_PAGE_SIZE must be positive, got %d", c.PageSize))
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("CHATDECK_LOG_FORMAT must be console or json, got %q", c.LogFormat))
	}
	if strings.TrimSpace(c.UserID) == "" {
		errs = append(errs, errors.New("CHATDECK_USER_ID must not be empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("CHATDECK_REQUEST_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// RemoteHistory reports whether history is served by the remote API.
func (c *Config) RemoteHistory() bool {
	return strings.TrimSpace(c.APIBaseURL) != ""
}

// PreferencesPath is where UI preferences such as the chosen model live.
func (c *Config) PreferencesPath() string {
	return filepath.Join(c.DataDir, "preferences.yml")
}
