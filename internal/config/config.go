// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (ANSWERDESK_* runtime override)
//  2. Config file (config.yaml in the working directory or ~/.answerdesk/)
//  3. Default values
//
// A local .env file, if present, is loaded into the environment first so the
// Gemini API key and admin secret can live outside the config file.
//
// Security: sensitive fields (admin secret, API key) are masked in MarshalJSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAdminSecret indicates the admin secret is not set.
	ErrMissingAdminSecret = errors.New("missing admin secret")

	// ErrWeakAdminSecret indicates the admin secret is too short.
	ErrWeakAdminSecret = errors.New("admin secret too short")

	// ErrInvalidDocsDir indicates the document directory is invalid.
	ErrInvalidDocsDir = errors.New("invalid docs directory")

	// ErrInvalidRateLimit indicates the rate limit is out of range.
	ErrInvalidRateLimit = errors.New("invalid rate limit")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")
)

const (
	// DefaultModelName is the provider-qualified generation model.
	DefaultModelName = "googleai/gemini-2.5-flash"

	// MinAdminSecretLength is the minimum accepted admin secret length.
	MinAdminSecretLength = 8

	// geminiAPIKeyEnv is the environment variable holding the backend credential.
	// Read from the environment directly (never stored in the config file) —
	// its presence selects the backend-delegated generation strategy.
	geminiAPIKeyEnv = "GEMINI_API_KEY"
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// HTTP server
	Addr       string `mapstructure:"addr" json:"addr"`
	TrustProxy bool   `mapstructure:"trust_proxy" json:"trust_proxy"` // Trust X-Real-IP/X-Forwarded-For (behind reverse proxy)

	// Corpus
	DocsDir string `mapstructure:"docs_dir" json:"docs_dir"`

	// Generation
	ModelName     string `mapstructure:"model_name" json:"model_name"`
	MockDelayMS   int    `mapstructure:"mock_delay_ms" json:"mock_delay_ms"`     // Inter-word delay of the local fallback
	BackendRPS    int    `mapstructure:"backend_rps" json:"backend_rps"`         // Pacing for upstream generation calls
	BackendBurst  int    `mapstructure:"backend_burst" json:"backend_burst"`     //
	MaxTokens     int    `mapstructure:"max_tokens" json:"max_tokens"`           //
	RefusalAnswer string `mapstructure:"refusal_answer" json:"refusal_answer"`   // Fixed sentence for unanswerable questions
	ImportantTerm string `mapstructure:"important_terms" json:"important_terms"` // Comma-separated domain-important terms

	// Admission control (fixed window)
	RateLimit       int `mapstructure:"rate_limit" json:"rate_limit"`               // Requests per window per client
	RateWindowSecs  int `mapstructure:"rate_window_secs" json:"rate_window_secs"`   //
	MaxUploadSizeMB int `mapstructure:"max_upload_size_mb" json:"max_upload_size_mb"`

	// Administration
	AdminSecret string `mapstructure:"admin_secret" json:"admin_secret"` // SENSITIVE: masked in MarshalJSON

	// Logging
	LogJSON bool `mapstructure:"log_json" json:"log_json"`
}

// Load reads configuration from .env, the config file, and the environment.
func Load() (*Config, error) {
	// Best effort: a missing .env is fine.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".answerdesk"))
	}

	viper.SetEnvPrefix("ANSWERDESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file: defaults + env are enough.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("addr", "localhost:8080")
	viper.SetDefault("docs_dir", "docs")
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("mock_delay_ms", 50)
	viper.SetDefault("backend_rps", 10)
	viper.SetDefault("backend_burst", 30)
	viper.SetDefault("max_tokens", 500)
	viper.SetDefault("rate_limit", 10)
	viper.SetDefault("rate_window_secs", 60)
	viper.SetDefault("max_upload_size_mb", 4)
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("log_json", false)
}

// Validate checks configuration values that every mode depends on.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if strings.TrimSpace(c.DocsDir) == "" {
		return fmt.Errorf("%w: docs_dir is empty", ErrInvalidDocsDir)
	}
	if c.ModelName == "" {
		return ErrInvalidModelName
	}
	if c.RateLimit < 1 || c.RateLimit > 10000 {
		return fmt.Errorf("%w: %d (must be 1-10000)", ErrInvalidRateLimit, c.RateLimit)
	}
	if c.RateWindowSecs < 1 {
		return fmt.Errorf("%w: window %ds", ErrInvalidRateLimit, c.RateWindowSecs)
	}
	return nil
}

// ValidateServe checks the additional requirements of serve mode.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.AdminSecret == "" {
		return ErrMissingAdminSecret
	}
	if len(c.AdminSecret) < MinAdminSecretLength {
		return fmt.Errorf("%w: need at least %d characters", ErrWeakAdminSecret, MinAdminSecretLength)
	}
	return nil
}

// GeminiAPIKey returns the backend credential from the environment.
// Empty means no backend is configured and the local fallback is used.
func (c *Config) GeminiAPIKey() string {
	return os.Getenv(geminiAPIKeyEnv)
}

// BackendConfigured reports whether an external generation backend credential
// is present.
func (c *Config) BackendConfigured() bool {
	return c.GeminiAPIKey() != ""
}

// RateWindow returns the fixed admission window as a duration.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateWindowSecs) * time.Second
}

// MockDelay returns the local fallback's inter-word streaming delay.
func (c *Config) MockDelay() time.Duration {
	return time.Duration(c.MockDelayMS) * time.Millisecond
}

// ImportantTerms returns the configured domain-important term list.
// Empty or whitespace-only entries are dropped; an empty setting yields nil
// so callers fall back to the built-in vocabulary.
func (c *Config) ImportantTerms() []string {
	if strings.TrimSpace(c.ImportantTerm) == "" {
		return nil
	}
	parts := strings.Split(c.ImportantTerm, ",")
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.ToLower(strings.TrimSpace(p)); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// MarshalJSON masks sensitive fields.
// When adding new sensitive fields, update this method.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config // Avoid recursion
	masked := alias(*c)
	if masked.AdminSecret != "" {
		masked.AdminSecret = "***"
	}
	data, err := json.Marshal(masked)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}
