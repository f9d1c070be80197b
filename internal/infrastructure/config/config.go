package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Cookies      CookieConfig       `yaml:"cookies" toml:"cookies"`
	Forms        FormConfig         `yaml:"forms" toml:"forms"`
	Conversation ConversationConfig `yaml:"conversation" toml:"conversation"`
	Transport    TransportConfig    `yaml:"transport" toml:"transport"`
	Logging      LogConfig          `yaml:"logging" toml:"logging"`
	Store        StoreConfig        `yaml:"store" toml:"store"`
}

// CookieConfig selects the cookie acceptance rules.
type CookieConfig struct {
	StrictDomain bool `envconfig:"COOKIE_STRICT_DOMAIN" yaml:"strict_domain" toml:"strict_domain"`
	StrictPath   bool `envconfig:"COOKIE_STRICT_PATH" yaml:"strict_path" toml:"strict_path"`
}

// FormConfig controls form validation and serialization.
type FormConfig struct {
	ValidateParameters  bool   `envconfig:"FORM_VALIDATE" yaml:"validate_parameters" toml:"validate_parameters"`
	EditableHidden      bool   `envconfig:"FORM_EDITABLE_HIDDEN" yaml:"editable_hidden" toml:"editable_hidden"`
	DefaultCharset      string `envconfig:"FORM_CHARSET" yaml:"default_charset" toml:"default_charset"`
	PostIncludesCharset bool   `envconfig:"FORM_POST_CHARSET" yaml:"post_includes_charset" toml:"post_includes_charset"`
}

// ConversationConfig controls redirect and status handling.
type ConversationConfig struct {
	MaxRedirects    int    `envconfig:"MAX_REDIRECTS" yaml:"max_redirects" toml:"max_redirects"`
	FollowRedirects bool   `envconfig:"FOLLOW_REDIRECTS" yaml:"follow_redirects" toml:"follow_redirects"`
	StrictStatus    bool   `envconfig:"STRICT_STATUS" yaml:"strict_status" toml:"strict_status"`
	UserAgent       string `envconfig:"USER_AGENT" yaml:"user_agent" toml:"user_agent"`
}

// TransportConfig holds HTTP client configuration.
type TransportConfig struct {
	Timeout            time.Duration `envconfig:"HTTP_TIMEOUT" yaml:"timeout" toml:"timeout"`
	RateLimit          float64       `envconfig:"RATE_LIMIT_RPS" yaml:"rate_limit" toml:"rate_limit"`
	Burst              int           `envconfig:"RATE_LIMIT_BURST" yaml:"burst" toml:"burst"`
	InsecureSkipVerify bool          `envconfig:"HTTP_INSECURE" yaml:"insecure_skip_verify" toml:"insecure_skip_verify"`
	BreakerFailures    uint32        `envconfig:"BREAKER_FAILURES" yaml:"breaker_failures" toml:"breaker_failures"`
	BreakerTimeout     time.Duration `envconfig:"BREAKER_TIMEOUT" yaml:"breaker_timeout" toml:"breaker_timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development" toml:"development"`
	File        string `envconfig:"LOG_FILE" yaml:"file" toml:"file"`
}

// StoreConfig locates the cookie database. An empty path disables it.
type StoreConfig struct {
	Path string `envconfig:"COOKIE_DB" yaml:"path" toml:"path"`
}

// Load loads configuration from environment variables. Unset variables
// keep their Default value.
func Load() (*Config, error) {
	cfg := Default()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile reads a YAML or TOML file over the defaults, then applies
// environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Cookies: CookieConfig{
			StrictDomain: true,
			StrictPath:   true,
		},
		Forms: FormConfig{
			ValidateParameters: true,
			DefaultCharset:     "utf-8",
		},
		Conversation: ConversationConfig{
			MaxRedirects:    10,
			FollowRedirects: true,
			UserAgent:       "headless/1.0",
		},
		Transport: TransportConfig{
			Timeout:         30 * time.Second,
			Burst:           1,
			BreakerFailures: 10,
			BreakerTimeout:  30 * time.Second,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}
