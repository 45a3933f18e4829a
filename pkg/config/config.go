package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingCredentials is returned when no EMT credentials are configured.
var ErrMissingCredentials = errors.New("EMT credentials are not configured (set emt.credentials or EMTBOT_EMT_ID_CLIENT/EMTBOT_EMT_PASS_KEY)")

const (
	DefaultPath           = "config.json"
	DefaultTelegramAPIURL = "https://api.telegram.org"
	DefaultEMTBaseURL     = "https://openbus.emtmadrid.es:9443/emt-proxy-server/last/"
)

// AppConfig holds everything the bot needs to run
type AppConfig struct {
	Telegram    TelegramConfig  `json:"telegram" yaml:"telegram"`
	EMT         EMTConfig       `json:"emt" yaml:"emt"`
	RateLimit   RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	MetricsAddr string          `json:"metrics_addr,omitempty" yaml:"metrics_addr"`
	LogLevel    string          `json:"log_level,omitempty" yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

// TelegramConfig configures the Bot API gateway
type TelegramConfig struct {
	Token          string `json:"token" yaml:"token" validate:"required"`
	APIURL         string `json:"api_url,omitempty" yaml:"api_url" validate:"url"`
	PollTimeoutSec int    `json:"poll_timeout_sec,omitempty" yaml:"poll_timeout_sec" validate:"gte=0,lte=50"`
}

// EMTConfig configures the openbus client
type EMTConfig struct {
	BaseURL string `json:"base_url,omitempty" yaml:"base_url" validate:"url"`

	// Credentials are sent verbatim as form fields with every call (idClient, passKey).
	Credentials map[string]string `json:"credentials,omitempty" yaml:"credentials" validate:"min=1"`
	// CredentialsFile is a flat JSON object with the same content, e.g. an existing config_emt.json.
	CredentialsFile string `json:"credentials_file,omitempty" yaml:"credentials_file"`

	InsecureSkipVerify bool `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify"`
	TimeoutSec         int  `json:"timeout_sec,omitempty" yaml:"timeout_sec" validate:"gte=0"`
	MaxAttempts        int  `json:"max_attempts,omitempty" yaml:"max_attempts" validate:"gte=1,lte=5"`
	Radius             int  `json:"radius,omitempty" yaml:"radius" validate:"gte=1,lte=1000"`
}

// RateLimitConfig limits messages per chat. Zero disables it.
type RateLimitConfig struct {
	PerSecond float64 `json:"per_second,omitempty" yaml:"per_second" validate:"gte=0"`
	Burst     int     `json:"burst,omitempty" yaml:"burst" validate:"gte=0"`
}

// Timeout returns the EMT request timeout.
func (c EMTConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// PollTimeout returns the Telegram long-poll timeout.
func (c TelegramConfig) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutSec) * time.Second
}

// Load reads the configuration file at path (JSON, or YAML for .yml/.yaml), applies
// .env and environment overrides, fills defaults and validates the result.
// A missing file is fine as long as the environment provides the required values.
func Load(path string) (*AppConfig, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if len(cfg.EMT.Credentials) == 0 {
		return nil, ErrMissingCredentials
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadEMT loads only what the one-shot CLI commands need: the EMT section and logging.
// The Telegram token is not required.
func LoadEMT(path string) (*AppConfig, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if len(cfg.EMT.Credentials) == 0 {
		return nil, ErrMissingCredentials
	}
	if err := validator.New().Struct(cfg.EMT); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func read(path string) (*AppConfig, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := unmarshal(path, data, cfg); err != nil {
			return nil, err
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if cfg.EMT.CredentialsFile != "" {
		fromFile, err := loadCredentials(cfg.EMT.CredentialsFile)
		if err != nil {
			return nil, err
		}
		// Explicit credentials win over the file
		maps.Copy(fromFile, cfg.EMT.Credentials)
		cfg.EMT.Credentials = fromFile
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	return cfg, nil
}

func unmarshal(path string, data []byte, cfg *AppConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	return nil
}

func loadCredentials(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds map[string]string
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials JSON: %w", err)
	}
	if creds == nil {
		creds = map[string]string{}
	}
	return creds, nil
}

func applyEnv(cfg *AppConfig) error {
	if v := os.Getenv("EMTBOT_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("EMTBOT_EMT_BASE_URL"); v != "" {
		cfg.EMT.BaseURL = v
	}
	if v := os.Getenv("EMTBOT_EMT_ID_CLIENT"); v != "" {
		setCredential(cfg, "idClient", v)
	}
	if v := os.Getenv("EMTBOT_EMT_PASS_KEY"); v != "" {
		setCredential(cfg, "passKey", v)
	}
	if v := os.Getenv("EMTBOT_EMT_INSECURE_SKIP_VERIFY"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid EMTBOT_EMT_INSECURE_SKIP_VERIFY: %q", v)
		}
		cfg.EMT.InsecureSkipVerify = b
	}
	if v := os.Getenv("EMTBOT_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("EMTBOT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

func setCredential(cfg *AppConfig, key, value string) {
	if cfg.EMT.Credentials == nil {
		cfg.EMT.Credentials = map[string]string{}
	}
	cfg.EMT.Credentials[key] = value
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Telegram.APIURL == "" {
		cfg.Telegram.APIURL = DefaultTelegramAPIURL
	}
	if cfg.Telegram.PollTimeoutSec == 0 {
		cfg.Telegram.PollTimeoutSec = 30
	}
	if cfg.EMT.BaseURL == "" {
		cfg.EMT.BaseURL = DefaultEMTBaseURL
	}
	if cfg.EMT.TimeoutSec == 0 {
		cfg.EMT.TimeoutSec = 30
	}
	if cfg.EMT.MaxAttempts == 0 {
		cfg.EMT.MaxAttempts = 1
	}
	if cfg.EMT.Radius == 0 {
		cfg.EMT.Radius = 100
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}
