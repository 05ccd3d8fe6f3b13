// Package config loads the harness settings from a YAML file and the
// environment. Everything is read once at startup; the resulting Config is
// immutable and passed explicitly to the components that need it.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultRequestTimeout  = 10 * time.Second
	DefaultPollAttempts    = 5
	DefaultPollDelay       = time.Second
	DefaultFreshnessWindow = 2 * time.Minute
)

// Config holds every external parameter the harness needs.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// APIConfig describes the target REST API under test.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	// Token is sent on every request in the x-api-key header.
	Token   string   `yaml:"token"`
	Timeout Duration `yaml:"timeout"`
}

// WebhookConfig describes the capture endpoint and the polling parameters
// used while waiting for an event to arrive there.
type WebhookConfig struct {
	// TargetURL is the full capture URL that events are POSTed to. Its first
	// path segment is the capture token.
	TargetURL string `yaml:"target_url"`
	// APIBaseURL is the base URL of the capture service's inspection API.
	APIBaseURL string `yaml:"api_base_url"`
	// APIKey is optional; anonymous capture endpoints do not need one.
	APIKey          string   `yaml:"api_key"`
	Timeout         Duration `yaml:"timeout"`
	PollAttempts    int      `yaml:"poll_attempts"`
	PollDelay       Duration `yaml:"poll_delay"`
	FreshnessWindow Duration `yaml:"freshness_window"`
}

// Environment variables override the corresponding settings file values.
const (
	EnvAPIBaseURL       = "API_BASE_URL"
	EnvAPIToken         = "API_TOKEN"
	EnvWebhookTargetURL = "WEBHOOK_TARGET_URL"
	EnvWebhookAPIURL    = "WEBHOOK_API_URL"
	EnvWebhookAPIKey    = "WEBHOOK_API_KEY"
)

const defaultWebhookAPIBaseURL = "https://webhook.site"

// Load reads the settings file at path (if it exists), applies environment
// variable overrides, fills in defaults, and validates the result. A missing
// file is not an error as long as the environment supplies the required
// values.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("malformed settings file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// env-only configuration
	default:
		return nil, err
	}

	applyEnv(&cfg.API.BaseURL, EnvAPIBaseURL)
	applyEnv(&cfg.API.Token, EnvAPIToken)
	applyEnv(&cfg.Webhook.TargetURL, EnvWebhookTargetURL)
	applyEnv(&cfg.Webhook.APIBaseURL, EnvWebhookAPIURL)
	applyEnv(&cfg.Webhook.APIKey, EnvWebhookAPIKey)

	cfg.FillDefaults()

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("API base URL must be set via api.base_url or %s", EnvAPIBaseURL)
	}
	if cfg.API.Token == "" {
		return nil, fmt.Errorf("API token must be set via api.token or %s", EnvAPIToken)
	}
	if cfg.Webhook.PollAttempts < 0 {
		return nil, errors.New("webhook.poll_attempts must not be negative")
	}

	return cfg, nil
}

// FillDefaults replaces unset durations and counts with their defaults.
// Load calls it automatically; it is exported for configurations assembled
// in code, such as the self-check mode's.
func (c *Config) FillDefaults() {
	if c.API.Timeout <= 0 {
		c.API.Timeout = Duration(DefaultRequestTimeout)
	}
	if c.Webhook.APIBaseURL == "" {
		c.Webhook.APIBaseURL = defaultWebhookAPIBaseURL
	}
	if c.Webhook.Timeout <= 0 {
		c.Webhook.Timeout = Duration(DefaultRequestTimeout)
	}
	if c.Webhook.PollAttempts == 0 {
		c.Webhook.PollAttempts = DefaultPollAttempts
	}
	if c.Webhook.PollDelay <= 0 {
		c.Webhook.PollDelay = Duration(DefaultPollDelay)
	}
	if c.Webhook.FreshnessWindow <= 0 {
		c.Webhook.FreshnessWindow = Duration(DefaultFreshnessWindow)
	}
}

// HasWebhookTarget reports whether a capture endpoint is configured. The
// webhook delivery tests are skipped, not failed, when it is absent.
func (c *Config) HasWebhookTarget() bool {
	return c.Webhook.TargetURL != ""
}

func applyEnv(dest *string, name string) {
	if value := os.Getenv(name); value != "" {
		*dest = value
	}
}
