// Package config implements the host Configuration contract (§6): the
// value a caller supplies once per process to bound concurrency, wire
// provider credentials, and opt into the optional ambient collaborators
// (blob-backed file store, lifecycle event bus, tracing).
//
// Grounded on the teacher's pkg/embedded/runtime.ProcessorConfig fluent-
// builder + Validate() shape and pkg/concurrency.LoadConfig's env-var
// override idiom for the ambient pieces the spec leaves to host discretion.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flowforge/flowrun/internal/tracing"
	"github.com/flowforge/flowrun/pkg/concurrency"
)

// ProviderConfig is one configured provider's credentials/options, keyed
// by category ("llm"/"embedding"/"vector") then provider name in
// Configuration.Providers.
type ProviderConfig struct {
	APIKey  string                 `json:"apiKey,omitempty"`
	BaseURL string                 `json:"baseUrl,omitempty"`
	Extra   map[string]interface{} `json:"extra,omitempty"`
}

// Configuration is the host configuration value per spec §6.
type Configuration struct {
	// ConcurrencyGlobalLimit bounds simultaneously-executing flows.
	ConcurrencyGlobalLimit int `json:"concurrency.global_limit"`

	// Providers maps category -> provider name -> credentials.
	Providers map[string]map[string]ProviderConfig `json:"providers,omitempty"`

	// TimeoutMs bounds a single flow run; zero means no bound.
	TimeoutMs int `json:"timeout,omitempty"`

	// LogLevel is one of debug|info|warn|error.
	LogLevel string `json:"logLevel,omitempty"`

	// TempDir overrides the File Store's local staging directory.
	TempDir string `json:"tempDir,omitempty"`

	// BlobConnectionString, when set, mirrors large file payloads to
	// Azure Blob Storage (§4.11).
	BlobConnectionString string `json:"blobConnectionString,omitempty"`
	BlobContainer        string `json:"blobContainer,omitempty"`

	// NATSURL, when set, enables the optional Lifecycle Event Bus (§4.12).
	NATSURL string `json:"natsUrl,omitempty"`

	// Tracing configures the OpenTelemetry exporter (§4.13); nil disables it.
	Tracing *tracing.TracingConfig `json:"tracing,omitempty"`
}

// Default returns a Configuration with every optional ambient
// collaborator disabled and a concurrency bound taken from the same
// env-var/auto-detect/default priority the teacher's concurrency
// package already applies to its own worker pools, so a host that
// never supplies a config file still gets a sensible, environment-aware
// limit rather than a hardcoded 1.
func Default() *Configuration {
	return &Configuration{
		ConcurrencyGlobalLimit: concurrency.LoadConfig().MaxConcurrent,
		LogLevel:               "info",
	}
}

// Load parses a JSON-encoded Configuration and validates it.
func Load(data []byte) (*Configuration, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: invalid JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides lets deployment-specific secrets (blob connection
// string, NATS URL) ride in the environment instead of the checked-in
// configuration file, mirroring the teacher's env-var-overrides-file
// precedence for concurrency settings.
func (c *Configuration) ApplyEnvOverrides() {
	if v := os.Getenv("FLOWRUN_BLOB_CONNECTION_STRING"); v != "" {
		c.BlobConnectionString = v
	}
	if v := os.Getenv("FLOWRUN_BLOB_CONTAINER"); v != "" {
		c.BlobContainer = v
	}
	if v := os.Getenv("FLOWRUN_NATS_URL"); v != "" {
		c.NATSURL = v
	}
}

// Validate checks the required fields and normalizes defaults, per §6's
// "concurrency.global_limit (positive integer, required)".
func (c *Configuration) Validate() error {
	if c.ConcurrencyGlobalLimit <= 0 {
		return fmt.Errorf("config: concurrency.global_limit must be a positive integer")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: logLevel must be one of debug|info|warn|error, got %q", c.LogLevel)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return nil
}

// HasProvider reports whether a category/name pair has a configured
// provider entry — §6's "Provider apiKey absence is fatal only when a
// node requiring that provider runs" means this is checked lazily by the
// node handlers, not eagerly at load time.
func (c *Configuration) HasProvider(category, name string) bool {
	names, ok := c.Providers[category]
	if !ok {
		return false
	}
	_, ok = names[name]
	return ok
}

// Provider looks up one configured provider's credentials.
func (c *Configuration) Provider(category, name string) (ProviderConfig, bool) {
	names, ok := c.Providers[category]
	if !ok {
		return ProviderConfig{}, false
	}
	p, ok := names[name]
	return p, ok
}

// ProviderAvailability builds the validator's AvailableProviders view
// from the configured providers map.
func (c *Configuration) ProviderAvailability() map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(c.Providers))
	for category, names := range c.Providers {
		m := make(map[string]bool, len(names))
		for name := range names {
			m[name] = true
		}
		out[category] = m
	}
	return out
}
