// Package config provides the configuration schema, loader, and validation
// for the scenecaster service.
package config

import "time"

// Config is the root configuration structure for scenecaster. It is
// typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers []ProviderEntry `yaml:"providers"`
	Render    RenderConfig    `yaml:"render"`
	Store     StoreConfig     `yaml:"store"`
}

// ServerConfig holds network and logging settings for the scenecaster server.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// ProviderEntry configures one image-generation provider slot in the pool.
// Providers are tried in the order they appear in the pool, round-robin.
type ProviderEntry struct {
	// ID uniquely labels this provider slot in logs, metrics, and the status
	// projection. Defaults to "provider-<index>" when empty.
	ID string `yaml:"id"`

	// Backend selects the image-generation client implementation (e.g., "openai").
	Backend string `yaml:"backend"`

	// APIKey authenticates against the backend's API. A provider entry with
	// an empty key is dropped from the pool at startup rather than disabled
	// at request time.
	APIKey string `yaml:"api_key"`

	// Model selects the image-generation model (e.g., "dall-e-3").
	Model string `yaml:"model"`

	// Resolution is the requested output image size (e.g., "1024x1024").
	Resolution string `yaml:"resolution"`

	// BaseURL overrides the backend's default API endpoint. Leave empty to
	// use the backend's built-in default.
	BaseURL string `yaml:"base_url"`
}

// RenderConfig tunes the render engine and retry coordinator.
type RenderConfig struct {
	// TimeoutSeconds bounds a single provider render attempt.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// MaxRetries is the number of background retry attempts scheduled after
	// a synchronous render attempt exhausts the provider pool.
	MaxRetries int `yaml:"max_retries"`

	// RetryDelaySeconds is the fixed delay between background retry attempts.
	RetryDelaySeconds int `yaml:"retry_delay_seconds"`
}

// Timeout returns cfg's per-attempt timeout as a [time.Duration].
func (c RenderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryDelay returns cfg's retry delay as a [time.Duration].
func (c RenderConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// StoreConfig selects and configures the scene persistence backend.
type StoreConfig struct {
	// Kind selects the store implementation. Valid values: "postgres", "memory".
	Kind string `yaml:"kind"`

	// DSN is the PostgreSQL connection string, required when Kind is "postgres".
	DSN string `yaml:"dsn"`
}

// DefaultRenderConfig returns the render tuning defaults applied when a
// loaded config leaves the render section unset. RetryDelaySeconds defaults
// to 0: an operator who writes "retry_delay_seconds: 0" gets the same
// behavior as one who omits the key entirely.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		TimeoutSeconds: 45,
		MaxRetries:     2,
	}
}
