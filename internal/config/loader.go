package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// validLogLevels enumerates the recognised values for [ServerConfig.LogLevel].
var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// validBackends enumerates known image-generation backend names. Used by
// [Validate] to warn about unrecognised backend names without failing load.
var validBackends = []string{"openai"}

// Load reads the YAML configuration file at path, applies defaults, and
// returns a validated [Config]. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in zero-valued fields that have a sensible default,
// following the render tuning defaults in [DefaultRenderConfig].
func applyDefaults(cfg *Config) {
	defaults := DefaultRenderConfig()
	if cfg.Render.TimeoutSeconds == 0 {
		cfg.Render.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if cfg.Render.MaxRetries == 0 {
		cfg.Render.MaxRetries = defaults.MaxRetries
	}
	// RetryDelaySeconds defaults to 0, so there is nothing to backfill here:
	// an unset key and an explicit 0 already agree.
	if cfg.Store.Kind == "" {
		cfg.Store.Kind = "postgres"
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing every validation failure found; hard failures (those
// that would leave the service unable to start) are returned as errors,
// while recoverable oddities are logged as warnings.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !validLogLevels[cfg.Server.LogLevel] {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	switch cfg.Store.Kind {
	case "postgres":
		if cfg.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required when store.kind is \"postgres\""))
		}
	case "memory":
		// No DSN required.
	default:
		errs = append(errs, fmt.Errorf("store.kind %q is invalid; valid values: postgres, memory", cfg.Store.Kind))
	}

	if cfg.Render.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("render.timeout_seconds must be positive, got %d", cfg.Render.TimeoutSeconds))
	}
	if cfg.Render.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("render.max_retries must not be negative, got %d", cfg.Render.MaxRetries))
	}
	if cfg.Render.RetryDelaySeconds < 0 {
		errs = append(errs, fmt.Errorf("render.retry_delay_seconds must not be negative, got %d", cfg.Render.RetryDelaySeconds))
	}

	seenIDs := make(map[string]bool, len(cfg.Providers))
	for i, p := range cfg.Providers {
		if p.ID != "" {
			if seenIDs[p.ID] {
				errs = append(errs, fmt.Errorf("providers[%d]: duplicate id %q", i, p.ID))
			}
			seenIDs[p.ID] = true
		}
		validateBackendName(p.Backend)
	}

	if len(cfg.Providers) == 0 {
		slog.Warn("no image-generation providers configured; render requests will fail at startup")
	}

	return errors.Join(errs...)
}

// validateBackendName logs a warning (without failing validation) when name
// is non-empty but not among the backends this binary knows how to
// construct. An unrecognised backend surfaces as a dropped provider slot at
// pool-construction time, not as a load-time error.
func validateBackendName(name string) {
	if name == "" {
		return
	}
	for _, v := range validBackends {
		if v == name {
			return
		}
	}
	slog.Warn("unrecognised provider backend", slog.String("backend", name))
}
