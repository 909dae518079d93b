// Package config centralises runtime configuration helpers for simpool.
package config

import (
	"os"
	"strings"
)

// Environment identifies the runtime environment where simpool operates.
type Environment string

const (
	// EnvDev marks the development environment.
	EnvDev Environment = "dev"
	// EnvStaging marks the staging environment.
	EnvStaging Environment = "staging"
	// EnvProd marks the production environment.
	EnvProd Environment = "prod"
)

// PoolSettings declares the construction parameters of one named pool.
type PoolSettings struct {
	Name string `yaml:"name"`
	// StartSize is the number of instances allocated eagerly at construction.
	StartSize int `yaml:"startSize"`
	// MaxAllocations bounds the total instances the pool may ever create.
	// Non-positive means unbounded.
	MaxAllocations int `yaml:"maxAllocations"`
}

// TelemetryConfig declares metric export settings.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlpEndpoint"`
	ServiceName  string `yaml:"serviceName"`
}

// Settings contains the simpool configuration tree loaded from defaults and overrides.
type Settings struct {
	Environment Environment     `yaml:"environment"`
	Pools       []PoolSettings  `yaml:"pools"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
}

// Default returns the default simpool configuration.
func Default() Settings {
	return Settings{
		Environment: EnvProd,
		Pools:       nil,
		Telemetry:   TelemetryConfig{OTLPEndpoint: "", ServiceName: "simpool"},
	}
}

// FromEnv loads configuration values from environment variables, overriding defaults.
func FromEnv() Settings {
	cfg := Default()
	if env := strings.TrimSpace(os.Getenv("SIMPOOL_ENV")); env != "" {
		cfg.Environment = Environment(strings.ToLower(env))
	}
	if v := strings.TrimSpace(os.Getenv("SIMPOOL_OTLP_ENDPOINT")); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("SIMPOOL_SERVICE_NAME")); v != "" {
		cfg.Telemetry.ServiceName = v
	}
	return cfg
}

// Option mutates Settings when applied via Apply.
type Option func(*Settings)

// Apply applies the provided Option set to a copy of the base Settings.
func Apply(base Settings, opts ...Option) Settings {
	cfg := base.clone()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Pool returns the settings for the named pool if present.
func (s Settings) Pool(name string) (PoolSettings, bool) {
	for _, p := range s.Pools {
		if p.Name == name {
			return p, true
		}
	}
	return PoolSettings{}, false
}

// WithEnvironment configures the top-level environment.
func WithEnvironment(env Environment) Option {
	return func(s *Settings) {
		if env != "" {
			s.Environment = env
		}
	}
}

// WithPool appends or replaces the settings for one named pool.
func WithPool(pool PoolSettings) Option {
	pool.Name = strings.TrimSpace(pool.Name)
	return func(s *Settings) {
		if pool.Name == "" {
			return
		}
		for i, existing := range s.Pools {
			if existing.Name == pool.Name {
				s.Pools[i] = pool
				return
			}
		}
		s.Pools = append(s.Pools, pool)
	}
}

// WithTelemetryEndpoint overrides the OTLP metric export endpoint.
func WithTelemetryEndpoint(endpoint string) Option {
	endpoint = strings.TrimSpace(endpoint)
	return func(s *Settings) {
		s.Telemetry.OTLPEndpoint = endpoint
	}
}

// WithServiceName overrides the reported telemetry service name.
func WithServiceName(name string) Option {
	name = strings.TrimSpace(name)
	return func(s *Settings) {
		if name != "" {
			s.Telemetry.ServiceName = name
		}
	}
}

func (s Settings) clone() Settings {
	out := s
	if s.Pools != nil {
		out.Pools = make([]PoolSettings, len(s.Pools))
		copy(out.Pools, s.Pools)
	}
	return out
}
