// Copyright 2026 The Botanu Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sdk

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/botanu/botanu-go/pkg/errors"
)

// Duration unmarshals from YAML duration strings ("10s", "5m") as
// well as integer nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds SDK configuration.
type Config struct {
	// ServiceName identifies this service in traces. Required for Enable.
	ServiceName string `yaml:"service_name"`

	// ServiceVersion is the application version.
	ServiceVersion string `yaml:"service_version"`

	// Environment is the deployment environment label applied to new
	// run contexts when the caller does not supply one.
	Environment string `yaml:"environment"`

	// PropagationMode selects carrier density: "lean" (default) or "full".
	PropagationMode string `yaml:"propagation_mode"`

	// DetectResources enables host/container/kubernetes resource
	// detection at Enable time.
	DetectResources bool `yaml:"detect_resources"`

	// Sampling configures trace sampling.
	Sampling SamplingConfig `yaml:"sampling"`

	// Exporters configures span export destinations.
	Exporters []ExporterConfig `yaml:"exporters"`

	// BatchSize is the maximum number of spans per export batch (default: 512).
	BatchSize int `yaml:"batch_size"`

	// BatchInterval is how often to flush spans (default: 5s).
	BatchInterval Duration `yaml:"batch_interval"`

	// Log configures the SDK's own structured logging.
	Log LogConfig `yaml:"log"`
}

// SamplingConfig controls which traces are recorded.
type SamplingConfig struct {
	// Enabled activates sampling (default: false - sample all).
	Enabled bool `yaml:"enabled"`

	// Rate is the fraction of traces to sample (0.0 - 1.0).
	Rate float64 `yaml:"rate"`

	// AlwaysSampleErrors samples all traces carrying an error attribute.
	AlwaysSampleErrors bool `yaml:"always_sample_errors"`
}

// ExporterConfig defines a span export destination.
type ExporterConfig struct {
	// Type is the exporter type: "otlp", "otlp-http", "console", or "none".
	Type string `yaml:"type"`

	// Endpoint is the OTLP receiver address.
	Endpoint string `yaml:"endpoint"`

	// Headers are additional headers for authentication.
	Headers map[string]string `yaml:"headers"`

	// Insecure disables transport security (plain gRPC / HTTP).
	Insecure bool `yaml:"insecure"`

	// Timeout is the export timeout.
	Timeout Duration `yaml:"timeout"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ServiceName:     "botanu-app",
		ServiceVersion:  "unknown",
		Environment:     "production",
		PropagationMode: "lean",
		Sampling: SamplingConfig{
			Enabled:            false,
			Rate:               1.0,
			AlwaysSampleErrors: true,
		},
		Exporters:     nil,
		BatchSize:     512,
		BatchInterval: Duration(5 * time.Second),
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// envVarPattern matches ${VAR} references in config files.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolateEnv replaces ${VAR} references with environment values.
// Unset variables interpolate to the empty string.
func interpolateEnv(content []byte) []byte {
	return envVarPattern.ReplaceAllFunc(content, func(match []byte) []byte {
		name := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// LoadConfig reads YAML configuration from path, interpolating ${VAR}
// environment references, then applies environment variable overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, &errors.ConfigError{Key: path, Reason: "cannot read config file", Cause: err}
	}

	if err := yaml.Unmarshal(interpolateEnv(content), &cfg); err != nil {
		return cfg, &errors.ConfigError{Key: path, Reason: "invalid YAML", Cause: err}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// ConfigFromEnv returns the default configuration with environment
// variable overrides applied. Used when no config file is present.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	return cfg
}

// applyEnvOverrides lets the environment win over file values.
// Supported variables:
//   - BOTANU_SERVICE_NAME
//   - BOTANU_ENVIRONMENT (falls back to DEPLOYMENT_ENVIRONMENT)
//   - BOTANU_PROPAGATION_MODE: lean or full
//   - BOTANU_EXPORTER_ENDPOINT: adds an OTLP gRPC exporter
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BOTANU_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("BOTANU_ENVIRONMENT"); v != "" {
		c.Environment = v
	} else if v := os.Getenv("DEPLOYMENT_ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("BOTANU_PROPAGATION_MODE"); v != "" {
		c.PropagationMode = v
	}
	if v := os.Getenv("BOTANU_EXPORTER_ENDPOINT"); v != "" {
		c.Exporters = append(c.Exporters, ExporterConfig{Type: "otlp", Endpoint: v})
	}
}

// Validate checks the configuration for problems that should fail fast.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return &errors.ConfigError{Key: "service_name", Reason: "must not be empty"}
	}
	if c.Sampling.Rate < 0 || c.Sampling.Rate > 1 {
		return &errors.ConfigError{Key: "sampling.rate", Reason: "must be in [0, 1]"}
	}
	for i, e := range c.Exporters {
		switch e.Type {
		case "otlp", "otlp-http", "otlp_http", "console", "none", "":
		default:
			return &errors.ConfigError{
				Key:    "exporters[" + strconv.Itoa(i) + "].type",
				Reason: "unknown exporter type " + e.Type,
			}
		}
	}
	return nil
}
