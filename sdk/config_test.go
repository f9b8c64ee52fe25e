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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botanu/botanu-go/pkg/errors"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "botanu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
service_name: order-service
service_version: 1.4.2
environment: staging
propagation_mode: full
sampling:
  enabled: true
  rate: 0.25
  always_sample_errors: true
exporters:
  - type: otlp
    endpoint: collector:4317
    insecure: true
    timeout: 10s
batch_size: 256
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "order-service", cfg.ServiceName)
	assert.Equal(t, "1.4.2", cfg.ServiceVersion)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "full", cfg.PropagationMode)
	assert.True(t, cfg.Sampling.Enabled)
	assert.Equal(t, 0.25, cfg.Sampling.Rate)
	require.Len(t, cfg.Exporters, 1)
	assert.Equal(t, "otlp", cfg.Exporters[0].Type)
	assert.Equal(t, "collector:4317", cfg.Exporters[0].Endpoint)
	assert.True(t, cfg.Exporters[0].Insecure)
	assert.Equal(t, 10*time.Second, cfg.Exporters[0].Timeout.Std())
	assert.Equal(t, 256, cfg.BatchSize)

	// Unset fields keep defaults.
	assert.Equal(t, 5*time.Second, cfg.BatchInterval.Std())
}

func TestLoadConfigEnvInterpolation(t *testing.T) {
	t.Setenv("ORDERS_OTLP_ENDPOINT", "collector.internal:4317")
	path := writeConfigFile(t, `
service_name: order-service
exporters:
  - type: otlp
    endpoint: ${ORDERS_OTLP_ENDPOINT}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Exporters, 1)
	assert.Equal(t, "collector.internal:4317", cfg.Exporters[0].Endpoint)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "service_name: [unclosed")
	_, err := LoadConfig(path)
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("BOTANU_SERVICE_NAME", "env-service")
	t.Setenv("BOTANU_ENVIRONMENT", "canary")
	t.Setenv("BOTANU_PROPAGATION_MODE", "full")
	t.Setenv("BOTANU_EXPORTER_ENDPOINT", "otel:4317")

	cfg := ConfigFromEnv()
	assert.Equal(t, "env-service", cfg.ServiceName)
	assert.Equal(t, "canary", cfg.Environment)
	assert.Equal(t, "full", cfg.PropagationMode)
	require.Len(t, cfg.Exporters, 1)
	assert.Equal(t, "otlp", cfg.Exporters[0].Type)
	assert.Equal(t, "otel:4317", cfg.Exporters[0].Endpoint)
}

func TestConfigDeploymentEnvironmentFallback(t *testing.T) {
	t.Setenv("BOTANU_ENVIRONMENT", "")
	t.Setenv("DEPLOYMENT_ENVIRONMENT", "qa")

	cfg := ConfigFromEnv()
	assert.Equal(t, "qa", cfg.Environment)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty service name",
			mutate:  func(c *Config) { c.ServiceName = "" },
			wantKey: "service_name",
		},
		{
			name:    "sampling rate above one",
			mutate:  func(c *Config) { c.Sampling.Rate = 1.5 },
			wantKey: "sampling.rate",
		},
		{
			name:    "negative sampling rate",
			mutate:  func(c *Config) { c.Sampling.Rate = -0.1 },
			wantKey: "sampling.rate",
		},
		{
			name: "unknown exporter type",
			mutate: func(c *Config) {
				c.Exporters = []ExporterConfig{{Type: "jaeger"}}
			},
			wantKey: "exporters[0].type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantKey == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *errors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantKey, cfgErr.Key)
		})
	}
}
