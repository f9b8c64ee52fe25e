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
	"context"
	goerrors "errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/botanu/botanu-go/internal/log"
	"github.com/botanu/botanu-go/pkg/errors"
	botanuresource "github.com/botanu/botanu-go/resource"
	"github.com/botanu/botanu-go/run"
	"github.com/botanu/botanu-go/tracking"
)

// SDK holds the telemetry pipeline installed by Enable. One per
// process; Shutdown flushes and releases it.
type SDK struct {
	config         Config
	logger         *slog.Logger
	ledger         *tracking.Ledger
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	promRegistry   *prometheus.Registry
}

type enableOptions struct {
	cfg        Config
	cfgSet     bool
	configPath string
	resource   *sdkresource.Resource
	processors []sdktrace.SpanProcessor
}

// EnableOption configures Enable.
type EnableOption func(*enableOptions)

// WithConfig supplies a complete configuration, bypassing environment
// discovery.
func WithConfig(cfg Config) EnableOption {
	return func(o *enableOptions) {
		o.cfg = cfg
		o.cfgSet = true
	}
}

// WithConfigFile loads configuration from a YAML file. Environment
// overrides still apply on top.
func WithConfigFile(path string) EnableOption {
	return func(o *enableOptions) { o.configPath = path }
}

// WithServiceName overrides the service name.
func WithServiceName(name string) EnableOption {
	return func(o *enableOptions) { o.cfg.ServiceName = name }
}

// WithServiceVersion overrides the service version.
func WithServiceVersion(version string) EnableOption {
	return func(o *enableOptions) { o.cfg.ServiceVersion = version }
}

// WithEnvironment overrides the deployment environment label.
func WithEnvironment(env string) EnableOption {
	return func(o *enableOptions) { o.cfg.Environment = env }
}

// WithResource merges additional resource attributes into the
// detected resource.
func WithResource(res *sdkresource.Resource) EnableOption {
	return func(o *enableOptions) { o.resource = res }
}

// WithSpanProcessor registers an additional span processor ahead of
// the configured exporters. Intended for tests and custom pipelines.
func WithSpanProcessor(sp sdktrace.SpanProcessor) EnableOption {
	return func(o *enableOptions) { o.processors = append(o.processors, sp) }
}

// Enable installs the telemetry pipeline: tracer provider with the
// run span enricher, W3C trace context and baggage propagation, and a
// Prometheus-backed meter provider. Both providers become the otel
// globals, so instrumentation anywhere in the process picks them up.
//
// Call Shutdown on the returned SDK before process exit to flush
// pending spans.
func Enable(ctx context.Context, opts ...EnableOption) (*SDK, error) {
	o := enableOptions{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.cfg
	switch {
	case o.configPath != "":
		loaded, err := LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case !o.cfgSet:
		env := ConfigFromEnv()
		// Explicit option values win over environment discovery.
		if o.cfg.ServiceName != DefaultConfig().ServiceName {
			env.ServiceName = o.cfg.ServiceName
		}
		if o.cfg.ServiceVersion != DefaultConfig().ServiceVersion {
			env.ServiceVersion = o.cfg.ServiceVersion
		}
		if o.cfg.Environment != DefaultConfig().Environment {
			env.Environment = o.cfg.Environment
		}
		cfg = env
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logCfg := &log.Config{
		Level:  cfg.Log.Level,
		Format: log.Format(cfg.Log.Format),
	}
	logCfg.ApplyEnv()
	logger := log.WithComponent(log.New(logCfg), "botanu.sdk")

	res, err := buildResource(ctx, cfg, o.resource)
	if err != nil {
		return nil, err
	}

	mode := run.ParseMode(cfg.PropagationMode)
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(NewSampler(cfg.Sampling)),
		// The enricher runs first so every span carries run identity
		// before any exporter-bound processor sees it.
		sdktrace.WithSpanProcessor(NewEnricher(mode)),
	}
	for _, sp := range o.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}
	for _, sp := range createSpanProcessors(ctx, cfg, logger) {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	promExporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, &errors.ConfigError{Key: "metrics", Reason: "prometheus exporter", Cause: err}
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "botanu enabled",
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.String("propagation_mode", cfg.PropagationMode),
		slog.Int("exporters", len(cfg.Exporters)),
	)

	return &SDK{
		config:         cfg,
		logger:         logger,
		ledger:         tracking.NewLedger(logger),
		tracerProvider: tp,
		meterProvider:  mp,
		promRegistry:   registry,
	}, nil
}

func buildResource(ctx context.Context, cfg Config, extra *sdkresource.Resource) (*sdkresource.Resource, error) {
	// Empty schema URL so merging with the default resource cannot
	// fail on schema conflicts.
	base, err := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewWithAttributes("",
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, &errors.ConfigError{Key: "resource", Reason: "merge failed", Cause: err}
	}
	if cfg.DetectResources {
		detected, err := botanuresource.Detect(ctx)
		if err == nil {
			if merged, mergeErr := sdkresource.Merge(base, detected); mergeErr == nil {
				base = merged
			}
		}
	}
	if extra != nil {
		merged, err := sdkresource.Merge(base, extra)
		if err != nil {
			return nil, &errors.ConfigError{Key: "resource", Reason: "merge failed", Cause: err}
		}
		base = merged
	}
	return base, nil
}

// Config returns the effective configuration.
func (s *SDK) Config() Config { return s.config }

// Logger returns the SDK's structured logger.
func (s *SDK) Logger() *slog.Logger { return s.logger }

// Ledger returns the attempt ledger bound to the SDK logger.
func (s *SDK) Ledger() *tracking.Ledger { return s.ledger }

// TracerProvider returns the installed tracer provider.
func (s *SDK) TracerProvider() *sdktrace.TracerProvider { return s.tracerProvider }

// MetricsHandler serves the Prometheus scrape endpoint for the SDK's
// metric registry.
func (s *SDK) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{})
}

// ForceFlush exports all buffered spans.
func (s *SDK) ForceFlush(ctx context.Context) error {
	return s.tracerProvider.ForceFlush(ctx)
}

// Shutdown flushes and stops the telemetry pipeline.
func (s *SDK) Shutdown(ctx context.Context) error {
	return goerrors.Join(
		s.tracerProvider.Shutdown(ctx),
		s.meterProvider.Shutdown(ctx),
	)
}
