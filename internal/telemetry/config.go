// Package telemetry wires OpenTelemetry tracing and metrics for the manifest server.
// Traces and metrics are exported over OTLP/HTTP; metrics can additionally be
// scraped in Prometheus format.
package telemetry

import (
	"errors"
	"fmt"
	"slices"
)

const (
	// DefaultServiceName is the service name reported when none is configured
	DefaultServiceName = "vicius-manifest-api"

	// DefaultEndpoint is the OTLP/HTTP collector address
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling is the trace sampling ratio used when none is configured (5%)
	DefaultSampling = 0.05

	// ExporterOTLP pushes metrics to the OTLP endpoint
	ExporterOTLP = "otlp"

	// ExporterPrometheus exposes metrics for scraping at /metrics
	ExporterPrometheus = "prometheus"
)

// Config represents the root telemetry configuration
type Config struct {
	// Enabled turns telemetry on. When false no SDK providers are created.
	Enabled bool `yaml:"enabled"`

	// ServiceName identifies this service, defaults to DefaultServiceName
	ServiceName string `yaml:"serviceName,omitempty"`

	// ServiceVersion defaults to the build version
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is the OTLP collector as "host:port"
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure sends OTLP data over plain HTTP. Development only.
	Insecure bool `yaml:"insecure,omitempty"`

	// Tracing contains tracing-specific configuration
	Tracing *TracingConfig `yaml:"tracing,omitempty"`

	// Metrics contains metrics-specific configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig defines tracing-specific configuration
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the ratio of sampled traces between 0.0 and 1.0
	Sampling float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig defines metrics-specific configuration
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Exporters lists where metrics go: "otlp", "prometheus" or both. Defaults to ["otlp"].
	Exporters []string `yaml:"exporters,omitempty"`
}

// GetServiceName returns the service name, using default if not specified
func (c *Config) GetServiceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetServiceVersion returns the service version, using "unknown" if not specified
func (c *Config) GetServiceVersion() string {
	if c.ServiceVersion == "" {
		return "unknown"
	}
	return c.ServiceVersion
}

// GetEndpoint returns the endpoint, using default if not specified
func (c *Config) GetEndpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

// GetInsecure returns the insecure flag
func (c *Config) GetInsecure() bool {
	return c.Insecure
}

// GetSampling returns the sampling ratio.
// An unset (zero) value yields DefaultSampling; YAML cannot tell the two apart.
func (c *TracingConfig) GetSampling() float64 {
	if c.Sampling == 0.0 {
		return DefaultSampling
	}
	return c.Sampling
}

// GetExporters returns the configured metric exporters, defaulting to OTLP
func (c *MetricsConfig) GetExporters() []string {
	if len(c.Exporters) == 0 {
		return []string{ExporterOTLP}
	}
	return c.Exporters
}

// HasExporter reports whether the named exporter is enabled
func (c *MetricsConfig) HasExporter(name string) bool {
	if c == nil || !c.Enabled {
		return false
	}
	return slices.Contains(c.GetExporters(), name)
}

// Validate validates the telemetry configuration
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error

	if c.Tracing != nil {
		if err := c.Tracing.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("tracing: %w", err))
		}
	}

	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("metrics: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Validate validates the tracing configuration
func (c *TracingConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	if c.Sampling < 0 || c.Sampling > 1.0 {
		return fmt.Errorf("sampling must be between 0.0 and 1.0, got %f", c.Sampling)
	}

	return nil
}

// Validate validates the metrics configuration
func (c *MetricsConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	for i, name := range c.Exporters {
		if name != ExporterOTLP && name != ExporterPrometheus {
			errs = append(errs, fmt.Errorf("exporters[%d]: unknown exporter %q (expected %q or %q)",
				i, name, ExporterOTLP, ExporterPrometheus))
		}
	}
	return errors.Join(errs...)
}
