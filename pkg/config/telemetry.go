package config

import (
	"fmt"
	"strings"
	"time"
)

type TelemetryConfig struct {
	Enabled bool         `koanf:"enabled"`
	Traces  TracesConfig `koanf:"traces"`
}

// TracesConfig selects the OTLP/HTTP collector and the share of root spans to keep.
// Child spans follow the sampling decision of their parent.
type TracesConfig struct {
	SampleRatio float64        `koanf:"sampleratio"`
	OtlpHttp    OtlpHttpConfig `koanf:"otlphttp"`
}

type OtlpHttpConfig struct {
	Endpoint string        `koanf:"endpoint"`
	Insecure bool          `koanf:"insecure"`
	Timeout  time.Duration `koanf:"timeout"`
}

func (c *TelemetryConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Telemetry ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.Enabled))
	b.WriteString(fmt.Sprintf("  traces.sampleratio: %g\n", c.Traces.SampleRatio))
	b.WriteString(fmt.Sprintf("  traces.otlphttp: endpoint=%s insecure=%t timeout=%v\n",
		c.Traces.OtlpHttp.Endpoint, c.Traces.OtlpHttp.Insecure, c.Traces.OtlpHttp.Timeout))
	return b.String()
}

func (c *TelemetryConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Traces.SampleRatio < 0 || c.Traces.SampleRatio > 1 {
		return fmt.Errorf("trace sample ratio must be within [0, 1], got %g", c.Traces.SampleRatio)
	}
	if c.Traces.OtlpHttp.Endpoint == "" {
		return fmt.Errorf("OTel endpoint is not configured")
	}
	if c.Traces.OtlpHttp.Timeout <= 0 {
		return fmt.Errorf("telemetry timeout must be greater than 0")
	}
	return nil
}
