package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/gocatalog/pkg/config"
	"github.com/abgdnv/gocatalog/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig      `koanf:"server"`
	Log        config.LogConfig       `koanf:"log"`
	PProf      config.PProfConfig     `koanf:"pprof"`
	Shutdown   config.ShutdownConfig  `koanf:"shutdown"`
	Catalog    config.CatalogConfig   `koanf:"catalog"`
	NATS       config.NATSConfig      `koanf:"nats"`
	Telemetry  config.TelemetryConfig `koanf:"telemetry"`
	Watch      config.WatchConfig     `koanf:"watch"`
	Auth       config.AuthConfig      `koanf:"auth"`
}

// Defaults are applied before the config file and the environment.
func Defaults() map[string]any {
	return map[string]any{
		"server.host":                        "",
		"server.port":                        8080,
		"server.maxHeaderBytes":              1 << 20,
		"server.timeout.read":                "5s",
		"server.timeout.write":               "10s",
		"server.timeout.idle":                "60s",
		"server.timeout.readHeader":          "2s",
		"log.level":                          "info",
		"log.format":                         "json",
		"pprof.enabled":                      false,
		"pprof.addr":                         "localhost:6060",
		"shutdown.timeout":                   "10s",
		"catalog.path":                       "data/productos.json",
		"catalog.indent":                     true,
		"nats.enabled":                       false,
		"nats.url":                           "nats://localhost:4222",
		"nats.timeout":                       "5s",
		"nats.stream":                        "CATALOG",
		"nats.breaker.consecutivefailures":   5,
		"nats.breaker.errorratepercent":      50,
		"nats.breaker.opentimeout":           "30s",
		"telemetry.enabled":                  false,
		"telemetry.traces.sampleratio":       1.0,
		"telemetry.traces.otlphttp.endpoint": "localhost:4318",
		"telemetry.traces.otlphttp.insecure": true,
		"telemetry.traces.otlphttp.timeout":  "5s",
		"watch.consumer":                     "catalog-watch",
		"watch.batch":                        10,
		"watch.timeout":                      "5s",
		"watch.interval":                     "1s",
		"watch.workers":                      1,
		"auth.enabled":                       false,
		"auth.mininterval":                   "5m",
	}
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Catalog.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Watch.String())
	b.WriteString(c.Auth.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())

	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	validators := []struct {
		section string
		v       configloader.Validator
	}{
		{"server", &c.HTTPServer},
		{"log", &c.Log},
		{"pprof", &c.PProf},
		{"shutdown", &c.Shutdown},
		{"catalog", &c.Catalog},
		{"nats", &c.NATS},
		{"telemetry", &c.Telemetry},
		{"watch", &c.Watch},
		{"auth", &c.Auth},
	}
	for _, item := range validators {
		if err := item.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", item.section, err)
		}
	}
	return nil
}
