package config

import (
	"fmt"
	"strings"
)

const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func (c *LogConfig) String() string {
	return fmt.Sprintf("\n--- Log ---\n  level: %s\n  format: %s\n", c.Level, c.Format)
}

func (c *LogConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.Level)
	}
	switch c.Format {
	case "", LogFormatJSON, LogFormatText:
		return nil
	default:
		return fmt.Errorf("unknown log format %q, want %s or %s", c.Format, LogFormatJSON, LogFormatText)
	}
}
