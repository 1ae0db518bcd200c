package config

import (
	"fmt"
	"strings"
	"time"
)

// WatchConfig tunes the JetStream consumer that follows catalog events.
type WatchConfig struct {
	Consumer string        `koanf:"consumer"`
	Batch    int           `koanf:"batch"`
	Timeout  time.Duration `koanf:"timeout"`
	Interval time.Duration `koanf:"interval"`
	Workers  int           `koanf:"workers"`
}

// String returns a string representation of the watch configuration.
func (c *WatchConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Watch ---\n")
	b.WriteString(fmt.Sprintf("  consumer: %s\n", c.Consumer))
	b.WriteString(fmt.Sprintf("  batch: %d\n", c.Batch))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  interval: %s\n", c.Interval))
	b.WriteString(fmt.Sprintf("  workers: %d\n", c.Workers))
	return b.String()
}

func (c *WatchConfig) Validate() error {
	if c.Consumer == "" {
		return fmt.Errorf("consumer is not configured")
	}
	if c.Batch <= 0 {
		return fmt.Errorf("batch must be greater than zero")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than zero")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be greater than zero")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be greater than zero")
	}
	return nil
}
