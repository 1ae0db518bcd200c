package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

type HTTPTimeouts struct {
	Read       time.Duration `koanf:"read"`
	Write      time.Duration `koanf:"write"`
	Idle       time.Duration `koanf:"idle"`
	ReadHeader time.Duration `koanf:"readHeader"`
}

// HTTPConfig describes the catalog API listener. An empty Host binds every interface.
type HTTPConfig struct {
	Host           string       `koanf:"host"`
	Port           int          `koanf:"port"`
	MaxHeaderBytes int          `koanf:"maxHeaderBytes"`
	Timeout        HTTPTimeouts `koanf:"timeout"`
}

// Addr returns the listen address in host:port form.
func (c *HTTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *HTTPConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- HTTP Server ---\n")
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.Addr()))
	b.WriteString(fmt.Sprintf("  maxHeaderBytes: %d\n", c.MaxHeaderBytes))
	b.WriteString(fmt.Sprintf("  timeout: read=%v write=%v idle=%v readHeader=%v\n",
		c.Timeout.Read, c.Timeout.Write, c.Timeout.Idle, c.Timeout.ReadHeader))
	return b.String()
}

func (c *HTTPConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.Port)
	}
	if c.MaxHeaderBytes < 0 {
		return fmt.Errorf("invalid HTTP max header bytes: %d", c.MaxHeaderBytes)
	}
	timeouts := map[string]time.Duration{
		"read":       c.Timeout.Read,
		"write":      c.Timeout.Write,
		"idle":       c.Timeout.Idle,
		"readHeader": c.Timeout.ReadHeader,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("invalid HTTP server %s timeout: %v", name, d)
		}
	}
	return nil
}
