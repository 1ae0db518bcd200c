package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// PProfConfig controls the side listener serving net/http/pprof.
type PProfConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

func (c *PProfConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- PProf ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.Enabled))
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.Addr))
	return b.String()
}

func (c *PProfConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("pprof address %q is not host:port: %w", c.Addr, err)
	}
	return nil
}

// maxShutdownTimeout bounds how long a stop signal may wait for in-flight requests.
const maxShutdownTimeout = 5 * time.Minute

type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ShutdownConfig) String() string {
	return fmt.Sprintf("\n--- Shutdown ---\n  timeout: %s\n", c.Timeout)
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 || c.Timeout > maxShutdownTimeout {
		return fmt.Errorf("shutdown timeout must be within (0, %s], got %s", maxShutdownTimeout, c.Timeout)
	}
	return nil
}
