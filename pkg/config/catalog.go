package config

import (
	"fmt"
	"strings"
)

// CatalogConfig locates the JSON file backing the product catalog.
type CatalogConfig struct {
	Path   string `koanf:"path"`
	Indent bool   `koanf:"indent"`
}

// String returns a string representation of the catalog configuration.
func (c *CatalogConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Catalog ---\n")
	b.WriteString(fmt.Sprintf("  path: %s\n", c.Path))
	b.WriteString(fmt.Sprintf("  indent: %t\n", c.Indent))
	return b.String()
}

func (c *CatalogConfig) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("catalog file path is not configured")
	}
	return nil
}
