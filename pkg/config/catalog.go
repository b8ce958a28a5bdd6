package config

import (
	"fmt"
	"strings"
	"time"
)

type CatalogConfig struct {
	CacheTTL time.Duration `koanf:"cachettl"`
}

// String returns a string representation of the catalog configuration.
func (c *CatalogConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Catalog ---\n")
	b.WriteString(fmt.Sprintf("  cachettl: %v\n", c.CacheTTL))
	return b.String()
}

func (c *CatalogConfig) Validate() error {
	if c.CacheTTL <= 0 {
		return fmt.Errorf("catalog.cachettl must be greater than 0")
	}
	return nil
}
