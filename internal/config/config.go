package config

import (
	"fmt"
	"strings"

	"github.com/akulov/storefront/pkg/config"
	"github.com/akulov/storefront/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Config is the full storefront configuration.
type Config struct {
	API     config.APIConfig     `koanf:"api"`
	Storage config.StorageConfig `koanf:"storage"`
	Pricing config.PricingConfig `koanf:"pricing"`
	Catalog config.CatalogConfig `koanf:"catalog"`
	Orders  config.OrdersConfig  `koanf:"orders"`
	Log     config.LogConfig     `koanf:"log"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.API.String())
	b.WriteString(c.Storage.String())
	b.WriteString(c.Pricing.String())
	b.WriteString(c.Catalog.String())
	b.WriteString(c.Orders.String())
	b.WriteString(c.Log.String())
	return b.String()
}

func (c *Config) Validate() error {
	checks := []struct {
		name string
		err  error
	}{
		{"api", c.API.Validate()},
		{"storage", c.Storage.Validate()},
		{"pricing", c.Pricing.Validate()},
		{"catalog", c.Catalog.Validate()},
		{"orders", c.Orders.Validate()},
		{"log", c.Log.Validate()},
	}
	for _, check := range checks {
		if check.err != nil {
			return fmt.Errorf("%s: %w", check.name, check.err)
		}
	}
	return nil
}
