package config

import (
	"fmt"
	"strings"
)

type PricingConfig struct {
	TaxRate               float64 `koanf:"taxrate"`
	FreeShippingThreshold float64 `koanf:"freeshippingthreshold"`
	ShippingRate          float64 `koanf:"shippingrate"`
}

// String returns a string representation of the pricing configuration.
func (c *PricingConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Pricing ---\n")
	b.WriteString(fmt.Sprintf("  taxrate: %v\n", c.TaxRate))
	b.WriteString(fmt.Sprintf("  freeshippingthreshold: %v\n", c.FreeShippingThreshold))
	b.WriteString(fmt.Sprintf("  shippingrate: %v\n", c.ShippingRate))
	return b.String()
}

func (c *PricingConfig) Validate() error {
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		return fmt.Errorf("pricing.taxrate must be in [0, 1): %v", c.TaxRate)
	}
	if c.FreeShippingThreshold < 0 {
		return fmt.Errorf("pricing.freeshippingthreshold must not be negative")
	}
	if c.ShippingRate < 0 {
		return fmt.Errorf("pricing.shippingrate must not be negative")
	}
	return nil
}
