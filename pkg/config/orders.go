package config

import (
	"fmt"
	"strings"
)

type OrdersConfig struct {
	HistoryLimit int `koanf:"historylimit"`
}

// String returns a string representation of the orders configuration.
func (c *OrdersConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Orders ---\n")
	b.WriteString(fmt.Sprintf("  historylimit: %d\n", c.HistoryLimit))
	return b.String()
}

func (c *OrdersConfig) Validate() error {
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("orders.historylimit must be greater than 0")
	}
	return nil
}
