package catalog

import "errors"

// ErrProductNotFound is returned when the backend cannot serve the requested
// product.
var ErrProductNotFound = errors.New("product not found")
