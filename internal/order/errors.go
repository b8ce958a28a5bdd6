package order

import "errors"

var (
	// ErrCartInvalid is returned when order creation is attempted while the
	// cart fails validation against current catalog state.
	ErrCartInvalid = errors.New("cart validation failed")

	// ErrCartEmpty is returned when order creation is attempted with no
	// items in the cart.
	ErrCartEmpty = errors.New("cart is empty")

	// ErrOrderNotFound is returned when neither the backend nor the local
	// history knows the requested order.
	ErrOrderNotFound = errors.New("order not found")
)
