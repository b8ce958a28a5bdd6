package cart

import "errors"

// ErrInvalidCoupon is returned when the backend rejects a coupon code or
// cannot be reached to validate it. A coupon is never applied locally
// without confirmation.
var ErrInvalidCoupon = errors.New("invalid coupon code")
