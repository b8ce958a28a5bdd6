// Package order owns the order history state slice: a bounded list of past
// orders recorded through the remote order service, with a local cache as a
// degraded read fallback. Order creation and post-creation mutations are
// authoritative operations: they must be confirmed remotely before any local
// state changes.
package order

import (
	"time"

	"github.com/akulov/storefront/internal/cart"
	"github.com/akulov/storefront/internal/pricing"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Address is a shipping or billing address.
type Address struct {
	FullName   string `json:"full_name" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// Record is one past order. Items and totals are snapshots taken at purchase
// time; rating, review and return fields are attached by later operations.
type Record struct {
	ID              string          `json:"id"`
	Items           []cart.LineItem `json:"items"`
	Totals          pricing.Totals  `json:"totals"`
	Coupon          *pricing.Coupon `json:"coupon,omitempty"`
	ShippingAddress Address         `json:"shipping_address"`
	BillingAddress  Address         `json:"billing_address"`
	PaymentMethod   string          `json:"payment_method"`
	Notes           string          `json:"notes,omitempty"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`

	CancelReason    string     `json:"cancel_reason,omitempty"`
	Rating          int        `json:"rating,omitempty"`
	Review          string     `json:"review,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ReturnRequested bool       `json:"return_requested,omitempty"`
	ReturnReason    string     `json:"return_reason,omitempty"`
	ReturnItems     []string   `json:"return_items,omitempty"`
}

// CreateInput is the caller-supplied part of a new order. The billing
// address defaults to the shipping address when absent.
type CreateInput struct {
	ShippingAddress Address  `json:"shipping_address" validate:"required"`
	BillingAddress  *Address `json:"billing_address,omitempty"`
	PaymentMethod   string   `json:"payment_method" validate:"required"`
	Notes           string   `json:"notes,omitempty"`
}

// Tracking is the shipment state of an order.
type Tracking struct {
	OrderID           string     `json:"order_id"`
	Carrier           string     `json:"carrier,omitempty"`
	TrackingNumber    string     `json:"tracking_number,omitempty"`
	Status            string     `json:"status"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
}

// StatusInfo is the display metadata of an order status.
type StatusInfo struct {
	Label       string `json:"label"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

var statusInfos = map[Status]StatusInfo{
	StatusPending:    {Label: "Pending", Color: "yellow", Description: "Order is being processed"},
	StatusConfirmed:  {Label: "Confirmed", Color: "blue", Description: "Order has been confirmed"},
	StatusProcessing: {Label: "Processing", Color: "blue", Description: "Order is being prepared"},
	StatusShipped:    {Label: "Shipped", Color: "purple", Description: "Order is on its way"},
	StatusDelivered:  {Label: "Delivered", Color: "green", Description: "Order has been delivered"},
	StatusCancelled:  {Label: "Cancelled", Color: "red", Description: "Order has been cancelled"},
}

// StatusInfoFor returns display metadata for a status, falling back to the
// pending entry for unknown values.
func StatusInfoFor(status Status) StatusInfo {
	if info, ok := statusInfos[status]; ok {
		return info
	}
	return statusInfos[StatusPending]
}

// EstimatedDelivery returns the expected delivery date for a shipping method
// counted from the given time. Unknown methods fall back to standard
// shipping.
func EstimatedDelivery(method string, from time.Time) time.Time {
	days := 5
	switch method {
	case "express":
		days = 2
	case "overnight":
		days = 1
	}
	return from.AddDate(0, 0, days)
}
