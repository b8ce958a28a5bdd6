package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/akulov/storefront/internal/catalog"
	"github.com/akulov/storefront/internal/pricing"
	"github.com/akulov/storefront/internal/storage"
	"github.com/akulov/storefront/pkg/api"
	"github.com/akulov/storefront/pkg/pubsub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// TopicChanged is published with the updated Cart after every cart mutation.
const TopicChanged = "cart.changed"

// Remote is the slice of the cart backend consumed by the Service.
// It is satisfied by *api.CartAPI.
type Remote interface {
	AddItem(ctx context.Context, productID string, quantity int, options map[string]string) api.Response
	UpdateItem(ctx context.Context, productID string, quantity int) api.Response
	RemoveItem(ctx context.Context, productID string) api.Response
	Clear(ctx context.Context) api.Response
	ApplyCoupon(ctx context.Context, code string) api.Response
	RemoveCoupon(ctx context.Context) api.Response
	Sync(ctx context.Context, items any) api.Response
}

// ProductLookup resolves current product state for cart validation.
// It is satisfied by *catalog.Service. Lookups must bypass any read cache:
// validation gates order creation, so it has to see the live price and stock.
type ProductLookup interface {
	ProductFresh(ctx context.Context, id string) (*catalog.Product, error)
}

// Service is the cart state manager. It exclusively owns the cart slice:
// mutations run under the manager mutex, so overlapping calls are serialized
// per slice instead of racing on the persisted value.
type Service struct {
	mu       sync.Mutex
	cart     Cart
	store    *storage.Store
	remote   Remote
	products ProductLookup
	broker   *pubsub.Broker
	rates    pricing.Rates
	logger   *slog.Logger

	itemsAdded metric.Int64Counter
}

// NewService creates a cart Service, restoring persisted cart state if
// present.
func NewService(store *storage.Store, remote Remote, products ProductLookup, broker *pubsub.Broker, rates pricing.Rates, logger *slog.Logger) *Service {
	meter := otel.Meter("storefront/cart")
	itemsAdded, err := meter.Int64Counter("cart_items_added", metric.WithDescription("Total number of items added to the cart"))
	if err != nil {
		panic(fmt.Sprintf("failed to create cart_items_added counter: %v", err))
	}

	s := &Service{
		store:      store,
		remote:     remote,
		products:   products,
		broker:     broker,
		rates:      rates,
		logger:     logger,
		itemsAdded: itemsAdded,
	}
	s.store.Get(storage.KeyCart, &s.cart)
	return s
}

// Cart returns a copy of the current cart.
func (s *Service) Cart() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.clone()
}

// Totals computes the cart's pricing breakdown and summed quantity. The
// result is derived fresh on every call and never cached.
func (s *Service) Totals() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		Totals:    pricing.ComputeTotals(s.cart.pricingItems(), s.cart.Coupon, s.rates),
		ItemCount: s.cart.itemCount(),
	}
}

// AddItem puts quantity units of the product into the cart, incrementing the
// existing line when the product is already present. The backend is tried
// first and its returned cart adopted as canonical on success; on failure the
// mutation applies locally only.
func (s *Service) AddItem(ctx context.Context, product catalog.Product, quantity int, options map[string]string) Cart {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp := s.remote.AddItem(ctx, product.ID, quantity, options)
	if resp.Success {
		var remote Cart
		err := resp.Decode(&remote)
		if err == nil {
			s.replaceLocked(remote)
			s.itemsAdded.Add(ctx, int64(quantity))
			return s.cart.clone()
		}
		s.logger.WarnContext(ctx, "failed to decode remote cart, keeping local state", "error", err)
	} else {
		s.logger.WarnContext(ctx, "remote cart add failed, using local cart", "product_id", product.ID, "message", resp.Message)
	}

	found := false
	for i := range s.cart.Items {
		if s.cart.Items[i].ProductID == product.ID {
			s.cart.Items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		s.cart.Items = append(s.cart.Items, LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  quantity,
			Options:   options,
			AddedAt:   time.Now().UTC(),
		})
	}
	s.persistLocked()
	s.itemsAdded.Add(ctx, int64(quantity))
	return s.cart.clone()
}

// RemoveItem drops the product from the cart. Removal of an absent product is
// a no-op. The remote removal is best-effort.
func (s *Service) RemoveItem(ctx context.Context, productID string) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	if resp := s.remote.RemoveItem(ctx, productID); !resp.Success {
		s.logger.WarnContext(ctx, "remote cart removal failed", "product_id", productID, "message", resp.Message)
	}

	items := s.cart.Items[:0]
	for _, item := range s.cart.Items {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}
	s.cart.Items = items
	s.persistLocked()
	return s.cart.clone()
}

// UpdateQuantity sets the quantity of an existing line item. A quantity of
// zero or less removes the item entirely. The remote update is best-effort.
func (s *Service) UpdateQuantity(ctx context.Context, productID string, quantity int) Cart {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if resp := s.remote.UpdateItem(ctx, productID, quantity); !resp.Success {
		s.logger.WarnContext(ctx, "remote cart update failed", "product_id", productID, "message", resp.Message)
	}

	for i := range s.cart.Items {
		if s.cart.Items[i].ProductID == productID {
			s.cart.Items[i].Quantity = quantity
			s.persistLocked()
			break
		}
	}
	return s.cart.clone()
}

// Clear resets the cart to empty with no coupon. The remote clear is
// best-effort.
func (s *Service) Clear(ctx context.Context) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	if resp := s.remote.Clear(ctx); !resp.Success {
		s.logger.WarnContext(ctx, "remote cart clear failed", "message", resp.Message)
	}

	s.replaceLocked(Cart{Items: []LineItem{}})
	return s.cart.clone()
}

// ApplyCoupon validates the code with the backend and stores the returned
// coupon. A coupon cannot be validated locally, so remote failure is
// surfaced as ErrInvalidCoupon and the current coupon stays untouched.
func (s *Service) ApplyCoupon(ctx context.Context, code string) (*pricing.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := s.remote.ApplyCoupon(ctx, code)
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCoupon, code)
	}

	var payload struct {
		Coupon pricing.Coupon `json:"coupon"`
	}
	if err := resp.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCoupon, code)
	}

	s.cart.Coupon = &payload.Coupon
	s.persistLocked()
	coupon := payload.Coupon
	return &coupon, nil
}

// RemoveCoupon clears the active coupon. The remote removal is best-effort.
func (s *Service) RemoveCoupon(ctx context.Context) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	if resp := s.remote.RemoveCoupon(ctx); !resp.Success {
		s.logger.WarnContext(ctx, "remote coupon removal failed", "message", resp.Message)
	}

	s.cart.Coupon = nil
	s.persistLocked()
	return s.cart.clone()
}

// Validate checks every cart item against current catalog state and reports
// stock, price and availability findings. It is a read-only diagnostic and
// never corrects the cart.
func (s *Service) Validate(ctx context.Context) ValidationResult {
	items := s.Cart().Items

	var issues []Issue
	for _, item := range items {
		product, err := s.products.ProductFresh(ctx, item.ProductID)
		if err != nil {
			issues = append(issues, Issue{
				ProductID: item.ProductID,
				Type:      IssueNotFound,
				Message:   "product no longer available",
			})
			continue
		}
		if !product.InStock {
			issues = append(issues, Issue{
				ProductID: item.ProductID,
				Type:      IssueOutOfStock,
				Message:   "product is out of stock",
			})
		}
		if !product.Price.Equal(item.UnitPrice) {
			oldPrice, newPrice := item.UnitPrice, product.Price
			issues = append(issues, Issue{
				ProductID: item.ProductID,
				Type:      IssuePriceChange,
				Message:   "price has changed",
				OldPrice:  &oldPrice,
				NewPrice:  &newPrice,
			})
		}
	}

	return ValidationResult{IsValid: len(issues) == 0, Issues: issues}
}

// Sync pushes the local cart to the backend and adopts the server's merged
// result. An empty cart is not synced; on failure the local cart stands.
func (s *Service) Sync(ctx context.Context) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cart.Items) == 0 {
		return s.cart.clone()
	}

	resp := s.remote.Sync(ctx, s.cart.Items)
	if !resp.Success {
		s.logger.WarnContext(ctx, "cart sync failed, keeping local cart", "message", resp.Message)
		return s.cart.clone()
	}

	var merged Cart
	if err := resp.Decode(&merged); err != nil {
		s.logger.WarnContext(ctx, "failed to decode synced cart, keeping local cart", "error", err)
		return s.cart.clone()
	}

	s.replaceLocked(merged)
	return s.cart.clone()
}

// replaceLocked swaps in a new canonical cart, persists it and notifies
// subscribers. Callers must hold the mutex.
func (s *Service) replaceLocked(next Cart) {
	if next.Items == nil {
		next.Items = []LineItem{}
	}
	s.cart = next
	s.persistLocked()
}

// persistLocked writes the cart to local storage and publishes the change.
// Persistence is best-effort; a failed write is logged by the store and the
// in-memory cart remains authoritative.
func (s *Service) persistLocked() {
	s.store.Set(storage.KeyCart, s.cart)
	s.broker.Publish(TopicChanged, s.cart.clone())
}
