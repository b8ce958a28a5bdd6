package order

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/akulov/storefront/internal/cart"
	"github.com/akulov/storefront/internal/pricing"
	"github.com/akulov/storefront/internal/storage"
	"github.com/akulov/storefront/pkg/api"
	"github.com/akulov/storefront/pkg/pubsub"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// TopicChanged is published with the updated history after every order
// history mutation.
const TopicChanged = "orders.changed"

// Remote is the slice of the order backend consumed by the Service.
// It is satisfied by *api.OrdersAPI.
type Remote interface {
	Create(ctx context.Context, order any) api.Response
	List(ctx context.Context, query url.Values) api.Response
	Get(ctx context.Context, id string) api.Response
	Cancel(ctx context.Context, id, reason string) api.Response
	Tracking(ctx context.Context, id string) api.Response
	RequestReturn(ctx context.Context, id string, items any, reason string) api.Response
	Review(ctx context.Context, id string, rating int, review string) api.Response
}

// CartSource is the cart manager surface needed to place an order.
// It is satisfied by *cart.Service.
type CartSource interface {
	Cart() cart.Cart
	Totals() cart.Summary
	Validate(ctx context.Context) cart.ValidationResult
	Clear(ctx context.Context) cart.Cart
}

// ListFilters narrows List results. The zero value matches everything.
type ListFilters struct {
	Status Status
}

// Stats is a pure aggregation over the local order history.
type Stats struct {
	TotalOrders       int                        `json:"total_orders"`
	TotalSpent        decimal.Decimal            `json:"total_spent"`
	AverageOrderValue decimal.Decimal            `json:"average_order_value"`
	StatusBreakdown   map[Status]int             `json:"status_breakdown"`
	MonthlySpending   map[string]decimal.Decimal `json:"monthly_spending"`
}

// Service is the order history manager. It records orders confirmed by the
// backend into a bounded local history, newest first; once the bound is
// exceeded the oldest record is evicted.
type Service struct {
	mu           sync.Mutex
	history      []Record
	historyLimit int
	store        *storage.Store
	remote       Remote
	carts        CartSource
	broker       *pubsub.Broker
	validate     *validator.Validate
	logger       *slog.Logger

	ordersCounter metric.Int64Counter
}

// NewService creates an order Service bounded to historyLimit records,
// restoring persisted history if present.
func NewService(store *storage.Store, remote Remote, carts CartSource, broker *pubsub.Broker, historyLimit int, logger *slog.Logger) *Service {
	meter := otel.Meter("storefront/orders")
	ordersCounter, err := meter.Int64Counter("orders_created", metric.WithDescription("Total number of created orders"))
	if err != nil {
		panic(fmt.Sprintf("failed to create orders_created counter: %v", err))
	}

	s := &Service{
		historyLimit:  historyLimit,
		store:         store,
		remote:        remote,
		carts:         carts,
		broker:        broker,
		validate:      validator.New(),
		logger:        logger,
		ordersCounter: ordersCounter,
	}
	s.store.Get(storage.KeyOrderHistory, &s.history)
	return s
}

// submission is the order payload sent to the backend.
type submission struct {
	Items           []cart.LineItem `json:"items"`
	Totals          pricing.Totals  `json:"totals"`
	Coupon          *pricing.Coupon `json:"coupon,omitempty"`
	ShippingAddress Address         `json:"shipping_address"`
	BillingAddress  Address         `json:"billing_address"`
	PaymentMethod   string          `json:"payment_method"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Create validates the cart, submits the order and, once the backend
// confirms it, clears the cart and records the order in local history.
// There is no local-only fallback: an order must exist server-side to be
// real, so any remote failure is propagated.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Record, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid order input: %w", err)
	}

	if result := s.carts.Validate(ctx); !result.IsValid {
		return nil, fmt.Errorf("%w: %d item problem(s)", ErrCartInvalid, len(result.Issues))
	}

	snapshot := s.carts.Cart()
	if len(snapshot.Items) == 0 {
		return nil, ErrCartEmpty
	}
	summary := s.carts.Totals()

	billing := input.ShippingAddress
	if input.BillingAddress != nil {
		billing = *input.BillingAddress
	}
	payload := submission{
		Items:           snapshot.Items,
		Totals:          summary.Totals,
		Coupon:          snapshot.Coupon,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  billing,
		PaymentMethod:   input.PaymentMethod,
		Notes:           input.Notes,
		CreatedAt:       time.Now().UTC(),
	}

	resp := s.remote.Create(ctx, payload)
	if !resp.Success {
		return nil, fmt.Errorf("failed to create order: %s", resp.Message)
	}
	var record Record
	if err := resp.Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode created order: %w", err)
	}

	s.carts.Clear(ctx)

	s.mu.Lock()
	s.history = append([]Record{record}, s.history...)
	if len(s.history) > s.historyLimit {
		s.history = s.history[:s.historyLimit]
	}
	s.persistLocked()
	s.mu.Unlock()

	s.ordersCounter.Add(ctx, 1)
	return &record, nil
}

// List fetches the caller's orders from the backend. When the backend is
// unreachable it degrades to the local history cache, filtered client-side.
func (s *Service) List(ctx context.Context, filters ListFilters) []Record {
	query := url.Values{}
	if filters.Status != "" {
		query.Set("status", string(filters.Status))
	}

	resp := s.remote.List(ctx, query)
	if resp.Success {
		var orders []Record
		err := resp.Decode(&orders)
		if err == nil {
			return orders
		}
		s.logger.WarnContext(ctx, "failed to decode remote orders, serving local history", "error", err)
	} else {
		s.logger.WarnContext(ctx, "failed to fetch orders, serving local history", "message", resp.Message)
	}

	return s.localHistory(filters)
}

// Get fetches one order from the backend, falling back to the local history
// cache. Returns ErrOrderNotFound when neither side knows the order.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	resp := s.remote.Get(ctx, id)
	if resp.Success {
		var record Record
		err := resp.Decode(&record)
		if err == nil {
			return &record, nil
		}
		s.logger.WarnContext(ctx, "failed to decode remote order, checking local history", "id", id, "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.history {
		if s.history[i].ID == id {
			record := s.history[i]
			return &record, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
}

// Cancel cancels an order. Cancellation must not appear to succeed without
// server confirmation, so the local record is patched only afterwards.
func (s *Service) Cancel(ctx context.Context, id, reason string) error {
	resp := s.remote.Cancel(ctx, id, reason)
	if !resp.Success {
		return fmt.Errorf("failed to cancel order %s: %s", id, resp.Message)
	}

	s.patch(id, func(r *Record) {
		r.Status = StatusCancelled
		r.CancelReason = reason
	})
	return nil
}

// RequestReturn asks the backend for a return of the given items. The local
// record is patched only after remote confirmation.
func (s *Service) RequestReturn(ctx context.Context, id string, productIDs []string, reason string) error {
	resp := s.remote.RequestReturn(ctx, id, productIDs, reason)
	if !resp.Success {
		return fmt.Errorf("failed to request return for order %s: %s", id, resp.Message)
	}

	s.patch(id, func(r *Record) {
		r.ReturnRequested = true
		r.ReturnReason = reason
		r.ReturnItems = productIDs
	})
	return nil
}

// Rate submits a rating and review for an order. The local record is patched
// only after remote confirmation.
func (s *Service) Rate(ctx context.Context, id string, rating int, review string) error {
	resp := s.remote.Review(ctx, id, rating, review)
	if !resp.Success {
		return fmt.Errorf("failed to submit review for order %s: %s", id, resp.Message)
	}

	now := time.Now().UTC()
	s.patch(id, func(r *Record) {
		r.Rating = rating
		r.Review = review
		r.ReviewedAt = &now
	})
	return nil
}

// Track fetches the shipment state of an order from the backend. Tracking
// has no local fallback.
func (s *Service) Track(ctx context.Context, id string) (*Tracking, error) {
	resp := s.remote.Tracking(ctx, id)
	if !resp.Success {
		return nil, fmt.Errorf("failed to track order %s: %s", id, resp.Message)
	}
	var tracking Tracking
	if err := resp.Decode(&tracking); err != nil {
		return nil, fmt.Errorf("failed to decode tracking for order %s: %w", id, err)
	}
	return &tracking, nil
}

// History returns the local order history cache, newest first.
func (s *Service) History() []Record {
	return s.localHistory(ListFilters{})
}

// Stats aggregates the local order history: counts, spend, spend per
// calendar month keyed YYYY-MM.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		TotalOrders:       len(s.history),
		TotalSpent:        decimal.Zero,
		AverageOrderValue: decimal.Zero,
		StatusBreakdown:   make(map[Status]int),
		MonthlySpending:   make(map[string]decimal.Decimal),
	}

	for _, record := range s.history {
		stats.TotalSpent = stats.TotalSpent.Add(record.Totals.Total)

		status := record.Status
		if status == "" {
			status = StatusPending
		}
		stats.StatusBreakdown[status]++

		month := record.CreatedAt.Format("2006-01")
		stats.MonthlySpending[month] = stats.MonthlySpending[month].Add(record.Totals.Total)
	}

	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalSpent.Div(decimal.NewFromInt(int64(stats.TotalOrders))).Round(2)
	}
	return stats
}

// ClearHistory drops the local order history cache. Server-side orders are
// unaffected.
func (s *Service) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.store.Remove(storage.KeyOrderHistory)
	s.broker.Publish(TopicChanged, []Record{})
}

func (s *Service) localHistory(filters ListFilters) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.history))
	for _, record := range s.history {
		if filters.Status != "" && record.Status != filters.Status {
			continue
		}
		out = append(out, record)
	}
	return out
}

// patch applies fn to the matching history record. An order absent from the
// local cache is left alone; the backend already holds the change.
func (s *Service) patch(id string, fn func(*Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.history {
		if s.history[i].ID == id {
			fn(&s.history[i])
			s.persistLocked()
			return
		}
	}
}

func (s *Service) persistLocked() {
	s.store.Set(storage.KeyOrderHistory, s.history)
	s.broker.Publish(TopicChanged, append([]Record(nil), s.history...))
}
