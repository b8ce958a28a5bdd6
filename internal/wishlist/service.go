// Package wishlist owns the wishlist state slice: a set of product
// identifiers with the same local-first persistence pattern as the cart,
// minus pricing.
package wishlist

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/akulov/storefront/internal/storage"
	"github.com/akulov/storefront/pkg/api"
	"github.com/akulov/storefront/pkg/pubsub"
)

// TopicChanged is published with the updated product ID list after every
// wishlist mutation.
const TopicChanged = "wishlist.changed"

// Remote is the slice of the wishlist backend consumed by the Service.
type Remote interface {
	Add(ctx context.Context, productID string) api.Response
	Remove(ctx context.Context, productID string) api.Response
}

// Service is the wishlist state manager. Mutations are serialized under the
// manager mutex and persisted locally on every change; remote calls are
// best-effort.
type Service struct {
	mu     sync.Mutex
	ids    []string
	store  *storage.Store
	remote Remote
	broker *pubsub.Broker
	logger *slog.Logger
}

// NewService creates a wishlist Service, restoring persisted state if
// present.
func NewService(store *storage.Store, remote Remote, broker *pubsub.Broker, logger *slog.Logger) *Service {
	s := &Service{
		store:  store,
		remote: remote,
		broker: broker,
		logger: logger,
	}
	s.store.Get(storage.KeyWishlist, &s.ids)
	return s
}

// Items returns the wishlisted product IDs.
func (s *Service) Items() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ids)
}

// Contains reports whether the product is wishlisted.
func (s *Service) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.ids, productID)
}

// Add puts the product on the wishlist. Adding a product that is already
// present is a no-op, so repeated calls are idempotent.
func (s *Service) Add(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(ctx, productID)
}

// Remove drops the product from the wishlist.
func (s *Service) Remove(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(ctx, productID)
}

// Toggle removes the product if present, adds it if absent, and reports
// whether it is wishlisted afterwards. The check and the mutation run under
// one lock acquisition.
func (s *Service) Toggle(ctx context.Context, productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.ids, productID) {
		s.removeLocked(ctx, productID)
		return false
	}
	s.addLocked(ctx, productID)
	return true
}

// Clear resets the wishlist to empty.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = []string{}
	s.persistLocked()
}

func (s *Service) addLocked(ctx context.Context, productID string) {
	if slices.Contains(s.ids, productID) {
		return
	}
	if resp := s.remote.Add(ctx, productID); !resp.Success {
		s.logger.WarnContext(ctx, "remote wishlist add failed", "product_id", productID, "message", resp.Message)
	}
	s.ids = append(s.ids, productID)
	s.persistLocked()
}

func (s *Service) removeLocked(ctx context.Context, productID string) {
	if resp := s.remote.Remove(ctx, productID); !resp.Success {
		s.logger.WarnContext(ctx, "remote wishlist removal failed", "product_id", productID, "message", resp.Message)
	}
	ids := s.ids[:0]
	for _, id := range s.ids {
		if id != productID {
			ids = append(ids, id)
		}
	}
	s.ids = ids
	s.persistLocked()
}

func (s *Service) persistLocked() {
	s.store.Set(storage.KeyWishlist, s.ids)
	s.broker.Publish(TopicChanged, slices.Clone(s.ids))
}
