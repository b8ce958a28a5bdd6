// Package app wires the storefront state managers to the backend facade.
package app

import (
	"log/slog"

	"github.com/akulov/storefront/internal/auth"
	"github.com/akulov/storefront/internal/cart"
	"github.com/akulov/storefront/internal/catalog"
	"github.com/akulov/storefront/internal/config"
	"github.com/akulov/storefront/internal/order"
	"github.com/akulov/storefront/internal/pricing"
	"github.com/akulov/storefront/internal/storage"
	"github.com/akulov/storefront/internal/wishlist"
	"github.com/akulov/storefront/pkg/api"
	"github.com/akulov/storefront/pkg/pubsub"
)

type Dependencies struct {
	Store    *storage.Store
	Broker   *pubsub.Broker
	Catalog  *catalog.Service
	Cart     *cart.Service
	Wishlist *wishlist.Service
	Orders   *order.Service
	Auth     *auth.Service
	Logger   *slog.Logger
}

// SetupDependencies builds the full dependency graph: one facade client, one
// persistent store and one broker shared by every state manager.
func SetupDependencies(cfg *config.Config, logger *slog.Logger) *Dependencies {
	store := storage.NewStore(cfg.Storage.Dir, logger)
	if !store.Available() {
		logger.Warn("state directory is not writable, state will not survive restarts", "dir", cfg.Storage.Dir)
	}
	broker := pubsub.NewBroker()
	client := api.NewClient(cfg.API, logger)

	rates := pricing.NewRates(cfg.Pricing.TaxRate, cfg.Pricing.FreeShippingThreshold, cfg.Pricing.ShippingRate)

	catalogService := catalog.NewService(api.NewProductsAPI(client), cfg.Catalog.CacheTTL, logger)
	cartService := cart.NewService(store, api.NewCartAPI(client), catalogService, broker, rates, logger)
	wishlistService := wishlist.NewService(store, api.NewWishlistAPI(client), broker, logger)
	orderService := order.NewService(store, api.NewOrdersAPI(client), cartService, broker, cfg.Orders.HistoryLimit, logger)
	authService := auth.NewService(store, api.NewAuthAPI(client), broker, logger)

	return &Dependencies{
		Store:    store,
		Broker:   broker,
		Catalog:  catalogService,
		Cart:     cartService,
		Wishlist: wishlistService,
		Orders:   orderService,
		Auth:     authService,
		Logger:   logger,
	}
}
