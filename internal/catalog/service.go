package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/akulov/storefront/pkg/api"
	"golang.org/x/sync/singleflight"
)

// Remote is the slice of the products backend consumed by the Service.
// It is satisfied by *api.ProductsAPI.
type Remote interface {
	List(ctx context.Context, query url.Values) api.Response
	Get(ctx context.Context, id string) api.Response
	Search(ctx context.Context, q string, query url.Values) api.Response
	ByCategory(ctx context.Context, categoryID string, query url.Values) api.Response
	Featured(ctx context.Context) api.Response
	Reviews(ctx context.Context, id string) api.Response
	AddReview(ctx context.Context, id string, rating int, comment string) api.Response
	Related(ctx context.Context, id string) api.Response
	Categories(ctx context.Context) api.Response
	OnSale(ctx context.Context) api.Response
}

// Service fetches catalog data, caching list and single-product lookups for
// the configured TTL. Concurrent misses on the same key are collapsed into a
// single remote call.
type Service struct {
	remote     Remote
	products   *ttlCache[Product]
	lists      *ttlCache[[]Product]
	categories *ttlCache[[]Category]
	sfg        singleflight.Group
	logger     *slog.Logger
}

// NewService creates a catalog Service with the given cache TTL.
func NewService(remote Remote, cacheTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		remote:     remote,
		products:   newTTLCache[Product](cacheTTL),
		lists:      newTTLCache[[]Product](cacheTTL),
		categories: newTTLCache[[]Category](cacheTTL),
		logger:     logger,
	}
}

// Products returns the product listing for the given filters.
func (s *Service) Products(ctx context.Context, filters url.Values) ([]Product, error) {
	return s.cachedList(ctx, "products_"+filters.Encode(), func() api.Response {
		return s.remote.List(ctx, filters)
	})
}

// Product returns a single product by ID.
func (s *Service) Product(ctx context.Context, id string) (*Product, error) {
	if cached, ok := s.products.get(id); ok {
		return &cached, nil
	}

	v, err, _ := s.sfg.Do("product_"+id, func() (any, error) {
		resp := s.remote.Get(ctx, id)
		if !resp.Success {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, resp.Message)
		}
		var product Product
		if err := resp.Decode(&product); err != nil {
			return nil, err
		}
		s.products.set(id, product)
		return product, nil
	})
	if err != nil {
		return nil, err
	}
	product := v.(Product)
	return &product, nil
}

// ProductFresh fetches the product from the backend unconditionally and
// refreshes the cache entry. Callers that must see current price and stock,
// such as cart validation, use this instead of Product.
func (s *Service) ProductFresh(ctx context.Context, id string) (*Product, error) {
	resp := s.remote.Get(ctx, id)
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, resp.Message)
	}
	var product Product
	if err := resp.Decode(&product); err != nil {
		return nil, err
	}
	s.products.set(id, product)
	return &product, nil
}

// Search returns products matching the query. Search results are not cached.
func (s *Service) Search(ctx context.Context, q string, filters url.Values) ([]Product, error) {
	resp := s.remote.Search(ctx, q, filters)
	if !resp.Success {
		return nil, fmt.Errorf("product search failed: %s", resp.Message)
	}
	var products []Product
	if err := resp.Decode(&products); err != nil {
		return nil, err
	}
	return products, nil
}

// ByCategory returns the products of a category.
func (s *Service) ByCategory(ctx context.Context, categoryID string, filters url.Values) ([]Product, error) {
	key := "category_" + categoryID + "_" + filters.Encode()
	return s.cachedList(ctx, key, func() api.Response {
		return s.remote.ByCategory(ctx, categoryID, filters)
	})
}

// Featured returns the featured product selection.
func (s *Service) Featured(ctx context.Context) ([]Product, error) {
	return s.cachedList(ctx, "featured_products", func() api.Response {
		return s.remote.Featured(ctx)
	})
}

// Related returns products related to the given one.
func (s *Service) Related(ctx context.Context, id string) ([]Product, error) {
	resp := s.remote.Related(ctx, id)
	if !resp.Success {
		return nil, fmt.Errorf("related products lookup failed: %s", resp.Message)
	}
	var products []Product
	if err := resp.Decode(&products); err != nil {
		return nil, err
	}
	return products, nil
}

// OnSale returns the products currently on sale.
func (s *Service) OnSale(ctx context.Context) ([]Product, error) {
	resp := s.remote.OnSale(ctx)
	if !resp.Success {
		return nil, fmt.Errorf("sale products lookup failed: %s", resp.Message)
	}
	var products []Product
	if err := resp.Decode(&products); err != nil {
		return nil, err
	}
	return products, nil
}

// Reviews returns the reviews of a product.
func (s *Service) Reviews(ctx context.Context, id string) ([]Review, error) {
	resp := s.remote.Reviews(ctx, id)
	if !resp.Success {
		return nil, fmt.Errorf("product reviews lookup failed: %s", resp.Message)
	}
	var reviews []Review
	if err := resp.Decode(&reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// AddReview submits a review for a product. The cached product entry is
// dropped so the next read reflects the updated rating.
func (s *Service) AddReview(ctx context.Context, id string, rating int, comment string) error {
	resp := s.remote.AddReview(ctx, id, rating, comment)
	if !resp.Success {
		return fmt.Errorf("failed to submit review: %s", resp.Message)
	}
	s.products.purge()
	return nil
}

// Categories returns all product categories.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	if cached, ok := s.categories.get("categories"); ok {
		return cached, nil
	}

	v, err, _ := s.sfg.Do("categories", func() (any, error) {
		resp := s.remote.Categories(ctx)
		if !resp.Success {
			return nil, fmt.Errorf("categories lookup failed: %s", resp.Message)
		}
		var categories []Category
		if err := resp.Decode(&categories); err != nil {
			return nil, err
		}
		s.categories.set("categories", categories)
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Category), nil
}

// cachedList serves a product list from cache, fetching through singleflight
// on a miss.
func (s *Service) cachedList(ctx context.Context, key string, fetch func() api.Response) ([]Product, error) {
	if cached, ok := s.lists.get(key); ok {
		return cached, nil
	}

	v, err, _ := s.sfg.Do(key, func() (any, error) {
		resp := fetch()
		if !resp.Success {
			return nil, fmt.Errorf("product listing failed: %s", resp.Message)
		}
		var products []Product
		if err := resp.Decode(&products); err != nil {
			return nil, err
		}
		s.lists.set(key, products)
		return products, nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "catalog fetch failed", "key", key, "error", err)
		return nil, err
	}
	return v.([]Product), nil
}
