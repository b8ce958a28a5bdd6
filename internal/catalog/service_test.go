package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/akulov/storefront/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRemote is a mock implementation of the Remote interface.
type mockRemote struct {
	getCalls      int
	listCalls     int
	featuredCalls int
	response      api.Response
}

func success(t *testing.T, v any) api.Response {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return api.Response{Success: true, Data: data}
}

func (m *mockRemote) List(_ context.Context, _ url.Values) api.Response {
	m.listCalls++
	return m.response
}

func (m *mockRemote) Get(_ context.Context, _ string) api.Response {
	m.getCalls++
	return m.response
}

func (m *mockRemote) Search(_ context.Context, _ string, _ url.Values) api.Response {
	return m.response
}

func (m *mockRemote) ByCategory(_ context.Context, _ string, _ url.Values) api.Response {
	m.listCalls++
	return m.response
}

func (m *mockRemote) Featured(_ context.Context) api.Response {
	m.featuredCalls++
	return m.response
}

func (m *mockRemote) Reviews(_ context.Context, _ string) api.Response    { return m.response }
func (m *mockRemote) AddReview(_ context.Context, _ string, _ int, _ string) api.Response {
	return m.response
}
func (m *mockRemote) Related(_ context.Context, _ string) api.Response    { return m.response }
func (m *mockRemote) Categories(_ context.Context) api.Response           { return m.response }
func (m *mockRemote) OnSale(_ context.Context) api.Response               { return m.response }

func newTestService(remote Remote) *Service {
	return NewService(remote, 5*time.Minute, slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func Test_Service_ProductCachedOnSecondRead(t *testing.T) {
	remote := &mockRemote{}
	remote.response = success(t, Product{ID: "p1", Name: "Widget", InStock: true})
	service := newTestService(remote)

	first, err := service.Product(context.Background(), "p1")
	require.NoError(t, err)
	second, err := service.Product(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, remote.getCalls)
}

func Test_Service_ProductFreshBypassesCache(t *testing.T) {
	remote := &mockRemote{}
	remote.response = success(t, Product{ID: "p1", InStock: true})
	service := newTestService(remote)

	_, err := service.Product(context.Background(), "p1")
	require.NoError(t, err)

	// The product sells out while the cache entry is still fresh.
	remote.response = success(t, Product{ID: "p1", InStock: false})
	fresh, err := service.ProductFresh(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, fresh.InStock)
	assert.Equal(t, 2, remote.getCalls)

	// The fresh read also replaced the cache entry.
	cached, err := service.Product(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, cached.InStock)
	assert.Equal(t, 2, remote.getCalls)
}

func Test_Service_ProductNotFound(t *testing.T) {
	remote := &mockRemote{response: api.Response{Success: false, Message: "no such product"}}
	service := newTestService(remote)

	_, err := service.Product(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func Test_Service_ProductsCachedPerFilter(t *testing.T) {
	remote := &mockRemote{}
	remote.response = success(t, []Product{{ID: "p1"}, {ID: "p2"}})
	service := newTestService(remote)

	filters := url.Values{}
	filters.Set("category", "home")

	_, err := service.Products(context.Background(), filters)
	require.NoError(t, err)
	_, err = service.Products(context.Background(), filters)
	require.NoError(t, err)
	assert.Equal(t, 1, remote.listCalls)

	// A different filter set is a different cache entry.
	_, err = service.Products(context.Background(), url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 2, remote.listCalls)
}

func Test_Service_FeaturedCached(t *testing.T) {
	remote := &mockRemote{}
	remote.response = success(t, []Product{{ID: "p9", Name: "Hot item"}})
	service := newTestService(remote)

	for range 3 {
		products, err := service.Featured(context.Background())
		require.NoError(t, err)
		require.Len(t, products, 1)
	}
	assert.Equal(t, 1, remote.featuredCalls)
}

func Test_Service_ListFailureSurfacesError(t *testing.T) {
	remote := &mockRemote{response: api.Response{Success: false, Message: "backend down"}}
	service := newTestService(remote)

	_, err := service.Featured(context.Background())
	assert.ErrorContains(t, err, "backend down")
}

func Test_Service_AddReviewPurgesProductCache(t *testing.T) {
	remote := &mockRemote{}
	remote.response = success(t, Product{ID: "p1", Rating: 3.5})
	service := newTestService(remote)

	_, err := service.Product(context.Background(), "p1")
	require.NoError(t, err)

	require.NoError(t, service.AddReview(context.Background(), "p1", 5, "great"))

	_, err = service.Product(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, remote.getCalls)
}
