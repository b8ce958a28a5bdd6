package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/akulov/storefront/pkg/config"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.APIConfig{
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
		CircuitBreaker: config.CircuitBreakerConfig{
			ConsecutiveFailures: 3,
			ErrorRatePercent:    100,
			OpenTimeout:         time.Second,
		},
	}
	return NewClient(cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func Test_Client_GetDecodesEnvelope(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"p1","name":"Widget"}}`))
	})
	client := newTestClient(t, router)

	resp := client.Get(context.Background(), "/products/p1", nil)
	require.True(t, resp.Success)

	var product struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, resp.Decode(&product))
	assert.Equal(t, "p1", product.ID)
	assert.Equal(t, "Widget", product.Name)
}

func Test_Client_QueryParametersForwarded(t *testing.T) {
	var gotQuery url.Values
	router := chi.NewRouter()
	router.Get("/products/search", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	})
	client := newTestClient(t, router)

	query := url.Values{}
	query.Set("q", "lamp")
	query.Set("category", "home")
	resp := client.Get(context.Background(), "/products/search", query)

	require.True(t, resp.Success)
	assert.Equal(t, "lamp", gotQuery.Get("q"))
	assert.Equal(t, "home", gotQuery.Get("category"))
}

func Test_Client_PostSendsJSONBody(t *testing.T) {
	var gotContentType string
	router := chi.NewRouter()
	router.Post("/cart/items", func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"success":true,"data":{"items":[]}}`))
	})
	client := newTestClient(t, router)

	resp := client.Post(context.Background(), "/cart/items", map[string]any{"product_id": "p1", "quantity": 2})
	require.True(t, resp.Success)
	assert.Equal(t, "application/json", gotContentType)
}

func Test_Client_BusinessErrorFoldedIntoResponse(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/cart/coupon", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"success":false,"message":"coupon expired"}`))
	})
	client := newTestClient(t, router)

	resp := client.Post(context.Background(), "/cart/coupon", map[string]any{"code": "OLD"})
	assert.False(t, resp.Success)
	assert.Equal(t, "coupon expired", resp.Message)
}

func Test_Client_BusinessErrorsDoNotTripBreaker(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"order not found"}`))
	})
	client := newTestClient(t, router)

	for range 10 {
		resp := client.Get(context.Background(), "/orders/missing", nil)
		assert.False(t, resp.Success)
		assert.Equal(t, "order not found", resp.Message)
	}
}

func Test_Client_ServerErrorsTripBreaker(t *testing.T) {
	calls := 0
	router := chi.NewRouter()
	router.Get("/cart", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})
	client := newTestClient(t, router)

	for range 10 {
		resp := client.Get(context.Background(), "/cart", nil)
		assert.False(t, resp.Success)
	}
	// Once open, the breaker short-circuits without reaching the server.
	assert.Less(t, calls, 10)
}

func Test_Client_TransportFailureIsFailedResponse(t *testing.T) {
	cfg := config.APIConfig{
		BaseURL: "http://127.0.0.1:1",
		Timeout: 200 * time.Millisecond,
		CircuitBreaker: config.CircuitBreakerConfig{
			ConsecutiveFailures: 3,
			ErrorRatePercent:    100,
			OpenTimeout:         time.Second,
		},
	}
	client := NewClient(cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)))

	resp := client.Get(context.Background(), "/cart", nil)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)
}

func Test_Response_DecodeWithoutData(t *testing.T) {
	resp := Response{Success: true}
	var dst map[string]any
	assert.Error(t, resp.Decode(&dst))
}
