// Package api provides the remote service facade: a thin JSON request/response
// client plus per-resource bindings for the storefront backend. Transport and
// server failures are folded into the Response value; no call ever raises an
// error across the component boundary.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/akulov/storefront/pkg/config"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// Response is the uniform result shape of every facade call.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Decode unmarshals the response payload into dst.
func (r Response) Decode(dst any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("response carries no data")
	}
	if err := json.Unmarshal(r.Data, dst); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// Doer is the request-transport capability consumed by the resource bindings.
// It is satisfied by *Client and substitutable in tests.
type Doer interface {
	Get(ctx context.Context, path string, query url.Values) Response
	Post(ctx context.Context, path string, body any) Response
	Put(ctx context.Context, path string, body any) Response
	Patch(ctx context.Context, path string, body any) Response
	Delete(ctx context.Context, path string) Response
}

// Client is the HTTP implementation of Doer. Calls pass through a circuit
// breaker; business errors (4xx) do not trip it, transport failures and 5xx
// responses do.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[Response]
	logger  *slog.Logger
}

// NewClient creates a Client for the given base URL.
func NewClient(cfg config.APIConfig, logger *slog.Logger) *Client {
	st := gobreaker.Settings{
		Name:        "storefront-api",
		MaxRequests: 3,
		Timeout:     cfg.CircuitBreaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.CircuitBreaker.ConsecutiveFailures ||
				(counts.TotalSuccesses+counts.TotalFailures > cfg.CircuitBreaker.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.TotalSuccesses+counts.TotalFailures)*100 > float64(cfg.CircuitBreaker.ErrorRatePercent))
		},
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[Response](st),
		logger:  logger,
	}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) Response {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) Response {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) Response {
	return c.do(ctx, http.MethodPut, path, nil, body)
}

func (c *Client) Patch(ctx context.Context, path string, body any) Response {
	return c.do(ctx, http.MethodPatch, path, nil, body)
}

func (c *Client) Delete(ctx context.Context, path string) Response {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do executes one request through the circuit breaker. Only errors returned
// from the inner function count as breaker failures, so business rejections
// are surfaced as Response values with a nil error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) Response {
	resp, err := c.breaker.Execute(func() (Response, error) {
		return c.roundTrip(ctx, method, path, query, body)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "remote call failed", "method", method, "path", path, "error", err)
		return Response{Success: false, Message: err.Error()}
	}
	return resp
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body any) (Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return Response{}, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return Response{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response body: %w", err)
	}
	c.logger.DebugContext(ctx, "remote call completed",
		"method", method, "path", path, "status", httpResp.StatusCode, "duration", time.Since(started))

	switch {
	case httpResp.StatusCode >= 500:
		// Server fault: report upstream as a breaker failure.
		return Response{}, fmt.Errorf("server error: status %d", httpResp.StatusCode)
	case httpResp.StatusCode >= 400:
		// Business rejection: fold into the response shape, breaker stays closed.
		return failureResponse(raw, httpResp.StatusCode), nil
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp, nil
}

// failureResponse extracts the server's message from an error body where
// possible, falling back to the HTTP status.
func failureResponse(raw []byte, status int) Response {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err == nil && resp.Message != "" {
		resp.Success = false
		return resp
	}
	var errBody struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &errBody); err == nil && errBody.Error != "" {
		return Response{Success: false, Message: errBody.Error}
	}
	return Response{Success: false, Message: fmt.Sprintf("request rejected: status %d", status)}
}
