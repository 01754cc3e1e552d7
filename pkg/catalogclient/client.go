// Package catalogclient talks to the catalog HTTP API and keeps a local mirror of the catalog
// that only changes after the server has confirmed a mutation.
package catalogclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abgdnv/gocatalog/pkg/config"
	"github.com/abgdnv/gocatalog/pkg/web"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrMalformedResponse is returned when a response body is not a JSON envelope or lacks the expected data.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError is a failure reported by the server.
type StatusError struct {
	Code    int
	Message string
	Detail  string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("catalog responded %d: %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("catalog responded %d: %s", e.Code, e.Message)
}

// Product is a catalog record as the server returns it.
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

// ProductInput holds the client-editable fields of a product.
type ProductInput struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

// reply is an envelope the server confirmed with success:true.
type reply struct {
	message string
	data    json.RawMessage
}

// Client is a thin HTTP client for the catalog API.
// Every call runs under its own timeout and through a circuit breaker.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker[*reply]
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default instrumented http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Client for the API rooted at cfg.BaseURL.
func NewClient(cfg config.ClientConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		timeout:    cfg.Timeout,
		breaker:    newCircuitBreaker(cfg.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newCircuitBreaker(cfg config.CircuitBreakerConfig) *gobreaker.CircuitBreaker[*reply] {
	st := gobreaker.Settings{
		Name:        "catalog-client-cb",
		MaxRequests: cfg.MaxHalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.ConsecutiveFailures ||
				(counts.TotalSuccesses+counts.TotalFailures > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.TotalSuccesses+counts.TotalFailures)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: isSuccessful,
	}
	return gobreaker.NewCircuitBreaker[*reply](st)
}

// isSuccessful counts only transport failures and 5xx responses against the breaker.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrMalformedResponse) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code < http.StatusInternalServerError
	}
	return false
}

// List fetches the whole catalog.
func (c *Client) List(ctx context.Context) ([]Product, string, error) {
	r, err := c.do(ctx, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, "", err
	}
	var products []Product
	if err := decodeData(r.data, &products); err != nil {
		return nil, "", err
	}
	if products == nil {
		return nil, "", fmt.Errorf("%w: data is not a list", ErrMalformedResponse)
	}
	return products, r.message, nil
}

// Create sends a new product and returns the record the server stored.
func (c *Client) Create(ctx context.Context, input ProductInput) (*Product, string, error) {
	r, err := c.do(ctx, http.MethodPost, "/products", input)
	if err != nil {
		return nil, "", err
	}
	return decodeProduct(r)
}

// Update replaces the fields of the product with the given id.
func (c *Client) Update(ctx context.Context, id string, input ProductInput) (*Product, string, error) {
	r, err := c.do(ctx, http.MethodPut, productPath(id), input)
	if err != nil {
		return nil, "", err
	}
	return decodeProduct(r)
}

// Delete removes the product with the given id and returns the record the server removed.
func (c *Client) Delete(ctx context.Context, id string) (*Product, string, error) {
	r, err := c.do(ctx, http.MethodDelete, productPath(id), nil)
	if err != nil {
		return nil, "", err
	}
	return decodeProduct(r)
}

// productPath escapes id so it always stays a single path segment.
func productPath(id string) string {
	return "/products/" + url.PathEscape(id)
}

// do performs one request through the circuit breaker and returns the confirmed envelope.
func (c *Client) do(ctx context.Context, method, path string, body any) (*reply, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	return c.breaker.Execute(func() (*reply, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		return parseEnvelope(resp.StatusCode, raw)
	})
}

func parseEnvelope(status int, raw []byte) (*reply, error) {
	var envelope web.Envelope[json.RawMessage]
	decodeErr := json.Unmarshal(raw, &envelope)

	if status < 200 || status > 299 {
		if decodeErr != nil || envelope.Message == "" {
			return nil, &StatusError{Code: status, Message: http.StatusText(status)}
		}
		return nil, &StatusError{Code: status, Message: envelope.Message, Detail: envelope.Error}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr)
	}
	if !envelope.Success {
		return nil, &StatusError{Code: status, Message: envelope.Message, Detail: envelope.Error}
	}
	return &reply{message: envelope.Message, data: envelope.Data}, nil
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func decodeProduct(r *reply) (*Product, string, error) {
	var product Product
	if err := decodeData(r.data, &product); err != nil {
		return nil, "", err
	}
	if product.ID == "" {
		return nil, "", fmt.Errorf("%w: product without id", ErrMalformedResponse)
	}
	return &product, r.message, nil
}
