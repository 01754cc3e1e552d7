package app_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abgdnv/gocatalog/internal/app"
	"github.com/abgdnv/gocatalog/internal/service"
	"github.com/abgdnv/gocatalog/internal/store"
	"github.com/abgdnv/gocatalog/pkg/telemetry"
	"github.com/abgdnv/gocatalog/pkg/web"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// CatalogAppSuite runs the real handler stack over an in-memory store.
type CatalogAppSuite struct {
	suite.Suite
	server  *httptest.Server
	metrics *telemetry.Metrics
}

func TestCatalogApp(t *testing.T) {
	suite.Run(t, new(CatalogAppSuite))
}

func (s *CatalogAppSuite) SetupSuite() {
	metrics, err := telemetry.NewMetrics("catalog-test")
	s.Require().NoError(err)
	s.metrics = metrics
}

func (s *CatalogAppSuite) TearDownSuite() {
	s.NoError(s.metrics.Shutdown(s.T().Context()))
}

func (s *CatalogAppSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := app.SetupDependencies(store.NewMemoryStore(), nil, s.metrics, logger)
	s.server = httptest.NewServer(app.SetupHttpHandler(deps))
}

func (s *CatalogAppSuite) TearDownTest() {
	s.server.Close()
}

func (s *CatalogAppSuite) do(method, path string, body any) (int, web.Envelope[json.RawMessage], *http.Response) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(s.T().Context(), method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var envelope web.Envelope[json.RawMessage]
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	if len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, &envelope), string(raw))
	}
	return resp.StatusCode, envelope, resp
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (s *CatalogAppSuite) TestEmptyCatalog() {
	// when
	status, envelope, resp := s.do(http.MethodGet, "/products", nil)
	// then
	s.Equal(http.StatusOK, status)
	s.True(envelope.Success)
	s.JSONEq(`[]`, string(envelope.Data))
	s.NotEmpty(resp.Header.Get("X-Request-ID"))
}

func (s *CatalogAppSuite) TestPenLifecycle() {
	// create
	status, created, _ := s.do(http.MethodPost, "/products", map[string]any{"name": "Pen", "price": 10, "image": "http://x/pen.png"})
	s.Require().Equal(http.StatusCreated, status)
	s.True(created.Success)
	s.Equal("Product successfully created", created.Message)
	pen := decode[service.ProductDto](s.T(), created.Data)
	s.NotEmpty(pen.ID)
	s.Equal(service.ProductDto{ID: pen.ID, Name: "Pen", Price: 10, Image: "http://x/pen.png"}, pen)

	// a second product stays untouched by the updates below
	_, other, _ := s.do(http.MethodPost, "/products", map[string]any{"name": "Pencil", "price": 2, "image": "http://x/pencil.png"})
	pencil := decode[service.ProductDto](s.T(), other.Data)
	s.NotEqual(pen.ID, pencil.ID)

	// update
	status, updated, _ := s.do(http.MethodPut, "/products/"+pen.ID, map[string]any{"name": "Pen v2", "price": 12, "image": "http://x/pen2.png"})
	s.Require().Equal(http.StatusOK, status)
	s.Equal("Product successfully updated", updated.Message)
	s.Equal(service.ProductDto{ID: pen.ID, Name: "Pen v2", Price: 12, Image: "http://x/pen2.png"}, decode[service.ProductDto](s.T(), updated.Data))

	_, listed, _ := s.do(http.MethodGet, "/products", nil)
	s.Equal([]service.ProductDto{
		{ID: pen.ID, Name: "Pen v2", Price: 12, Image: "http://x/pen2.png"},
		pencil,
	}, decode[[]service.ProductDto](s.T(), listed.Data))

	// delete
	status, deleted, _ := s.do(http.MethodDelete, "/products/"+pen.ID, nil)
	s.Require().Equal(http.StatusOK, status)
	s.True(deleted.Success)
	s.Equal("Product successfully deleted", deleted.Message)
	s.Equal(service.ProductDto{ID: pen.ID, Name: "Pen v2", Price: 12, Image: "http://x/pen2.png"}, decode[service.ProductDto](s.T(), deleted.Data))

	status, again, _ := s.do(http.MethodDelete, "/products/"+pen.ID, nil)
	s.Equal(http.StatusNotFound, status)
	s.False(again.Success)

	_, listed, _ = s.do(http.MethodGet, "/products", nil)
	s.Equal([]service.ProductDto{pencil}, decode[[]service.ProductDto](s.T(), listed.Data))
}

func (s *CatalogAppSuite) TestFailureStatuses() {
	testCases := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
	}{
		{name: "create without image", method: http.MethodPost, path: "/products", body: map[string]any{"name": "Pen", "price": 10}, expectedStatus: http.StatusBadRequest},
		{name: "create with negative price", method: http.MethodPost, path: "/products", body: map[string]any{"name": "Pen", "price": -1, "image": "x"}, expectedStatus: http.StatusBadRequest},
		{name: "update malformed id", method: http.MethodPut, path: "/products/not-an-id", body: map[string]any{"name": "Pen", "price": 1, "image": "x"}, expectedStatus: http.StatusBadRequest},
		{name: "update unknown id", method: http.MethodPut, path: "/products/5b0c4a48-0a55-4f43-9f39-2f1fb7a2f0d4", body: map[string]any{"name": "Pen", "price": 1, "image": "x"}, expectedStatus: http.StatusNotFound},
		{name: "delete unknown id", method: http.MethodDelete, path: "/products/5b0c4a48-0a55-4f43-9f39-2f1fb7a2f0d4", expectedStatus: http.StatusNotFound},
		{name: "put on collection", method: http.MethodPut, path: "/products", body: map[string]any{"name": "Pen", "price": 1, "image": "x"}, expectedStatus: http.StatusMethodNotAllowed},
		{name: "patch on item", method: http.MethodPatch, path: "/products/5b0c4a48-0a55-4f43-9f39-2f1fb7a2f0d4", body: map[string]any{"name": "Pen"}, expectedStatus: http.StatusMethodNotAllowed},
		{name: "unknown path", method: http.MethodGet, path: "/orders", expectedStatus: http.StatusNotFound},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			status, envelope, _ := s.do(tc.method, tc.path, tc.body)
			s.Equal(tc.expectedStatus, status)
			s.False(envelope.Success)
			s.NotEmpty(envelope.Message)
			s.NotEmpty(envelope.Error)
		})
	}
}

func (s *CatalogAppSuite) TestProbesAndMetrics() {
	s.do(http.MethodPost, "/products", map[string]any{"name": "Pen", "price": 10, "image": "http://x/pen.png"})

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := s.server.Client().Get(s.server.URL + path)
		s.Require().NoError(err)
		_ = resp.Body.Close()
		s.Equal(http.StatusOK, resp.StatusCode, path)
	}

	resp, err := s.server.Client().Get(s.server.URL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), "catalog_product_mutations")
}
