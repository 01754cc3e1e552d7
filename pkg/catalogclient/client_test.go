package catalogclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abgdnv/gocatalog/pkg/config"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClientConfig(baseURL string) config.ClientConfig {
	return config.ClientConfig{
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
		CircuitBreaker: config.CircuitBreakerConfig{
			ConsecutiveFailures: 2,
			ErrorRatePercent:    100,
			MaxHalfOpenRequests: 1,
			OpenTimeout:         time.Minute,
		},
	}
}

// fixedResponse answers every request with the same status and body and counts the calls.
func fixedResponse(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func Test_Client_List(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		body        string
		expected    []Product
		expectError error
		statusCode  int
	}{
		{
			name:     "Success - products",
			status:   http.StatusOK,
			body:     `{"success":true,"message":"Products fetched successfully","data":[{"id":"1","name":"Pen","price":10,"image":"http://x/pen.png"}]}`,
			expected: []Product{{ID: "1", Name: "Pen", Price: 10, Image: "http://x/pen.png"}},
		},
		{
			name:     "Success - empty",
			status:   http.StatusOK,
			body:     `{"success":true,"message":"Products fetched successfully","data":[]}`,
			expected: []Product{},
		},
		{
			name:        "Malformed - not json",
			status:      http.StatusOK,
			body:        `<html>oops</html>`,
			expectError: ErrMalformedResponse,
		},
		{
			name:        "Malformed - missing data",
			status:      http.StatusOK,
			body:        `{"success":true,"message":"ok"}`,
			expectError: ErrMalformedResponse,
		},
		{
			name:        "Malformed - data is an object",
			status:      http.StatusOK,
			body:        `{"success":true,"data":{"id":"1"}}`,
			expectError: ErrMalformedResponse,
		},
		{
			name:       "Failure - server error with envelope",
			status:     http.StatusInternalServerError,
			body:       `{"success":false,"message":"Failed to fetch products","error":"unexpected server error"}`,
			statusCode: http.StatusInternalServerError,
		},
		{
			name:       "Failure - bad gateway without envelope",
			status:     http.StatusBadGateway,
			body:       `bad gateway`,
			statusCode: http.StatusBadGateway,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			srv, _ := fixedResponse(t, tc.status, tc.body)
			client := NewClient(testClientConfig(srv.URL))
			// when
			products, _, err := client.List(context.Background())
			// then
			switch {
			case tc.expectError != nil:
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, products)
			case tc.statusCode != 0:
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, tc.statusCode, statusErr.Code)
				assert.NotEmpty(t, statusErr.Message)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.expected, products)
			}
		})
	}
}

func Test_Client_Create_SendsInputAndDecodesRecord(t *testing.T) {
	// given
	var gotMethod, gotPath, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotContentType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"message":"Product successfully created","data":{"id":"42","name":"Pen","price":10,"image":"http://x/pen.png"}}`))
	}))
	defer srv.Close()
	client := NewClient(testClientConfig(srv.URL + "/api/"))

	// when
	created, message, err := client.Create(context.Background(), ProductInput{Name: "Pen", Price: 10, Image: "http://x/pen.png"})

	// then
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/products", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "Product successfully created", message)
	assert.Equal(t, &Product{ID: "42", Name: "Pen", Price: 10, Image: "http://x/pen.png"}, created)
}

func Test_Client_Update_RejectsRecordWithoutID(t *testing.T) {
	// given
	srv, _ := fixedResponse(t, http.StatusOK, `{"success":true,"data":{"name":"Pen"}}`)
	client := NewClient(testClientConfig(srv.URL))
	// when
	updated, _, err := client.Update(context.Background(), "42", ProductInput{Name: "Pen", Price: 1, Image: "x"})
	// then
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Nil(t, updated)
}

func Test_Client_EscapesProductID(t *testing.T) {
	testCases := []struct {
		name         string
		id           string
		expectedPath string
	}{
		{name: "plain id", id: "42", expectedPath: "/products/42"},
		{name: "query characters", id: "42?x=1", expectedPath: "/products/42%3Fx=1"},
		{name: "fragment", id: "42#frag", expectedPath: "/products/42%23frag"},
		{name: "slash", id: "42/extra", expectedPath: "/products/42%2Fextra"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var gotPath, gotID, gotQuery string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath, gotQuery = r.URL.EscapedPath(), r.URL.RawQuery
				gotID = strings.TrimPrefix(r.URL.Path, "/products/")
				_, _ = w.Write([]byte(`{"success":true,"message":"Product successfully deleted","data":{"id":"42","name":"Pen","price":10,"image":"x"}}`))
			}))
			defer srv.Close()
			client := NewClient(testClientConfig(srv.URL))
			// when
			deleted, message, err := client.Delete(context.Background(), tc.id)
			// then
			require.NoError(t, err)
			assert.Equal(t, tc.expectedPath, gotPath)
			assert.Equal(t, tc.id, gotID, "the id arrives as a single path segment")
			assert.Empty(t, gotQuery)
			assert.Equal(t, "Product successfully deleted", message)
			assert.Equal(t, "42", deleted.ID)
		})
	}
}

func Test_Client_Delete_NotFound(t *testing.T) {
	// given
	srv, _ := fixedResponse(t, http.StatusNotFound, `{"success":false,"message":"Product with ID 42 not found","error":"product not found"}`)
	client := NewClient(testClientConfig(srv.URL))
	// when
	_, _, err := client.Delete(context.Background(), "42")
	// then
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, "Product with ID 42 not found", statusErr.Message)
	assert.Equal(t, "product not found", statusErr.Detail)
}

func Test_Client_Timeout(t *testing.T) {
	// given
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	cfg := testClientConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	client := NewClient(cfg)

	// when
	start := time.Now()
	_, _, err := client.List(context.Background())

	// then
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func Test_Client_CircuitBreaker(t *testing.T) {
	t.Run("opens after consecutive server errors", func(t *testing.T) {
		// given
		srv, calls := fixedResponse(t, http.StatusInternalServerError, `{"success":false,"message":"boom"}`)
		client := NewClient(testClientConfig(srv.URL))

		// when
		for range 3 {
			_, _, err := client.List(context.Background())
			require.Error(t, err)
		}
		_, _, err := client.List(context.Background())

		// then
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.Equal(t, int32(3), calls.Load(), "open breaker must not reach the server")
	})

	t.Run("client errors do not trip", func(t *testing.T) {
		// given
		srv, calls := fixedResponse(t, http.StatusNotFound, `{"success":false,"message":"Product with ID 1 not found"}`)
		client := NewClient(testClientConfig(srv.URL))

		// when
		for range 5 {
			_, _, err := client.Delete(context.Background(), "1")
			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
		}

		// then
		assert.Equal(t, int32(5), calls.Load())
	})
}

func Test_isSuccessful(t *testing.T) {
	assert.True(t, isSuccessful(nil))
	assert.True(t, isSuccessful(&StatusError{Code: http.StatusBadRequest}))
	assert.True(t, isSuccessful(context.Canceled))
	assert.False(t, isSuccessful(&StatusError{Code: http.StatusServiceUnavailable}))
	assert.False(t, isSuccessful(context.DeadlineExceeded))
}
