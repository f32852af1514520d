package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfredjeanlab/flags/internal/registry"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	method  string
	path    string
	rawPath string
	query   string
	body    string
	auth    string

	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.rawPath = r.URL.RawPath
	h.query = r.URL.RawQuery
	h.auth = r.Header.Get("Authorization")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

// newTestClient creates an HTTPClient pointed at a test server with the given handler.
func newTestClient(t *testing.T, h http.Handler, token string) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", token)
}

func TestHTTPClient_IsEnabled(t *testing.T) {
	h := &testHandler{responseBody: `{"name":"a","enabled":true}`}
	c := newTestClient(t, h, "tok")

	on, err := c.IsEnabled(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, http.MethodGet, h.method)
	assert.Equal(t, "/v1/flags/a/enabled", h.path)
	assert.Equal(t, "Bearer tok", h.auth)
}

func TestHTTPClient_EnableSendsDescription(t *testing.T) {
	h := &testHandler{responseBody: `{"success":true}`}
	c := newTestClient(t, h, "")

	ok, err := c.EnableFlag(context.Background(), "agent_triggers", "Enable agent triggers functionality")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, http.MethodPost, h.method)
	assert.Equal(t, "/v1/flags/agent_triggers/enable", h.path)
	assert.Empty(t, h.auth)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(h.body), &body))
	assert.Equal(t, "Enable agent triggers functionality", body["description"])
}

func TestHTTPClient_DisableSendsReason(t *testing.T) {
	h := &testHandler{responseBody: `{"success":true}`}
	c := newTestClient(t, h, "")

	_, err := c.DisableFlag(context.Background(), "a", "Disabled via management script")
	require.NoError(t, err)
	assert.Equal(t, "/v1/flags/a/disable", h.path)
	assert.Contains(t, h.body, `"reason":"Disabled via management script"`)
}

func TestHTTPClient_PathEscape(t *testing.T) {
	h := &testHandler{statusCode: http.StatusBadRequest, responseBody: `{"error":"bad","code":"invalid_argument"}`}
	c := newTestClient(t, h, "")

	_, err := c.IsEnabled(context.Background(), "a/b")
	require.Error(t, err)
	assert.Equal(t, "/v1/flags/a%2Fb/enabled", h.rawPath)
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)
}

func TestHTTPClient_ErrorCodes(t *testing.T) {
	tests := []struct {
		code     string
		status   int
		sentinel error
	}{
		{"invalid_argument", http.StatusBadRequest, registry.ErrInvalidArgument},
		{"unavailable", http.StatusServiceUnavailable, registry.ErrUnavailable},
		{"verification_failed", http.StatusConflict, registry.ErrVerificationFailed},
		{"not_supported", http.StatusNotImplemented, registry.ErrNotSupported},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			h := &testHandler{statusCode: tt.status, responseBody: `{"error":"boom","code":"` + tt.code + `"}`}
			c := newTestClient(t, h, "")
			ok, err := c.EnableFlag(context.Background(), "a", "")
			assert.False(t, ok)
			assert.ErrorIs(t, err, tt.sentinel)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "boom", apiErr.Message)
		})
	}
}

func TestHTTPClient_PlainTextError(t *testing.T) {
	h := &testHandler{statusCode: http.StatusBadGateway, responseBody: "upstream gone\n"}
	c := newTestClient(t, h, "")

	_, err := c.ListFlags(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "upstream gone", apiErr.Message)
	assert.Nil(t, apiErr.Unwrap())
}

func TestHTTPClient_GetFlagDetails(t *testing.T) {
	h := &testHandler{responseBody: `{"name":"a","enabled":true,"description":"d","updated_at":"2026-10-18T09:00:00Z"}`}
	c := newTestClient(t, h, "")

	d, err := c.GetFlagDetails(context.Background(), "a")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "d", d.Description)
	assert.True(t, d.UpdatedAt.Equal(time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)))

	h.statusCode = http.StatusNotFound
	h.responseBody = `{"error":"flag not found","code":"not_found"}`
	d, err = c.GetFlagDetails(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestHTTPClient_ListDetails(t *testing.T) {
	h := &testHandler{responseBody: `{"flags":{"a":true},"records":[{"name":"a","enabled":true,"description":"x","updated_at":"2026-10-18T09:00:00Z"}]}`}
	c := newTestClient(t, h, "")

	list, err := c.ListDetails(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "details=true", h.query)
}

func TestHTTPClient_ListFlagsEmpty(t *testing.T) {
	h := &testHandler{responseBody: `{}`}
	c := newTestClient(t, h, "")

	m, err := c.ListFlags(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Empty(t, m)
}

func TestHTTPClient_Health(t *testing.T) {
	h := &testHandler{responseBody: `{"status":"ok"}`}
	c := newTestClient(t, h, "")
	got, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	h.statusCode = http.StatusServiceUnavailable
	h.responseBody = `{"status":"unavailable","error":"store down"}`
	got, err = c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "unavailable", got)
}

func TestHTTPClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url, "")
	_, err := c.IsEnabled(context.Background(), "a")
	assert.ErrorIs(t, err, registry.ErrUnavailable)
}
