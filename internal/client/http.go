package client

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

	flagsv1 "github.com/alfredjeanlab/flags/api/flags/v1"
	"github.com/alfredjeanlab/flags/internal/flags"
	"github.com/alfredjeanlab/flags/internal/registry"
)

// HTTPClient implements FlagsClient over the HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ FlagsClient = (*HTTPClient)(nil)

// NewHTTPClient creates a client for baseURL (e.g. "http://localhost:8080").
// When token is non-empty, an Authorization header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func flagPath(name string, suffix ...string) string {
	return "/v1/flags/" + url.PathEscape(name) + strings.Join(suffix, "")
}

func (c *HTTPClient) IsEnabled(ctx context.Context, name string) (bool, error) {
	var resp flagsv1.IsEnabledResponse
	if err := c.doJSON(ctx, http.MethodGet, flagPath(name, "/enabled"), nil, &resp); err != nil {
		return false, err
	}
	return resp.Enabled, nil
}

func (c *HTTPClient) EnableFlag(ctx context.Context, name, description string) (bool, error) {
	var resp flagsv1.EnableFlagResponse
	body := map[string]string{"description": description}
	if err := c.doJSON(ctx, http.MethodPost, flagPath(name, "/enable"), body, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

func (c *HTTPClient) DisableFlag(ctx context.Context, name, reason string) (bool, error) {
	var resp flagsv1.DisableFlagResponse
	body := map[string]string{"reason": reason}
	if err := c.doJSON(ctx, http.MethodPost, flagPath(name, "/disable"), body, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

func (c *HTTPClient) ListFlags(ctx context.Context) (map[string]bool, error) {
	var resp flagsv1.ListFlagsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/flags", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Flags == nil {
		resp.Flags = map[string]bool{}
	}
	return resp.Flags, nil
}

func (c *HTTPClient) ListDetails(ctx context.Context) ([]*flags.Details, error) {
	var resp flagsv1.ListFlagsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/flags?details=true", nil, &resp); err != nil {
		return nil, err
	}
	return wireToDetailsList(resp.Records), nil
}

func (c *HTTPClient) GetFlagDetails(ctx context.Context, name string) (*flags.Details, error) {
	var f flagsv1.Flag
	err := c.doJSON(ctx, http.MethodGet, flagPath(name), nil, &f)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return wireToDetails(&f), nil
}

func (c *HTTPClient) DeleteFlag(ctx context.Context, name string) (bool, error) {
	var resp flagsv1.DeleteFlagResponse
	if err := c.doJSON(ctx, http.MethodDelete, flagPath(name), nil, &resp); err != nil {
		return false, err
	}
	return resp.Deleted, nil
}

// Health returns the status field. An unhealthy server answers 503 with a
// status body, which is reported as the status rather than as an error.
func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp flagsv1.HealthResponse
	err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
		return flagsv1.StatusUnavailable, nil
	}
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

// doJSON performs an HTTP request with an optional JSON body and decodes the
// JSON response into result.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The server could not be reached; to the caller that is the same
		// condition as the server's store being down.
		return fmt.Errorf("performing request: %w: %w", registry.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Code: errResp.Code, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func wireToDetails(f *flagsv1.Flag) *flags.Details {
	if f == nil {
		return nil
	}
	return &flags.Details{
		Name:        f.Name,
		Enabled:     f.Enabled,
		Description: f.Description,
		UpdatedAt:   f.UpdatedAt,
	}
}

func wireToDetailsList(in []*flagsv1.Flag) []*flags.Details {
	out := make([]*flags.Details, 0, len(in))
	for _, f := range in {
		out = append(out, wireToDetails(f))
	}
	return out
}
