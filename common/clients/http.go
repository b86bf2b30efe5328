package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Logger interface for HTTP client logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// HTTPClient wraps http.Client with JSON helpers. Generation workers are
// internal callers, so the shared internal-service secret is attached to
// bypass the public rate limits.
type HTTPClient struct {
	client         *http.Client
	internalSecret string
	logger         Logger
}

// NewHTTPClient creates a new HTTP client wrapper. internalSecret may be
// empty for external callers.
func NewHTTPClient(client *http.Client, internalSecret string, logger Logger) *HTTPClient {
	return &HTTPClient{
		client:         client,
		internalSecret: internalSecret,
		logger:         logger,
	}
}

// DoJSON executes a request with an optional JSON body and decodes the
// JSON response into out (when out is non-nil)
func (c *HTTPClient) DoJSON(ctx context.Context, method, url string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.internalSecret != "" {
		req.Header.Set("X-Internal-Service", c.internalSecret)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// APIError carries a non-2xx response
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api request failed: status=%d, body=%s", e.StatusCode, e.Body)
}
