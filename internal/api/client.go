// Package api is the typed client for the remote fiction-editing service.
// It is pure transport: request/response structs, status-code mapping onto
// the domain error taxonomy, and a single retry for idempotent reads.
// Mutations are never retried.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inkwell/internal/domain"
)

// Client talks to the service's REST API. The base URL includes the /api
// prefix, e.g. "http://localhost:8000/api".
//
// Project routes use no trailing slash. One legacy client used "/projects/";
// that variant is treated as a defect, not an alternative.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a client against baseURL with the given request timeout.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// apiError is the service's error body shape.
type apiError struct {
	Detail string `json:"detail"`
}

// do executes one request. A non-nil body is sent as JSON; a non-nil out
// receives the decoded response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.NetworkError{
			Message: fmt.Sprintf("%s %s: request failed", method, path),
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.NetworkError{
			Message: fmt.Sprintf("%s %s: read response", method, path),
			Cause:   err,
		}
	}

	if resp.StatusCode >= 400 {
		return c.mapStatus(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response for %s %s: %w", method, path, err)
		}
	}
	return nil
}

// get executes an idempotent read with a single retry after a transport
// failure. Context cancellation is never retried.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	err := c.do(ctx, http.MethodGet, path, query, nil, out)
	if err == nil || !errors.Is(err, domain.ErrNetwork) || ctx.Err() != nil {
		return err
	}

	c.logger.Debug("retrying read after transport failure", "path", path, "error", err)
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// mapStatus turns an error response into the matching domain error.
func (c *Client) mapStatus(status int, body []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)
	detail := apiErr.Detail
	if detail == "" {
		detail = strings.TrimSpace(string(body))
	}
	if detail == "" {
		detail = http.StatusText(status)
	}

	switch {
	case status == http.StatusNotFound:
		return &domain.NotFoundError{Message: detail}
	case status >= 500:
		return &domain.ServerError{Message: detail, Status: status}
	default:
		return &domain.ValidationError{Message: detail}
	}
}
