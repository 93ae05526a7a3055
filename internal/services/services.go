package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/favx/internal/shared"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://127.0.0.1:5001"

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 1 << 20

// Client talks to the favorites API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewClient creates a [Client] from cfg.
//
// A nil httpClient gets one with cfg.Timeout; a nil logger discards.
// A zero cfg.RateLimit disables limiting.
func NewClient(cfg shared.APIConfig, httpClient *http.Client, logger *log.Logger) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout.Duration}
	}
	if logger == nil {
		logger = shared.NewDiscardLogger()
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// newRequest builds a request with the JSON body, bearer token and request id set.
func (c *Client) newRequest(ctx context.Context, method, path, token string, body any) (*http.Request, string, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	id := shared.GenerateID()
	req.Header.Set("X-Request-ID", id)
	return req, id, nil
}

// send waits on the limiter, performs req and logs the exchange.
func (c *Client) send(req *http.Request, id string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("%w: rate limit: %w", shared.ErrAPIRequest, err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "method", req.Method, "path", req.URL.Path, "request_id", id, "error", err)
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrAPIRequest, err)
	}

	c.logger.Debug("api request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"request_id", id,
		"duration", time.Since(start),
	)
	return resp, nil
}

// doRequest sends a JSON request and decodes a 2xx response into out.
//
// It returns the response status so callers can tell 200 from 201.
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, out any) (int, error) {
	req, id, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return 0, err
	}

	resp, err := c.send(req, id)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, newHTTPError(resp)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp.StatusCode, fmt.Errorf("%w: failed to decode response: %w", shared.ErrAPIRequest, err)
		}
	}
	return resp.StatusCode, nil
}
