package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/favx/internal/shared"
)

// RawResponse is an undecoded response from [Client.Get].
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string // X-Request-ID sent with the request
}

// OK reports a 2xx status.
func (r *RawResponse) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// JSON decodes the body, reporting false when it is empty or not valid JSON.
func (r *RawResponse) JSON() (any, bool) {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, false
	}
	return v, true
}

// Get sends a GET to any API path and returns the response as-is, whatever its status.
//
// The token is attached when non-empty.
func (c *Client) Get(ctx context.Context, token, path string) (*RawResponse, error) {
	req, id, err := c.newRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(req, id)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response from %s: %v", shared.ErrAPIRequest, path, err)
	}

	return &RawResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: body, RequestID: id}, nil
}
