// Package usersclient talks to the external users service.
package usersclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/vovakirdan/textchat-relay/internal/core"
)

// maxBodyBytes caps how much of a reply is read.
const maxBodyBytes = 1 << 20

// Response is a completed 2xx HTTP exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// HTTPClient issues single-attempt requests. Transport errors, timeouts and
// non-2xx statuses come back as failures.
type HTTPClient interface {
	Get(ctx context.Context, endpoint string) core.Result[Response]
	Post(ctx context.Context, endpoint string, body any) core.Result[Response]
}

// Client is the net/http backed HTTPClient.
type Client struct {
	http    *stdhttp.Client
	timeout time.Duration
}

// NewClient builds a client. A zero timeout leaves requests bounded only by
// the caller's context.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http:    &stdhttp.Client{},
		timeout: timeout,
	}
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, endpoint string) core.Result[Response] {
	return c.do(ctx, stdhttp.MethodGet, endpoint, nil)
}

// Post issues a POST request with body encoded as JSON.
func (c *Client) Post(ctx context.Context, endpoint string, body any) core.Result[Response] {
	payload, err := json.Marshal(body)
	if err != nil {
		return core.Err[Response](core.NewFailure(core.FailureInternal, fmt.Sprintf("encode request: %v", err)))
	}
	return c.do(ctx, stdhttp.MethodPost, endpoint, payload)
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) core.Result[Response] {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := stdhttp.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return core.Err[Response](core.NewFailure(core.FailureInternal, fmt.Sprintf("build request: %v", err)))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return core.Err[Response](transportFailure(method, endpoint, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return core.Err[Response](transportFailure(method, endpoint, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.Err[Response](statusFailure(resp.StatusCode, data))
	}
	return core.Ok(Response{StatusCode: resp.StatusCode, Body: data})
}

func transportFailure(method, endpoint string, err error) core.Failure {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return core.NewFailure(core.FailureTimeout, fmt.Sprintf("%s %s timed out", method, endpoint))
	}
	return core.NewFailure(core.FailureUnavailable, fmt.Sprintf("%s %s: %v", method, endpoint, err))
}

// statusFailure keeps the server's own error text when the body carries one.
func statusFailure(status int, body []byte) core.Failure {
	msg := fmt.Sprintf("request failed with status code %d", status)

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		msg += ": " + payload.Error
	}
	return core.NewFailure(core.FailureRejected, msg)
}
