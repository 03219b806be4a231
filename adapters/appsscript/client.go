// Package appsscript delivers queued rows to a Google Apps Script web app.
package appsscript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	sheetqueue "github.com/ideamans/go-sheetqueue"
	"golang.org/x/oauth2"
)

// maxResponseBytes bounds how much of a reply is read
const maxResponseBytes = 1 << 20

// Config represents configuration for the Apps Script appender
type Config struct {
	URL     string        // Deployed web app URL ending in /exec
	Timeout time.Duration // HTTP client timeout (default: 30s)
}

// Client posts append requests to the web app
type Client struct {
	url  string
	http *http.Client
}

var _ sheetqueue.Appender = (*Client)(nil)

// response is the reply shape of the web app
type response struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// New creates a Client for a web app deployed for anonymous access
func New(config Config) (*Client, error) {
	return newClient(config, http.DefaultTransport)
}

// NewWithTokenSource creates a Client that sends an OAuth2 bearer token,
// for web apps restricted to a Google account
func NewWithTokenSource(ctx context.Context, config Config, ts oauth2.TokenSource) (*Client, error) {
	if ts == nil {
		return nil, errors.New("token source is required")
	}
	return newClient(config, oauth2.NewClient(ctx, ts).Transport)
}

func newClient(config Config, transport http.RoundTripper) (*Client, error) {
	if config.URL == "" {
		return nil, errors.New("web app url is required")
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		url: config.URL,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}, nil
}

// Append posts req and reports any transport, status or application failure
func (c *Client) Append(ctx context.Context, req sheetqueue.AppendRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to reach web app: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var reply response
	decodeErr := json.Unmarshal(data, &reply)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && reply.Error != "" {
			return fmt.Errorf("web app returned %d: %s", resp.StatusCode, reply.Error)
		}
		return fmt.Errorf("web app returned %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if !reply.Success {
		msg := reply.Error
		if msg == "" {
			msg = reply.Message
		}
		if msg == "" {
			return sheetqueue.ErrAppendRejected
		}
		return fmt.Errorf("%w: %s", sheetqueue.ErrAppendRejected, msg)
	}
	return nil
}
