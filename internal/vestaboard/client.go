// Package vestaboard posts text to a split-flap display through the
// read/write API.
package vestaboard

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
)

const (
	DefaultURL     = "https://rw.vestaboard.com/"
	DefaultTimeout = 20 * time.Second

	keyHeader = "X-Vestaboard-Read-Write-Key"
)

var (
	// ErrMissingKey is returned when the client has no read/write key.
	ErrMissingKey = errors.New("vestaboard: read/write key not configured")
	// ErrPublish wraps any non-2xx answer from the display API.
	ErrPublish = errors.New("vestaboard: publish rejected")
)

// Client publishes text to one board.
type Client struct {
	url        string
	key        string
	httpClient *http.Client
}

// NewClient builds a client. A nil httpClient gets DefaultTimeout; an empty url uses DefaultURL.
func NewClient(httpClient *http.Client, url, key string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	return &Client{
		url:        url,
		key:        key,
		httpClient: httpClient,
	}
}

type message struct {
	Text string `json:"text"`
}

// Publish sends text as {"text": ...}. Any non-2xx status is an error.
func (c *Client) Publish(ctx context.Context, text string) error {
	if c.key == "" {
		return ErrMissingKey
	}

	body, err := json.Marshal(message{Text: text})
	if err != nil {
		return fmt.Errorf("encode vestaboard message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build vestaboard request: %w", err)
	}
	req.Header.Set(keyHeader, c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vestaboard request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("%w: status=%d body=%s", ErrPublish, resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
