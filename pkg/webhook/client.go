package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	dashboard "github.com/goliatone/go-dashgrid/components/dashboard"
)

// Config configures the webhook client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client posts dashboard change events to a remote notifications endpoint.
// It satisfies dashboard.NotificationsClient.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ dashboard.NotificationsClient = (*Client)(nil)

// NewClient builds a client for the endpoint at cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("webhook: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

type eventPayload struct {
	Channel string                `json:"channel"`
	Event   dashboard.ChangeEvent `json:"event"`
}

// PublishDashboardEvent posts the event to /channels/{channel}/events.
func (c *Client) PublishDashboardEvent(ctx context.Context, channel string, event dashboard.ChangeEvent) error {
	if channel == "" {
		channel = "dashboards"
	}
	return c.do(ctx, http.MethodPost, "/channels/"+channel+"/events", eventPayload{Channel: channel, Event: event})
}

func (c *Client) do(ctx context.Context, method, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return fmt.Errorf("webhook: remote error %d: %s", resp.StatusCode, buf.String())
	}
	return nil
}
