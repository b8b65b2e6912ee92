// Package search wraps the external lookup services the agents ground their
// recommendations on: SerpAPI Google Hotels and Google Flights, and the
// Google Places text search.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ai-travel-planner/internal/config"
)

const (
	serpAPIURL   = "https://serpapi.com/search.json"
	placesAPIURL = "https://maps.googleapis.com/maps/api/place/textsearch/json"
)

// Client talks to SerpAPI and Google Places.
type Client struct {
	httpClient *http.Client
	serpKey    string
	mapsKey    string
	serpURL    string
	placesURL  string
	pageDelay  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoints points the client at other base URLs (used by tests).
func WithEndpoints(serpURL, placesURL string) Option {
	return func(c *Client) {
		c.serpURL = serpURL
		c.placesURL = placesURL
	}
}

// WithPageDelay sets how long to wait before following a Places page token.
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) { c.pageDelay = d }
}

// NewClient creates a new search client.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		serpKey:    cfg.SerpAPIKey,
		mapsKey:    cfg.GoogleMapsAPIKey,
		serpURL:    serpAPIURL,
		placesURL:  placesAPIURL,
		// Places page tokens take a moment to become valid.
		pageDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) getJSON(ctx context.Context, base string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("search api error: status=%d body=%s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
