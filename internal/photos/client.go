package photos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/eventlens/api/internal/config"
	"github.com/eventlens/api/internal/model"
)

// Client talks to the platform photo API over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a photo API client from configuration.
func NewClient(cfg *config.PhotosConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// GetEvent fetches event metadata from GET /internal/events/:id.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	endpoint := fmt.Sprintf("%s/internal/events/%s", c.baseURL, url.PathEscape(eventID))

	var event model.Event
	if err := c.getJSON(ctx, endpoint, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListApproved fetches the event's approved photos from
// GET /internal/events/:id/photos?status=approved&limit=N, sorted
// newest first and truncated to max.
func (c *Client) ListApproved(ctx context.Context, eventID string, max int) ([]model.Photo, error) {
	endpoint := fmt.Sprintf("%s/internal/events/%s/photos?status=approved&limit=%s",
		c.baseURL, url.PathEscape(eventID), strconv.Itoa(max))

	var payload struct {
		Photos []model.Photo `json:"photos"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	photos := payload.Photos
	sort.SliceStable(photos, func(i, j int) bool {
		return photos[i].CreatedAt.After(photos[j].CreatedAt)
	})
	if max > 0 && len(photos) > max {
		photos = photos[:max]
	}
	return photos, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("photo API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrEventNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("photo API returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode photo API response: %w", err)
	}
	return nil
}
