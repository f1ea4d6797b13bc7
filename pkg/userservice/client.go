// Package userservice provides the HTTP client the Channel Resolver
// uses to fetch a recipient's email/phone from the external
// system-of-record, in the same JSON-over-HTTP style as pkg/sms.
package userservice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/5-VED/nest-notification-svc/internal/model"
)

// Client fetches recipient profiles from a single upstream base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient wraps the user service's base URL.
func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{}}
}

// FetchProfile satisfies resolver.ProfileFetcher.
func (c *Client) FetchProfile(ctx context.Context, userID string) (model.RecipientProfile, error) {
	url := fmt.Sprintf("%s/users/%s/profile", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.RecipientProfile{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return model.RecipientProfile{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.RecipientProfile{}, fmt.Errorf("user service error: %s", resp.Status)
	}

	var profile model.RecipientProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return model.RecipientProfile{}, fmt.Errorf("decode response: %w", err)
	}
	return profile, nil
}
