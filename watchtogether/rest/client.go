package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// identityPath is the one-shot endpoint returning the current user's
// watch-together profile.
const identityPath = "/user/watchTogether"

// Client provides REST access to the site API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a REST client. baseURL is the site root,
// e.g. "http://localhost:8080/OpusCine".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient allows setting a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// ResolveIdentity fetches the current user's nickname and avatar. One
// authenticated request per session; callers cache the result. An
// unauthenticated response yields ErrUnauthorized, a transport failure a
// wrapped error.
func (c *Client) ResolveIdentity(ctx context.Context) (*Participant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+identityPath, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("http error: %s (status %d)", string(body), resp.StatusCode)
	}

	var p Participant
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("unmarshal identity: %w", err)
	}
	return &p, nil
}
