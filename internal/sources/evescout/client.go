package evescout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/therawatch/internal/domain"
)

// DefaultURL is the public signatures endpoint.
const DefaultURL = "https://api.eve-scout.com/v2/public/signatures"

// maxBodyBytes caps the feed payload; the live feed is a few hundred KB.
const maxBodyBytes = 16 << 20

// Client pulls the raw signature feed.
type Client struct {
	url       string
	http      *http.Client
	userAgent string
}

// NewClient creates a feed client with its own timeout.
func NewClient(url string, timeout time.Duration, userAgent string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:       url,
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch returns the current snapshot. Network failures, timeouts and
// non-200 statuses are wrapped with domain.ErrTransientUpstream.
func (c *Client) Fetch(ctx context.Context) ([]Signature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: feed request: %v", domain.ErrTransientUpstream, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: feed returned HTTP %d", domain.ErrTransientUpstream, resp.StatusCode)
	}

	var sigs []Signature
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&sigs); err != nil {
		return nil, fmt.Errorf("%w: decode feed: %v", domain.ErrTransientUpstream, err)
	}
	return sigs, nil
}
