package esi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/therawatch/internal/domain"
)

// DefaultBaseURL is the public ESI root.
const DefaultBaseURL = "https://esi.evetech.net/latest"

// Client answers jump-count questions with the ESI route endpoint.
// It holds no state between calls; callers bound each call with ctx.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

// NewClient creates an ESI client. A nil httpClient uses a default one
// without its own timeout, since per-call deadlines come from ctx.
func NewClient(baseURL string, httpClient *http.Client, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpClient,
		userAgent: userAgent,
	}
}

// Jumps returns the number of gates between from and to.
//
// A 404 from ESI means no path exists and is reported as domain.ErrNoRoute.
// Everything else that prevents an answer is wrapped in
// domain.ErrTransientUpstream.
func (c *Client) Jumps(ctx context.Context, from, to int64, pref domain.RoutePreference) (int, error) {
	if from == to {
		return 0, nil
	}

	u := fmt.Sprintf("%s/route/%d/%d/?flag=%s",
		c.baseURL,
		from, to,
		url.QueryEscape(pref.String()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create route request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: route %d->%d: %v", domain.ErrTransientUpstream, from, to, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, fmt.Errorf("route %d->%d: %w", from, to, domain.ErrNoRoute)
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("%w: route %d->%d returned HTTP %d",
			domain.ErrTransientUpstream, from, to, resp.StatusCode)
	}

	var path []int64
	if err := json.NewDecoder(resp.Body).Decode(&path); err != nil {
		return 0, fmt.Errorf("%w: decode route %d->%d: %v", domain.ErrTransientUpstream, from, to, err)
	}
	if len(path) == 0 {
		return 0, fmt.Errorf("route %d->%d: empty path: %w", from, to, domain.ErrNoRoute)
	}
	return len(path) - 1, nil
}
