package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds individual API requests.
const DefaultTimeout = 10 * time.Second

// Client talks to a clipstream backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the backend at baseURL.
// A zero timeout falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StreamURL builds the playback URL for a video. The quality query parameter
// is only present for an explicit rendition; QualityAuto streams the original.
func (c *Client) StreamURL(videoID string, quality Quality) string {
	u := c.baseURL + "/stream/" + url.PathEscape(videoID)
	if quality != "" && quality != QualityAuto {
		u += "?quality=" + url.QueryEscape(string(quality))
	}
	return u
}

// UploadURL returns the multipart upload endpoint.
func (c *Client) UploadURL() string {
	return c.baseURL + "/api/upload"
}

// ListVideos fetches the video index.
func (c *Client) ListVideos(ctx context.Context) ([]Video, error) {
	var resp videosResponse
	if err := c.getJSON(ctx, "/api/videos", &resp); err != nil {
		return nil, err
	}
	return resp.Videos, nil
}

// StreamStats fetches live stats for one video.
func (c *Client) StreamStats(ctx context.Context, videoID string) (*StreamStats, error) {
	var stats StreamStats
	path := "/api/stream/" + url.PathEscape(videoID) + "/stats"
	if err := c.getJSON(ctx, path, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health checks backend reachability.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer drain(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer drain(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode response: %w", path, err)
	}
	return nil
}

// drain reads the remaining body so the connection can be reused.
func drain(body io.ReadCloser) {
	io.Copy(io.Discard, io.LimitReader(body, 1<<16))
	body.Close()
}
