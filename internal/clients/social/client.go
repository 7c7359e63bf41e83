// Package social posts to social networks through the Ayrshare API.
package social

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

	"github.com/rs/zerolog"
)

// ErrEmptyPost is returned when a post has no text.
var ErrEmptyPost = errors.New("no text provided for social post")

// simulatedKey forces simulated mode even when a key is present.
const simulatedKey = "TEST"

// DefaultPlatforms are used when a request names none.
var DefaultPlatforms = []string{"linkedin", "twitter"}

// PostRequest is one post to publish.
type PostRequest struct {
	Text         string
	Platforms    []string
	MediaURLs    []string
	ScheduleDate string
}

// PostResponse is the Ayrshare response, or a synthesized one in simulated mode.
type PostResponse struct {
	Success      bool            `json:"success"`
	Simulated    bool            `json:"simulated,omitempty"`
	ID           string          `json:"id"`
	Status       string          `json:"status,omitempty"`
	Platforms    []string        `json:"platforms,omitempty"`
	Post         string          `json:"post,omitempty"`
	MediaURLs    []string        `json:"mediaUrls,omitempty"`
	ScheduleDate string          `json:"scheduleDate,omitempty"`
	CreatedAt    string          `json:"created_at,omitempty"`
	Raw          json.RawMessage `json:"-"`
}

type postPayload struct {
	Post         string   `json:"post"`
	Platforms    []string `json:"platforms"`
	MediaURLs    []string `json:"mediaUrls,omitempty"`
	ScheduleDate string   `json:"scheduleDate,omitempty"`
}

// Client is the Ayrshare client.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
	log        zerolog.Logger
}

// NewClient creates a new Ayrshare client. An empty or "TEST" key makes every
// post a simulated success.
func NewClient(apiURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
		log:        log.With().Str("client", "ayrshare").Logger(),
	}
	if c.Simulated() {
		c.log.Warn().Msg("Ayrshare API key not set, posts will be simulated")
	}
	return c
}

// Simulated reports whether posts are synthesized locally.
func (c *Client) Simulated() bool {
	return c.apiKey == "" || c.apiKey == simulatedKey
}

// Post publishes req.Text to req.Platforms.
func (c *Client) Post(ctx context.Context, req PostRequest) (*PostResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyPost
	}
	platforms := req.Platforms
	if len(platforms) == 0 {
		platforms = DefaultPlatforms
	}

	if c.Simulated() {
		now := c.now()
		resp := &PostResponse{
			Success:      true,
			Simulated:    true,
			ID:           fmt.Sprintf("SIMULATED-%d", now.UnixMilli()),
			Platforms:    platforms,
			Post:         req.Text,
			MediaURLs:    req.MediaURLs,
			ScheduleDate: req.ScheduleDate,
			CreatedAt:    now.UTC().Format(time.RFC3339),
		}
		resp.Raw, _ = json.Marshal(resp)
		c.log.Info().Str("id", resp.ID).Strs("platforms", platforms).Msg("Simulated post")
		return resp, nil
	}

	body, err := json.Marshal(postPayload{
		Post:         req.Text,
		Platforms:    platforms,
		MediaURLs:    req.MediaURLs,
		ScheduleDate: req.ScheduleDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.log.Debug().Strs("platforms", platforms).Msg("Posting")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ayrshare post failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ayrshare response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ayrshare post failed: status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed PostResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse ayrshare response: %w", err)
	}
	parsed.Raw = raw
	if parsed.Status == "success" {
		parsed.Success = true
	}
	if !parsed.Success {
		return nil, fmt.Errorf("ayrshare post failed: %s", string(raw))
	}

	c.log.Info().Str("id", parsed.ID).Str("status", parsed.Status).Msg("Post published")
	return &parsed, nil
}
