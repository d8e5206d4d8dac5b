// Package channel speaks the release-bucket protocol: per-channel manifests,
// version documents, and build archives.
package channel

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Version is the lightweight "what is current" document for a channel.
type Version struct {
	Version string `json:"version"`
	Channel string `json:"channel"`
	Message string `json:"message,omitempty"`
}

// Build describes one downloadable archive inside a Manifest.
type Build struct {
	URL    string `json:"url"`
	Sha256 string `json:"sha256"`
	Bytes  int64  `json:"bytes"`
}

// Manifest describes one release for one channel.
type Manifest struct {
	ReleasedAt string            `json:"released_at,omitempty"`
	Version    string            `json:"version"`
	Channel    string            `json:"channel"`
	Sha256gz   string            `json:"sha256gz"`
	Priority   *float64          `json:"priority,omitempty"`
	Builds     map[string]*Build `json:"builds,omitempty"`
}

// InvalidChannelError reports a 403 from the bucket, which means the channel
// does not exist.
type InvalidChannelError struct {
	Channel string
}

func (e *InvalidChannelError) Error() string {
	return fmt.Sprintf("HTTP 403: Invalid channel %s", e.Channel)
}

// HTTPError reports any other non-2xx response.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func decodeJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
