package channel

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dghubble/sling"

	"github.com/scottdixon/cli-engine/internal/config"
	"github.com/scottdixon/cli-engine/internal/paths"
)

// Client fetches manifests, version documents, and build archives for one
// product from the release bucket.
type Client struct {
	cfg    *config.Config
	paths  *paths.Paths
	base   *sling.Sling
	http   *http.Client
	logger *log.Logger

	// retried guards the one-shot manifest retry on transport error.
	retried bool
}

// NewClient creates a Client for cfg. Every request carries the config's
// user agent.
func NewClient(cfg *config.Config, p *paths.Paths, logger *log.Logger) *Client {
	httpClient := newHTTPClient()
	return &Client{
		cfg:   cfg,
		paths: p,
		base: sling.New().
			Client(httpClient).
			Base(cfg.S3Host+"/").
			Set("User-Agent", cfg.UserAgent()),
		http:   httpClient,
		logger: logger,
	}
}

func (c *Client) channelPath(channel, file string) string {
	return fmt.Sprintf("%s/channels/%s/%s", c.cfg.Name, channel, file)
}

// get performs one GET and returns the raw body. Non-2xx responses map to
// InvalidChannelError (403) or HTTPError.
func (c *Client) get(channel, file string) ([]byte, error) {
	req, err := c.base.New().Get(c.channelPath(channel, file)).Request()
	if err != nil {
		return nil, err
	}
	rsp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()
	if rsp.StatusCode == http.StatusForbidden {
		return nil, &InvalidChannelError{Channel: channel}
	}
	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: rsp.StatusCode, URL: req.URL.String()}
	}
	return io.ReadAll(rsp.Body)
}

// FetchManifest loads the release manifest for channel and this platform.
// A transport error is retried once per process; HTTP-level errors are not.
func (c *Client) FetchManifest(channel string) (*Manifest, error) {
	body, err := c.get(channel, c.cfg.PlatformArch())
	if err != nil {
		var invalid *InvalidChannelError
		var httpErr *HTTPError
		if !errors.As(err, &invalid) && !errors.As(err, &httpErr) && !c.retried {
			c.retried = true
			c.logger.Debug("manifest fetch failed, retrying once", "err", err)
			return c.FetchManifest(channel)
		}
		return nil, err
	}
	var m Manifest
	if err := decodeJSON(body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// FetchVersion returns the current Version for channel. Unless force is
// set, the cached copy at versionFile(channel) is preferred; on a cache
// miss the document is fetched remotely and the raw body is written back
// best-effort, which keeps any fields this build does not know about.
func (c *Client) FetchVersion(channel string, force bool) (*Version, error) {
	cachePath := c.paths.VersionFile(channel)
	if !force {
		if v, err := readVersionCache(cachePath); err == nil {
			return v, nil
		} else if errors.Is(err, fs.ErrPermission) {
			return nil, err
		}
	}

	body, err := c.get(channel, "version")
	if err != nil {
		return nil, err
	}
	var v Version
	if err := decodeJSON(body, &v); err != nil {
		return nil, err
	}
	if err := writeVersionCache(cachePath, body); err != nil {
		c.logger.Debug("could not write version cache", "path", cachePath, "err", err)
	}
	return &v, nil
}

// StreamBuild opens the gzipped tarball for the manifest's version and
// returns its body plus the declared content length for progress display.
// The caller owns the returned ReadCloser.
func (c *Client) StreamBuild(channel string, base string) (io.ReadCloser, int64, error) {
	req, err := c.base.New().Get(c.channelPath(channel, base+".tar.gz")).Request()
	if err != nil {
		return nil, 0, err
	}
	rsp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		rsp.Body.Close()
		return nil, 0, &HTTPError{StatusCode: rsp.StatusCode, URL: req.URL.String()}
	}
	return rsp.Body, rsp.ContentLength, nil
}

func readVersionCache(path string) (*Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v Version
	if err := decodeJSON(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func writeVersionCache(path string, raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
