package channel

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/scottdixon/cli-engine/internal/config"
	"github.com/scottdixon/cli-engine/internal/paths"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *config.Config) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Bin:      "cli-engine",
		Name:     "cli-engine",
		Version:  "1.2.3",
		Channel:  "stable",
		Platform: "linux",
		Arch:     "amd64",
		S3Host:   srv.URL,
		CacheDir: t.TempDir(),
		DataDir:  t.TempDir(),
	}
	logger := log.New(io.Discard)
	return NewClient(cfg, paths.New(cfg), logger), cfg
}

func TestFetchManifest(t *testing.T) {
	var gotUA, gotPath string
	client, cfg := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(Manifest{Version: "1.3.0", Channel: "stable", Sha256gz: "abc"})
	}))

	m, err := client.FetchManifest("stable")
	if err != nil {
		t.Fatalf("FetchManifest() error = %v", err)
	}
	if m.Version != "1.3.0" {
		t.Errorf("Version = %s, want 1.3.0", m.Version)
	}
	if gotUA != cfg.UserAgent() {
		t.Errorf("User-Agent = %q, want %q", gotUA, cfg.UserAgent())
	}
	if want := "/cli-engine/channels/stable/linux-amd64"; gotPath != want {
		t.Errorf("path = %s, want %s", gotPath, want)
	}
}

func TestFetchManifestInvalidChannel(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := client.FetchManifest("foo")
	if err == nil {
		t.Fatal("expected error")
	}
	if got, want := err.Error(), "HTTP 403: Invalid channel foo"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestFetchManifestHTTPError(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.FetchManifest("stable")
	if err == nil {
		t.Fatal("expected error")
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("error type = %T, want *HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", httpErr.StatusCode)
	}
}

func TestFetchVersionWritesCache(t *testing.T) {
	calls := 0
	client, cfg := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		io.WriteString(w, `{"version":"1.4.0","channel":"stable","extra":"kept"}`)
	}))

	v, err := client.FetchVersion("stable", false)
	if err != nil {
		t.Fatalf("FetchVersion() error = %v", err)
	}
	if v.Version != "1.4.0" {
		t.Errorf("Version = %s, want 1.4.0", v.Version)
	}

	// Second fetch is served from the cache.
	if _, err := client.FetchVersion("stable", false); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("remote calls = %d, want 1", calls)
	}

	// The raw body, unknown fields included, landed in the cache file.
	data, err := os.ReadFile(paths.New(cfg).VersionFile("stable"))
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["extra"] != "kept" {
		t.Errorf("unknown field dropped from cache: %v", raw)
	}
}

func TestFetchVersionForceBypassesCache(t *testing.T) {
	calls := 0
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(Version{Version: "1.4.0", Channel: "stable"})
	}))

	if _, err := client.FetchVersion("stable", false); err != nil {
		t.Fatal(err)
	}
	if _, err := client.FetchVersion("stable", true); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("remote calls = %d, want 2", calls)
	}
}

func TestFetchVersionCacheRoundTrip(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Version{Version: "2.0.0", Channel: "beta", Message: "big release"})
	}))

	first, err := client.FetchVersion("beta", true)
	if err != nil {
		t.Fatal(err)
	}
	second, err := client.FetchVersion("beta", false)
	if err != nil {
		t.Fatal(err)
	}
	if *first != *second {
		t.Errorf("cache round trip mismatch: %+v != %+v", first, second)
	}
}

func TestStreamBuild(t *testing.T) {
	payload := []byte("archive-bytes")
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want := "/cli-engine/channels/stable/cli-engine-v1.3.0-linux-amd64.tar.gz"; r.URL.Path != want {
			t.Errorf("path = %s, want %s", r.URL.Path, want)
		}
		w.Write(payload)
	}))

	body, length, err := client.StreamBuild("stable", "cli-engine-v1.3.0-linux-amd64")
	if err != nil {
		t.Fatalf("StreamBuild() error = %v", err)
	}
	defer body.Close()

	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(payload) {
		t.Errorf("body = %q, want %q", got, payload)
	}
	if length != int64(len(payload)) {
		t.Errorf("length = %d, want %d", length, len(payload))
	}
}
