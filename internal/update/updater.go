// Package update orchestrates self-update: version decisions, archive
// download and swap, retention, and background autoupdate.
package update

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blang/semver"
	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/scottdixon/cli-engine/internal/channel"
	"github.com/scottdixon/cli-engine/internal/config"
	"github.com/scottdixon/cli-engine/internal/errlog"
	"github.com/scottdixon/cli-engine/internal/extract"
	"github.com/scottdixon/cli-engine/internal/lock"
	"github.com/scottdixon/cli-engine/internal/paths"
)

// Updater replaces the installed client tree with a newer release.
type Updater struct {
	cfg    *config.Config
	paths  *paths.Paths
	client *channel.Client
	logger *log.Logger
	out    io.Writer

	// rand is the priority-sampling source, injectable for tests.
	rand func() float64

	binPathOnce sync.Once
	binPath     string
}

// New creates an Updater.
func New(cfg *config.Config, p *paths.Paths, client *channel.Client, logger *log.Logger, out io.Writer) *Updater {
	return &Updater{
		cfg:    cfg,
		paths:  p,
		client: client,
		logger: logger,
		out:    out,
		rand:   rand.Float64,
	}
}

// Options control one update run.
type Options struct {
	Channel    string // target channel, defaults to the config channel
	Autoupdate bool   // true when running as the spawned background updater
}

// Run performs the full update flow for opts. The writer lock on the update
// lockfile is held from before the manifest fetch until the client tree and
// bin link are consistent, so concurrent invocations never observe a torn
// tree.
func (u *Updater) Run(opts Options) error {
	ch := opts.Channel
	if ch == "" {
		ch = u.cfg.Channel
	}

	release, err := lock.WriterAcquire(u.paths.Updatelockfile())
	if err != nil {
		return fmt.Errorf("acquiring update lock: %w", err)
	}
	defer release()

	m, err := u.client.FetchManifest(ch)
	if err != nil {
		return err
	}

	if m.Version == u.cfg.Version && ch == u.cfg.Channel {
		fmt.Fprintf(u.out, "already on latest version: %s\n", u.cfg.Version)
		return nil
	}
	if !u.ShouldUpdate(m, opts.Autoupdate) {
		u.logger.Info("update skipped by priority sampling", "version", m.Version, "priority", *m.Priority)
		return nil
	}

	if err := u.swap(ch, m); err != nil {
		return err
	}
	release()

	u.Tidy(m.Version)
	if err := errlog.Truncate(u.paths.Errlog(), 1000); err != nil {
		u.logger.Warn("could not truncate error log", "err", err)
	}
	u.cleanTmp()
	return nil
}

// swap downloads, verifies, extracts, and links one release. Caller holds
// the writer lock.
func (u *Updater) swap(ch string, m *channel.Manifest) error {
	base := fmt.Sprintf("%s-v%s-%s", u.cfg.Name, m.Version, u.cfg.PlatformArch())
	clientRoot := u.paths.ClientRoot()
	versionDir := filepath.Join(clientRoot, m.Version)
	partial := filepath.Join(clientRoot, ".partial")

	if err := os.MkdirAll(clientRoot, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", clientRoot, err)
	}
	// A stale tree for the same version would make the final rename fail.
	if err := os.RemoveAll(versionDir); err != nil {
		return fmt.Errorf("removing stale %s: %w", versionDir, err)
	}
	_ = os.RemoveAll(partial)

	msg := fmt.Sprintf("%s: Updating to %s...", u.cfg.Bin, m.Version)
	if m.Channel != "stable" {
		msg = fmt.Sprintf("%s (%s)", msg, m.Channel)
	}
	fmt.Fprintln(u.out, msg)

	body, length, err := u.client.StreamBuild(ch, base)
	if err != nil {
		return err
	}
	defer body.Close()

	reader := u.progressReader(body, length)
	if err := extract.Extract(reader, partial, m.Sha256gz); err != nil {
		return err
	}
	if err := os.Rename(filepath.Join(partial, base), versionDir); err != nil {
		_ = os.RemoveAll(partial)
		return fmt.Errorf("installing %s: %w", versionDir, err)
	}
	_ = os.RemoveAll(partial)

	if err := u.linkClientBin(m.Version); err != nil {
		return err
	}
	u.logger.Debug("updated", "version", m.Version, "channel", m.Channel)
	return nil
}

// progressReader wraps body in a progress bar when the output is a
// terminal. Updates are throttled so the bar redraws at most twice per
// second.
func (u *Updater) progressReader(body io.Reader, length int64) io.Reader {
	f, ok := u.out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return body
	}
	bar := progressbar.NewOptions64(length,
		progressbar.OptionSetWriter(f),
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(500*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return io.TeeReader(body, bar)
}

// linkClientBin points the stable bin path at version's binary. POSIX gets
// a relative symlink; Windows gets a .cmd shim because symlink creation
// needs privileges there.
func (u *Updater) linkClientBin(version string) error {
	clientBin := u.paths.ClientBin()
	if err := os.MkdirAll(filepath.Dir(clientBin), 0o755); err != nil {
		return err
	}
	if err := os.RemoveAll(clientBin); err != nil {
		return err
	}
	if u.cfg.Windows {
		shim := fmt.Sprintf("@echo off\r\n\"%%~dp0..\\%s\\bin\\%s.exe\" %%*\r\n", version, u.cfg.Bin)
		return os.WriteFile(clientBin, []byte(shim), 0o755)
	}
	target := filepath.Join("..", version, "bin", u.cfg.Bin)
	return os.Symlink(target, clientBin)
}

// ShouldUpdate decides whether a fetched manifest should be applied. Manual
// updates always proceed. Autoupdates sample the manifest's rollout
// priority: a uniform draw below the priority skips this cycle, which
// spreads a release across the fleet instead of updating everyone at once.
func (u *Updater) ShouldUpdate(m *channel.Manifest, autoupdate bool) bool {
	if !autoupdate || m.Priority == nil {
		return true
	}
	r := u.rand() * 100
	return r >= *m.Priority
}

// WarnIfUpdateAvailable emits a warning when the remote channel carries a
// newer minor release, and prints the channel message verbatim when one is
// set. All errors are swallowed: this runs on every invocation and must
// never break the user's command.
func (u *Updater) WarnIfUpdateAvailable() {
	v, err := u.client.FetchVersion(u.cfg.Channel, false)
	if err != nil {
		u.logger.Debug("version check failed", "err", err)
		return
	}
	if minorVersionGreater(u.cfg.Version, v.Version) {
		u.logger.Warn(fmt.Sprintf("%s: update available from %s to %s", u.cfg.Bin, u.cfg.Version, v.Version))
	}
	if v.Message != "" && os.Getenv("CLI_ENGINE_HIDE_UPDATED_MESSAGE") == "" {
		u.logger.Warn(v.Message)
	}
}

// minorVersionGreater reports whether remote has the same major version as
// current and a strictly greater minor version.
func minorVersionGreater(current, remote string) bool {
	cur, err := semver.Parse(current)
	if err != nil {
		return false
	}
	rem, err := semver.Parse(remote)
	if err != nil {
		return false
	}
	return cur.Major == rem.Major && rem.Minor > cur.Minor
}

// BinPath resolves the binary future invocations (and the spawned
// autoupdater) should run: the client bin link when self-update is active
// and present, else the CLI_BINPATH override, else the bare binary name on
// PATH. The result is cached for the process lifetime.
func (u *Updater) BinPath() string {
	u.binPathOnce.Do(func() {
		if u.cfg.UpdateDisabled == "" {
			clientBin := u.paths.ClientBin()
			if _, err := os.Stat(clientBin); err == nil {
				u.binPath = clientBin
				return
			}
		}
		if env := os.Getenv("CLI_BINPATH"); env != "" {
			u.binPath = env
			return
		}
		u.binPath = u.cfg.Bin
	})
	return u.binPath
}
