package update

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/scottdixon/cli-engine/internal/config"
	"github.com/scottdixon/cli-engine/internal/lock"
	"github.com/scottdixon/cli-engine/internal/paths"
)

const (
	// checkInterval is how often an invocation attempts an autoupdate.
	checkInterval = 5 * time.Hour
	// debounceWindow is the minimum spacing between background update
	// attempts across concurrent invocations.
	debounceWindow = time.Hour
	// debouncePoll is how long the spawned updater sleeps between
	// re-checks of the debounce window.
	debouncePoll = time.Minute
)

// Autoupdater decides when to check for updates and spawns a detached
// background updater.
type Autoupdater struct {
	cfg     *config.Config
	paths   *paths.Paths
	updater *Updater
	logger  *log.Logger

	// now and sleep are injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewAutoupdater creates an Autoupdater.
func NewAutoupdater(cfg *config.Config, p *paths.Paths, updater *Updater, logger *log.Logger) *Autoupdater {
	return &Autoupdater{
		cfg:     cfg,
		paths:   p,
		updater: updater,
		logger:  logger,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// Needed reports whether the last autoupdate attempt is old enough to try
// again. A missing marker means an attempt has never been made; any other
// stat error is treated the same way, with a log line.
func (a *Autoupdater) Needed() bool {
	info, err := os.Stat(a.paths.Autoupdatefile())
	if err != nil {
		if !os.IsNotExist(err) {
			a.logger.Warn("cannot stat autoupdate marker", "err", err)
		}
		return true
	}
	return a.now().Sub(info.ModTime()) > checkInterval
}

// Run checks for updates and, when due, spawns a detached `update
// --autoupdate` process. Everything here is best-effort: a failed
// background check must never fail the user's foreground command.
func (a *Autoupdater) Run(force bool) {
	a.updater.WarnIfUpdateAvailable()

	if a.cfg.UpdateDisabled != "" {
		return
	}
	if !force && !a.Needed() {
		return
	}
	if hasWriter, _ := lock.HasWriter(a.paths.Updatelockfile()); hasWriter {
		a.logger.Debug("update already in progress, skipping autoupdate")
		return
	}

	// Touch the marker before spawning so parallel invocations observe the
	// fresh mtime and skip.
	if err := a.Touch(); err != nil {
		a.logger.Warn("cannot touch autoupdate marker", "err", err)
		return
	}

	binPath := a.updater.BinPath()
	if binPath == "" {
		return
	}

	logf, err := a.openLog()
	if err != nil {
		a.logger.Warn("cannot open autoupdate log", "err", err)
		return
	}
	defer logf.Close()
	fmt.Fprintf(logf, "# %s spawning autoupdate: %s update --autoupdate\n", a.now().Format(time.RFC3339), binPath)

	cmd := a.spawnCommand(binPath, logf)
	prefix := a.cfg.EnvPrefix()
	cmd.Env = append(os.Environ(),
		prefix+"_TIMESTAMPS=1",
		prefix+"_SKIP_ANALYTICS=1",
	)
	if err := cmd.Start(); err != nil {
		a.logger.Warn("autoupdate spawn failed", "err", err)
		return
	}
	// Let the child outlive us.
	_ = cmd.Process.Release()
}

// Touch writes the autoupdate marker, advancing its mtime to now.
func (a *Autoupdater) Touch() error {
	path := a.paths.Autoupdatefile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

// Debounce blocks inside `update --autoupdate` until the debounce window
// since the previous attempt has passed, re-checking the marker's mtime
// once per poll interval. A missing marker returns at once. Every spawned
// updater waits on the same marker; the update runs that follow are
// serialized by the update lock, not collapsed into one.
func (a *Autoupdater) Debounce() {
	for {
		info, err := os.Stat(a.paths.Autoupdatefile())
		if err != nil {
			return
		}
		remaining := debounceWindow - a.now().Sub(info.ModTime())
		if remaining <= 0 {
			return
		}
		a.logger.Debug("debouncing autoupdate", "remaining", remaining)
		a.sleep(debouncePoll)
	}
}

func (a *Autoupdater) openLog() (*os.File, error) {
	path := a.paths.Autoupdatelogfile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}
