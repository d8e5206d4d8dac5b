package update

import (
	"os"
	"path/filepath"
	"time"
)

// retention is how long superseded release trees stay on disk so that
// invocations still executing out of them are never evicted mid-run.
const retention = 24 * time.Hour

// Tidy removes expired release trees under the client root. The bin link
// directory and the tree for currentVersion are always retained; every
// other entry is removed once its newest mtime is older than the retention
// window. Errors are logged and skipped: retention is housekeeping, not
// correctness.
func (u *Updater) Tidy(currentVersion string) {
	clientRoot := u.paths.ClientRoot()
	entries, err := os.ReadDir(clientRoot)
	if err != nil {
		u.logger.Debug("tidy: cannot read client root", "err", err)
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == "bin" || name == "client" || name == currentVersion {
			continue
		}
		path := filepath.Join(clientRoot, name)
		mtime, err := newestMtime(path)
		if err != nil {
			u.logger.Warn("tidy: cannot stat", "path", path, "err", err)
			continue
		}
		if time.Since(mtime) <= retention {
			continue
		}
		u.logger.Debug("tidy: removing expired tree", "path", path)
		if err := os.RemoveAll(path); err != nil {
			u.logger.Warn("tidy: remove failed", "path", path, "err", err)
		}
	}
}

// newestMtime returns the newest modification time under path. For a plain
// file that is its own mtime; for a directory, the newest mtime of any file
// inside it, so a tree with any recently modified entry is kept. Reading
// or executing files does not change their mtime.
func newestMtime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	newest := info.ModTime()
	if !info.IsDir() {
		return newest, nil
	}
	err = filepath.Walk(path, func(_ string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.ModTime().After(newest) {
			newest = fi.ModTime()
		}
		return nil
	})
	return newest, err
}

// cleanTmp removes temp entries older than the retention window from the
// cache and data dirs.
func (u *Updater) cleanTmp() {
	for _, base := range []string{u.cfg.DataDir, u.cfg.CacheDir} {
		dir := filepath.Join(base, "tmp")
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if time.Since(info.ModTime()) > retention {
				path := filepath.Join(dir, entry.Name())
				u.logger.Debug("removing old tmp", "path", path)
				if err := os.RemoveAll(path); err != nil {
					u.logger.Warn("tmp cleanup failed", "path", path, "err", err)
				}
			}
		}
	}
}
