// Package errlog manages the append-only error log consulted by
// debug:errlog and rotated at update time.
package errlog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Append writes one timestamped line to the log at path, creating parent
// directories as needed. Append failures are returned but callers treat
// them as best-effort.
func Append(path string, message string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s %s\n", time.Now().Format(time.RFC3339), message)
	return err
}

// Truncate rewrites the log to keep only the last max lines. A missing log
// is a no-op.
func Truncate(path string, max int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) <= max {
		return nil
	}
	kept := lines[len(lines)-max:]
	return os.WriteFile(path, []byte(strings.Join(kept, "\n")+"\n"), 0o644)
}

// Stream copies the log at path to w. A missing log streams nothing.
func Stream(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()
	_, err = io.CopyBuffer(w, f, make([]byte, 1024))
	return err
}
