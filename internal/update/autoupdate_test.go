package update

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/scottdixon/cli-engine/internal/channel"
	"github.com/scottdixon/cli-engine/internal/config"
	"github.com/scottdixon/cli-engine/internal/paths"
)

func testAutoupdater(t *testing.T) (*Autoupdater, *config.Config) {
	t.Helper()
	cfg := testConfig(t)
	// Unroutable host: the warn-if-available probe fails fast and is
	// swallowed, which is exactly the autoupdate error policy.
	cfg.S3Host = "http://127.0.0.1:0"
	logger := log.New(io.Discard)
	p := paths.New(cfg)
	u := New(cfg, p, channel.NewClient(cfg, p, logger), logger, io.Discard)
	return NewAutoupdater(cfg, p, u, logger), cfg
}

func touchMarker(t *testing.T, a *Autoupdater, age time.Duration) {
	t.Helper()
	if err := a.Touch(); err != nil {
		t.Fatal(err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(a.paths.Autoupdatefile(), stamp, stamp); err != nil {
		t.Fatal(err)
	}
}

func TestNeeded(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"fresh marker", 0, false},
		{"just inside window", 5*time.Hour - time.Minute, false},
		{"just past window", 5*time.Hour + time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := testAutoupdater(t)
			touchMarker(t, a, tt.age)
			if got := a.Needed(); got != tt.want {
				t.Errorf("Needed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNeededMissingMarker(t *testing.T) {
	a, _ := testAutoupdater(t)
	if !a.Needed() {
		t.Error("Needed() = false with no marker, want true")
	}
}

func TestTouchAdvancesMtime(t *testing.T) {
	a, _ := testAutoupdater(t)
	touchMarker(t, a, 6*time.Hour)
	if !a.Needed() {
		t.Fatal("stale marker should need an update")
	}

	if err := a.Touch(); err != nil {
		t.Fatal(err)
	}
	if a.Needed() {
		t.Error("Needed() = true immediately after Touch")
	}
}

func TestDebounceWaitsOutWindow(t *testing.T) {
	a, _ := testAutoupdater(t)
	touchMarker(t, a, 30*time.Minute)

	sleeps := 0
	now := time.Now()
	a.now = func() time.Time { return now }
	a.sleep = func(d time.Duration) {
		sleeps++
		// Advance the fake clock instead of sleeping.
		now = now.Add(d)
	}

	a.Debounce()

	// 30 minutes remain in the window; at one minute per poll that is at
	// least 30 sleeps.
	if sleeps < 30 {
		t.Errorf("sleeps = %d, want >= 30", sleeps)
	}
}

func TestDebounceExpiredWindow(t *testing.T) {
	a, _ := testAutoupdater(t)
	touchMarker(t, a, 2*time.Hour)

	a.sleep = func(time.Duration) {
		t.Fatal("Debounce slept although the window had passed")
	}
	a.Debounce()
}

func TestDebounceMissingMarker(t *testing.T) {
	a, _ := testAutoupdater(t)
	a.sleep = func(time.Duration) {
		t.Fatal("Debounce slept although no marker exists")
	}
	a.Debounce()
}

func TestRunDisabled(t *testing.T) {
	a, cfg := testAutoupdater(t)
	cfg.UpdateDisabled = "disabled for test"

	a.Run(true)

	if _, err := os.Stat(a.paths.Autoupdatefile()); !os.IsNotExist(err) {
		t.Error("marker touched although updates are disabled")
	}
}
