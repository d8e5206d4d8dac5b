package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/scottdixon/cli-engine/internal/command"
	"github.com/scottdixon/cli-engine/internal/config"
	"github.com/scottdixon/cli-engine/internal/help"
	"github.com/scottdixon/cli-engine/internal/paths"
	"github.com/scottdixon/cli-engine/internal/plugin"
)

type dispatchFixture struct {
	d      *Dispatcher
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	ran    *[]string
}

func newFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	cfg := &config.Config{
		Bin:            "cli-engine",
		Name:           "cli-engine",
		CacheDir:       t.TempDir(),
		DataDir:        t.TempDir(),
		DefaultCommand: "dashboard",
		Aliases: map[string][]string{
			"plugins:uninstall": {"plugins:unlink"},
		},
	}
	p := paths.New(cfg)
	logger := log.New(io.Discard)
	manager := plugin.NewManager(cfg, p, nil, logger)

	var ran []string
	run := func(id string) command.RunFunc {
		return func(ctx *command.Context) error {
			ran = append(ran, id+" "+strings.Join(ctx.Argv, " "))
			return nil
		}
	}
	pluginsTopic := command.NewTopic("plugins")
	pluginsTopic.Description = "manage plugins"
	manager.SetBuiltin(
		[]*command.Topic{pluginsTopic},
		[]*command.Command{
			{ID: "dashboard", Description: "default command", Run: run("dashboard")},
			{ID: "version", Description: "print version", Run: run("version")},
			{ID: "plugins:install", Description: "install a plugin", Run: run("plugins:install")},
			{ID: "plugins:uninstall", Description: "uninstall a plugin", Run: run("plugins:uninstall")},
			{ID: "boom", Description: "always fails", Run: func(*command.Context) error {
				return errors.New("kaboom")
			}},
		},
	)
	if err := manager.Init(); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	helpR := help.New(cfg, manager, &stdout)
	d := New(cfg, manager, helpR, logger, filepath.Join(cfg.CacheDir, "error.log"), &stdout, &stderr)
	return &dispatchFixture{d: d, stdout: &stdout, stderr: &stderr, ran: &ran}
}

func TestDispatchRunsCommand(t *testing.T) {
	f := newFixture(t)

	code := f.d.Dispatch(context.Background(), []string{"version"})
	if code != ExitOK {
		t.Errorf("exit = %d, want %d", code, ExitOK)
	}
	if want := []string{"version "}; !reflect.DeepEqual(*f.ran, want) {
		t.Errorf("ran = %v, want %v", *f.ran, want)
	}
}

func TestDispatchPassesArgv(t *testing.T) {
	f := newFixture(t)

	f.d.Dispatch(context.Background(), []string{"plugins:install", "my-plugin@1.0.0"})
	if want := []string{"plugins:install my-plugin@1.0.0"}; !reflect.DeepEqual(*f.ran, want) {
		t.Errorf("ran = %v, want %v", *f.ran, want)
	}
}

func TestDispatchDefaultCommand(t *testing.T) {
	f := newFixture(t)

	code := f.d.Dispatch(context.Background(), nil)
	if code != ExitOK {
		t.Errorf("exit = %d, want %d", code, ExitOK)
	}
	if len(*f.ran) != 1 || !strings.HasPrefix((*f.ran)[0], "dashboard") {
		t.Errorf("ran = %v, want the default command", *f.ran)
	}
}

func TestDispatchAlias(t *testing.T) {
	f := newFixture(t)

	code := f.d.Dispatch(context.Background(), []string{"plugins:unlink", "x"})
	if code != ExitOK {
		t.Errorf("exit = %d, want %d", code, ExitOK)
	}
	if want := []string{"plugins:uninstall x"}; !reflect.DeepEqual(*f.ran, want) {
		t.Errorf("ran = %v, want %v", *f.ran, want)
	}
}

func TestDispatchHelpFlagBeatsCommand(t *testing.T) {
	f := newFixture(t)

	code := f.d.Dispatch(context.Background(), []string{"version", "--help"})
	if code != ExitOK {
		t.Errorf("exit = %d, want %d", code, ExitOK)
	}
	if len(*f.ran) != 0 {
		t.Errorf("command ran although help was requested: %v", *f.ran)
	}
	if !strings.Contains(f.stdout.String(), "version") {
		t.Errorf("help output = %q", f.stdout.String())
	}
}

func TestDispatchHelpFlagAfterTerminator(t *testing.T) {
	f := newFixture(t)

	code := f.d.Dispatch(context.Background(), []string{"version", "--", "--help"})
	if code != ExitOK {
		t.Errorf("exit = %d, want %d", code, ExitOK)
	}
	if len(*f.ran) != 1 {
		t.Errorf("command should run when --help sits after --, ran = %v", *f.ran)
	}
}

func TestDispatchTopicHelp(t *testing.T) {
	f := newFixture(t)

	code := f.d.Dispatch(context.Background(), []string{"plugins"})
	if code != ExitOK {
		t.Errorf("exit = %d, want %d", code, ExitOK)
	}
	out := f.stdout.String()
	if !strings.Contains(out, "plugins:install") {
		t.Errorf("topic help missing commands:\n%s", out)
	}
}

func TestDispatchNotFound(t *testing.T) {
	f := newFixture(t)

	code := f.d.Dispatch(context.Background(), []string{"verison"})
	if code != ExitNotFound {
		t.Errorf("exit = %d, want %d", code, ExitNotFound)
	}
	errOut := f.stderr.String()
	if !strings.Contains(errOut, "is not a cli-engine command") {
		t.Errorf("stderr = %q", errOut)
	}
	if !strings.Contains(errOut, "version") {
		t.Errorf("stderr missing suggestion:\n%s", errOut)
	}
}

func TestDispatchCommandError(t *testing.T) {
	f := newFixture(t)

	code := f.d.Dispatch(context.Background(), []string{"boom"})
	if code != ExitError {
		t.Errorf("exit = %d, want %d", code, ExitError)
	}
	if !strings.Contains(f.stderr.String(), "kaboom") {
		t.Errorf("stderr = %q", f.stderr.String())
	}
}

func TestSuggestions(t *testing.T) {
	ids := []string{"version", "update", "plugins", "plugins:install", "help"}

	tests := []struct {
		in   string
		want []string
	}{
		{"verison", []string{"version"}},
		{"updaet", []string{"update"}},
		{"zzzzzzzz", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Suggestions(ids, tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Suggestions(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSuggestionsCapped(t *testing.T) {
	ids := []string{"aaa", "aab", "aac", "aad", "aae"}

	got := Suggestions(ids, "aa")
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
	if !reflect.DeepEqual(got, []string{"aaa", "aab", "aac"}) {
		t.Errorf("got = %v, want closest three lexicographically", got)
	}
}
