package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iw2rmb/vistex/registry"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFormats(t *testing.T) {
	dir := t.TempDir()
	for _, tc := range []struct {
		name string
		body string
	}{
		{"vistex.yaml", "indent: \"  \"\nlog_level: debug\ncommands:\n  - name: foo\n    args: 1\n    visibility: replace\n    template: \"F#1\"\n"},
		{"vistex.toml", "indent = \"  \"\nlog_level = \"debug\"\n\n[[commands]]\nname = \"foo\"\nargs = 1\nvisibility = \"replace\"\ntemplate = \"F#1\"\n"},
		{"vistex.jsonc", "{\n  // two spaces\n  \"indent\": \"  \",\n  \"log_level\": \"debug\",\n  \"commands\": [{\"name\": \"foo\", \"args\": 1, \"visibility\": \"replace\", \"template\": \"F#1\",}],\n}\n"},
	} {
		cfg, err := Load(write(t, dir, tc.name, tc.body))
		if err != nil {
			t.Fatalf("%s: Load: %v", tc.name, err)
		}
		if got, want := cfg.Indent, "  "; got != want {
			t.Fatalf("%s: indent: got %q, want %q", tc.name, got, want)
		}
		if got, want := cfg.Level(), slog.LevelDebug; got != want {
			t.Fatalf("%s: level: got %v, want %v", tc.name, got, want)
		}
		if got, want := cfg.BackgroundThreshold, DefaultBackgroundThreshold; got != want {
			t.Fatalf("%s: default threshold: got %d, want %d", tc.name, got, want)
		}
		reg, err := cfg.Registry()
		if err != nil {
			t.Fatalf("%s: Registry: %v", tc.name, err)
		}
		spec, ok := reg.Command("foo")
		if !ok || spec.Visibility != registry.VisibilityReplace || spec.Render("x") != "Fx" {
			t.Fatalf("%s: command foo: got %+v %v", tc.name, spec, ok)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := cfg.Indent, Default().Indent; got != want {
		t.Fatalf("indent: got %q, want %q", got, want)
	}
}

func TestParseRejects(t *testing.T) {
	if _, err := Parse("ini", nil); err == nil {
		t.Fatalf("unknown format: got nil error")
	}
	cfg, err := Parse("yaml", []byte("environments:\n  - name: x\n    list: spiral\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := cfg.Apply(registry.New()); err == nil {
		t.Fatalf("bad list style: got nil error")
	}
}

func TestApplyLuaScripts(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "extra.lua", `register_environment{name = "proof", hide_markup = true, line_class = "environment-proof"}`)
	cfg, err := Load(write(t, dir, "vistex.yaml", "lua_scripts: [extra.lua]\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	reg, err := cfg.Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}
	if spec, ok := reg.Environment("proof"); !ok || !spec.HideMarkup {
		t.Fatalf("proof: got %+v %v", spec, ok)
	}
}

func TestRenderTheme(t *testing.T) {
	cfg, err := Parse("yaml", []byte("theme:\n  command-textbf:\n    underline: true\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, ok := cfg.RenderTheme(nil).Class("command-textbf")
	if !ok || !s.GetUnderline() || s.GetBold() {
		t.Fatalf("override: got ok=%v underline=%v bold=%v", ok, s.GetUnderline(), s.GetBold())
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "vistex.yaml", "indent: \"\\t\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg Config, err error) {
			if err != nil {
				return
			}
			select {
			case got <- cfg:
			default:
			}
		})
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case cfg := <-got:
			if cfg.Indent == "  " {
				cancel()
				if err := <-done; err != nil {
					t.Fatalf("Watch: %v", err)
				}
				return
			}
		case <-tick.C:
			// Rewrite until the watcher is registered and sees a change.
			write(t, dir, "vistex.yaml", "indent: \"  \"\n")
		case <-deadline:
			t.Fatalf("Watch: no reload within deadline")
		}
	}
}
