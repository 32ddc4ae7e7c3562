package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/iw2rmb/vistex/config"
	"github.com/iw2rmb/vistex/decoration"
	"github.com/iw2rmb/vistex/internal/codec"
	"github.com/iw2rmb/vistex/session"
)

func runWith(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	e := env{stdin: strings.NewReader(stdin), stdout: &stdout, stderr: &stderr}
	err := run(e, args)
	return stdout.String(), stderr.String(), err
}

func missingConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "none.yaml")
}

func TestPlanJSON(t *testing.T) {
	out, _, err := runWith(t, `a \dots b`, "plan", "--config", missingConfig(t), "--caret", "0", "-")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	var dump planDump
	if err := json.Unmarshal([]byte(out), &dump); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if dump.Document != "stdin" || dump.Caret != 0 {
		t.Fatalf("dump header: got %+v", dump)
	}
	var widgets []string
	for _, r := range dump.Decorations {
		if r.Kind == "widget" {
			widgets = append(widgets, r.Text)
		}
		if !strings.HasPrefix(r.ID, "stdin/") {
			t.Fatalf("record id: got %q", r.ID)
		}
	}
	if strings.Join(widgets, ",") != "…" {
		t.Fatalf("widgets: got %q", widgets)
	}
}

func TestPlanCBORIsDeterministic(t *testing.T) {
	src := "\\section{Intro}\nSome \\textbf{bold} and \\ref{x}.\n"
	first, _, err := runWith(t, src, "plan", "--config", missingConfig(t), "--format", "cbor", "-")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	second, _, err := runWith(t, src, "plan", "--config", missingConfig(t), "--format", "cbor", "-")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if first != second {
		t.Fatalf("cbor dumps differ")
	}
	var dump planDump
	if err := codec.Unmarshal([]byte(first), &dump); err != nil {
		t.Fatalf("decoding cbor: %v", err)
	}
	if dump.Document != "stdin" || len(dump.Decorations) == 0 {
		t.Fatalf("cbor dump: got %+v", dump)
	}
	seen := make(map[string]decoration.Record)
	for _, r := range dump.Decorations {
		if prev, ok := seen[r.ID]; ok {
			t.Fatalf("duplicate id %q: %+v and %+v", r.ID, prev, r)
		}
		seen[r.ID] = r
	}
}

func TestPlanDiagAndBadFormat(t *testing.T) {
	out, _, err := runWith(t, `x`, "plan", "--config", missingConfig(t), "--format", "diag", "-")
	if err != nil {
		t.Fatalf("plan diag: %v", err)
	}
	if !strings.Contains(out, `"document": "stdin"`) {
		t.Fatalf("diag: got %q", out)
	}
	if _, _, err := runWith(t, `x`, "plan", "--config", missingConfig(t), "--format", "xml", "-"); err == nil {
		t.Fatalf("unknown format: got nil error")
	}
}

func TestRender(t *testing.T) {
	src := "a \\textbf{bold} b\n\\begin{center}\nmid\n\\end{center}\nend"
	out, _, err := runWith(t, src, "render", "--config", missingConfig(t), "--color", "never", "--width", "11", "-")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if lines[0] != "a bold b" {
		t.Fatalf("first line: got %q in %q", lines[0], out)
	}
	var centered bool
	for _, l := range lines {
		if l == "    mid    " {
			centered = true
		}
	}
	if !centered {
		t.Fatalf("centered line missing: got %q", lines)
	}
}

func TestProject(t *testing.T) {
	out, _, err := runWith(t, `Some \textbf{bold} text`, "project", "--config", missingConfig(t), "-")
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if out != "Some bold text" {
		t.Fatalf("project: got %q", out)
	}

	out, _, err = runWith(t, `Some \textbf{bold} text`, "project", "--config", missingConfig(t), "--format", "json", "-")
	if err != nil {
		t.Fatalf("project json: %v", err)
	}
	var dump projectionDump
	if err := json.Unmarshal([]byte(out), &dump); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(dump.Segments) != 3 || dump.Segments[1].From != 13 {
		t.Fatalf("segments: got %+v", dump.Segments)
	}
}

func TestConfigExtendsRegistry(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "vistex.toml")
	data := "[[commands]]\nname = \"R\"\nvisibility = \"replace\"\ntemplate = \"ℝ\"\n"
	if err := os.WriteFile(cfgPath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err := runWith(t, `x \R y`, "render", "--config", cfgPath, "--color", "never", "--caret", "0", "-")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := strings.TrimRight(out, "\n"); got != "x ℝ y" {
		t.Fatalf("render: got %q", got)
	}
}

func TestUsageAndVersion(t *testing.T) {
	if _, stderr, err := runWith(t, "", "bogus"); !errors.Is(err, errUsage) || !strings.Contains(stderr, `unknown command "bogus"`) {
		t.Fatalf("unknown command: got err=%v stderr=%q", err, stderr)
	}
	if _, _, err := runWith(t, ""); !errors.Is(err, errUsage) {
		t.Fatalf("no command: got %v", err)
	}
	if _, _, err := runWith(t, "", "plan", "--config", missingConfig(t)); !errors.Is(err, errUsage) {
		t.Fatalf("plan without file: got %v", err)
	}
	out, _, err := runWith(t, "", "version")
	if err != nil || !strings.HasPrefix(out, "vistex v") {
		t.Fatalf("version: got %q, %v", out, err)
	}
	out, _, err = runWith(t, "", "help")
	if err != nil || !strings.Contains(out, "lsp") {
		t.Fatalf("help: got %q, %v", out, err)
	}
}

func TestAppSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.tex")
	cfg := config.Default()
	s := session.New("ab", session.Config{DocID: "doc.tex"})
	a := newApp(path, cfg, s)

	m, _ := a.Update(tea.WindowSizeMsg{Width: 30, Height: 5})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if got := m.(app).statusLine(); !strings.Contains(got, "[+]") {
		t.Fatalf("status after edit: got %q", got)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(data) != "xab" {
		t.Fatalf("saved: got %q", data)
	}
	if got := m.(app).statusLine(); strings.Contains(got, "[+]") || !strings.Contains(got, "saved") {
		t.Fatalf("status after save: got %q", got)
	}

	reloaded := config.Default()
	reloaded.Commands = []config.Command{{Name: "foo", Visibility: "replace", Template: "F"}}
	m, _ = m.Update(configMsg{cfg: reloaded})
	if _, ok := s.Registry().Command("foo"); !ok {
		t.Fatalf("reload did not register \\foo")
	}
	if got := m.(app).statusLine(); !strings.Contains(got, "config reloaded") {
		t.Fatalf("status after reload: got %q", got)
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("ctrl+c: no quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("ctrl+c: got %T", cmd())
	}
}
