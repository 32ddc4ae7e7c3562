package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadLuaRegistersCommands(t *testing.T) {
	r := Default()
	src := `
register_command{name = "todo", args = 1, visibility = "replace", template = "☐ #1", class = "todo"}
register_environment{name = "theorem", line_class = "environment-theorem", hide_markup = true}
`
	if err := LoadLuaString(r, src); err != nil {
		t.Fatalf("LoadLuaString: %v", err)
	}

	c, ok := r.Command("todo")
	if !ok {
		t.Fatalf("todo not registered")
	}
	if got, want := c.Render("write tests"), "☐ write tests"; got != want {
		t.Fatalf("render: got %q, want %q", got, want)
	}
	e, ok := r.Environment("theorem")
	if !ok {
		t.Fatalf("theorem not registered")
	}
	if got, want := e.LineClass, "environment-theorem"; got != want {
		t.Fatalf("line class: got %q, want %q", got, want)
	}
	if !e.HideMarkup {
		t.Fatalf("hide_markup not applied")
	}
}

func TestLoadLuaReportsInvalidSpec(t *testing.T) {
	err := LoadLuaString(Default(), `register_command{name = "bad name"}`)
	if err == nil {
		t.Fatalf("LoadLuaString: expected error")
	}
	if !strings.Contains(err.Error(), "invalid spec") {
		t.Fatalf("error: got %v, want it to mention the invalid spec", err)
	}
}

func TestLoadLuaHasNoFileAccess(t *testing.T) {
	if err := LoadLuaString(Default(), `io.open("/etc/passwd")`); err == nil {
		t.Fatalf("io library is available to scripts")
	}
}

func TestLoadLuaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.lua")
	if err := os.WriteFile(path, []byte(`register_command{name = "keyword", args = 1, visibility = "styled", class = "kw"}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	r := New()
	if err := LoadLua(r, path); err != nil {
		t.Fatalf("LoadLua: %v", err)
	}
	if _, ok := r.Command("keyword"); !ok {
		t.Fatalf("keyword not registered")
	}
}
