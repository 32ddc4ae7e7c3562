// Package config loads vistex settings from YAML, TOML or JSONC files.
//
// The format is picked by file extension. A missing file is not an error:
// Load returns Default. Commands and environments declared in the file, and
// the Lua scripts it lists, extend the registry through Apply.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/iw2rmb/vistex/registry"
	"github.com/iw2rmb/vistex/render"
	"github.com/iw2rmb/vistex/session"
)

// ErrUnknownFormat reports a config file with an unsupported extension.
var ErrUnknownFormat = errors.New("config: unknown format")

type Config struct {
	Indent              string `yaml:"indent" toml:"indent" json:"indent"`
	BackgroundThreshold int    `yaml:"background_threshold" toml:"background_threshold" json:"background_threshold"`
	HistoryLimit        int    `yaml:"history_limit" toml:"history_limit" json:"history_limit"`
	LogLevel            string `yaml:"log_level" toml:"log_level" json:"log_level"`

	// Syntax names the chroma style for raw markup.
	Syntax string                      `yaml:"syntax" toml:"syntax" json:"syntax"`
	Theme  map[string]render.ClassStyle `yaml:"theme" toml:"theme" json:"theme"`

	Commands     []Command     `yaml:"commands" toml:"commands" json:"commands"`
	Environments []Environment `yaml:"environments" toml:"environments" json:"environments"`
	// LuaScripts are registry scripts, relative to the config file.
	LuaScripts []string `yaml:"lua_scripts" toml:"lua_scripts" json:"lua_scripts"`

	dir string
}

// Command declares a command. Field names follow the Lua register_command
// table.
type Command struct {
	Name       string `yaml:"name" toml:"name" json:"name"`
	Args       int    `yaml:"args" toml:"args" json:"args"`
	Optional   int    `yaml:"optional" toml:"optional" json:"optional"`
	EmptyGroup bool   `yaml:"empty_group" toml:"empty_group" json:"empty_group"`
	Visibility string `yaml:"visibility" toml:"visibility" json:"visibility"`
	Widget     string `yaml:"widget" toml:"widget" json:"widget"`
	Template   string `yaml:"template" toml:"template" json:"template"`
	Class      string `yaml:"class" toml:"class" json:"class"`
	Icon       string `yaml:"icon" toml:"icon" json:"icon"`
	LineClass  string `yaml:"line_class" toml:"line_class" json:"line_class"`
	Level      int    `yaml:"level" toml:"level" json:"level"`
	Toolbar    bool   `yaml:"toolbar" toml:"toolbar" json:"toolbar"`
}

type Environment struct {
	Name       string `yaml:"name" toml:"name" json:"name"`
	Args       int    `yaml:"args" toml:"args" json:"args"`
	Optional   int    `yaml:"optional" toml:"optional" json:"optional"`
	LineClass  string `yaml:"line_class" toml:"line_class" json:"line_class"`
	List       string `yaml:"list" toml:"list" json:"list"`
	Centered   bool   `yaml:"centered" toml:"centered" json:"centered"`
	HideMarkup bool   `yaml:"hide_markup" toml:"hide_markup" json:"hide_markup"`
	Frame      bool   `yaml:"frame" toml:"frame" json:"frame"`
	Template   string `yaml:"template" toml:"template" json:"template"`
}

const (
	DefaultBackgroundThreshold = 64 << 10
	DefaultHistoryLimit        = 1000
)

func Default() Config {
	return Config{
		Indent:              "    ",
		BackgroundThreshold: DefaultBackgroundThreshold,
		HistoryLimit:        DefaultHistoryLimit,
		LogLevel:            "info",
		Syntax:              "monokai",
	}
}

// Load reads path, choosing the format from its extension. A missing file
// yields Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.dir = filepath.Dir(path)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(Format(path), data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Format returns the format name for path: "yaml", "toml" or "jsonc".
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	case ".json", ".jsonc":
		return "jsonc"
	}
	return ""
}

// Parse decodes data over Default. Fields absent from data keep their
// defaults.
func Parse(format string, data []byte) (Config, error) {
	cfg := Default()
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, &cfg)
	case "toml":
		err = toml.Unmarshal(data, &cfg)
	case "jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), &cfg)
	default:
		return Config{}, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parsing %s config: %w", format, err)
	}
	return cfg, nil
}

// Level returns the slog level named by LogLevel; unknown names give Info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Apply registers the declared commands and environments, then runs the
// Lua scripts, in that order.
func (c Config) Apply(reg *registry.Registry) error {
	for _, cmd := range c.Commands {
		spec, err := cmd.Spec()
		if err != nil {
			return err
		}
		if err := reg.RegisterCommand(spec); err != nil {
			return err
		}
	}
	for _, env := range c.Environments {
		spec, err := env.Spec()
		if err != nil {
			return err
		}
		if err := reg.RegisterEnvironment(spec); err != nil {
			return err
		}
	}
	for _, script := range c.LuaScripts {
		if !filepath.IsAbs(script) && c.dir != "" {
			script = filepath.Join(c.dir, script)
		}
		if err := registry.LoadLua(reg, script); err != nil {
			return err
		}
	}
	return nil
}

// Spec converts c to a registry command.
func (c Command) Spec() (registry.CommandSpec, error) {
	spec := registry.CommandSpec{
		Name:           c.Name,
		ArgCount:       c.Args,
		OptionalArgs:   c.Optional,
		EmptyGroup:     c.EmptyGroup,
		RenderTemplate: c.Template,
		Class:          c.Class,
		Icon:           c.Icon,
		LineClass:      c.LineClass,
		Level:          c.Level,
		Toolbar:        c.Toolbar,
	}
	if c.Visibility != "" {
		v, err := registry.ParseVisibility(c.Visibility)
		if err != nil {
			return spec, err
		}
		spec.Visibility = v
	}
	w, err := registry.ParseWidget(c.Widget)
	if err != nil {
		return spec, err
	}
	spec.Widget = w
	return spec, nil
}

func (e Environment) Spec() (registry.EnvironmentSpec, error) {
	spec := registry.EnvironmentSpec{
		Name:         e.Name,
		ArgCount:     e.Args,
		OptionalArgs: e.Optional,
		LineClass:    e.LineClass,
		Centered:     e.Centered,
		HideMarkup:   e.HideMarkup,
		Frame:        e.Frame,
		Template:     e.Template,
	}
	l, err := registry.ParseList(e.List)
	if err != nil {
		return spec, err
	}
	spec.List = l
	return spec, nil
}

// Registry returns the default registry extended by Apply.
func (c Config) Registry() (*registry.Registry, error) {
	reg := registry.Default()
	if err := c.Apply(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Session returns the session settings.
func (c Config) Session(reg *registry.Registry, logger *slog.Logger) session.Config {
	return session.Config{
		Registry:            reg,
		Logger:              logger,
		Indent:              c.Indent,
		BackgroundThreshold: c.BackgroundThreshold,
		HistoryLimit:        c.HistoryLimit,
	}
}

// RenderTheme builds the theme on r with the configured overrides.
func (c Config) RenderTheme(r *lipgloss.Renderer) render.Theme {
	t := render.NewTheme(r)
	if c.Syntax != "" {
		t.SetSyntax(c.Syntax)
	}
	for class, cs := range c.Theme {
		t.Set(class, cs)
	}
	return t
}
