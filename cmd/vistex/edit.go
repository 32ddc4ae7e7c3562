package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/iw2rmb/vistex/config"
	"github.com/iw2rmb/vistex/editor"
	"github.com/iw2rmb/vistex/session"
)

// configMsg carries a reloaded config into the program.
type configMsg struct {
	cfg config.Config
	err error
}

type app struct {
	editor editor.Model
	path   string
	saved  uint64
	status string
	width  int
}

var statusStyle = lipgloss.NewStyle().Faint(true)

func newApp(path string, cfg config.Config, s *session.Session) app {
	theme := cfg.RenderTheme(lipgloss.DefaultRenderer())
	ed := editor.NewWithSession(s, editor.Config{
		Session:     s.Config(),
		Theme:       &theme,
		ShowToolbar: true,
	})
	return app{editor: ed, path: path, saved: s.Version()}
}

func (a app) Init() tea.Cmd { return a.editor.Init() }

func (a app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.editor = a.editor.SetSize(msg.Width, max(msg.Height-1, 0))
		return a, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+q":
			return a, tea.Quit
		case "ctrl+s":
			a.save()
			return a, nil
		}
	case configMsg:
		a.reload(msg)
		return a, nil
	}

	var cmd tea.Cmd
	a.editor, cmd = a.editor.Update(msg)
	return a, cmd
}

func (a *app) save() {
	s := a.editor.Session()
	if err := os.WriteFile(a.path, []byte(s.Text()), 0o644); err != nil {
		a.status = "save failed: " + err.Error()
		return
	}
	a.saved = s.Version()
	a.status = "saved " + a.path
}

// reload restyles the editor and registers the commands and environments
// the new config declares.
func (a *app) reload(msg configMsg) {
	if msg.err != nil {
		a.status = "config: " + msg.err.Error()
		return
	}
	s := a.editor.Session()
	for _, c := range msg.cfg.Commands {
		spec, err := c.Spec()
		if err == nil {
			_, err = s.RegisterCommand(spec)
		}
		if err != nil {
			a.status = "config: " + err.Error()
			return
		}
	}
	for _, env := range msg.cfg.Environments {
		spec, err := env.Spec()
		if err == nil {
			_, err = s.RegisterEnvironment(spec)
		}
		if err != nil {
			a.status = "config: " + err.Error()
			return
		}
	}
	a.editor = a.editor.SetTheme(msg.cfg.RenderTheme(lipgloss.DefaultRenderer()))
	a.status = "config reloaded"
}

func (a app) View() string {
	return a.editor.View() + "\n" + statusStyle.Render(a.statusLine())
}

func (a app) statusLine() string {
	s := a.editor.Session()
	mark := ""
	if s.Version() != a.saved {
		mark = " [+]"
	}
	line := fmt.Sprintf("%s%s  v%d", a.path, mark, s.Version())
	if a.status != "" {
		line += "  " + a.status
	}
	return line
}

func runEdit(e env, args []string) error {
	var (
		c       common
		logPath string
	)
	flags := newFlagSet(e, "edit", "[flags] FILE")
	c.addFlags(flags)
	flags.StringVar(&logPath, "log-file", "", "write session logs to this file")
	path, err := parse(flags, args)
	if err != nil {
		return err
	}
	cfg, err := c.load()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	// The terminal belongs to the program; logs go to a file or nowhere.
	var logger *slog.Logger
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logger = newLogger(f, cfg)
	}
	scfg := cfg.Session(reg, logger)
	scfg.DocID = docID(path)
	s := session.New(string(data), scfg)

	p := tea.NewProgram(newApp(path, cfg, s), tea.WithAltScreen(), tea.WithMouseCellMotion())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := os.Stat(c.configPath); err == nil {
		go watchConfig(ctx, p, c.configPath)
	}

	_, err = p.Run()
	return err
}

func watchConfig(ctx context.Context, p *tea.Program, path string) {
	err := config.Watch(ctx, path, func(cfg config.Config, err error) {
		p.Send(configMsg{cfg: cfg, err: err})
	})
	if err != nil {
		p.Send(configMsg{err: err})
	}
}

