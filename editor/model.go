package editor

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/render"
	"github.com/iw2rmb/vistex/session"
)

// Model is a Bubble Tea component that edits one session.
type Model struct {
	cfg   Config
	sess  *session.Session
	theme render.Theme

	focused bool

	viewport   viewport.Model
	width      int
	height     int
	completion CompletionState

	lines   []render.Line
	parsing uint64

	lastVersion uint64
	lastSel     buffer.Selection
}

// New opens a session on cfg.Text.
func New(cfg Config) Model {
	return NewWithSession(session.New(cfg.Text, cfg.Session), cfg)
}

// NewWithSession wraps an existing session. The model becomes its only
// mutator.
func NewWithSession(s *session.Session, cfg Config) Model {
	cfg = normalizeConfig(cfg)
	theme := render.DefaultTheme()
	if cfg.Theme != nil {
		theme = *cfg.Theme
	}
	m := Model{
		cfg:         cfg,
		sess:        s,
		theme:       theme,
		focused:     true,
		viewport:    viewport.New(0, 0),
		lastVersion: s.Version(),
		lastSel:     s.Selection(),
	}
	m.rebuildContent()
	return m
}

func (m Model) Session() *session.Session { return m.sess }

func (m Model) Completion() CompletionState { return m.completion }

// Lines returns the rows of the last layout.
func (m Model) Lines() []render.Line { return m.lines }

// Init starts the background parse a large initial text may need.
func (m Model) Init() tea.Cmd { return (&m).parseCmd() }

func (m Model) SetSize(width, height int) Model {
	m.width = max(width, 0)
	m.height = max(height, 0)
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-m.toolbarHeight(), 0)

	m.rebuildContent()
	m.followCursor()
	return m
}

// SetTheme restyles the document.
func (m Model) SetTheme(t render.Theme) Model {
	m.theme = t
	m.rebuildContent()
	return m
}

func (m Model) Focus() Model {
	if !m.focused {
		m.focused = true
		m.rebuildContent()
		m.followCursor()
	}
	return m
}

func (m Model) Blur() Model {
	if m.focused {
		m.focused = false
		m.completion = CompletionState{}
		m.rebuildContent()
	}
	return m
}

func (m Model) Focused() bool { return m.focused }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.SetSize(msg.Width, msg.Height), nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	case ParseDoneMsg:
		return m.installParse(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	default:
		// Hosts may drive the session directly; pick up what changed.
		cmd := m.afterEvent()
		return m, cmd
	}
}

func (m Model) View() string {
	view := overlayBottom(m.viewport.View(), renderCompletionPopup(m.completion, m.cfg.Style, m.cfg.CompletionMaxRows))
	if !m.cfg.ShowToolbar {
		return view
	}
	return m.toolbarView() + "\n" + view
}

func (m Model) toolbarHeight() int {
	if m.cfg.ShowToolbar {
		return 1
	}
	return 0
}

var toolbarLabels = map[string]string{
	"textbf":    "B",
	"textit":    "I",
	"underline": "U",
}

func (m Model) toolbarView() string {
	active := make(map[string]bool)
	for _, name := range m.sess.Toolbar() {
		active[name] = true
	}
	var parts []string
	for _, name := range m.sess.Registry().Toolbar() {
		label, ok := toolbarLabels[name]
		if !ok {
			label = name
		}
		st := m.cfg.Style.Toolbar
		if active[name] {
			st = m.cfg.Style.ToolbarActive
		}
		parts = append(parts, st.Render(label))
	}
	if m.sess.Pending() {
		parts = append(parts, m.cfg.Style.Pending.Render("parsing…"))
	}
	return strings.Join(parts, " ")
}

// afterEvent brings the popup, change notifications and content up to
// date with the session and returns the background parse to start, if any.
func (m *Model) afterEvent() tea.Cmd {
	ver, sel := m.sess.Version(), m.sess.Selection()
	if ver == m.lastVersion && sel == m.lastSel {
		return m.parseCmd()
	}
	m.lastVersion, m.lastSel = ver, sel
	m.refreshCompletion()
	m.rebuildContent()
	m.followCursor()
	if m.cfg.OnChange != nil {
		m.cfg.OnChange(buildChangeEvent(m.sess))
	}
	return m.parseCmd()
}

func (m *Model) rebuildContent() {
	m.lines = render.Lines(m.sess.Text(), m.sess.Decorations())
	cursor := -1
	if m.focused {
		cursor = m.sess.Selection().Head
	}
	m.viewport.SetContent(render.Render(m.lines, m.theme, render.Options{
		Width:     m.viewport.Width,
		Cursor:    cursor,
		Selection: m.sess.Selection().Range(),
	}))
}

func (m *Model) followCursor() {
	h := m.viewport.Height - m.viewport.Style.GetVerticalFrameSize()
	if h <= 0 {
		return
	}
	row, ok := render.Locate(m.lines, m.sess.Selection().Head)
	if !ok {
		return
	}
	y := m.viewport.YOffset
	if row < y {
		m.viewport.SetYOffset(row)
		return
	}
	if row >= y+h {
		m.viewport.SetYOffset(row - h + 1)
	}
}
