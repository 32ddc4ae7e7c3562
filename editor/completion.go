package editor

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/iw2rmb/vistex/structedit"
)

// CompletionState is the environment popup shown after \begin{.
type CompletionState struct {
	Visible bool
	// From is the offset of the partial environment name.
	From     int
	Query    string
	Items    []string
	Selected int
}

type CompletionKeyMap struct {
	Accept    key.Binding
	AcceptTab bool

	Dismiss key.Binding
	Next    key.Binding
	Prev    key.Binding
}

func DefaultCompletionKeyMap() CompletionKeyMap {
	return CompletionKeyMap{
		Accept:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "accept completion")),
		AcceptTab: true,
		Dismiss:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss completion")),
		Next:      key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("down", "next completion")),
		Prev:      key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("up", "prev completion")),
	}
}

// refreshCompletion opens, narrows or closes the popup for the caret.
func (m *Model) refreshCompletion() {
	sel := m.sess.Selection()
	if !sel.IsEmpty() || m.cfg.ReadOnly {
		m.completion = CompletionState{}
		return
	}
	from, partial, ok := structedit.BeginContext(m.sess.Text(), sel.Head)
	if !ok {
		m.completion = CompletionState{}
		return
	}
	if m.completion.dismissed(from) {
		m.completion.Query = partial
		return
	}
	items := structedit.Candidates(m.sess.Registry(), partial)
	if len(items) == 0 {
		m.completion = CompletionState{From: from, Query: partial}
		return
	}
	selected := 0
	if m.completion.Visible && m.completion.From == from {
		selected = min(m.completion.Selected, len(items)-1)
	}
	m.completion = CompletionState{Visible: true, From: from, Query: partial, Items: items, Selected: selected}
}

// dismissed reports whether the popup was closed by the user for the same
// \begin{ and should stay closed.
func (c CompletionState) dismissed(from int) bool {
	return !c.Visible && c.Items != nil && c.From == from
}

func (m *Model) moveCompletion(delta int) {
	n := len(m.completion.Items)
	if n == 0 {
		return
	}
	m.completion.Selected = ((m.completion.Selected+delta)%n + n) % n
}

func (m *Model) dismissCompletion() {
	// Keep the items so refreshCompletion leaves this \begin{ alone.
	m.completion.Visible = false
	if m.completion.Items == nil {
		m.completion.Items = []string{}
	}
}

func (m *Model) acceptCompletion() {
	c := m.completion
	if !c.Visible || c.Selected < 0 || c.Selected >= len(c.Items) {
		return
	}
	m.completion = CompletionState{}
	// Complete only fails when the caret left \begin{; the popup closes
	// either way.
	_, _ = m.sess.Complete(c.Items[c.Selected])
}
