package editor

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/structedit"
)

func (m Model) updateKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	s := m.sess

	// Paste events should always insert literal text and never trigger shortcuts.
	if msg.Type == tea.KeyRunes && msg.Paste && len(msg.Runes) > 0 {
		if !m.cfg.ReadOnly {
			s.InsertText(string(msg.Runes))
		}
		return m, m.afterEvent()
	}

	if m.completion.Visible {
		ckm := m.cfg.CompletionKeyMap
		switch {
		case key.Matches(msg, ckm.Accept), ckm.AcceptTab && msg.Type == tea.KeyTab:
			m.acceptCompletion()
			return m, m.afterEvent()
		case key.Matches(msg, ckm.Dismiss):
			m.dismissCompletion()
			return m, nil
		case key.Matches(msg, ckm.Next):
			m.moveCompletion(1)
			return m, nil
		case key.Matches(msg, ckm.Prev):
			m.moveCompletion(-1)
			return m, nil
		}
	}

	km := m.cfg.KeyMap
	move := func(unit buffer.MoveUnit, dir buffer.MoveDir, extend bool) {
		s.Move(buffer.Move{Unit: unit, Dir: dir, Extend: extend})
	}
	edit := !m.cfg.ReadOnly

	switch {
	case key.Matches(msg, km.Left):
		move(buffer.MoveGrapheme, buffer.DirLeft, false)
	case key.Matches(msg, km.Right):
		move(buffer.MoveGrapheme, buffer.DirRight, false)
	case key.Matches(msg, km.Up):
		move(buffer.MoveLine, buffer.DirUp, false)
	case key.Matches(msg, km.Down):
		move(buffer.MoveLine, buffer.DirDown, false)

	case key.Matches(msg, km.ShiftLeft):
		move(buffer.MoveGrapheme, buffer.DirLeft, true)
	case key.Matches(msg, km.ShiftRight):
		move(buffer.MoveGrapheme, buffer.DirRight, true)
	case key.Matches(msg, km.ShiftUp):
		move(buffer.MoveLine, buffer.DirUp, true)
	case key.Matches(msg, km.ShiftDown):
		move(buffer.MoveLine, buffer.DirDown, true)

	case key.Matches(msg, km.WordLeft):
		move(buffer.MoveWord, buffer.DirLeft, false)
	case key.Matches(msg, km.WordRight):
		move(buffer.MoveWord, buffer.DirRight, false)

	case key.Matches(msg, km.Home):
		move(buffer.MoveLine, buffer.DirHome, false)
	case key.Matches(msg, km.End):
		move(buffer.MoveLine, buffer.DirEnd, false)
	case key.Matches(msg, km.DocStart):
		move(buffer.MoveDoc, buffer.DirHome, false)
	case key.Matches(msg, km.DocEnd):
		move(buffer.MoveDoc, buffer.DirEnd, false)

	case key.Matches(msg, km.Backspace):
		if edit {
			s.DeleteBackward()
		}
	case key.Matches(msg, km.Delete):
		if edit {
			s.DeleteForward()
		}
	case key.Matches(msg, km.Enter):
		if edit {
			s.Enter()
		}
	case key.Matches(msg, km.Indent):
		if edit {
			indent := m.cfg.Session.Indent
			if indent == "" {
				indent = structedit.DefaultIndent
			}
			s.InsertText(indent)
		}

	case key.Matches(msg, km.Undo):
		if edit {
			s.Undo()
		}
	case key.Matches(msg, km.Redo):
		if edit {
			s.Redo()
		}

	case key.Matches(msg, km.Copy):
		m.copySelection()
	case key.Matches(msg, km.Cut):
		if m.copySelection() && edit {
			s.DeleteBackward()
		}
	case key.Matches(msg, km.Paste):
		if edit && m.cfg.Clipboard != nil {
			if text, err := m.cfg.Clipboard.ReadText(); err == nil && text != "" {
				s.InsertText(text)
			}
		}

	default:
		if name, ok := m.toolbarKey(msg); ok {
			if edit {
				_, _ = s.ToggleFormat(name)
			}
			break
		}
		if edit {
			m.typeKey(msg)
		}
	}
	return m, m.afterEvent()
}

func (m Model) toolbarKey(msg tea.KeyMsg) (string, bool) {
	for name, b := range m.cfg.KeyMap.Toolbar {
		if key.Matches(msg, b) {
			return name, true
		}
	}
	return "", false
}

func (m Model) typeKey(msg tea.KeyMsg) {
	s := m.sess
	switch msg.Type {
	case tea.KeySpace:
		s.InsertText(" ")
	case tea.KeyRunes:
		if msg.Alt {
			return
		}
		text := string(msg.Runes)
		switch text {
		case "{":
			s.TypeBrace()
		case "}":
			s.TypeCloseBrace()
		default:
			s.InsertText(text)
		}
	}
}

func (m Model) copySelection() bool {
	sel := m.sess.Selection()
	if m.cfg.Clipboard == nil || sel.IsEmpty() {
		return false
	}
	text := m.sess.Buffer().Slice(sel.From(), sel.To())
	return m.cfg.Clipboard.WriteText(text) == nil
}
