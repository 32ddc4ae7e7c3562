package editor

import (
	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/session"
)

type ChangeEvent struct {
	Version   uint64
	Selection buffer.Selection
	Toolbar   []string
	// Pending is set while the decorations wait for a background parse.
	Pending bool

	// Simplest payload; host can diff if needed.
	Text string
}

func buildChangeEvent(s *session.Session) ChangeEvent {
	return ChangeEvent{
		Version:   s.Version(),
		Selection: s.Selection(),
		Toolbar:   s.Toolbar(),
		Pending:   s.Pending(),
		Text:      s.Text(),
	}
}
