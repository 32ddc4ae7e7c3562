package editor

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/iw2rmb/vistex/session"
)

// ParseDoneMsg carries a background parse back to the model.
type ParseDoneMsg struct {
	Result session.JobResult
	Err    error
}

// parseCmd runs the session's outstanding parse off the update loop. A job
// already in flight is not started twice; one superseded by a later edit
// returns early with context.Canceled and is not installed.
func (m *Model) parseCmd() tea.Cmd {
	job, ok := m.sess.Job()
	if !ok || job.Version == m.parsing {
		return nil
	}
	m.parsing = job.Version
	return func() tea.Msg {
		res, err := job.Run(context.Background())
		return ParseDoneMsg{Result: res, Err: err}
	}
}

func (m Model) installParse(msg ParseDoneMsg) (Model, tea.Cmd) {
	if msg.Result.Version == m.parsing {
		m.parsing = 0
	}
	if msg.Err == nil {
		if _, ok := m.sess.Install(msg.Result); ok {
			m.refreshCompletion()
			m.rebuildContent()
			m.followCursor()
		}
	}
	return m, m.parseCmd()
}
