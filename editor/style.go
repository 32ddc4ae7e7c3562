package editor

import "github.com/charmbracelet/lipgloss"

// Style controls the editor chrome. Document text is styled by the
// render.Theme in Config.
type Style struct {
	Toolbar       lipgloss.Style
	ToolbarActive lipgloss.Style

	Popup         lipgloss.Style
	PopupItem     lipgloss.Style
	PopupSelected lipgloss.Style

	// Pending marks the toolbar while a background parse is outstanding.
	Pending lipgloss.Style
}

func DefaultStyle() Style {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	return Style{
		Toolbar:       dim,
		ToolbarActive: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		Popup:         lipgloss.NewStyle().Background(lipgloss.Color("236")),
		PopupItem:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		PopupSelected: lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Background(lipgloss.Color("214")),
		Pending:       dim.Italic(true),
	}
}
