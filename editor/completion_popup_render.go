package editor

import (
	"strings"

	"github.com/mattn/go-runewidth"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

// completionWindow returns the first visible item index so that the
// selected item stays inside a window of rows.
func completionWindow(selected, n, rows int) int {
	if n <= rows || selected < rows {
		return 0
	}
	return min(selected-rows+1, n-rows)
}

func renderCompletionPopup(c CompletionState, st Style, rows int) []string {
	if !c.Visible || len(c.Items) == 0 {
		return nil
	}
	start := completionWindow(c.Selected, len(c.Items), rows)
	end := min(start+rows, len(c.Items))

	width := 0
	for _, it := range c.Items[start:end] {
		width = max(width, runewidth.StringWidth(it))
	}
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		label := " " + c.Items[i] + strings.Repeat(" ", width-runewidth.StringWidth(c.Items[i])) + " "
		item := st.PopupItem
		if i == c.Selected {
			item = st.PopupSelected
		}
		out = append(out, st.Popup.Render(item.Render(label)))
	}
	return out
}

// overlayBottom composites popup rows over the bottom left corner of view,
// keeping the view height.
func overlayBottom(view string, popup []string) string {
	if len(popup) == 0 {
		return view
	}
	if h := strings.Count(view, "\n") + 1; len(popup) > h {
		popup = popup[len(popup)-h:]
	}
	return overlay.Composite(strings.Join(popup, "\n"), view, overlay.Left, overlay.Bottom, 0, 0)
}
