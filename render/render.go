package render

import (
	"sort"
	"strings"

	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/internal/grapheme"
)

// Options controls Render.
type Options struct {
	// Width is the drawing width in cells. Centered rows and rules need it;
	// zero draws rows flush left and rules one cell wide.
	Width int
	// Cursor is the caret's source offset; negative hides it.
	Cursor    int
	Selection buffer.Range
}

// Render draws lines as styled terminal text, one row per line.
func Render(lines []Line, theme Theme, opt Options) string {
	caretRow := -1
	if opt.Cursor >= 0 {
		if row, ok := Locate(lines, opt.Cursor); ok {
			caretRow = row
		}
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = renderLine(l, theme, opt, i == caretRow)
	}
	return strings.Join(out, "\n")
}

type piece struct {
	text     string
	selected bool
	cursor   bool
}

// split cuts a source segment at the selection bounds and around the
// grapheme under the caret.
func split(seg Segment, opt Options) []piece {
	from, to := seg.Source, seg.End()
	cuts := []int{from, to}
	add := func(off int) {
		if off > from && off < to {
			cuts = append(cuts, off)
		}
	}
	sel := opt.Selection
	if !sel.IsEmpty() {
		add(sel.From)
		add(sel.To)
	}
	caret := opt.Cursor >= from && opt.Cursor < to
	caretEnd := -1
	if caret {
		caretEnd = opt.Cursor + grapheme.FirstLen(seg.Text[opt.Cursor-from:])
		add(opt.Cursor)
		add(caretEnd)
	}
	sort.Ints(cuts)

	out := make([]piece, 0, len(cuts))
	for i := 0; i+1 < len(cuts); i++ {
		a, z := cuts[i], cuts[i+1]
		if a == z {
			continue
		}
		out = append(out, piece{
			text:     seg.Text[a-from : z-from],
			selected: !sel.IsEmpty() && a >= sel.From && z <= sel.To,
			cursor:   caret && a == opt.Cursor,
		})
	}
	return out
}

func renderLine(l Line, theme Theme, opt Options, caretRow bool) string {
	if l.Rule {
		return theme.Rule.Render(strings.Repeat("─", max(opt.Width, 1)))
	}

	var sb strings.Builder
	drawn := false
	for _, seg := range l.Segments {
		st := theme.segment(seg)
		if seg.Source < 0 {
			sb.WriteString(st.Render(seg.Text))
			continue
		}
		for _, p := range split(seg, opt) {
			s := st
			if p.selected {
				s = theme.Selection.Inherit(s)
			}
			if p.cursor && caretRow {
				s = theme.Cursor.Inherit(s)
				drawn = true
			}
			sb.WriteString(s.Render(p.text))
		}
	}
	if caretRow && !drawn && opt.Cursor == l.End {
		sb.WriteString(theme.Cursor.Render(" "))
	}
	if opt.Width > 0 && l.Centered() {
		return theme.place(opt.Width, sb.String())
	}
	return sb.String()
}
