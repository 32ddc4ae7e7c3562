package buffer

import "github.com/iw2rmb/vistex/internal/grapheme"

type MoveUnit int

const (
	MoveGrapheme MoveUnit = iota
	MoveWord
	MoveLine
	MoveDoc
)

type MoveDir int

const (
	DirLeft MoveDir = iota
	DirRight
	DirUp
	DirDown
	DirHome // line start (or doc start for MoveDoc)
	DirEnd  // line end (or doc end for MoveDoc)
)

type Move struct {
	Unit   MoveUnit
	Dir    MoveDir
	Extend bool // if true, keeps the anchor; if false collapses the selection
}

func (b *Buffer) Move(m Move) {
	head := b.moveCaret(b.sel.Head, m)
	anchor := head
	if m.Extend {
		anchor = b.sel.Anchor
	} else if !b.sel.IsEmpty() && m.Unit == MoveGrapheme && (m.Dir == DirLeft || m.Dir == DirRight) {
		// Collapsing a selection lands on its edge instead of stepping past it.
		if m.Dir == DirLeft {
			head = b.sel.From()
		} else {
			head = b.sel.To()
		}
		anchor = head
	}
	b.SetSelection(Selection{Anchor: anchor, Head: head})
}

func (b *Buffer) moveCaret(off int, m Move) int {
	switch m.Unit {
	case MoveGrapheme:
		return b.moveGrapheme(off, m.Dir)
	case MoveWord:
		return b.moveWord(off, m.Dir)
	case MoveLine:
		return b.moveLine(off, m.Dir)
	case MoveDoc:
		return b.moveDoc(off, m.Dir)
	default:
		return off
	}
}

func (b *Buffer) moveGrapheme(off int, dir MoveDir) int {
	line := LineAt(b.text, off)
	switch dir {
	case DirLeft:
		if off == 0 {
			return off
		}
		if off == line.From {
			return off - 1
		}
		return off - grapheme.LastLen(b.text[line.From:off])
	case DirRight:
		if off >= len(b.text) {
			return off
		}
		if off == line.To {
			return off + 1
		}
		return off + grapheme.FirstLen(b.text[off:line.To])
	default:
		return b.moveLine(off, dir)
	}
}

func (b *Buffer) moveWord(off int, dir MoveDir) int {
	line := LineAt(b.text, off)
	clusters := grapheme.Split(b.text[line.From:line.To])
	col := grapheme.Count(b.text[line.From:off])

	switch dir {
	case DirLeft:
		return line.From + clusterOffset(clusters, prevWordBoundary(clusters, col))
	case DirRight:
		return line.From + clusterOffset(clusters, nextWordBoundary(clusters, col))
	case DirHome:
		return line.From
	case DirEnd:
		return line.To
	default:
		return off
	}
}

func (b *Buffer) moveLine(off int, dir MoveDir) int {
	p := PosFromOffset(b.text, off)
	switch dir {
	case DirHome:
		return LineStart(b.text, off)
	case DirEnd:
		return LineEnd(b.text, off)
	case DirUp:
		if p.Row == 0 {
			return off
		}
		return OffsetFromPos(b.text, Pos{Row: p.Row - 1, Col: p.Col})
	case DirDown:
		if p.Row >= LineCount(b.text)-1 {
			return off
		}
		return OffsetFromPos(b.text, Pos{Row: p.Row + 1, Col: p.Col})
	default:
		return off
	}
}

func (b *Buffer) moveDoc(off int, dir MoveDir) int {
	switch dir {
	case DirHome, DirUp:
		return 0
	case DirEnd, DirDown:
		return len(b.text)
	default:
		return off
	}
}

func clusterOffset(clusters []string, col int) int {
	n := 0
	for _, c := range clusters[:col] {
		n += len(c)
	}
	return n
}

// Word boundary rules (v0):
// - skip whitespace, then skip non-whitespace
// - newline is a hard boundary (so this operates on a single logical line)
func prevWordBoundary(line []string, col int) int {
	i := clampInt(col, 0, len(line))
	for i > 0 && grapheme.IsSpace(line[i-1]) {
		i--
	}
	for i > 0 && !grapheme.IsSpace(line[i-1]) {
		i--
	}
	return i
}

func nextWordBoundary(line []string, col int) int {
	i := clampInt(col, 0, len(line))
	for i < len(line) && grapheme.IsSpace(line[i]) {
		i++
	}
	for i < len(line) && !grapheme.IsSpace(line[i]) {
		i++
	}
	return i
}
