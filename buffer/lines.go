package buffer

import (
	"strings"

	"github.com/iw2rmb/vistex/internal/grapheme"
)

// LineStart returns the offset of the first byte of the line containing off.
func LineStart(text string, off int) int {
	off = clampInt(off, 0, len(text))
	return strings.LastIndexByte(text[:off], '\n') + 1
}

// LineEnd returns the offset of the newline ending the line containing off,
// or len(text) on the last line.
func LineEnd(text string, off int) int {
	off = clampInt(off, 0, len(text))
	if i := strings.IndexByte(text[off:], '\n'); i >= 0 {
		return off + i
	}
	return len(text)
}

// LineAt returns the range of the line containing off, without its newline.
func LineAt(text string, off int) Range {
	return Range{From: LineStart(text, off), To: LineEnd(text, off)}
}

// LineIndex returns the 0-based row of off.
func LineIndex(text string, off int) int {
	off = clampInt(off, 0, len(text))
	return strings.Count(text[:off], "\n")
}

// LineCount returns the number of logical lines; an empty text has one.
func LineCount(text string) int { return strings.Count(text, "\n") + 1 }

// LineRange returns the range of row, without its newline. Rows past the end
// clamp to the last line.
func LineRange(text string, row int) Range {
	start := 0
	for i := 0; i < row; i++ {
		j := strings.IndexByte(text[start:], '\n')
		if j < 0 {
			break
		}
		start += j + 1
	}
	return Range{From: start, To: LineEnd(text, start)}
}

// SameLine reports whether a and b lie on the same logical line.
func SameLine(text string, a, b int) bool {
	if a > b {
		a, b = b, a
	}
	a = clampInt(a, 0, len(text))
	b = clampInt(b, 0, len(text))
	return strings.IndexByte(text[a:b], '\n') < 0
}

// PosFromOffset converts a byte offset into a (row, grapheme col) position.
func PosFromOffset(text string, off int) Pos {
	off = clampInt(off, 0, len(text))
	start := LineStart(text, off)
	return Pos{Row: LineIndex(text, off), Col: grapheme.Count(text[start:off])}
}

// OffsetFromPos converts a position into a byte offset, clamping it into the
// document.
func OffsetFromPos(text string, p Pos) int {
	if p.Row < 0 {
		return 0
	}
	line := LineRange(text, p.Row)
	if p.Row >= LineCount(text) {
		return len(text)
	}
	return line.From + grapheme.ByteOffset(text[line.From:line.To], p.Col)
}

func (b *Buffer) PosFromOffset(off int) Pos { return PosFromOffset(b.text, off) }

func (b *Buffer) OffsetFromPos(p Pos) int { return OffsetFromPos(b.text, p) }

// CursorPos returns the caret as a (row, col) position.
func (b *Buffer) CursorPos() Pos { return PosFromOffset(b.text, b.sel.Head) }
