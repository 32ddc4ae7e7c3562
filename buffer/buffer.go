package buffer

import "errors"

var (
	// ErrEditOutOfRange is returned when an edit reaches outside the document.
	ErrEditOutOfRange = errors.New("buffer: edit out of range")
	// ErrOverlappingEdits is returned when edits are unsorted or overlap.
	ErrOverlappingEdits = errors.New("buffer: edits overlap or are unsorted")
)

type Options struct {
	HistoryLimit int // default: 1000
}

// Buffer is the pure document state: text, caret, and selection.
type Buffer struct {
	text       string
	version    uint64
	selVersion uint64

	sel Selection

	opt  Options
	hist historyState

	lastChange    Change
	hasLastChange bool
}

func New(text string, opt Options) *Buffer {
	if opt.HistoryLimit == 0 {
		opt.HistoryLimit = 1000
	}
	return &Buffer{
		text: text,
		opt:  opt,
	}
}

func (b *Buffer) Text() string { return b.text }

func (b *Buffer) Len() int { return len(b.text) }

// Version changes only when the text changes.
func (b *Buffer) Version() uint64 { return b.version }

// SelectionVersion changes whenever the caret or selection moves.
func (b *Buffer) SelectionVersion() uint64 { return b.selVersion }

func (b *Buffer) Selection() Selection { return b.sel }

// Cursor returns the caret offset (the selection head).
func (b *Buffer) Cursor() int { return b.sel.Head }

// Slice returns the text in [from, to), clamped to the document.
func (b *Buffer) Slice(from, to int) string {
	from = clampInt(from, 0, len(b.text))
	to = clampInt(to, from, len(b.text))
	return b.text[from:to]
}

func (b *Buffer) SetCursor(off int) { b.SetSelection(Cursor(off)) }

func (b *Buffer) SetSelection(s Selection) {
	next := b.clampSelection(s)
	if next == b.sel {
		return
	}
	b.sel = next
	b.selVersion++
}

func (b *Buffer) clampSelection(s Selection) Selection {
	return Selection{
		Anchor: clampInt(s.Anchor, 0, len(b.text)),
		Head:   clampInt(s.Head, 0, len(b.text)),
	}
}
