package buffer

import "github.com/iw2rmb/vistex/internal/grapheme"

// InsertText inserts text at the caret, or replaces the active selection.
func (b *Buffer) InsertText(s string) Change {
	r := b.sel.Range()
	if r.IsEmpty() && s == "" {
		return Change{}
	}
	ch, _ := b.ApplyWithSelection(Cursor(r.From+len(s)), Replace(r.From, r.To, s))
	return ch
}

// InsertNewline inserts a line break at the caret, or replaces the active
// selection.
func (b *Buffer) InsertNewline() Change { return b.InsertText("\n") }

// DeleteBackward applies backspace semantics: one grapheme cluster, or the
// active selection.
func (b *Buffer) DeleteBackward() Change {
	if !b.sel.IsEmpty() {
		return b.DeleteSelection()
	}
	head := b.sel.Head
	if head == 0 {
		return Change{}
	}
	n := 1
	if b.text[head-1] != '\n' {
		start := LineStart(b.text, head)
		n = grapheme.LastLen(b.text[start:head])
	}
	ch, _ := b.ApplyWithSelection(Cursor(head-n), Delete(head-n, head))
	return ch
}

// DeleteForward applies delete-key semantics.
func (b *Buffer) DeleteForward() Change {
	if !b.sel.IsEmpty() {
		return b.DeleteSelection()
	}
	head := b.sel.Head
	if head >= len(b.text) {
		return Change{}
	}
	n := 1
	if b.text[head] != '\n' {
		n = grapheme.FirstLen(b.text[head:LineEnd(b.text, head)])
	}
	ch, _ := b.ApplyWithSelection(Cursor(head), Delete(head, head+n))
	return ch
}

// DeleteSelection deletes the active selection, if any.
func (b *Buffer) DeleteSelection() Change {
	r := b.sel.Range()
	if r.IsEmpty() {
		return Change{}
	}
	ch, _ := b.ApplyWithSelection(Cursor(r.From), Delete(r.From, r.To))
	return ch
}
