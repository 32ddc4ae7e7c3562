package buffer

import (
	"errors"
	"testing"
)

func TestApply_SortedEditsAgainstOriginalDocument(t *testing.T) {
	b := New("hello world", Options{})
	ch, err := b.Apply(Replace(0, 5, "HELLO"), Insert(11, "!"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got, want := b.Text(), "HELLO world!"; got != want {
		t.Fatalf("text: got %q, want %q", got, want)
	}
	if got, want := b.Version(), uint64(1); got != want {
		t.Fatalf("version: got %d, want %d", got, want)
	}
	if got, want := len(ch.Changes), 2; got != want {
		t.Fatalf("changes: got %d, want %d", got, want)
	}
	if got, want := ch.Changes[1], (ChangedRange{Offset: 11, OldLength: 0, NewLength: 1}); got != want {
		t.Fatalf("second change: got %+v, want %+v", got, want)
	}
}

func TestApply_RejectsOverlapAndOutOfRange(t *testing.T) {
	b := New("abc", Options{})
	if _, err := b.Apply(Delete(0, 2), Delete(1, 3)); !errors.Is(err, ErrOverlappingEdits) {
		t.Fatalf("overlap error: got %v, want %v", err, ErrOverlappingEdits)
	}
	if _, err := b.Apply(Delete(2, 9)); !errors.Is(err, ErrEditOutOfRange) {
		t.Fatalf("range error: got %v, want %v", err, ErrEditOutOfRange)
	}
	if got, want := b.Text(), "abc"; got != want {
		t.Fatalf("text after rejected edits: got %q, want %q", got, want)
	}
	if got := b.Version(); got != 0 {
		t.Fatalf("version after rejected edits: got %d, want 0", got)
	}
}

func TestApply_NoopKeepsVersion(t *testing.T) {
	b := New("abc", Options{})
	if _, err := b.Apply(Replace(0, 1, "a")); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := b.Version(); got != 0 {
		t.Fatalf("version after no-op: got %d, want 0", got)
	}
	if _, ok := b.LastChange(); ok {
		t.Fatalf("no-op must not record a change")
	}
}

func TestApply_MapsCaretAfterInsertion(t *testing.T) {
	b := New("ab", Options{})
	b.SetCursor(1)
	if _, err := b.Apply(Insert(1, "XY")); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got, want := b.Cursor(), 3; got != want {
		t.Fatalf("cursor: got %d, want %d", got, want)
	}
}

func TestSelectionMovesDoNotBumpVersion(t *testing.T) {
	b := New("abc", Options{})
	b.SetCursor(2)
	if got := b.Version(); got != 0 {
		t.Fatalf("version after caret move: got %d, want 0", got)
	}
	if got, want := b.SelectionVersion(), uint64(1); got != want {
		t.Fatalf("selection version: got %d, want %d", got, want)
	}
}

func TestInsertAndDelete(t *testing.T) {
	b := New("", Options{})
	b.InsertText("\\dots")
	b.InsertNewline()
	if got, want := b.Text(), "\\dots\n"; got != want {
		t.Fatalf("text: got %q, want %q", got, want)
	}
	b.DeleteBackward()
	b.DeleteBackward()
	if got, want := b.Text(), "\\dot"; got != want {
		t.Fatalf("text after backspace: got %q, want %q", got, want)
	}
	b.SetCursor(0)
	b.DeleteForward()
	if got, want := b.Text(), "dot"; got != want {
		t.Fatalf("text after delete: got %q, want %q", got, want)
	}
}

func TestDeleteBackward_RemovesWholeGrapheme(t *testing.T) {
	b := New("a\U0001F3F7", Options{})
	b.SetCursor(b.Len())
	b.DeleteBackward()
	if got, want := b.Text(), "a"; got != want {
		t.Fatalf("text: got %q, want %q", got, want)
	}
}

func TestUndoRedo_RecordsMinimalChange(t *testing.T) {
	b := New("\\textbf{x}", Options{})
	b.SetCursor(9)
	b.InsertText("yz")

	ch, ok := b.Undo()
	if !ok {
		t.Fatalf("undo must succeed")
	}
	if got, want := b.Text(), "\\textbf{x}"; got != want {
		t.Fatalf("text after undo: got %q, want %q", got, want)
	}
	if got, want := ch.Changes, (ChangeSet{{Offset: 9, OldLength: 2, NewLength: 0}}); len(got) != 1 || got[0] != want[0] {
		t.Fatalf("undo changes: got %+v, want %+v", got, want)
	}

	if _, ok := b.Redo(); !ok {
		t.Fatalf("redo must succeed")
	}
	if got, want := b.Text(), "\\textbf{xyz}"; got != want {
		t.Fatalf("text after redo: got %q, want %q", got, want)
	}
}
