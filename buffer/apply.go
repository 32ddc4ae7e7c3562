package buffer

import (
	"fmt"
	"strings"
)

// Apply applies edits atomically. Every edit is interpreted against the
// document before the transaction; edits must be sorted by offset and must
// not overlap (touching is allowed).
//
// The selection is mapped through the resulting change set, so a caret at an
// insertion point ends up after the inserted text.
func (b *Buffer) Apply(edits ...Edit) (Change, error) {
	return b.apply(edits, nil)
}

// ApplyWithSelection applies edits like Apply and then sets sel, expressed in
// post-edit coordinates.
func (b *Buffer) ApplyWithSelection(sel Selection, edits ...Edit) (Change, error) {
	return b.apply(edits, &sel)
}

func (b *Buffer) apply(edits []Edit, sel *Selection) (Change, error) {
	if err := b.validate(edits); err != nil {
		return Change{}, err
	}

	var (
		sb      strings.Builder
		changes ChangeSet
		last    int
	)
	sb.Grow(len(b.text))
	for _, e := range edits {
		deleted := b.text[e.Offset:e.End()]
		if deleted == e.Insert {
			continue
		}
		sb.WriteString(b.text[last:e.Offset])
		sb.WriteString(e.Insert)
		last = e.End()
		changes = append(changes, ChangedRange{
			Offset:    e.Offset,
			OldLength: e.DeleteLength,
			NewLength: len(e.Insert),
		})
	}

	if len(changes) == 0 {
		if sel != nil {
			b.SetSelection(*sel)
		}
		return Change{}, nil
	}
	sb.WriteString(b.text[last:])

	prev := b.snapshot()
	before := b.sel
	b.text = sb.String()

	next := Selection{
		Anchor: changes.MapPos(before.Anchor, AssocAfter),
		Head:   changes.MapPos(before.Head, AssocAfter),
	}
	if sel != nil {
		next = *sel
	}
	b.sel = b.clampSelection(next)
	b.selVersion++
	b.version++
	b.recordUndo(prev)
	return b.commitChange(prev.version, before, changes), nil
}

func (b *Buffer) validate(edits []Edit) error {
	prevEnd := 0
	for i, e := range edits {
		if e.Offset < 0 || e.DeleteLength < 0 || e.End() > len(b.text) {
			return fmt.Errorf("edit %d [%d,%d) in document of length %d: %w",
				i, e.Offset, e.End(), len(b.text), ErrEditOutOfRange)
		}
		if e.Offset < prevEnd {
			return fmt.Errorf("edit %d at %d before previous end %d: %w",
				i, e.Offset, prevEnd, ErrOverlappingEdits)
		}
		prevEnd = e.End()
	}
	return nil
}

func (b *Buffer) commitChange(versionBefore uint64, selBefore Selection, changes ChangeSet) Change {
	b.lastChange = Change{
		VersionBefore:   versionBefore,
		VersionAfter:    b.version,
		SelectionBefore: selBefore,
		SelectionAfter:  b.sel,
		Changes:         changes,
	}
	b.hasLastChange = true
	return cloneChange(b.lastChange)
}
