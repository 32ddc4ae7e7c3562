package buffer

type bufferSnapshot struct {
	text    string
	sel     Selection
	version uint64
}

type historyState struct {
	undo []bufferSnapshot
	redo []bufferSnapshot
}

func (b *Buffer) snapshot() bufferSnapshot {
	return bufferSnapshot{
		text:    b.text,
		sel:     b.sel,
		version: b.version,
	}
}

func (b *Buffer) recordUndo(prev bufferSnapshot) {
	limit := b.opt.HistoryLimit
	if limit <= 0 {
		return
	}

	b.hist.undo = append(b.hist.undo, prev)
	if len(b.hist.undo) > limit {
		b.hist.undo = b.hist.undo[len(b.hist.undo)-limit:]
	}
	b.hist.redo = nil
}

func (b *Buffer) CanUndo() bool { return len(b.hist.undo) > 0 }

func (b *Buffer) CanRedo() bool { return len(b.hist.redo) > 0 }

// Undo restores the previous text. The recorded change is the minimal
// single replacement between the two texts, so the parser can still reparse
// incrementally.
func (b *Buffer) Undo() (Change, bool) {
	if len(b.hist.undo) == 0 {
		return Change{}, false
	}
	cur := b.snapshot()
	i := len(b.hist.undo) - 1
	prev := b.hist.undo[i]
	b.hist.undo = b.hist.undo[:i]
	b.hist.redo = append(b.hist.redo, cur)
	return b.restore(cur, prev), true
}

func (b *Buffer) Redo() (Change, bool) {
	if len(b.hist.redo) == 0 {
		return Change{}, false
	}
	cur := b.snapshot()
	i := len(b.hist.redo) - 1
	next := b.hist.redo[i]
	b.hist.redo = b.hist.redo[:i]

	limit := b.opt.HistoryLimit
	if limit > 0 {
		b.hist.undo = append(b.hist.undo, cur)
		if len(b.hist.undo) > limit {
			b.hist.undo = b.hist.undo[len(b.hist.undo)-limit:]
		}
	}
	return b.restore(cur, next), true
}

func (b *Buffer) restore(cur, target bufferSnapshot) Change {
	b.text = target.text
	b.sel = b.clampSelection(target.sel)
	b.selVersion++
	b.version++

	var changes ChangeSet
	if cr, ok := diffRange(cur.text, target.text); ok {
		changes = ChangeSet{cr}
	}
	return b.commitChange(cur.version, cur.sel, changes)
}
