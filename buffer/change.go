package buffer

// Assoc picks the side a mapped position sticks to when text is inserted
// exactly at it.
type Assoc int8

const (
	AssocBefore Assoc = -1
	AssocAfter  Assoc = 1
)

// ChangedRange describes one effective replacement. Offset and OldLength are
// in pre-edit coordinates.
type ChangedRange struct {
	Offset    int
	OldLength int
	NewLength int
}

// OldEnd returns the end of the replaced range in pre-edit coordinates.
func (c ChangedRange) OldEnd() int { return c.Offset + c.OldLength }

// ChangeSet is a sorted, non-overlapping list of changed ranges.
type ChangeSet []ChangedRange

// Empty reports whether the set holds no changes.
func (cs ChangeSet) Empty() bool { return len(cs) == 0 }

// Delta returns the total length difference introduced by the set.
func (cs ChangeSet) Delta() int {
	d := 0
	for _, c := range cs {
		d += c.NewLength - c.OldLength
	}
	return d
}

// Size returns the number of bytes touched on either side of the set.
func (cs ChangeSet) Size() int {
	n := 0
	for _, c := range cs {
		n += maxInt(c.OldLength, c.NewLength)
	}
	return n
}

// Span returns the covering range of all changes in old and new coordinates.
func (cs ChangeSet) Span() (oldSpan Range, newSpan Range, ok bool) {
	if len(cs) == 0 {
		return Range{}, Range{}, false
	}
	first := cs[0]
	last := cs[len(cs)-1]
	oldSpan = Range{From: first.Offset, To: last.OldEnd()}

	delta := 0
	for _, c := range cs[:len(cs)-1] {
		delta += c.NewLength - c.OldLength
	}
	newSpan = Range{From: first.Offset, To: last.Offset + delta + last.NewLength}
	return oldSpan, newSpan, true
}

// MapPos maps an offset from the pre-edit document into the post-edit one.
func (cs ChangeSet) MapPos(pos int, assoc Assoc) int {
	delta := 0
	for _, c := range cs {
		if pos < c.Offset {
			break
		}
		if pos > c.OldEnd() {
			delta += c.NewLength - c.OldLength
			continue
		}
		switch {
		case pos == c.Offset && c.OldLength > 0:
			return c.Offset + delta
		case pos == c.OldEnd() && c.OldLength > 0:
			return c.Offset + delta + c.NewLength
		case assoc == AssocBefore:
			return c.Offset + delta
		default:
			return c.Offset + delta + c.NewLength
		}
	}
	return pos + delta
}

// MapPosStrict is like MapPos but reports false for offsets that fell
// strictly inside a replaced range.
func (cs ChangeSet) MapPosStrict(pos int, assoc Assoc) (int, bool) {
	for _, c := range cs {
		if pos > c.Offset && pos < c.OldEnd() {
			return 0, false
		}
	}
	return cs.MapPos(pos, assoc), true
}

// MapRange maps r through the set. From sticks after insertions at its
// boundary when r is non-empty and before otherwise; To sticks before.
func (cs ChangeSet) MapRange(r Range) Range {
	from := cs.MapPos(r.From, AssocAfter)
	to := cs.MapPos(r.To, AssocBefore)
	if to < from {
		to = from
	}
	return Range{From: from, To: to}
}

// Touches reports whether any change intersects or abuts r (old coordinates).
func (cs ChangeSet) Touches(r Range) bool {
	for _, c := range cs {
		if c.Offset <= r.To && c.OldEnd() >= r.From {
			return true
		}
	}
	return false
}

// Change is a normalized, versioned mutation payload.
type Change struct {
	VersionBefore   uint64
	VersionAfter    uint64
	SelectionBefore Selection
	SelectionAfter  Selection
	Changes         ChangeSet
}

// LastChange returns the most recent effective change.
func (b *Buffer) LastChange() (Change, bool) {
	if !b.hasLastChange {
		return Change{}, false
	}
	return cloneChange(b.lastChange), true
}

func cloneChange(in Change) Change {
	out := in
	out.Changes = append(ChangeSet(nil), in.Changes...)
	return out
}

// diffRange returns the minimal single replacement turning before into after.
func diffRange(before, after string) (ChangedRange, bool) {
	if before == after {
		return ChangedRange{}, false
	}
	prefix := 0
	for prefix < len(before) && prefix < len(after) && before[prefix] == after[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(before)-prefix && suffix < len(after)-prefix &&
		before[len(before)-1-suffix] == after[len(after)-1-suffix] {
		suffix++
	}
	return ChangedRange{
		Offset:    prefix,
		OldLength: len(before) - prefix - suffix,
		NewLength: len(after) - prefix - suffix,
	}, true
}
