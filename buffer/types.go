package buffer

// Pos points into the logical document by (row, col).
// Row is 0-based; Col counts grapheme clusters within the row.
type Pos struct {
	Row int
	Col int
}

// Range is a half-open byte range [From, To).
type Range struct {
	From int
	To   int
}

// Len returns the number of bytes covered by r.
func (r Range) Len() int { return r.To - r.From }

// IsEmpty reports whether r covers no bytes.
func (r Range) IsEmpty() bool { return r.From >= r.To }

// Contains reports whether pos lies in [From, To).
func (r Range) Contains(pos int) bool { return pos >= r.From && pos < r.To }

// Touches reports whether pos lies in [From, To], both ends inclusive.
func (r Range) Touches(pos int) bool { return pos >= r.From && pos <= r.To }

// Covers reports whether o lies entirely inside r.
func (r Range) Covers(o Range) bool { return o.From >= r.From && o.To <= r.To }

// Intersects reports whether r and o share at least one byte.
func (r Range) Intersects(o Range) bool { return r.From < o.To && o.From < r.To }

// Overlaps is like Intersects but treats empty ranges as points that
// overlap any range touching them.
func (r Range) Overlaps(o Range) bool { return r.From <= o.To && o.From <= r.To }

// Selection is an anchor/head pair of byte offsets. Head is the caret.
type Selection struct {
	Anchor int
	Head   int
}

// Cursor returns a collapsed selection at off.
func Cursor(off int) Selection { return Selection{Anchor: off, Head: off} }

// IsEmpty reports whether the selection is a bare caret.
func (s Selection) IsEmpty() bool { return s.Anchor == s.Head }

// From returns the lower end of the selection.
func (s Selection) From() int { return minInt(s.Anchor, s.Head) }

// To returns the upper end of the selection.
func (s Selection) To() int { return maxInt(s.Anchor, s.Head) }

// Range returns the normalized selection range.
func (s Selection) Range() Range { return Range{From: s.From(), To: s.To()} }

// Edit replaces DeleteLength bytes at Offset with Insert.
type Edit struct {
	Offset       int
	DeleteLength int
	Insert       string
}

// Insert returns an edit inserting text at off.
func Insert(off int, text string) Edit { return Edit{Offset: off, Insert: text} }

// Delete returns an edit removing [from, to).
func Delete(from, to int) Edit { return Edit{Offset: from, DeleteLength: to - from} }

// Replace returns an edit replacing [from, to) with text.
func Replace(from, to int, text string) Edit {
	return Edit{Offset: from, DeleteLength: to - from, Insert: text}
}

// End returns the end offset of the deleted range.
func (e Edit) End() int { return e.Offset + e.DeleteLength }

func clampInt(v, min, max int) int {
	if max < min {
		return min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
