// Package render draws a decorated LaTeX source for a terminal.
//
// Lines is a pure layout pass: it applies a decoration set to the source and
// returns the visible rows, each segment still pointing at the source bytes
// it came from. Render turns those rows into styled terminal text.
package render

import (
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/mattn/go-runewidth"

	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/decoration"
)

// Segment is a run of visible text with uniform styling.
type Segment struct {
	Text string
	// Source is the offset of Text in the source, or -1 for widget text.
	Source  int
	Classes []string
	// Token is the lexer token type of raw source text.
	Token  chroma.TokenType
	Widget bool
}

// End returns the source offset after the segment. Widget segments have no
// source extent.
func (s Segment) End() int {
	if s.Source < 0 {
		return -1
	}
	return s.Source + len(s.Text)
}

// Line is one visible row.
type Line struct {
	// Start and End bound the source line the row is drawn from, without
	// its newline.
	Start, End int
	Classes    []string
	Segments   []Segment
	// Rule is set for divider rows that are drawn across the full width.
	Rule bool
}

// Text returns the row's visible text.
func (l Line) Text() string {
	var sb strings.Builder
	for _, s := range l.Segments {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// HasClass reports whether class is attached to the row.
func (l Line) HasClass(class string) bool {
	for _, c := range l.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// Centered reports whether the row is drawn centered.
func (l Line) Centered() bool { return l.HasClass("environment-centered") }

// Cell returns the cell column of a source offset on this row.
func (l Line) Cell(off int) (int, bool) {
	col := 0
	for _, s := range l.Segments {
		if s.Source >= 0 && off >= s.Source && off < s.End() {
			return col + runewidth.StringWidth(s.Text[:off-s.Source]), true
		}
		col += runewidth.StringWidth(s.Text)
	}
	if off == l.End {
		return col, true
	}
	return 0, false
}

// Locate returns the index of the row showing source offset off.
func Locate(lines []Line, off int) (int, bool) {
	fallback := -1
	for i, l := range lines {
		if off < l.Start || off > l.End {
			continue
		}
		for _, s := range l.Segments {
			if s.Source >= 0 && off >= s.Source && off <= s.End() {
				return i, true
			}
		}
		if fallback < 0 {
			fallback = i
		}
	}
	return fallback, fallback >= 0
}

type token struct {
	From, To int
	Type     chroma.TokenType
}

// lex tokenises text with the TeX lexer. Tokens are contiguous and start at
// offset 0.
func lex(text string) []token {
	l := lexers.Get("tex")
	if l == nil || text == "" {
		return nil
	}
	it, err := chroma.Coalesce(l).Tokenise(nil, text)
	if err != nil {
		return nil
	}
	var out []token
	off := 0
	for tok := it(); tok != chroma.EOF && off < len(text); tok = it() {
		n := min(len(tok.Value), len(text)-off)
		if n > 0 {
			out = append(out, token{From: off, To: off + n, Type: tok.Type})
		}
		off += n
	}
	return out
}

func tokenAt(tokens []token, off int) chroma.TokenType {
	i := sort.Search(len(tokens), func(i int) bool { return tokens[i].To > off })
	if i < len(tokens) && tokens[i].From <= off {
		return tokens[i].Type
	}
	return chroma.Text
}

// hiddenRanges returns the merged source ranges that are not drawn: hidden
// marks and everything a widget replaces.
func hiddenRanges(set decoration.Set) []buffer.Range {
	var rs []buffer.Range
	for _, d := range set {
		if d.Kind == decoration.KindWidget || d.Kind == decoration.KindMark && d.Payload.Hide {
			if !d.Range.IsEmpty() {
				rs = append(rs, d.Range)
			}
		}
	}
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].From != rs[j].From {
			return rs[i].From < rs[j].From
		}
		return rs[i].To < rs[j].To
	})
	merged := make([]buffer.Range, 0, len(rs))
	for _, r := range rs {
		if n := len(merged); n > 0 && r.From <= merged[n-1].To {
			merged[n-1].To = max(merged[n-1].To, r.To)
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

func hiddenAt(hidden []buffer.Range, off int) bool {
	i := sort.Search(len(hidden), func(i int) bool { return hidden[i].To > off })
	return i < len(hidden) && hidden[i].From <= off
}

func hiddenIn(hidden []buffer.Range, r buffer.Range) bool {
	i := sort.Search(len(hidden), func(i int) bool { return hidden[i].To > r.From })
	return i < len(hidden) && hidden[i].From < r.To
}

// Lines lays out text under set. Hidden ranges are elided, widget text is
// drawn at the widget's start, and a source line that draws nothing but
// hidden markup or empty block widgets is dropped.
func Lines(text string, set decoration.Set) []Line {
	hidden := hiddenRanges(set)
	widgets := set.Of(decoration.KindWidget)
	var marks decoration.Set
	for _, d := range set.Of(decoration.KindMark) {
		if !d.Payload.Hide && d.Payload.Class != "" {
			marks = append(marks, d)
		}
	}
	lineClasses := set.LineClasses(text)
	tokens := lex(text)

	var out []Line
	w := 0
	for ls := 0; ; {
		le := buffer.LineEnd(text, ls)
		lb := &lineBuilder{
			text:    text,
			start:   ls,
			end:     le,
			classes: lineClasses[ls],
			hidden:  hidden,
			marks:   marks,
			tokens:  tokens,
		}
		for w < len(widgets) && widgets[w].Range.From < ls {
			w++
		}
		first := w
		for w < len(widgets) && widgets[w].Range.From <= le {
			w++
		}
		out = append(out, lb.build(widgets[first:w])...)
		if le >= len(text) {
			break
		}
		ls = le + 1
	}
	return out
}

type lineBuilder struct {
	text       string
	start, end int
	classes    []string
	hidden     []buffer.Range
	marks      decoration.Set
	tokens     []token
	widgets    decoration.Set

	rows    []Line
	content bool
	block   bool
	rule    bool
}

func (b *lineBuilder) cur() *Line { return &b.rows[len(b.rows)-1] }

func (b *lineBuilder) newRow() {
	b.rows = append(b.rows, Line{Start: b.start, End: b.end, Classes: b.classes})
}

func (b *lineBuilder) widget(d decoration.Decoration) {
	if d.Payload.Block {
		b.block = true
		if d.Payload.Class != "" {
			b.classes = append(append([]string(nil), b.classes...), d.Payload.Class)
			for i := range b.rows {
				b.rows[i].Classes = b.classes
			}
		}
		if d.Payload.Class == "frame-divider" {
			b.rule = true
		}
	}
	var classes []string
	if d.Payload.Class != "" {
		classes = []string{d.Payload.Class}
	}
	for i, part := range strings.Split(d.Payload.Text, "\n") {
		if i > 0 {
			b.newRow()
		}
		if part == "" {
			continue
		}
		b.content = true
		l := b.cur()
		l.Segments = append(l.Segments, Segment{Text: part, Source: -1, Classes: classes, Widget: true})
	}
}

func (b *lineBuilder) classesAt(off int) []string {
	var out []string
	for _, m := range b.marks {
		if m.Range.From <= off && off < m.Range.To {
			out = append(out, m.Payload.Class)
		}
	}
	return out
}

func (b *lineBuilder) cuts() []int {
	cuts := []int{b.start, b.end}
	add := func(off int) {
		if off > b.start && off < b.end {
			cuts = append(cuts, off)
		}
	}
	for _, h := range b.hidden {
		add(h.From)
		add(h.To)
	}
	for _, m := range b.marks {
		add(m.Range.From)
		add(m.Range.To)
	}
	for _, w := range b.widgets {
		add(w.Range.From)
	}
	i := sort.Search(len(b.tokens), func(i int) bool { return b.tokens[i].To > b.start })
	for ; i < len(b.tokens) && b.tokens[i].From < b.end; i++ {
		add(b.tokens[i].To)
	}
	sort.Ints(cuts)
	out := cuts[:0]
	for i, c := range cuts {
		if i == 0 || c != cuts[i-1] {
			out = append(out, c)
		}
	}
	return out
}

func (b *lineBuilder) build(widgets decoration.Set) []Line {
	b.widgets = widgets
	b.newRow()
	nl := min(b.end+1, len(b.text))
	hid := hiddenIn(b.hidden, buffer.Range{From: b.start, To: max(nl, b.start+1)})

	cuts := b.cuts()
	wi := 0
	for i := 0; i+1 < len(cuts); i++ {
		a, z := cuts[i], cuts[i+1]
		for ; wi < len(widgets) && widgets[wi].Range.From <= a; wi++ {
			b.widget(widgets[wi])
		}
		if hiddenAt(b.hidden, a) {
			continue
		}
		b.content = true
		l := b.cur()
		l.Segments = append(l.Segments, Segment{
			Text:    b.text[a:z],
			Source:  a,
			Classes: b.classesAt(a),
			Token:   tokenAt(b.tokens, a),
		})
	}
	for ; wi < len(widgets); wi++ {
		b.widget(widgets[wi])
	}

	if b.rule {
		b.rows = b.rows[:1]
		b.rows[0].Segments = nil
		b.rows[0].Rule = true
		return b.rows
	}
	if !b.content && (hid || b.block) {
		return nil
	}
	return b.rows
}
