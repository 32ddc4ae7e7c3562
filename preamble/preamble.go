// Package preamble aggregates the metadata commands that precede
// \begin{document} into one editable summary: a title and an ordered list
// of authors, each tied to its exact source range.
package preamble

import (
	"fmt"
	"strings"

	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/registry"
	"github.com/iw2rmb/vistex/syntax"
)

type Role uint8

const (
	RoleTitle Role = iota
	RoleAuthor
)

func (r Role) String() string {
	if r == RoleTitle {
		return "title"
	}
	return "author"
}

// Entry is one editable field of the preamble.
type Entry struct {
	ID   string
	Role Role
	// Text is the source text of the entry.
	Text string
	// Range is the exact source range of Text.
	Range buffer.Range
	// Owner is the identity of the \title or \author command holding the
	// entry.
	Owner uint64
}

// Display returns the entry text as shown: \\ becomes a line break and
// runs of whitespace collapse.
func (e Entry) Display() string {
	lines := strings.Split(e.Text, `\\`)
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.Join(lines, "\n")
}

// Rewrite returns the single edit replacing the entry's source with text.
func (e Entry) Rewrite(text string) buffer.Edit {
	return buffer.Replace(e.Range.From, e.Range.To, text)
}

// Preamble is the collapsed document head.
type Preamble struct {
	// Range covers the source from the start of the document to the end of
	// \begin{document}.
	Range    buffer.Range
	Title    Entry
	HasTitle bool
	Authors  []Entry
	// Owner is the identity of the document node.
	Owner uint64
}

// Entries returns the title (when present) followed by the authors.
func (p Preamble) Entries() []Entry {
	out := make([]Entry, 0, len(p.Authors)+1)
	if p.HasTitle {
		out = append(out, p.Title)
	}
	return append(out, p.Authors...)
}

// Entry looks an entry up by ID.
func (p Preamble) Entry(id string) (Entry, bool) {
	for _, e := range p.Entries() {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Summary renders the preamble as the collapsed widget shows it.
func (p Preamble) Summary() string {
	var parts []string
	if p.HasTitle {
		parts = append(parts, p.Title.Display())
	}
	if len(p.Authors) > 0 {
		names := make([]string, len(p.Authors))
		for i, a := range p.Authors {
			names[i] = a.Display()
		}
		parts = append(parts, strings.Join(names, ", "))
	}
	if len(parts) == 0 {
		return "Preamble"
	}
	return strings.Join(parts, "\n")
}

// Map shifts every range through changes. Entries no change touches move by
// a pure offset. An insertion at an entry's edge joins the entry, since the
// edge lies inside the argument; Text is left as it was.
func (p Preamble) Map(changes buffer.ChangeSet) Preamble {
	out := p
	out.Range = changes.MapRange(p.Range)
	if p.HasTitle {
		out.Title = mapEntry(p.Title, changes)
	}
	out.Authors = make([]Entry, len(p.Authors))
	for i, a := range p.Authors {
		out.Authors[i] = mapEntry(a, changes)
	}
	return out
}

func mapEntry(e Entry, changes buffer.ChangeSet) Entry {
	e.Range = buffer.Range{
		From: changes.MapPos(e.Range.From, buffer.AssocBefore),
		To:   changes.MapPos(e.Range.To, buffer.AssocAfter),
	}
	return e
}

// Collapse scans the top-level nodes preceding \begin{document}. It reports
// false when the document has no document environment.
func Collapse(t *syntax.Tree, reg *registry.Registry) (Preamble, bool) {
	root := t.Root()
	p := Preamble{Owner: t.Node(root).ID()}
	for _, ref := range t.Children(root) {
		switch t.Kind(ref) {
		case syntax.KindEnvironment:
			spec, ok := reg.Environment(t.Name(ref))
			if !ok || !spec.Document {
				continue
			}
			begin, _, _, ok := t.EnvParts(ref)
			if !ok {
				return Preamble{}, false
			}
			p.Range = buffer.Range{From: 0, To: t.End(begin)}
			return p, true
		case syntax.KindCommand:
			switch t.Name(ref) {
			case "title":
				if p.HasTitle {
					continue
				}
				if r, ok := argRange(t, ref); ok {
					p.Title = entry(t, "title", RoleTitle, r, ref)
					p.HasTitle = true
				}
			case "author":
				for _, r := range authorRanges(t, ref) {
					id := fmt.Sprintf("author-%d", len(p.Authors))
					p.Authors = append(p.Authors, entry(t, id, RoleAuthor, r, ref))
				}
			}
		}
	}
	return Preamble{}, false
}

func entry(t *syntax.Tree, id string, role Role, r buffer.Range, owner syntax.NodeRef) Entry {
	return Entry{
		ID:    id,
		Role:  role,
		Text:  t.Source()[r.From:r.To],
		Range: r,
		Owner: t.Node(owner).ID(),
	}
}

func argRange(t *syntax.Tree, ref syntax.NodeRef) (buffer.Range, bool) {
	args := t.RequiredArgs(ref)
	if len(args) == 0 {
		return buffer.Range{}, false
	}
	in, ok := t.Inner(args[0])
	if !ok {
		return buffer.Range{}, false
	}
	return trim(t.Source(), in), true
}

// authorRanges splits an \author argument at \and into trimmed name ranges.
func authorRanges(t *syntax.Tree, ref syntax.NodeRef) []buffer.Range {
	args := t.RequiredArgs(ref)
	if len(args) == 0 {
		return nil
	}
	in, ok := t.Inner(args[0])
	if !ok {
		return nil
	}
	var out []buffer.Range
	from := in.From
	flush := func(to int) {
		if r := trim(t.Source(), buffer.Range{From: from, To: to}); !r.IsEmpty() {
			out = append(out, r)
		}
	}
	for _, c := range t.Children(args[0]) {
		if t.Kind(c) == syntax.KindCommand && t.Name(c) == "and" {
			flush(t.Start(c))
			from = t.End(c)
		}
	}
	flush(in.To)
	return out
}

func trim(text string, r buffer.Range) buffer.Range {
	for r.From < r.To && isSpace(text[r.From]) {
		r.From++
	}
	for r.To > r.From && isSpace(text[r.To-1]) {
		r.To--
	}
	return r
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
