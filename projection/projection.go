// Package projection extracts the prose of a document for spell checking,
// with a map from every projected byte back to its source offset.
package projection

import (
	"sort"
	"strings"

	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/registry"
	"github.com/iw2rmb/vistex/syntax"
)

// Segment maps Text[Offset:Offset+Len] to Source. Source text copied as is
// maps byte for byte; a Rendered segment (a glyph, logo or shorthand)
// maps as a whole.
type Segment struct {
	Offset   int
	Len      int
	Source   buffer.Range
	Rendered bool
}

type Projection struct {
	Text     string
	Segments []Segment
}

// Project renders the document as plain text. Text nodes and the argument
// content of text-bearing commands are copied, replacement commands emit
// their rendered text and unknown commands stay literal. Command names,
// braces, options, comments, math, verbatim bodies and widgets without
// text are left out.
func Project(t *syntax.Tree, reg *registry.Registry) Projection {
	pr := &projector{t: t, reg: reg, src: t.Source()}
	pr.visit(t.Root())
	return Projection{Text: pr.b.String(), Segments: pr.segs}
}

type projector struct {
	t    *syntax.Tree
	reg  *registry.Registry
	src  string
	b    strings.Builder
	segs []Segment
}

func (pr *projector) copy(r buffer.Range) {
	if r.IsEmpty() {
		return
	}
	if n := len(pr.segs); n > 0 && !pr.segs[n-1].Rendered && pr.segs[n-1].Source.To == r.From {
		pr.segs[n-1].Source.To = r.To
		pr.segs[n-1].Len += r.Len()
	} else {
		pr.segs = append(pr.segs, Segment{Offset: pr.b.Len(), Len: r.Len(), Source: r})
	}
	pr.b.WriteString(pr.src[r.From:r.To])
}

func (pr *projector) render(r buffer.Range, text string) {
	if text == "" {
		return
	}
	pr.segs = append(pr.segs, Segment{Offset: pr.b.Len(), Len: len(text), Source: r, Rendered: true})
	pr.b.WriteString(text)
}

func (pr *projector) visit(ref syntax.NodeRef) {
	t := pr.t
	switch t.Kind(ref) {
	case syntax.KindText:
		pr.copy(t.Range(ref))
	case syntax.KindDocument, syntax.KindGroup, syntax.KindEnvBody:
		for _, c := range t.Children(ref) {
			pr.visit(c)
		}
	case syntax.KindEnvironment:
		if _, body, _, ok := t.EnvParts(ref); ok {
			pr.visit(body)
		}
	case syntax.KindCommand:
		pr.command(ref)
	}
}

func (pr *projector) command(ref syntax.NodeRef) {
	t := pr.t
	spec, ok := pr.reg.Command(t.Name(ref))
	if !ok {
		pr.copy(t.Range(ref))
		return
	}
	switch {
	case prose(spec):
		if args := t.RequiredArgs(ref); len(args) > 0 {
			pr.visit(args[0])
		}
	case spec.Visibility == registry.VisibilityReplace && spec.Widget == registry.WidgetText:
		if t.Node(ref).Has(syntax.FlagIncomplete) {
			return
		}
		args := make([]string, len(t.RequiredArgs(ref)))
		for i := range args {
			args[i], _ = t.ArgText(ref, i)
		}
		pr.render(t.Range(ref), spec.Render(args...))
	}
}

// prose reports whether a command's first argument is running text.
func prose(spec registry.CommandSpec) bool {
	switch spec.Visibility {
	case registry.VisibilityFormat, registry.VisibilityStyled, registry.VisibilitySection:
		return spec.Name != "url"
	}
	return spec.Widget == registry.WidgetFootnote && spec.Visibility == registry.VisibilityReplace
}

// ToSource maps a projection offset to its source offset. Offsets inside
// rendered text map to the start of their source.
func (p Projection) ToSource(off int) (int, bool) {
	i := sort.Search(len(p.Segments), func(i int) bool {
		s := p.Segments[i]
		return s.Offset+s.Len > off
	})
	if i == len(p.Segments) {
		if n := len(p.Segments); n > 0 && off == len(p.Text) {
			return p.Segments[n-1].Source.To, true
		}
		return 0, false
	}
	s := p.Segments[i]
	if off < s.Offset {
		return 0, false
	}
	if s.Rendered {
		return s.Source.From, true
	}
	return s.Source.From + off - s.Offset, true
}

// FromSource maps a source offset to its projection offset. Offsets inside
// markup that is not projected report false; offsets inside a rendered
// command map to the start of its text.
func (p Projection) FromSource(pos int) (int, bool) {
	i := sort.Search(len(p.Segments), func(i int) bool {
		return p.Segments[i].Source.To > pos
	})
	if i == len(p.Segments) || pos < p.Segments[i].Source.From {
		return 0, false
	}
	s := p.Segments[i]
	if s.Rendered {
		return s.Offset, true
	}
	return s.Offset + pos - s.Source.From, true
}
