package decoration

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/preamble"
	"github.com/iw2rmb/vistex/registry"
	"github.com/iw2rmb/vistex/syntax"
	"github.com/iw2rmb/vistex/visibility"
)

// Input is everything a plan depends on.
type Input struct {
	Tree     *syntax.Tree
	Registry *registry.Registry
	// Viewport limits planning to nodes overlapping it. The zero range
	// plans the whole document.
	Viewport  buffer.Range
	Selection buffer.Selection
	// Editing holds identities of nodes being edited through a widget.
	Editing map[uint64]bool
	DocID   string
}

type planner struct {
	in   Input
	vis  visibility.Input
	t    *syntax.Tree
	text string
	view buffer.Range
	out  Set
	skip map[syntax.NodeRef]bool

	pre       preamble.Preamble
	hasPre    bool
	collapsed bool
}

// Plan computes the decorations for the viewport.
func Plan(in Input) Set {
	if in.Tree == nil || in.Registry == nil {
		return nil
	}
	p := &planner{
		in: in,
		vis: visibility.Input{
			Tree:      in.Tree,
			Registry:  in.Registry,
			Selection: in.Selection,
			Editing:   in.Editing,
		},
		t:    in.Tree,
		text: in.Tree.Source(),
		view: in.Viewport,
		skip: make(map[syntax.NodeRef]bool),
	}
	if p.view == (buffer.Range{}) {
		p.view = buffer.Range{From: 0, To: len(p.text)}
	}
	p.pre, p.hasPre = preamble.Collapse(in.Tree, in.Registry)
	p.preambleWidget()

	p.t.Walk(p.view, p.visit)

	if p.collapsed {
		kept := p.out[:0]
		for _, d := range p.out {
			if d.Payload.Class == "preamble" || !d.Range.Intersects(p.pre.Range) {
				kept = append(kept, d)
			}
		}
		p.out = kept
	}
	p.out.sort()
	return p.out
}

func (p *planner) visit(ref syntax.NodeRef) bool {
	if p.skip[ref] {
		return false
	}
	if p.collapsed && ref != p.t.Root() && p.pre.Range.Covers(p.t.Range(ref)) {
		return false
	}
	switch p.t.Kind(ref) {
	case syntax.KindCommand, syntax.KindVerbatim:
		return p.command(ref)
	case syntax.KindEnvironment:
		p.environment(ref)
	case syntax.KindMath:
		p.mark(ref, p.t.Range(ref), "math", nil, "math")
		return false
	case syntax.KindComment:
		p.mark(ref, p.t.Range(ref), "comment", nil, "comment")
		return false
	}
	return true
}

func (p *planner) id(ref syntax.NodeRef, role string) string {
	return StableID(p.in.DocID, p.t.Node(ref).ID(), role)
}

func (p *planner) add(ref syntax.NodeRef, kind Kind, r buffer.Range, payload Payload, role string) {
	p.out = append(p.out, Decoration{
		Kind:     kind,
		Range:    r,
		Payload:  payload,
		StableID: p.id(ref, role),
		Node:     p.t.Node(ref).ID(),
	})
}

func (p *planner) hide(ref syntax.NodeRef, r buffer.Range, role string) {
	if r.IsEmpty() {
		return
	}
	p.add(ref, KindMark, r, Payload{Hide: true}, role)
}

func (p *planner) mark(ref syntax.NodeRef, r buffer.Range, class string, attrs map[string]string, role string) {
	if r.IsEmpty() || class == "" {
		return
	}
	p.add(ref, KindMark, r, Payload{Class: class, Attrs: attrs}, role)
}

func (p *planner) widget(ref syntax.NodeRef, r buffer.Range, payload Payload, role string) {
	p.add(ref, KindWidget, r, payload, role)
}

func (p *planner) command(ref syntax.NodeRef) bool {
	n := p.t.Node(ref)
	name := n.Name()
	if n.Kind() == syntax.KindVerbatim {
		name = "verb"
	}
	spec, ok := p.in.Registry.Command(name)
	if !ok {
		return n.Kind() == syntax.KindCommand
	}
	if spec.LineClass != "" {
		p.lines(ref, p.t.Range(ref), spec.LineClass)
	}

	d := visibility.Evaluate(p.vis, ref)
	if !d.Hidden() {
		return n.Kind() == syntax.KindCommand
	}
	switch spec.Visibility {
	case registry.VisibilityFormat:
		p.format(ref, spec, d, nil)
	case registry.VisibilitySection:
		p.format(ref, spec, d, map[string]string{
			"command": spec.Name,
			"level":   strconv.Itoa(spec.Level),
		})
	case registry.VisibilityStyled:
		p.styled(ref, spec)
	case registry.VisibilityReplace:
		p.replace(ref, spec)
		return false
	}
	return true
}

// firstArg returns the first brace argument of a command and its content.
func (p *planner) firstArg(ref syntax.NodeRef) (arg, inner buffer.Range, ok bool) {
	args := p.t.RequiredArgs(ref)
	if len(args) == 0 {
		return buffer.Range{}, buffer.Range{}, false
	}
	inner, ok = p.t.Inner(args[0])
	return p.t.Range(args[0]), inner, ok
}

// format hides the command name and, unless the decision keeps them, the
// braces of the first argument, and styles the argument content.
func (p *planner) format(ref syntax.NodeRef, spec registry.CommandSpec, d visibility.Decision, attrs map[string]string) {
	arg, inner, ok := p.firstArg(ref)
	if !ok {
		return
	}
	r := p.t.Range(ref)
	p.hide(ref, buffer.Range{From: r.From, To: arg.From}, "name")
	if !d.Shows(visibility.ShowBraces) {
		p.hide(ref, buffer.Range{From: arg.From, To: inner.From}, "open")
		p.hide(ref, buffer.Range{From: inner.To, To: arg.To}, "close")
	}
	class := spec.Class
	if spec.Visibility == registry.VisibilitySection {
		class = "heading"
	}
	p.mark(ref, inner, class, attrs, "style")
}

// styled hides all markup around the first argument's content.
func (p *planner) styled(ref syntax.NodeRef, spec registry.CommandSpec) {
	_, inner, ok := p.firstArg(ref)
	if !ok {
		return
	}
	r := p.t.Range(ref)
	p.hide(ref, buffer.Range{From: r.From, To: inner.From}, "open")
	p.hide(ref, buffer.Range{From: inner.To, To: r.To}, "close")
	p.mark(ref, inner, spec.Class, nil, "style")
}

func (p *planner) argTexts(ref syntax.NodeRef) []string {
	if p.t.Kind(ref) == syntax.KindVerbatim {
		in, ok := p.t.Inner(ref)
		if !ok {
			return nil
		}
		return []string{p.text[in.From:in.To]}
	}
	args := p.t.RequiredArgs(ref)
	out := make([]string, len(args))
	for i := range args {
		out[i], _ = p.t.ArgText(ref, i)
	}
	return out
}

// replace substitutes the whole node with a widget.
func (p *planner) replace(ref syntax.NodeRef, spec registry.CommandSpec) {
	r := p.t.Range(ref)
	args := p.argTexts(ref)
	first := ""
	if len(args) > 0 {
		first = args[0]
	}
	payload := Payload{Class: spec.Class}

	switch spec.Widget {
	case registry.WidgetText:
		payload.Text = spec.Render(args...)
	case registry.WidgetFootnote:
		payload.Text = spec.Icon
		payload.Attrs = map[string]string{"note": first}
	case registry.WidgetGraphics:
		payload.Text = strings.TrimSpace(spec.Icon + " " + first)
		payload.Attrs = map[string]string{"src": first}
	case registry.WidgetItem:
		payload.Text = p.itemLabel(ref)
	case registry.WidgetTitle:
		if !p.hasPre {
			return
		}
		payload.Text = titleCard(p.pre)
		payload.Block = true
		payload.Attrs = map[string]string{"title": p.pre.Title.Display()}
		for i, a := range p.pre.Authors {
			payload.Attrs["author-"+strconv.Itoa(i)] = a.Display()
		}
	}
	p.widget(ref, r, payload, "widget")
}

func titleCard(pre preamble.Preamble) string {
	var b strings.Builder
	if pre.HasTitle {
		b.WriteString(pre.Title.Display())
	}
	for i, a := range pre.Authors {
		switch {
		case i == 0 && b.Len() > 0:
			b.WriteString("\n")
		case i > 0:
			b.WriteString(", ")
		}
		b.WriteString(a.Display())
	}
	return b.String()
}

// itemLabel is the bullet, number or description label of an \item.
func (p *planner) itemLabel(ref syntax.NodeRef) string {
	style := registry.ListBullet
	if env := p.t.EnclosingEnv(ref); env != syntax.NoNode {
		if spec, ok := p.in.Registry.Environment(p.t.Name(env)); ok && spec.List != registry.ListNone {
			style = spec.List
		}
	}
	for _, a := range p.t.Args(ref) {
		if p.t.Kind(a) != syntax.KindOptional {
			continue
		}
		if in, ok := p.t.Inner(a); ok {
			return p.text[in.From:in.To]
		}
	}
	switch style {
	case registry.ListNumbered:
		n := 0
		for _, c := range p.t.Children(p.t.Parent(ref)) {
			if p.t.Kind(c) == syntax.KindCommand && p.t.Name(c) == "item" {
				n++
			}
			if c == ref {
				break
			}
		}
		return fmt.Sprintf("%d.", n)
	case registry.ListDescription:
		return ""
	}
	return "•"
}

func (p *planner) environment(ref syntax.NodeRef) {
	spec, ok := p.in.Registry.Environment(p.t.Name(ref))
	if !ok {
		return
	}
	r := p.t.Range(ref)
	if spec.LineClass != "" {
		p.lines(ref, r, spec.LineClass)
	}
	if spec.Centered || p.hasCentering(ref) {
		p.lines(ref, r, "environment-centered")
	}

	begin, end := visibility.EnvironmentMarkup(p.vis, ref)
	b, _, e, ok := p.t.EnvParts(ref)
	if !ok {
		return
	}
	if begin.Hidden() {
		payload := Payload{Class: "environment-begin", Block: true}
		if spec.Frame {
			payload = p.frameTitle(b)
		}
		p.widget(b, p.t.Range(b), payload, "begin")
		p.skip[b] = true
	}
	if end.Hidden() {
		payload := Payload{Class: "environment-end", Block: true}
		if spec.Frame {
			payload.Class = "frame-divider"
		}
		p.widget(e, p.t.Range(e), payload, "end")
		p.skip[e] = true
	}
}

// hasCentering reports whether \centering is a direct child of the body.
func (p *planner) hasCentering(ref syntax.NodeRef) bool {
	_, body, _, ok := p.t.EnvParts(ref)
	if !ok {
		return false
	}
	for _, c := range p.t.Children(body) {
		if p.t.Kind(c) == syntax.KindCommand && p.t.Name(c) == "centering" {
			return true
		}
	}
	return false
}

func (p *planner) frameTitle(begin syntax.NodeRef) Payload {
	title, _ := p.t.ArgText(begin, 1)
	subtitle, _ := p.t.ArgText(begin, 2)
	title = strings.ReplaceAll(title, `\\`, "\n")
	text := title
	if subtitle != "" {
		text += "\n" + subtitle
	}
	return Payload{
		Class: "frame-title",
		Text:  text,
		Block: true,
		Attrs: map[string]string{"title": title, "subtitle": subtitle},
	}
}

// lines tags every line of r that overlaps the viewport, clipped to r. A
// blank line gets an empty range at its start.
func (p *planner) lines(ref syntax.NodeRef, r buffer.Range, class string) {
	row := 0
	for pos := r.From; pos <= r.To; row++ {
		ls, le := buffer.LineStart(p.text, pos), buffer.LineEnd(p.text, pos)
		clip := buffer.Range{From: max(ls, r.From), To: min(le, r.To)}
		line := buffer.Range{From: ls, To: le}
		if line.Overlaps(p.view) {
			p.add(ref, KindLine, clip, Payload{Class: class}, "line:"+class+":"+strconv.Itoa(row))
		}
		if le >= r.To {
			break
		}
		pos = le + 1
	}
}

// preambleWidget collapses the preamble unless the selection is in it or it
// is being edited.
func (p *planner) preambleWidget() {
	if !p.hasPre || p.pre.Range.IsEmpty() || !p.pre.Range.Overlaps(p.view) {
		return
	}
	if p.in.Editing[p.pre.Owner] {
		return
	}
	sel := p.in.Selection
	if sel.IsEmpty() && p.pre.Range.Touches(sel.Head) || !sel.IsEmpty() && sel.Range().Overlaps(p.pre.Range) {
		return
	}
	p.collapsed = true
	attrs := make(map[string]string)
	for _, e := range p.pre.Entries() {
		attrs[e.ID] = e.Display()
	}
	p.add(p.t.Root(), KindWidget, p.pre.Range, Payload{
		Class: "preamble",
		Text:  p.pre.Summary(),
		Block: true,
		Attrs: attrs,
	}, "preamble")
}
