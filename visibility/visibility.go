// Package visibility decides, for each decorable node, whether its raw
// markup or its rendered form is shown. Decisions are a pure function of the
// tree, the registry, the selection and the set of nodes being edited; they
// are recomputed on every event and never stored.
package visibility

import (
	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/registry"
	"github.com/iw2rmb/vistex/syntax"
)

type State uint8

const (
	// Revealed shows the node's raw markup and no decoration.
	Revealed State = iota
	// Hidden shows the rendered form; Decision.Show lists the markup tokens
	// that stay visible.
	Hidden
)

func (s State) String() string {
	if s == Hidden {
		return "hidden"
	}
	return "revealed"
}

// Mask selects markup tokens that remain visible on a hidden node.
type Mask uint8

const (
	ShowName Mask = 1 << iota
	ShowBraces
)

type Decision struct {
	State State
	Show  Mask
}

func (d Decision) Hidden() bool { return d.State == Hidden }

// Shows reports whether the token is visible: always on revealed nodes and
// per mask on hidden ones.
func (d Decision) Shows(m Mask) bool { return d.State == Revealed || d.Show&m != 0 }

var (
	revealed = Decision{State: Revealed}
	hidden   = Decision{State: Hidden}
)

// Input is everything a decision depends on.
type Input struct {
	Tree      *syntax.Tree
	Registry  *registry.Registry
	Selection buffer.Selection
	// Editing holds the identities of nodes currently edited through a
	// widget; they stay revealed.
	Editing map[uint64]bool
}

// Evaluate decides the visibility of a command or verbatim node. Nodes with
// no registry entry are always revealed.
func Evaluate(in Input, ref syntax.NodeRef) Decision {
	t := in.Tree
	n := t.Node(ref)
	if n.Broken() || n.Has(syntax.FlagIncomplete) || in.Editing[n.ID()] {
		return revealed
	}

	name := n.Name()
	switch n.Kind() {
	case syntax.KindCommand:
	case syntax.KindVerbatim:
		name = "verb"
	default:
		return revealed
	}
	spec, ok := in.Registry.Command(name)
	if !ok {
		return revealed
	}

	m := measure(t, ref)
	switch spec.Visibility {
	case registry.VisibilityFormat:
		return format(in.Selection, m)
	case registry.VisibilityStyled:
		return styled(in.Selection, m)
	case registry.VisibilitySection:
		return section(t.Source(), in.Selection, m)
	case registry.VisibilityReplace:
		return replace(in.Selection, m, spec.ArgCount > 0 || n.Kind() == syntax.KindVerbatim)
	}
	return revealed
}

// metrics are the markup token positions of a command.
type metrics struct {
	node    buffer.Range
	arg     buffer.Range // first required argument including braces
	inner   buffer.Range // its content
	hasArg  bool
	anyVoid bool // some required argument is empty
}

func measure(t *syntax.Tree, ref syntax.NodeRef) metrics {
	m := metrics{node: t.Range(ref)}
	if t.Kind(ref) == syntax.KindVerbatim {
		if in, ok := t.Inner(ref); ok {
			m.arg = buffer.Range{From: in.From - 1, To: in.To + 1}
			m.inner = in
			m.hasArg = true
			m.anyVoid = in.IsEmpty()
		}
		return m
	}
	for i, arg := range t.RequiredArgs(ref) {
		in, ok := t.Inner(arg)
		if !ok {
			m.anyVoid = true
			continue
		}
		if in.IsEmpty() {
			m.anyVoid = true
		}
		if i == 0 {
			m.arg = t.Range(arg)
			m.inner = in
			m.hasArg = true
		}
	}
	return m
}

// strictlyInside reports whether sel lies inside the argument content without
// touching either brace.
func (m metrics) strictlyInside(sel buffer.Selection) bool {
	return m.inner.From < sel.From() && sel.To() < m.inner.To
}

func (m metrics) touchesNode(sel buffer.Selection) bool {
	return sel.Range().Overlaps(m.node)
}

// touchesMarkup reports whether sel touches the markup before or after the
// argument content, inclusive of both ends.
func (m metrics) touchesMarkup(sel buffer.Selection) bool {
	before := buffer.Range{From: m.node.From, To: m.inner.From}
	after := buffer.Range{From: m.inner.To, To: m.node.To}
	if sel.IsEmpty() {
		return before.Touches(sel.Head) || after.Touches(sel.Head)
	}
	r := sel.Range()
	return r.Intersects(before) || r.Intersects(after)
}

func format(sel buffer.Selection, m metrics) Decision {
	if !m.hasArg {
		return revealed
	}
	if m.inner.IsEmpty() || m.touchesNode(sel) && !m.strictlyInside(sel) {
		return Decision{State: Hidden, Show: ShowBraces}
	}
	return hidden
}

func styled(sel buffer.Selection, m metrics) Decision {
	if !m.hasArg || m.inner.IsEmpty() || m.touchesMarkup(sel) {
		return revealed
	}
	return hidden
}

func section(text string, sel buffer.Selection, m metrics) Decision {
	if !m.hasArg || m.inner.IsEmpty() {
		return revealed
	}
	if !sel.IsEmpty() {
		if m.touchesMarkup(sel) {
			return Decision{State: Hidden, Show: ShowBraces}
		}
		return hidden
	}
	head := sel.Head
	lines := buffer.Range{From: buffer.LineStart(text, m.node.From), To: buffer.LineEnd(text, m.node.To)}
	if lines.Touches(head) && !m.strictlyInside(sel) {
		return Decision{State: Hidden, Show: ShowBraces}
	}
	return hidden
}

func replace(sel buffer.Selection, m metrics, needsArg bool) Decision {
	if needsArg && (!m.hasArg || m.anyVoid) {
		return revealed
	}
	if sel.IsEmpty() {
		if m.node.Touches(sel.Head) {
			return revealed
		}
		return hidden
	}
	if sel.Range().Intersects(m.node) {
		return revealed
	}
	return hidden
}

// EnvironmentMarkup decides the \begin and \end lines of an environment
// whose spec hides markup: each is revealed while the caret is on it or the
// selection intersects it.
func EnvironmentMarkup(in Input, env syntax.NodeRef) (begin, end Decision) {
	t := in.Tree
	n := t.Node(env)
	if n.Broken() || in.Editing[n.ID()] {
		return revealed, revealed
	}
	spec, ok := in.Registry.Environment(n.Name())
	if !ok || !spec.HideMarkup {
		return revealed, revealed
	}
	b, _, e, ok := t.EnvParts(env)
	if !ok {
		return revealed, revealed
	}
	return lineDecision(t, b, in.Selection), lineDecision(t, e, in.Selection)
}

func lineDecision(t *syntax.Tree, ref syntax.NodeRef, sel buffer.Selection) Decision {
	r := t.Range(ref)
	text := t.Source()
	lines := buffer.Range{From: buffer.LineStart(text, r.From), To: buffer.LineEnd(text, r.To)}
	if sel.IsEmpty() && lines.Touches(sel.Head) || !sel.IsEmpty() && sel.Range().Overlaps(lines) {
		return revealed
	}
	return hidden
}
