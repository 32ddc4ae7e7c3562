package syntax

import (
	"context"

	"github.com/iw2rmb/vistex/buffer"
)

// Parser builds trees. It is safe for concurrent use as long as its Grammar
// is.
type Parser struct {
	grammar Grammar
}

func NewParser(g Grammar) *Parser {
	return &Parser{grammar: g}
}

// Stats describes the work done by one (re)parse.
type Stats struct {
	Full bool
	// Container is the kind of the node whose content was re-derived.
	Container Kind
	// Widened counts how many times the dirty container grew to its parent
	// because the re-derived content did not fit.
	Widened int
	Reused  int
	Built   int
}

// Parse builds a tree from scratch. Cancellation is checked between
// top-level items; a cancelled parse returns ctx.Err() and no tree.
func (p *Parser) Parse(ctx context.Context, text string, version uint64) (*Tree, error) {
	s := &scanner{text: text, g: p.grammar, ctx: ctx}
	items, _, _ := s.parseSeq(0, len(text), frame{mode: modeDoc})
	if s.err != nil {
		return nil, s.err
	}
	return newTree(text, version, s.document(items)), nil
}

func (s *scanner) document(items []item) *Node {
	n := s.newNode(KindDocument, "", 0, len(s.text), items, 0)
	n.hashed = false
	return n
}

// Reparse derives the tree for text from prev and the changes that turned
// prev's source into text. Only the content of the smallest container
// enclosing every change is re-derived; the rest of prev is shared.
func (p *Parser) Reparse(text string, version uint64, prev *Tree, changes buffer.ChangeSet) (*Tree, Stats) {
	if prev == nil {
		t, _ := p.Parse(context.Background(), text, version)
		return t, Stats{Full: true, Container: KindDocument, Built: t.Len()}
	}
	if changes.Empty() {
		if text == prev.text {
			return newTree(text, version, prev.root), Stats{}
		}
		changes = wholeChange(prev.text, text)
	}
	span, _, _ := changes.Span()
	return p.rederive(text, version, prev, prev.containerFor(span), changes, true)
}

// Refresh re-derives the container enclosing ref without reusing nodes or
// inheriting identities, so ref and everything around it in that container
// get fresh identities.
func (p *Parser) Refresh(prev *Tree, ref NodeRef) (*Tree, Stats) {
	c := prev.Parent(ref)
	for c != NoNode && !prev.isContainer(c) {
		c = prev.Parent(c)
	}
	if c == NoNode {
		c = prev.Root()
	}
	return p.rederive(prev.text, prev.version, prev, c, nil, false)
}

func (p *Parser) rederive(text string, version uint64, prev *Tree, ref NodeRef, changes buffer.ChangeSet, keep bool) (*Tree, Stats) {
	var st Stats
	delta := changes.Delta()
	for {
		region, f := prev.contentRegion(ref)
		limit := region.To + delta
		s := &scanner{text: text, g: p.grammar}
		if keep {
			s.reuse, s.inherit = buildIndexes(prev, ref, changes, true)
		}
		items, end, closed := s.parseSeq(region.From, limit, f)
		st.Reused += s.reused
		st.Built += s.built
		if ref == prev.Root() || (!closed && end == limit && !s.hitLimit) {
			st.Container = prev.Kind(ref)
			st.Full = ref == prev.Root()
			root := prev.splice(ref, s.rebuilt(prev, ref, region.From, limit, items), delta)
			return newTree(text, version, root), st
		}
		st.Widened++
		ref = prev.enclosingContainer(ref)
	}
}

// rebuilt returns the re-derived container node, keeping its identity.
func (s *scanner) rebuilt(prev *Tree, ref NodeRef, from, to int, items []item) *Node {
	old := prev.Node(ref)
	start := from
	length := to - from
	switch old.kind {
	case KindDocument:
		start, length = 0, len(s.text)
	case KindGroup, KindOptional:
		start--
		length += 2
	}
	kids := make([]Child, len(items))
	for i, it := range items {
		kids[i] = Child{Offset: it.start - start, Node: it.node}
	}
	return old.withChildren(kids, length)
}

// splice replaces the node at ref with n and path-copies its ancestors,
// shifting the siblings that follow by delta.
func (t *Tree) splice(ref NodeRef, n *Node, delta int) *Node {
	for {
		parent := t.Parent(ref)
		if parent == NoNode {
			return n
		}
		old := t.Node(parent)
		kids := make([]Child, len(old.children))
		copy(kids, old.children)
		shift := false
		for i, c := range t.Children(parent) {
			if shift {
				kids[i].Offset += delta
			}
			if c == ref {
				kids[i].Node = n
				shift = true
			}
		}
		n = old.withChildren(kids, old.length+delta)
		ref = parent
	}
}

func (t *Tree) isContainer(ref NodeRef) bool {
	n := t.Node(ref)
	switch n.kind {
	case KindDocument, KindEnvBody:
		return true
	case KindGroup, KindOptional:
		return !n.Broken() && !n.Has(FlagEnvName)
	}
	return false
}

// contentRegion returns the content range of a container and the frame its
// content is parsed in.
func (t *Tree) contentRegion(ref NodeRef) (buffer.Range, frame) {
	e := t.entries[ref]
	depth := 0
	for p := e.parent; p != NoNode; p = t.entries[p].parent {
		if t.entries[p].node.kind == KindGroup {
			depth++
		}
	}
	switch e.node.kind {
	case KindGroup:
		return buffer.Range{From: e.start + 1, To: e.end - 1}, frame{mode: modeGroup, depth: depth + 1}
	case KindOptional:
		return buffer.Range{From: e.start + 1, To: e.end - 1}, frame{mode: modeOptional, depth: depth}
	case KindEnvBody:
		return buffer.Range{From: e.start, To: e.end}, frame{mode: modeEnv, env: e.node.name, depth: depth}
	}
	return buffer.Range{From: 0, To: len(t.text)}, frame{mode: modeDoc}
}

// containerFor returns the innermost container whose content covers span.
// An environment body only qualifies when the span starts strictly inside
// it, since text typed right after \begin{…} may attach to the begin line.
func (t *Tree) containerFor(span buffer.Range) NodeRef {
	best := t.Root()
	ref := t.Root()
	for {
		next := NoNode
		for _, c := range t.Children(ref) {
			e := t.entries[c]
			if e.start > span.From {
				break
			}
			if span.To <= e.end {
				next = c
				break
			}
		}
		if next == NoNode {
			return best
		}
		ref = next
		if !t.isContainer(ref) {
			continue
		}
		region, _ := t.contentRegion(ref)
		if !region.Covers(span) {
			continue
		}
		if t.Kind(ref) == KindEnvBody && span.From <= region.From {
			continue
		}
		best = ref
	}
}

func (t *Tree) enclosingContainer(ref NodeRef) NodeRef {
	for p := t.Parent(ref); p != NoNode; p = t.Parent(p) {
		if t.isContainer(p) {
			return p
		}
	}
	return t.Root()
}

// wholeChange describes the replacement of a by b as a single changed range
// trimmed of their common prefix and suffix.
func wholeChange(a, b string) buffer.ChangeSet {
	pre := 0
	for pre < len(a) && pre < len(b) && a[pre] == b[pre] {
		pre++
	}
	suf := 0
	for suf < len(a)-pre && suf < len(b)-pre && a[len(a)-1-suf] == b[len(b)-1-suf] {
		suf++
	}
	return buffer.ChangeSet{{Offset: pre, OldLength: len(a) - pre - suf, NewLength: len(b) - pre - suf}}
}
