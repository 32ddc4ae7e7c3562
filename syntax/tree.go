package syntax

import (
	"fmt"
	"strings"

	"github.com/iw2rmb/vistex/buffer"
)

// NodeRef indexes a node in a Tree's arena. Refs are only meaningful for the
// tree that produced them.
type NodeRef int32

// NoNode is the ref returned when no node matches.
const NoNode NodeRef = -1

type entry struct {
	node     *Node
	start    int
	end      int
	parent   NodeRef
	depth    int32
	firstKid int32
	numKids  int32
}

// Tree is an immutable syntax snapshot of one buffer version.
type Tree struct {
	text    string
	version uint64
	root    *Node
	entries []entry
	kids    []NodeRef
	byID    map[uint64]NodeRef
}

func newTree(text string, version uint64, root *Node) *Tree {
	t := &Tree{
		text:    text,
		version: version,
		root:    root,
		entries: make([]entry, 0, 64),
		byID:    make(map[uint64]NodeRef, 64),
	}
	t.add(root, 0, NoNode, 0)
	return t
}

func (t *Tree) add(n *Node, start int, parent NodeRef, depth int32) NodeRef {
	ref := NodeRef(len(t.entries))
	t.entries = append(t.entries, entry{
		node:   n,
		start:  start,
		end:    start + n.length,
		parent: parent,
		depth:  depth,
	})
	t.byID[n.id] = ref
	if len(n.children) == 0 {
		return ref
	}
	first := len(t.kids)
	t.kids = append(t.kids, make([]NodeRef, len(n.children))...)
	for i, c := range n.children {
		t.kids[first+i] = t.add(c.Node, start+c.Offset, ref, depth+1)
	}
	t.entries[ref].firstKid = int32(first)
	t.entries[ref].numKids = int32(len(n.children))
	return ref
}

// Source returns the full text the tree was built from.
func (t *Tree) Source() string { return t.text }

// Version returns the buffer version the tree describes.
func (t *Tree) Version() uint64 { return t.version }

// Root returns the document node ref.
func (t *Tree) Root() NodeRef { return 0 }

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int { return len(t.entries) }

func (t *Tree) valid(ref NodeRef) bool { return ref >= 0 && int(ref) < len(t.entries) }

func (t *Tree) Node(ref NodeRef) *Node { return t.entries[ref].node }

func (t *Tree) Kind(ref NodeRef) Kind { return t.entries[ref].node.kind }

func (t *Tree) Name(ref NodeRef) string { return t.entries[ref].node.name }

func (t *Tree) Range(ref NodeRef) buffer.Range {
	e := t.entries[ref]
	return buffer.Range{From: e.start, To: e.end}
}

func (t *Tree) Start(ref NodeRef) int { return t.entries[ref].start }

func (t *Tree) End(ref NodeRef) int { return t.entries[ref].end }

// Text returns the source slice covered by ref.
func (t *Tree) Text(ref NodeRef) string {
	e := t.entries[ref]
	return t.text[e.start:e.end]
}

func (t *Tree) Parent(ref NodeRef) NodeRef { return t.entries[ref].parent }

func (t *Tree) Depth(ref NodeRef) int { return int(t.entries[ref].depth) }

func (t *Tree) NumChildren(ref NodeRef) int { return int(t.entries[ref].numKids) }

func (t *Tree) Child(ref NodeRef, i int) NodeRef {
	e := t.entries[ref]
	return t.kids[int(e.firstKid)+i]
}

// Children returns the child refs of ref. The slice aliases the arena and
// must not be modified.
func (t *Tree) Children(ref NodeRef) []NodeRef {
	e := t.entries[ref]
	return t.kids[e.firstKid : e.firstKid+e.numKids]
}

// Find returns the ref of the node with the given identity.
func (t *Tree) Find(id uint64) (NodeRef, bool) {
	ref, ok := t.byID[id]
	return ref, ok
}

// Resolve returns the innermost node whose range contains pos. The end of
// the document resolves to the root.
func (t *Tree) Resolve(pos int) NodeRef {
	ref := t.Root()
	for {
		next := NoNode
		for _, c := range t.Children(ref) {
			e := t.entries[c]
			if pos < e.start {
				break
			}
			if pos < e.end {
				next = c
				break
			}
		}
		if next == NoNode {
			return ref
		}
		ref = next
	}
}

// Ancestors calls fn for ref and each of its ancestors, innermost first,
// until fn returns false.
func (t *Tree) Ancestors(ref NodeRef, fn func(NodeRef) bool) {
	for ref != NoNode {
		if !fn(ref) {
			return
		}
		ref = t.entries[ref].parent
	}
}

// Common returns the nearest common ancestor of a and b.
func (t *Tree) Common(a, b NodeRef) NodeRef {
	for t.entries[a].depth > t.entries[b].depth {
		a = t.entries[a].parent
	}
	for t.entries[b].depth > t.entries[a].depth {
		b = t.entries[b].parent
	}
	for a != b {
		a = t.entries[a].parent
		b = t.entries[b].parent
	}
	return a
}

// Walk visits in preorder every node whose range overlaps r. Returning false
// from fn skips the node's children.
func (t *Tree) Walk(r buffer.Range, fn func(NodeRef) bool) {
	t.walk(t.Root(), r, fn)
}

func (t *Tree) walk(ref NodeRef, r buffer.Range, fn func(NodeRef) bool) {
	if !fn(ref) {
		return
	}
	for _, c := range t.Children(ref) {
		e := t.entries[c]
		if e.end < r.From {
			continue
		}
		if e.start > r.To {
			break
		}
		t.walk(c, r, fn)
	}
}

// Args returns the Group and Optional children of a command.
func (t *Tree) Args(ref NodeRef) []NodeRef {
	var out []NodeRef
	for _, c := range t.Children(ref) {
		if k := t.Kind(c); k == KindGroup || k == KindOptional {
			out = append(out, c)
		}
	}
	return out
}

// RequiredArgs returns the brace-group arguments of a command.
func (t *Tree) RequiredArgs(ref NodeRef) []NodeRef {
	var out []NodeRef
	for _, c := range t.Children(ref) {
		if t.Kind(c) == KindGroup {
			out = append(out, c)
		}
	}
	return out
}

// NameRange returns the range of a command's control sequence including the
// backslash and any star.
func (t *Tree) NameRange(ref NodeRef) buffer.Range {
	e := t.entries[ref]
	to := e.end
	if e.numKids > 0 {
		to = t.entries[t.kids[e.firstKid]].start
	}
	return buffer.Range{From: e.start, To: to}
}

// Inner returns the content range of a group, bracket, math or verbatim
// node: its range without the delimiters. Broken nodes have no inner range
// and report false.
func (t *Tree) Inner(ref NodeRef) (buffer.Range, bool) {
	e := t.entries[ref]
	n := e.node
	if n.Broken() {
		return buffer.Range{}, false
	}
	switch n.kind {
	case KindGroup, KindOptional:
		return buffer.Range{From: e.start + 1, To: e.end - 1}, true
	case KindMath:
		open := 1
		src := t.text[e.start:e.end]
		if strings.HasPrefix(src, "$$") || strings.HasPrefix(src, `\`) {
			open = 2
		}
		return buffer.Range{From: e.start + open, To: e.end - open}, true
	case KindVerbatim:
		from := e.start + 1 + len(n.name) + 1
		if n.Has(FlagStarred) {
			from++
		}
		return buffer.Range{From: from, To: e.end - 1}, true
	case KindEnvBody:
		return buffer.Range{From: e.start, To: e.end}, true
	}
	return buffer.Range{}, false
}

// ArgText returns the inner text of a command's i-th brace argument.
func (t *Tree) ArgText(ref NodeRef, i int) (string, bool) {
	args := t.RequiredArgs(ref)
	if i < 0 || i >= len(args) {
		return "", false
	}
	in, ok := t.Inner(args[i])
	if !ok {
		return "", false
	}
	return t.text[in.From:in.To], true
}

// EnvParts returns the begin command, body and end command of a closed
// environment.
func (t *Tree) EnvParts(ref NodeRef) (begin, body, end NodeRef, ok bool) {
	if t.Kind(ref) != KindEnvironment || t.NumChildren(ref) != 3 {
		return NoNode, NoNode, NoNode, false
	}
	kids := t.Children(ref)
	return kids[0], kids[1], kids[2], true
}

// EnclosingEnv returns the nearest environment whose body contains ref.
func (t *Tree) EnclosingEnv(ref NodeRef) NodeRef {
	for p := t.Parent(ref); p != NoNode; p = t.Parent(p) {
		if t.Kind(p) == KindEnvBody {
			return t.Parent(p)
		}
	}
	return NoNode
}

// CheckCoverage verifies that the arena tiles the source losslessly: the
// root spans the text, children are ordered, disjoint and nested, and every
// known content hash matches its slice. Concatenating each node's own
// tokens with its children's text therefore rebuilds the source exactly.
func (t *Tree) CheckCoverage() error {
	root := t.entries[t.Root()]
	if root.start != 0 || root.end != len(t.text) {
		return fmt.Errorf("root spans [%d,%d), text has %d bytes", root.start, root.end, len(t.text))
	}
	for i := range t.entries {
		ref := NodeRef(i)
		e := t.entries[ref]
		if e.end < e.start {
			return fmt.Errorf("%s node %d: negative range [%d,%d)", e.node.kind, ref, e.start, e.end)
		}
		if h, ok := e.node.Hash(); ok && h != hashText(t.text[e.start:e.end]) {
			return fmt.Errorf("%s node %d: hash does not match [%d,%d)", e.node.kind, ref, e.start, e.end)
		}
		prev := e.start
		for _, c := range t.Children(ref) {
			ce := t.entries[c]
			if ce.start < prev || ce.end > e.end {
				return fmt.Errorf("%s node %d: child [%d,%d) outside [%d,%d) or overlapping", e.node.kind, ref, ce.start, ce.end, prev, e.end)
			}
			prev = ce.end
		}
	}
	var b strings.Builder
	t.rebuild(&b, t.Root())
	if b.String() != t.text {
		return fmt.Errorf("reconstructed text differs from source")
	}
	return nil
}

func (t *Tree) rebuild(b *strings.Builder, ref NodeRef) {
	e := t.entries[ref]
	pos := e.start
	for _, c := range t.Children(ref) {
		b.WriteString(t.text[pos:t.entries[c].start])
		t.rebuild(b, c)
		pos = t.entries[c].end
	}
	b.WriteString(t.text[pos:e.end])
}

// Dump renders the tree as an indented outline, one node per line.
func (t *Tree) Dump() string { return t.dump(false) }

// dump writes one line per node; with flags set it lists every flag rather
// than only brokenness.
func (t *Tree) dump(flags bool) string {
	var b strings.Builder
	for i, e := range t.entries {
		b.WriteString(strings.Repeat("  ", int(e.depth)))
		b.WriteString(e.node.kind.String())
		if e.node.name != "" {
			b.WriteString(" " + e.node.name)
		}
		fmt.Fprintf(&b, " [%d,%d)", e.start, e.end)
		switch {
		case flags && e.node.flags != 0:
			fmt.Fprintf(&b, " flags=%05b", e.node.flags)
		case e.node.Broken():
			b.WriteString(" broken")
		}
		if i < len(t.entries)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
