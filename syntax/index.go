package syntax

import "github.com/iw2rmb/vistex/buffer"

type inheritKey struct {
	kind  Kind
	name  string
	start int
}

// inheritIndex hands out the identities of old nodes to re-derived nodes of
// the same kind and name at the same mapped start. Each identity is handed
// out once.
type inheritIndex struct {
	after  map[inheritKey]uint64
	before map[inheritKey]uint64
	used   map[uint64]bool
}

func (ix *inheritIndex) take(kind Kind, name string, start int) (uint64, bool) {
	if ix == nil {
		return 0, false
	}
	key := inheritKey{kind: kind, name: name, start: start}
	for _, m := range [...]map[inheritKey]uint64{ix.after, ix.before} {
		if id, ok := m[key]; ok && !ix.used[id] {
			ix.used[id] = true
			return id, true
		}
	}
	return 0, false
}

// reusable is an old subtree that may be placed into the new tree as is.
type reusable struct {
	node *Node
	ctx  frameClass
}

// frameClass is the part of a frame that changes how a construct parses:
// which closers stop text runs and whether a stray brace ends the region.
type frameClass struct {
	mode     mode
	topLevel bool
}

func classOf(f frame) frameClass {
	m := f.mode
	if m == modeEnv {
		m = modeDoc
	}
	return frameClass{mode: m, topLevel: f.depth == 0}
}

func (s *scanner) tryReuse(pos, limit int, f frame) *Node {
	for _, r := range s.reuse[pos] {
		n := r.node
		if pos+n.length > limit {
			continue
		}
		if r.ctx != classOf(f) {
			continue
		}
		if hashText(s.text[pos:pos+n.length]) != n.hash {
			continue
		}
		s.reused++
		return n
	}
	return nil
}

// buildIndexes collects, from the old region under container, the subtrees
// that no change touches (reusable by reference) and the identities that
// re-derived nodes may inherit.
func buildIndexes(prev *Tree, container NodeRef, changes buffer.ChangeSet, reuse bool) (map[int][]reusable, *inheritIndex) {
	ix := &inheritIndex{
		after:  make(map[inheritKey]uint64),
		before: make(map[inheritKey]uint64),
		used:   make(map[uint64]bool),
	}
	var pool map[int][]reusable
	if reuse {
		pool = make(map[int][]reusable)
	}
	var visit func(ref NodeRef, f frame, pooled bool)
	visit = func(ref NodeRef, f frame, pooled bool) {
		e := prev.entries[ref]
		n := e.node
		// A command looks up to two bytes past its end for arguments.
		if reuse && pooled && n.hashed && !n.fragile && standalone(n, prev.text, e.end) &&
			!changes.Touches(buffer.Range{From: e.start, To: e.end + 1}) {
			at := changes.MapPos(e.start, buffer.AssocAfter)
			pool[at] = append(pool[at], reusable{node: n, ctx: classOf(f)})
			return
		}
		key := inheritKey{kind: n.kind, name: n.name}
		if at, ok := changes.MapPosStrict(e.start, buffer.AssocAfter); ok {
			key.start = at
			if _, dup := ix.after[key]; !dup {
				ix.after[key] = n.id
			}
		}
		if at, ok := changes.MapPosStrict(e.start, buffer.AssocBefore); ok {
			key.start = at
			if _, dup := ix.before[key]; !dup {
				ix.before[key] = n.id
			}
		}
		inner := f
		switch n.kind {
		case KindGroup:
			inner = frame{mode: modeGroup, depth: f.depth + 1}
		case KindOptional:
			inner = frame{mode: modeOptional, depth: f.depth}
		case KindEnvBody:
			inner = frame{mode: modeEnv, env: n.name, depth: f.depth}
		}
		if n.kind == KindCommand && (n.name == "begin" || n.name == "end") {
			pooled = false
		}
		for _, c := range prev.Children(ref) {
			visit(c, inner, pooled)
		}
	}
	_, f := prev.contentRegion(container)
	for _, c := range prev.Children(container) {
		visit(c, f, true)
	}
	return pool, ix
}

// standalone reports whether n is what a sequence parses when it reaches
// n's start. Optional arguments, environment bodies and the \begin and \end
// markers only exist inside their owner.
func standalone(n *Node, text string, end int) bool {
	switch n.kind {
	case KindDocument, KindOptional, KindEnvBody:
		return false
	case KindGroup:
		return !n.Has(FlagEnvName)
	case KindCommand:
		return n.name != "begin" && n.name != "end"
	case KindText:
		// A run that stopped at a newline depends on the lines after it.
		return end < len(text) && text[end] != '\n'
	}
	return true
}
