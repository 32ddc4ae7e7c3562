package decoration

import (
	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/registry"
	"github.com/iw2rmb/vistex/syntax"
)

// Toolbar returns the toolbar formats active for sel, in toolbar order.
func Toolbar(t *syntax.Tree, reg *registry.Registry, sel buffer.Selection) []string {
	var out []string
	for _, name := range reg.Toolbar() {
		if IsActive(t, name, sel) {
			out = append(out, name)
		}
	}
	return out
}

// IsActive reports whether the format command name applies to sel.
//
// A caret activates a format when exactly one such command holds it within
// its argument, delimiters included. A range activates it when the nearest
// common ancestor of both ends, walked up to the first such command, holds
// both ends within its argument.
func IsActive(t *syntax.Tree, name string, sel buffer.Selection) bool {
	if sel.IsEmpty() {
		n := 0
		t.Ancestors(t.Resolve(sel.Head), func(ref syntax.NodeRef) bool {
			if in, ok := argOf(t, ref, name); ok && in.Touches(sel.Head) {
				n++
			}
			return true
		})
		return n == 1
	}

	from, to := sel.From(), sel.To()
	active := false
	t.Ancestors(t.Common(t.Resolve(from), t.Resolve(to)), func(ref syntax.NodeRef) bool {
		if t.Kind(ref) != syntax.KindCommand || t.Name(ref) != name {
			return true
		}
		in, ok := argOf(t, ref, name)
		active = ok && in.Touches(from) && in.Touches(to)
		return false
	})
	return active
}

func argOf(t *syntax.Tree, ref syntax.NodeRef, name string) (buffer.Range, bool) {
	if t.Kind(ref) != syntax.KindCommand || t.Name(ref) != name || t.Node(ref).Broken() {
		return buffer.Range{}, false
	}
	args := t.RequiredArgs(ref)
	if len(args) == 0 {
		return buffer.Range{}, false
	}
	return t.Inner(args[0])
}
