package structedit

import (
	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/syntax"
)

// ToggleFormat removes the \name command that holds the selection, keeping
// its argument text, or wraps the selection in \name{...} when none does.
func ToggleFormat(t *syntax.Tree, sel buffer.Selection, name string) Result {
	src := t.Source()
	from, to := sel.From(), sel.To()
	if ref, inner, ok := formatAt(t, from, to, name); ok {
		r := t.Range(ref)
		text := src[inner.From:inner.To]
		shift := inner.From - r.From
		remap := func(p int) int { return min(max(p-shift, r.From), r.From+len(text)) }
		return Result{
			Edits:     []buffer.Edit{buffer.Replace(r.From, r.To, text)},
			Selection: buffer.Selection{Anchor: remap(sel.Anchor), Head: remap(sel.Head)},
		}
	}

	open := `\` + name + "{"
	return Result{
		Edits:     []buffer.Edit{buffer.Replace(from, to, open+src[from:to]+"}")},
		Selection: buffer.Selection{Anchor: sel.Anchor + len(open), Head: sel.Head + len(open)},
	}
}

// formatAt finds the innermost intact \name command whose argument holds
// [from, to].
func formatAt(t *syntax.Tree, from, to int, name string) (syntax.NodeRef, buffer.Range, bool) {
	var (
		found syntax.NodeRef
		inner buffer.Range
		ok    bool
	)
	t.Ancestors(t.Common(t.Resolve(from), t.Resolve(to)), func(ref syntax.NodeRef) bool {
		if t.Kind(ref) != syntax.KindCommand || t.Name(ref) != name || t.Node(ref).Broken() {
			return true
		}
		args := t.RequiredArgs(ref)
		if len(args) == 0 {
			return true
		}
		in, has := t.Inner(args[0])
		if !has || !in.Touches(from) || !in.Touches(to) {
			return true
		}
		found, inner, ok = ref, in, true
		return false
	})
	return found, inner, ok
}
