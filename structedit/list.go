package structedit

import (
	"strings"

	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/registry"
	"github.com/iw2rmb/vistex/syntax"
)

// ListItem is the list item on a caret's line.
type ListItem struct {
	Env  syntax.NodeRef
	Item syntax.NodeRef
	Spec registry.EnvironmentSpec
	Line buffer.Range
	// Empty is set when nothing but blanks follows the \item.
	Empty bool
	// Last is set when no \item follows in the same list.
	Last bool
}

// FindListItem locates the \item starting the caret's line inside the
// innermost list environment.
func FindListItem(t *syntax.Tree, reg *registry.Registry, pos int) (ListItem, error) {
	text := t.Source()
	var li ListItem
	body := syntax.NoNode
	t.Ancestors(t.Resolve(pos), func(ref syntax.NodeRef) bool {
		if t.Kind(ref) != syntax.KindEnvBody {
			return true
		}
		env := t.Parent(ref)
		spec, ok := reg.Environment(t.Name(env))
		if !ok || spec.List == registry.ListNone {
			return true
		}
		li.Env, li.Spec, body = env, spec, ref
		return false
	})
	if body == syntax.NoNode {
		return ListItem{}, ErrNotInList
	}

	li.Line = buffer.LineAt(text, pos)
	li.Item = syntax.NoNode
	kids := t.Children(body)
	at := -1
	for i, c := range kids {
		if t.Start(c) > pos {
			break
		}
		if t.Start(c) >= li.Line.From && t.Kind(c) == syntax.KindCommand && t.Name(c) == "item" {
			li.Item, at = c, i
		}
	}
	if li.Item == syntax.NoNode {
		return ListItem{}, ErrNotInList
	}

	li.Empty = strings.TrimSpace(text[t.End(li.Item):max(li.Line.To, t.End(li.Item))]) == ""
	li.Last = true
	for _, c := range kids[at+1:] {
		if t.Kind(c) == syntax.KindCommand && t.Name(c) == "item" {
			li.Last = false
			break
		}
	}
	return li, nil
}

// Enter continues a list. On a non-empty item it opens a new item below. On
// an empty last item it removes the item and leaves the list, putting the
// caret on a new line after \end. On an empty item followed by others it
// inserts a plain line break. It reports false when the caret is not in a
// list item, leaving the newline to the caller.
func Enter(t *syntax.Tree, reg *registry.Registry, sel buffer.Selection, opts Options) (Result, bool) {
	if !sel.IsEmpty() {
		return Result{}, false
	}
	li, err := FindListItem(t, reg, sel.Head)
	if err != nil {
		return Result{}, false
	}
	text := t.Source()
	head := sel.Head

	if !li.Empty {
		tmpl, _, _ := strings.Cut(li.Spec.Template, "\n")
		if !strings.HasPrefix(tmpl, `\item`) {
			tmpl = `\item ` + registry.CursorMarker
		}
		ins, caret := expandMarker("\n"+lineIndent(text, li.Line.From)+tmpl, registry.CursorMarker)
		return Result{
			Edits:     []buffer.Edit{buffer.Insert(head, ins)},
			Selection: buffer.Cursor(head + caret),
		}, true
	}

	begin, _, end, ok := t.EnvParts(li.Env)
	if !li.Last || !ok {
		return Result{
			Edits:     []buffer.Edit{buffer.Insert(head, "\n")},
			Selection: buffer.Cursor(head + 1),
		}, true
	}

	del := buffer.Range{
		From: max(li.Line.From-1, t.End(begin)),
		To:   min(li.Line.To, t.Start(end)),
	}
	after := t.End(end)
	indent := lineIndent(text, t.Start(li.Env))
	return Result{
		Edits: []buffer.Edit{
			buffer.Delete(del.From, del.To),
			buffer.Insert(after, "\n"+indent),
		},
		Selection: buffer.Cursor(after - del.Len() + 1 + len(indent)),
	}, true
}
