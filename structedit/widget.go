package structedit

import (
	"fmt"

	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/preamble"
	"github.com/iw2rmb/vistex/registry"
	"github.com/iw2rmb/vistex/syntax"
)

// WidgetEdit is an edit made inside a widget, in the widget's own text
// coordinates.
type WidgetEdit struct {
	// Node is the identity of the node owning the widget.
	Node uint64
	// Entry names a preamble entry ("title", "author-1"). When empty the
	// edit targets argument Arg of Node.
	Entry string
	Arg   int

	Offset       int
	DeleteLength int
	Insert       string
}

// EditWidget maps a widget edit onto the source through the owning node's
// current range. Owners missing from t, or local ranges outside the target
// text, fail with ErrRemapFailed.
func EditWidget(t *syntax.Tree, reg *registry.Registry, req WidgetEdit) (Result, error) {
	target, err := widgetTarget(t, reg, req)
	if err != nil {
		return Result{}, err
	}
	return remap(target, req)
}

// EditEntry maps a widget edit onto a preamble entry known by its range,
// such as one carried across edits with preamble.Preamble.Map.
func EditEntry(e preamble.Entry, req WidgetEdit) (Result, error) {
	if e.ID != req.Entry {
		return Result{}, fmt.Errorf("preamble entry %q: %w", req.Entry, ErrRemapFailed)
	}
	return remap(e.Range, req)
}

func remap(target buffer.Range, req WidgetEdit) (Result, error) {
	if req.Offset < 0 || req.DeleteLength < 0 || req.Offset+req.DeleteLength > target.Len() {
		return Result{}, fmt.Errorf("local range [%d,%d) outside %d bytes: %w",
			req.Offset, req.Offset+req.DeleteLength, target.Len(), ErrRemapFailed)
	}
	at := target.From + req.Offset
	return Result{
		Edits:     []buffer.Edit{buffer.Replace(at, at+req.DeleteLength, req.Insert)},
		Selection: buffer.Cursor(at + len(req.Insert)),
	}, nil
}

func widgetTarget(t *syntax.Tree, reg *registry.Registry, req WidgetEdit) (buffer.Range, error) {
	if req.Entry != "" {
		p, ok := preamble.Collapse(t, reg)
		if !ok || p.Owner != req.Node {
			return buffer.Range{}, fmt.Errorf("preamble %d: %w", req.Node, ErrRemapFailed)
		}
		e, ok := p.Entry(req.Entry)
		if !ok {
			return buffer.Range{}, fmt.Errorf("preamble entry %q: %w", req.Entry, ErrRemapFailed)
		}
		return e.Range, nil
	}

	ref, ok := t.Find(req.Node)
	if !ok {
		return buffer.Range{}, fmt.Errorf("node %d: %w", req.Node, ErrRemapFailed)
	}
	if t.Kind(ref) == syntax.KindVerbatim && req.Arg == 0 {
		if in, ok := t.Inner(ref); ok {
			return in, nil
		}
	}
	args := t.RequiredArgs(ref)
	if req.Arg < 0 || req.Arg >= len(args) {
		return buffer.Range{}, fmt.Errorf("node %d argument %d: %w", req.Node, req.Arg, ErrRemapFailed)
	}
	in, ok := t.Inner(args[req.Arg])
	if !ok {
		return buffer.Range{}, fmt.Errorf("node %d argument %d: %w", req.Node, req.Arg, ErrRemapFailed)
	}
	return in, nil
}
