// Package structedit builds the edits behind structural commands:
// environment completion, list continuation on Enter, brace pairing and
// edits made through widgets. Builders only describe edits; the caller
// applies them to the buffer.
package structedit

import (
	"errors"
	"strings"

	"github.com/iw2rmb/vistex/buffer"
)

var (
	// ErrRemapFailed reports a widget edit whose target no longer exists
	// in the current tree.
	ErrRemapFailed = errors.New("structedit: widget does not map to the source")
	// ErrNotInList reports a caret outside any list item.
	ErrNotInList = errors.New("structedit: caret is not in a list item")
	// ErrNotAtBegin reports an environment completion requested away from
	// \begin{.
	ErrNotAtBegin = errors.New(`structedit: caret does not follow \begin{`)
)

// Result is a set of edits in pre-edit coordinates plus the selection to
// install once they are applied.
type Result struct {
	Edits     []buffer.Edit
	Selection buffer.Selection
}

type Options struct {
	// Indent is one level of indentation inside environments.
	Indent string
}

// DefaultIndent is the indentation unit used when Options.Indent is empty.
const DefaultIndent = "    "

func (o Options) indent() string {
	if o.Indent == "" {
		return DefaultIndent
	}
	return o.Indent
}

// lineIndent returns the leading blanks of the line containing off.
func lineIndent(text string, off int) string {
	ls := buffer.LineStart(text, off)
	i := ls
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	return text[ls:i]
}

// PairBrace inserts a brace pair for a typed '{'. A collapsed selection
// ends up between the braces; a range is wrapped and stays selected.
func PairBrace(text string, sel buffer.Selection) Result {
	if sel.IsEmpty() {
		return Result{
			Edits:     []buffer.Edit{buffer.Insert(sel.Head, "{}")},
			Selection: buffer.Cursor(sel.Head + 1),
		}
	}
	from, to := sel.From(), sel.To()
	return Result{
		Edits: []buffer.Edit{
			buffer.Insert(from, "{"),
			buffer.Insert(to, "}"),
		},
		Selection: buffer.Selection{Anchor: from + 1, Head: to + 1},
	}
}

// SkipClosing steps over an auto-inserted '}' when one is typed right before
// it. It reports false when the next character is not '}'.
func SkipClosing(text string, sel buffer.Selection) (Result, bool) {
	if !sel.IsEmpty() || sel.Head >= len(text) || text[sel.Head] != '}' {
		return Result{}, false
	}
	return Result{Selection: buffer.Cursor(sel.Head + 1)}, true
}

func expandMarker(s string, marker string) (string, int) {
	i := strings.Index(s, marker)
	if i < 0 {
		return s, len(s)
	}
	return s[:i] + s[i+len(marker):], i
}
