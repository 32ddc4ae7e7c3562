package structedit

import (
	"fmt"
	"strings"

	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/registry"
	"github.com/iw2rmb/vistex/syntax"
)

const beginPrefix = `\begin{`

// BeginContext reports whether pos follows "\begin{" plus an optional
// partial environment name on the same line. from is where the name starts.
func BeginContext(text string, pos int) (from int, partial string, ok bool) {
	if pos < 0 || pos > len(text) {
		return 0, "", false
	}
	i := pos
	for i > 0 && isNameChar(text[i-1]) {
		i--
	}
	if !strings.HasSuffix(text[:i], beginPrefix) {
		return 0, "", false
	}
	return i, text[i:pos], true
}

func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '*'
}

// Candidates lists the registered environments whose name starts with
// partial, in name order.
func Candidates(reg *registry.Registry, partial string) []string {
	var out []string
	for _, name := range reg.Environments() {
		if strings.HasPrefix(name, partial) {
			out = append(out, name)
		}
	}
	return out
}

// CompleteEnvironment finishes "\begin{partial" as environment name: it
// writes the name, the environment template indented one level and the
// matching \end, and puts the caret at the template's cursor marker.
func CompleteEnvironment(t *syntax.Tree, reg *registry.Registry, sel buffer.Selection, name string, opts Options) (Result, error) {
	text := t.Source()
	if !sel.IsEmpty() {
		return Result{}, fmt.Errorf("completion with a range selection: %w", ErrNotAtBegin)
	}
	from, _, ok := BeginContext(text, sel.Head)
	if !ok {
		return Result{}, ErrNotAtBegin
	}
	if name == "" {
		return Result{}, fmt.Errorf("empty environment name: %w", ErrNotAtBegin)
	}

	// The rest of a name under the caret and an auto-paired brace are
	// replaced too.
	to := sel.Head
	for to < len(text) && isNameChar(text[to]) {
		to++
	}
	if to < len(text) && text[to] == '}' {
		to++
	}

	tmpl := registry.CursorMarker
	if spec, ok := reg.Environment(name); ok && spec.Template != "" {
		tmpl = spec.Template
	}
	outer := lineIndent(text, from)
	inner := outer + opts.indent()

	var b strings.Builder
	b.WriteString(name)
	b.WriteString("}\n")
	for i, line := range strings.Split(tmpl, "\n") {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(inner)
		b.WriteString(line)
	}
	b.WriteString("\n")
	b.WriteString(outer)
	b.WriteString(`\end{` + name + "}")

	insert, caret := expandMarker(b.String(), registry.CursorMarker)
	return Result{
		Edits:     []buffer.Edit{buffer.Replace(from, to, insert)},
		Selection: buffer.Cursor(from + caret),
	}, nil
}
