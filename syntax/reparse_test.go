package syntax

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/iw2rmb/vistex/buffer"
)

func reparse(t *testing.T, p *Parser, buf *buffer.Buffer, prev *Tree, edits ...buffer.Edit) (*Tree, Stats) {
	t.Helper()
	ch, err := buf.Apply(edits...)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	tree, st := p.Reparse(buf.Text(), buf.Version(), prev, ch.Changes)
	full, err := p.Parse(context.Background(), buf.Text(), buf.Version())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := tree.dump(true), full.dump(true); got != want {
		t.Fatalf("incremental tree differs from full parse of %q\ngot:\n%s\nwant:\n%s", buf.Text(), got, want)
	}
	if err := tree.CheckCoverage(); err != nil {
		t.Fatalf("CheckCoverage: %v", err)
	}
	return tree, st
}

func TestReparseSharesUntouchedSubtrees(t *testing.T) {
	p := NewParser(grammar)
	buf := buffer.New("\\section{Intro}\n\\textbf{test}\n", buffer.Options{})
	prev := mustParse(t, buf.Text())

	section := prev.Child(prev.Root(), 0)
	bold := prev.Child(prev.Root(), 2)
	boldID := prev.Node(bold).ID()

	next, st := reparse(t, p, buf, prev, buffer.Insert(26, "x"))

	if got, want := st.Container, KindGroup; got != want {
		t.Fatalf("dirty container: got %v, want %v", got, want)
	}
	if got, want := st.Widened, 0; got != want {
		t.Fatalf("widened: got %d, want %d", got, want)
	}
	if got, want := next.Node(next.Child(next.Root(), 0)), prev.Node(section); got != want {
		t.Fatalf("section node was not shared by reference")
	}
	ref, ok := next.Find(boldID)
	if !ok {
		t.Fatalf("textbf identity lost after typing inside its argument")
	}
	if got, want := next.Text(ref), `\textbf{texst}`; got != want {
		t.Fatalf("textbf text: got %q, want %q", got, want)
	}
}

func TestReparseKeepsIdentityOfShiftedNodes(t *testing.T) {
	p := NewParser(grammar)
	buf := buffer.New(`\textbf{a} \ref{b}`, buffer.Options{})
	prev := mustParse(t, buf.Text())
	ids := []uint64{
		prev.Node(prev.Child(prev.Root(), 0)).ID(),
		prev.Node(prev.Child(prev.Root(), 2)).ID(),
	}

	next, _ := reparse(t, p, buf, prev, buffer.Insert(0, "x"))

	for _, id := range ids {
		ref, ok := next.Find(id)
		if !ok {
			t.Fatalf("identity %d lost after inserting before it", id)
		}
		if got, want := next.Kind(ref), KindCommand; got != want {
			t.Fatalf("kind of %d: got %v, want %v", id, got, want)
		}
	}
}

func TestReparseWidensWhenGroupClosesEarly(t *testing.T) {
	p := NewParser(grammar)
	buf := buffer.New(`\textbf{ab} c`, buffer.Options{})
	prev := mustParse(t, buf.Text())

	_, st := reparse(t, p, buf, prev, buffer.Insert(9, "}"))

	if got, want := st.Widened, 1; got != want {
		t.Fatalf("widened: got %d, want %d", got, want)
	}
	if got, want := st.Container, KindDocument; got != want {
		t.Fatalf("container: got %v, want %v", got, want)
	}
}

func TestReparseArgumentTypedAfterBegin(t *testing.T) {
	p := NewParser(grammar)
	buf := buffer.New("\\begin{frame}\nA\n\\end{frame}", buffer.Options{})
	prev := mustParse(t, buf.Text())

	next, _ := reparse(t, p, buf, prev, buffer.Insert(13, "{T}"))

	env := next.Child(next.Root(), 0)
	begin, _, _, ok := next.EnvParts(env)
	if !ok {
		t.Fatalf("environment lost:\n%s", next.Dump())
	}
	if got, want := next.NumChildren(begin), 2; got != want {
		t.Fatalf("begin arguments: got %d, want %d", got, want)
	}
}

func TestReparseBreakingAndRepairingEnvironment(t *testing.T) {
	p := NewParser(grammar)
	buf := buffer.New("\\begin{itemize}\n\\item a\n\\end{itemize}\ntail", buffer.Options{})
	tree := mustParse(t, buf.Text())

	tree, _ = reparse(t, p, buf, tree, buffer.Delete(24, 25))
	if !tree.Node(tree.Child(tree.Root(), 0)).Broken() {
		t.Fatalf("environment without \\end is not broken:\n%s", tree.Dump())
	}
	tree, _ = reparse(t, p, buf, tree, buffer.Insert(24, `\`))
	if tree.Node(tree.Child(tree.Root(), 0)).Broken() {
		t.Fatalf("repaired environment is still broken:\n%s", tree.Dump())
	}
}

func TestRefreshAssignsFreshIdentities(t *testing.T) {
	p := NewParser(grammar)
	tree := mustParse(t, `\section{a \textbf{b}}`)
	bold := tree.Resolve(12)
	for tree.Kind(bold) != KindCommand {
		bold = tree.Parent(bold)
	}
	id := tree.Node(bold).ID()

	next, _ := p.Refresh(tree, bold)

	if _, ok := next.Find(id); ok {
		t.Fatalf("refreshed node kept identity %d", id)
	}
	if got, want := next.Dump(), tree.Dump(); got != want {
		t.Fatalf("refresh changed structure:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestReparseMatchesFullParse(t *testing.T) {
	tokens := []string{
		"a", "bc", " ", "\n", "\n\n", "{", "}", "[", "]", "$", "$$", "%",
		`\`, `\textbf`, `\foo`, `\item`, `\LaTeX`, `\href`, "*",
		`\begin{itemize}`, `\end{itemize}`, `\begin{x}`, `\end{x}`,
		`\verb|`, "|", `\(`, `\)`, `\[`, `\]`,
		`\v`, "{e", "{}", "em",
	}
	rng := rand.New(rand.NewSource(7))
	p := NewParser(grammar)
	for round := 0; round < 80; round++ {
		var b strings.Builder
		for i := 0; i < 30; i++ {
			b.WriteString(tokens[rng.Intn(len(tokens))])
		}
		buf := buffer.New(b.String(), buffer.Options{HistoryLimit: 1})
		tree := mustParse(t, buf.Text())
		for step := 0; step < 40; step++ {
			off := rng.Intn(buf.Len() + 1)
			del := rng.Intn(4)
			if off+del > buf.Len() {
				del = buf.Len() - off
			}
			ins := ""
			if rng.Intn(3) > 0 {
				ins = tokens[rng.Intn(len(tokens))]
			}
			tree, _ = reparse(t, p, buf, tree, buffer.Replace(off, off+del, ins))
		}
	}
}

func TestReparseKeepsEnvironmentMarkersInPlace(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		edits []buffer.Edit
		env   bool
	}{
		{
			name:  "unbalanced brace in list item",
			text:  "\\begin{itemize}\n\\item a\n\\end{itemize}\n",
			edits: []buffer.Edit{buffer.Insert(23, " {"), buffer.Delete(23, 25)},
			env:   true,
		},
		{
			name:  "closing brace removed and retyped",
			text:  "\\begin{itemize}\n\\item \\textbf{a}\n\\end{itemize}\n",
			edits: []buffer.Edit{buffer.Delete(31, 32), buffer.Insert(31, "}")},
			env:   true,
		},
		{
			name:  "group swallowing the end marker",
			text:  `\begin{x}em\v{}\end{x}`,
			edits: []buffer.Edit{buffer.Replace(11, 13, "{e")},
			env:   true,
		},
		{
			name:  "bracket no longer an argument",
			text:  `\foo{a}[b]`,
			edits: []buffer.Edit{buffer.Replace(0, 4, `\textbf`)},
		},
		{
			name:  "blank line removed after text run",
			text:  "{a\n \nb}",
			edits: []buffer.Edit{buffer.Delete(4, 5)},
		},
	}
	p := NewParser(grammar)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := buffer.New(tt.text, buffer.Options{})
			tree := mustParse(t, buf.Text())
			for _, e := range tt.edits {
				tree, _ = reparse(t, p, buf, tree, e)
			}
			if !tt.env {
				return
			}
			if got, want := tree.Kind(tree.Child(tree.Root(), 0)), KindEnvironment; got != want {
				t.Fatalf("first top-level node: got %v, want %v\n%s", got, want, tree.Dump())
			}
		})
	}
}
