package decoration

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/registry"
	"github.com/iw2rmb/vistex/syntax"
)

func parse(t *testing.T, text string) (*syntax.Tree, *registry.Registry) {
	t.Helper()
	reg := registry.Default()
	tree, err := syntax.NewParser(reg).Parse(context.Background(), text, 1)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return tree, reg
}

func plan(t *testing.T, text string, caret int) Set {
	t.Helper()
	tree, reg := parse(t, text)
	return Plan(Input{Tree: tree, Registry: reg, Selection: buffer.Cursor(caret), DocID: "doc"})
}

func widgets(s Set) []string {
	var out []string
	for _, d := range s.Of(KindWidget) {
		out = append(out, d.Payload.Text)
	}
	return out
}

func hidden(text string, s Set) string {
	var b strings.Builder
	for _, d := range s {
		if d.Kind == KindMark && d.Payload.Hide {
			b.WriteString(text[d.Range.From:d.Range.To])
		}
	}
	return b.String()
}

const sample = `\documentclass{article}
\title{A title}
\author{Ann \and Bob}
\begin{document}
\maketitle
\section{Intro}
Some \textbf{bold} and \emph{soft} text\footnote{Note.} with \ref{fig:x} and \dots
% comment
$x^2$ and \verb|raw| \LaTeX{}
\begin{itemize}
\item first
\item second
\end{itemize}
\begin{figure}
    \centering
    \includegraphics{img.png}
    \caption{Cap}
\end{figure}
\foo{bar}
\end{document}
`

func TestPlanIsIdempotentAndOwned(t *testing.T) {
	tree, reg := parse(t, sample)
	for _, caret := range []int{0, 10, strings.Index(sample, "bold"), strings.Index(sample, `\item`), len(sample)} {
		in := Input{Tree: tree, Registry: reg, Selection: buffer.Cursor(caret), DocID: "doc"}
		a, b := Plan(in), Plan(in)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("caret %d: Plan is not idempotent", caret)
		}
		for i, d := range a {
			ref, ok := tree.Find(d.Node)
			if !ok {
				t.Fatalf("caret %d: decoration %s has no owner", caret, d.StableID)
			}
			if !tree.Range(ref).Covers(d.Range) {
				t.Fatalf("caret %d: decoration %s range %v outside owner %v", caret, d.StableID, d.Range, tree.Range(ref))
			}
			if i > 0 {
				p := a[i-1]
				if p.Range.From > d.Range.From || p.Range.From == d.Range.From && p.Range.To > d.Range.To {
					t.Fatalf("caret %d: decorations out of order at %d", caret, i)
				}
			}
		}
	}
}

func TestPlanDots(t *testing.T) {
	text := "a \\dots b"
	if got, want := widgets(plan(t, text, len(text))), []string{"…"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("caret away: got %q, want %q", got, want)
	}
	if got := widgets(plan(t, text, 7)); len(got) != 0 {
		t.Fatalf("caret at end of command: got widgets %q, want none", got)
	}
}

func TestPlanSection(t *testing.T) {
	text := "\\section{title}\nnext"

	s := plan(t, text, len(text))
	if got, want := hidden(text, s), `\section{}`; got != want {
		t.Fatalf("caret away hidden: got %q, want %q", got, want)
	}
	marks := s.Of(KindMark)
	style := marks[len(marks)-1]
	for _, d := range marks {
		if !d.Payload.Hide {
			style = d
		}
	}
	if got, want := text[style.Range.From:style.Range.To], "title"; got != want {
		t.Fatalf("heading mark: got %q, want %q", got, want)
	}
	if got, want := style.Payload.Class, "heading"; got != want {
		t.Fatalf("heading class: got %q, want %q", got, want)
	}
	if got, want := style.Payload.Attrs["command"], "section"; got != want {
		t.Fatalf("heading command: got %q, want %q", got, want)
	}

	if got, want := hidden(text, plan(t, text, 14)), `\section`; got != want {
		t.Fatalf("caret before brace hidden: got %q, want %q", got, want)
	}
	if got, want := hidden(text, plan(t, text, 12)), `\section{}`; got != want {
		t.Fatalf("caret inside hidden: got %q, want %q", got, want)
	}
}

func TestPlanFormat(t *testing.T) {
	text := `\textbf{test} foo`
	if got, want := hidden(text, plan(t, text, len(text))), `\textbf{}`; got != want {
		t.Fatalf("caret away: got %q, want %q", got, want)
	}
	if got, want := hidden(text, plan(t, text, 12)), `\textbf`; got != want {
		t.Fatalf("caret at closing brace: got %q, want %q", got, want)
	}
}

func TestPlanReplaceWidgets(t *testing.T) {
	for _, tc := range []struct {
		text  string
		class string
		want  string
	}{
		{`\ref{key} x`, "icon-ref", "🏷key"},
		{`\cite{knuth} x`, "icon-cite", "📚knuth"},
		{`\href{https://overleaf.com}{Overleaf} x`, "link-text", "Overleaf"},
		{`\verb|a\b| x`, "verbatim", `a\b`},
		{`\LaTeX{} x`, "logo", "LaTeX"},
		{`\% x`, "glyph", "%"},
	} {
		s := plan(t, tc.text, len(tc.text))
		w := s.Of(KindWidget)
		if len(w) != 1 {
			t.Fatalf("%q: got %d widgets, want 1", tc.text, len(w))
		}
		if got := w[0].Payload.Text; got != tc.want {
			t.Fatalf("%q: text got %q, want %q", tc.text, got, tc.want)
		}
		if got := w[0].Payload.Class; got != tc.class {
			t.Fatalf("%q: class got %q, want %q", tc.text, got, tc.class)
		}
	}
}

func TestPlanUnknownCommandUnchanged(t *testing.T) {
	text := `\foo[bar]{baz} `
	if s := plan(t, text, len(text)); len(s) != 0 {
		t.Fatalf("unknown command: got %d decorations, want 0", len(s))
	}
}

func TestPlanFootnote(t *testing.T) {
	text := `Foo \footnote{Bar.} `
	s := plan(t, text, len(text))
	w := s.Of(KindWidget)
	if len(w) != 1 || w[0].Payload.Text != "†" || w[0].Payload.Attrs["note"] != "Bar." {
		t.Fatalf("footnote widget: got %+v", w)
	}
	if got := widgets(plan(t, text, len(text)-1)); len(got) != 0 {
		t.Fatalf("caret on footnote: got widgets %q, want none", got)
	}
}

const figure = "\\begin{figure}\n" +
	"    \\centering\n" +
	"    \\includegraphics{path/to/image}\n" +
	"    \\caption{Caption}\n" +
	"    \\label{fig:label}\n" +
	"\\end{figure}\n" +
	"after"

func linesWith(text string, s Set, class string) []int {
	var rows []int
	for start, classes := range s.LineClasses(text) {
		for _, c := range classes {
			if c == class {
				rows = append(rows, buffer.LineIndex(text, start))
			}
		}
	}
	sortInts(rows)
	return rows
}

func sortInts(a []int) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j] < a[j-1]; j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}

func TestPlanFigure(t *testing.T) {
	s := plan(t, figure, len(figure))
	want := []int{0, 1, 2, 3, 4, 5}
	if got := linesWith(figure, s, "environment-figure"); !reflect.DeepEqual(got, want) {
		t.Fatalf("figure lines: got %v, want %v", got, want)
	}
	if got := linesWith(figure, s, "environment-centered"); !reflect.DeepEqual(got, want) {
		t.Fatalf("centered lines: got %v, want %v", got, want)
	}
	var src string
	for _, d := range s.Of(KindWidget) {
		if d.Payload.Class == "graphics" {
			src = d.Payload.Attrs["src"]
		}
	}
	if got, want := src, "path/to/image"; got != want {
		t.Fatalf("graphics src: got %q, want %q", got, want)
	}
}

func TestPlanFigureBlankLines(t *testing.T) {
	text := "\\begin{figure}\n\\centering\n\nx\n\\end{figure}"
	s := plan(t, text, len(text))
	want := []int{0, 1, 2, 3, 4}
	if got := linesWith(text, s, "environment-figure"); !reflect.DeepEqual(got, want) {
		t.Fatalf("figure lines: got %v, want %v", got, want)
	}
	if got := linesWith(text, s, "environment-centered"); !reflect.DeepEqual(got, want) {
		t.Fatalf("centered lines: got %v, want %v", got, want)
	}
	blank := strings.Index(text, "\n\n") + 1
	for _, d := range s.Of(KindLine) {
		if d.Range.From == blank && !d.Range.IsEmpty() {
			t.Fatalf("blank line decoration: got %v, want an empty range at %d", d.Range, blank)
		}
	}
}

func TestPlanCenteredRetracted(t *testing.T) {
	reg := registry.Default()
	p := syntax.NewParser(reg)
	tree, err := p.Parse(context.Background(), figure, 1)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b := buffer.New(figure, buffer.Options{})
	at := strings.Index(figure, "centering") + len("centering")
	ch, err := b.Apply(buffer.Delete(at-1, at))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	next, _ := p.Reparse(b.Text(), b.Version(), tree, ch.Changes)

	s := Plan(Input{Tree: next, Registry: reg, Selection: buffer.Cursor(b.Len()), DocID: "doc"})
	if got := linesWith(b.Text(), s, "environment-centered"); len(got) != 0 {
		t.Fatalf("centered lines after \\centerin: got %v, want none", got)
	}
	if got, want := linesWith(b.Text(), s, "environment-figure"), []int{0, 1, 2, 3, 4, 5}; !reflect.DeepEqual(got, want) {
		t.Fatalf("figure lines: got %v, want %v", got, want)
	}
}

func TestPlanLists(t *testing.T) {
	text := "\\begin{enumerate}\n\\item one\n\\item two\n\\end{enumerate}\nx"
	s := plan(t, text, len(text))
	var items []string
	blocks := 0
	for _, d := range s.Of(KindWidget) {
		switch d.Payload.Class {
		case "item":
			items = append(items, d.Payload.Text)
		case "environment-begin", "environment-end":
			if d.Payload.Block && d.Payload.Text == "" {
				blocks++
			}
		}
	}
	if got, want := items, []string{"1.", "2."}; !reflect.DeepEqual(got, want) {
		t.Fatalf("item labels: got %q, want %q", got, want)
	}
	if got, want := blocks, 2; got != want {
		t.Fatalf("hidden markup lines: got %d, want %d", got, want)
	}

	// The caret on the \begin line reveals it.
	s = plan(t, text, 3)
	for _, d := range s.Of(KindWidget) {
		if d.Payload.Class == "environment-begin" {
			t.Fatalf("caret on begin line: begin still hidden")
		}
	}

	text = "\\begin{itemize}\n\\item a\n\\item[-] b\n\\end{itemize}\n"
	items = nil
	for _, d := range plan(t, text, len(text)).Of(KindWidget) {
		if d.Payload.Class == "item" {
			items = append(items, d.Payload.Text)
		}
	}
	if got, want := items, []string{"•", "-"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("bullet labels: got %q, want %q", got, want)
	}
}

func TestPlanFrame(t *testing.T) {
	text := "\\begin{frame}{Slide\\\\title}{Sub}\nbody\n\\end{frame}\n"
	s := plan(t, text, len(text))
	var title, divider Decoration
	for _, d := range s.Of(KindWidget) {
		switch d.Payload.Class {
		case "frame-title":
			title = d
		case "frame-divider":
			divider = d
		}
	}
	if got, want := title.Payload.Attrs["title"], "Slide\ntitle"; got != want {
		t.Fatalf("frame title: got %q, want %q", got, want)
	}
	if got, want := title.Payload.Attrs["subtitle"], "Sub"; got != want {
		t.Fatalf("frame subtitle: got %q, want %q", got, want)
	}
	if !divider.Payload.Block {
		t.Fatalf("frame divider missing")
	}
}

const titled = "\\author{Author \\and Author2}\n" +
	"\\author{Author3}\n" +
	"\\title{Document title\\\\with $\\pi$}\n" +
	"\\begin{document}\n" +
	"\\maketitle\n" +
	"\\end{document}\n"

func TestPlanPreambleAndTitle(t *testing.T) {
	s := plan(t, titled, len(titled))

	var pre, card Decoration
	for _, d := range s.Of(KindWidget) {
		switch d.Payload.Class {
		case "preamble":
			pre = d
		case "maketitle":
			card = d
		}
	}
	end := strings.Index(titled, `\begin{document}`) + len(`\begin{document}`)
	if got, want := pre.Range, (buffer.Range{From: 0, To: end}); got != want {
		t.Fatalf("preamble range: got %v, want %v", got, want)
	}
	if got, want := pre.Payload.Attrs["author-2"], "Author3"; got != want {
		t.Fatalf("preamble author-2: got %q, want %q", got, want)
	}
	if got, want := card.Payload.Text, "Document title\nwith $\\pi$\nAuthor, Author2, Author3"; got != want {
		t.Fatalf("title card: got %q, want %q", got, want)
	}
	for _, d := range s {
		if d.Payload.Class != "preamble" && d.Range.Intersects(pre.Range) {
			t.Fatalf("decoration %s inside the collapsed preamble", d.StableID)
		}
	}

	s = plan(t, titled, 3)
	for _, d := range s.Of(KindWidget) {
		if d.Payload.Class == "preamble" {
			t.Fatalf("caret in preamble: preamble still collapsed")
		}
	}
}

func TestPlanViewport(t *testing.T) {
	text := "\\dots\n\\dots\n\\dots\n"
	tree, reg := parse(t, text)
	s := Plan(Input{
		Tree:      tree,
		Registry:  reg,
		Viewport:  buffer.LineRange(text, 2),
		Selection: buffer.Cursor(len(text)),
	})
	w := s.Of(KindWidget)
	if len(w) != 1 || w[0].Range.From != 12 {
		t.Fatalf("viewport widgets: got %+v, want one at 12", w)
	}
}

func TestStableIDsFollowIdentity(t *testing.T) {
	reg := registry.Default()
	p := syntax.NewParser(reg)
	text := "x \\ref{a}\n\n\\ref{b}\n"
	tree, err := p.Parse(context.Background(), text, 1)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	before := Plan(Input{Tree: tree, Registry: reg, Selection: buffer.Cursor(0), DocID: "d"})

	b := buffer.New(text, buffer.Options{})
	ch, err := b.Apply(buffer.Insert(0, "yy"))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	next, _ := p.Reparse(b.Text(), b.Version(), tree, ch.Changes)
	after := Plan(Input{Tree: next, Registry: reg, Selection: buffer.Cursor(0), DocID: "d"})

	if len(before) != 2 || len(after) != 2 {
		t.Fatalf("widgets: got %d and %d, want 2 and 2", len(before), len(after))
	}
	for i := range before {
		if got, want := after[i].StableID, before[i].StableID; got != want {
			t.Fatalf("widget %d id: got %q, want %q", i, got, want)
		}
		if got, want := after[i].Range.From, before[i].Range.From+2; got != want {
			t.Fatalf("widget %d start: got %d, want %d", i, got, want)
		}
	}
}

func TestRecords(t *testing.T) {
	s := plan(t, `a \dots b`, 0)
	recs := s.Records()
	if len(recs) != len(s) {
		t.Fatalf("records: got %d, want %d", len(recs), len(s))
	}
	var found bool
	for i, r := range recs {
		d := s[i]
		if r.ID != d.StableID || r.From != d.Range.From || r.To != d.Range.To || r.Kind != d.Kind.String() {
			t.Fatalf("record %d: got %+v for %+v", i, r, d)
		}
		if r.Kind == "widget" && r.Text == "…" {
			found = true
		}
	}
	if !found {
		t.Fatalf("records: no ellipsis widget in %+v", recs)
	}
	if got := Set(nil).Records(); got == nil || len(got) != 0 {
		t.Fatalf("empty records: got %#v", got)
	}
}
