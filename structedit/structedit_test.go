package structedit

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/preamble"
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

func apply(t *testing.T, text string, r Result) string {
	t.Helper()
	b := buffer.New(text, buffer.Options{})
	if _, err := b.Apply(r.Edits...); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return b.Text()
}

func TestCompleteEnvironment(t *testing.T) {
	for _, tc := range []struct {
		name  string
		text  string
		caret int
		env   string
		want  string
		at    string // text right before the caret
	}{
		{
			name:  "figure template",
			text:  `\begin{fig`,
			caret: 10,
			env:   "figure",
			want: "\\begin{figure}\n" +
				"    \\centering\n" +
				"    \\includegraphics{}\n" +
				"    \\caption{Caption}\n" +
				"    \\label{fig:label}\n" +
				"\\end{figure}",
			at: `\includegraphics{`,
		},
		{
			name:  "paired brace",
			text:  `\begin{}`,
			caret: 7,
			env:   "itemize",
			want:  "\\begin{itemize}\n    \\item \n\\end{itemize}",
			at:    `\item `,
		},
		{
			name:  "unknown environment",
			text:  `\begin{foo`,
			caret: 10,
			env:   "foo",
			want:  "\\begin{foo}\n    \n\\end{foo}",
			at:    "foo}\n    ",
		},
		{
			name:  "indented begin",
			text:  `  \begin{cen`,
			caret: 12,
			env:   "center",
			want:  "  \\begin{center}\n      \n  \\end{center}",
			at:    "center}\n      ",
		},
	} {
		tree, reg := parse(t, tc.text)
		r, err := CompleteEnvironment(tree, reg, buffer.Cursor(tc.caret), tc.env, Options{})
		if err != nil {
			t.Fatalf("%s: CompleteEnvironment: %v", tc.name, err)
		}
		got := apply(t, tc.text, r)
		if got != tc.want {
			t.Fatalf("%s: text got %q, want %q", tc.name, got, tc.want)
		}
		if !r.Selection.IsEmpty() || !strings.HasSuffix(got[:r.Selection.Head], tc.at) {
			t.Fatalf("%s: caret %d follows %q, want %q", tc.name, r.Selection.Head, got[:r.Selection.Head], tc.at)
		}
	}
}

func TestCompleteEnvironmentRejectsOtherContexts(t *testing.T) {
	tree, reg := parse(t, "hello")
	if _, err := CompleteEnvironment(tree, reg, buffer.Cursor(5), "figure", Options{}); !errors.Is(err, ErrNotAtBegin) {
		t.Fatalf("CompleteEnvironment: got %v, want ErrNotAtBegin", err)
	}
}

func TestCandidates(t *testing.T) {
	reg := registry.Default()
	if got, want := Candidates(reg, "fi"), []string{"figure"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Candidates(fi): got %v, want %v", got, want)
	}
	if got, want := len(Candidates(reg, "")), len(reg.Environments()); got != want {
		t.Fatalf("Candidates(\"\"): got %d, want %d", got, want)
	}
	from, partial, ok := BeginContext(`x \begin{ite`, 12)
	if !ok || from != 9 || partial != "ite" {
		t.Fatalf("BeginContext: got %d %q %v", from, partial, ok)
	}
	if _, _, ok := BeginContext(`\end{ite`, 8); ok {
		t.Fatalf("BeginContext after \\end: got ok")
	}
}

const list = "\\begin{itemize}\n    \\item test\n\\end{itemize}\n"

func TestEnterContinuesList(t *testing.T) {
	tree, reg := parse(t, list)
	caret := strings.Index(list, "test") + len("test")
	r, ok := Enter(tree, reg, buffer.Cursor(caret), Options{})
	if !ok {
		t.Fatalf("Enter: not in list")
	}
	got := apply(t, list, r)
	want := "\\begin{itemize}\n    \\item test\n    \\item \n\\end{itemize}\n"
	if got != want {
		t.Fatalf("text: got %q, want %q", got, want)
	}
	if got, want := r.Selection.Head, caret+len("\n    \\item "); got != want {
		t.Fatalf("caret: got %d, want %d", got, want)
	}
}

func TestEnterFinishesListOnEmptyLastItem(t *testing.T) {
	text := "\\begin{itemize}\n    \\item test\n    \\item \n\\end{itemize}\n"
	tree, reg := parse(t, text)
	caret := strings.Index(text, "\\item \n") + len("\\item ")
	r, ok := Enter(tree, reg, buffer.Cursor(caret), Options{})
	if !ok {
		t.Fatalf("Enter: not in list")
	}
	got := apply(t, text, r)
	want := "\\begin{itemize}\n    \\item test\n\\end{itemize}\n\n"
	if got != want {
		t.Fatalf("text: got %q, want %q", got, want)
	}
	if got, want := r.Selection.Head, len("\\begin{itemize}\n    \\item test\n\\end{itemize}\n"); got != want {
		t.Fatalf("caret: got %d, want %d", got, want)
	}
}

func TestEnterOnEmptyEarlierItemInsertsNewline(t *testing.T) {
	text := "\\begin{itemize}\n\\item \n\\item b\n\\end{itemize}"
	tree, reg := parse(t, text)
	caret := strings.Index(text, "\\item \n") + len("\\item ")
	r, ok := Enter(tree, reg, buffer.Cursor(caret), Options{})
	if !ok {
		t.Fatalf("Enter: not in list")
	}
	if got, want := r.Edits, []buffer.Edit{buffer.Insert(caret, "\n")}; !reflect.DeepEqual(got, want) {
		t.Fatalf("edits: got %v, want %v", got, want)
	}
}

func TestEnterDescriptionList(t *testing.T) {
	text := "\\begin{description}\n\\item[a] x\n\\end{description}"
	tree, reg := parse(t, text)
	caret := strings.Index(text, " x") + 2
	r, ok := Enter(tree, reg, buffer.Cursor(caret), Options{})
	if !ok {
		t.Fatalf("Enter: not in list")
	}
	got := apply(t, text, r)
	if want := "\\begin{description}\n\\item[a] x\n\\item[]\n\\end{description}"; got != want {
		t.Fatalf("text: got %q, want %q", got, want)
	}
	if got[:r.Selection.Head] != "\\begin{description}\n\\item[a] x\n\\item[" {
		t.Fatalf("caret at %d: not inside the label", r.Selection.Head)
	}
}

func TestEnterOutsideList(t *testing.T) {
	tree, reg := parse(t, "plain text")
	if _, ok := Enter(tree, reg, buffer.Cursor(5), Options{}); ok {
		t.Fatalf("Enter outside a list: got ok")
	}
	if _, err := FindListItem(tree, reg, 5); !errors.Is(err, ErrNotInList) {
		t.Fatalf("FindListItem: got %v, want ErrNotInList", err)
	}
}

func TestPairBrace(t *testing.T) {
	r := PairBrace(`\textbf`, buffer.Cursor(7))
	if got, want := apply(t, `\textbf`, r), `\textbf{}`; got != want {
		t.Fatalf("collapsed: got %q, want %q", got, want)
	}
	if got, want := r.Selection, buffer.Cursor(8); got != want {
		t.Fatalf("collapsed caret: got %v, want %v", got, want)
	}

	r = PairBrace("a word b", buffer.Selection{Anchor: 2, Head: 6})
	if got, want := apply(t, "a word b", r), "a {word} b"; got != want {
		t.Fatalf("wrapped: got %q, want %q", got, want)
	}
	if got, want := r.Selection, (buffer.Selection{Anchor: 3, Head: 7}); got != want {
		t.Fatalf("wrapped selection: got %v, want %v", got, want)
	}

	if r, ok := SkipClosing("{}", buffer.Cursor(1)); !ok || r.Selection.Head != 2 || len(r.Edits) != 0 {
		t.Fatalf("SkipClosing: got %+v %v", r, ok)
	}
}

const titled = "\\author{Author \\and Author2}\n" +
	"\\title{Title}\n" +
	"\\begin{document}\n" +
	"\\end{document}\n"

func TestEditWidgetPreambleEntry(t *testing.T) {
	tree, reg := parse(t, titled)
	p, _ := preamble.Collapse(tree, reg)

	r, err := EditWidget(tree, reg, WidgetEdit{Node: p.Owner, Entry: "author-1", Offset: 6, DeleteLength: 1, Insert: "New"})
	if err != nil {
		t.Fatalf("EditWidget: %v", err)
	}
	got := apply(t, titled, r)
	if !strings.HasPrefix(got, "\\author{Author \\and AuthorNew}\n") {
		t.Fatalf("text: got %q", got)
	}

	if _, err := EditWidget(tree, reg, WidgetEdit{Node: p.Owner, Entry: "author-7"}); !errors.Is(err, ErrRemapFailed) {
		t.Fatalf("missing entry: got %v, want ErrRemapFailed", err)
	}
	if _, err := EditWidget(tree, reg, WidgetEdit{Node: p.Owner, Entry: "title", Offset: 4, DeleteLength: 9}); !errors.Is(err, ErrRemapFailed) {
		t.Fatalf("range past entry: got %v, want ErrRemapFailed", err)
	}
}

func TestEditWidgetArgument(t *testing.T) {
	text := `\href{u}{Overleaf} x`
	tree, reg := parse(t, text)
	href := tree.Child(tree.Root(), 0)

	r, err := EditWidget(tree, reg, WidgetEdit{Node: tree.Node(href).ID(), Arg: 1, Offset: 8, Insert: "!"})
	if err != nil {
		t.Fatalf("EditWidget: %v", err)
	}
	if got, want := apply(t, text, r), `\href{u}{Overleaf!} x`; got != want {
		t.Fatalf("text: got %q, want %q", got, want)
	}

	// A refresh re-derives identities, so the old owner no longer maps.
	fresh, _ := syntax.NewParser(reg).Refresh(tree, href)
	if _, err := EditWidget(fresh, reg, WidgetEdit{Node: tree.Node(href).ID(), Arg: 1}); !errors.Is(err, ErrRemapFailed) {
		t.Fatalf("stale owner: got %v, want ErrRemapFailed", err)
	}
}

func TestToggleFormat(t *testing.T) {
	text := "a word b"
	tree, _ := parse(t, text)
	r := ToggleFormat(tree, buffer.Selection{Anchor: 2, Head: 6}, "textbf")
	got := apply(t, text, r)
	if want := `a \textbf{word} b`; got != want {
		t.Fatalf("wrap: got %q, want %q", got, want)
	}
	if want := (buffer.Selection{Anchor: 10, Head: 14}); r.Selection != want {
		t.Fatalf("wrap selection: got %v, want %v", r.Selection, want)
	}

	tree, _ = parse(t, got)
	r = ToggleFormat(tree, buffer.Cursor(12), "textbf")
	if got, want := apply(t, got, r), text; got != want {
		t.Fatalf("unwrap: got %q, want %q", got, want)
	}
	if got, want := r.Selection, buffer.Cursor(4); got != want {
		t.Fatalf("unwrap caret: got %v, want %v", got, want)
	}

	tree, _ = parse(t, "ab")
	r = ToggleFormat(tree, buffer.Cursor(1), "textit")
	if got, want := apply(t, "ab", r), `a\textit{}b`; got != want {
		t.Fatalf("empty wrap: got %q, want %q", got, want)
	}
	if got, want := r.Selection, buffer.Cursor(9); got != want {
		t.Fatalf("empty wrap caret: got %v, want %v", got, want)
	}
}
