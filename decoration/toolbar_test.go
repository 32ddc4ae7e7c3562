package decoration

import (
	"reflect"
	"testing"

	"github.com/iw2rmb/vistex/buffer"
)

func TestIsActive(t *testing.T) {
	for _, tc := range []struct {
		name string
		text string
		sel  buffer.Selection
		want bool
	}{
		{"caret before closing brace", `\textbf{test}`, buffer.Cursor(12), true},
		{"caret inside", `\textbf{test}`, buffer.Cursor(11), true},
		{"caret after opening brace", `\textbf{test}`, buffer.Cursor(8), true},
		{"caret after command", `\textbf{test}`, buffer.Cursor(13), false},
		{"caret before opening brace", `\textbf{test}`, buffer.Cursor(7), false},
		{"range inside", `\textbf{test}`, buffer.Selection{Anchor: 9, Head: 11}, true},
		{"range spanning", `\textbf{test} outside`, buffer.Selection{Anchor: 11, Head: 16}, false},
		{"different commands", `\textbf{first} \textbf{second}`, buffer.Selection{Anchor: 18, Head: 25}, false},
		{"common ancestor", `\textbf{\textit{first} \textit{second}}`, buffer.Selection{Anchor: 26, Head: 33}, true},
		{"nested same command", `\textbf{a\textbf{b}c}`, buffer.Cursor(17), false},
	} {
		tree, _ := parse(t, tc.text)
		if got := IsActive(tree, "textbf", tc.sel); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestToolbar(t *testing.T) {
	text := `\textbf{\textit{x}} \underline{y}`
	tree, reg := parse(t, text)

	if got, want := Toolbar(tree, reg, buffer.Cursor(17)), []string{"textbf", "textit"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("inside nested: got %v, want %v", got, want)
	}
	if got, want := Toolbar(tree, reg, buffer.Cursor(31)), []string{"underline"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("inside underline: got %v, want %v", got, want)
	}
	if got := Toolbar(tree, reg, buffer.Cursor(20)); len(got) != 0 {
		t.Fatalf("between commands: got %v, want none", got)
	}
}
