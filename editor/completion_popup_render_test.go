package editor

import (
	"reflect"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestCompletionWindow(t *testing.T) {
	for _, tc := range []struct {
		selected, n, rows int
		want              int
	}{
		{0, 3, 5, 0},
		{2, 10, 4, 0},
		{5, 10, 4, 2},
		{9, 10, 4, 6},
	} {
		if got := completionWindow(tc.selected, tc.n, tc.rows); got != tc.want {
			t.Fatalf("completionWindow(%d, %d, %d): got %d, want %d", tc.selected, tc.n, tc.rows, got, tc.want)
		}
	}
}

func TestRenderCompletionPopup(t *testing.T) {
	c := CompletionState{Visible: true, Items: []string{"center", "figure", "frame"}, Selected: 2}
	rows := renderCompletionPopup(c, DefaultStyle(), 2)
	for i := range rows {
		rows[i] = ansi.Strip(rows[i])
	}
	if want := []string{" figure ", " frame  "}; !reflect.DeepEqual(rows, want) {
		t.Fatalf("popup: got %q, want %q", rows, want)
	}
	if got := renderCompletionPopup(CompletionState{}, DefaultStyle(), 2); got != nil {
		t.Fatalf("hidden popup: got %q", got)
	}
}

func TestOverlayBottom(t *testing.T) {
	got := ansi.Strip(overlayBottom("aaa\nbbb\nccc", []string{"X", "Y"}))
	if want := "aaa\nXbb\nYcc"; got != want {
		t.Fatalf("overlay: got %q, want %q", got, want)
	}
	got = ansi.Strip(overlayBottom("a", []string{"X", "Y"}))
	if want := "Y"; got != want {
		t.Fatalf("overlay taller than view: got %q, want %q", got, want)
	}
	if got := overlayBottom("a\nb", nil); got != "a\nb" {
		t.Fatalf("no popup: got %q", got)
	}
}
