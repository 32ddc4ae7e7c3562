package grapheme

import (
	"unicode"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Split returns grapheme clusters for text in visual order.
func Split(text string) []string {
	if text == "" {
		return nil
	}
	g := uniseg.NewGraphemes(text)
	out := make([]string, 0, len(text))
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// Count returns the number of grapheme clusters in text.
func Count(text string) int {
	if text == "" {
		return 0
	}
	return uniseg.GraphemeClusterCount(text)
}

// FirstLen returns the byte length of the first grapheme cluster in text.
func FirstLen(text string) int {
	if text == "" {
		return 0
	}
	g := uniseg.NewGraphemes(text)
	if !g.Next() {
		return 0
	}
	_, end := g.Positions()
	return end
}

// LastLen returns the byte length of the last grapheme cluster in text.
func LastLen(text string) int {
	if text == "" {
		return 0
	}
	g := uniseg.NewGraphemes(text)
	start, end := 0, 0
	for g.Next() {
		start, end = g.Positions()
	}
	return end - start
}

// ByteOffset returns the byte offset of the col-th grapheme cluster in text,
// clamped to len(text).
func ByteOffset(text string, col int) int {
	if col <= 0 || text == "" {
		return 0
	}
	g := uniseg.NewGraphemes(text)
	n := 0
	for g.Next() {
		if n == col {
			start, _ := g.Positions()
			return start
		}
		n++
	}
	return len(text)
}

// Width returns the terminal cell width of text.
func Width(text string) int {
	w := runewidth.StringWidth(text)
	if w <= 0 && text != "" {
		w = uniseg.StringWidth(text)
	}
	return w
}

// IsSpace reports whether all runes in cluster are Unicode whitespace.
func IsSpace(cluster string) bool {
	if cluster == "" {
		return false
	}
	for _, r := range cluster {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
