package lsp

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/iw2rmb/vistex/buffer"
)

// positionAt converts a byte offset to a line and UTF-16 column.
func positionAt(text string, off int) protocol.Position {
	off = min(max(off, 0), len(text))
	line := strings.Count(text[:off], "\n")
	start := strings.LastIndexByte(text[:off], '\n') + 1
	col := 0
	for _, r := range text[start:off] {
		if r == utf8.RuneError {
			col++
			continue
		}
		col += utf16.RuneLen(r)
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)}
}

func rangeOf(text string, r buffer.Range) protocol.Range {
	return protocol.Range{Start: positionAt(text, r.From), End: positionAt(text, r.To)}
}
