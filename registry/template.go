package registry

import "strings"

// Expand replaces #1…#9 in tmpl with the matching argument; missing
// arguments expand to nothing and ## yields a literal #.
func Expand(tmpl string, args []string) string {
	if !strings.Contains(tmpl, "#") {
		return tmpl
	}
	var b strings.Builder
	b.Grow(len(tmpl))
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '#' || i+1 >= len(tmpl) {
			b.WriteByte(c)
			continue
		}
		next := tmpl[i+1]
		switch {
		case next == '#':
			b.WriteByte('#')
			i++
		case next >= '1' && next <= '9':
			if n := int(next - '1'); n < len(args) {
				b.WriteString(args[n])
			}
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func maxPlaceholder(tmpl string) int {
	n := 0
	for i := 0; i+1 < len(tmpl); i++ {
		if tmpl[i] != '#' {
			continue
		}
		next := tmpl[i+1]
		if next == '#' {
			i++
			continue
		}
		if next >= '1' && next <= '9' && int(next-'0') > n {
			n = int(next - '0')
		}
	}
	return n
}
