package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// ClassStyle is a serialisable style for one decoration class.
type ClassStyle struct {
	Foreground    string `yaml:"foreground" toml:"foreground" json:"foreground"`
	Background    string `yaml:"background" toml:"background" json:"background"`
	Bold          bool   `yaml:"bold" toml:"bold" json:"bold"`
	Italic        bool   `yaml:"italic" toml:"italic" json:"italic"`
	Underline     bool   `yaml:"underline" toml:"underline" json:"underline"`
	Strikethrough bool   `yaml:"strikethrough" toml:"strikethrough" json:"strikethrough"`
	Faint         bool   `yaml:"faint" toml:"faint" json:"faint"`
}

// Theme maps decoration classes and lexer tokens to styles.
type Theme struct {
	r       *lipgloss.Renderer
	classes map[string]lipgloss.Style
	tokens  map[chroma.TokenType]lipgloss.Style
	syntax  *chroma.Style

	Text      lipgloss.Style
	Widget    lipgloss.Style
	Cursor    lipgloss.Style
	Selection lipgloss.Style
	Rule      lipgloss.Style
	Toolbar   lipgloss.Style
	Active    lipgloss.Style
}

var defaultClasses = map[string]ClassStyle{
	"heading":           {Foreground: "39", Bold: true},
	"command-textbf":    {Bold: true},
	"command-textit":    {Italic: true},
	"command-emph":      {Italic: true},
	"command-underline": {Underline: true},
	"command-sout":      {Strikethrough: true},
	"command-texttt":    {Foreground: "180"},
	"command-textsc":    {Bold: true, Faint: true},
	"command-url":       {Foreground: "75", Underline: true},
	"command-caption":   {Italic: true, Faint: true},
	"link-text":         {Foreground: "75", Underline: true},
	"verbatim":          {Foreground: "180"},
	"math":              {Foreground: "141"},
	"comment":           {Faint: true, Italic: true},
	"icon":              {Foreground: "214"},
	"glyph":             {Foreground: "252"},
	"logo":              {Bold: true},
	"footnote":          {Foreground: "214"},
	"graphics":          {Foreground: "108"},
	"item":              {Foreground: "214"},
	"maketitle":         {Bold: true},
	"preamble":          {Faint: true},
	"frame-title":       {Foreground: "39", Bold: true},
}

// NewTheme builds the default theme on r. A nil r uses the default
// renderer.
func NewTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	t := Theme{
		r:         r,
		classes:   make(map[string]lipgloss.Style),
		tokens:    make(map[chroma.TokenType]lipgloss.Style),
		syntax:    styles.Get("monokai"),
		Text:      r.NewStyle(),
		Widget:    r.NewStyle(),
		Cursor:    r.NewStyle().Reverse(true),
		Selection: r.NewStyle().Background(lipgloss.Color("237")),
		Rule:      r.NewStyle().Foreground(lipgloss.Color("240")),
		Toolbar:   r.NewStyle().Foreground(lipgloss.Color("240")),
		Active:    r.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}
	for class, cs := range defaultClasses {
		t.Set(class, cs)
	}
	return t
}

func (t Theme) newStyle() lipgloss.Style {
	if t.r == nil {
		return lipgloss.NewStyle()
	}
	return t.r.NewStyle()
}

// DefaultTheme returns NewTheme(nil).
func DefaultTheme() Theme { return NewTheme(nil) }

// Set overrides the style of class.
func (t *Theme) Set(class string, cs ClassStyle) {
	if t.classes == nil {
		t.classes = make(map[string]lipgloss.Style)
	}
	s := t.newStyle()
	if cs.Foreground != "" {
		s = s.Foreground(lipgloss.Color(cs.Foreground))
	}
	if cs.Background != "" {
		s = s.Background(lipgloss.Color(cs.Background))
	}
	// Only set attributes so nested classes combine through Inherit.
	if cs.Bold {
		s = s.Bold(true)
	}
	if cs.Italic {
		s = s.Italic(true)
	}
	if cs.Underline {
		s = s.Underline(true)
	}
	if cs.Strikethrough {
		s = s.Strikethrough(true)
	}
	if cs.Faint {
		s = s.Faint(true)
	}
	t.classes[class] = s
}

// SetSyntax selects the chroma style used for raw markup. Unknown names keep
// the current style.
func (t *Theme) SetSyntax(name string) {
	if s := styles.Get(name); s != styles.Fallback || strings.EqualFold(name, s.Name) {
		t.syntax = s
		t.tokens = make(map[chroma.TokenType]lipgloss.Style)
	}
}

// Class returns the style of class. "heading-section" falls back to
// "heading", "icon-ref" to "icon".
func (t Theme) Class(class string) (lipgloss.Style, bool) {
	if s, ok := t.classes[class]; ok {
		return s, true
	}
	if i := strings.IndexByte(class, '-'); i > 0 {
		if s, ok := t.classes[class[:i]]; ok {
			return s, true
		}
	}
	return lipgloss.Style{}, false
}

// Token returns the style of a lexer token. Styles are cached per theme.
func (t Theme) Token(tt chroma.TokenType) lipgloss.Style {
	if s, ok := t.tokens[tt]; ok {
		return s
	}
	s := t.newStyle()
	if t.syntax != nil {
		e := t.syntax.Get(tt)
		if e.Colour.IsSet() {
			s = s.Foreground(lipgloss.Color(e.Colour.String()))
		}
		if e.Bold == chroma.Yes {
			s = s.Bold(true)
		}
		if e.Italic == chroma.Yes {
			s = s.Italic(true)
		}
		if e.Underline == chroma.Yes {
			s = s.Underline(true)
		}
	}
	if t.tokens != nil {
		t.tokens[tt] = s
	}
	return s
}

func (t Theme) segment(seg Segment) lipgloss.Style {
	if len(seg.Classes) == 0 {
		if seg.Widget {
			return t.Widget
		}
		return t.Token(seg.Token)
	}
	s := t.Text
	if seg.Widget {
		s = t.Widget
	}
	for _, c := range seg.Classes {
		if cs, ok := t.Class(c); ok {
			s = cs.Inherit(s)
		}
	}
	return s
}

// place centers row in width cells.
func (t Theme) place(width int, row string) string {
	if t.r == nil {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, row)
	}
	return t.r.PlaceHorizontal(width, lipgloss.Center, row)
}
