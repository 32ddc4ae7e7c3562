package registry

var sectioning = []string{
	"part",
	"chapter",
	"section",
	"subsection",
	"subsubsection",
	"paragraph",
	"subparagraph",
}

func defaultCommands() []CommandSpec {
	var out []CommandSpec

	icon := func(name, glyph string) CommandSpec {
		return CommandSpec{
			Name:           name,
			ArgCount:       1,
			Visibility:     VisibilityReplace,
			RenderTemplate: glyph + "#1",
			Icon:           glyph,
			Class:          "icon-" + name,
		}
	}
	out = append(out,
		icon("ref", "🏷"),
		icon("label", "🏷"),
		icon("cite", "📚"),
		icon("include", "🔗"),
		icon("input", "🔗"),
	)

	for level, name := range sectioning {
		out = append(out, CommandSpec{
			Name:         name,
			ArgCount:     1,
			OptionalArgs: 1,
			Visibility:   VisibilitySection,
			Class:        "heading-" + name,
			Level:        level,
		})
	}

	for _, name := range []string{"textbf", "textit", "underline"} {
		out = append(out, CommandSpec{
			Name:       name,
			ArgCount:   1,
			Visibility: VisibilityFormat,
			Class:      "command-" + name,
			Toolbar:    true,
		})
	}
	for _, name := range []string{"textsc", "texttt", "sout", "emph", "url"} {
		out = append(out, CommandSpec{
			Name:       name,
			ArgCount:   1,
			Visibility: VisibilityStyled,
			Class:      "command-" + name,
		})
	}
	out = append(out,
		CommandSpec{Name: "caption", ArgCount: 1, OptionalArgs: 1, Visibility: VisibilityStyled, Class: "command-caption"},
		CommandSpec{Name: "href", ArgCount: 2, Visibility: VisibilityReplace, RenderTemplate: "#2", Class: "link-text"},
		CommandSpec{Name: "verb", Visibility: VisibilityReplace, RenderTemplate: "#1", Class: "verbatim"},
	)

	glyph := func(name, text string) CommandSpec {
		return CommandSpec{
			Name:           name,
			EmptyGroup:     len(name) > 1,
			Visibility:     VisibilityReplace,
			RenderTemplate: text,
			Class:          "glyph",
		}
	}
	out = append(out,
		glyph("dots", "…"),
		glyph("ldots", "…"),
		glyph("textbackslash", `\`),
		glyph("%", "%"),
		glyph("&", "&"),
		glyph("#", "#"),
		glyph("_", "_"),
		glyph("$", "$"),
		glyph("{", "{"),
		glyph("}", "}"),
	)
	for _, logo := range []string{"LaTeX", "TeX"} {
		out = append(out, CommandSpec{
			Name:           logo,
			EmptyGroup:     true,
			Visibility:     VisibilityReplace,
			RenderTemplate: logo,
			Class:          "logo",
		})
	}

	out = append(out,
		CommandSpec{Name: "footnote", ArgCount: 1, OptionalArgs: 1, Visibility: VisibilityReplace, Widget: WidgetFootnote, Icon: "†", Class: "footnote"},
		CommandSpec{Name: "includegraphics", ArgCount: 1, OptionalArgs: 1, Visibility: VisibilityReplace, Widget: WidgetGraphics, Icon: "🖼", Class: "graphics"},
		CommandSpec{Name: "maketitle", Visibility: VisibilityReplace, Widget: WidgetTitle, Class: "maketitle"},
		CommandSpec{Name: "item", OptionalArgs: 1, Visibility: VisibilityReplace, Widget: WidgetItem, Class: "item"},
		CommandSpec{Name: "centering"},
		CommandSpec{Name: "author", ArgCount: 1, OptionalArgs: 1},
		CommandSpec{Name: "title", ArgCount: 1, OptionalArgs: 1},
		CommandSpec{Name: "and"},
	)
	return out
}

func defaultEnvironments() []EnvironmentSpec {
	return []EnvironmentSpec{
		{Name: "itemize", List: ListBullet, HideMarkup: true, LineClass: "environment-itemize", Template: `\item ` + CursorMarker},
		{Name: "enumerate", List: ListNumbered, HideMarkup: true, LineClass: "environment-enumerate", Template: `\item ` + CursorMarker},
		{Name: "description", List: ListDescription, HideMarkup: true, LineClass: "environment-description", Template: `\item[` + CursorMarker + `]`},
		{
			Name:         "figure",
			OptionalArgs: 1,
			LineClass:    "environment-figure",
			Template: `\centering` + "\n" +
				`\includegraphics{` + CursorMarker + `}` + "\n" +
				`\caption{Caption}` + "\n" +
				`\label{fig:label}`,
		},
		{
			Name:         "table",
			OptionalArgs: 1,
			LineClass:    "environment-table",
			Template: `\centering` + "\n" +
				CursorMarker + "\n" +
				`\caption{Caption}` + "\n" +
				`\label{tab:label}`,
		},
		{Name: "center", Centered: true, HideMarkup: true, LineClass: "environment-center"},
		{Name: "frame", ArgCount: 2, OptionalArgs: 1, Frame: true, HideMarkup: true, LineClass: "environment-frame"},
		{Name: "document", Document: true},
		{Name: "abstract", HideMarkup: true, LineClass: "environment-abstract"},
	}
}
