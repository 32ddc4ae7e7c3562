// Package registry holds the table of recognised LaTeX commands and
// environments and the rules for rendering them. Names without an entry pass
// through as raw text.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/iw2rmb/vistex/syntax"
)

// ErrInvalidSpec is returned when a command or environment spec is rejected.
var ErrInvalidSpec = errors.New("invalid spec")

// Visibility selects the reveal rule for a command.
type Visibility uint8

const (
	// VisibilityRaw commands are never decorated.
	VisibilityRaw Visibility = iota
	// VisibilityFormat commands always hide their name and show their braces
	// only near the caret (toolbar formats).
	VisibilityFormat
	// VisibilityStyled commands hide all markup unless the caret touches it.
	VisibilityStyled
	// VisibilitySection commands render as headings.
	VisibilitySection
	// VisibilityReplace commands are replaced by a widget once complete and
	// the caret has left them.
	VisibilityReplace
)

var visibilityNames = map[Visibility]string{
	VisibilityRaw:     "raw",
	VisibilityFormat:  "format",
	VisibilityStyled:  "styled",
	VisibilitySection: "section",
	VisibilityReplace: "replace",
}

func (v Visibility) String() string {
	if s, ok := visibilityNames[v]; ok {
		return s
	}
	return fmt.Sprintf("visibility(%d)", v)
}

// ParseVisibility parses a visibility name as used in config files and
// scripts.
func ParseVisibility(s string) (Visibility, error) {
	for v, name := range visibilityNames {
		if strings.EqualFold(s, name) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown visibility %q: %w", s, ErrInvalidSpec)
}

// Widget is the kind of widget a VisibilityReplace command renders as.
type Widget uint8

const (
	// WidgetText substitutes the expanded render template.
	WidgetText Widget = iota
	WidgetFootnote
	WidgetGraphics
	WidgetItem
	WidgetTitle
)

var widgetNames = map[Widget]string{
	WidgetText:     "text",
	WidgetFootnote: "footnote",
	WidgetGraphics: "graphics",
	WidgetItem:     "item",
	WidgetTitle:    "title",
}

func (w Widget) String() string {
	if s, ok := widgetNames[w]; ok {
		return s
	}
	return fmt.Sprintf("widget(%d)", w)
}

func ParseWidget(s string) (Widget, error) {
	if s == "" {
		return WidgetText, nil
	}
	for w, name := range widgetNames {
		if strings.EqualFold(s, name) {
			return w, nil
		}
	}
	return 0, fmt.Errorf("unknown widget %q: %w", s, ErrInvalidSpec)
}

// CommandSpec describes a recognised command.
type CommandSpec struct {
	Name         string
	ArgCount     int
	OptionalArgs int
	// EmptyGroup consumes a trailing "{}" (\LaTeX{}).
	EmptyGroup bool

	Visibility Visibility
	Widget     Widget
	// RenderTemplate is the widget text; #1…#9 expand to argument text.
	RenderTemplate string
	// Class names the style applied to the argument content or widget.
	Class string
	Icon  string
	// LineClass tags every line the command spans.
	LineClass string
	// Level orders sectioning commands, 0 being \part.
	Level int
	// Toolbar marks formats shown in the toolbar.
	Toolbar bool
}

// Arity returns the argument shape used by the parser.
func (c CommandSpec) Arity() syntax.Arity {
	return syntax.Arity{Required: c.ArgCount, Optional: c.OptionalArgs, EmptyGroup: c.EmptyGroup}
}

// Render expands the render template with args.
func (c CommandSpec) Render(args ...string) string { return Expand(c.RenderTemplate, args) }

// List is the list style of an environment.
type List uint8

const (
	ListNone List = iota
	ListBullet
	ListNumbered
	ListDescription
)

var listNames = map[List]string{
	ListNone:        "",
	ListBullet:      "bullet",
	ListNumbered:    "numbered",
	ListDescription: "description",
}

func ParseList(s string) (List, error) {
	for l, name := range listNames {
		if strings.EqualFold(s, name) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown list style %q: %w", s, ErrInvalidSpec)
}

// CursorMarker marks the caret position in environment templates.
const CursorMarker = "$0"

// EnvironmentSpec describes a recognised environment.
type EnvironmentSpec struct {
	Name         string
	ArgCount     int
	OptionalArgs int
	// LineClass tags every line of the environment.
	LineClass string
	List      List
	// Centered tags every line as centered regardless of \centering.
	Centered bool
	// HideMarkup hides the \begin and \end lines unless the caret is on them.
	HideMarkup bool
	Frame      bool
	Document   bool
	// Template is the completion body, one line per template line, indented
	// one level inside the environment. CursorMarker places the caret.
	Template string
}

func (e EnvironmentSpec) Arity() syntax.Arity {
	return syntax.Arity{Required: e.ArgCount, Optional: e.OptionalArgs}
}

// Registry is a concurrency-safe command and environment table. Every
// successful registration bumps Generation so trees built from an older
// table can be recognised.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]CommandSpec
	envs     map[string]EnvironmentSpec
	gen      uint64
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		commands: make(map[string]CommandSpec),
		envs:     make(map[string]EnvironmentSpec),
	}
}

// Default returns a registry populated with the built-in table.
func Default() *Registry {
	r := New()
	for _, c := range defaultCommands() {
		r.commands[c.Name] = c
	}
	for _, e := range defaultEnvironments() {
		r.envs[e.Name] = e
	}
	return r
}

func (r *Registry) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gen
}

func (r *Registry) Command(name string) (CommandSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commands[name]
	return c, ok
}

func (r *Registry) Environment(name string) (EnvironmentSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.envs[name]
	return e, ok
}

// CommandArity implements syntax.Grammar.
func (r *Registry) CommandArity(name string) (syntax.Arity, bool) {
	c, ok := r.Command(name)
	return c.Arity(), ok
}

// EnvironmentArity implements syntax.Grammar.
func (r *Registry) EnvironmentArity(name string) (syntax.Arity, bool) {
	e, ok := r.Environment(name)
	return e.Arity(), ok
}

// RegisterCommand adds or replaces a command.
func (r *Registry) RegisterCommand(spec CommandSpec) error {
	if err := validateCommand(spec); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[spec.Name] = spec
	r.gen++
	return nil
}

// RegisterEnvironment adds or replaces an environment.
func (r *Registry) RegisterEnvironment(spec EnvironmentSpec) error {
	if err := validateEnvironment(spec); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs[spec.Name] = spec
	r.gen++
	return nil
}

// Environments returns the sorted environment names.
func (r *Registry) Environments() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.envs))
	for name := range r.envs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Commands returns the sorted command names.
func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.commands))
	for name := range r.commands {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Toolbar returns the toolbar formats in display order.
func (r *Registry) Toolbar() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for name, c := range r.commands {
		if c.Toolbar {
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return toolbarRank(out[i]) < toolbarRank(out[j]) ||
			toolbarRank(out[i]) == toolbarRank(out[j]) && out[i] < out[j]
	})
	return out
}

func toolbarRank(name string) int {
	switch name {
	case "textbf":
		return 0
	case "textit":
		return 1
	case "underline":
		return 2
	}
	return 3
}

func validateCommand(c CommandSpec) error {
	if err := validateName(c.Name, true); err != nil {
		return fmt.Errorf("command %q: %w", c.Name, err)
	}
	if c.ArgCount < 0 || c.ArgCount > 9 || c.OptionalArgs < 0 || c.OptionalArgs > 9 {
		return fmt.Errorf("command %q: argument counts must be within 0..9: %w", c.Name, ErrInvalidSpec)
	}
	if c.EmptyGroup && c.ArgCount > 0 {
		return fmt.Errorf("command %q: empty group with required arguments: %w", c.Name, ErrInvalidSpec)
	}
	if _, ok := visibilityNames[c.Visibility]; !ok {
		return fmt.Errorf("command %q: %v: %w", c.Name, c.Visibility, ErrInvalidSpec)
	}
	if _, ok := widgetNames[c.Widget]; !ok {
		return fmt.Errorf("command %q: %v: %w", c.Name, c.Widget, ErrInvalidSpec)
	}
	if n := maxPlaceholder(c.RenderTemplate); n > c.ArgCount && !(n == 1 && c.Name == "verb") {
		return fmt.Errorf("command %q: template refers to #%d with %d arguments: %w", c.Name, n, c.ArgCount, ErrInvalidSpec)
	}
	if c.Visibility == VisibilityReplace && c.Widget == WidgetText && c.RenderTemplate == "" {
		return fmt.Errorf("command %q: text widget without template: %w", c.Name, ErrInvalidSpec)
	}
	return nil
}

func validateEnvironment(e EnvironmentSpec) error {
	if err := validateName(e.Name, false); err != nil {
		return fmt.Errorf("environment %q: %w", e.Name, err)
	}
	if e.ArgCount < 0 || e.ArgCount > 9 || e.OptionalArgs < 0 || e.OptionalArgs > 9 {
		return fmt.Errorf("environment %q: argument counts must be within 0..9: %w", e.Name, ErrInvalidSpec)
	}
	if _, ok := listNames[e.List]; !ok {
		return fmt.Errorf("environment %q: list style %d: %w", e.Name, e.List, ErrInvalidSpec)
	}
	if strings.Count(e.Template, CursorMarker) > 1 {
		return fmt.Errorf("environment %q: template has more than one cursor marker: %w", e.Name, ErrInvalidSpec)
	}
	return nil
}

// validateName accepts a letter name or, for commands, a single
// non-letter character (control symbols such as \%).
func validateName(name string, symbol bool) error {
	if name == "" {
		return fmt.Errorf("empty name: %w", ErrInvalidSpec)
	}
	letters := true
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			letters = false
		}
	}
	if letters {
		return nil
	}
	if symbol && len(name) == 1 && name[0] > ' ' && name[0] < 0x7f {
		return nil
	}
	if !symbol {
		for i := 0; i < len(name); i++ {
			c := name[i]
			if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '*' || c == '-' || c == '_') {
				return fmt.Errorf("invalid character %q: %w", c, ErrInvalidSpec)
			}
		}
		return nil
	}
	return fmt.Errorf("name must be letters or a single symbol: %w", ErrInvalidSpec)
}
