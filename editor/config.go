package editor

import (
	"reflect"

	"github.com/iw2rmb/vistex/render"
	"github.com/iw2rmb/vistex/session"
)

// Config configures the editor Model.
type Config struct {
	// Initial text, used when the model opens its own session.
	Text    string
	Session session.Config

	// Theme styles the document. Nil uses render.DefaultTheme().
	Theme *render.Theme
	Style Style

	KeyMap           KeyMap
	CompletionKeyMap CompletionKeyMap

	Clipboard Clipboard
	ReadOnly  bool

	// ShowToolbar draws the active toolbar formats above the document.
	ShowToolbar bool
	// CompletionMaxRows limits the environment popup height.
	CompletionMaxRows int

	// OnChange is called after every event that changed the text or the
	// selection.
	OnChange func(ChangeEvent)
}

const defaultCompletionMaxRows = 6

func normalizeConfig(cfg Config) Config {
	if reflect.DeepEqual(cfg.KeyMap, KeyMap{}) {
		cfg.KeyMap = DefaultKeyMap()
	}
	if reflect.DeepEqual(cfg.CompletionKeyMap, CompletionKeyMap{}) {
		cfg.CompletionKeyMap = DefaultCompletionKeyMap()
	}
	if reflect.DeepEqual(cfg.Style, Style{}) {
		cfg.Style = DefaultStyle()
	}
	if cfg.CompletionMaxRows <= 0 {
		cfg.CompletionMaxRows = defaultCompletionMaxRows
	}
	return cfg
}
