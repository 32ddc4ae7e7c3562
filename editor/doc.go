// Package editor provides a Bubble Tea component that edits LaTeX source in
// visual mode on top of a session.
//
// The component handles keys and the viewport, draws the decorated source
// through the render package, shows the active toolbar formats and offers
// environment names after \begin{. Large edits parse in the background as
// a tea.Cmd; until the result arrives the source is drawn without
// decorations.
package editor
