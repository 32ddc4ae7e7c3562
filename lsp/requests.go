package lsp

import (
	"errors"
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/config"
	"github.com/iw2rmb/vistex/decoration"
	"github.com/iw2rmb/vistex/session"
	"github.com/iw2rmb/vistex/structedit"
)

const (
	MethodDecorations         = "vistex/decorations"
	MethodSetEditing          = "vistex/setEditing"
	MethodToolbar             = "vistex/toolbar"
	MethodToggleFormat        = "vistex/toggleFormat"
	MethodCompleteEnvironment = "vistex/completeEnvironment"
	MethodEnter               = "vistex/enter"
	MethodEditWidget          = "vistex/editWidget"
	MethodProjection          = "vistex/projection"
	MethodRegisterCommand     = "vistex/registerCommand"
	MethodRegisterEnvironment = "vistex/registerEnvironment"
)

// ErrNotOpen reports a request for a document the client never opened.
var ErrNotOpen = errors.New("document not open")

type DocumentParams struct {
	URI string `json:"uri"`
}

type Span struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type Selection struct {
	Anchor int `json:"anchor"`
	Head   int `json:"head"`
}

func (s *Selection) selection() buffer.Selection {
	return buffer.Selection{Anchor: s.Anchor, Head: s.Head}
}

func selectionOf(sel buffer.Selection) Selection {
	return Selection{Anchor: sel.Anchor, Head: sel.Head}
}

type DecorationsParams struct {
	URI string `json:"uri"`
	// Viewport limits planning to the visible range; nil plans everything.
	Viewport  *Span      `json:"viewport,omitempty"`
	Selection *Selection `json:"selection,omitempty"`
}

type DecorationsResult struct {
	Version     protocol.Integer    `json:"version"`
	Pending     bool                `json:"pending"`
	Decorations []decoration.Record `json:"decorations"`
}

type SetEditingParams struct {
	URI     string `json:"uri"`
	Node    uint64 `json:"node"`
	Editing bool   `json:"editing"`
}

type ToolbarParams struct {
	URI       string     `json:"uri"`
	Selection *Selection `json:"selection,omitempty"`
}

type ToolbarResult struct {
	Available []string `json:"available"`
	Active    []string `json:"active"`
}

type ToggleFormatParams struct {
	URI       string     `json:"uri"`
	Selection *Selection `json:"selection,omitempty"`
	Name      string     `json:"name"`
}

type CompleteEnvironmentParams struct {
	URI       string     `json:"uri"`
	Selection *Selection `json:"selection,omitempty"`
	Name      string     `json:"name"`
}

type EnterParams struct {
	URI       string     `json:"uri"`
	Selection *Selection `json:"selection,omitempty"`
}

type EditWidgetParams struct {
	URI string `json:"uri"`
	// Node owns the widget; Entry names a preamble entry, otherwise Arg
	// selects the argument.
	Node         uint64 `json:"node"`
	Entry        string `json:"entry,omitempty"`
	Arg          int    `json:"arg"`
	Offset       int    `json:"offset"`
	DeleteLength int    `json:"deleteLength"`
	Insert       string `json:"insert"`
}

// TextEdit replaces [From,To) of the text the client had before the
// request.
type TextEdit struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Insert string `json:"insert"`
}

// EditResult describes an edit the server already applied. The client
// applies Edits to its copy, adopts Version and does not echo the edit
// back through didChange.
type EditResult struct {
	Version     protocol.Integer    `json:"version"`
	Edits       []TextEdit          `json:"edits"`
	Selection   Selection           `json:"selection"`
	Pending     bool                `json:"pending"`
	Decorations []decoration.Record `json:"decorations"`
}

// ProjectionSegment maps Text[Offset:Offset+Len] to the source range
// [From, To). Rendered segments map as a whole.
type ProjectionSegment struct {
	Offset   int  `json:"offset"`
	Len      int  `json:"len"`
	From     int  `json:"from"`
	To       int  `json:"to"`
	Rendered bool `json:"rendered,omitempty"`
}

type ProjectionResult struct {
	Text     string              `json:"text"`
	Segments []ProjectionSegment `json:"segments"`
}

// RegisterCommandParams adds a command to one document, or to every
// document when URI is empty.
type RegisterCommandParams struct {
	URI     string         `json:"uri,omitempty"`
	Command config.Command `json:"command"`
}

type RegisterEnvironmentParams struct {
	URI         string             `json:"uri,omitempty"`
	Environment config.Environment `json:"environment"`
}

func (s *Server) decorations(ctx *glsp.Context, params *DecorationsParams) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.document(params.URI)
	if err != nil {
		return nil, err
	}
	if params.Viewport != nil {
		doc.sess.SetViewport(buffer.Range{From: params.Viewport.From, To: params.Viewport.To})
	}
	if params.Selection != nil {
		doc.sess.SetSelection(params.Selection.selection())
	}
	return DecorationsResult{
		Version:     doc.version,
		Pending:     doc.sess.Pending(),
		Decorations: doc.sess.Decorations().Records(),
	}, nil
}

func (s *Server) setEditing(ctx *glsp.Context, params *SetEditingParams) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.document(params.URI)
	if err != nil {
		return nil, err
	}
	u := doc.sess.SetEditing(params.Node, params.Editing)
	return DecorationsResult{Version: doc.version, Pending: u.Pending, Decorations: u.Decorations.Records()}, nil
}

func (s *Server) toolbar(ctx *glsp.Context, params *ToolbarParams) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.document(params.URI)
	if err != nil {
		return nil, err
	}
	if params.Selection != nil {
		doc.sess.SetSelection(params.Selection.selection())
	}
	active := doc.sess.Toolbar()
	if active == nil {
		active = []string{}
	}
	return ToolbarResult{Available: doc.sess.Registry().Toolbar(), Active: active}, nil
}

func (s *Server) toggleFormat(ctx *glsp.Context, params *ToggleFormatParams) (any, error) {
	return s.edit(ctx, params.URI, params.Selection, func(sess *session.Session) error {
		_, err := sess.ToggleFormat(params.Name)
		return err
	})
}

func (s *Server) completeEnvironment(ctx *glsp.Context, params *CompleteEnvironmentParams) (any, error) {
	return s.edit(ctx, params.URI, params.Selection, func(sess *session.Session) error {
		_, err := sess.Complete(params.Name)
		return err
	})
}

func (s *Server) enter(ctx *glsp.Context, params *EnterParams) (any, error) {
	return s.edit(ctx, params.URI, params.Selection, func(sess *session.Session) error {
		sess.Enter()
		return nil
	})
}

func (s *Server) editWidget(ctx *glsp.Context, params *EditWidgetParams) (any, error) {
	return s.edit(ctx, params.URI, nil, func(sess *session.Session) error {
		sess.EditWidget(structedit.WidgetEdit{
			Node:         params.Node,
			Entry:        params.Entry,
			Arg:          params.Arg,
			Offset:       params.Offset,
			DeleteLength: params.DeleteLength,
			Insert:       params.Insert,
		})
		return nil
	})
}

// edit runs fn on the document's session and reports the text change it
// made as a single replacement.
func (s *Server) edit(ctx *glsp.Context, uri string, sel *Selection, fn func(*session.Session) error) (EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.document(uri)
	if err != nil {
		return EditResult{}, err
	}
	if sel != nil {
		doc.sess.SetSelection(sel.selection())
	}
	before := doc.sess.Text()
	if err := fn(doc.sess); err != nil {
		return EditResult{}, fmt.Errorf("%s: %w", uri, err)
	}
	edits := []TextEdit{}
	if after := doc.sess.Text(); after != before {
		edits = append(edits, diff(before, after))
		doc.version++
		s.afterEdit(ctx, doc)
	}
	return EditResult{
		Version:     doc.version,
		Edits:       edits,
		Selection:   selectionOf(doc.sess.Selection()),
		Pending:     doc.sess.Pending(),
		Decorations: doc.sess.Decorations().Records(),
	}, nil
}

func (s *Server) projection(ctx *glsp.Context, params *DocumentParams) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.document(params.URI)
	if err != nil {
		return nil, err
	}
	p := doc.sess.Projection()
	res := ProjectionResult{Text: p.Text, Segments: make([]ProjectionSegment, 0, len(p.Segments))}
	for _, seg := range p.Segments {
		res.Segments = append(res.Segments, ProjectionSegment{
			Offset:   seg.Offset,
			Len:      seg.Len,
			From:     seg.Source.From,
			To:       seg.Source.To,
			Rendered: seg.Rendered,
		})
	}
	return res, nil
}

func (s *Server) registerCommand(ctx *glsp.Context, params *RegisterCommandParams) (any, error) {
	spec, err := params.Command.Spec()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.targets(params.URI)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if _, err := doc.sess.RegisterCommand(spec); err != nil {
			return nil, fmt.Errorf("%s: %w", doc.uri, err)
		}
		s.afterEdit(ctx, doc)
	}
	if params.URI == "" {
		s.commands = append(s.commands, spec)
	}
	s.log.Infof("registered command \\%s for %d documents", spec.Name, len(docs))
	return nil, nil
}

func (s *Server) registerEnvironment(ctx *glsp.Context, params *RegisterEnvironmentParams) (any, error) {
	spec, err := params.Environment.Spec()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.targets(params.URI)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if _, err := doc.sess.RegisterEnvironment(spec); err != nil {
			return nil, fmt.Errorf("%s: %w", doc.uri, err)
		}
		s.afterEdit(ctx, doc)
	}
	if params.URI == "" {
		s.environments = append(s.environments, spec)
	}
	s.log.Infof("registered environment %s for %d documents", spec.Name, len(docs))
	return nil, nil
}

// targets returns the document named by uri, or all documents when uri is
// empty. The caller holds mu.
func (s *Server) targets(uri string) ([]*document, error) {
	if uri != "" {
		doc, err := s.document(uri)
		if err != nil {
			return nil, err
		}
		return []*document{doc}, nil
	}
	docs := make([]*document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	return docs, nil
}

// diff returns the single replacement turning before into after.
func diff(before, after string) TextEdit {
	p := 0
	for p < len(before) && p < len(after) && before[p] == after[p] {
		p++
	}
	b, a := len(before), len(after)
	for b > p && a > p && before[b-1] == after[a-1] {
		b--
		a--
	}
	return TextEdit{From: p, To: b, Insert: after[p:a]}
}
