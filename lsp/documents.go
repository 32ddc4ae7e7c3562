package lsp

import (
	"context"
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/registry"
	"github.com/iw2rmb/vistex/session"
	"github.com/iw2rmb/vistex/syntax"
)

// MethodDecorationsChanged is sent when a background parse lands and the
// client should ask for decorations again.
const MethodDecorationsChanged = "vistex/decorationsChanged"

const MethodPublishDiagnostics = "textDocument/publishDiagnostics"

type document struct {
	uri     string
	version protocol.Integer
	sess    *session.Session
	// parsing is the version of the background parse in flight.
	parsing uint64
}

func (s *Server) open(uri string, version protocol.Integer, text string) (*document, error) {
	reg, err := s.cfg.Registry()
	if err != nil {
		return nil, err
	}
	for _, spec := range s.commands {
		if err := reg.RegisterCommand(spec); err != nil {
			return nil, err
		}
	}
	for _, spec := range s.environments {
		if err := reg.RegisterEnvironment(spec); err != nil {
			return nil, err
		}
	}
	sess := session.New(text, s.cfg.Session(reg, s.slog.With("uri", uri)))
	return &document{uri: uri, version: version, sess: sess}, nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uri := params.TextDocument.URI
	doc, err := s.open(uri, params.TextDocument.Version, params.TextDocument.Text)
	if err != nil {
		s.log.Errorf("open %s: %s", uri, err)
		return fmt.Errorf("open %s: %w", uri, err)
	}
	s.docs[uri] = doc
	s.log.Infof("opened %s (%d bytes)", uri, len(params.TextDocument.Text))
	s.afterEdit(ctx, doc)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.document(params.TextDocument.URI)
	if err != nil {
		return err
	}
	for _, raw := range params.ContentChanges {
		var edit buffer.Edit
		text := doc.sess.Text()
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEvent:
			if change.Range == nil {
				edit = buffer.Replace(0, len(text), change.Text)
				break
			}
			from, to := change.Range.IndexesIn(text)
			edit = buffer.Replace(from, to, change.Text)
		case protocol.TextDocumentContentChangeEventWhole:
			edit = buffer.Replace(0, len(text), change.Text)
		default:
			return fmt.Errorf("%s: unsupported content change %T", doc.uri, raw)
		}
		if _, err := doc.sess.Apply(edit); err != nil {
			return fmt.Errorf("%s: %w", doc.uri, err)
		}
	}
	doc.version = params.TextDocument.Version
	s.afterEdit(ctx, doc)
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, params.TextDocument.URI)
	s.log.Infof("closed %s", params.TextDocument.URI)
	return nil
}

// document returns an open document. The caller holds mu.
func (s *Server) document(uri string) (*document, error) {
	doc, ok := s.docs[uri]
	if !ok {
		return nil, fmt.Errorf("%s: %w", uri, ErrNotOpen)
	}
	return doc, nil
}

// afterEdit publishes diagnostics and starts the document's background
// parse, if one is outstanding. The caller holds mu.
func (s *Server) afterEdit(ctx *glsp.Context, doc *document) {
	if !doc.sess.Pending() {
		s.publishDiagnostics(ctx, doc)
	}
	job, ok := doc.sess.Job()
	if !ok || job.Version == doc.parsing {
		return
	}
	doc.parsing = job.Version
	go func() {
		res, err := job.Run(context.Background())
		s.mu.Lock()
		defer s.mu.Unlock()
		if doc.parsing == job.Version {
			doc.parsing = 0
		}
		if err != nil {
			s.log.Debugf("parse of %s version %d stopped: %s", doc.uri, job.Version, err)
			return
		}
		if s.docs[doc.uri] != doc {
			return
		}
		if _, ok := doc.sess.Install(res); ok {
			ctx.Notify(MethodDecorationsChanged, DocumentParams{URI: doc.uri})
		}
		s.afterEdit(ctx, doc)
	}()
}

func (s *Server) publishDiagnostics(ctx *glsp.Context, doc *document) {
	version := protocol.UInteger(doc.version)
	ctx.Notify(MethodPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         doc.uri,
		Version:     &version,
		Diagnostics: diagnostics(doc.sess.Tree(), doc.sess.Registry()),
	})
}

// diagnostics reports constructs the parser had to recover and known
// commands missing arguments.
func diagnostics(t *syntax.Tree, reg *registry.Registry) []protocol.Diagnostic {
	out := []protocol.Diagnostic{}
	src := t.Source()
	t.Walk(buffer.Range{From: 0, To: len(src)}, func(ref syntax.NodeRef) bool {
		n := t.Node(ref)
		var (
			msg      string
			severity protocol.DiagnosticSeverity
		)
		switch {
		case n.Broken():
			msg, severity = brokenMessage(t, ref), protocol.DiagnosticSeverityWarning
		case n.Has(syntax.FlagIncomplete):
			msg, severity = fmt.Sprintf(`\%s is missing arguments`, t.Name(ref)), protocol.DiagnosticSeverityInformation
		default:
			return true
		}
		source := Name
		out = append(out, protocol.Diagnostic{
			Range:    rangeOf(src, t.Range(ref)),
			Severity: &severity,
			Source:   &source,
			Message:  msg,
		})
		return true
	})
	return out
}

func brokenMessage(t *syntax.Tree, ref syntax.NodeRef) string {
	switch t.Kind(ref) {
	case syntax.KindEnvironment:
		return fmt.Sprintf(`\begin{%s} is not closed`, t.Name(ref))
	case syntax.KindGroup:
		return "unclosed brace"
	case syntax.KindOptional:
		return "unclosed bracket"
	case syntax.KindMath:
		return "unclosed math"
	case syntax.KindVerbatim:
		return "unclosed verbatim"
	}
	return fmt.Sprintf("unterminated %s", t.Kind(ref))
}
