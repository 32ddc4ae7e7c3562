// Package lsp serves vistex sessions over the Language Server Protocol.
//
// Documents are synchronised with the standard textDocument notifications.
// Decorations and structural edits travel through custom "vistex/*"
// requests whose offsets are byte offsets into the document text, the same
// coordinates the planner uses. Unterminated constructs are published as
// diagnostics.
package lsp

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/iw2rmb/vistex/config"
	"github.com/iw2rmb/vistex/registry"
)

const Name = "vistex"

type requestFunc func(ctx *glsp.Context) (r any, validParams bool, err error)

// Server owns one session per open document. Handlers may run
// concurrently; mu serialises every session access.
type Server struct {
	cfg     config.Config
	slog    *slog.Logger
	log     commonlog.Logger
	version string

	handler  protocol.Handler
	requests map[string]requestFunc

	mu           sync.Mutex
	docs         map[string]*document
	commands     []registry.CommandSpec
	environments []registry.EnvironmentSpec
}

// New returns a server building documents from cfg. Session events go to
// logger; the server's own messages go through commonlog.
func New(cfg config.Config, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		cfg:     cfg,
		slog:    logger,
		log:     commonlog.GetLogger(Name + ".lsp"),
		version: version,
		docs:    make(map[string]*document),
	}
	s.handler = protocol.Handler{
		Initialize:            s.initialize,
		Initialized:           s.initialized,
		Shutdown:              s.shutdown,
		SetTrace:              s.setTrace,
		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,
	}
	s.requests = map[string]requestFunc{
		MethodDecorations:         decode(s.decorations),
		MethodSetEditing:          decode(s.setEditing),
		MethodToolbar:             decode(s.toolbar),
		MethodToggleFormat:        decode(s.toggleFormat),
		MethodCompleteEnvironment: decode(s.completeEnvironment),
		MethodEnter:               decode(s.enter),
		MethodEditWidget:          decode(s.editWidget),
		MethodProjection:          decode(s.projection),
		MethodRegisterCommand:     decode(s.registerCommand),
		MethodRegisterEnvironment: decode(s.registerEnvironment),
	}
	return s
}

// Handle implements glsp.Handler: vistex requests are served here, the rest
// by the protocol handler.
func (s *Server) Handle(ctx *glsp.Context) (r any, validMethod bool, validParams bool, err error) {
	fn, ok := s.requests[ctx.Method]
	if !ok {
		return s.handler.Handle(ctx)
	}
	r, validParams, err = fn(ctx)
	return r, true, validParams, err
}

// RunStdio serves on standard input and output until the client exits.
func (s *Server) RunStdio() error {
	return server.NewServer(s, Name, false).RunStdio()
}

func decode[P any](fn func(*glsp.Context, *P) (any, error)) requestFunc {
	return func(ctx *glsp.Context) (any, bool, error) {
		var params P
		if len(ctx.Params) > 0 {
			if err := json.Unmarshal(ctx.Params, &params); err != nil {
				return nil, false, nil
			}
		}
		r, err := fn(ctx, &params)
		return r, true, err
	}
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if params.ClientInfo != nil {
		s.log.Infof("initialize: client %s", params.ClientInfo.Name)
	}
	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	s.log.Debugf("client initialized")
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.docs)
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}
