// Package session ties one document's buffer, syntax tree, registry and
// viewport together and recomputes decorations on every event.
//
// A Session has a single mutator: all methods except Metrics and Job.Run
// must be called from the same goroutine. Large edits hand their parse to a
// Job that may run elsewhere; its result is installed back on the session's
// goroutine, and results for superseded versions are dropped.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/decoration"
	"github.com/iw2rmb/vistex/preamble"
	"github.com/iw2rmb/vistex/projection"
	"github.com/iw2rmb/vistex/registry"
	"github.com/iw2rmb/vistex/structedit"
	"github.com/iw2rmb/vistex/syntax"
)

// Config configures a Session. The zero value is usable.
type Config struct {
	// Registry is the command table. Defaults to registry.Default().
	Registry *registry.Registry
	// Logger receives reparse and recovery events. If nil, a no-op logger
	// is used.
	Logger *slog.Logger
	// Indent is one indentation level for inserted templates.
	Indent string
	// BackgroundThreshold is the change size in bytes from which parsing
	// moves to a Job. Zero parses every change inline.
	BackgroundThreshold int
	HistoryLimit        int
	// DocID namespaces stable ids. Empty picks a random UUID.
	DocID string
}

// Update describes the state after an event.
type Update struct {
	Version     uint64
	Selection   buffer.Selection
	Decorations decoration.Set
	// Reparsed is set when the event produced a new tree.
	Reparsed bool
	Stats    syntax.Stats
	// Pending is set while a background parse is outstanding; Decorations
	// is empty until it is installed.
	Pending bool
}

type Session struct {
	id      string
	cfg     Config
	log     *slog.Logger
	reg     *registry.Registry
	regGen  uint64
	parser  *syntax.Parser
	buf     *buffer.Buffer
	tree    *syntax.Tree
	view    buffer.Range
	editing map[uint64]bool
	pending *Job
	// head is the preamble of the last installed tree, carried through the
	// edits made while a parse is pending.
	head    *preamble.Preamble
	plan    decoration.Set
	metrics *Metrics
}

// New opens a session on text and parses it.
func New(text string, cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	reg := cfg.Registry
	if reg == nil {
		reg = registry.Default()
	}
	id := cfg.DocID
	if id == "" {
		id = uuid.NewString()
	}
	s := &Session{
		id:      id,
		cfg:     cfg,
		reg:     reg,
		parser:  syntax.NewParser(reg),
		buf:     buffer.New(text, buffer.Options{HistoryLimit: cfg.HistoryLimit}),
		editing: make(map[uint64]bool),
		metrics: &Metrics{},
	}
	s.log = logger.With("doc", s.id)
	s.fullParse("open")
	s.replan()
	return s
}

func (s *Session) ID() string { return s.id }
func (s *Session) Text() string { return s.buf.Text() }
func (s *Session) Version() uint64 { return s.buf.Version() }
func (s *Session) Selection() buffer.Selection { return s.buf.Selection() }
func (s *Session) Tree() *syntax.Tree { return s.tree }
func (s *Session) Registry() *registry.Registry { return s.reg }
func (s *Session) Decorations() decoration.Set { return s.plan }
func (s *Session) Metrics() *Metrics { return s.metrics }
func (s *Session) Viewport() buffer.Range { return s.view }
func (s *Session) Pending() bool { return s.pending != nil }
func (s *Session) Buffer() *buffer.Buffer { return s.buf }
func (s *Session) Config() Config { return s.cfg }
func (s *Session) options() structedit.Options { return structedit.Options{Indent: s.cfg.Indent} }
func (s *Session) update(reparsed bool) Update { return s.updateWith(reparsed, syntax.Stats{}) }

func (s *Session) updateWith(reparsed bool, st syntax.Stats) Update {
	return Update{
		Version:     s.buf.Version(),
		Selection:   s.buf.Selection(),
		Decorations: s.plan,
		Reparsed:    reparsed,
		Stats:       st,
		Pending:     s.pending != nil,
	}
}

// Apply applies edits, reparses and replans.
func (s *Session) Apply(edits ...buffer.Edit) (Update, error) {
	ch, err := s.buf.Apply(edits...)
	if err != nil {
		return Update{}, fmt.Errorf("apply: %w", err)
	}
	return s.afterChange(ch), nil
}

// ApplyResult applies a structural edit and installs its selection.
func (s *Session) ApplyResult(r structedit.Result) (Update, error) {
	if len(r.Edits) == 0 {
		return s.SetSelection(r.Selection), nil
	}
	ch, err := s.buf.ApplyWithSelection(r.Selection, r.Edits...)
	if err != nil {
		return Update{}, fmt.Errorf("apply: %w", err)
	}
	return s.afterChange(ch), nil
}

// InsertText types text over the selection.
func (s *Session) InsertText(text string) Update { return s.afterChange(s.buf.InsertText(text)) }

func (s *Session) DeleteBackward() Update { return s.afterChange(s.buf.DeleteBackward()) }
func (s *Session) DeleteForward() Update  { return s.afterChange(s.buf.DeleteForward()) }

// Move moves the caret and replans without reparsing.
func (s *Session) Move(m buffer.Move) Update {
	s.buf.Move(m)
	s.replan()
	return s.update(false)
}

func (s *Session) Undo() Update {
	ch, ok := s.buf.Undo()
	if !ok {
		return s.update(false)
	}
	return s.afterChange(ch)
}

func (s *Session) Redo() Update {
	ch, ok := s.buf.Redo()
	if !ok {
		return s.update(false)
	}
	return s.afterChange(ch)
}

func (s *Session) afterChange(ch buffer.Change) Update {
	if ch.Changes.Empty() {
		s.replan()
		return s.update(false)
	}
	if s.pending != nil || s.cfg.BackgroundThreshold > 0 && ch.Changes.Size() >= s.cfg.BackgroundThreshold {
		if s.pending == nil {
			s.head = nil
			if p, ok := preamble.Collapse(s.tree, s.reg); ok {
				s.head = &p
			}
		}
		s.carry(ch.Changes)
		s.schedule()
		s.replan()
		return s.update(false)
	}
	if s.reg.Generation() != s.regGen {
		st := s.fullParse("registry changed")
		s.replan()
		return s.updateWith(true, st)
	}

	tree, st := s.parser.Reparse(s.buf.Text(), s.buf.Version(), s.tree, ch.Changes)
	s.tree = tree
	s.record(st)
	s.log.Debug("reparse",
		"version", tree.Version(),
		"container", st.Container.String(),
		"widened", st.Widened,
		"reused", st.Reused,
		"built", st.Built,
	)
	s.replan()
	return s.updateWith(true, st)
}

// carry maps the pending preamble through changes. A change that crosses an
// entry boundary drops it; one inside an entry grows or shrinks the entry.
func (s *Session) carry(changes buffer.ChangeSet) {
	if s.head == nil {
		return
	}
	for _, e := range s.head.Entries() {
		for _, c := range changes {
			inside := c.Offset >= e.Range.From && c.OldEnd() <= e.Range.To
			if !inside && c.Offset < e.Range.To && c.OldEnd() > e.Range.From {
				s.head = nil
				return
			}
		}
	}
	p := s.head.Map(changes)
	text := s.buf.Text()
	if p.HasTitle {
		p.Title.Text = text[p.Title.Range.From:p.Title.Range.To]
	}
	for i, a := range p.Authors {
		p.Authors[i].Text = text[a.Range.From:a.Range.To]
	}
	s.head = &p
}

func (s *Session) record(st syntax.Stats) {
	s.metrics.Reparses.Add(1)
	if st.Full {
		s.metrics.FullParses.Add(1)
	}
	s.metrics.Widenings.Add(uint64(st.Widened))
	s.metrics.ReusedNodes.Add(uint64(st.Reused))
	s.metrics.BuiltNodes.Add(uint64(st.Built))
}

// fullParse rebuilds the tree from scratch; every node gets a fresh
// identity.
func (s *Session) fullParse(reason string) syntax.Stats {
	s.regGen = s.reg.Generation()
	tree, err := s.parser.Parse(context.Background(), s.buf.Text(), s.buf.Version())
	if err != nil {
		// Background context never cancels.
		s.log.Error("full parse", "error", err)
		return syntax.Stats{}
	}
	s.tree = tree
	s.drop()
	s.head = nil
	st := syntax.Stats{Full: true, Container: syntax.KindDocument, Built: tree.Len()}
	s.record(st)
	s.log.Debug("full parse", "reason", reason, "version", tree.Version(), "nodes", tree.Len())
	return st
}

func (s *Session) schedule() {
	if s.pending != nil {
		s.metrics.CancelledJobs.Add(1)
		s.log.Debug("background parse superseded", "version", s.pending.Version)
	}
	s.drop()
	s.pending = newJob(s.buf.Version(), s.buf.Text(), s.parser)
	s.metrics.Jobs.Add(1)
	s.log.Debug("background parse scheduled", "version", s.pending.Version, "bytes", len(s.pending.Text))
}

// drop cancels the outstanding job, if any.
func (s *Session) drop() {
	if s.pending != nil {
		s.pending.stop()
		s.pending = nil
	}
}

// Job returns the outstanding background parse, if any.
func (s *Session) Job() (*Job, bool) {
	return s.pending, s.pending != nil
}

// Install adopts a background parse result. Results for a version other
// than the current one are dropped and counted; Install reports whether the
// result was used.
func (s *Session) Install(res JobResult) (Update, bool) {
	if s.pending == nil || res.Version != s.buf.Version() || res.Tree == nil {
		s.metrics.StaleResults.Add(1)
		s.log.Debug("stale parse result dropped", "result", res.Version, "version", s.buf.Version())
		return s.update(false), false
	}
	s.tree = res.Tree
	s.drop()
	s.head = nil
	s.regGen = s.reg.Generation()
	st := syntax.Stats{Full: true, Container: syntax.KindDocument, Built: res.Tree.Len()}
	s.record(st)
	s.replan()
	return s.updateWith(true, st), true
}

// SetSelection moves the selection and replans without reparsing.
func (s *Session) SetSelection(sel buffer.Selection) Update {
	s.buf.SetSelection(sel)
	s.replan()
	return s.update(false)
}

// SetViewport changes the planned range without reparsing.
func (s *Session) SetViewport(r buffer.Range) Update {
	s.view = r
	s.replan()
	return s.update(false)
}

// SetEditing marks a node as being edited through its widget, which keeps it
// revealed.
func (s *Session) SetEditing(node uint64, on bool) Update {
	if on {
		s.editing[node] = true
	} else {
		delete(s.editing, node)
	}
	s.replan()
	return s.update(false)
}

func (s *Session) replan() {
	if s.pending != nil {
		s.plan = nil
		return
	}
	s.plan = decoration.Plan(decoration.Input{
		Tree:      s.tree,
		Registry:  s.reg,
		Viewport:  s.view,
		Selection: s.buf.Selection(),
		Editing:   s.editing,
		DocID:     s.id,
	})
	s.metrics.Plans.Add(1)
}

// Toolbar returns the active toolbar formats.
func (s *Session) Toolbar() []string {
	if s.pending != nil {
		return nil
	}
	return decoration.Toolbar(s.tree, s.reg, s.buf.Selection())
}

// Projection returns the prose of the current tree.
func (s *Session) Projection() projection.Projection {
	return projection.Project(s.tree, s.reg)
}

// Preamble returns the collapsed preamble of the current tree. While a
// parse is pending it is the last installed one carried through the edits
// since.
func (s *Session) Preamble() (preamble.Preamble, bool) {
	if s.pending != nil {
		if s.head == nil {
			return preamble.Preamble{}, false
		}
		return *s.head, true
	}
	return preamble.Collapse(s.tree, s.reg)
}

// Complete finishes a "\begin{" under the caret as environment name.
func (s *Session) Complete(name string) (Update, error) {
	if s.pending != nil {
		return s.update(false), fmt.Errorf("complete %q: %w", name, structedit.ErrNotAtBegin)
	}
	r, err := structedit.CompleteEnvironment(s.tree, s.reg, s.buf.Selection(), name, s.options())
	if err != nil {
		return s.update(false), fmt.Errorf("complete %q: %w", name, err)
	}
	return s.ApplyResult(r)
}

// Enter applies list continuation, or a plain newline outside lists.
func (s *Session) Enter() Update {
	if s.pending == nil {
		if r, ok := structedit.Enter(s.tree, s.reg, s.buf.Selection(), s.options()); ok {
			if u, err := s.ApplyResult(r); err == nil {
				return u
			}
		}
	}
	return s.afterChange(s.buf.InsertNewline())
}

// TypeBrace inserts a brace pair around the selection.
func (s *Session) TypeBrace() Update {
	u, err := s.ApplyResult(structedit.PairBrace(s.buf.Text(), s.buf.Selection()))
	if err != nil {
		s.log.Warn("brace pairing", "error", err)
		return s.update(false)
	}
	return u
}

// ToggleFormat applies or removes the toolbar format name at the
// selection.
func (s *Session) ToggleFormat(name string) (Update, error) {
	if s.pending != nil {
		return s.update(false), fmt.Errorf("toggle %q: parse pending", name)
	}
	return s.ApplyResult(structedit.ToggleFormat(s.tree, s.buf.Selection(), name))
}

// TypeCloseBrace steps over a closing brace that is already there, or
// inserts one.
func (s *Session) TypeCloseBrace() Update {
	if r, ok := structedit.SkipClosing(s.buf.Text(), s.buf.Selection()); ok {
		if u, err := s.ApplyResult(r); err == nil {
			return u
		}
	}
	return s.InsertText("}")
}

// EditWidget applies an edit made inside a widget. A widget that no longer
// maps to the source is not an error for the host: the failure is counted,
// the container around the owner is rebuilt with fresh identities and the
// host gets the new plan. Owners that are gone take the whole document
// with them.
func (s *Session) EditWidget(req structedit.WidgetEdit) Update {
	r, err := s.widgetEdit(req)
	if err == nil {
		u, applyErr := s.ApplyResult(r)
		if applyErr == nil {
			return u
		}
		err = applyErr
	}
	s.metrics.RemapFailures.Add(1)
	s.log.Info("widget remap failed", "node", req.Node, "entry", req.Entry, "error", err)

	ref, ok := syntax.NoNode, false
	if s.pending == nil && req.Entry == "" {
		ref, ok = s.tree.Find(req.Node)
	}
	if !ok {
		// Preamble entries hang off top-level commands, whose container is
		// the document itself.
		st := s.fullParse("remap failure")
		s.replan()
		return s.updateWith(true, st)
	}
	tree, st := s.parser.Refresh(s.tree, ref)
	s.tree = tree
	s.record(st)
	s.log.Debug("refreshed widget container", "node", req.Node, "container", st.Container.String(), "built", st.Built)
	s.replan()
	return s.updateWith(true, st)
}

// widgetEdit maps req onto the source. While a parse is pending only
// preamble entries map, through the carried preamble.
func (s *Session) widgetEdit(req structedit.WidgetEdit) (structedit.Result, error) {
	if s.pending == nil {
		return structedit.EditWidget(s.tree, s.reg, req)
	}
	if req.Entry != "" && s.head != nil && s.head.Owner == req.Node {
		if e, ok := s.head.Entry(req.Entry); ok {
			return structedit.EditEntry(e, req)
		}
	}
	return structedit.Result{}, fmt.Errorf("node %d while parsing: %w", req.Node, structedit.ErrRemapFailed)
}

// RegisterCommand adds or replaces a command and rebuilds the tree, since
// argument shapes may change.
func (s *Session) RegisterCommand(spec registry.CommandSpec) (Update, error) {
	if err := s.reg.RegisterCommand(spec); err != nil {
		return s.update(false), err
	}
	st := s.fullParse("register command " + spec.Name)
	s.replan()
	return s.updateWith(true, st), nil
}

// RegisterEnvironment adds or replaces an environment and rebuilds the
// tree.
func (s *Session) RegisterEnvironment(spec registry.EnvironmentSpec) (Update, error) {
	if err := s.reg.RegisterEnvironment(spec); err != nil {
		return s.update(false), err
	}
	st := s.fullParse("register environment " + spec.Name)
	s.replan()
	return s.updateWith(true, st), nil
}
