package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"

	"github.com/iw2rmb/vistex/buffer"
	"github.com/iw2rmb/vistex/config"
	"github.com/iw2rmb/vistex/decoration"
	"github.com/iw2rmb/vistex/internal/codec"
	"github.com/iw2rmb/vistex/render"
	"github.com/iw2rmb/vistex/session"
)

// docFlags select the state a one-shot command plans for.
type docFlags struct {
	common
	caret    int
	from, to int
}

func (d *docFlags) addFlags(fs *pflag.FlagSet) {
	d.common.addFlags(fs)
	fs.IntVar(&d.caret, "caret", -1, "caret byte offset (default: end of document)")
	fs.IntVar(&d.from, "from", 0, "viewport start byte offset")
	fs.IntVar(&d.to, "to", 0, "viewport end byte offset (0: whole document)")
}

// open loads the config and opens a session on path.
func (d *docFlags) open(e env, path string) (*session.Session, config.Config, error) {
	cfg, err := d.load()
	if err != nil {
		return nil, cfg, err
	}
	text, err := readSource(e, path)
	if err != nil {
		return nil, cfg, err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return nil, cfg, err
	}
	scfg := cfg.Session(reg, newLogger(e.stderr, cfg))
	scfg.DocID = docID(path)
	s := session.New(text, scfg)

	caret := d.caret
	if caret < 0 || caret > len(text) {
		caret = len(text)
	}
	s.SetSelection(buffer.Cursor(caret))
	if d.to > d.from {
		s.SetViewport(buffer.Range{From: d.from, To: d.to})
	}
	return s, cfg, nil
}

func docID(path string) string {
	if path == "-" {
		return "stdin"
	}
	return filepath.Base(path)
}

func runRender(e env, args []string) error {
	var (
		d     docFlags
		width int
		color string
	)
	fs := newFlagSet(e, "render", "[flags] FILE")
	d.addFlags(fs)
	fs.IntVar(&width, "width", 80, "width used to center lines and draw rules")
	fs.StringVar(&color, "color", "auto", "color output: auto, always or never")
	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	s, cfg, err := d.open(e, path)
	if err != nil {
		return err
	}

	r := lipgloss.NewRenderer(e.stdout)
	switch color {
	case "auto":
	case "always":
		r.SetColorProfile(termenv.TrueColor)
	case "never":
		r.SetColorProfile(termenv.Ascii)
	default:
		return fmt.Errorf("--color: unknown value %q", color)
	}
	lines := render.Lines(s.Text(), s.Decorations())
	out := render.Render(lines, cfg.RenderTheme(r), render.Options{Width: width, Cursor: -1})
	_, err = fmt.Fprintln(e.stdout, out)
	return err
}

type planDump struct {
	Document    string              `json:"document"`
	Version     uint64              `json:"version"`
	Caret       int                 `json:"caret"`
	Toolbar     []string            `json:"toolbar"`
	Decorations []decoration.Record `json:"decorations"`
}

func runPlan(e env, args []string) error {
	var (
		d      docFlags
		format string
	)
	fs := newFlagSet(e, "plan", "[flags] FILE")
	d.addFlags(fs)
	fs.StringVar(&format, "format", "json", "output format: json, cbor or diag")
	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	s, _, err := d.open(e, path)
	if err != nil {
		return err
	}
	toolbar := s.Toolbar()
	if toolbar == nil {
		toolbar = []string{}
	}
	dump := planDump{
		Document:    s.ID(),
		Version:     s.Version(),
		Caret:       s.Selection().Head,
		Toolbar:     toolbar,
		Decorations: s.Decorations().Records(),
	}
	return writeDump(e.stdout, format, dump)
}

func writeDump(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "cbor":
		return codec.NewEncoder(w).Encode(v)
	case "diag":
		data, err := codec.Marshal(v)
		if err != nil {
			return err
		}
		diag, err := codec.Diagnose(data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, diag)
		return err
	}
	return fmt.Errorf("--format: unknown value %q", format)
}

type projectionDump struct {
	Text     string           `json:"text"`
	Segments []projectSegment `json:"segments"`
}

type projectSegment struct {
	Offset   int  `json:"offset"`
	Len      int  `json:"len"`
	From     int  `json:"from"`
	To       int  `json:"to"`
	Rendered bool `json:"rendered,omitempty"`
}

func runProject(e env, args []string) error {
	var (
		c      common
		format string
	)
	fs := newFlagSet(e, "project", "[flags] FILE")
	c.addFlags(fs)
	fs.StringVar(&format, "format", "text", "output format: text, json or cbor")
	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	d := docFlags{common: c, caret: -1}
	s, _, err := d.open(e, path)
	if err != nil {
		return err
	}
	p := s.Projection()
	if format == "text" {
		_, err := io.WriteString(e.stdout, p.Text)
		return err
	}
	dump := projectionDump{Text: p.Text, Segments: make([]projectSegment, 0, len(p.Segments))}
	for _, seg := range p.Segments {
		dump.Segments = append(dump.Segments, projectSegment{
			Offset:   seg.Offset,
			Len:      seg.Len,
			From:     seg.Source.From,
			To:       seg.Source.To,
			Rendered: seg.Rendered,
		})
	}
	return writeDump(e.stdout, format, dump)
}
