// Package decoration turns a syntax tree and the current selection into the
// set of marks, widgets and line classes a host draws over the source.
//
// The planner never edits text. Every decoration points back at the node
// that produced it, and Plan called twice on the same input returns the
// same set.
package decoration

import (
	"fmt"
	"sort"

	"github.com/iw2rmb/vistex/buffer"
)

type Kind uint8

const (
	// KindWidget replaces its range with Payload.Text.
	KindWidget Kind = iota
	// KindMark styles its range, or hides it when Payload.Hide is set.
	KindMark
	// KindLine attaches Payload.Class to the line containing Range.From.
	KindLine
)

func (k Kind) String() string {
	switch k {
	case KindWidget:
		return "widget"
	case KindMark:
		return "mark"
	case KindLine:
		return "line"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

type Payload struct {
	Class string
	Text  string
	Hide  bool
	// Block widgets stand for whole lines; a line left with nothing but
	// empty block widgets is not drawn.
	Block bool
	Attrs map[string]string
}

type Decoration struct {
	Kind    Kind
	Range   buffer.Range
	Payload Payload
	// StableID is "<docID>/<nodeID>/<role>" and survives edits that keep
	// the owning node's identity.
	StableID string
	// Node is the identity of the owning node.
	Node uint64
}

// Set is an ordered decoration list.
type Set []Decoration

func (s Set) sort() {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := s[i], s[j]
		if a.Range.From != b.Range.From {
			return a.Range.From < b.Range.From
		}
		if a.Range.To != b.Range.To {
			return a.Range.To < b.Range.To
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.StableID < b.StableID
	})
}

// Of returns the decorations of one kind.
func (s Set) Of(k Kind) Set {
	var out Set
	for _, d := range s {
		if d.Kind == k {
			out = append(out, d)
		}
	}
	return out
}

// Find returns the decoration with the given stable id.
func (s Set) Find(id string) (Decoration, bool) {
	for _, d := range s {
		if d.StableID == id {
			return d, true
		}
	}
	return Decoration{}, false
}

// LineClasses returns the line classes keyed by line start offset, in
// planner order.
func (s Set) LineClasses(text string) map[int][]string {
	out := make(map[int][]string)
	for _, d := range s {
		if d.Kind != KindLine {
			continue
		}
		start := buffer.LineStart(text, d.Range.From)
		out[start] = append(out[start], d.Payload.Class)
	}
	return out
}

// StableID formats a decoration identity.
func StableID(docID string, node uint64, role string) string {
	return fmt.Sprintf("%s/%d/%s", docID, node, role)
}
