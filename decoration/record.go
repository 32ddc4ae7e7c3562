package decoration

// Record is the wire form of a Decoration, used by plan dumps and the
// language server.
type Record struct {
	ID    string            `json:"id"`
	Node  uint64            `json:"node"`
	Kind  string            `json:"kind"`
	From  int               `json:"from"`
	To    int               `json:"to"`
	Class string            `json:"class,omitempty"`
	Text  string            `json:"text,omitempty"`
	Hide  bool              `json:"hide,omitempty"`
	Block bool              `json:"block,omitempty"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

func (d Decoration) Record() Record {
	return Record{
		ID:    d.StableID,
		Node:  d.Node,
		Kind:  d.Kind.String(),
		From:  d.Range.From,
		To:    d.Range.To,
		Class: d.Payload.Class,
		Text:  d.Payload.Text,
		Hide:  d.Payload.Hide,
		Block: d.Payload.Block,
		Attrs: d.Payload.Attrs,
	}
}

// Records converts s in order. An empty set gives an empty, non-nil slice.
func (s Set) Records() []Record {
	out := make([]Record, 0, len(s))
	for _, d := range s {
		out = append(out, d.Record())
	}
	return out
}
