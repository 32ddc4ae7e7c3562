package syntax

import (
	"sync/atomic"

	"github.com/zeebo/blake3"
)

type Kind uint8

const (
	KindDocument Kind = iota
	KindText
	KindCommand
	KindGroup       // {…}
	KindOptional    // […]
	KindEnvironment // \begin{name}…\end{name}
	KindEnvBody
	KindMath     // $…$, $$…$$, \(…\), \[…\]
	KindVerbatim // \verb|…|
	KindComment  // %…
)

var kindNames = [...]string{
	KindDocument:    "document",
	KindText:        "text",
	KindCommand:     "command",
	KindGroup:       "group",
	KindOptional:    "optional",
	KindEnvironment: "environment",
	KindEnvBody:     "body",
	KindMath:        "math",
	KindVerbatim:    "verbatim",
	KindComment:     "comment",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Flags are the node attributes.
type Flags uint8

const (
	// FlagBroken marks a construct recovered by truncation at end of line.
	FlagBroken Flags = 1 << iota
	// FlagIncomplete marks a known command missing required arguments.
	FlagIncomplete
	// FlagStarred marks a starred command (\section*, \verb*).
	FlagStarred
	// FlagDisplay marks display math.
	FlagDisplay
	// FlagEnvName marks the name group of \begin{…} and \end{…}.
	FlagEnvName
)

// Hash is the BLAKE3 digest of a node's source text.
type Hash [32]byte

func hashText(s string) Hash { return Hash(blake3.Sum256([]byte(s))) }

var lastID atomic.Uint64

func nextID() uint64 { return lastID.Add(1) }

// Child is a node placed at Offset bytes from its parent's start.
type Child struct {
	Offset int
	Node   *Node
}

// Node is an immutable parsed unit. A node does not know its absolute
// position; Tree resolves it.
type Node struct {
	id       uint64
	kind     Kind
	name     string
	length   int
	flags    Flags
	hash     Hash
	hashed   bool
	// fragile nodes contain a recovered construct whose extent depended on
	// text past the node's end.
	fragile  bool
	children []Child
}

// ID is the node identity. It survives edits that shift the node and edits
// inside it that do not remove or split it.
func (n *Node) ID() uint64 { return n.id }

func (n *Node) Kind() Kind { return n.kind }

// Name is the command or environment name; empty for other kinds.
func (n *Node) Name() string { return n.name }

func (n *Node) Len() int { return n.length }

func (n *Node) Flags() Flags { return n.flags }

func (n *Node) Has(f Flags) bool { return n.flags&f != 0 }

// Broken reports whether the node was recovered from unterminated markup.
func (n *Node) Broken() bool { return n.flags&FlagBroken != 0 }

// Hash returns the content hash and whether it is known. Nodes rebuilt by
// path copying during an incremental reparse carry no hash.
func (n *Node) Hash() (Hash, bool) { return n.hash, n.hashed }

func (n *Node) NumChildren() int { return len(n.children) }

func (n *Node) Child(i int) Child { return n.children[i] }

// withChildren returns a path copy of n with the same identity.
func (n *Node) withChildren(children []Child, length int) *Node {
	return &Node{
		id:       n.id,
		kind:     n.kind,
		name:     n.name,
		length:   length,
		flags:    n.flags,
		children: children,
	}
}
