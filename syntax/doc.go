// Package syntax builds immutable syntax trees over LaTeX source.
//
// A Tree is a snapshot: the source text, the buffer version it was built
// from, and an arena of entries indexed by NodeRef. Nodes store child
// offsets relative to their parent, so consecutive trees share every subtree
// outside the re-derived span by reference. Parent links are arena indices.
//
// Parsing never fails. Constructs that are not closed before their container
// ends (or before a blank line, for groups, brackets and math) are truncated
// at the end of their first line, flagged Broken, and the rest of the input
// is parsed as ordinary content.
package syntax
