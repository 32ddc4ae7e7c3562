// Package buffer implements the versioned plain-text document model that the
// visual layer decorates.
//
// Offsets are 0-based byte offsets into UTF-8 text. Ranges are half-open:
// [From, To). Every effective edit transaction bumps Version once and records
// a ChangeSet describing the minimal (offset, oldLength, newLength) changes.
// Caret and selection moves bump SelectionVersion only.
package buffer
