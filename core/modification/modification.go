// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package modification describes the already diffed trees a data store
// hands to its change listeners: one tree per root subtree touched since
// the last notification, each node carrying a before and an after value.
package modification

import (
	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/core/tree"
)

// Type is the store's own account of what happened to a node.
type Type int

const (
	// Unspecified is used by stores that do not report a type; the
	// classification relies on the values alone.
	Unspecified Type = iota
	// Write means the node was created or replaced.
	Write
	// SubtreeModified means the node existed before and after, and some
	// of its descendants changed.
	SubtreeModified
	// Delete means the node was removed.
	Delete
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case Write:
		return "write"
	case SubtreeModified:
		return "subtree-modified"
	case Delete:
		return "delete"
	}
	return "unspecified"
}

// Shape selects the side of a modification its children are enumerated
// from.
type Shape int

const (
	// After enumerates the children from the data after the change.
	After Shape = iota
	// Before enumerates the children from the data before the change.
	Before
)

// String implements fmt.Stringer.
func (s Shape) String() string {
	if s == Before {
		return "before"
	}
	return "after"
}

// Modification is one node of a modification tree.
type Modification interface {
	// Segment returns the segment addressing the node within its parent.
	Segment() path.Segment

	// Type returns what the store reports happened to the node.
	Type() Type

	// DataBefore returns the value before the change, nil if the node did
	// not exist.
	DataBefore() *tree.Value

	// DataAfter returns the value after the change, nil if the node no
	// longer exists.
	DataAfter() *tree.Value

	// Children returns the modified children of the node, enumerated from
	// the given side of the change. The boolean is false when the children
	// cannot be enumerated from that side.
	Children(shape Shape) ([]Modification, bool)
}

// Root is a modification tree together with the full path of its root
// node.
type Root struct {
	// Path is the full path of the root node.
	Path path.Path

	// Node is the root node of the modification tree.
	Node Modification
}
