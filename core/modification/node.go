// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package modification

import (
	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/core/tree"
)

// Node is a Modification held entirely in memory.
type Node struct {
	// Seg addresses the node within its parent.
	Seg path.Segment

	// Op is what happened to the node.
	Op Type

	// Before is the value before the change.
	Before *tree.Value

	// After is the value after the change.
	After *tree.Value

	// Kids are the modified children of the node.
	Kids []*Node
}

// Created returns the node of a value written where none existed.
func Created(seg path.Segment, after *tree.Value, kids ...*Node) *Node {
	return &Node{Seg: seg, Op: Write, After: after, Kids: kids}
}

// Updated returns the node of a value that existed before and after.
func Updated(seg path.Segment, before, after *tree.Value, kids ...*Node) *Node {
	return &Node{Seg: seg, Op: SubtreeModified, Before: before, After: after, Kids: kids}
}

// Removed returns the node of a deleted value.
func Removed(seg path.Segment, before *tree.Value, kids ...*Node) *Node {
	return &Node{Seg: seg, Op: Delete, Before: before, Kids: kids}
}

// Segment is part of the Modification interface.
func (n *Node) Segment() path.Segment {
	return n.Seg
}

// Type is part of the Modification interface.
func (n *Node) Type() Type {
	return n.Op
}

// DataBefore is part of the Modification interface.
func (n *Node) DataBefore() *tree.Value {
	return n.Before
}

// DataAfter is part of the Modification interface.
func (n *Node) DataAfter() *tree.Value {
	return n.After
}

// Children is part of the Modification interface. The after side lists
// every modified child, including removed ones. The before side lists the
// children that existed before the change. A side without data cannot be
// enumerated.
func (n *Node) Children(shape Shape) ([]Modification, bool) {
	switch shape {
	case Before:
		if n.Before == nil {
			return nil, false
		}
		var children []Modification
		for _, kid := range n.Kids {
			if kid.Before != nil {
				children = append(children, kid)
			}
		}
		return children, true
	default:
		if n.After == nil {
			return nil, false
		}
		children := make([]Modification, len(n.Kids))
		for i, kid := range n.Kids {
			children[i] = kid
		}
		return children, true
	}
}
