// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package memstore

import (
	"github.com/juju/errors"

	"github.com/juju/datatree/core/modification"
	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/core/tree"
)

type childKey struct {
	nodeType tree.NodeType
	key      string
}

func keyOf(v *tree.Value) childKey {
	return childKey{nodeType: v.Type, key: v.Key}
}

// diff returns the modification turning before into after, or nil when
// they are structurally equal. Keyed members are paired by type and key;
// created and removed subtrees are expanded down to their leaves.
func diff(segment path.Segment, before, after *tree.Value) (*modification.Node, error) {
	switch {
	case before == nil && after == nil:
		return nil, nil
	case before == nil:
		return expand(segment, after, modification.Created), nil
	case after == nil:
		return expand(segment, before, modification.Removed), nil
	}

	equal, err := tree.Equal(before, after)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if equal {
		return nil, nil
	}

	op := modification.Write
	if equal, err := tree.Equal(before.Shallow(), after.Shallow()); err != nil {
		return nil, errors.Trace(err)
	} else if equal {
		op = modification.SubtreeModified
	}
	node := &modification.Node{Seg: segment, Op: op, Before: before, After: after}

	afterChildren := make(map[childKey]*tree.Value)
	for _, child := range after.Children() {
		afterChildren[keyOf(child)] = child
	}
	paired := make(map[childKey]bool)
	for _, child := range before.Children() {
		key := keyOf(child)
		paired[key] = true
		kid, err := diff(path.SegmentOf(child), child, afterChildren[key])
		if err != nil {
			return nil, errors.Trace(err)
		}
		if kid != nil {
			node.Kids = append(node.Kids, kid)
		}
	}
	for _, child := range after.Children() {
		if paired[keyOf(child)] {
			continue
		}
		node.Kids = append(node.Kids, expand(path.SegmentOf(child), child, modification.Created))
	}
	return node, nil
}

type nodeFunc func(path.Segment, *tree.Value, ...*modification.Node) *modification.Node

func expand(segment path.Segment, v *tree.Value, newNode nodeFunc) *modification.Node {
	var kids []*modification.Node
	for _, child := range v.Children() {
		kids = append(kids, expand(path.SegmentOf(child), child, newNode))
	}
	return newNode(segment, v, kids...)
}
