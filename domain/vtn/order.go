// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vtn

import (
	"github.com/juju/errors"

	"github.com/juju/datatree/core/changestream"
	"github.com/juju/datatree/core/order"
	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/core/tree"
)

// Ranks holds the presentation rank of the entity types: tenants first,
// flow filters last.
var Ranks = map[tree.NodeType]int{
	TypeVTN:        0,
	TypeVBridge:    1,
	TypeVTerminal:  2,
	TypeVInterface: 3,
	TypeFlowFilter: 4,
}

// NewPathComparator returns a comparator ordering paths by the rank of
// their target type.
func NewPathComparator() *order.PathTypeComparator {
	c := order.NewPathTypeComparator(vtnSchema.Types()...)
	for t, rank := range Ranks {
		c.SetOrder(t, rank)
	}
	return c
}

// FlowActionOrder orders the actions of a flow filter by their order
// field.
type FlowActionOrder struct{}

// Compare is part of the order.Comparator interface.
func (FlowActionOrder) Compare(a, b *tree.Value) int {
	return order.CompareField(a, b, FieldOrder)
}

// FlowFilterIndex orders the flow filters of an interface by their index
// field.
type FlowFilterIndex struct{}

// Compare is part of the order.Comparator interface.
func (FlowFilterIndex) Compare(a, b *tree.Value) int {
	return order.CompareField(a, b, FieldIndex)
}

var (
	_ order.Comparator[*tree.Value] = FlowActionOrder{}
	_ order.Comparator[*tree.Value] = FlowFilterIndex{}
	_ order.Comparator[path.Path]   = (*order.PathTypeComparator)(nil)
)

// SortedActions returns the actions of a flow filter by their order
// field.
func SortedActions(filter *tree.Value) []*tree.Value {
	actions, _ := filter.List(ListActions)
	return order.Sorted(actions.Members, order.Comparator[*tree.Value](FlowActionOrder{}))
}

// IsUpdated reports whether an entity changed, ignoring its children.
// Changes below an entity are reported on the children themselves.
func IsUpdated(data changestream.ChangedData) (bool, error) {
	equal, err := tree.Equal(data.OldValue().Shallow(), data.NewValue().Shallow())
	if err != nil {
		return false, errors.Trace(err)
	}
	return !equal, nil
}
