// Copyright 2023 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package changestream

import (
	"strings"

	"github.com/juju/errors"

	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/core/tree"
)

// ChangeType represents the type of change.
// The changes are bit flags so that they can be combined into a mask.
type ChangeType int

const (
	// Created represents a node that did not exist before the change.
	Created ChangeType = 1 << iota
	// Updated represents a node whose value changed.
	Updated
	// Removed represents a node that no longer exists after the change.
	Removed
	// All represents any change to a node.
	All = Created | Updated | Removed
)

// String implements fmt.Stringer. Combined masks are rendered as a
// comma separated list.
func (t ChangeType) String() string {
	switch t {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	case 0:
		return "none"
	}
	var names []string
	for _, single := range []ChangeType{Created, Updated, Removed} {
		if t&single != 0 {
			names = append(names, single.String())
		}
	}
	if len(names) == 0 {
		return "unknown"
	}
	return strings.Join(names, ",")
}

// Contains reports whether every type of other is part of the mask.
func (t ChangeType) Contains(other ChangeType) bool {
	return other != 0 && t&other == other
}

// ParseChangeType returns the change type with the given name.
func ParseChangeType(s string) (ChangeType, error) {
	switch s {
	case "created":
		return Created, nil
	case "updated":
		return Updated, nil
	case "removed":
		return Removed, nil
	case "all":
		return All, nil
	}
	return 0, errors.NotValidf("change type %q", s)
}

// ChangeEvent is the record of one classified node of a modification
// tree. It is immutable.
type ChangeEvent struct {
	path       path.Path
	newValue   *tree.Value
	oldValue   *tree.Value
	changeType ChangeType
}

// NewCreatedEvent returns the event of a node created with value v.
func NewCreatedEvent(p path.Path, v *tree.Value) ChangeEvent {
	return ChangeEvent{path: p, newValue: v, changeType: Created}
}

// NewUpdatedEvent returns the event of a node whose value changed from
// oldValue to newValue.
func NewUpdatedEvent(p path.Path, oldValue, newValue *tree.Value) ChangeEvent {
	return ChangeEvent{path: p, newValue: newValue, oldValue: oldValue, changeType: Updated}
}

// NewRemovedEvent returns the event of a node removed with value v.
func NewRemovedEvent(p path.Path, v *tree.Value) ChangeEvent {
	return ChangeEvent{path: p, oldValue: v, changeType: Removed}
}

// Path returns the full structural path of the node.
func (e ChangeEvent) Path() path.Path {
	return e.path
}

// Type returns the type of change.
func (e ChangeEvent) Type() ChangeType {
	return e.changeType
}

// NewValue returns the value after the change, nil for a removal.
func (e ChangeEvent) NewValue() *tree.Value {
	return e.newValue
}

// OldValue returns the value before the change, nil for a creation.
func (e ChangeEvent) OldValue() *tree.Value {
	return e.oldValue
}

// Validate checks that the values present match the type of change.
func (e ChangeEvent) Validate() error {
	switch e.changeType {
	case Created:
		if e.oldValue != nil || e.newValue == nil {
			return errors.NotValidf("created event for %s", e.path)
		}
	case Updated:
		if e.oldValue == nil || e.newValue == nil {
			return errors.NotValidf("updated event for %s", e.path)
		}
	case Removed:
		if e.oldValue == nil || e.newValue != nil {
			return errors.NotValidf("removed event for %s", e.path)
		}
	default:
		return errors.NotValidf("change type %d", e.changeType)
	}
	return nil
}

// Identified returns the path and the current value of the node: the new
// value, or the old one for a removal.
func (e ChangeEvent) Identified() IdentifiedData {
	if e.changeType == Removed {
		return NewIdentifiedData(e.path, e.oldValue)
	}
	return NewIdentifiedData(e.path, e.newValue)
}

// Changed returns the path and both values of the node.
func (e ChangeEvent) Changed() ChangedData {
	return NewChangedData(e.path, e.oldValue, e.newValue)
}

// IdentifiedData is a value identified by its path in the data tree.
type IdentifiedData struct {
	path  path.Path
	value *tree.Value
}

// NewIdentifiedData returns the data for value v at path p.
func NewIdentifiedData(p path.Path, v *tree.Value) IdentifiedData {
	return IdentifiedData{path: p, value: v}
}

// Path returns the path of the value.
func (d IdentifiedData) Path() path.Path {
	return d.path
}

// Value returns the value.
func (d IdentifiedData) Value() *tree.Value {
	return d.value
}

// NodeType returns the node type addressed by the path.
func (d IdentifiedData) NodeType() tree.NodeType {
	return d.path.TargetType()
}

// ChangedData holds both values of a node at a path in the data tree.
type ChangedData struct {
	path     path.Path
	oldValue *tree.Value
	newValue *tree.Value
}

// NewChangedData returns the data for a node at path p whose value changed
// from oldValue to newValue.
func NewChangedData(p path.Path, oldValue, newValue *tree.Value) ChangedData {
	return ChangedData{path: p, oldValue: oldValue, newValue: newValue}
}

// Path returns the path of the node.
func (d ChangedData) Path() path.Path {
	return d.path
}

// OldValue returns the value before the change.
func (d ChangedData) OldValue() *tree.Value {
	return d.oldValue
}

// NewValue returns the value after the change.
func (d ChangedData) NewValue() *tree.Value {
	return d.newValue
}

// NodeType returns the node type addressed by the path.
func (d ChangedData) NodeType() tree.NodeType {
	return d.path.TargetType()
}
