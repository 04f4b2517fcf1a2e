// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package tree

import (
	"sort"
)

// NodeType identifies the schema type of a node in the data tree.
type NodeType string

// String implements fmt.Stringer.
func (t NodeType) String() string {
	return string(t)
}

// CollectionKind tags a nested collection field of a value with the
// equality rule applied to it.
type CollectionKind int

const (
	// Keyed collections hold uniquely keyed members. The order of the
	// members is not significant.
	Keyed CollectionKind = iota + 1

	// Ordered collections hold unkeyed members. The order of the members
	// is significant.
	Ordered

	// LeafSet collections hold scalar leaves which are compared as a
	// multiset.
	LeafSet
)

// String implements fmt.Stringer.
func (k CollectionKind) String() string {
	switch k {
	case Keyed:
		return "keyed"
	case Ordered:
		return "ordered"
	case LeafSet:
		return "leaf-set"
	}
	return "unknown"
}

// Value is a typed node value of the data tree. A value holds its scalar
// fields and its nested collections; the members of its keyed collections
// are the children of the node in the data tree.
//
// Scalar fields and leaves are expected to hold comparable values (strings,
// booleans and numbers).
type Value struct {
	// Type is the schema type of the value.
	Type NodeType

	// Key identifies the value within a keyed collection of its parent.
	// It is empty for values that are not keyed members.
	Key string

	// Fields holds the scalar fields of the value.
	Fields map[string]interface{}

	// Lists holds the nested collections of the value by field name.
	Lists map[string]List
}

// List is a nested collection of a value.
type List struct {
	// Kind decides how the collection is compared.
	Kind CollectionKind

	// Members holds the values of a Keyed or Ordered collection.
	Members []*Value

	// Leaves holds the scalars of a LeafSet collection.
	Leaves []interface{}
}

// New returns an empty value of the given type.
func New(t NodeType) *Value {
	return &Value{Type: t}
}

// NewEntry returns an empty value of the given type, identified by key
// within a keyed collection.
func NewEntry(t NodeType, key string) *Value {
	return &Value{Type: t, Key: key}
}

// WithField sets a scalar field and returns the value.
func (v *Value) WithField(name string, scalar interface{}) *Value {
	if v.Fields == nil {
		v.Fields = make(map[string]interface{})
	}
	v.Fields[name] = scalar
	return v
}

// WithKeyed sets a keyed collection and returns the value.
func (v *Value) WithKeyed(name string, members ...*Value) *Value {
	return v.withList(name, List{Kind: Keyed, Members: members})
}

// WithOrdered sets an ordered collection and returns the value.
func (v *Value) WithOrdered(name string, members ...*Value) *Value {
	return v.withList(name, List{Kind: Ordered, Members: members})
}

// WithLeaves sets a leaf set and returns the value.
func (v *Value) WithLeaves(name string, leaves ...interface{}) *Value {
	return v.withList(name, List{Kind: LeafSet, Leaves: leaves})
}

func (v *Value) withList(name string, list List) *Value {
	if v.Lists == nil {
		v.Lists = make(map[string]List)
	}
	v.Lists[name] = list
	return v
}

// Field returns the scalar field with the given name.
func (v *Value) Field(name string) (interface{}, bool) {
	if v == nil {
		return nil, false
	}
	scalar, ok := v.Fields[name]
	return scalar, ok
}

// List returns the nested collection with the given name.
func (v *Value) List(name string) (List, bool) {
	if v == nil {
		return List{}, false
	}
	list, ok := v.Lists[name]
	return list, ok
}

// ListNames returns the names of the nested collections in sorted order.
func (v *Value) ListNames() []string {
	if v == nil {
		return nil
	}
	names := make([]string, 0, len(v.Lists))
	for name := range v.Lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Children returns the members of all keyed collections, ordered by
// collection name and then by position.
func (v *Value) Children() []*Value {
	var children []*Value
	for _, name := range v.ListNames() {
		list := v.Lists[name]
		if list.Kind != Keyed {
			continue
		}
		children = append(children, list.Members...)
	}
	return children
}

// Child returns the keyed member with the given type and key, along with
// the name of the collection holding it.
func (v *Value) Child(t NodeType, key string) (*Value, string, bool) {
	for _, name := range v.ListNames() {
		list := v.Lists[name]
		if list.Kind != Keyed {
			continue
		}
		for _, member := range list.Members {
			if member.Type == t && member.Key == key {
				return member, name, true
			}
		}
	}
	return nil, "", false
}

// PutChild replaces the keyed member of the named collection that has the
// same type and key as child, or appends child when there is none.
func (v *Value) PutChild(name string, child *Value) {
	list := v.Lists[name]
	list.Kind = Keyed
	for i, member := range list.Members {
		if member.Type == child.Type && member.Key == child.Key {
			list.Members[i] = child
			v.withList(name, list)
			return
		}
	}
	list.Members = append(list.Members, child)
	v.withList(name, list)
}

// RemoveChild removes the keyed member with the given type and key. It
// reports whether a member was removed.
func (v *Value) RemoveChild(t NodeType, key string) bool {
	_, name, ok := v.Child(t, key)
	if !ok {
		return false
	}
	list := v.Lists[name]
	members := make([]*Value, 0, len(list.Members))
	for _, member := range list.Members {
		if member.Type == t && member.Key == key {
			continue
		}
		members = append(members, member)
	}
	list.Members = members
	v.Lists[name] = list
	return true
}

// Copy returns a deep copy of the value.
func (v *Value) Copy() *Value {
	if v == nil {
		return nil
	}
	result := &Value{
		Type: v.Type,
		Key:  v.Key,
	}
	if v.Fields != nil {
		result.Fields = make(map[string]interface{}, len(v.Fields))
		for name, scalar := range v.Fields {
			result.Fields[name] = scalar
		}
	}
	if v.Lists != nil {
		result.Lists = make(map[string]List, len(v.Lists))
		for name, list := range v.Lists {
			result.Lists[name] = list.copy()
		}
	}
	return result
}

func (l List) copy() List {
	result := List{Kind: l.Kind}
	if l.Members != nil {
		result.Members = make([]*Value, len(l.Members))
		for i, member := range l.Members {
			result.Members[i] = member.Copy()
		}
	}
	if l.Leaves != nil {
		result.Leaves = make([]interface{}, len(l.Leaves))
		copy(result.Leaves, l.Leaves)
	}
	return result
}

// Shallow returns a copy of the value without its keyed collections, that
// is the projection of the node without its children in the data tree.
func (v *Value) Shallow() *Value {
	if v == nil {
		return nil
	}
	result := v.Copy()
	for name, list := range result.Lists {
		if list.Kind == Keyed {
			delete(result.Lists, name)
		}
	}
	return result
}
