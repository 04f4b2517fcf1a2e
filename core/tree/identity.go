// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package tree

import (
	"reflect"

	"github.com/juju/errors"
)

// Identity wraps a value so that it can be compared structurally with
// another. A nil value is the absent value.
type Identity struct {
	value *Value
}

// IdentityOf returns the structural identity of v.
func IdentityOf(v *Value) Identity {
	return Identity{value: v}
}

// Value returns the wrapped value.
func (i Identity) Value() *Value {
	return i.value
}

// Equals reports whether the wrapped values are structurally equal. See
// Equal for the rules applied.
func (i Identity) Equals(other Identity) (bool, error) {
	return Equal(i.value, other.value)
}

// Equal reports whether a and b are structurally equal:
//
//   - two absent values are equal, an absent value never equals a present one;
//   - types, keys and scalar fields must be equal;
//   - keyed collections must hold the same members by key, in any order;
//   - ordered collections must hold equal members in the same order;
//   - leaf sets must hold the same scalars with the same multiplicity, in
//     any order.
//
// A keyed collection holding the same key twice anywhere below either
// side is invalid input and results in a NotValid error, whatever else
// differs between the values.
func Equal(a, b *Value) (bool, error) {
	if err := validateKeys(a); err != nil {
		return false, errors.Trace(err)
	}
	if err := validateKeys(b); err != nil {
		return false, errors.Trace(err)
	}
	return equal(a, b)
}

// validateKeys checks every keyed collection below v for nil members and
// duplicate keys.
func validateKeys(v *Value) error {
	if v == nil {
		return nil
	}
	for _, name := range v.ListNames() {
		list := v.Lists[name]
		if list.Kind == Keyed {
			if _, err := indexMembers(name, list.Members); err != nil {
				return errors.Trace(err)
			}
		}
		for _, member := range list.Members {
			if err := validateKeys(member); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return nil
}

func equal(a, b *Value) (bool, error) {
	if a == nil || b == nil {
		return a == nil && b == nil, nil
	}
	if a.Type != b.Type || a.Key != b.Key {
		return false, nil
	}
	if !fieldsEqual(a.Fields, b.Fields) {
		return false, nil
	}
	if len(a.Lists) != len(b.Lists) {
		return false, nil
	}
	for _, name := range a.ListNames() {
		other, ok := b.Lists[name]
		if !ok {
			return false, nil
		}
		same, err := listsEqual(name, a.Lists[name], other)
		if err != nil || !same {
			return false, errors.Trace(err)
		}
	}
	return true, nil
}

func fieldsEqual(a, b map[string]interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for name, scalar := range a {
		other, ok := b[name]
		if !ok || !scalarEqual(scalar, other) {
			return false
		}
	}
	return true
}

func listsEqual(name string, a, b List) (bool, error) {
	if a.Kind != b.Kind {
		return false, nil
	}
	switch a.Kind {
	case Keyed:
		return keyedEqual(name, a.Members, b.Members)
	case Ordered:
		return orderedEqual(a.Members, b.Members)
	case LeafSet:
		return leavesEqual(a.Leaves, b.Leaves), nil
	}
	return false, errors.NotValidf("collection %q of kind %d", name, a.Kind)
}

type memberKey struct {
	nodeType NodeType
	key      string
}

func keyedEqual(name string, a, b []*Value) (bool, error) {
	left, err := indexMembers(name, a)
	if err != nil {
		return false, errors.Trace(err)
	}
	right, err := indexMembers(name, b)
	if err != nil {
		return false, errors.Trace(err)
	}
	if len(left) != len(right) {
		return false, nil
	}
	for key, member := range left {
		other, ok := right[key]
		if !ok {
			return false, nil
		}
		same, err := equal(member, other)
		if err != nil || !same {
			return false, errors.Trace(err)
		}
	}
	return true, nil
}

func indexMembers(name string, members []*Value) (map[memberKey]*Value, error) {
	index := make(map[memberKey]*Value, len(members))
	for _, member := range members {
		if member == nil {
			return nil, errors.NotValidf("nil member in keyed collection %q", name)
		}
		key := memberKey{nodeType: member.Type, key: member.Key}
		if _, ok := index[key]; ok {
			return nil, errors.NotValidf("duplicate key %q of %s in keyed collection %q", member.Key, member.Type, name)
		}
		index[key] = member
	}
	return index, nil
}

func orderedEqual(a, b []*Value) (bool, error) {
	if len(a) != len(b) {
		return false, nil
	}
	for i := range a {
		same, err := equal(a[i], b[i])
		if err != nil || !same {
			return false, errors.Trace(err)
		}
	}
	return true, nil
}

func leavesEqual(a, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	if !allComparable(a) || !allComparable(b) {
		return leavesMatch(a, b)
	}
	counts := make(map[interface{}]int, len(a))
	for _, leaf := range a {
		counts[leaf]++
	}
	for _, leaf := range b {
		if counts[leaf] == 0 {
			return false
		}
		counts[leaf]--
	}
	return true
}

// leavesMatch pairs every leaf of a with a distinct equal leaf of b. It is
// used when a leaf cannot be a map key.
func leavesMatch(a, b []interface{}) bool {
	used := make([]bool, len(b))
	for _, leaf := range a {
		found := false
		for i, other := range b {
			if used[i] || !scalarEqual(leaf, other) {
				continue
			}
			used[i] = true
			found = true
			break
		}
		if !found {
			return false
		}
	}
	return true
}

func allComparable(leaves []interface{}) bool {
	for _, leaf := range leaves {
		if leaf != nil && !reflect.TypeOf(leaf).Comparable() {
			return false
		}
	}
	return true
}

func scalarEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a).Comparable() && reflect.TypeOf(b).Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
