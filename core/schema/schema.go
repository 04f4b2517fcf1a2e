// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package schema holds the type table of a data tree model. The table is
// built once at startup and tags every nested collection field with the
// equality rule that applies to it.
package schema

import (
	"reflect"

	"github.com/juju/errors"

	"github.com/juju/datatree/core/tree"
)

// Collection declares a nested collection field of a type.
type Collection struct {
	// Name is the field name of the collection.
	Name string

	// Kind is the equality rule of the collection.
	Kind tree.CollectionKind

	// Member is the type of the members of a Keyed or Ordered collection.
	// It is empty for leaf sets.
	Member tree.NodeType
}

// Type declares one node type.
type Type struct {
	// Name is the node type.
	Name tree.NodeType

	// Keyed is set when values of the type are members of a keyed
	// collection and therefore carry a key.
	Keyed bool

	// Collections declares the nested collections of the type.
	Collections []Collection
}

// Collection returns the declared collection with the given name.
func (t Type) Collection(name string) (Collection, bool) {
	for _, collection := range t.Collections {
		if collection.Name == name {
			return collection, true
		}
	}
	return Collection{}, false
}

// Schema is the type table of a data tree model.
type Schema struct {
	root  tree.NodeType
	types map[tree.NodeType]Type
	order []tree.NodeType
}

// New returns a schema with the given root type, made of the given type
// declarations. The declaration order is retained.
func New(root tree.NodeType, types ...Type) (*Schema, error) {
	s := &Schema{
		root:  root,
		types: make(map[tree.NodeType]Type, len(types)),
	}
	for _, t := range types {
		if t.Name == "" {
			return nil, errors.NotValidf("type without name")
		}
		if _, ok := s.types[t.Name]; ok {
			return nil, errors.AlreadyExistsf("type %q", t.Name)
		}
		names := make(map[string]bool)
		for _, collection := range t.Collections {
			if names[collection.Name] {
				return nil, errors.AlreadyExistsf("collection %q of type %q", collection.Name, t.Name)
			}
			names[collection.Name] = true

			switch collection.Kind {
			case tree.Keyed, tree.Ordered:
				if collection.Member == "" {
					return nil, errors.NotValidf("collection %q of type %q without member type", collection.Name, t.Name)
				}
			case tree.LeafSet:
			default:
				return nil, errors.NotValidf("collection %q of type %q of kind %d", collection.Name, t.Name, collection.Kind)
			}
		}
		s.types[t.Name] = t
		s.order = append(s.order, t.Name)
	}
	if _, ok := s.types[root]; !ok {
		return nil, errors.NotFoundf("root type %q", root)
	}
	for _, t := range types {
		for _, collection := range t.Collections {
			if collection.Member == "" {
				continue
			}
			member, ok := s.types[collection.Member]
			if !ok {
				return nil, errors.NotFoundf("member type %q of collection %q", collection.Member, collection.Name)
			}
			if collection.Kind == tree.Keyed && !member.Keyed {
				return nil, errors.NotValidf("unkeyed type %q in keyed collection %q", member.Name, collection.Name)
			}
		}
	}
	return s, nil
}

// Root returns the type at the top of the data tree.
func (s *Schema) Root() tree.NodeType {
	return s.root
}

// Lookup returns the declaration of the given type.
func (s *Schema) Lookup(t tree.NodeType) (Type, bool) {
	decl, ok := s.types[t]
	return decl, ok
}

// Types returns the declared types in declaration order.
func (s *Schema) Types() []tree.NodeType {
	result := make([]tree.NodeType, len(s.order))
	copy(result, s.order)
	return result
}

// ChildCollection returns the keyed collection of parent holding members
// of type child.
func (s *Schema) ChildCollection(parent, child tree.NodeType) (Collection, bool) {
	decl, ok := s.types[parent]
	if !ok {
		return Collection{}, false
	}
	for _, collection := range decl.Collections {
		if collection.Kind == tree.Keyed && collection.Member == child {
			return collection, true
		}
	}
	return Collection{}, false
}

// Validate checks that v and all its nested values conform to the schema.
func (s *Schema) Validate(v *tree.Value) error {
	if v == nil {
		return errors.NotValidf("nil value")
	}
	decl, ok := s.types[v.Type]
	if !ok {
		return errors.NotValidf("undeclared type %q", v.Type)
	}
	if decl.Keyed && v.Key == "" {
		return errors.NotValidf("%s without key", v.Type)
	}
	if !decl.Keyed && v.Key != "" {
		return errors.NotValidf("unkeyed %s with key %q", v.Type, v.Key)
	}
	for name, scalar := range v.Fields {
		if scalar != nil && !reflect.TypeOf(scalar).Comparable() {
			return errors.NotValidf("field %q of %s holding %T", name, v.Type, scalar)
		}
	}
	for _, name := range v.ListNames() {
		list := v.Lists[name]
		collection, ok := decl.Collection(name)
		if !ok {
			return errors.NotValidf("undeclared collection %q of %s", name, v.Type)
		}
		if list.Kind != collection.Kind {
			return errors.NotValidf("collection %q of %s is %s, expected %s", name, v.Type, list.Kind, collection.Kind)
		}
		if collection.Kind == tree.LeafSet {
			if len(list.Members) > 0 {
				return errors.NotValidf("leaf set %q of %s with members", name, v.Type)
			}
			continue
		}
		if len(list.Leaves) > 0 {
			return errors.NotValidf("collection %q of %s with leaves", name, v.Type)
		}
		keys := make(map[string]bool, len(list.Members))
		for _, member := range list.Members {
			if member == nil || member.Type != collection.Member {
				return errors.NotValidf("member of collection %q of %s", name, v.Type)
			}
			if collection.Kind == tree.Keyed {
				if keys[member.Key] {
					return errors.NotValidf("duplicate key %q in keyed collection %q of %s", member.Key, name, v.Type)
				}
				keys[member.Key] = true
			}
			if err := s.Validate(member); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return nil
}
