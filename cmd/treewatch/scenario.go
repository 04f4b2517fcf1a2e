// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/yaml.v3"

	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/core/tree"
)

// scenario is a sequence of transactions replayed against the store.
type scenario struct {
	transactions [][]operation
}

// operation puts value at path, or deletes path when value is nil.
type operation struct {
	path  path.Path
	value *tree.Value
}

var operationChecker = schema.StrictFieldMap(
	schema.Fields{
		"put":    schema.String(),
		"delete": schema.String(),
		"value":  schema.Any(),
	},
	schema.Defaults{
		"put":    schema.Omit,
		"delete": schema.Omit,
		"value":  schema.Omit,
	},
)

var scenarioChecker = schema.StrictFieldMap(
	schema.Fields{
		"transactions": schema.List(schema.List(operationChecker)),
	},
	schema.Defaults{},
)

var nodeChecker = schema.StrictFieldMap(
	schema.Fields{
		"type":    schema.String(),
		"key":     schema.String(),
		"fields":  schema.StringMap(schema.Any()),
		"keyed":   schema.StringMap(schema.List(schema.Any())),
		"ordered": schema.StringMap(schema.List(schema.Any())),
		"leaves":  schema.StringMap(schema.List(schema.Any())),
	},
	schema.Defaults{
		"key":     "",
		"fields":  schema.Omit,
		"keyed":   schema.Omit,
		"ordered": schema.Omit,
		"leaves":  schema.Omit,
	},
)

// parseScenario reads a scenario document:
//
//	transactions:
//	- - put: /vtns
//	    value:
//	      type: vtns
//	      keyed:
//	        vtn:
//	        - {type: vtn, key: t1, fields: {description: first}}
//	- - delete: /vtns/vtn[t1]
func parseScenario(data []byte) (*scenario, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Annotate(err, "parsing scenario")
	}
	coerced, err := scenarioChecker.Coerce(raw, nil)
	if err != nil {
		return nil, errors.Annotate(err, "validating scenario")
	}

	result := &scenario{}
	txns := coerced.(map[string]interface{})["transactions"].([]interface{})
	for i, txn := range txns {
		var ops []operation
		for j, op := range txn.([]interface{}) {
			decoded, err := decodeOperation(op.(map[string]interface{}))
			if err != nil {
				return nil, errors.Annotatef(err, "transaction %d, operation %d", i+1, j+1)
			}
			ops = append(ops, decoded)
		}
		result.transactions = append(result.transactions, ops)
	}
	return result, nil
}

func decodeOperation(attrs map[string]interface{}) (operation, error) {
	put, isPut := attrs["put"].(string)
	del, isDelete := attrs["delete"].(string)
	rawValue, hasValue := attrs["value"]

	switch {
	case isPut == isDelete:
		return operation{}, errors.NotValidf("operation without exactly one of put and delete")
	case isDelete && hasValue:
		return operation{}, errors.NotValidf("delete of %s with a value", del)
	case isDelete:
		p, err := path.Parse(del)
		return operation{path: p}, errors.Trace(err)
	case !hasValue:
		return operation{}, errors.NotValidf("put of %s without a value", put)
	}

	p, err := path.Parse(put)
	if err != nil {
		return operation{}, errors.Trace(err)
	}
	value, err := decodeNode(rawValue)
	if err != nil {
		return operation{}, errors.Annotatef(err, "decoding value of %s", p)
	}
	return operation{path: p, value: value}, nil
}

// decodeNode coerces a node document into a tree value, recursing into
// its keyed and ordered members.
func decodeNode(v interface{}) (*tree.Value, error) {
	coerced, err := nodeChecker.Coerce(v, nil)
	if err != nil {
		return nil, errors.Trace(err)
	}
	attrs := coerced.(map[string]interface{})

	value := tree.NewEntry(tree.NodeType(attrs["type"].(string)), attrs["key"].(string))
	if fields, ok := attrs["fields"].(map[string]interface{}); ok {
		for name, scalar := range fields {
			value.WithField(name, scalar)
		}
	}
	if leaves, ok := attrs["leaves"].(map[string]interface{}); ok {
		for name, list := range leaves {
			value.WithLeaves(name, list.([]interface{})...)
		}
	}
	for _, kind := range []tree.CollectionKind{tree.Keyed, tree.Ordered} {
		lists, ok := attrs[kind.String()].(map[string]interface{})
		if !ok {
			continue
		}
		for name, list := range lists {
			members, err := decodeMembers(list.([]interface{}))
			if err != nil {
				return nil, errors.Annotatef(err, "%s list %q", kind, name)
			}
			if kind == tree.Keyed {
				value.WithKeyed(name, members...)
			} else {
				value.WithOrdered(name, members...)
			}
		}
	}
	return value, nil
}

func decodeMembers(raw []interface{}) ([]*tree.Value, error) {
	members := make([]*tree.Value, len(raw))
	for i, member := range raw {
		decoded, err := decodeNode(member)
		if err != nil {
			return nil, errors.Annotatef(err, "member %d", i)
		}
		members[i] = decoded
	}
	return members, nil
}
