// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vtn

import (
	"strconv"

	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/core/schema"
	"github.com/juju/datatree/core/tree"
)

const (
	TypeVTNs       tree.NodeType = "vtns"
	TypeVTN        tree.NodeType = "vtn"
	TypeVBridge    tree.NodeType = "vbridge"
	TypeVTerminal  tree.NodeType = "vterminal"
	TypeVInterface tree.NodeType = "vinterface"
	TypeFlowFilter tree.NodeType = "flow-filter"
	TypeFlowAction tree.NodeType = "flow-action"
	TypeVLANMap    tree.NodeType = "vlan-map"
)

const (
	// FieldDescription is the free form description of an entity.
	FieldDescription = "description"
	// FieldIndex is the position of a flow filter on its interface.
	FieldIndex = "index"
	// FieldOrder is the position of an action in its flow filter.
	FieldOrder = "order"
	// FieldAction names what a flow action does.
	FieldAction = "action"
	// FieldCondition names the flow condition a filter matches.
	FieldCondition = "condition"
	// FieldEnabled tells whether an interface forwards traffic.
	FieldEnabled = "enabled"

	// ListActions holds the actions of a flow filter.
	ListActions = "actions"
	// ListDLTypes holds the datalink types a flow filter applies to.
	ListDLTypes = "dl-types"
	// ListVLANs holds the VLAN IDs of a VLAN map.
	ListVLANs = "vlans"
)

// EntityTypes are the types an Inventory keeps track of, in declaration
// order.
var EntityTypes = []tree.NodeType{
	TypeVTN, TypeVBridge, TypeVTerminal, TypeVInterface, TypeFlowFilter, TypeVLANMap,
}

var vtnSchema = mustSchema()

func mustSchema() *schema.Schema {
	s, err := schema.New(TypeVTNs,
		schema.Type{Name: TypeVTNs, Collections: []schema.Collection{
			{Name: string(TypeVTN), Kind: tree.Keyed, Member: TypeVTN},
		}},
		schema.Type{Name: TypeVTN, Keyed: true, Collections: []schema.Collection{
			{Name: string(TypeVBridge), Kind: tree.Keyed, Member: TypeVBridge},
			{Name: string(TypeVTerminal), Kind: tree.Keyed, Member: TypeVTerminal},
		}},
		schema.Type{Name: TypeVBridge, Keyed: true, Collections: []schema.Collection{
			{Name: string(TypeVInterface), Kind: tree.Keyed, Member: TypeVInterface},
			{Name: string(TypeVLANMap), Kind: tree.Keyed, Member: TypeVLANMap},
		}},
		schema.Type{Name: TypeVTerminal, Keyed: true, Collections: []schema.Collection{
			{Name: string(TypeVInterface), Kind: tree.Keyed, Member: TypeVInterface},
		}},
		schema.Type{Name: TypeVInterface, Keyed: true, Collections: []schema.Collection{
			{Name: string(TypeFlowFilter), Kind: tree.Keyed, Member: TypeFlowFilter},
		}},
		schema.Type{Name: TypeFlowFilter, Keyed: true, Collections: []schema.Collection{
			{Name: ListActions, Kind: tree.Ordered, Member: TypeFlowAction},
			{Name: ListDLTypes, Kind: tree.LeafSet},
		}},
		schema.Type{Name: TypeFlowAction},
		schema.Type{Name: TypeVLANMap, Keyed: true, Collections: []schema.Collection{
			{Name: ListVLANs, Kind: tree.LeafSet},
		}},
	)
	if err != nil {
		panic(err)
	}
	return s
}

// Schema returns the type table of the model.
func Schema() *schema.Schema {
	return vtnSchema
}

// RootPath is the path of the vtns container.
var RootPath = path.New(path.Item(TypeVTNs))

// VTNPath returns the path of a tenant.
func VTNPath(tenant string) path.Path {
	return RootPath.Append(path.Entry(TypeVTN, tenant))
}

// VBridgePath returns the path of a bridge.
func VBridgePath(tenant, bridge string) path.Path {
	return VTNPath(tenant).Append(path.Entry(TypeVBridge, bridge))
}

// VTerminalPath returns the path of a terminal.
func VTerminalPath(tenant, terminal string) path.Path {
	return VTNPath(tenant).Append(path.Entry(TypeVTerminal, terminal))
}

// VInterfacePath returns the path of an interface of a bridge or a
// terminal.
func VInterfacePath(node path.Path, iface string) path.Path {
	return node.Append(path.Entry(TypeVInterface, iface))
}

// FlowFilterPath returns the path of a flow filter of an interface.
func FlowFilterPath(iface path.Path, index int) path.Path {
	return iface.Append(path.Entry(TypeFlowFilter, strconv.Itoa(index)))
}

// NewVTNs returns the vtns container holding the given tenants.
func NewVTNs(tenants ...*tree.Value) *tree.Value {
	v := tree.New(TypeVTNs)
	if len(tenants) > 0 {
		v.WithKeyed(string(TypeVTN), tenants...)
	}
	return v
}

// NewVTN returns a tenant.
func NewVTN(name, description string) *tree.Value {
	return tree.NewEntry(TypeVTN, name).WithField(FieldDescription, description)
}

// NewVBridge returns a bridge holding the given interfaces.
func NewVBridge(name string, ifaces ...*tree.Value) *tree.Value {
	v := tree.NewEntry(TypeVBridge, name)
	if len(ifaces) > 0 {
		v.WithKeyed(string(TypeVInterface), ifaces...)
	}
	return v
}

// NewVTerminal returns a terminal holding the given interfaces.
func NewVTerminal(name string, ifaces ...*tree.Value) *tree.Value {
	v := tree.NewEntry(TypeVTerminal, name)
	if len(ifaces) > 0 {
		v.WithKeyed(string(TypeVInterface), ifaces...)
	}
	return v
}

// NewVInterface returns an interface holding the given flow filters.
func NewVInterface(name string, enabled bool, filters ...*tree.Value) *tree.Value {
	v := tree.NewEntry(TypeVInterface, name).WithField(FieldEnabled, enabled)
	if len(filters) > 0 {
		v.WithKeyed(string(TypeFlowFilter), filters...)
	}
	return v
}

// NewFlowFilter returns a flow filter, keyed by its index.
func NewFlowFilter(index int, condition string, actions ...*tree.Value) *tree.Value {
	v := tree.NewEntry(TypeFlowFilter, strconv.Itoa(index)).
		WithField(FieldIndex, index).
		WithField(FieldCondition, condition)
	if len(actions) > 0 {
		v.WithOrdered(ListActions, actions...)
	}
	return v
}

// NewFlowAction returns a flow action.
func NewFlowAction(order int, action string) *tree.Value {
	return tree.New(TypeFlowAction).
		WithField(FieldOrder, order).
		WithField(FieldAction, action)
}

// NewVLANMap returns a VLAN map.
func NewVLANMap(name string, vlans ...int) *tree.Value {
	leaves := make([]interface{}, len(vlans))
	for i, vlan := range vlans {
		leaves[i] = vlan
	}
	return tree.NewEntry(TypeVLANMap, name).WithLeaves(ListVLANs, leaves...)
}
