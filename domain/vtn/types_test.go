// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vtn_test

import (
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/datatree/core/changestream"
	"github.com/juju/datatree/core/order"
	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/core/tree"
	"github.com/juju/datatree/domain/vtn"
)

type typesSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&typesSuite{})

func sampleTenant() *tree.Value {
	filters := []*tree.Value{
		vtn.NewFlowFilter(20, "web",
			vtn.NewFlowAction(2, "drop"),
			vtn.NewFlowAction(1, "set-dscp"),
		).WithLeaves(vtn.ListDLTypes, 2048, 34525),
		vtn.NewFlowFilter(10, "any"),
	}
	bridge := vtn.NewVBridge("br",
		vtn.NewVInterface("if1", true, filters...),
	).WithKeyed(string(vtn.TypeVLANMap), vtn.NewVLANMap("any", 10, 20))
	terminal := vtn.NewVTerminal("term", vtn.NewVInterface("if2", false))
	return vtn.NewVTN("t1", "first tenant").
		WithKeyed(string(vtn.TypeVBridge), bridge).
		WithKeyed(string(vtn.TypeVTerminal), terminal)
}

func (s *typesSuite) TestSchemaAcceptsModel(c *gc.C) {
	c.Check(vtn.Schema().Root(), gc.Equals, vtn.TypeVTNs)
	c.Check(vtn.Schema().Validate(vtn.NewVTNs(sampleTenant())), jc.ErrorIsNil)
}

func (s *typesSuite) TestSchemaRejectsKeyedActions(c *gc.C) {
	filter := vtn.NewFlowFilter(1, "any").WithKeyed(vtn.ListActions, vtn.NewFlowAction(1, "drop"))
	err := vtn.Schema().Validate(filter)
	c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)
}

func (s *typesSuite) TestPaths(c *gc.C) {
	iface := vtn.VInterfacePath(vtn.VBridgePath("t1", "br"), "if1")
	c.Check(vtn.FlowFilterPath(iface, 10).String(), gc.Equals, "/vtns/vtn[t1]/vbridge[br]/vinterface[if1]/flow-filter[10]")
	c.Check(vtn.VTerminalPath("t1", "term").String(), gc.Equals, "/vtns/vtn[t1]/vterminal[term]")
}

func (s *typesSuite) TestComparatorsEqualByType(c *gc.C) {
	var a, b order.Comparator[*tree.Value] = vtn.FlowActionOrder{}, vtn.FlowActionOrder{}
	c.Check(a == b, jc.IsTrue)
	var f order.Comparator[*tree.Value] = vtn.FlowFilterIndex{}
	c.Check(a == f, jc.IsFalse)
}

func (s *typesSuite) TestSortedActions(c *gc.C) {
	filter := vtn.NewFlowFilter(1, "any",
		vtn.NewFlowAction(3, "c"),
		vtn.NewFlowAction(1, "a"),
		vtn.NewFlowAction(2, "b"),
	)
	var names []interface{}
	for _, action := range vtn.SortedActions(filter) {
		names = append(names, action.Fields[vtn.FieldAction])
	}
	c.Check(names, jc.DeepEquals, []interface{}{"a", "b", "c"})

	// The stored order is untouched.
	actions, _ := filter.List(vtn.ListActions)
	c.Check(actions.Members[0].Fields[vtn.FieldAction], gc.Equals, "c")
}

func (s *typesSuite) TestPathComparator(c *gc.C) {
	iface := vtn.VInterfacePath(vtn.VBridgePath("t1", "br"), "if1")
	paths := []path.Path{
		vtn.VBridgePath("t1", "br").Append(path.Entry(vtn.TypeVLANMap, "any")),
		vtn.FlowFilterPath(iface, 1),
		iface,
		vtn.VTerminalPath("t1", "term"),
		vtn.VBridgePath("t1", "br"),
		vtn.VTNPath("t1"),
	}
	sorted := order.Sorted(paths, order.Comparator[path.Path](vtn.NewPathComparator()))
	var types []tree.NodeType
	for _, p := range sorted {
		types = append(types, p.TargetType())
	}
	c.Check(types, jc.DeepEquals, []tree.NodeType{
		vtn.TypeVTN, vtn.TypeVBridge, vtn.TypeVTerminal, vtn.TypeVInterface, vtn.TypeFlowFilter, vtn.TypeVLANMap,
	})
}

func (s *typesSuite) TestIsUpdated(c *gc.C) {
	p := vtn.VTNPath("t1")
	before := sampleTenant()

	// A change below the tenant is not a change of the tenant.
	after := sampleTenant().WithKeyed(string(vtn.TypeVTerminal))
	updated, err := vtn.IsUpdated(changestream.NewChangedData(p, before, after))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(updated, jc.IsFalse)

	after = sampleTenant().WithField(vtn.FieldDescription, "renamed")
	updated, err = vtn.IsUpdated(changestream.NewChangedData(p, before, after))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(updated, jc.IsTrue)
}

func (s *typesSuite) TestIsUpdatedActionOrderMatters(c *gc.C) {
	p := vtn.FlowFilterPath(vtn.VInterfacePath(vtn.VBridgePath("t1", "br"), "if1"), 1)
	before := vtn.NewFlowFilter(1, "any", vtn.NewFlowAction(1, "a"), vtn.NewFlowAction(2, "b")).
		WithLeaves(vtn.ListDLTypes, 1, 2)
	swapped := vtn.NewFlowFilter(1, "any", vtn.NewFlowAction(2, "b"), vtn.NewFlowAction(1, "a")).
		WithLeaves(vtn.ListDLTypes, 2, 1)

	updated, err := vtn.IsUpdated(changestream.NewChangedData(p, before, swapped))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(updated, jc.IsTrue)

	shuffledTypes := vtn.NewFlowFilter(1, "any", vtn.NewFlowAction(1, "a"), vtn.NewFlowAction(2, "b")).
		WithLeaves(vtn.ListDLTypes, 2, 1)
	updated, err = vtn.IsUpdated(changestream.NewChangedData(p, before, shuffledTypes))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(updated, jc.IsFalse)
}
