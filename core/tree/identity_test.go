// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package tree_test

import (
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/datatree/core/tree"
)

type identitySuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&identitySuite{})

func action(order int, kind string) *tree.Value {
	return tree.New("flow-action").
		WithField("order", order).
		WithField("kind", kind)
}

func filter(index string, actions ...*tree.Value) *tree.Value {
	return tree.NewEntry("flow-filter", index).
		WithField("condition", "cond-"+index).
		WithOrdered("actions", actions...)
}

func (s *identitySuite) assertEqual(c *gc.C, a, b *tree.Value, expected bool) {
	equal, err := tree.Equal(a, b)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(equal, gc.Equals, expected)

	// Equality is symmetric.
	equal, err = tree.Equal(b, a)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(equal, gc.Equals, expected)
}

func (s *identitySuite) TestAbsentValues(c *gc.C) {
	s.assertEqual(c, nil, nil, true)
	s.assertEqual(c, nil, tree.New("vtn"), false)
}

func (s *identitySuite) TestScalarFields(c *gc.C) {
	a := tree.NewEntry("vtn", "t1").WithField("description", "x").WithField("idle-timeout", 300)
	b := tree.NewEntry("vtn", "t1").WithField("idle-timeout", 300).WithField("description", "x")
	s.assertEqual(c, a, b, true)

	b.WithField("idle-timeout", 301)
	s.assertEqual(c, a, b, false)

	s.assertEqual(c, a, tree.NewEntry("vtn", "t1").WithField("description", "x"), false)
}

func (s *identitySuite) TestTypeAndKey(c *gc.C) {
	s.assertEqual(c, tree.NewEntry("vtn", "t1"), tree.NewEntry("vtn", "t2"), false)
	s.assertEqual(c, tree.NewEntry("vtn", "t1"), tree.NewEntry("vbridge", "t1"), false)
}

func (s *identitySuite) TestKeyedCollectionOrderInsensitive(c *gc.C) {
	members := []*tree.Value{filter("1"), filter("2"), filter("3")}
	reversed := []*tree.Value{filter("3"), filter("2"), filter("1")}

	a := tree.New("vinterface").WithKeyed("flow-filters", members...)
	b := tree.New("vinterface").WithKeyed("flow-filters", reversed...)
	s.assertEqual(c, a, b, true)
}

func (s *identitySuite) TestKeyedCollectionMemberDiffers(c *gc.C) {
	a := tree.New("vinterface").WithKeyed("flow-filters", filter("1"), filter("2"))
	b := tree.New("vinterface").WithKeyed("flow-filters", filter("2"), filter("1", action(1, "drop")))
	s.assertEqual(c, a, b, false)

	b = tree.New("vinterface").WithKeyed("flow-filters", filter("1"))
	s.assertEqual(c, a, b, false)

	b = tree.New("vinterface").WithKeyed("flow-filters", filter("1"), filter("3"))
	s.assertEqual(c, a, b, false)
}

func (s *identitySuite) TestKeyedCollectionDuplicateKey(c *gc.C) {
	a := tree.New("vinterface").WithKeyed("flow-filters", filter("1"), filter("1"))
	b := tree.New("vinterface").WithKeyed("flow-filters", filter("1"), filter("2"))

	_, err := tree.Equal(a, b)
	c.Check(err, gc.ErrorMatches, `duplicate key "1" of flow-filter in keyed collection "flow-filters" not valid`)
	c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)

	_, err = tree.Equal(b, a)
	c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)
}

func (s *identitySuite) TestDuplicateKeyReportedWhenFieldsDiffer(c *gc.C) {
	withDuplicates := func(condition string) *tree.Value {
		return tree.NewEntry("vinterface", "if1").
			WithField("condition", condition).
			WithKeyed("flow-filters", filter("1"), filter("1"))
	}
	_, err := tree.Equal(withDuplicates("a"), withDuplicates("b"))
	c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)

	// A duplicate on one side only, below a value whose type differs.
	clean := tree.New("vbridge").WithKeyed("vinterfaces", tree.NewEntry("vinterface", "if1"))
	_, err = tree.Equal(clean, tree.New("vterminal").WithKeyed("vinterfaces", withDuplicates("a")))
	c.Check(err, gc.ErrorMatches, `duplicate key "1" of flow-filter in keyed collection "flow-filters" not valid`)

	// Duplicates nested inside an ordered collection are found too.
	nested := tree.New("flow-filter").WithOrdered("actions", tree.New("flow-action").
		WithKeyed("marks", tree.NewEntry("mark", "m"), tree.NewEntry("mark", "m")))
	_, err = tree.Equal(nested, nil)
	c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)
}

func (s *identitySuite) TestOrderedSequenceOrderSensitive(c *gc.C) {
	a := filter("1", action(1, "drop"), action(2, "set-dscp"), action(3, "set-vlan-pcp"))
	b := filter("1", action(3, "set-vlan-pcp"), action(2, "set-dscp"), action(1, "drop"))
	s.assertEqual(c, a, b, false)

	s.assertEqual(c, a, filter("1", action(1, "drop"), action(2, "set-dscp"), action(3, "set-vlan-pcp")), true)
}

func (s *identitySuite) TestOrderedSequenceSingleElement(c *gc.C) {
	a := filter("1", action(1, "drop"))
	b := filter("1", action(1, "drop"))
	s.assertEqual(c, a, b, true)
}

func (s *identitySuite) TestLeafSetMultiset(c *gc.C) {
	a := tree.New("vlan-map").WithLeaves("vlans", 10, 20, 20, 30)
	b := tree.New("vlan-map").WithLeaves("vlans", 20, 30, 10, 20)
	s.assertEqual(c, a, b, true)

	// Multiplicity counts.
	b = tree.New("vlan-map").WithLeaves("vlans", 10, 20, 30, 30)
	s.assertEqual(c, a, b, false)

	b = tree.New("vlan-map").WithLeaves("vlans", 10, 20, 30)
	s.assertEqual(c, a, b, false)
}

func (s *identitySuite) TestLeafSetNonComparableLeaves(c *gc.C) {
	a := tree.New("vlan-map").WithLeaves("ranges", []int{1, 2}, []int{3, 4})
	b := tree.New("vlan-map").WithLeaves("ranges", []int{3, 4}, []int{1, 2})
	s.assertEqual(c, a, b, true)

	b = tree.New("vlan-map").WithLeaves("ranges", []int{3, 4}, []int{3, 4})
	s.assertEqual(c, a, b, false)
}

func (s *identitySuite) TestCollectionKindMismatch(c *gc.C) {
	a := tree.New("flow-filter").WithOrdered("actions", action(1, "drop"))
	b := tree.New("flow-filter").WithKeyed("actions", action(1, "drop"))
	s.assertEqual(c, a, b, false)
}

func (s *identitySuite) TestMissingCollection(c *gc.C) {
	a := tree.New("flow-filter").WithOrdered("actions")
	b := tree.New("flow-filter")
	s.assertEqual(c, a, b, false)
}

func (s *identitySuite) TestNestedKeyedInsideOrdered(c *gc.C) {
	a := tree.New("vtn").WithOrdered("steps",
		tree.New("step").WithKeyed("hosts", tree.NewEntry("host", "a"), tree.NewEntry("host", "b")),
	)
	b := tree.New("vtn").WithOrdered("steps",
		tree.New("step").WithKeyed("hosts", tree.NewEntry("host", "b"), tree.NewEntry("host", "a")),
	)
	s.assertEqual(c, a, b, true)
}

func (s *identitySuite) TestIdentity(c *gc.C) {
	a := tree.IdentityOf(filter("1", action(1, "drop")))
	b := tree.IdentityOf(filter("1", action(1, "drop")))
	c.Check(a.Value().Key, gc.Equals, "1")

	equal, err := a.Equals(b)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(equal, jc.IsTrue)

	equal, err = a.Equals(tree.IdentityOf(nil))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(equal, jc.IsFalse)
}
