// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package walker_test

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/datatree/core/changestream"
	"github.com/juju/datatree/core/modification"
	"github.com/juju/datatree/core/order"
	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/core/tree"
	"github.com/juju/datatree/internal/walker"
	coretesting "github.com/juju/datatree/testing"
)

type walkerSuite struct {
	testing.IsolationSuite

	logger   *coretesting.RecordingLogger
	recorder *skipRecorder
}

var _ = gc.Suite(&walkerSuite{})

func (s *walkerSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.logger = &coretesting.RecordingLogger{}
	s.recorder = &skipRecorder{}
}

type skipRecorder struct {
	reasons []walker.SkipReason
}

func (r *skipRecorder) RecordSkipped(reason walker.SkipReason) {
	r.reasons = append(r.reasons, reason)
}

// opaqueNode hides the children of a modification from both sides.
type opaqueNode struct {
	*modification.Node
}

func (opaqueNode) Children(modification.Shape) ([]modification.Modification, bool) {
	return nil, false
}

func (s *walkerSuite) newWalker(c *gc.C, cfg walker.Config) *walker.Walker {
	cfg.Logger = s.logger
	cfg.Recorder = s.recorder
	w, err := walker.New(cfg)
	c.Assert(err, jc.ErrorIsNil)
	return w
}

func summary(events []changestream.ChangeEvent) []string {
	result := make([]string, len(events))
	for i, event := range events {
		result[i] = fmt.Sprintf("%s %s", event.Type(), event.Path())
	}
	return result
}

func (s *walkerSuite) walk(c *gc.C, w *walker.Walker, root modification.Root) []string {
	events, err := w.Collect(root)
	c.Assert(err, jc.ErrorIsNil)
	for _, event := range events {
		c.Check(event.Validate(), jc.ErrorIsNil)
	}
	return summary(events)
}

func top(name string) *tree.Value {
	return tree.New("top").WithField("name", name)
}

func vtn(key string, fields ...interface{}) *tree.Value {
	v := tree.NewEntry("vtn", key)
	for i := 0; i+1 < len(fields); i += 2 {
		v.WithField(fields[i].(string), fields[i+1])
	}
	return v
}

func vbridge(key string) *tree.Value {
	return tree.NewEntry("vbridge", key)
}

func topRoot(node *modification.Node) modification.Root {
	return modification.Root{Path: path.MustParse("/top"), Node: node}
}

// mixedTree holds one created, one updated and one removed subtree below
// an updated root.
func mixedTree() *modification.Node {
	return modification.Updated(path.Item("top"), top("old"), top("new"),
		modification.Created(path.Entry("vtn", "a"), vtn("a"),
			modification.Created(path.Entry("vbridge", "a1"), vbridge("a1")),
		),
		modification.Updated(path.Entry("vtn", "b"), vtn("b", "mtu", 1500), vtn("b", "mtu", 9000)),
		modification.Removed(path.Entry("vtn", "c"), vtn("c"),
			modification.Removed(path.Entry("vbridge", "c1"), vbridge("c1")),
			modification.Removed(path.Entry("vbridge", "c2"), vbridge("c2")),
		),
	)
}

func (s *walkerSuite) TestDefaultOrdering(c *gc.C) {
	w := s.newWalker(c, walker.Config{})
	c.Check(s.walk(c, w, topRoot(mixedTree())), jc.DeepEquals, []string{
		"updated /top",
		"created /top/vtn[a]",
		"created /top/vtn[a]/vbridge[a1]",
		"updated /top/vtn[b]",
		"removed /top/vtn[c]/vbridge[c1]",
		"removed /top/vtn[c]/vbridge[c2]",
		"removed /top/vtn[c]",
	})
	c.Check(s.logger.Warnings(), gc.HasLen, 0)
}

func (s *walkerSuite) TestEventValues(c *gc.C) {
	w := s.newWalker(c, walker.Config{})
	events, err := w.Collect(topRoot(mixedTree()))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(events, gc.HasLen, 7)

	updated := events[3]
	c.Check(updated.OldValue().Fields["mtu"], gc.Equals, 1500)
	c.Check(updated.NewValue().Fields["mtu"], gc.Equals, 9000)

	created := events[1]
	c.Check(created.OldValue(), gc.IsNil)
	c.Check(created.NewValue().Key, gc.Equals, "a")

	removed := events[6]
	c.Check(removed.NewValue(), gc.IsNil)
	c.Check(removed.OldValue().Key, gc.Equals, "c")
}

func (s *walkerSuite) TestInnerFirstEverywhere(c *gc.C) {
	w := s.newWalker(c, walker.Config{
		IsDepthFirst: func(changestream.ChangeType) bool { return false },
	})
	c.Check(s.walk(c, w, topRoot(mixedTree())), jc.DeepEquals, []string{
		"created /top/vtn[a]/vbridge[a1]",
		"created /top/vtn[a]",
		"updated /top/vtn[b]",
		"removed /top/vtn[c]/vbridge[c1]",
		"removed /top/vtn[c]/vbridge[c2]",
		"removed /top/vtn[c]",
		"updated /top",
	})
}

func (s *walkerSuite) TestOuterFirstRemovals(c *gc.C) {
	w := s.newWalker(c, walker.Config{
		IsDepthFirst: func(changestream.ChangeType) bool { return true },
	})
	c.Check(s.walk(c, w, topRoot(mixedTree())), jc.DeepEquals, []string{
		"updated /top",
		"created /top/vtn[a]",
		"created /top/vtn[a]/vbridge[a1]",
		"updated /top/vtn[b]",
		"removed /top/vtn[c]",
		"removed /top/vtn[c]/vbridge[c1]",
		"removed /top/vtn[c]/vbridge[c2]",
	})
}

func (s *walkerSuite) TestUnchangedNodeStillDescends(c *gc.C) {
	root := modification.Updated(path.Item("top"), top("same"), top("same"),
		modification.Updated(path.Entry("vtn", "a"), vtn("a", "mtu", 1), vtn("a", "mtu", 1),
			modification.Created(path.Entry("vbridge", "a1"), vbridge("a1")),
		),
	)
	w := s.newWalker(c, walker.Config{})
	c.Check(s.walk(c, w, topRoot(root)), jc.DeepEquals, []string{
		"created /top/vtn[a]/vbridge[a1]",
	})
}

func (s *walkerSuite) TestKeyedMemberOrderIsNotAChange(c *gc.C) {
	before := top("x").WithKeyed("vtn", vtn("a"), vtn("b"))
	after := top("x").WithKeyed("vtn", vtn("b"), vtn("a"))
	w := s.newWalker(c, walker.Config{})
	c.Check(s.walk(c, w, topRoot(modification.Updated(path.Item("top"), before, after))), gc.HasLen, 0)
}

func (s *walkerSuite) TestRequiredTypeFiltersEventsOnly(c *gc.C) {
	w := s.newWalker(c, walker.Config{
		IsRequiredType: func(t tree.NodeType) bool { return t == "vbridge" },
	})
	c.Check(s.walk(c, w, topRoot(mixedTree())), jc.DeepEquals, []string{
		"created /top/vtn[a]/vbridge[a1]",
		"removed /top/vtn[c]/vbridge[c1]",
		"removed /top/vtn[c]/vbridge[c2]",
	})
}

func (s *walkerSuite) TestRequiredEvent(c *gc.C) {
	w := s.newWalker(c, walker.Config{
		IsRequiredEvent: func(t changestream.ChangeType) bool { return t == changestream.Removed },
	})
	c.Check(s.walk(c, w, topRoot(mixedTree())), jc.DeepEquals, []string{
		"removed /top/vtn[c]/vbridge[c1]",
		"removed /top/vtn[c]/vbridge[c2]",
		"removed /top/vtn[c]",
	})
}

func (s *walkerSuite) TestLeafStopsDescent(c *gc.C) {
	w := s.newWalker(c, walker.Config{
		IsLeaf: func(t tree.NodeType) bool { return t == "vtn" },
	})
	c.Check(s.walk(c, w, topRoot(mixedTree())), jc.DeepEquals, []string{
		"updated /top",
		"created /top/vtn[a]",
		"updated /top/vtn[b]",
		"removed /top/vtn[c]",
	})
}

func (s *walkerSuite) TestForType(c *gc.C) {
	w := s.newWalker(c, walker.ForType("vtn"))
	c.Check(s.walk(c, w, topRoot(mixedTree())), jc.DeepEquals, []string{
		"created /top/vtn[a]",
		"updated /top/vtn[b]",
		"removed /top/vtn[c]",
	})
}

func (s *walkerSuite) TestIsUpdatedOverride(c *gc.C) {
	var seen []string
	w := s.newWalker(c, walker.Config{
		IsUpdated: func(data changestream.ChangedData) (bool, error) {
			seen = append(seen, data.Path().String())
			return data.NodeType() == "top", nil
		},
	})
	c.Check(s.walk(c, w, topRoot(mixedTree())), jc.DeepEquals, []string{
		"updated /top",
		"created /top/vtn[a]",
		"created /top/vtn[a]/vbridge[a1]",
		"removed /top/vtn[c]/vbridge[c1]",
		"removed /top/vtn[c]/vbridge[c2]",
		"removed /top/vtn[c]",
	})
	c.Check(seen, jc.DeepEquals, []string{"/top", "/top/vtn[b]"})
}

func (s *walkerSuite) TestIsUpdatedOverrideSeesEqualValues(c *gc.C) {
	w := s.newWalker(c, walker.Config{
		IsUpdated: func(changestream.ChangedData) (bool, error) { return true, nil },
	})
	root := modification.Updated(path.Item("top"), top("same"), top("same"))
	c.Check(s.walk(c, w, topRoot(root)), jc.DeepEquals, []string{"updated /top"})
}

func (s *walkerSuite) TestIsUpdatedError(c *gc.C) {
	w := s.newWalker(c, walker.Config{
		IsUpdated: func(data changestream.ChangedData) (bool, error) {
			if data.NodeType() == "vtn" {
				return false, errors.New("boom")
			}
			return true, nil
		},
	})
	stack := walker.NewStack(path.New())
	err := w.Walk(mixedTree(), stack, func(changestream.ChangeEvent) error { return nil })
	c.Check(err, gc.ErrorMatches, `checking update of /top/vtn\[b\]: boom`)
	c.Check(stack.Depth(), gc.Equals, 0)
}

func (s *walkerSuite) TestDuplicateKeyPropagates(c *gc.C) {
	before := top("x").WithKeyed("vtn", vtn("a"), vtn("a"))
	after := top("x").WithKeyed("vtn", vtn("a"))
	w := s.newWalker(c, walker.Config{})
	_, err := w.Collect(topRoot(modification.Updated(path.Item("top"), before, after)))
	c.Check(err, gc.ErrorMatches, `checking update of /top: duplicate key "a" of vtn in keyed collection "vtn" not valid`)
	c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)
}

func (s *walkerSuite) TestSinkErrorAborts(c *gc.C) {
	sentinel := errors.New("sink full")
	var count int
	stack := walker.NewStack(path.New())
	w := s.newWalker(c, walker.Config{})
	err := w.Walk(mixedTree(), stack, func(changestream.ChangeEvent) error {
		count++
		if count == 3 {
			return sentinel
		}
		return nil
	})
	c.Check(errors.Is(err, sentinel), jc.IsTrue)
	c.Check(count, gc.Equals, 3)
	c.Check(stack.Depth(), gc.Equals, 0)
}

func (s *walkerSuite) TestStackRestoredAfterWalk(c *gc.C) {
	stack := walker.NewStack(path.MustParse("/outer"))
	stack.Push(path.Item("inner"))
	w := s.newWalker(c, walker.Config{})

	var paths []string
	err := w.Walk(mixedTree(), stack, func(event changestream.ChangeEvent) error {
		paths = append(paths, event.Path().String())
		return nil
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(stack.Depth(), gc.Equals, 1)
	c.Check(stack.Current().String(), gc.Equals, "/outer/inner")
	c.Check(paths[0], gc.Equals, "/outer/inner/top")
}

func (s *walkerSuite) TestMalformedNodesAreSkipped(c *gc.C) {
	root := modification.Updated(path.Item("top"), top("x"), top("x"),
		&modification.Node{Seg: path.Entry("vtn", "empty"), Op: modification.Write},
		&modification.Node{Seg: path.Entry("vtn", "nobefore"), Op: modification.Delete, After: vtn("nobefore")},
		&modification.Node{Seg: path.Entry("vtn", "noafter"), Op: modification.Write, Before: vtn("noafter"),
			Kids: []*modification.Node{modification.Removed(path.Entry("vbridge", "hidden"), vbridge("hidden"))},
		},
		modification.Created(path.Any("vtn"), vtn("wild")),
		modification.Created(path.Entry("vtn", "good"), vtn("good")),
	)
	w := s.newWalker(c, walker.Config{})
	c.Check(s.walk(c, w, topRoot(root)), jc.DeepEquals, []string{
		"created /top/vtn[good]",
	})
	c.Check(s.recorder.reasons, jc.DeepEquals, []walker.SkipReason{
		walker.SkipNoData,
		walker.SkipMissingBefore,
		walker.SkipMissingAfter,
		walker.SkipWildcard,
	})
	warnings := s.logger.Warnings()
	c.Assert(warnings, gc.HasLen, 4)
	c.Check(warnings[0], gc.Matches, `.*/top/vtn\[empty\].*`)
	c.Check(warnings[3], gc.Matches, `.*wildcard path /top/vtn\[\*\].*`)
}

func (s *walkerSuite) TestUnspecifiedTypeUsesValues(c *gc.C) {
	root := modification.Updated(path.Item("top"), top("x"), top("x"),
		&modification.Node{Seg: path.Entry("vtn", "a"), After: vtn("a")},
		&modification.Node{Seg: path.Entry("vtn", "b"), Before: vtn("b")},
	)
	w := s.newWalker(c, walker.Config{})
	c.Check(s.walk(c, w, topRoot(root)), jc.DeepEquals, []string{
		"created /top/vtn[a]",
		"removed /top/vtn[b]",
	})
}

func (s *walkerSuite) TestRemovedChildrenFromBeforeShape(c *gc.C) {
	// Only children that existed before are reachable below a removal.
	root := modification.Removed(path.Item("top"), top("x"),
		modification.Removed(path.Entry("vtn", "a"), vtn("a")),
		modification.Created(path.Entry("vtn", "ghost"), vtn("ghost")),
	)
	w := s.newWalker(c, walker.Config{})
	c.Check(s.walk(c, w, topRoot(root)), jc.DeepEquals, []string{
		"removed /top/vtn[a]",
		"removed /top",
	})
}

func (s *walkerSuite) TestChildrenNotEnumerable(c *gc.C) {
	node := opaqueNode{modification.Updated(path.Item("top"), top("old"), top("new"),
		modification.Created(path.Entry("vtn", "a"), vtn("a")),
	)}
	w := s.newWalker(c, walker.Config{})
	events, err := w.Collect(modification.Root{Path: path.MustParse("/top"), Node: node})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(summary(events), jc.DeepEquals, []string{"updated /top"})
	c.Check(s.recorder.reasons, jc.DeepEquals, []walker.SkipReason{walker.SkipNoChildren})
	c.Check(s.logger.Contains(loggo.WARNING, "cannot enumerate children"), jc.IsTrue)
}

func (s *walkerSuite) TestRootTypeMismatch(c *gc.C) {
	w := s.newWalker(c, walker.Config{})
	root := modification.Root{
		Path: path.MustParse("/top"),
		Node: modification.Created(path.Item("other"), tree.New("other")),
	}
	c.Check(s.walk(c, w, root), gc.HasLen, 0)
	c.Check(s.recorder.reasons, jc.DeepEquals, []walker.SkipReason{walker.SkipTypeMismatch})
}

func (s *walkerSuite) TestNilRoot(c *gc.C) {
	w := s.newWalker(c, walker.Config{})
	c.Check(s.walk(c, w, modification.Root{Path: path.MustParse("/top")}), gc.HasLen, 0)
	c.Check(s.recorder.reasons, jc.DeepEquals, []walker.SkipReason{walker.SkipNoData})
}

func (s *walkerSuite) TestMaxDepth(c *gc.C) {
	w := s.newWalker(c, walker.Config{MaxDepth: 2})
	c.Check(s.walk(c, w, topRoot(mixedTree())), jc.DeepEquals, []string{
		"updated /top",
		"created /top/vtn[a]",
		"updated /top/vtn[b]",
		"removed /top/vtn[c]",
	})
	c.Check(s.recorder.reasons, jc.DeepEquals, []walker.SkipReason{
		walker.SkipMaxDepth, walker.SkipMaxDepth,
	})
}

func (s *walkerSuite) TestNegativeMaxDepth(c *gc.C) {
	_, err := walker.New(walker.Config{MaxDepth: -1})
	c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)
}

func (s *walkerSuite) TestOrderSortsSiblings(c *gc.C) {
	cmp := order.NewPathTypeComparator()
	cmp.SetOrder("vterminal", 0)
	cmp.SetOrder("vbridge", 1)

	root := modification.Created(path.Item("top"), top("x"),
		modification.Created(path.Entry("vbridge", "b1"), vbridge("b1")),
		modification.Created(path.Entry("vterminal", "t1"), tree.NewEntry("vterminal", "t1")),
		modification.Created(path.Entry("vbridge", "b2"), vbridge("b2")),
	)
	w := s.newWalker(c, walker.Config{Order: cmp})
	c.Check(s.walk(c, w, topRoot(root)), jc.DeepEquals, []string{
		"created /top",
		"created /top/vterminal[t1]",
		"created /top/vbridge[b1]",
		"created /top/vbridge[b2]",
	})
}

func (s *walkerSuite) TestConcurrentWalks(c *gc.C) {
	w := s.newWalker(c, walker.Config{})
	results := make(chan []changestream.ChangeEvent, 4)
	for i := 0; i < 4; i++ {
		go func() {
			events, _ := w.Collect(topRoot(mixedTree()))
			results <- events
		}()
	}
	for i := 0; i < 4; i++ {
		c.Check(summary(<-results), gc.HasLen, 7)
	}
}
