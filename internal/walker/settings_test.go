// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package walker_test

import (
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/datatree/core/changestream"
	"github.com/juju/datatree/core/modification"
	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/core/tree"
	"github.com/juju/datatree/internal/walker"
)

type settingsSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&settingsSuite{})

func (s *settingsSuite) TestParseEmpty(c *gc.C) {
	settings, err := walker.ParseSettings(nil)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(settings, jc.DeepEquals, walker.DefaultSettings())
}

func (s *settingsSuite) TestParse(c *gc.C) {
	settings, err := walker.ParseSettings([]byte(`
leaf-types: [vbridge]
required-types: [vtn, vbridge]
required-events: [created, removed]
outer-first: [all]
type-order:
  vterminal: 0
  vbridge: 1
max-depth: 8
`))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(settings, jc.DeepEquals, walker.Settings{
		LeafTypes:      []tree.NodeType{"vbridge"},
		RequiredTypes:  []tree.NodeType{"vtn", "vbridge"},
		RequiredEvents: changestream.Created | changestream.Removed,
		OuterFirst:     changestream.All,
		TypeOrder:      map[tree.NodeType]int{"vterminal": 0, "vbridge": 1},
		MaxDepth:       8,
	})
}

func (s *settingsSuite) TestParseUnknownKey(c *gc.C) {
	_, err := walker.ParseSettings([]byte("leaf-type: [vtn]\n"))
	c.Check(err, gc.ErrorMatches, `validating walker settings: .*leaf-type.*`)
}

func (s *settingsSuite) TestParseBadChangeType(c *gc.C) {
	_, err := walker.ParseSettings([]byte("required-events: [renamed]\n"))
	c.Check(err, gc.ErrorMatches, `reading required-events: change type "renamed" not valid`)
	c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)
}

func (s *settingsSuite) TestParseNegativeDepth(c *gc.C) {
	_, err := walker.ParseSettings([]byte("max-depth: -3\n"))
	c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)
}

func (s *settingsSuite) TestParseBadYAML(c *gc.C) {
	_, err := walker.ParseSettings([]byte("leaf-types: [\n"))
	c.Check(err, gc.ErrorMatches, `(?s)parsing walker settings: .*`)
}

func (s *settingsSuite) TestConfig(c *gc.C) {
	settings := walker.DefaultSettings()
	settings.LeafTypes = []tree.NodeType{"vtn"}
	settings.RequiredTypes = []tree.NodeType{"vtn", "vbridge"}
	settings.RequiredEvents = changestream.Created | changestream.Updated
	settings.TypeOrder = map[tree.NodeType]int{"vtn": 0}

	cfg := settings.Config()
	c.Check(cfg.IsLeaf("vtn"), jc.IsTrue)
	c.Check(cfg.IsLeaf("vbridge"), jc.IsFalse)
	c.Check(cfg.IsRequiredType("vbridge"), jc.IsTrue)
	c.Check(cfg.IsRequiredType("top"), jc.IsFalse)
	c.Check(cfg.IsRequiredEvent(changestream.Removed), jc.IsFalse)
	c.Check(cfg.IsDepthFirst(changestream.Created), jc.IsTrue)
	c.Check(cfg.IsDepthFirst(changestream.Removed), jc.IsFalse)
	c.Check(cfg.Order, gc.NotNil)
}

func (s *settingsSuite) TestDefaultConfigWalksEverything(c *gc.C) {
	w, err := walker.New(walker.DefaultSettings().Config())
	c.Assert(err, jc.ErrorIsNil)
	events, err := w.Collect(modification.Root{
		Path: path.MustParse("/top"),
		Node: modification.Removed(path.Item("top"), tree.New("top"),
			modification.Removed(path.Entry("vtn", "a"), tree.NewEntry("vtn", "a")),
		),
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(summary(events), jc.DeepEquals, []string{
		"removed /top/vtn[a]",
		"removed /top",
	})
}
