// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package walker

import (
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/juju/datatree/core/changestream"
	"github.com/juju/datatree/core/order"
	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/core/tree"
)

var logger = loggo.GetLogger("datatree.walker")

// DefaultMaxDepth is the depth below which a walk stops descending when no
// other limit is configured.
const DefaultMaxDepth = 64

// Logger facilitates emitting log messages.
type Logger interface {
	Debugf(string, ...interface{})
	Warningf(string, ...interface{})
}

// SkipReason names why a node of a modification tree was left out of a
// walk.
type SkipReason string

const (
	// SkipWildcard is used for nodes whose path does not resolve to a
	// single node.
	SkipWildcard SkipReason = "wildcard-path"
	// SkipNoData is used for nodes without a before or an after value.
	SkipNoData SkipReason = "no-data"
	// SkipMissingBefore is used for deleted nodes without a before value.
	SkipMissingBefore SkipReason = "missing-before"
	// SkipMissingAfter is used for written nodes without an after value.
	SkipMissingAfter SkipReason = "missing-after"
	// SkipTypeMismatch is used for roots whose type is not the type of
	// their declared root path.
	SkipTypeMismatch SkipReason = "type-mismatch"
	// SkipNoChildren is used for nodes whose children cannot be
	// enumerated. The node itself is still classified.
	SkipNoChildren SkipReason = "no-children"
	// SkipMaxDepth is used for nodes below which the walk stops
	// descending.
	SkipMaxDepth SkipReason = "max-depth"
)

// Recorder is told about every malformed node met during a walk.
type Recorder interface {
	RecordSkipped(reason SkipReason)
}

// Config is the capability set a caller hands to a Walker. Every field is
// optional.
type Config struct {
	// IsLeaf reports whether the walk must not descend below nodes of the
	// given type. Defaults to false for every type.
	IsLeaf func(tree.NodeType) bool

	// IsDepthFirst reports whether the event of a node is emitted before
	// its children's (outer first) or after them (inner first). Defaults
	// to outer first for created and updated nodes, and inner first for
	// removed nodes.
	IsDepthFirst func(changestream.ChangeType) bool

	// IsRequiredType reports whether events are emitted for nodes of the
	// given type. Children of other nodes are still walked. Defaults to
	// every type.
	IsRequiredType func(tree.NodeType) bool

	// IsRequiredEvent reports whether events of the given change type are
	// emitted. Defaults to every change type.
	IsRequiredEvent func(changestream.ChangeType) bool

	// IsUpdated decides whether a node with both a before and an after
	// value changed. It replaces the default decision, which compares the
	// values by structural identity.
	IsUpdated func(changestream.ChangedData) (bool, error)

	// Order, if set, sorts the children of each node by their path before
	// the walk descends into them. Otherwise the tree enumeration order is
	// kept.
	Order order.Comparator[path.Path]

	// MaxDepth bounds how deep below the root the walk descends. Zero
	// means DefaultMaxDepth.
	MaxDepth int

	// Logger receives the warnings about malformed nodes.
	Logger Logger

	// Recorder, if set, is told about malformed nodes.
	Recorder Recorder
}

// Validate returns an error if the config cannot be used by a Walker.
func (c Config) Validate() error {
	if c.MaxDepth < 0 {
		return errors.NotValidf("negative MaxDepth %d", c.MaxDepth)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.IsLeaf == nil {
		c.IsLeaf = func(tree.NodeType) bool { return false }
	}
	if c.IsDepthFirst == nil {
		c.IsDepthFirst = func(t changestream.ChangeType) bool { return t != changestream.Removed }
	}
	if c.IsRequiredType == nil {
		c.IsRequiredType = func(tree.NodeType) bool { return true }
	}
	if c.IsRequiredEvent == nil {
		c.IsRequiredEvent = func(changestream.ChangeType) bool { return true }
	}
	if c.IsUpdated == nil {
		c.IsUpdated = DefaultIsUpdated
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.Logger == nil {
		c.Logger = logger
	}
	return c
}

// DefaultIsUpdated reports whether the values of a changed node differ by
// structural identity.
func DefaultIsUpdated(data changestream.ChangedData) (bool, error) {
	equal, err := tree.IdentityOf(data.OldValue()).Equals(tree.IdentityOf(data.NewValue()))
	if err != nil {
		return false, errors.Trace(err)
	}
	return !equal, nil
}

// ForType returns the config of a listener interested in the nodes of a
// single type: events are emitted for that type only, and the walk never
// descends below it.
func ForType(t tree.NodeType) Config {
	return Config{
		IsLeaf:         func(other tree.NodeType) bool { return other == t },
		IsRequiredType: func(other tree.NodeType) bool { return other == t },
	}
}
