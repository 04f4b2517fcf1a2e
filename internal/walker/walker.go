// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package walker turns a modification tree into an ordered sequence of
// change events.
//
// Every visited node is classified as created, updated, removed or
// unchanged, filtered by the caller's predicates and forwarded to a sink
// either before its children (outer first) or after them (inner first).
// Malformed nodes are logged and left out without aborting the walk;
// errors returned by the caller's predicates or sink abort it.
package walker

import (
	"github.com/juju/errors"

	"github.com/juju/datatree/core/changestream"
	"github.com/juju/datatree/core/modification"
	"github.com/juju/datatree/core/order"
)

// Sink receives the events emitted by a walk.
type Sink func(changestream.ChangeEvent) error

// Walker walks modification trees. A Walker holds no per-walk state and
// can be used by concurrent walks, each with its own Stack.
type Walker struct {
	cfg Config
}

// New returns a walker with the given config.
func New(cfg Config) (*Walker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &Walker{cfg: cfg.withDefaults()}, nil
}

// WalkRoot walks one modification tree delivered by a store, on a fresh
// stack rooted at the parent of the declared root path.
func (w *Walker) WalkRoot(root modification.Root, sink Sink) error {
	if root.Node == nil {
		w.skip(SkipNoData, "ignoring empty modification of %s", root.Path)
		return nil
	}
	if declared, ok := root.Path.Last(); ok && declared.Type != root.Node.Segment().Type {
		w.skip(SkipTypeMismatch, "ignoring %s modification of %s: %s is not a %s",
			root.Node.Type(), root.Path, root.Node.Segment().Type, declared.Type)
		return nil
	}
	return w.Walk(root.Node, NewStack(root.Path.Parent()), sink)
}

// Walk classifies node and its descendants, emitting the qualifying
// events to sink. The node's segment is pushed onto the stack for the
// duration of the walk; the stack is returned at its entry depth.
func (w *Walker) Walk(node modification.Modification, stack *Stack, sink Sink) error {
	return errors.Trace(w.walk(node, stack, sink, 0))
}

func (w *Walker) walk(node modification.Modification, stack *Stack, sink Sink, depth int) error {
	segment := node.Segment()
	stack.Push(segment)
	defer stack.Pop()

	current := stack.Current()
	if current.IsWildcard() {
		w.skip(SkipWildcard, "ignoring %s modification at wildcard path %s", node.Type(), current)
		return nil
	}

	before, after := node.DataBefore(), node.DataAfter()
	changeType, reason := classify(node.Type(), before != nil, after != nil)
	if reason != "" {
		w.skip(reason, "ignoring %s modification of %s: %s", node.Type(), current, reason)
		return nil
	}

	var event *changestream.ChangeEvent
	switch changeType {
	case changestream.Created:
		created := changestream.NewCreatedEvent(current, after)
		event = &created
	case changestream.Removed:
		removed := changestream.NewRemovedEvent(current, before)
		event = &removed
	case changestream.Updated:
		updated, err := w.cfg.IsUpdated(changestream.NewChangedData(current, before, after))
		if err != nil {
			return errors.Annotatef(err, "checking update of %s", current)
		}
		if updated {
			changed := changestream.NewUpdatedEvent(current, before, after)
			event = &changed
		}
	}

	emit := event != nil &&
		w.cfg.IsRequiredType(segment.Type) &&
		w.cfg.IsRequiredEvent(changeType)
	outerFirst := emit && w.cfg.IsDepthFirst(changeType)

	if outerFirst {
		if err := sink(*event); err != nil {
			return errors.Trace(err)
		}
	}
	if !w.cfg.IsLeaf(segment.Type) {
		if err := w.walkChildren(node, changeType, stack, sink, depth); err != nil {
			return errors.Trace(err)
		}
	}
	if emit && !outerFirst {
		if err := sink(*event); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// classify returns the change type of a node from the presence of its
// values. A node with both values is a candidate update. The reason is
// set when the node is malformed.
func classify(op modification.Type, hasBefore, hasAfter bool) (changestream.ChangeType, SkipReason) {
	switch {
	case !hasBefore && !hasAfter:
		return 0, SkipNoData
	case op == modification.Delete && !hasBefore:
		return 0, SkipMissingBefore
	case (op == modification.Write || op == modification.SubtreeModified) && !hasAfter:
		return 0, SkipMissingAfter
	case !hasBefore:
		return changestream.Created, ""
	case !hasAfter:
		return changestream.Removed, ""
	}
	return changestream.Updated, ""
}

func (w *Walker) walkChildren(
	node modification.Modification, changeType changestream.ChangeType,
	stack *Stack, sink Sink, depth int,
) error {
	current := stack.Current()

	var (
		children []modification.Modification
		ok       bool
	)
	if changeType == changestream.Removed || node.DataAfter() == nil {
		children, ok = node.Children(modification.Before)
	} else if children, ok = node.Children(modification.After); !ok {
		children, ok = node.Children(modification.Before)
	}
	if !ok {
		w.skip(SkipNoChildren, "cannot enumerate children of %s modification of %s; treating it as a leaf", node.Type(), current)
		return nil
	}
	if len(children) == 0 {
		return nil
	}
	if depth+1 >= w.cfg.MaxDepth {
		w.skip(SkipMaxDepth, "not descending below %s: depth limit %d reached", current, w.cfg.MaxDepth)
		return nil
	}
	if w.cfg.Order != nil {
		children = order.Sorted(children, order.ComparatorFunc[modification.Modification](
			func(a, b modification.Modification) int {
				return w.cfg.Order.Compare(current.Append(a.Segment()), current.Append(b.Segment()))
			},
		))
	}

	for _, child := range children {
		if child == nil {
			continue
		}
		if err := w.walk(child, stack, sink, depth+1); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (w *Walker) skip(reason SkipReason, format string, args ...interface{}) {
	w.cfg.Logger.Warningf(format, args...)
	if w.cfg.Recorder != nil {
		w.cfg.Recorder.RecordSkipped(reason)
	}
}

// Collect walks root and returns the emitted events.
func (w *Walker) Collect(root modification.Root) ([]changestream.ChangeEvent, error) {
	var events []changestream.ChangeEvent
	err := w.WalkRoot(root, func(event changestream.ChangeEvent) error {
		events = append(events, event)
		return nil
	})
	return events, errors.Trace(err)
}
