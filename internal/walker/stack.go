// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package walker

import (
	"github.com/juju/datatree/core/path"
)

// Stack tracks where a walk currently is in the data tree: a fixed root
// path followed by the segments pushed while descending.
//
// A Stack is owned by a single walk and is not safe for concurrent use.
type Stack struct {
	root     path.Path
	segments []path.Segment

	current path.Path
	cached  bool
}

// NewStack returns an empty stack on top of the given root path.
func NewStack(root path.Path) *Stack {
	return &Stack{root: root}
}

// SetRoot replaces the root path and clears the stack.
func (s *Stack) SetRoot(root path.Path) {
	s.root = root
	s.segments = s.segments[:0]
	s.cached = false
}

// Root returns the root path of the stack.
func (s *Stack) Root() path.Path {
	return s.root
}

// Push descends into the given segment.
func (s *Stack) Push(segment path.Segment) {
	s.segments = append(s.segments, segment)
	s.cached = false
}

// Pop returns to the parent of the current node. Popping an empty stack
// is a programming error and panics.
func (s *Stack) Pop() path.Segment {
	if len(s.segments) == 0 {
		panic("walker: pop on empty path stack")
	}
	last := len(s.segments) - 1
	segment := s.segments[last]
	s.segments = s.segments[:last]
	s.cached = false
	return segment
}

// Depth returns the number of segments pushed on top of the root.
func (s *Stack) Depth() int {
	return len(s.segments)
}

// Current returns the path of the current node. The path is computed once
// per push or pop; repeated calls in between return the same path.
func (s *Stack) Current() path.Path {
	if !s.cached {
		s.current = s.root.Append(s.segments...)
		s.cached = true
	}
	return s.current
}
