// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package order

import (
	"strings"
	"sync"

	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/core/tree"
)

// PathTypeComparator orders paths by a rank declared per target node type.
//
// Ranked types sort first, by ascending rank. Types without a rank sort
// after every ranked type. Ties fall back to the declaration order of the
// types, then to the type name for types that were never declared. Paths
// with the same target type compare equal.
type PathTypeComparator struct {
	mu       sync.RWMutex
	declared map[tree.NodeType]int
	ranks    map[tree.NodeType]int
}

// NewPathTypeComparator returns a comparator that knows the given types in
// declaration order. No type has a rank yet.
func NewPathTypeComparator(declared ...tree.NodeType) *PathTypeComparator {
	c := &PathTypeComparator{
		declared: make(map[tree.NodeType]int, len(declared)),
		ranks:    make(map[tree.NodeType]int),
	}
	for i, t := range declared {
		if _, ok := c.declared[t]; !ok {
			c.declared[t] = i
		}
	}
	return c
}

// SetOrder declares the rank of the given type.
func (c *PathTypeComparator) SetOrder(t tree.NodeType, rank int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ranks[t] = rank
}

// ClearOrder removes the rank of the given type.
func (c *PathTypeComparator) ClearOrder(t tree.NodeType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ranks, t)
}

// Order returns the rank of the given type.
func (c *PathTypeComparator) Order(t tree.NodeType) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rank, ok := c.ranks[t]
	return rank, ok
}

// Compare is part of the Comparator interface.
func (c *PathTypeComparator) Compare(a, b path.Path) int {
	return c.CompareTypes(a.TargetType(), b.TargetType())
}

// CompareTypes compares two node types by the rules of the comparator.
func (c *PathTypeComparator) CompareTypes(a, b tree.NodeType) int {
	if a == b {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	rankA, rankedA := c.ranks[a]
	rankB, rankedB := c.ranks[b]
	switch {
	case rankedA && !rankedB:
		return -1
	case !rankedA && rankedB:
		return 1
	case rankedA && rankedB && rankA != rankB:
		return compareInts(rankA, rankB)
	}

	declA, knownA := c.declared[a]
	declB, knownB := c.declared[b]
	switch {
	case knownA && !knownB:
		return -1
	case !knownA && knownB:
		return 1
	case knownA && knownB:
		return compareInts(declA, declB)
	}
	return strings.Compare(string(a), string(b))
}
