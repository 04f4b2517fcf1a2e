// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package order provides the comparators used to present paths and
// ordered sibling values deterministically.
package order

import (
	"sort"
)

// Comparator is a total order over values of type T. Compare returns a
// negative number when a sorts before b, a positive number when a sorts
// after b, and zero when they are tied.
type Comparator[T any] interface {
	Compare(a, b T) int
}

// ComparatorFunc adapts a function to the Comparator interface.
type ComparatorFunc[T any] func(a, b T) int

// Compare is part of the Comparator interface.
func (f ComparatorFunc[T]) Compare(a, b T) int {
	return f(a, b)
}

type reversed[T any] struct {
	c Comparator[T]
}

func (r reversed[T]) Compare(a, b T) int {
	return r.c.Compare(b, a)
}

// Reverse returns the comparator with the inverse order of c.
func Reverse[T any](c Comparator[T]) Comparator[T] {
	if r, ok := c.(reversed[T]); ok {
		return r.c
	}
	return reversed[T]{c: c}
}

// Sort sorts items in place by c. Tied items keep their relative order.
func Sort[T any](items []T, c Comparator[T]) {
	sort.SliceStable(items, func(i, j int) bool {
		return c.Compare(items[i], items[j]) < 0
	})
}

// Sorted returns a sorted copy of items.
func Sorted[T any](items []T, c Comparator[T]) []T {
	result := make([]T, len(items))
	copy(result, items)
	Sort(result, c)
	return result
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
