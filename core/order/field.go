// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package order

import (
	"math"

	"github.com/juju/datatree/core/tree"
)

// CompareField compares two sibling values by an integer field such as an
// explicit "order" or "index". Values without the field, or holding a
// non-integer in it, sort after values with one. Tied values compare by
// key so that the result is stable across enumerations.
func CompareField(a, b *tree.Value, field string) int {
	orderA, okA := intField(a, field)
	orderB, okB := intField(b, field)
	switch {
	case okA && !okB:
		return -1
	case !okA && okB:
		return 1
	case okA && okB:
		if result := orderA.compare(orderB); result != 0 {
			return result
		}
	}
	switch {
	case a == nil || b == nil:
		return 0
	case a.Key < b.Key:
		return -1
	case a.Key > b.Key:
		return 1
	}
	return 0
}

// fieldOrder is an integer field value. Unsigned values above
// math.MaxInt64 are held in big, and are greater than every value held
// in small.
type fieldOrder struct {
	small int64
	big   uint64
	isBig bool
}

func (o fieldOrder) compare(other fieldOrder) int {
	switch {
	case o.isBig && other.isBig:
		return compareOrdered(o.big, other.big)
	case o.isBig:
		return 1
	case other.isBig:
		return -1
	}
	return compareOrdered(o.small, other.small)
}

func compareOrdered[T int64 | uint64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func fromUnsigned(n uint64) fieldOrder {
	if n > math.MaxInt64 {
		return fieldOrder{big: n, isBig: true}
	}
	return fieldOrder{small: int64(n)}
}

func intField(v *tree.Value, field string) (fieldOrder, bool) {
	if v == nil {
		return fieldOrder{}, false
	}
	scalar, ok := v.Field(field)
	if !ok {
		return fieldOrder{}, false
	}
	switch n := scalar.(type) {
	case int:
		return fieldOrder{small: int64(n)}, true
	case int8:
		return fieldOrder{small: int64(n)}, true
	case int16:
		return fieldOrder{small: int64(n)}, true
	case int32:
		return fieldOrder{small: int64(n)}, true
	case int64:
		return fieldOrder{small: n}, true
	case uint:
		return fromUnsigned(uint64(n)), true
	case uint8:
		return fromUnsigned(uint64(n)), true
	case uint16:
		return fromUnsigned(uint64(n)), true
	case uint32:
		return fromUnsigned(uint64(n)), true
	case uint64:
		return fromUnsigned(n), true
	}
	return fieldOrder{}, false
}
