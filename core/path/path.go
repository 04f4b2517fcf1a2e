// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package path describes structural paths into the data tree. A path is an
// ordered list of segments, each naming a node type and, for the members of
// a keyed collection, the member key.
package path

import (
	"strings"

	"github.com/juju/errors"

	"github.com/juju/datatree/core/tree"
)

// Segment is one step of a structural path.
type Segment struct {
	// Type is the node type the segment steps into.
	Type tree.NodeType

	// Key identifies a member of a keyed collection. It is empty for
	// container nodes.
	Key string

	// Wildcard is set when the segment addresses a whole keyed collection
	// rather than one of its members.
	Wildcard bool
}

// Item returns the segment of a container node.
func Item(t tree.NodeType) Segment {
	return Segment{Type: t}
}

// Entry returns the segment of the keyed member with the given key.
func Entry(t tree.NodeType, key string) Segment {
	return Segment{Type: t, Key: key}
}

// Any returns a wildcard segment matching every member of type t.
func Any(t tree.NodeType) Segment {
	return Segment{Type: t, Wildcard: true}
}

// SegmentOf returns the segment addressing v within its parent.
func SegmentOf(v *tree.Value) Segment {
	return Segment{Type: v.Type, Key: v.Key}
}

// Matches reports whether the concrete segment other is addressed by s.
func (s Segment) Matches(other Segment) bool {
	if s.Type != other.Type || other.Wildcard {
		return false
	}
	return s.Wildcard || s.Key == other.Key
}

// String implements fmt.Stringer.
func (s Segment) String() string {
	switch {
	case s.Wildcard:
		return string(s.Type) + "[*]"
	case s.Key != "":
		return string(s.Type) + "[" + s.Key + "]"
	}
	return string(s.Type)
}

// Path is an immutable structural path. The zero value is the empty path,
// which addresses the top of the data tree.
type Path struct {
	segments []Segment
}

// New returns a path made of the given segments.
func New(segments ...Segment) Path {
	return Path{}.Append(segments...)
}

// Append returns a new path extending p by the given segments. The
// receiver is never modified.
func (p Path) Append(segments ...Segment) Path {
	if len(segments) == 0 {
		return p
	}
	result := make([]Segment, len(p.segments)+len(segments))
	copy(result, p.segments)
	copy(result[len(p.segments):], segments)
	return Path{segments: result}
}

// Parent returns the path without its last segment. The parent of the
// empty path is the empty path.
func (p Path) Parent() Path {
	if len(p.segments) == 0 {
		return p
	}
	return Path{segments: p.segments[:len(p.segments)-1:len(p.segments)-1]}
}

// Last returns the last segment of the path.
func (p Path) Last() (Segment, bool) {
	if len(p.segments) == 0 {
		return Segment{}, false
	}
	return p.segments[len(p.segments)-1], true
}

// TargetType returns the node type addressed by the path, or the empty
// type for the empty path.
func (p Path) TargetType() tree.NodeType {
	last, _ := p.Last()
	return last.Type
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segments)
}

// IsEmpty reports whether the path has no segments.
func (p Path) IsEmpty() bool {
	return len(p.segments) == 0
}

// Segment returns the i'th segment.
func (p Path) Segment(i int) Segment {
	return p.segments[i]
}

// Segments returns a copy of the segments of the path.
func (p Path) Segments() []Segment {
	result := make([]Segment, len(p.segments))
	copy(result, p.segments)
	return result
}

// Equal reports whether both paths have equal segments.
func (p Path) Equal(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i, segment := range p.segments {
		if segment != other.segments[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is equal to the leading segments of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	return Path{segments: p.segments[:len(prefix.segments)]}.Equal(prefix)
}

// IsWildcard reports whether any segment of the path is a wildcard, in
// which case the path does not resolve to a single node.
func (p Path) IsWildcard() bool {
	for _, segment := range p.segments {
		if segment.Wildcard {
			return true
		}
	}
	return false
}

// Matches reports whether the concrete path other is addressed by p,
// segment by segment.
func (p Path) Matches(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i, segment := range p.segments {
		if !segment.Matches(other.segments[i]) {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (p Path) String() string {
	if len(p.segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, segment := range p.segments {
		b.WriteByte('/')
		b.WriteString(segment.String())
	}
	return b.String()
}

// Parse parses the string form of a path, as returned by String.
func Parse(s string) (Path, error) {
	if !strings.HasPrefix(s, "/") {
		return Path{}, errors.NotValidf("path %q without leading slash", s)
	}
	if s == "/" {
		return Path{}, nil
	}
	var segments []Segment
	for _, part := range strings.Split(s[1:], "/") {
		segment, err := parseSegment(part)
		if err != nil {
			return Path{}, errors.Annotatef(err, "parsing path %q", s)
		}
		segments = append(segments, segment)
	}
	return Path{segments: segments}, nil
}

func parseSegment(s string) (Segment, error) {
	open := strings.IndexByte(s, '[')
	if open < 0 {
		if s == "" || strings.ContainsAny(s, "]*") {
			return Segment{}, errors.NotValidf("segment %q", s)
		}
		return Item(tree.NodeType(s)), nil
	}
	if open == 0 || !strings.HasSuffix(s, "]") {
		return Segment{}, errors.NotValidf("segment %q", s)
	}
	nodeType, key := tree.NodeType(s[:open]), s[open+1:len(s)-1]
	switch {
	case key == "*":
		return Any(nodeType), nil
	case key == "" || strings.ContainsAny(key, "[]"):
		return Segment{}, errors.NotValidf("key in segment %q", s)
	}
	return Entry(nodeType, key), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}
