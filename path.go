package sinkfield

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one element of a Path. The set of implementations is closed:
// Key, Index, Marker and Dynamic.
type Segment interface {
	segment()
}

// Key descends into a mapping (or struct field) by name.
type Key string

// Index descends into a sequence by position.
type Index int

// Marker is a sentinel segment with path-level meaning.
type Marker uint8

const (
	// Root makes a declared path absolute when it is the first segment: the
	// path is resolved against the record, discarding the ambient path.
	Root Marker = iota + 1
	// Each marks a sequence the extraction of a repeated field iterates over.
	Each
)

// Dynamic computes follow-on segments from the value addressed so far. The
// returned segments replace the dynamic segment in the path. Returning
// ErrNotFound reports that the target does not exist.
type Dynamic func(current any, consumed Path) (Path, error)

func (Key) segment()     {}
func (Index) segment()   {}
func (Marker) segment()  {}
func (Dynamic) segment() {}

func (m Marker) String() string {
	switch m {
	case Root:
		return "$"
	case Each:
		return "[]"
	default:
		return fmt.Sprintf("Marker(%d)", uint8(m))
	}
}

// Path is an ordered list of segments.
type Path []Segment

// Keys builds a path of literal keys.
func Keys(keys ...string) Path {
	p := make(Path, len(keys))
	for i, k := range keys {
		p[i] = Key(k)
	}
	return p
}

// Clone returns a copy that shares no backing array with p. nil stays nil.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	return append(Path{}, p...)
}

// Append returns a new path with segs appended; p is left untouched.
func (p Path) Append(segs ...Segment) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// IndexOf returns the position of the first occurrence of m, or -1.
func (p Path) IndexOf(m Marker) int {
	for i, s := range p {
		if v, ok := s.(Marker); ok && v == m {
			return i
		}
	}
	return -1
}

// Pointer renders the path as a JSON Pointer. Markers render as "$" and "*",
// dynamic segments as "<dynamic>".
func (p Path) Pointer() string {
	if len(p) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, s := range p {
		b.WriteByte('/')
		switch v := s.(type) {
		case Key:
			// escape '~' -> '~0', '/' -> '~1' per RFC6901
			b.WriteString(strings.ReplaceAll(strings.ReplaceAll(string(v), "~", "~0"), "/", "~1"))
		case Index:
			b.WriteString(strconv.Itoa(int(v)))
		case Marker:
			if v == Each {
				b.WriteByte('*')
			} else {
				b.WriteString(v.String())
			}
		case Dynamic:
			b.WriteString("<dynamic>")
		}
	}
	return b.String()
}

// String renders the path in the dotted notation accepted by ParsePath.
func (p Path) String() string {
	b := &strings.Builder{}
	for i, s := range p {
		switch v := s.(type) {
		case Key:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(string(v))
		case Index:
			fmt.Fprintf(b, "[%d]", int(v))
		case Marker:
			if v == Root {
				b.WriteString("$")
			} else {
				b.WriteString("[]")
			}
		case Dynamic:
			b.WriteString("[?]")
		}
	}
	return b.String()
}
