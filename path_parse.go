package sinkfield

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePath parses the dotted path notation:
//
//	"world"                 -> Key("world")
//	"$.foo"                 -> Root, Key("foo")
//	"outter[].level1[]"     -> Key("outter"), Each, Key("level1"), Each
//	"items[2].sku"          -> Key("items"), Index(2), Key("sku")
//	"items[id=7].price"     -> Key("items"), Where("id", "7"), Key("price")
//
// Keys containing '.' or '[' cannot be written in this notation; use PathOf.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}
	var out Path
	for i, part := range strings.Split(s, ".") {
		if part == "" {
			return nil, fmt.Errorf("%w: invalid path %q: empty segment", ErrInvalidSchema, s)
		}
		if part == "$" {
			if i != 0 {
				return nil, fmt.Errorf("%w: invalid path %q: $ must come first", ErrInvalidSchema, s)
			}
			out = append(out, Root)
			continue
		}
		segs, err := parsePart(part)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid path %q: %v", ErrInvalidSchema, s, err)
		}
		out = append(out, segs...)
	}
	return out, nil
}

// MustParsePath is like ParsePath but panics on error.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// PathOf builds a path from individual tokens. "$" is Root, "[]" is Each,
// "[n]" is an index and "[k=v]" is a Where lookup; every other token is a
// literal key, dots included.
func PathOf(tokens ...string) (Path, error) {
	out := make(Path, 0, len(tokens))
	for i, tok := range tokens {
		switch {
		case tok == "$":
			if i != 0 {
				return nil, fmt.Errorf("%w: $ must be the first path token", ErrInvalidSchema)
			}
			out = append(out, Root)
		case strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]"):
			seg, err := parseBracket(tok[1 : len(tok)-1])
			if err != nil {
				return nil, fmt.Errorf("%w: path token %q: %v", ErrInvalidSchema, tok, err)
			}
			out = append(out, seg)
		default:
			out = append(out, Key(tok))
		}
	}
	return out, nil
}

// parsePart handles "name", "name[]", "name[3][]" and bare "[]".
func parsePart(part string) (Path, error) {
	open := strings.IndexByte(part, '[')
	if open < 0 {
		return Path{Key(part)}, nil
	}
	var out Path
	if name := part[:open]; name != "" {
		out = append(out, Key(name))
	}
	rest := part[open:]
	for rest != "" {
		if rest[0] != '[' {
			return nil, fmt.Errorf("unexpected %q after ']'", rest)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, fmt.Errorf("unterminated '[' in %q", part)
		}
		seg, err := parseBracket(rest[1:end])
		if err != nil {
			return nil, err
		}
		out = append(out, seg)
		rest = rest[end+1:]
	}
	return out, nil
}

func parseBracket(inner string) (Segment, error) {
	if inner == "" {
		return Each, nil
	}
	if k, v, ok := strings.Cut(inner, "="); ok {
		if k == "" {
			return nil, fmt.Errorf("lookup %q without key", inner)
		}
		return Where(k, v), nil
	}
	n, err := strconv.Atoi(inner)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("bad index %q", inner)
	}
	return Index(n), nil
}
