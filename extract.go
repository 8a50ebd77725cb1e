package sinkfield

import (
	"errors"
	"fmt"

	"github.com/reoring/sinkfield/internal/logger"
)

// Extract pulls the value f describes out of record.
//
// A field without a declared path reads the key named after it. REPEATED
// fields return []any (empty, never nil, when the source sequence is missing),
// STRUCT fields return map[string]any keyed by child name, and leaf values
// are passed through EnsureType unless SkipEnsureType is set.
//
// Every failure surfaces as Issues. Whether it propagates is decided at each
// field boundary by the field's OnError decision, or else by
// ExtractOpt.ShouldFire; a swallowed failure yields nil for that field.
func (f *Field) Extract(record any, opts ...ExtractOpt) (any, error) {
	x := &extractor{record: record, opt: lastExtractOpt(opts)}
	return x.field(f, Path{}, 0)
}

// Schema is an ordered list of top-level fields, one per output column.
type Schema []*Field

// NewSchema checks that fields are non-nil and uniquely named.
func NewSchema(fields ...*Field) (Schema, error) {
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if f == nil {
			return nil, IssueAt(Path{Index(i)}, CodeInvalidSchema,
				fmt.Errorf("%w: field %d is nil", ErrInvalidSchema, i))
		}
		if _, dup := seen[f.name]; dup {
			return nil, IssueAt(Path{Key(f.name)}, CodeInvalidSchema,
				fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, f.name))
		}
		seen[f.name] = struct{}{}
	}
	return append(Schema(nil), fields...), nil
}

// Row extracts one output row from record.
func (s Schema) Row(record any, opts ...ExtractOpt) (map[string]any, error) {
	x := &extractor{record: record, opt: lastExtractOpt(opts)}
	row := make(map[string]any, len(s))
	for _, f := range s {
		v, err := x.field(f, Path{}, 0)
		if err != nil {
			return nil, err
		}
		row[f.name] = v
	}
	return row, nil
}

// ExtractRow is Schema(fields).Row(record, opts...).
func ExtractRow(fields []*Field, record any, opts ...ExtractOpt) (map[string]any, error) {
	return Schema(fields).Row(record, opts...)
}

type extractor struct {
	record any
	opt    ExtractOpt
}

// field is the error boundary around a single field.
func (x *extractor) field(f *Field, ambient Path, depth int) (any, error) {
	eff := effectivePath(f, ambient)
	var (
		v   any
		err error
	)
	if depth > x.opt.maxDepth() {
		err = IssueAt(eff, CodeMaxDepth,
			fmt.Errorf("%w: field nesting deeper than %d", ErrMaxDepth, x.opt.maxDepth()))
	} else {
		v, err = x.extract(f, ambient, eff, depth)
	}
	if err == nil {
		return v, nil
	}
	err = wrapIssue(f.name, eff, err)
	decide := f.onError
	if decide == nil {
		decide = x.opt.ShouldFire
	}
	if decide == nil || decide(x.record, ambient.Clone(), err) {
		return nil, err
	}
	logger.Debug("field %q at %s: swallowed %v", f.name, eff.Pointer(), err)
	return nil, nil
}

func (x *extractor) extract(f *Field, ambient, eff Path, depth int) (any, error) {
	if f.fn != nil {
		v, err := f.fn(x.record, ambient.Clone())
		if err != nil {
			if _, ok := AsIssues(err); ok {
				return nil, err
			}
			return nil, IssueAt(eff, CodeSourceFn, err)
		}
		return v, nil
	}

	if f.mode == ModeRepeated {
		if at := eff.IndexOf(Each); at >= 0 {
			return x.unroll(f, eff[:at], eff[at+1:], depth)
		}
		return x.repeated(f, eff, depth)
	}

	if f.typ == TypeStruct {
		return x.children(f, eff, depth)
	}

	v, found, err := Resolve(x.record, eff, x.opt.resolveOpt())
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	if x.opt.SkipEnsureType {
		return v, nil
	}
	return EnsureType(v, f.typ, x.opt)
}

// unroll iterates the sequence at prefix. Each element is extracted by a copy
// of f whose path is the remainder after the marker, resolved relative to
// prefix+[i]. A remainder with further markers is unrolled again and its
// results flattened; otherwise each element contributes one value.
func (x *extractor) unroll(f *Field, prefix, suffix Path, depth int) (any, error) {
	seq, err := x.sequenceAt(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(seq))
	nested := suffix.IndexOf(Each) >= 0
	for i := range seq {
		at := prefix.Append(Index(i))
		if nested {
			v, err := x.field(f.derive(suffix.Clone(), ModeRepeated), at, depth+1)
			if err != nil {
				return nil, err
			}
			if items, ok := v.([]any); ok {
				out = append(out, items...)
			}
			continue
		}
		v, err := x.field(f.derive(suffix.Clone(), ModeNullable), at, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// repeated handles a REPEATED field whose path names the sequence directly.
func (x *extractor) repeated(f *Field, eff Path, depth int) (any, error) {
	seq, err := x.sequenceAt(eff)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(seq))
	for i, el := range seq {
		at := eff.Append(Index(i))
		if f.typ == TypeStruct {
			m, err := x.children(f, at, depth)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
			continue
		}
		if x.opt.SkipEnsureType {
			out = append(out, el)
			continue
		}
		v, err := EnsureType(el, f.typ, x.opt)
		if err != nil {
			return nil, wrapIssue(f.name, at, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (x *extractor) children(f *Field, ambient Path, depth int) (map[string]any, error) {
	m := make(map[string]any, len(f.children))
	for _, c := range f.children {
		v, err := x.field(c, ambient, depth+1)
		if err != nil {
			return nil, err
		}
		m[c.name] = v
	}
	return m, nil
}

// sequenceAt resolves p and returns its elements. Anything that is not a
// sequence reads as empty: a missing value, a scalar, or a path that runs
// through a scalar on the way.
func (x *extractor) sequenceAt(p Path) ([]any, error) {
	v, found, err := Resolve(x.record, p, x.opt.resolveOpt())
	if errors.Is(err, ErrPathShape) {
		logger.Debug("sequence at %s: %v", p.Pointer(), err)
		return nil, nil
	}
	if err != nil || !found {
		return nil, err
	}
	seq, _ := asSequence(v)
	return seq, nil
}

func effectivePath(f *Field, ambient Path) Path {
	if !f.hasPath {
		return ambient.Append(Key(f.name))
	}
	if len(f.path) > 0 {
		if m, ok := f.path[0].(Marker); ok && m == Root {
			return f.path[1:].Clone()
		}
	}
	return ambient.Append(f.path...)
}
