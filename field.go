package sinkfield

import (
	"fmt"
)

// Field is one node of an extraction schema. Fields are immutable once built;
// use With to derive a modified copy.
type Field struct {
	name        string
	typ         FieldType
	mode        FieldMode
	description string
	path        Path
	hasPath     bool
	fn          SourceFunc
	children    []*Field
	onError     ErrorDecision
}

// FieldOption configures a Field during NewField or With.
type FieldOption func(*Field) error

// Mode sets the cardinality.
func Mode(m FieldMode) FieldOption {
	return func(f *Field) error {
		if m < ModeNullable || m > ModeRepeated {
			return fmt.Errorf("%w: unknown mode %d", ErrInvalidSchema, int(m))
		}
		f.mode = m
		return nil
	}
}

// Repeated is shorthand for Mode(ModeRepeated).
func Repeated() FieldOption { return Mode(ModeRepeated) }

// Required is shorthand for Mode(ModeRequired).
func Required() FieldOption { return Mode(ModeRequired) }

// Description sets the human-readable description.
func Description(s string) FieldOption {
	return func(f *Field) error {
		f.description = s
		return nil
	}
}

// SourcePath declares where the value lives, relative to the ambient path
// unless it starts with Root. An empty path addresses the ambient value
// itself.
func SourcePath(p Path) FieldOption {
	return func(f *Field) error {
		if p == nil {
			p = Path{}
		}
		f.path = p.Clone()
		f.hasPath = true
		return nil
	}
}

// At is SourcePath with the dotted notation of ParsePath.
func At(notation string) FieldOption {
	return func(f *Field) error {
		p, err := ParsePath(notation)
		if err != nil {
			return err
		}
		return SourcePath(p)(f)
	}
}

// NoSourcePath clears a declared path so the field name is used again.
func NoSourcePath() FieldOption {
	return func(f *Field) error {
		f.path = nil
		f.hasPath = false
		return nil
	}
}

// SourceFn computes the value with fn. It takes precedence over the path and
// its result is neither unrolled nor coerced. nil removes a function.
func SourceFn(fn SourceFunc) FieldOption {
	return func(f *Field) error {
		f.fn = fn
		return nil
	}
}

// Fields sets the ordered children of a STRUCT field.
func Fields(children ...*Field) FieldOption {
	return func(f *Field) error {
		f.children = append([]*Field(nil), children...)
		return nil
	}
}

// OnError overrides the call-wide error decision for this field.
func OnError(fn ErrorDecision) FieldOption {
	return func(f *Field) error {
		f.onError = fn
		return nil
	}
}

// NewField builds a validated field.
func NewField(name string, t FieldType, opts ...FieldOption) (*Field, error) {
	f := &Field{name: name, typ: t}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(f); err != nil {
			return nil, wrapIssue(name, nil, err)
		}
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// MustField is like NewField but panics on error.
func MustField(name string, t FieldType, opts ...FieldOption) *Field {
	f, err := NewField(name, t, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// With returns a copy of f with opts applied on top of its current settings.
// The copy is validated like a new field; f is left untouched.
func (f *Field) With(opts ...FieldOption) (*Field, error) {
	cp := f.clone()
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(cp); err != nil {
			return nil, wrapIssue(cp.name, nil, err)
		}
	}
	if err := cp.validate(); err != nil {
		return nil, err
	}
	return cp, nil
}

func (f *Field) clone() *Field {
	cp := *f
	cp.path = f.path.Clone()
	cp.children = append([]*Field(nil), f.children...)
	return &cp
}

// derive is the unchecked copy used while unrolling: the parent was already
// validated and the new path is a suffix of its own.
func (f *Field) derive(p Path, mode FieldMode) *Field {
	cp := *f
	cp.path = p
	cp.hasPath = true
	cp.mode = mode
	return &cp
}

func (f *Field) validate() error {
	fail := func(format string, args ...any) error {
		return wrapIssue(f.name, nil, fmt.Errorf("%w: field %q: "+format,
			append([]any{ErrInvalidSchema, f.name}, args...)...))
	}
	if f.name == "" {
		return fail("name must not be empty")
	}
	if f.typ < TypeString || f.typ > TypeStruct {
		return fail("unknown type %d", int(f.typ))
	}
	if f.typ == TypeStruct && len(f.children) == 0 {
		return fail("STRUCT needs at least one child field")
	}
	if f.typ != TypeStruct && len(f.children) > 0 {
		return fail("%s cannot have child fields", f.typ)
	}
	seen := make(map[string]struct{}, len(f.children))
	for i, c := range f.children {
		if c == nil {
			return fail("child %d is nil", i)
		}
		if _, dup := seen[c.name]; dup {
			return fail("duplicate child %q", c.name)
		}
		seen[c.name] = struct{}{}
	}
	for i, s := range f.path {
		if s == nil {
			return fail("path segment %d is nil", i)
		}
		if m, ok := s.(Marker); ok && m == Root && i != 0 {
			return fail("$ may only start a path (found at %d)", i)
		}
		if d, ok := s.(Dynamic); ok && d == nil {
			return fail("path segment %d is a nil dynamic segment", i)
		}
	}
	return nil
}

// Name returns the field (column) name.
func (f *Field) Name() string { return f.name }

// Type returns the declared type.
func (f *Field) Type() FieldType { return f.typ }

// Mode returns the cardinality.
func (f *Field) Mode() FieldMode { return f.mode }

// Description returns the description, possibly empty.
func (f *Field) Description() string { return f.description }

// Path returns a copy of the declared path and whether one was declared.
func (f *Field) Path() (Path, bool) { return f.path.Clone(), f.hasPath }

// HasSourceFn reports whether an extraction function is set.
func (f *Field) HasSourceFn() bool { return f.fn != nil }

// Fields returns a copy of the child list.
func (f *Field) Fields() []*Field { return append([]*Field(nil), f.children...) }

// Child returns the child named name.
func (f *Field) Child(name string) (*Field, bool) {
	for _, c := range f.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Typed constructors. They panic on invalid input like MustField.

func String(name string, opts ...FieldOption) *Field {
	return MustField(name, TypeString, opts...)
}

func Bytes(name string, opts ...FieldOption) *Field {
	return MustField(name, TypeBytes, opts...)
}

func Boolean(name string, opts ...FieldOption) *Field {
	return MustField(name, TypeBoolean, opts...)
}

func Integer(name string, opts ...FieldOption) *Field {
	return MustField(name, TypeInteger, opts...)
}

func Float(name string, opts ...FieldOption) *Field {
	return MustField(name, TypeFloat, opts...)
}

func Numeric(name string, opts ...FieldOption) *Field {
	return MustField(name, TypeNumeric, opts...)
}

func Timestamp(name string, opts ...FieldOption) *Field {
	return MustField(name, TypeTimestamp, opts...)
}

func Date(name string, opts ...FieldOption) *Field {
	return MustField(name, TypeDate, opts...)
}

func DateTime(name string, opts ...FieldOption) *Field {
	return MustField(name, TypeDateTime, opts...)
}

func Time(name string, opts ...FieldOption) *Field {
	return MustField(name, TypeTime, opts...)
}

// StructOf builds a STRUCT field; children come before the other options.
func StructOf(name string, children []*Field, opts ...FieldOption) *Field {
	return MustField(name, TypeStruct, append([]FieldOption{Fields(children...)}, opts...)...)
}
