// Package schemafile loads extraction schemas from YAML or JSON documents.
//
// A document is either a list of fields or a mapping with a "fields" list:
//
//	fields:
//	  - name: hello
//	    type: INTEGER
//	    path: world
//	  - name: lines
//	    type: RECORD
//	    mode: REPEATED
//	    path: [order, lines, "[]"]
//	    fields:
//	      - name: sku
//	        type: STRING
//
// "path" takes the dotted notation of sinkfield.ParsePath or a list of tokens
// as accepted by sinkfield.PathOf. Omitting it reads the key named after the
// field.
package schemafile

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	sinkfield "github.com/reoring/sinkfield"
)

// FieldSpec is the document form of a sinkfield.Field.
type FieldSpec struct {
	Name        string      `yaml:"name" json:"name"`
	Type        string      `yaml:"type" json:"type"`
	Mode        string      `yaml:"mode,omitempty" json:"mode,omitempty"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Path        *PathSpec   `yaml:"path,omitempty" json:"path,omitempty"`
	Fields      []FieldSpec `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// PathSpec holds a declared path in either accepted form.
type PathSpec struct {
	Notation string
	Tokens   []string
}

// UnmarshalYAML implements yaml.Unmarshaler for PathSpec.
func (p *PathSpec) UnmarshalYAML(unmarshal func(any) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*p = PathSpec{Notation: single}
		return nil
	}

	var tokens []string
	if err := unmarshal(&tokens); err == nil {
		if tokens == nil {
			tokens = []string{}
		}
		*p = PathSpec{Tokens: tokens}
		return nil
	}

	return errors.New("expected path string or list of path tokens")
}

// MarshalYAML renders the token form when tokens are set.
func (p PathSpec) MarshalYAML() (any, error) {
	if p.Tokens != nil {
		return p.Tokens, nil
	}
	return p.Notation, nil
}

func (p *PathSpec) build() (sinkfield.Path, error) {
	if p.Tokens != nil {
		return sinkfield.PathOf(p.Tokens...)
	}
	return sinkfield.ParsePath(p.Notation)
}

// Document is the top-level schema document.
type Document struct {
	Fields []FieldSpec `yaml:"fields" json:"fields"`
}

// UnmarshalYAML accepts a bare list of fields as well as {fields: [...]}.
func (d *Document) UnmarshalYAML(unmarshal func(any) error) error {
	var list []FieldSpec
	if err := unmarshal(&list); err == nil {
		d.Fields = list
		return nil
	}

	type plain Document
	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}
	*d = Document(p)
	return nil
}

// LoadFile reads and builds the schema at path.
func LoadFile(path string) (sinkfield.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse builds a schema from YAML or JSON data.
func Parse(data []byte) (sinkfield.Schema, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}

	return Build(doc.Fields)
}

// Build converts specs into validated fields. Errors are Issues located at
// the offending entry of the document, for example /fields/1/fields/0.
func Build(specs []FieldSpec) (sinkfield.Schema, error) {
	if len(specs) == 0 {
		return nil, sinkfield.Issues{{Path: "/fields", Code: sinkfield.CodeInvalidSchema,
			Cause: fmt.Errorf("%w: schema has no fields", sinkfield.ErrInvalidSchema)}}
	}
	fields, err := buildAll(specs, "/fields")
	if err != nil {
		return nil, err
	}
	return sinkfield.NewSchema(fields...)
}

func buildAll(specs []FieldSpec, at string) ([]*sinkfield.Field, error) {
	out := make([]*sinkfield.Field, 0, len(specs))
	for i := range specs {
		f, err := buildField(&specs[i], at+"/"+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func buildField(s *FieldSpec, at string) (*sinkfield.Field, error) {
	fail := func(err error) error {
		if iss, ok := sinkfield.AsIssues(err); ok {
			out := make(sinkfield.Issues, len(iss))
			copy(out, iss)
			for i := range out {
				out[i].Path = at
			}
			return out
		}
		return sinkfield.Issues{{Path: at, Code: sinkfield.CodeInvalidSchema, Field: s.Name, Cause: err}}
	}

	typ, err := sinkfield.ParseFieldType(s.Type)
	if err != nil {
		return nil, fail(err)
	}
	mode, err := sinkfield.ParseFieldMode(s.Mode)
	if err != nil {
		return nil, fail(err)
	}
	opts := []sinkfield.FieldOption{sinkfield.Mode(mode)}
	if s.Description != "" {
		opts = append(opts, sinkfield.Description(s.Description))
	}
	if s.Path != nil {
		p, err := s.Path.build()
		if err != nil {
			return nil, fail(err)
		}
		opts = append(opts, sinkfield.SourcePath(p))
	}
	if len(s.Fields) > 0 {
		children, err := buildAll(s.Fields, at+"/fields")
		if err != nil {
			return nil, err
		}
		opts = append(opts, sinkfield.Fields(children...))
	}
	f, err := sinkfield.NewField(s.Name, typ, opts...)
	if err != nil {
		return nil, fail(err)
	}
	return f, nil
}

// Spec converts fields back to their document form. Dynamic path segments
// have no document form and are rejected.
func Spec(fields []*sinkfield.Field) ([]FieldSpec, error) {
	out := make([]FieldSpec, 0, len(fields))
	for _, f := range fields {
		s := FieldSpec{
			Name:        f.Name(),
			Type:        f.Type().String(),
			Description: f.Description(),
		}
		if f.Mode() != sinkfield.ModeNullable {
			s.Mode = f.Mode().String()
		}
		if p, ok := f.Path(); ok {
			tokens, err := pathTokens(p)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name(), err)
			}
			s.Path = &PathSpec{Tokens: tokens}
		}
		if kids := f.Fields(); len(kids) > 0 {
			children, err := Spec(kids)
			if err != nil {
				return nil, err
			}
			s.Fields = children
		}
		out = append(out, s)
	}
	return out, nil
}

// Marshal serializes fields to a YAML schema document.
func Marshal(fields []*sinkfield.Field) ([]byte, error) {
	specs, err := Spec(fields)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(Document{Fields: specs})
}

func pathTokens(p sinkfield.Path) ([]string, error) {
	tokens := make([]string, 0, len(p))
	for _, seg := range p {
		switch v := seg.(type) {
		case sinkfield.Key:
			tokens = append(tokens, string(v))
		case sinkfield.Index:
			tokens = append(tokens, "["+strconv.Itoa(int(v))+"]")
		case sinkfield.Marker:
			tokens = append(tokens, v.String())
		default:
			return nil, fmt.Errorf("%w: %T segment cannot be written to a schema file", sinkfield.ErrInvalidSchema, seg)
		}
	}
	return tokens, nil
}
