// Package bqsink connects extraction schemas to BigQuery: it converts fields
// into table schemas, turns extracted rows into insertable values, and holds
// the access configuration for creating clients, tables and views.
package bqsink

import (
	"fmt"

	"cloud.google.com/go/bigquery"

	sinkfield "github.com/reoring/sinkfield"
)

var toBQType = map[sinkfield.FieldType]bigquery.FieldType{
	sinkfield.TypeString:    bigquery.StringFieldType,
	sinkfield.TypeBytes:     bigquery.BytesFieldType,
	sinkfield.TypeBoolean:   bigquery.BooleanFieldType,
	sinkfield.TypeInteger:   bigquery.IntegerFieldType,
	sinkfield.TypeFloat:     bigquery.FloatFieldType,
	sinkfield.TypeNumeric:   bigquery.NumericFieldType,
	sinkfield.TypeTimestamp: bigquery.TimestampFieldType,
	sinkfield.TypeDate:      bigquery.DateFieldType,
	sinkfield.TypeDateTime:  bigquery.DateTimeFieldType,
	sinkfield.TypeTime:      bigquery.TimeFieldType,
	sinkfield.TypeStruct:    bigquery.RecordFieldType,
}

// ToFieldSchema converts a field, children included, to its BigQuery form.
func ToFieldSchema(f *sinkfield.Field) *bigquery.FieldSchema {
	fs := &bigquery.FieldSchema{
		Name:        f.Name(),
		Description: f.Description(),
		Type:        toBQType[f.Type()],
		Required:    f.Mode() == sinkfield.ModeRequired,
		Repeated:    f.Mode() == sinkfield.ModeRepeated,
	}
	for _, c := range f.Fields() {
		fs.Schema = append(fs.Schema, ToFieldSchema(c))
	}
	return fs
}

// ToSchema converts top-level fields to a table schema.
func ToSchema(fields []*sinkfield.Field) bigquery.Schema {
	out := make(bigquery.Schema, 0, len(fields))
	for _, f := range fields {
		out = append(out, ToFieldSchema(f))
	}
	return out
}

// FromSchema builds fields mirroring an existing table schema. Every field
// reads the key named after it.
func FromSchema(s bigquery.Schema) ([]*sinkfield.Field, error) {
	out := make([]*sinkfield.Field, 0, len(s))
	for _, fs := range s {
		f, err := fromFieldSchema(fs)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func fromFieldSchema(fs *bigquery.FieldSchema) (*sinkfield.Field, error) {
	typ, err := sinkfield.ParseFieldType(string(fs.Type))
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", fs.Name, err)
	}
	mode := sinkfield.ModeNullable
	switch {
	case fs.Repeated:
		mode = sinkfield.ModeRepeated
	case fs.Required:
		mode = sinkfield.ModeRequired
	}
	opts := []sinkfield.FieldOption{sinkfield.Mode(mode), sinkfield.Description(fs.Description)}
	if len(fs.Schema) > 0 {
		children, err := FromSchema(fs.Schema)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", fs.Name, err)
		}
		opts = append(opts, sinkfield.Fields(children...))
	}
	return sinkfield.NewField(fs.Name, typ, opts...)
}
