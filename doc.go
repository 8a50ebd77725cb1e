// Package sinkfield extracts typed rows from loosely structured records.
//
// A schema is a tree of Field values. Each field names a column, declares its
// type and cardinality, and says where its value lives in the source record
// through a Path of segments:
//
//   - Key and Index descend into mappings and sequences;
//   - Root, as the first segment, anchors the path at the record itself;
//   - Each marks a sequence that a REPEATED field iterates over;
//   - Dynamic computes follow-on segments from the data (see Where and Last).
//
// Extraction is pure: Field.Extract and Schema.Row read the record, resolve
// paths, unroll repeated fields and coerce leaves with EnsureType. Failures
// surface as Issues carrying a JSON Pointer, a code and the field name, and
// an ErrorDecision chooses per boundary whether they propagate or collapse to
// nil.
//
// Typical usage:
//
//	schema := sinkfield.Schema{
//		sinkfield.Integer("hello", sinkfield.At("world")),
//		sinkfield.Integer("levels", sinkfield.Repeated(), sinkfield.At("outter[].level1[]")),
//	}
//	row, err := schema.Row(record)
//
// Loading rows into a store lives in the bqsink and sqlitesink packages;
// record readers are in source and declarative schema files in schemafile.
package sinkfield
