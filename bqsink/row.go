package bqsink

import (
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	sinkfield "github.com/reoring/sinkfield"
)

// Row is one extracted row ready for streaming insert.
type Row struct {
	Values   map[string]any
	InsertID string
}

var _ bigquery.ValueSaver = (*Row)(nil)

// Save implements bigquery.ValueSaver.
func (r *Row) Save() (map[string]bigquery.Value, string, error) {
	out := make(map[string]bigquery.Value, len(r.Values))
	for k, v := range r.Values {
		out[k] = uploadValue(v)
	}
	return out, r.InsertID, nil
}

// uploadValue renders civil values the way the BigQuery client does for its
// own structs; everything else is sent as extracted.
func uploadValue(v any) bigquery.Value {
	switch t := v.(type) {
	case civil.DateTime:
		return bigquery.CivilDateTimeString(t)
	case civil.Time:
		return bigquery.CivilTimeString(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case map[string]any:
		m := make(map[string]bigquery.Value, len(t))
		for k, vv := range t {
			m[k] = uploadValue(vv)
		}
		return m
	case []any:
		l := make([]bigquery.Value, len(t))
		for i := range t {
			l[i] = uploadValue(t[i])
		}
		return l
	}
	return v
}

// NewRow wraps extracted values with a fresh insert ID.
func NewRow(values map[string]any) *Row {
	return &Row{Values: values, InsertID: uuid.NewString()}
}

// Rows extracts one Row per record. The error names the failing record.
func Rows(schema sinkfield.Schema, records []any, opts ...sinkfield.ExtractOpt) ([]*Row, error) {
	out := make([]*Row, 0, len(records))
	for i, rec := range records {
		values, err := schema.Row(rec, opts...)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, NewRow(values))
	}
	return out, nil
}
