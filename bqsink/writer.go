package bqsink

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	sinkfield "github.com/reoring/sinkfield"
	"github.com/reoring/sinkfield/internal/logger"
)

// putter is the part of *bigquery.Inserter the writer needs.
type putter interface {
	Put(ctx context.Context, src any) error
}

// Writer streams extracted rows into one table.
type Writer struct {
	schema sinkfield.Schema
	ins    putter
	opts   []sinkfield.ExtractOpt
}

// NewWriter returns a writer for table in the configured dataset.
func NewWriter(client *bigquery.Client, cfg AccessConfig, table string, schema sinkfield.Schema, opts ...sinkfield.ExtractOpt) *Writer {
	ins := client.DatasetInProject(cfg.tableProject(), cfg.DatasetID).Table(table).Inserter()
	return &Writer{schema: schema, ins: ins, opts: opts}
}

// WriteRows inserts already extracted rows.
func (w *Writer) WriteRows(ctx context.Context, rows []*Row) error {
	if len(rows) == 0 {
		return nil
	}
	if err := w.ins.Put(ctx, rows); err != nil {
		return fmt.Errorf("insert %d rows: %w", len(rows), err)
	}
	logger.Debug("inserted %d rows", len(rows))
	return nil
}

// Write extracts records and inserts them.
func (w *Writer) Write(ctx context.Context, records []any) error {
	rows, err := Rows(w.schema, records, w.opts...)
	if err != nil {
		return err
	}
	return w.WriteRows(ctx, rows)
}
