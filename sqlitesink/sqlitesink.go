// Package sqlitesink writes extracted rows into a local SQLite database, for
// trying schemas out without a warehouse.
//
// Each schema field becomes one column. Scalars keep a native SQLite
// affinity; STRUCT and REPEATED columns are stored as JSON text.
package sqlitesink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	sinkfield "github.com/reoring/sinkfield"
	"github.com/reoring/sinkfield/internal/logger"
)

// SyncMode determines how rows are written to a table.
type SyncMode string

const (
	SyncReplace SyncMode = "replace" // drop the table, recreate it from the schema
	SyncAppend  SyncMode = "append"  // keep existing rows, add missing columns
)

// ParseSyncMode accepts "replace" and "append"; "" means append.
func ParseSyncMode(s string) (SyncMode, error) {
	switch SyncMode(s) {
	case "", SyncAppend:
		return SyncAppend, nil
	case SyncReplace:
		return SyncReplace, nil
	}
	return "", fmt.Errorf("unknown sync mode %q", s)
}

// RowIDColumn is the primary key column added to every table.
const RowIDColumn = "_row_id"

// Sink wraps a SQLite connection.
type Sink struct {
	conn *sql.DB
}

// Open opens (or creates) the database file at path.
func Open(path string) (*Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite has a single writer
	conn.SetMaxOpenConns(1)
	return &Sink{conn: conn}, nil
}

// Close closes the database connection.
func (s *Sink) Close() error {
	return s.conn.Close()
}

// Conn returns the underlying database connection.
func (s *Sink) Conn() *sql.DB {
	return s.conn
}

// Write stores rows in table and returns how many were written. rows are
// values produced by schema (see sinkfield.Schema.Row); keys outside the
// schema are ignored.
func (s *Sink) Write(ctx context.Context, table string, schema sinkfield.Schema, rows []map[string]any, mode SyncMode) (int, error) {
	if table == "" {
		return 0, fmt.Errorf("sqlitesink: empty table name")
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if mode == SyncReplace {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(table)); err != nil {
			return 0, fmt.Errorf("clear target: %w", err)
		}
	}
	if err := ensureTable(ctx, tx, table, schema); err != nil {
		return 0, fmt.Errorf("ensure table: %w", err)
	}

	cols := make([]string, 0, len(schema)+1)
	marks := make([]string, 0, len(schema)+1)
	cols = append(cols, quote(RowIDColumn))
	marks = append(marks, "?")
	for _, f := range schema {
		cols = append(cols, quote(f.Name()))
		marks = append(marks, "?")
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(table), strings.Join(cols, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for i, row := range rows {
		args := make([]any, 0, len(schema)+1)
		args = append(args, uuid.NewString())
		for _, f := range schema {
			v, err := columnValue(f, row[f.Name()])
			if err != nil {
				return 0, fmt.Errorf("row %d column %q: %w", i, f.Name(), err)
			}
			args = append(args, v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	logger.Debug("sqlite: wrote %d rows to %s (%s)", written, table, mode)
	return written, nil
}

// ensureTable creates table or adds the columns it lacks.
func ensureTable(ctx context.Context, tx *sql.Tx, table string, schema sinkfield.Schema) error {
	defs := make([]string, 0, len(schema)+1)
	defs = append(defs, quote(RowIDColumn)+" TEXT PRIMARY KEY")
	for _, f := range schema {
		defs = append(defs, quote(f.Name())+" "+Affinity(f))
	}
	q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(table), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, q); err != nil {
		return err
	}

	existing, err := columns(ctx, tx, table)
	if err != nil {
		return err
	}
	for _, f := range schema {
		if existing[f.Name()] {
			continue
		}
		q := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quote(table), quote(f.Name()), Affinity(f))
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("add column %q: %w", f.Name(), err)
		}
	}
	return nil
}

func columns(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = true
	}
	return out, rows.Err()
}

// Affinity is the SQLite column type used for f.
func Affinity(f *sinkfield.Field) string {
	if f.Mode() == sinkfield.ModeRepeated {
		return "TEXT"
	}
	switch f.Type() {
	case sinkfield.TypeInteger, sinkfield.TypeBoolean:
		return "INTEGER"
	case sinkfield.TypeFloat:
		return "REAL"
	case sinkfield.TypeBytes:
		return "BLOB"
	default:
		return "TEXT"
	}
}

// columnValue converts an extracted value to a driver argument.
func columnValue(f *sinkfield.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if f.Mode() == sinkfield.ModeRepeated || f.Type() == sinkfield.TypeStruct {
		b, err := gojson.Marshal(jsonable(v))
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	switch t := v.(type) {
	case bool:
		if t {
			return int64(1), nil
		}
		return int64(0), nil
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), nil
	case civil.Date, civil.DateTime, civil.Time:
		return fmt.Sprint(t), nil
	case string, []byte, int64, float64:
		return t, nil
	}
	// SkipEnsureType leaves arbitrary leaves behind
	b, err := gojson.Marshal(jsonable(v))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// jsonable renders time values inside nested structures as text.
func jsonable(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = jsonable(vv)
		}
		return m
	case []any:
		l := make([]any, len(t))
		for i := range t {
			l[i] = jsonable(t[i])
		}
		return l
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case civil.Date, civil.DateTime, civil.Time:
		return fmt.Sprint(t)
	}
	return v
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
