package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	sinkfield "github.com/reoring/sinkfield"
	"github.com/reoring/sinkfield/internal/logger"
	"github.com/reoring/sinkfield/schemafile"
	"github.com/reoring/sinkfield/source"
	"github.com/reoring/sinkfield/sqlitesink"
)

var (
	extractSchema     string
	extractInput      string
	extractFormat     string
	extractNoEnsure   bool
	extractLenient    bool
	extractStrictKeys bool
	extractMaxDepth   int
	extractSQLite     string
	extractTable      string
	extractMode       string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract rows from records",
	Long: `Reads records from --input (stdin by default) and extracts one row per
record with the fields of --schema. Rows are printed as NDJSON unless --sqlite
is given, in which case they are written to --table of that database.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&extractSchema, "schema", "s", "", "schema file (YAML or JSON)")
	f.StringVarP(&extractInput, "input", "i", "-", "input file, - for stdin")
	f.StringVarP(&extractFormat, "format", "f", "", "input format: json, ndjson or yaml (default: by file extension, else json)")
	f.BoolVar(&extractNoEnsure, "no-ensure-types", false, "emit values as found instead of converting them to the declared types")
	f.BoolVar(&extractLenient, "lenient", false, "turn extraction errors into null values")
	f.BoolVar(&extractStrictKeys, "strict-keys", false, "reject input objects with duplicate keys")
	f.IntVar(&extractMaxDepth, "max-depth", 0, "maximum nesting depth for input and schema (0 = default)")
	f.StringVar(&extractSQLite, "sqlite", "", "write rows to this SQLite database")
	f.StringVar(&extractTable, "table", "rows", "SQLite table name")
	f.StringVar(&extractMode, "mode", "append", "SQLite sync mode: append or replace")
	_ = extractCmd.MarkFlagRequired("schema")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	schema, err := schemafile.LoadFile(extractSchema)
	if err != nil {
		return err
	}
	format, err := inputFormat(extractFormat, extractInput)
	if err != nil {
		return err
	}
	mode, err := sqlitesink.ParseSyncMode(extractMode)
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(cmd, extractInput)
	if err != nil {
		return err
	}
	defer closeIn()

	opt := extractOpt()
	srcOpt := source.Opt{MaxDepth: extractMaxDepth, StrictKeys: extractStrictKeys}

	logger.Section("extract")
	logger.Info("schema %s: %d fields, input %s (%s)", extractSchema, len(schema), extractInput, format)

	var rows []map[string]any
	emit := func(rec any) error {
		row, err := schema.Row(rec, opt)
		if err != nil {
			return fmt.Errorf("record %d: %w", len(rows), err)
		}
		rows = append(rows, row)
		if extractSQLite == "" {
			return writeNDJSON(cmd.OutOrStdout(), row)
		}
		return nil
	}

	if format == source.FormatNDJSON {
		r := source.NewNDJSON(in, srcOpt)
		for {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			if err := emit(rec); err != nil {
				return err
			}
		}
	} else {
		recs, err := source.Read(in, format, srcOpt)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			if err := emit(rec); err != nil {
				return err
			}
		}
	}

	if extractSQLite == "" {
		return nil
	}
	sink, err := sqlitesink.Open(extractSQLite)
	if err != nil {
		return err
	}
	defer sink.Close()
	n, err := sink.Write(context.Background(), extractTable, schema, rows, mode)
	if err != nil {
		return err
	}
	cmd.Printf("wrote %d rows to %s (table %s)\n", n, extractSQLite, extractTable)
	return nil
}

func extractOpt() sinkfield.ExtractOpt {
	opt := sinkfield.ExtractOpt{SkipEnsureType: extractNoEnsure, MaxDepth: extractMaxDepth}
	if extractLenient {
		opt.ShouldFire = func(_ any, _ sinkfield.Path, err error) bool {
			logger.Warn("%v", err)
			return false
		}
	}
	return opt
}

func inputFormat(flag, input string) (source.Format, error) {
	if flag != "" {
		return source.ParseFormat(flag)
	}
	switch strings.ToLower(filepath.Ext(input)) {
	case ".ndjson", ".jsonl":
		return source.FormatNDJSON, nil
	case ".yaml", ".yml":
		return source.FormatYAML, nil
	}
	return source.FormatJSON, nil
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

func writeNDJSON(w io.Writer, row map[string]any) error {
	b, err := gojson.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
