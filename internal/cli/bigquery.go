package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reoring/sinkfield/bqsink"
	"github.com/reoring/sinkfield/schemafile"
	"github.com/reoring/sinkfield/source"
)

var bqSchemaFile string

var bqSchemaCmd = &cobra.Command{
	Use:   "bq-schema",
	Short: "Print the BigQuery table schema of a schema file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		schema, err := schemafile.LoadFile(bqSchemaFile)
		if err != nil {
			return err
		}
		data, err := bqsink.ToSchema(schema).ToJSONFields()
		if err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}
		cmd.Println(string(data))
		return nil
	},
}

var (
	viewConfig  string
	viewDataset string
	viewName    string
	viewSQL     string
	viewSQLFile string
)

var createViewCmd = &cobra.Command{
	Use:   "create-view",
	Short: "Create a BigQuery view unless it already exists",
	Args:  cobra.NoArgs,
	RunE:  runCreateView,
}

var (
	insertConfig string
	insertSchema string
	insertTable  string
	insertInput  string
	insertFormat string
)

var bqInsertCmd = &cobra.Command{
	Use:   "bq-insert",
	Short: "Extract rows and stream them into a BigQuery table",
	Long: `Creates --table from the schema file when it does not exist, then
extracts one row per input record and streams the rows into it.`,
	Args: cobra.NoArgs,
	RunE: runBQInsert,
}

func init() {
	bqSchemaCmd.Flags().StringVarP(&bqSchemaFile, "schema", "s", "", "schema file (YAML or JSON)")
	_ = bqSchemaCmd.MarkFlagRequired("schema")

	f := createViewCmd.Flags()
	f.StringVarP(&viewConfig, "config", "c", "", "access config (TOML)")
	f.StringVar(&viewDataset, "dataset", "", "dataset (default: dataset_id of the config)")
	f.StringVar(&viewName, "name", "", "view name")
	f.StringVar(&viewSQL, "sql", "", "view query")
	f.StringVar(&viewSQLFile, "sql-file", "", "file holding the view query")
	_ = createViewCmd.MarkFlagRequired("config")
	_ = createViewCmd.MarkFlagRequired("name")

	f = bqInsertCmd.Flags()
	f.StringVarP(&insertConfig, "config", "c", "", "access config (TOML)")
	f.StringVarP(&insertSchema, "schema", "s", "", "schema file (YAML or JSON)")
	f.StringVar(&insertTable, "table", "", "destination table")
	f.StringVarP(&insertInput, "input", "i", "-", "input file, - for stdin")
	f.StringVarP(&insertFormat, "format", "f", "", "input format: json, ndjson or yaml")
	for _, name := range []string{"config", "schema", "table"} {
		_ = bqInsertCmd.MarkFlagRequired(name)
	}

	rootCmd.AddCommand(bqSchemaCmd, createViewCmd, bqInsertCmd)
}

func viewQuery() (string, error) {
	switch {
	case viewSQL != "" && viewSQLFile != "":
		return "", errors.New("use either --sql or --sql-file")
	case viewSQLFile != "":
		b, err := os.ReadFile(viewSQLFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", viewSQLFile, err)
		}
		return string(b), nil
	case viewSQL != "":
		return viewSQL, nil
	}
	return "", errors.New("a view query is required (--sql or --sql-file)")
}

func runCreateView(cmd *cobra.Command, _ []string) error {
	sql, err := viewQuery()
	if err != nil {
		return err
	}
	cfg, err := bqsink.LoadAccessConfig(viewConfig)
	if err != nil {
		return err
	}
	ctx := context.Background()
	client, err := cfg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	if err := bqsink.CreateView(ctx, client, cfg, viewDataset, viewName, sql); err != nil {
		return err
	}
	cmd.Printf("view %s ready\n", viewName)
	return nil
}

func runBQInsert(cmd *cobra.Command, _ []string) error {
	cfg, err := bqsink.LoadAccessConfig(insertConfig)
	if err != nil {
		return err
	}
	schema, err := schemafile.LoadFile(insertSchema)
	if err != nil {
		return err
	}
	format, err := inputFormat(insertFormat, insertInput)
	if err != nil {
		return err
	}
	in, closeIn, err := openInput(cmd, insertInput)
	if err != nil {
		return err
	}
	defer closeIn()
	records, err := source.Read(in, format)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, err := cfg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	if err := bqsink.EnsureTable(ctx, client, cfg, insertTable, schema); err != nil {
		return err
	}
	if err := bqsink.NewWriter(client, cfg, insertTable, schema).Write(ctx, records); err != nil {
		return err
	}
	cmd.Printf("inserted %d rows into %s\n", len(records), insertTable)
	return nil
}
