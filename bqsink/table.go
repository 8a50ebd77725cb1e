package bqsink

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	sinkfield "github.com/reoring/sinkfield"
	"github.com/reoring/sinkfield/internal/logger"
)

// tableCreator is the part of *bigquery.Table used for creation.
type tableCreator interface {
	Create(ctx context.Context, md *bigquery.TableMetadata) error
}

// IsAlreadyExists reports a 409 Conflict from the BigQuery API.
func IsAlreadyExists(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusConflict
	}
	return false
}

func createExistsOK(ctx context.Context, t tableCreator, md *bigquery.TableMetadata) error {
	if err := t.Create(ctx, md); err != nil {
		if IsAlreadyExists(err) {
			logger.Debug("table already exists; keeping it")
			return nil
		}
		return err
	}
	return nil
}

// CreateView creates view name in the configured dataset (or dataset, when
// not empty) with the given query. An existing view is left untouched.
func CreateView(ctx context.Context, client *bigquery.Client, cfg AccessConfig, dataset, name, sql string) error {
	ds := cfg.dataset(dataset)
	if ds == "" {
		return fmt.Errorf("bqsink: no dataset for view %q", name)
	}
	t := client.DatasetInProject(cfg.tableProject(), ds).Table(name)
	if err := createView(ctx, t, sql); err != nil {
		return fmt.Errorf("create view %s.%s.%s: %w", cfg.tableProject(), ds, name, err)
	}
	return nil
}

func createView(ctx context.Context, t tableCreator, sql string) error {
	return createExistsOK(ctx, t, &bigquery.TableMetadata{ViewQuery: sql})
}

// EnsureTable creates table with the schema derived from fields unless it
// already exists.
func EnsureTable(ctx context.Context, client *bigquery.Client, cfg AccessConfig, table string, fields []*sinkfield.Field) error {
	ds := cfg.dataset("")
	if ds == "" {
		return fmt.Errorf("bqsink: no dataset for table %q", table)
	}
	t := client.DatasetInProject(cfg.tableProject(), ds).Table(table)
	if err := ensureTable(ctx, t, fields); err != nil {
		return fmt.Errorf("create table %s.%s.%s: %w", cfg.tableProject(), ds, table, err)
	}
	return nil
}

func ensureTable(ctx context.Context, t tableCreator, fields []*sinkfield.Field) error {
	return createExistsOK(ctx, t, &bigquery.TableMetadata{Schema: ToSchema(fields)})
}
