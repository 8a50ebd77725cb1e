package bqsink

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	sinkfield "github.com/reoring/sinkfield"
)

func orderFields() []*sinkfield.Field {
	return []*sinkfield.Field{
		sinkfield.String("id", sinkfield.Required(), sinkfield.Description("order id")),
		sinkfield.Timestamp("at"),
		sinkfield.StructOf("lines", []*sinkfield.Field{
			sinkfield.String("sku"),
			sinkfield.Numeric("price"),
		}, sinkfield.Repeated(), sinkfield.At("items[]")),
	}
}

func TestToSchema(t *testing.T) {
	got := ToSchema(orderFields())
	want := bigquery.Schema{
		{Name: "id", Type: bigquery.StringFieldType, Required: true, Description: "order id"},
		{Name: "at", Type: bigquery.TimestampFieldType},
		{Name: "lines", Type: bigquery.RecordFieldType, Repeated: true, Schema: bigquery.Schema{
			{Name: "sku", Type: bigquery.StringFieldType},
			{Name: "price", Type: bigquery.NumericFieldType},
		}},
	}
	assert.Equal(t, want, got)
}

func TestFromSchema_RoundTrip(t *testing.T) {
	fields, err := FromSchema(ToSchema(orderFields()))
	require.NoError(t, err)
	assert.Equal(t, ToSchema(orderFields()), ToSchema(fields))

	_, err = FromSchema(bigquery.Schema{{Name: "g", Type: bigquery.GeographyFieldType}})
	assert.ErrorIs(t, err, sinkfield.ErrInvalidSchema)
}

func TestRows(t *testing.T) {
	records := []any{
		map[string]any{"id": 1, "at": 300, "items": []any{map[string]any{"sku": "a", "price": 1.5}}},
		map[string]any{"id": "2"},
	}
	rows, err := Rows(sinkfield.Schema(orderFields()), records)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	values, insertID, err := rows[0].Save()
	require.NoError(t, err)
	_, err = uuid.Parse(insertID)
	assert.NoError(t, err)
	assert.NotEqual(t, insertID, rows[1].InsertID)
	assert.Equal(t, map[string]bigquery.Value{
		"id":    "1",
		"at":    "1970-01-01T00:05:00Z",
		"lines": []bigquery.Value{map[string]bigquery.Value{"sku": "a", "price": "1.5"}},
	}, values)

	values, _, err = rows[1].Save()
	require.NoError(t, err)
	assert.Equal(t, []bigquery.Value{}, values["lines"])
	assert.Nil(t, values["at"])
}

func TestRows_ErrorNamesRecord(t *testing.T) {
	schema := sinkfield.Schema{sinkfield.Integer("n")}
	_, err := Rows(schema, []any{map[string]any{"n": 1}, map[string]any{"n": "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1")
	assert.ErrorIs(t, err, sinkfield.ErrInvalidValue)
}

func TestUploadValue_Civil(t *testing.T) {
	dt := civil.DateTime{Date: civil.Date{Year: 2024, Month: 1, Day: 2}, Time: civil.Time{Hour: 3, Minute: 4, Second: 5}}
	assert.Equal(t, "2024-01-02 03:04:05", uploadValue(dt))
	assert.Equal(t, "03:04:05", uploadValue(dt.Time))
	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 2}, uploadValue(dt.Date))
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	assert.Equal(t, "2024-01-02T02:04:05Z", uploadValue(ts))
}

func TestAccessConfig_Replace(t *testing.T) {
	base := AccessConfig{ProjectID: "p", DatasetID: "d", Location: "EU"}
	got := base.Replace(AccessConfig{DatasetID: "other", TempBucketName: "tmp"})
	assert.Equal(t, AccessConfig{ProjectID: "p", DatasetID: "other", TempBucketName: "tmp", Location: "EU"}, got)
	assert.Equal(t, "d", base.DatasetID)
}

func TestAccessConfig_ClientProject(t *testing.T) {
	c := AccessConfig{ProjectID: "p"}
	assert.Equal(t, "p", c.ClientProject())
	opts, err := c.ClientOptions()
	require.NoError(t, err)
	assert.Empty(t, opts)

	c.ServiceAccountCredentials = map[string]any{"project_id": "sa-project", "type": "service_account"}
	assert.Equal(t, "sa-project", c.ClientProject())
	assert.Equal(t, "p", c.tableProject())
	opts, err = c.ClientOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 1)

	assert.Equal(t, "sa-project", AccessConfig{ServiceAccountCredentials: c.ServiceAccountCredentials}.tableProject())
}

func TestLoadAccessConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.toml")
	doc := `
project_id = "proj"
dataset_id = "events"
bq_location = "EU"

[service_account_credentials]
type = "service_account"
project_id = "sa-proj"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	c, err := LoadAccessConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "proj", c.ProjectID)
	assert.Equal(t, "events", c.DatasetID)
	assert.Equal(t, "EU", c.Location)
	assert.Equal(t, "sa-proj", c.ClientProject())

	_, err = LoadAccessConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorContains(t, err, "failed to read access config")
}

type fakeTable struct {
	md  *bigquery.TableMetadata
	err error
}

func (f *fakeTable) Create(_ context.Context, md *bigquery.TableMetadata) error {
	f.md = md
	return f.err
}

func TestCreateView_ExistsOK(t *testing.T) {
	ctx := context.Background()
	tbl := &fakeTable{}
	require.NoError(t, createView(ctx, tbl, "SELECT 1"))
	assert.Equal(t, "SELECT 1", tbl.md.ViewQuery)

	tbl = &fakeTable{err: &googleapi.Error{Code: http.StatusConflict}}
	assert.NoError(t, createView(ctx, tbl, "SELECT 1"))

	boom := &googleapi.Error{Code: http.StatusForbidden}
	tbl = &fakeTable{err: boom}
	err := createView(ctx, tbl, "SELECT 1")
	assert.True(t, errors.Is(err, boom))
}

func TestEnsureTable(t *testing.T) {
	tbl := &fakeTable{}
	require.NoError(t, ensureTable(context.Background(), tbl, orderFields()))
	assert.Equal(t, ToSchema(orderFields()), tbl.md.Schema)
}

type fakeInserter struct {
	got []*Row
	err error
}

func (f *fakeInserter) Put(_ context.Context, src any) error {
	f.got = append(f.got, src.([]*Row)...)
	return f.err
}

func TestWriter_Write(t *testing.T) {
	ins := &fakeInserter{}
	w := &Writer{schema: sinkfield.Schema{sinkfield.Integer("n")}, ins: ins}
	require.NoError(t, w.Write(context.Background(), []any{map[string]any{"n": "4"}}))
	require.Len(t, ins.got, 1)
	assert.Equal(t, map[string]any{"n": int64(4)}, ins.got[0].Values)

	require.NoError(t, w.WriteRows(context.Background(), nil))
	assert.Len(t, ins.got, 1)

	ins.err = errors.New("quota")
	err := w.Write(context.Background(), []any{map[string]any{"n": 1}})
	assert.ErrorContains(t, err, "insert 1 rows: quota")
}
