package schemafile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sinkfield "github.com/reoring/sinkfield"
)

const orderSchema = `
fields:
  - name: hello
    type: INTEGER
    path: world
  - name: levels
    type: integer
    mode: repeated
    path: outter[].level1[]
  - name: lines
    type: RECORD
    mode: REPEATED
    description: order lines
    path: [order, lines, "[]"]
    fields:
      - name: sku
        type: STRING
      - name: order_id
        type: STRING
        path: $.id
`

func TestParse_YAML(t *testing.T) {
	schema, err := Parse([]byte(orderSchema))
	require.NoError(t, err)
	require.Len(t, schema, 3)

	lines := schema[2]
	assert.Equal(t, sinkfield.TypeStruct, lines.Type())
	assert.Equal(t, sinkfield.ModeRepeated, lines.Mode())
	assert.Equal(t, "order lines", lines.Description())
	p, ok := lines.Path()
	require.True(t, ok)
	assert.Equal(t, sinkfield.Path{sinkfield.Key("order"), sinkfield.Key("lines"), sinkfield.Each}, p)

	row, err := schema.Row(map[string]any{
		"id":     "o-1",
		"world":  "2",
		"outter": []any{map[string]any{"level1": []any{1, 2}}},
		"order":  map[string]any{"lines": []any{map[string]any{"sku": "a"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"hello":  int64(2),
		"levels": []any{int64(1), int64(2)},
		"lines":  []any{map[string]any{"sku": "a", "order_id": "o-1"}},
	}, row)
}

func TestParse_JSONList(t *testing.T) {
	schema, err := Parse([]byte(`[{"name": "a", "type": "BOOLEAN", "path": ["x.y"]}]`))
	require.NoError(t, err)
	require.Len(t, schema, 1)
	p, _ := schema[0].Path()
	assert.Equal(t, sinkfield.Keys("x.y"), p)
}

func TestParse_ErrorsCarryDocumentPath(t *testing.T) {
	cases := map[string]struct {
		doc  string
		path string
	}{
		"unknown type": {`
fields:
  - name: a
    type: GEOGRAPHY
`, "/fields/0"},
		"struct without children": {`
fields:
  - name: ok
    type: STRING
  - name: s
    type: STRUCT
`, "/fields/1"},
		"nested bad path": {`
fields:
  - name: s
    type: RECORD
    fields:
      - name: x
        type: STRING
        path: "a..b"
`, "/fields/0/fields/0"},
		"bad mode": {`
fields:
  - name: a
    type: STRING
    mode: SOMETIMES
`, "/fields/0"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, sinkfield.ErrInvalidSchema)
			iss, ok := sinkfield.AsIssues(err)
			require.True(t, ok)
			assert.Equal(t, tc.path, iss[0].Path)
			assert.Equal(t, sinkfield.CodeInvalidSchema, iss[0].Code)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse([]byte("fields: []"))
	assert.ErrorIs(t, err, sinkfield.ErrInvalidSchema)

	_, err = Parse([]byte("fields: [unclosed"))
	assert.Error(t, err)
}

func TestMarshal_RoundTrip(t *testing.T) {
	schema, err := Parse([]byte(orderSchema))
	require.NoError(t, err)

	data, err := Marshal(schema)
	require.NoError(t, err)
	again, err := Parse(data)
	require.NoError(t, err)

	want, err := Spec(schema)
	require.NoError(t, err)
	got, err := Spec(again)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Marshal([]*sinkfield.Field{sinkfield.String("x",
		sinkfield.SourcePath(sinkfield.Path{sinkfield.Last()}))})
	assert.ErrorIs(t, err, sinkfield.ErrInvalidSchema)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(orderSchema), 0o644))
	schema, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, schema, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read schema file")
}
