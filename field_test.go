package sinkfield_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sf "github.com/reoring/sinkfield"
)

func TestNewField_Invariants(t *testing.T) {
	leaf := sf.String("a")
	cases := map[string]struct {
		name string
		typ  sf.FieldType
		opts []sf.FieldOption
	}{
		"empty name":         {"", sf.TypeString, nil},
		"struct no children": {"s", sf.TypeStruct, nil},
		"leaf with children": {"x", sf.TypeInteger, []sf.FieldOption{sf.Fields(leaf)}},
		"duplicate children": {"s", sf.TypeStruct, []sf.FieldOption{sf.Fields(leaf, sf.Integer("a"))}},
		"nil child":          {"s", sf.TypeStruct, []sf.FieldOption{sf.Fields(leaf, nil)}},
		"root not first":     {"x", sf.TypeString, []sf.FieldOption{sf.SourcePath(sf.Path{sf.Key("a"), sf.Root})}},
		"bad notation":       {"x", sf.TypeString, []sf.FieldOption{sf.At("a[")}},
		"unknown type":       {"x", sf.FieldType(99), nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := sf.NewField(tc.name, tc.typ, tc.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, sf.ErrInvalidSchema)
			iss, ok := sf.AsIssues(err)
			require.True(t, ok)
			assert.Equal(t, sf.CodeInvalidSchema, iss[0].Code)
		})
	}
	assert.Panics(t, func() { sf.StructOf("empty", nil) })
}

func TestField_AccessorsReturnCopies(t *testing.T) {
	f := sf.StructOf("s", []*sf.Field{sf.String("a"), sf.Integer("b")},
		sf.At("x.y"), sf.Description("d"), sf.Required())

	p, ok := f.Path()
	require.True(t, ok)
	p[0] = sf.Key("mutated")
	again, _ := f.Path()
	assert.Equal(t, sf.Keys("x", "y"), again)

	kids := f.Fields()
	kids[0] = nil
	assert.Equal(t, "a", f.Fields()[0].Name())

	assert.Equal(t, "s", f.Name())
	assert.Equal(t, sf.TypeStruct, f.Type())
	assert.Equal(t, sf.ModeRequired, f.Mode())
	assert.Equal(t, "d", f.Description())
	assert.False(t, f.HasSourceFn())
	c, ok := f.Child("b")
	require.True(t, ok)
	assert.Equal(t, sf.TypeInteger, c.Type())
}

func TestField_NoPathVersusEmptyPath(t *testing.T) {
	_, ok := sf.String("a").Path()
	assert.False(t, ok)

	p, ok := sf.String("a", sf.SourcePath(nil)).Path()
	assert.True(t, ok)
	assert.Empty(t, p)
}

func TestField_With(t *testing.T) {
	base := sf.Integer("n", sf.At("a"))
	changed, err := base.With(sf.Repeated(), sf.At("b[]"))
	require.NoError(t, err)

	assert.Equal(t, sf.ModeNullable, base.Mode())
	p, _ := base.Path()
	assert.Equal(t, sf.Keys("a"), p)

	assert.Equal(t, sf.ModeRepeated, changed.Mode())
	p, _ = changed.Path()
	assert.Equal(t, sf.Path{sf.Key("b"), sf.Each}, p)

	cleared, err := changed.With(sf.NoSourcePath())
	require.NoError(t, err)
	_, ok := cleared.Path()
	assert.False(t, ok)

	_, err = base.With(sf.Fields(sf.String("x")))
	assert.ErrorIs(t, err, sf.ErrInvalidSchema)
}

func TestTypeAndModeText(t *testing.T) {
	typ, err := sf.ParseFieldType("record")
	require.NoError(t, err)
	assert.Equal(t, sf.TypeStruct, typ)
	assert.Equal(t, "STRUCT", sf.TypeRecord.String())

	var ft sf.FieldType
	require.NoError(t, ft.UnmarshalText([]byte("timestamp")))
	assert.Equal(t, sf.TypeTimestamp, ft)
	_, err = sf.ParseFieldType("GEOGRAPHY")
	assert.ErrorIs(t, err, sf.ErrInvalidSchema)

	mode, err := sf.ParseFieldMode("")
	require.NoError(t, err)
	assert.Equal(t, sf.ModeNullable, mode)
	b, err := sf.ModeRepeated.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "REPEATED", string(b))
}
