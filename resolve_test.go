package sinkfield_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sf "github.com/reoring/sinkfield"
)

func TestResolve(t *testing.T) {
	rec := map[string]any{
		"world": 1,
		"items": []any{
			map[string]any{"id": 7, "sku": "a"},
			map[string]any{"id": 9, "sku": "b"},
		},
		"nothing": nil,
	}
	cases := []struct {
		name  string
		path  sf.Path
		want  any
		found bool
	}{
		{"key", sf.Keys("world"), 1, true},
		{"missing key", sf.Keys("hello"), nil, false},
		{"index", sf.Path{sf.Key("items"), sf.Index(1), sf.Key("sku")}, "b", true},
		{"index out of range", sf.Path{sf.Key("items"), sf.Index(5)}, nil, false},
		{"nil midway", sf.Keys("nothing", "deeper"), nil, false},
		{"empty path", sf.Path{}, rec, true},
		{"where", sf.Path{sf.Key("items"), sf.Where("id", "9"), sf.Key("sku")}, "b", true},
		{"where miss", sf.Path{sf.Key("items"), sf.Where("id", 1), sf.Key("sku")}, nil, false},
		{"last", sf.Path{sf.Key("items"), sf.Last(), sf.Key("id")}, 9, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, found, err := sf.Resolve(rec, tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.found, found)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolve_IndexOnMappingIsNotFound(t *testing.T) {
	_, found, err := sf.Resolve(map[string]any{"a": 1}, sf.Path{sf.Index(0)})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResolve_ShapeErrors(t *testing.T) {
	rec := map[string]any{"n": 3, "list": []any{1}}
	for name, p := range map[string]sf.Path{
		"key on scalar":   sf.Keys("n", "x"),
		"index on scalar": {sf.Key("n"), sf.Index(0)},
		"key on sequence": sf.Keys("list", "x"),
		"each marker":     {sf.Key("list"), sf.Each},
		"root marker":     {sf.Root, sf.Key("n")},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := sf.Resolve(rec, p)
			require.Error(t, err)
			assert.ErrorIs(t, err, sf.ErrPathShape)
			iss, ok := sf.AsIssues(err)
			require.True(t, ok)
			assert.Equal(t, sf.CodePathShape, iss[0].Code)
		})
	}
}

func TestResolve_DynamicSeesConsumedPath(t *testing.T) {
	rec := map[string]any{"a": map[string]any{"b": map[string]any{"c": "deep"}}}
	var seen sf.Path
	dyn := sf.Dynamic(func(current any, consumed sf.Path) (sf.Path, error) {
		seen = consumed
		return sf.Keys("b", "c"), nil
	})
	got, found, err := sf.Resolve(rec, sf.Path{sf.Key("a"), dyn})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "deep", got)
	assert.Equal(t, sf.Keys("a"), seen)
}

func TestResolve_DynamicErrors(t *testing.T) {
	boom := errors.New("boom")
	fail := sf.Dynamic(func(any, sf.Path) (sf.Path, error) { return nil, boom })
	_, _, err := sf.Resolve(map[string]any{}, sf.Path{fail})
	assert.ErrorIs(t, err, boom)
	iss, _ := sf.AsIssues(err)
	assert.Equal(t, sf.CodeSourceFn, iss[0].Code)

	missing := sf.Dynamic(func(any, sf.Path) (sf.Path, error) { return nil, sf.ErrNotFound })
	_, found, err := sf.Resolve(map[string]any{}, sf.Path{missing})
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestResolve_PathLengthGuard(t *testing.T) {
	var grow sf.Dynamic
	grow = func(any, sf.Path) (sf.Path, error) { return sf.Path{grow, grow}, nil }
	_, _, err := sf.Resolve(map[string]any{}, sf.Path{grow}, sf.ResolveOpt{MaxPathLen: 16})
	assert.ErrorIs(t, err, sf.ErrMaxDepth)
}

func TestResolve_SelfExpandingDynamicStops(t *testing.T) {
	calls := 0
	var self sf.Dynamic
	self = func(any, sf.Path) (sf.Path, error) {
		calls++
		return sf.Path{self}, nil
	}
	_, found, err := sf.Resolve(map[string]any{"a": 1}, sf.Path{self}, sf.ResolveOpt{MaxPathLen: 8})
	require.Error(t, err)
	assert.False(t, found)
	assert.ErrorIs(t, err, sf.ErrMaxDepth)
	assert.Equal(t, 8, calls)

	iss, ok := sf.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, sf.CodeMaxDepth, iss[0].Code)
}

type address struct {
	City   string `json:"city"`
	Zip    string `sinkfield:"name=postal"`
	Hidden string `json:"-"`
}

type customer struct {
	Name    string
	Address *address `json:"address,omitempty"`
	Tags    []string
	Attrs   map[string]int
}

func TestResolve_StructsAndTypedContainers(t *testing.T) {
	rec := customer{
		Name:    "ann",
		Address: &address{City: "Kyoto", Zip: "600", Hidden: "x"},
		Tags:    []string{"a", "b"},
		Attrs:   map[string]int{"age": 40},
	}
	cases := map[string]struct {
		path  sf.Path
		want  any
		found bool
	}{
		"field name":    {sf.Keys("Name"), "ann", true},
		"json tag":      {sf.Keys("address", "city"), "Kyoto", true},
		"sinkfield tag": {sf.Keys("address", "postal"), "600", true},
		"hidden":        {sf.Keys("address", "Hidden"), nil, false},
		"typed slice":   {sf.Path{sf.Key("Tags"), sf.Index(1)}, "b", true},
		"typed map":     {sf.Keys("Attrs", "age"), 40, true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, found, err := sf.Resolve(rec, tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.found, found)
			assert.Equal(t, tc.want, got)
		})
	}
}
