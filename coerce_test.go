package sinkfield_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sf "github.com/reoring/sinkfield"
)

func TestEnsureType(t *testing.T) {
	utc := sf.ExtractOpt{Location: time.UTC}
	ts := time.Date(2024, 3, 9, 10, 30, 0, 500, time.FixedZone("JST", 9*3600))
	cases := []struct {
		name string
		in   any
		typ  sf.FieldType
		want any
	}{
		{"nil", nil, sf.TypeInteger, nil},
		{"int from text", "1", sf.TypeInteger, int64(1)},
		{"int from padded text", " 42 ", sf.TypeInteger, int64(42)},
		{"int truncates float", 3.9, sf.TypeInteger, int64(3)},
		{"int from bool", true, sf.TypeInteger, int64(1)},
		{"int from json number", json.Number("12"), sf.TypeInteger, int64(12)},
		{"int widens", int32(-5), sf.TypeInteger, int64(-5)},
		{"float from text", "2.5", sf.TypeFloat, 2.5},
		{"float from int", 2, sf.TypeFloat, 2.0},
		{"bool from one", 1, sf.TypeBoolean, true},
		{"bool from zero", 0, sf.TypeBoolean, false},
		{"bool identity", "yes", sf.TypeBoolean, "yes"},
		{"numeric rounds", 1.123456789, sf.TypeNumeric, "1.12345679"},
		{"numeric keeps a fraction digit", 1.0, sf.TypeNumeric, "1.0"},
		{"numeric text passes", "3.14", sf.TypeNumeric, "3.14"},
		{"numeric int passes", 3, sf.TypeNumeric, 3},
		{"string from int", 7, sf.TypeString, "7"},
		{"string from float", 0.5, sf.TypeString, "0.5"},
		{"string from integral float", 1.0, sf.TypeString, "1"},
		{"string from bool", false, sf.TypeString, "false"},
		{"string from time", ts, sf.TypeString, "2024-03-09T01:30:00.0000005Z"},
		{"string from map", map[string]any{"a": 1}, sf.TypeString, `{"a":1}`},
		{"string from list", []any{1, "x"}, sf.TypeString, `[1,"x"]`},
		{"string from date", civil.Date{Year: 2020, Month: 1, Day: 2}, sf.TypeString, "2020-01-02"},
		{"timestamp from unix", 300, sf.TypeTimestamp, time.Date(1970, 1, 1, 0, 5, 0, 0, time.UTC)},
		{"timestamp identity", "2020-01-01", sf.TypeTimestamp, "2020-01-01"},
		{"datetime from unix", 300, sf.TypeDateTime, civil.DateTime{
			Date: civil.Date{Year: 1970, Month: 1, Day: 1},
			Time: civil.Time{Minute: 5},
		}},
		{"date from time", ts, sf.TypeDate, civil.Date{Year: 2024, Month: 3, Day: 9}},
		{"bytes identity", []byte("x"), sf.TypeBytes, []byte("x")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sf.EnsureType(tc.in, tc.typ, utc)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEnsureType_DateFromUnixUsesLocation(t *testing.T) {
	got, err := sf.EnsureType(300, sf.TypeDate, sf.ExtractOpt{Location: time.UTC})
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 1970, Month: 1, Day: 1}, got)

	west := time.FixedZone("W", -3600)
	got, err = sf.EnsureType(300, sf.TypeDate, sf.ExtractOpt{Location: west})
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 1969, Month: 12, Day: 31}, got)
}

func TestEnsureType_Failures(t *testing.T) {
	cases := []struct {
		name string
		in   any
		typ  sf.FieldType
	}{
		{"int from word", "a", sf.TypeInteger},
		{"int from nan", math.NaN(), sf.TypeInteger},
		{"int from list", []any{1}, sf.TypeInteger},
		{"float from word", "x", sf.TypeFloat},
		{"numeric from inf", math.Inf(1), sf.TypeNumeric},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sf.EnsureType(tc.in, tc.typ)
			assert.ErrorIs(t, err, sf.ErrInvalidValue)
		})
	}
}

func TestEnsureType_Idempotent(t *testing.T) {
	inputs := []any{"1", 2, 2.75, true, 0, 300, "text", 1.123456789, map[string]any{"k": "v"}}
	types := []sf.FieldType{
		sf.TypeString, sf.TypeInteger, sf.TypeFloat, sf.TypeNumeric, sf.TypeBoolean,
		sf.TypeTimestamp, sf.TypeDate, sf.TypeDateTime, sf.TypeBytes, sf.TypeTime,
	}
	opt := sf.ExtractOpt{Location: time.UTC}
	for _, typ := range types {
		for _, in := range inputs {
			once, err := sf.EnsureType(in, typ, opt)
			if err != nil {
				continue
			}
			twice, err := sf.EnsureType(once, typ, opt)
			require.NoError(t, err, "%s %#v", typ, in)
			assert.Equal(t, once, twice, "%s %#v", typ, in)
		}
	}
}
