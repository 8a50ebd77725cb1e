package sinkfield

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	gojson "github.com/goccy/go-json"
)

// EnsureType converts a resolved leaf value to the Go representation of t:
//
//	STRING    string (non-text values rendered to canonical text)
//	INTEGER   int64 (truncating)
//	FLOAT     float64
//	NUMERIC   string (floats rounded to 8 fractional digits)
//	BOOLEAN   bool (integers: value != 0)
//	DATE      civil.Date (from time values or integer Unix seconds)
//	TIMESTAMP time.Time in UTC (from integer Unix seconds)
//	DATETIME  civil.DateTime in UTC (from integer Unix seconds)
//
// Values without a rule for t pass through unchanged, and nil stays nil.
// Conversions that have a rule but an unconvertible input fail with
// ErrInvalidValue. EnsureType is idempotent.
func EnsureType(v any, t FieldType, opts ...ExtractOpt) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case TypeNumeric:
		if f, ok := asFloat(v); ok {
			return formatNumeric(f)
		}
	case TypeBoolean:
		if n, ok := asInt(v); ok {
			return n != 0, nil
		}
	case TypeDate:
		return toDate(v, lastExtractOpt(opts).location()), nil
	case TypeString:
		return toText(v)
	case TypeInteger:
		return toInteger(v)
	case TypeFloat:
		return toFloat(v)
	case TypeTimestamp:
		if n, ok := asInt(v); ok {
			return time.Unix(n, 0).UTC(), nil
		}
	case TypeDateTime:
		if n, ok := asInt(v); ok {
			return civil.DateTimeOf(time.Unix(n, 0).UTC()), nil
		}
	}
	return v, nil
}

// asInt reports integer-kinded values, including integral json.Number (go-json
// aliases the same type).
// Booleans are not integers.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uintToInt(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uintToInt(n)
	case json.Number:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func uintToInt(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

// asFloat reports floating-point values, including non-integral json.Number.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		return numberAsFloat(string(n))
	}
	return 0, false
}

func numberAsFloat(s string) (float64, bool) {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func formatNumeric(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %v has no NUMERIC form", ErrInvalidValue, f)
	}
	s := strconv.FormatFloat(f, 'f', 8, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	if s == "-0.0" {
		s = "0.0"
	}
	return s, nil
}

func toDate(v any, loc *time.Location) any {
	switch t := v.(type) {
	case time.Time:
		return civil.DateOf(t)
	case civil.DateTime:
		return t.Date
	}
	if n, ok := asInt(v); ok {
		return civil.DateOf(time.Unix(n, 0).In(loc))
	}
	return v
}

func toText(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32), nil
	case json.Number:
		return string(t), nil
	case time.Time:
		return formatRFC3339Canonical(t), nil
	case fmt.Stringer:
		// civil.Date, civil.DateTime, civil.Time and friends
		return t.String(), nil
	}
	if n, ok := asInt(v); ok {
		return strconv.FormatInt(n, 10), nil
	}
	if u, ok := v.(uint64); ok {
		return strconv.FormatUint(u, 10), nil
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		b, err := gojson.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: render %T as text: %v", ErrInvalidValue, v, err)
		}
		return string(b), nil
	}
	return fmt.Sprint(v), nil
}

func toInteger(v any) (any, error) {
	if n, ok := asInt(v); ok {
		return n, nil
	}
	switch t := v.(type) {
	case bool:
		if t {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, t)
		}
		return n, nil
	}
	if f, ok := asFloat(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
			return nil, fmt.Errorf("%w: %v does not fit an integer", ErrInvalidValue, f)
		}
		return int64(f), nil
	}
	return nil, fmt.Errorf("%w: %T cannot convert to an integer", ErrInvalidValue, v)
}

func toFloat(v any) (any, error) {
	if f, ok := asFloat(v); ok {
		return f, nil
	}
	if n, ok := asInt(v); ok {
		return float64(n), nil
	}
	switch t := v.(type) {
	case uint64:
		return float64(t), nil
	case bool:
		if t {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, t)
		}
		return f, nil
	}
	return nil, fmt.Errorf("%w: %T cannot convert to a float", ErrInvalidValue, v)
}

func formatRFC3339Canonical(t time.Time) string {
	// Normalize to UTC and format using RFC3339Nano (Go trims trailing zeros)
	return t.UTC().Format(time.RFC3339Nano)
}
