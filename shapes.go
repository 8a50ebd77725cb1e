package sinkfield

import (
	"reflect"
	"strings"
)

// lookupKey reads key from a mapping-shaped value. applicable is false when v
// is not a mapping or struct; found is false when the key is absent.
func lookupKey(v any, key string) (value any, found, applicable bool) {
	if m, ok := v.(map[string]any); ok {
		value, found = m[key]
		return value, found, true
	}
	rv, ok := mappingKind(v)
	if !ok {
		return nil, false, false
	}
	switch rv.Kind() {
	case reflect.Map:
		kv := reflect.ValueOf(key).Convert(rv.Type().Key())
		mv := rv.MapIndex(kv)
		if !mv.IsValid() {
			return nil, false, true
		}
		return mv.Interface(), true, true
	case reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			sf := rt.Field(i)
			if !sf.IsExported() {
				continue
			}
			if name := ResolveStructKey(sf); name != "-" && name == key {
				return rv.Field(i).Interface(), true, true
			}
		}
		return nil, false, true
	case reflect.Invalid:
		// nil pointer to a struct
		return nil, false, true
	}
	return nil, false, false
}

// mappingKind reports whether v is a string-keyed map or a struct (through
// any number of pointers). A nil pointer to a struct yields an invalid Value.
func mappingKind(v any) (reflect.Value, bool) {
	if v == nil {
		return reflect.Value{}, false
	}
	if _, ok := v.(map[string]any); ok {
		return reflect.ValueOf(v), true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			if rv.Type().Elem().Kind() == reflect.Struct {
				return reflect.Value{}, true
			}
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		return rv, rv.Type().Key().Kind() == reflect.String
	case reflect.Struct:
		return rv, true
	}
	return reflect.Value{}, false
}

// asSequence converts list-shaped values into []any. Strings and []byte are
// scalars, not sequences.
func asSequence(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case []any:
		return t, true
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, true
	case []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// ResolveStructKey resolves the record key of a struct field.
// Priority: sinkfield:"name=..." > json tag name > field name; "-" hides the field.
func ResolveStructKey(sf reflect.StructField) string {
	if gt := sf.Tag.Get("sinkfield"); gt != "" {
		for _, p := range strings.Split(gt, ",") {
			p = strings.TrimSpace(p)
			if strings.HasPrefix(p, "name=") {
				return strings.TrimPrefix(p, "name=")
			}
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			if jt[:i] != "" {
				return jt[:i]
			}
			return sf.Name
		}
		return jt
	}
	return sf.Name
}
