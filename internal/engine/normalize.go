package engine

import (
	"fmt"
	"math"
	"time"
)

// Normalize rewrites a tree produced by another decoder (YAML) into the shape
// Decode produces: map[string]any objects, []any arrays, int64/float64
// numbers. Non-string mapping keys are rendered with fmt. Timestamps are kept.
func Normalize(v any, maxDepth int) (any, error) {
	return normalize(v, "", 0, maxDepth)
}

func normalize(v any, path string, depth, maxDepth int) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		if err := checkDepth(path, depth, maxDepth); err != nil {
			return nil, err
		}
		out := make(map[string]any, len(t))
		for k, vv := range t {
			nv, err := normalize(vv, joinJSONPointer(path, k), depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case map[any]any:
		if err := checkDepth(path, depth, maxDepth); err != nil {
			return nil, err
		}
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				ks = fmt.Sprint(k)
			}
			nv, err := normalize(vv, joinJSONPointer(path, ks), depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			out[ks] = nv
		}
		return out, nil
	case []any:
		if err := checkDepth(path, depth, maxDepth); err != nil {
			return nil, err
		}
		out := make([]any, len(t))
		for i := range t {
			nv, err := normalize(t[i], joinJSONPointer(path, fmt.Sprint(i)), depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint:
		return uintNumber(uint64(t)), nil
	case uint64:
		return uintNumber(t), nil
	case float32:
		return float64(t), nil
	case time.Time:
		return t, nil
	default:
		return v, nil
	}
}

func uintNumber(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

func checkDepth(path string, depth, maxDepth int) error {
	if maxDepth > 0 && depth >= maxDepth {
		return &Error{Code: CodeMaxDepth, Path: normalizeIssuePath(path),
			Message: fmt.Sprintf("nesting deeper than %d", maxDepth), Offset: -1}
	}
	return nil
}
