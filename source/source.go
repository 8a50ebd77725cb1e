// Package source reads records for extraction from JSON, NDJSON and YAML.
//
// Records come out as plain trees: map[string]any objects, []any arrays,
// int64 for integral numbers and float64 for the rest.
package source

import (
	"errors"
	"fmt"

	sinkfield "github.com/reoring/sinkfield"
	eng "github.com/reoring/sinkfield/internal/engine"
)

// Format names an input encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
)

// ParseFormat accepts json, ndjson (or jsonl) and yaml (or yml).
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown input format %q", s)
}

// Opt configures a reader. When several are passed the last one wins.
type Opt struct {
	// MaxDepth bounds container nesting. Zero means DefaultMaxDepth; negative
	// disables the check.
	MaxDepth int
	// StrictKeys rejects objects with duplicate keys instead of keeping the
	// last value.
	StrictKeys bool
}

// DefaultMaxDepth is the nesting limit applied when Opt.MaxDepth is zero.
const DefaultMaxDepth = 512

func lastOpt(opts []Opt) Opt {
	if len(opts) == 0 {
		return Opt{}
	}
	return opts[len(opts)-1]
}

func (o Opt) engine() eng.Options {
	d := o.MaxDepth
	if d == 0 {
		d = DefaultMaxDepth
	}
	out := eng.Options{MaxDepth: d}
	if o.StrictKeys {
		out.OnDuplicate = eng.DupError
	}
	return out
}

// asIssues maps engine errors onto the sinkfield error model. prefix locates
// the document (for example "/3" for the fourth NDJSON line).
func asIssues(prefix string, err error) error {
	var de *eng.Error
	if !errors.As(err, &de) {
		return sinkfield.Issues{{Path: pointer(prefix, "/"), Code: sinkfield.CodeParseError, Cause: err}}
	}
	code := sinkfield.CodeParseError
	cause := error(de)
	if de.Code == eng.CodeMaxDepth {
		code = sinkfield.CodeMaxDepth
		cause = fmt.Errorf("%w: %s", sinkfield.ErrMaxDepth, de.Message)
	}
	return sinkfield.Issues{{Path: pointer(prefix, de.Path), Code: code, Message: de.Message, Cause: cause}}
}

func pointer(prefix, p string) string {
	if prefix == "" {
		return p
	}
	if p == "/" {
		return prefix
	}
	return prefix + p
}

// records splits a decoded document into records: a top-level array yields
// its elements, anything else is one record.
func records(doc any) []any {
	if arr, ok := doc.([]any); ok {
		return arr
	}
	return []any{doc}
}
