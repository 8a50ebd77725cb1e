package sinkfield

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/sinkfield/i18n"
)

// Issue codes
const (
	CodeInvalidValue  = "invalid_value"
	CodePathShape     = "path_shape"
	CodeSourceFn      = "source_fn"
	CodeInvalidSchema = "invalid_schema"
	CodeMaxDepth      = "max_depth"
	CodeParseError    = "parse_error"
)

var (
	// ErrNotFound is returned by dynamic segments that cannot locate their target.
	// It never escapes Resolve; the lookup reports "not found" instead.
	ErrNotFound = errors.New("sinkfield: not found")
	// ErrInvalidValue marks values without a conversion to the declared type.
	ErrInvalidValue = errors.New("sinkfield: invalid value")
	// ErrPathShape marks a segment applied to a value of the wrong shape.
	ErrPathShape = errors.New("sinkfield: path segment does not apply")
	// ErrInvalidSchema marks schema trees that violate construction invariants.
	ErrInvalidSchema = errors.New("sinkfield: invalid schema")
	// ErrMaxDepth marks extraction or path expansion beyond the configured limits.
	ErrMaxDepth = errors.New("sinkfield: limit exceeded")
)

// Issue is a single extraction failure.
type Issue struct {
	Path    string // JSON Pointer of the effective path (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Field   string // Name of the schema field whose boundary raised the issue.
	Message string
	Cause   error
}

// Issues is a collection of extraction errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_value at /hello: ...
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
		if it.Cause != nil {
			fmt.Fprintf(b, ": %v", it.Cause)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap exposes the causes so errors.Is(err, ErrInvalidValue) works on Issues.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// IssueAt creates a single-issue error at path p.
func IssueAt(p Path, code string, cause error) Issues {
	return Issues{{Path: p.Pointer(), Code: code, Message: i18n.T(code, nil), Cause: cause}}
}

// wrapIssue turns err into Issues anchored at p. Errors that already are Issues
// keep their original path; only a missing field name is filled in.
func wrapIssue(field string, p Path, err error) error {
	if err == nil {
		return nil
	}
	if iss, ok := AsIssues(err); ok {
		out := make(Issues, len(iss))
		copy(out, iss)
		for i := range out {
			if out[i].Field == "" {
				out[i].Field = field
			}
		}
		return out
	}
	code := codeOf(err)
	return Issues{{Path: p.Pointer(), Code: code, Field: field, Message: i18n.T(code, nil), Cause: err}}
}

func codeOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidValue):
		return CodeInvalidValue
	case errors.Is(err, ErrPathShape):
		return CodePathShape
	case errors.Is(err, ErrInvalidSchema):
		return CodeInvalidSchema
	case errors.Is(err, ErrMaxDepth):
		return CodeMaxDepth
	default:
		return CodeSourceFn
	}
}
