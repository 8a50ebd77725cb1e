package source

import (
	"errors"
	"io"

	eng "github.com/reoring/sinkfield/internal/engine"
)

// ReadJSON reads one JSON document. A top-level array is a list of records;
// any other value is a single record. Trailing data after the document is an
// error.
func ReadJSON(r io.Reader, opts ...Opt) ([]any, error) {
	opt := lastOpt(opts)
	src := newTokenReader(r)
	doc, err := eng.Decode(src, opt.engine())
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []any{}, nil
		}
		return nil, asIssues("", err)
	}
	if _, err := src.NextToken(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after the top-level value")
		}
		return nil, asIssues("", err)
	}
	return records(doc), nil
}
