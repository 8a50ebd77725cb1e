package source

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"

	eng "github.com/reoring/sinkfield/internal/engine"
)

// NDJSON streams newline-delimited JSON records. Blank lines are skipped.
type NDJSON struct {
	sc   *bufio.Scanner
	opt  Opt
	line int
}

// maxLine bounds a single NDJSON record.
const maxLine = 64 << 20

// NewNDJSON returns a reader over r.
func NewNDJSON(r io.Reader, opts ...Opt) *NDJSON {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &NDJSON{sc: sc, opt: lastOpt(opts)}
}

// Next returns the next record, or io.EOF after the last one. Error paths are
// prefixed with the zero-based line number.
func (n *NDJSON) Next() (any, error) {
	for n.sc.Scan() {
		n.line++
		b := bytes.TrimSpace(n.sc.Bytes())
		if len(b) == 0 {
			continue
		}
		prefix := "/" + strconv.Itoa(n.line-1)
		src := newTokenReader(bytes.NewReader(b))
		v, err := eng.Decode(src, n.opt.engine())
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, asIssues(prefix, err)
		}
		if _, err := src.NextToken(); !errors.Is(err, io.EOF) {
			if err == nil {
				err = errors.New("more than one value on the line")
			}
			return nil, asIssues(prefix, err)
		}
		return v, nil
	}
	if err := n.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Line returns the number of lines consumed so far.
func (n *NDJSON) Line() int { return n.line }

// ReadAll drains the reader.
func (n *NDJSON) ReadAll() ([]any, error) {
	out := []any{}
	for {
		v, err := n.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}
