package source

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	eng "github.com/reoring/sinkfield/internal/engine"
)

// ReadYAML reads every document of a YAML stream. Each document that is a
// sequence contributes its elements as records; any other document is one
// record. Empty documents are skipped.
func ReadYAML(r io.Reader, opts ...Opt) ([]any, error) {
	opt := lastOpt(opts)
	dec := yaml.NewDecoder(r)
	out := []any{}
	for i := 0; ; i++ {
		var doc any
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, asIssues("/"+strconv.Itoa(i), fmt.Errorf("failed to decode YAML document: %w", err))
		}
		if doc == nil {
			continue
		}
		v, err := eng.Normalize(doc, opt.engine().MaxDepth)
		if err != nil {
			return nil, asIssues("/"+strconv.Itoa(i), err)
		}
		out = append(out, records(v)...)
	}
}

// Read dispatches on format.
func Read(r io.Reader, format Format, opts ...Opt) ([]any, error) {
	switch format {
	case FormatJSON:
		return ReadJSON(r, opts...)
	case FormatNDJSON:
		return NewNDJSON(r, opts...).ReadAll()
	case FormatYAML:
		return ReadYAML(r, opts...)
	}
	return nil, fmt.Errorf("unknown input format %q", format)
}
