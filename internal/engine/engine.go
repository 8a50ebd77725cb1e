// Package engine turns a stream of JSON tokens into record trees.
//
// Objects become map[string]any, arrays []any, and numbers are normalized:
// integral values that fit become int64, everything else float64.
package engine

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// DuplicatePolicy controls repeated object keys.
type DuplicatePolicy int

const (
	DupLastWins DuplicatePolicy = iota
	DupError
)

// Options controls decoding. MaxDepth <= 0 disables the depth check.
type Options struct {
	MaxDepth    int
	OnDuplicate DuplicatePolicy
}

// Issue codes produced by the engine.
const (
	CodeMaxDepth     = "max_depth"
	CodeDuplicateKey = "duplicate_key"
	CodeParseError   = "parse_error"
)

// Error is a decoding failure located by JSON Pointer.
type Error struct {
	Code    string
	Path    string
	Message string
	Offset  int64
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Code, e.Path, e.Message)
}

// Decode reads exactly one value from src. It returns io.EOF when src has no
// further values.
func Decode(src TokenSource, opt Options) (any, error) {
	tok, err := src.NextToken()
	if err != nil {
		return nil, err
	}
	d := &decoder{src: src, opt: opt}
	return d.value(tok, "", 0)
}

type decoder struct {
	src TokenSource
	opt Options
}

func (d *decoder) fail(code, path, msg string) error {
	return &Error{Code: code, Path: normalizeIssuePath(path), Message: msg, Offset: d.src.Location()}
}

// next is NextToken with a premature end reported as io.ErrUnexpectedEOF.
func (d *decoder) next() (Token, error) {
	tok, err := d.src.NextToken()
	if errors.Is(err, io.EOF) {
		return Token{}, io.ErrUnexpectedEOF
	}
	return tok, err
}

func (d *decoder) value(tok Token, path string, depth int) (any, error) {
	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		if d.opt.MaxDepth > 0 && depth >= d.opt.MaxDepth {
			return nil, d.fail(CodeMaxDepth, path, fmt.Sprintf("nesting deeper than %d", d.opt.MaxDepth))
		}
		if tok.Kind == KindBeginObject {
			return d.object(path, depth+1)
		}
		return d.array(path, depth+1)
	case KindString:
		return tok.String, nil
	case KindNumber:
		n, err := ParseNumber(tok.Number)
		if err != nil {
			return nil, d.fail(CodeParseError, path, err.Error())
		}
		return n, nil
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, d.fail(CodeParseError, path, "unexpected token")
	}
}

func (d *decoder) object(path string, depth int) (any, error) {
	m := make(map[string]any)
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, d.fail(CodeParseError, path, "expected object key")
		}
		kp := joinJSONPointer(path, tok.String)
		if _, dup := m[tok.String]; dup && d.opt.OnDuplicate == DupError {
			return nil, d.fail(CodeDuplicateKey, kp, "key '"+tok.String+"' duplicated")
		}
		vt, err := d.next()
		if err != nil {
			return nil, err
		}
		v, err := d.value(vt, kp, depth)
		if err != nil {
			return nil, err
		}
		m[tok.String] = v
	}
}

func (d *decoder) array(path string, depth int) (any, error) {
	arr := []any{}
	for i := 0; ; i++ {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := d.value(tok, joinJSONPointer(path, strconv.Itoa(i)), depth)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

// ParseNumber converts JSON number text to int64 when integral and in range,
// float64 otherwise.
func ParseNumber(s string) (any, error) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

func normalizeIssuePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var jsonPointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func joinJSONPointer(base, token string) string {
	return base + "/" + jsonPointerEscaper.Replace(token)
}
