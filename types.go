package sinkfield

import (
	"fmt"
	"strings"
	"time"
)

// FieldType is the declared column type of a field.
type FieldType int

const (
	TypeString    FieldType = iota // Text.
	TypeBytes                      // Binary.
	TypeBoolean                    // Boolean.
	TypeInteger                    // 64-bit integer.
	TypeFloat                      // 64-bit floating point.
	TypeNumeric                    // Fixed-precision decimal, carried as text.
	TypeTimestamp                  // Absolute point in time.
	TypeDate                       // Calendar date.
	TypeDateTime                   // Date and wall-clock time without a zone.
	TypeTime                       // Wall-clock time of day.
	TypeStruct                     // Named bundle of child fields.
)

// TypeRecord is the legacy name of TypeStruct.
const TypeRecord = TypeStruct

var _typeNames = [...]string{
	TypeString:    "STRING",
	TypeBytes:     "BYTES",
	TypeBoolean:   "BOOLEAN",
	TypeInteger:   "INTEGER",
	TypeFloat:     "FLOAT",
	TypeNumeric:   "NUMERIC",
	TypeTimestamp: "TIMESTAMP",
	TypeDate:      "DATE",
	TypeDateTime:  "DATETIME",
	TypeTime:      "TIME",
	TypeStruct:    "STRUCT",
}

func (t FieldType) String() string {
	if t < 0 || int(t) >= len(_typeNames) {
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
	return _typeNames[t]
}

// ParseFieldType accepts the upper- or lower-case type tag. RECORD is accepted
// as an alias of STRUCT.
func ParseFieldType(s string) (FieldType, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	if up == "RECORD" {
		return TypeStruct, nil
	}
	for i, n := range _typeNames {
		if n == up {
			return FieldType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown field type %q", ErrInvalidSchema, s)
}

func (t FieldType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *FieldType) UnmarshalText(b []byte) error {
	v, err := ParseFieldType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// FieldMode is the cardinality of a field.
type FieldMode int

const (
	ModeNullable FieldMode = iota // Optional single value (default).
	ModeRequired                  // Required single value.
	ModeRepeated                  // Zero or more values.
)

func (m FieldMode) String() string {
	switch m {
	case ModeNullable:
		return "NULLABLE"
	case ModeRequired:
		return "REQUIRED"
	case ModeRepeated:
		return "REPEATED"
	default:
		return fmt.Sprintf("FieldMode(%d)", int(m))
	}
}

// ParseFieldMode accepts NULLABLE, REQUIRED or REPEATED in any case. The empty
// string maps to ModeNullable.
func ParseFieldMode(s string) (FieldMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NULLABLE":
		return ModeNullable, nil
	case "REQUIRED":
		return ModeRequired, nil
	case "REPEATED":
		return ModeRepeated, nil
	}
	return 0, fmt.Errorf("%w: unknown field mode %q", ErrInvalidSchema, s)
}

func (m FieldMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *FieldMode) UnmarshalText(b []byte) error {
	v, err := ParseFieldMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ErrorDecision decides whether an error raised while extracting a field at
// ambient should propagate (true) or collapse to a null value (false).
type ErrorDecision func(record any, ambient Path, err error) bool

// SourceFunc computes a field value directly from the record, bypassing path
// resolution and coercion.
type SourceFunc func(record any, ambient Path) (any, error)

// Default limits.
const (
	DefaultMaxDepth   = 256
	DefaultMaxPathLen = 4096
)

// ExtractOpt bundles extraction options. When several are passed the last one
// wins.
type ExtractOpt struct {
	// SkipEnsureType returns resolved leaf values as found in the record.
	SkipEnsureType bool
	// ShouldFire is the call-wide error decision. nil re-raises every error.
	ShouldFire ErrorDecision
	// MaxDepth bounds nested field extraction (schema depth plus unrolled
	// iteration markers). Zero means DefaultMaxDepth.
	MaxDepth int
	// MaxPathLen bounds a path after dynamic segments are spliced in. Zero
	// means DefaultMaxPathLen.
	MaxPathLen int
	// Location interprets integer Unix timestamps for DATE fields. nil means
	// time.Local.
	Location *time.Location
}

func lastExtractOpt(opts []ExtractOpt) ExtractOpt {
	if len(opts) == 0 {
		return ExtractOpt{}
	}
	return opts[len(opts)-1]
}

func (o ExtractOpt) maxDepth() int {
	if o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return DefaultMaxDepth
}

func (o ExtractOpt) location() *time.Location {
	if o.Location != nil {
		return o.Location
	}
	return time.Local
}

func (o ExtractOpt) resolveOpt() ResolveOpt { return ResolveOpt{MaxPathLen: o.MaxPathLen} }

// ResolveOpt bundles path resolution options.
type ResolveOpt struct {
	MaxPathLen int
}

func (o ResolveOpt) maxPathLen() int {
	if o.MaxPathLen > 0 {
		return o.MaxPathLen
	}
	return DefaultMaxPathLen
}
