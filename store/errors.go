package store

import (
	"fmt"

	"github.com/agnivade/levenshtein"

	"github.com/confer-dev/confer/value"
)

// ErrCode enumerates a closed taxonomy: every fallible
// operation in this package returns one of these, never a bare error.
type ErrCode int

const (
	// IOErr indicates the underlying byte stream failed.
	IOErr ErrCode = iota
	// ParseErr indicates TOML text did not decode.
	ParseErr
	// SerializeErr indicates the in-memory mapping could not encode as TOML.
	SerializeErr
	// MissingKeyErr indicates a required (section, key) was absent during a typed read.
	MissingKeyErr
	// TypeMismatchErr indicates a present value's tag disagrees with the requested type.
	TypeMismatchErr
	// ValueParseErr indicates conversion to the target type failed after type checks.
	ValueParseErr
)

func (c ErrCode) String() string {
	switch c {
	case IOErr:
		return "io"
	case ParseErr:
		return "parse"
	case SerializeErr:
		return "serialize"
	case MissingKeyErr:
		return "missing-key"
	case TypeMismatchErr:
		return "type-mismatch"
	case ValueParseErr:
		return "value-parse"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every fallible operation in
// this package. Section/Key/Expected/Found/Path are populated
// according to the ErrCode; see the field comments.
type Error struct {
	Code ErrCode

	// Section and Key identify the (section, key) pair involved, when
	// applicable (MissingKeyErr, TypeMismatchErr, ValueParseErr).
	Section string
	Key     string

	// Expected and Found name value-algebra tags for TypeMismatchErr.
	Expected string
	Found    string

	// Path is set for IOErr.
	Path string

	Message string
	cause   error
}

func (e *Error) Error() string {
	switch e.Code {
	case MissingKeyErr:
		return fmt.Sprintf("missing-key: section %q has no key %q", e.Section, e.Key)
	case TypeMismatchErr:
		return fmt.Sprintf("type-mismatch: %s.%s: expected %s, found %s", e.Section, e.Key, e.Expected, e.Found)
	case ValueParseErr:
		if e.Section != "" || e.Key != "" {
			return fmt.Sprintf("value-parse: %s.%s: %s", e.Section, e.Key, e.Message)
		}
		return fmt.Sprintf("value-parse: %s", e.Message)
	case IOErr:
		return fmt.Sprintf("io: %s: %v", e.Path, e.cause)
	case ParseErr:
		return fmt.Sprintf("parse: %v", e.cause)
	case SerializeErr:
		return fmt.Sprintf("serialize: %v", e.cause)
	default:
		return fmt.Sprintf("confer store error (code %s): %s", e.Code, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// IsMissingKey, IsTypeMismatch, IsValueParse, IsIO, IsParse, and
// IsSerialize report whether err carries the named code.
func IsMissingKey(err error) bool   { return hasCode(err, MissingKeyErr) }
func IsTypeMismatch(err error) bool { return hasCode(err, TypeMismatchErr) }
func IsValueParse(err error) bool   { return hasCode(err, ValueParseErr) }
func IsIO(err error) bool           { return hasCode(err, IOErr) }
func IsParse(err error) bool        { return hasCode(err, ParseErr) }
func IsSerialize(err error) bool    { return hasCode(err, SerializeErr) }

func hasCode(err error, code ErrCode) bool {
	e, ok := err.(*Error)
	return ok && e.Code == code
}

func missingKeyError(section, key string, existing []string) *Error {
	e := &Error{Code: MissingKeyErr, Section: section, Key: key}
	if hint := suggestKey(key, existing); hint != "" {
		e.Message = fmt.Sprintf("did you mean %q?", hint)
	}
	return e
}

func typeMismatchError(section, key string, expected, found value.Kind) *Error {
	return &Error{
		Code:     TypeMismatchErr,
		Section:  section,
		Key:      key,
		Expected: expected.String(),
		Found:    found.String(),
	}
}

func valueParseError(section, key, message string) *Error {
	return &Error{Code: ValueParseErr, Section: section, Key: key, Message: message}
}

// NewValueParseError constructs a ValueParseErr for a collaborator
// outside this package (the module binding layer's write path) that
// detects a value-parse failure before the value ever reaches a
// typed setter.
func NewValueParseError(section, key, message string) *Error {
	return valueParseError(section, key, message)
}

func ioError(path string, cause error) *Error {
	return &Error{Code: IOErr, Path: path, cause: cause}
}

func parseError(cause error) *Error {
	return &Error{Code: ParseErr, cause: cause}
}

func serializeError(cause error) *Error {
	return &Error{Code: SerializeErr, cause: cause}
}

// suggestKey returns the closest existing key to key by Levenshtein
// distance, if any is within a small edit-distance budget. It powers
// the "did you mean" hint on missing-key diagnostics.
func suggestKey(key string, existing []string) string {
	best := ""
	bestDist := -1
	budget := len(key)/2 + 1
	for _, candidate := range existing {
		d := levenshtein.ComputeDistance(key, candidate)
		if d > budget {
			continue
		}
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = candidate
		}
	}
	return best
}
