// Package sqlerr holds the error taxonomy shared by the embedded (sqlite) and
// remote (pg) adapters. Host errors are translated into these types so that
// callers can branch on the kind of failure with errors.As / errors.Is
// regardless of which backend produced it.
package sqlerr

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrBadType is returned when a value's variant does not match the
	// requested Go type.
	ErrBadType = errors.New("bad type")

	// ErrBadValue is returned when the variant matches but the value does
	// not fit the requested Go type (for example an integer overflow).
	ErrBadValue = errors.New("bad value")

	// ErrRowNotFound is returned by FetchOne when the query produced no rows.
	ErrRowNotFound = errors.New("no rows in result set")
)

// ConfigurationError reports an unusable connect string or option.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("error with configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// IoKind classifies an IoError.
type IoKind int

const (
	IoOther IoKind = iota
	IoNotFound
)

func (k IoKind) String() string {
	if k == IoNotFound {
		return "not found"
	}
	return "other"
}

// IoError reports a failure talking to the host or reaching the database.
type IoError struct {
	Kind    IoKind
	Message string
}

func (e *IoError) Error() string {
	return fmt.Sprintf("error communicating with database: %s", e.Message)
}

// Is lets NotFound errors match fs.ErrNotExist.
func (e *IoError) Is(target error) bool {
	return e.Kind == IoNotFound && target == fs.ErrNotExist
}

// DatabaseKind mirrors the coarse classification of database errors. The
// hosts report no constraint classification, so every DatabaseError is
// KindOther.
type DatabaseKind int

const (
	KindOther DatabaseKind = iota
)

// DatabaseError is an error reported by the database itself.
type DatabaseError struct {
	Message string
	Kind    DatabaseKind
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("error returned from database: %s", e.Message)
}

// EncodeError is returned when a bound argument cannot be represented by the
// backend. The query is aborted before the host is called.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("error occurred while encoding a value: %v", e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError is returned when the host reports that it could not convert
// a value, or a value could not be decoded outside of a column context.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error occurred while decoding: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ColumnIndexOutOfBoundsError is returned for an ordinal past the row width.
type ColumnIndexOutOfBoundsError struct {
	Index int
	Len   int
}

func (e *ColumnIndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("column index out of bounds: the len is %d, but the index is %d", e.Len, e.Index)
}

// ColumnNotFoundError is returned when no column has the requested name.
type ColumnNotFoundError struct {
	Name string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("no column found for name: %s", e.Name)
}

// ColumnDecodeError wraps a conversion failure with the column it came from.
type ColumnDecodeError struct {
	Column string
	Err    error
}

func (e *ColumnDecodeError) Error() string {
	return fmt.Sprintf("error occurred while decoding column %s: %v", e.Column, e.Err)
}

func (e *ColumnDecodeError) Unwrap() error { return e.Err }

// UnsupportedError marks an operation the host cannot provide at all.
// Callers should treat it as a permanent capability gap.
type UnsupportedError struct {
	Backend string
	Op      string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s is not supported", e.Backend, e.Op)
}

func (e *UnsupportedError) Unwrap() error { return errors.ErrUnsupported }

// Unsupported builds an UnsupportedError.
func Unsupported(backend, op string) error {
	return &UnsupportedError{Backend: backend, Op: op}
}
