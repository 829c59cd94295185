// Package pg is the guest-side binding of the host's outbound PostgreSQL
// interface: connections are opened by connection string, Query returns a
// complete RowSet and Execute returns the number of affected rows.
package pg

import (
	"encoding/json"
	"fmt"

	"github.com/tomyedwab/hostsql/sqlproxy"
)

// Value is one PostgreSQL cell or bound parameter.
type Value interface {
	isValue()
}

type DbNull struct{}

type Boolean bool

type Int16 int16

type Int32 int32

type Int64 int64

type Uint8 uint8

type Uint16 uint16

type Uint32 uint32

type Uint64 uint64

type Floating32 float32

type Floating64 float64

type Str string

type Binary []byte

// Unsupported stands in for a column value the host has no variant for.
type Unsupported struct{}

func (DbNull) isValue()      {}
func (Boolean) isValue()     {}
func (Int16) isValue()       {}
func (Int32) isValue()       {}
func (Int64) isValue()       {}
func (Uint8) isValue()       {}
func (Uint16) isValue()      {}
func (Uint32) isValue()      {}
func (Uint64) isValue()      {}
func (Floating32) isValue()  {}
func (Floating64) isValue()  {}
func (Str) isValue()         {}
func (Binary) isValue()      {}
func (Unsupported) isValue() {}

// Values is a list of values with a JSON encoding that preserves the variant.
type Values []Value

func (vs Values) MarshalJSON() ([]byte, error) {
	tagged := make([]sqlproxy.TaggedValue, len(vs))
	for i, v := range vs {
		var err error
		switch v := v.(type) {
		case nil, DbNull:
			tagged[i], err = sqlproxy.Tag("db_null", nil)
		case Boolean:
			tagged[i], err = sqlproxy.Tag("boolean", bool(v))
		case Int16:
			tagged[i], err = sqlproxy.Tag("int16", int16(v))
		case Int32:
			tagged[i], err = sqlproxy.Tag("int32", int32(v))
		case Int64:
			tagged[i], err = sqlproxy.Tag("int64", int64(v))
		case Uint8:
			tagged[i], err = sqlproxy.Tag("uint8", uint8(v))
		case Uint16:
			tagged[i], err = sqlproxy.Tag("uint16", uint16(v))
		case Uint32:
			tagged[i], err = sqlproxy.Tag("uint32", uint32(v))
		case Uint64:
			tagged[i], err = sqlproxy.Tag("uint64", uint64(v))
		case Floating32:
			tagged[i], err = sqlproxy.TagFloat("floating32", float64(v))
		case Floating64:
			tagged[i], err = sqlproxy.TagFloat("floating64", float64(v))
		case Str:
			tagged[i], err = sqlproxy.TagText("str", string(v))
		case Binary:
			tagged[i], err = sqlproxy.Tag("binary", []byte(v))
		case Unsupported:
			tagged[i], err = sqlproxy.Tag("unsupported", nil)
		default:
			err = fmt.Errorf("unknown pg value %T", v)
		}
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(tagged)
}

func (vs *Values) UnmarshalJSON(data []byte) error {
	var tagged []sqlproxy.TaggedValue
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	out := make(Values, len(tagged))
	for i, tv := range tagged {
		v, err := untag(tv)
		if err != nil {
			return err
		}
		out[i] = v
	}
	*vs = out
	return nil
}

func untag(tv sqlproxy.TaggedValue) (Value, error) {
	switch tv.Type {
	case "db_null":
		return DbNull{}, nil
	case "unsupported":
		return Unsupported{}, nil
	case "boolean":
		v, err := sqlproxy.Untag[bool](tv)
		return Boolean(v), err
	case "int16":
		v, err := sqlproxy.Untag[int16](tv)
		return Int16(v), err
	case "int32":
		v, err := sqlproxy.Untag[int32](tv)
		return Int32(v), err
	case "int64":
		v, err := sqlproxy.Untag[int64](tv)
		return Int64(v), err
	case "uint8":
		v, err := sqlproxy.Untag[uint8](tv)
		return Uint8(v), err
	case "uint16":
		v, err := sqlproxy.Untag[uint16](tv)
		return Uint16(v), err
	case "uint32":
		v, err := sqlproxy.Untag[uint32](tv)
		return Uint32(v), err
	case "uint64":
		v, err := sqlproxy.Untag[uint64](tv)
		return Uint64(v), err
	case "floating32":
		v, err := sqlproxy.UntagFloat(tv)
		return Floating32(v), err
	case "floating64":
		v, err := sqlproxy.UntagFloat(tv)
		return Floating64(v), err
	case "str":
		v, err := sqlproxy.UntagText(tv)
		return Str(v), err
	case "binary":
		v, err := sqlproxy.Untag[[]byte](tv)
		return Binary(v), err
	}
	return nil, fmt.Errorf("unknown pg value type %q", tv.Type)
}

// DataType is the host's description of a column's type. Column types with
// no constant here are reported as DataTypeOther.
type DataType string

const (
	DataTypeBoolean    DataType = "boolean"
	DataTypeInt16      DataType = "int16"
	DataTypeInt32      DataType = "int32"
	DataTypeInt64      DataType = "int64"
	DataTypeFloating32 DataType = "floating32"
	DataTypeFloating64 DataType = "floating64"
	DataTypeStr        DataType = "str"
	DataTypeBinary     DataType = "binary"
	DataTypeOther      DataType = "other"
)

// Column describes one column of a RowSet.
type Column struct {
	Name     string   `json:"name"`
	DataType DataType `json:"data_type"`
}

// RowSet is the complete result of a query.
type RowSet struct {
	Columns []Column `json:"columns"`
	Rows    []Values `json:"rows"`
}

// ErrorKind enumerates the failures the host can report.
type ErrorKind string

const (
	ErrConnectionFailed      ErrorKind = "connection_failed"
	ErrBadParameter          ErrorKind = "bad_parameter"
	ErrQueryFailed           ErrorKind = "query_failed"
	ErrValueConversionFailed ErrorKind = "value_conversion_failed"
	ErrOther                 ErrorKind = "other"
	// ErrDecode is reported when the host's reply could not be decoded.
	ErrDecode ErrorKind = "decode"
)

// Error is a host-reported failure.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message,omitempty"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pg host: %s", e.Kind)
	}
	return fmt.Sprintf("pg host: %s: %s", e.Kind, e.Message)
}

// Request is sent to the host for every operation.
type Request struct {
	Command string `json:"command"`
	Address string `json:"address,omitempty"`
	Conn    string `json:"conn,omitempty"`
	SQL     string `json:"sql,omitempty"`
	Args    Values `json:"args,omitempty"`
}

// Response is the host's reply to a Request.
type Response struct {
	Conn   string  `json:"conn,omitempty"`
	RowSet *RowSet `json:"row_set,omitempty"`
	Count  uint64  `json:"count,omitempty"`
	Error  *Error  `json:"error,omitempty"`
}

const (
	CommandOpen    = "open"
	CommandQuery   = "query"
	CommandExecute = "execute"
	CommandClose   = "close"
)
