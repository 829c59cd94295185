package pg

import (
	proxy "github.com/tomyedwab/hostsql/sqlproxy/pg"
)

// TypeInfo describes a PostgreSQL value or column type for display.
type TypeInfo int

const (
	TypeNull TypeInfo = iota
	TypeBool
	TypeInt16
	TypeInt32
	TypeInt64
	TypeFloating32
	TypeFloating64
	TypeStr
	TypeBinary
	TypeUnsupported
)

var typeNames = [...]string{
	TypeNull:        "NULL",
	TypeBool:        "boolean",
	TypeInt16:       "smallint",
	TypeInt32:       "int",
	TypeInt64:       "bigint",
	TypeFloating32:  "real",
	TypeFloating64:  "double precision",
	TypeStr:         "text",
	TypeBinary:      "bytea",
	TypeUnsupported: "<unsupported>",
}

// Name returns the PostgreSQL name of the type.
func (t TypeInfo) Name() string {
	if t < 0 || int(t) >= len(typeNames) {
		return typeNames[TypeUnsupported]
	}
	return typeNames[t]
}

func (t TypeInfo) String() string {
	return t.Name()
}

func (t TypeInfo) IsNull() bool {
	return t == TypeNull
}

func typeInfoFor(dt proxy.DataType) TypeInfo {
	switch dt {
	case proxy.DataTypeBoolean:
		return TypeBool
	case proxy.DataTypeInt16:
		return TypeInt16
	case proxy.DataTypeInt32:
		return TypeInt32
	case proxy.DataTypeInt64:
		return TypeInt64
	case proxy.DataTypeFloating32:
		return TypeFloating32
	case proxy.DataTypeFloating64:
		return TypeFloating64
	case proxy.DataTypeStr:
		return TypeStr
	case proxy.DataTypeBinary:
		return TypeBinary
	}
	return TypeUnsupported
}

// Value is a single cell or bound parameter.
type Value struct {
	inner proxy.Value
}

// NewValue wraps a host value.
func NewValue(v proxy.Value) Value {
	if v == nil {
		v = proxy.DbNull{}
	}
	return Value{inner: v}
}

// Inner returns the host representation.
func (v Value) Inner() proxy.Value {
	if v.inner == nil {
		return proxy.DbNull{}
	}
	return v.inner
}

// TypeInfo reports the value's type. Unsigned variants, which only appear
// in values produced by older hosts, have no PostgreSQL type and report
// <unsupported>.
func (v Value) TypeInfo() TypeInfo {
	switch v.Inner().(type) {
	case proxy.DbNull:
		return TypeNull
	case proxy.Boolean:
		return TypeBool
	case proxy.Int16:
		return TypeInt16
	case proxy.Int32:
		return TypeInt32
	case proxy.Int64:
		return TypeInt64
	case proxy.Floating32:
		return TypeFloating32
	case proxy.Floating64:
		return TypeFloating64
	case proxy.Str:
		return TypeStr
	case proxy.Binary:
		return TypeBinary
	}
	return TypeUnsupported
}

func (v Value) IsNull() bool {
	_, ok := v.Inner().(proxy.DbNull)
	return ok
}
