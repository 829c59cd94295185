package sqlite

import (
	proxy "github.com/tomyedwab/hostsql/sqlproxy/sqlite"
)

// TypeInfo describes the storage class of a value. It is informational
// only; decoding always inspects the Value itself.
type TypeInfo int

const (
	TypeNull TypeInfo = iota
	TypeInt
	TypeReal
	TypeText
	TypeBlob
)

// Name returns the SQL name of the type.
func (t TypeInfo) Name() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeReal:
		return "REAL"
	case TypeText:
		return "TEXT"
	case TypeBlob:
		return "BINARY"
	}
	return "NULL"
}

func (t TypeInfo) String() string {
	return t.Name()
}

func (t TypeInfo) IsNull() bool {
	return t == TypeNull
}

// Value is a single cell or bound parameter.
type Value struct {
	inner proxy.Value
}

// NewValue wraps a host value.
func NewValue(v proxy.Value) Value {
	if v == nil {
		v = proxy.Null{}
	}
	return Value{inner: v}
}

// Inner returns the host representation.
func (v Value) Inner() proxy.Value {
	if v.inner == nil {
		return proxy.Null{}
	}
	return v.inner
}

func (v Value) TypeInfo() TypeInfo {
	switch v.Inner().(type) {
	case proxy.Integer:
		return TypeInt
	case proxy.Real:
		return TypeReal
	case proxy.Text:
		return TypeText
	case proxy.Blob:
		return TypeBlob
	}
	return TypeNull
}

func (v Value) IsNull() bool {
	_, ok := v.Inner().(proxy.Null)
	return ok
}
