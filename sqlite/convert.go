package sqlite

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"

	"github.com/tomyedwab/hostsql/internal/convert"
	"github.com/tomyedwab/hostsql/sqlerr"
	proxy "github.com/tomyedwab/hostsql/sqlproxy/sqlite"
)

// Scalar is the set of Go types with an SQLite encoding. uint and uint64
// are deliberately absent: they cannot be stored losslessly in a signed
// 64-bit Integer.
type Scalar interface {
	int8 | int16 | int32 | int64 | int | uint8 | uint16 | uint32 |
		float32 | float64 | bool | string | []byte
}

var errUnsupportedType = errors.New("type has no SQLite encoding")

// Encode converts v to its SQLite value. Integers and booleans become
// Integer, floats become Real.
func Encode[T Scalar](v T) Value {
	switch x := any(v).(type) {
	case int8:
		return Value{proxy.Integer(x)}
	case int16:
		return Value{proxy.Integer(x)}
	case int32:
		return Value{proxy.Integer(x)}
	case int64:
		return Value{proxy.Integer(x)}
	case int:
		return Value{proxy.Integer(x)}
	case uint8:
		return Value{proxy.Integer(x)}
	case uint16:
		return Value{proxy.Integer(x)}
	case uint32:
		return Value{proxy.Integer(x)}
	case float32:
		return Value{proxy.Real(x)}
	case float64:
		return Value{proxy.Real(x)}
	case bool:
		return Value{proxy.Integer(convert.IntFromBool(x))}
	case string:
		return Value{proxy.Text(x)}
	case []byte:
		return Value{proxy.Blob(x)}
	}
	panic(fmt.Sprintf("sqlite: no encoding for %T", v))
}

// EncodeNullable encodes a nil pointer as Null and reports that it did so.
func EncodeNullable[T Scalar](v *T) (Value, bool) {
	if v == nil {
		return Value{proxy.Null{}}, true
	}
	return Encode(*v), false
}

// Decode converts v to T. A variant that does not match T is
// sqlerr.ErrBadType, including Null; a matching variant whose value does not
// fit T is sqlerr.ErrBadValue. Decoding into float32 rounds to the nearest
// float32 and is never an error.
func Decode[T Scalar](v Value) (T, error) {
	var out T
	var err error
	switch p := any(&out).(type) {
	case *int8:
		*p, err = decodeInt[int8](v)
	case *int16:
		*p, err = decodeInt[int16](v)
	case *int32:
		*p, err = decodeInt[int32](v)
	case *int64:
		*p, err = decodeInt[int64](v)
	case *int:
		*p, err = decodeInt[int](v)
	case *uint8:
		*p, err = decodeInt[uint8](v)
	case *uint16:
		*p, err = decodeInt[uint16](v)
	case *uint32:
		*p, err = decodeInt[uint32](v)
	case *float32:
		var f float64
		f, err = decodeReal(v)
		*p = float32(f)
	case *float64:
		*p, err = decodeReal(v)
	case *bool:
		var n int64
		if n, err = decodeInt[int64](v); err == nil {
			*p, err = convert.BoolFromInt(n)
		}
	case *string:
		t, ok := v.Inner().(proxy.Text)
		if !ok {
			return out, sqlerr.ErrBadType
		}
		*p = string(t)
	case *[]byte:
		b, ok := v.Inner().(proxy.Blob)
		if !ok {
			return out, sqlerr.ErrBadType
		}
		*p = []byte(b)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// DecodeNullable returns nil for Null and otherwise decodes like Decode.
func DecodeNullable[T Scalar](v Value) (*T, error) {
	if v.IsNull() {
		return nil, nil
	}
	out, err := Decode[T](v)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func decodeInt[T int8 | int16 | int32 | int64 | int | uint8 | uint16 | uint32](v Value) (T, error) {
	n, ok := v.Inner().(proxy.Integer)
	if !ok {
		return 0, sqlerr.ErrBadType
	}
	return convert.Int[T](int64(n))
}

func decodeReal(v Value) (float64, error) {
	f, ok := v.Inner().(proxy.Real)
	if !ok {
		return 0, sqlerr.ErrBadType
	}
	return float64(f), nil
}

// EncodeAny encodes a value whose type is only known at run time. It accepts
// nil, Value, every Scalar type, types whose underlying kind is a Scalar,
// pointers to any of those (nil pointers encode as Null) and driver.Valuer.
func EncodeAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Value{proxy.Null{}}, nil
	case Value:
		return NewValue(x.inner), nil
	case int8:
		return Encode(x), nil
	case int16:
		return Encode(x), nil
	case int32:
		return Encode(x), nil
	case int64:
		return Encode(x), nil
	case int:
		return Encode(x), nil
	case uint8:
		return Encode(x), nil
	case uint16:
		return Encode(x), nil
	case uint32:
		return Encode(x), nil
	case float32:
		return Encode(x), nil
	case float64:
		return Encode(x), nil
	case bool:
		return Encode(x), nil
	case string:
		return Encode(x), nil
	case []byte:
		return Encode(x), nil
	case uint, uint64:
		return Value{}, fmt.Errorf("%T: %w", v, errUnsupportedType)
	case driver.Valuer:
		rv := reflect.ValueOf(x)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return Value{proxy.Null{}}, nil
		}
		dv, err := x.Value()
		if err != nil {
			return Value{}, err
		}
		if _, again := dv.(driver.Valuer); again {
			return Value{}, fmt.Errorf("%T: Value returned another driver.Valuer", v)
		}
		return EncodeAny(dv)
	}
	return encodeReflect(v)
}

// encodeReflect handles pointers and named types such as `type Age int16`.
func encodeReflect(v any) (Value, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Value{proxy.Null{}}, nil
		}
		return EncodeAny(rv.Elem().Interface())
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return Value{proxy.Integer(rv.Int())}, nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return Value{proxy.Integer(int64(rv.Uint()))}, nil
	case reflect.Float32, reflect.Float64:
		return Value{proxy.Real(rv.Float())}, nil
	case reflect.Bool:
		return Value{proxy.Integer(convert.IntFromBool(rv.Bool()))}, nil
	case reflect.String:
		return Value{proxy.Text(rv.String())}, nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Value{proxy.Blob(rv.Bytes())}, nil
		}
	}
	return Value{}, fmt.Errorf("%T: %w", v, errUnsupportedType)
}

// driverValue converts a Value to one of the types database/sql accepts.
func driverValue(v Value) driver.Value {
	switch x := v.Inner().(type) {
	case proxy.Integer:
		return int64(x)
	case proxy.Real:
		return float64(x)
	case proxy.Text:
		return string(x)
	case proxy.Blob:
		return []byte(x)
	}
	return nil
}
