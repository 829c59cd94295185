package pg

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"

	"github.com/tomyedwab/hostsql/internal/convert"
	"github.com/tomyedwab/hostsql/sqlerr"
	proxy "github.com/tomyedwab/hostsql/sqlproxy/pg"
)

// Scalar is the set of Go types with a PostgreSQL encoding. PostgreSQL has
// no unsigned integer types, so none are included.
type Scalar interface {
	int16 | int32 | int64 | int | float32 | float64 | bool | string | []byte
}

var errUnsupportedType = errors.New("type has no PostgreSQL encoding")

// Encode converts v to its PostgreSQL value. Each integer width keeps its
// own variant; int is encoded as Int64.
func Encode[T Scalar](v T) Value {
	switch x := any(v).(type) {
	case int16:
		return Value{proxy.Int16(x)}
	case int32:
		return Value{proxy.Int32(x)}
	case int64:
		return Value{proxy.Int64(x)}
	case int:
		return Value{proxy.Int64(x)}
	case float32:
		return Value{proxy.Floating32(x)}
	case float64:
		return Value{proxy.Floating64(x)}
	case bool:
		return Value{proxy.Boolean(x)}
	case string:
		return Value{proxy.Str(x)}
	case []byte:
		return Value{proxy.Binary(x)}
	}
	panic(fmt.Sprintf("pg: no encoding for %T", v))
}

// EncodeNullable encodes a nil pointer as DbNull and reports that it did so.
func EncodeNullable[T Scalar](v *T) (Value, bool) {
	if v == nil {
		return Value{proxy.DbNull{}}, true
	}
	return Encode(*v), false
}

// Decode converts v to T. Integers decode from their own variant and from
// any narrower one; unsigned variants are accepted where they fit. Every
// other type decodes only from its own variant.
func Decode[T Scalar](v Value) (T, error) {
	var out T
	var err error
	switch p := any(&out).(type) {
	case *int16:
		*p, err = decodeInt16(v)
	case *int32:
		*p, err = decodeInt32(v)
	case *int64:
		*p, err = decodeInt64[int64](v)
	case *int:
		*p, err = decodeInt64[int](v)
	case *float32:
		f, ok := v.Inner().(proxy.Floating32)
		*p, err = float32(f), badType(ok)
	case *float64:
		f, ok := v.Inner().(proxy.Floating64)
		*p, err = float64(f), badType(ok)
	case *bool:
		b, ok := v.Inner().(proxy.Boolean)
		*p, err = bool(b), badType(ok)
	case *string:
		s, ok := v.Inner().(proxy.Str)
		*p, err = string(s), badType(ok)
	case *[]byte:
		b, ok := v.Inner().(proxy.Binary)
		*p, err = []byte(b), badType(ok)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// DecodeNullable returns nil for DbNull and otherwise decodes like Decode.
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

func badType(ok bool) error {
	if ok {
		return nil
	}
	return sqlerr.ErrBadType
}

func decodeInt16(v Value) (int16, error) {
	switch x := v.Inner().(type) {
	case proxy.Int16:
		return int16(x), nil
	case proxy.Uint8:
		return int16(x), nil
	}
	return 0, sqlerr.ErrBadType
}

func decodeInt32(v Value) (int32, error) {
	switch x := v.Inner().(type) {
	case proxy.Int16:
		return int32(x), nil
	case proxy.Int32:
		return int32(x), nil
	case proxy.Uint8:
		return int32(x), nil
	case proxy.Uint16:
		return int32(x), nil
	}
	return 0, sqlerr.ErrBadType
}

func decodeInt64[T int64 | int](v Value) (T, error) {
	switch x := v.Inner().(type) {
	case proxy.Int16:
		return T(x), nil
	case proxy.Int32:
		return T(x), nil
	case proxy.Int64:
		return convert.Int[T](int64(x))
	case proxy.Uint8:
		return T(x), nil
	case proxy.Uint16:
		return T(x), nil
	case proxy.Uint32:
		return convert.Int[T](uint32(x))
	case proxy.Uint64:
		return convert.Uint64ToInt[T](uint64(x))
	}
	return 0, sqlerr.ErrBadType
}

// EncodeAny encodes a value whose type is only known at run time. It accepts
// nil, Value, every Scalar type, types whose underlying kind is one of
// those, pointers (nil pointers encode as DbNull) and driver.Valuer. int8
// and the unsigned integers are rejected.
func EncodeAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Value{proxy.DbNull{}}, nil
	case Value:
		return NewValue(x.inner), nil
	case int16:
		return Encode(x), nil
	case int32:
		return Encode(x), nil
	case int64:
		return Encode(x), nil
	case int:
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
	case int8, uint8, uint16, uint32, uint64, uint:
		return Value{}, fmt.Errorf("%T: %w", v, errUnsupportedType)
	case driver.Valuer:
		rv := reflect.ValueOf(x)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return Value{proxy.DbNull{}}, nil
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

func encodeReflect(v any) (Value, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Value{proxy.DbNull{}}, nil
		}
		return EncodeAny(rv.Elem().Interface())
	case reflect.Int16:
		return Value{proxy.Int16(rv.Int())}, nil
	case reflect.Int32:
		return Value{proxy.Int32(rv.Int())}, nil
	case reflect.Int64, reflect.Int:
		return Value{proxy.Int64(rv.Int())}, nil
	case reflect.Float32:
		return Value{proxy.Floating32(rv.Float())}, nil
	case reflect.Float64:
		return Value{proxy.Floating64(rv.Float())}, nil
	case reflect.Bool:
		return Value{proxy.Boolean(rv.Bool())}, nil
	case reflect.String:
		return Value{proxy.Str(rv.String())}, nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Value{proxy.Binary(rv.Bytes())}, nil
		}
	}
	return Value{}, fmt.Errorf("%T: %w", v, errUnsupportedType)
}

// driverValue converts a Value to one of the types database/sql accepts.
// Unsigned values are reported as int64 when they fit.
func driverValue(v Value) (driver.Value, error) {
	switch x := v.Inner().(type) {
	case proxy.DbNull:
		return nil, nil
	case proxy.Boolean:
		return bool(x), nil
	case proxy.Int16:
		return int64(x), nil
	case proxy.Int32:
		return int64(x), nil
	case proxy.Int64:
		return int64(x), nil
	case proxy.Uint8:
		return int64(x), nil
	case proxy.Uint16:
		return int64(x), nil
	case proxy.Uint32:
		return int64(x), nil
	case proxy.Uint64:
		return convert.Uint64ToInt[int64](uint64(x))
	case proxy.Floating32:
		return float64(x), nil
	case proxy.Floating64:
		return float64(x), nil
	case proxy.Str:
		return string(x), nil
	case proxy.Binary:
		return []byte(x), nil
	}
	return nil, sqlerr.ErrBadType
}
