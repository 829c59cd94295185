package pg

import (
	"fmt"
	"strconv"

	"github.com/tomyedwab/hostsql/sqlerr"
	proxy "github.com/tomyedwab/hostsql/sqlproxy/pg"
)

// Column is one column of a result set, as described by the host.
type Column struct {
	ordinal  int
	name     string
	typeInfo TypeInfo
}

func (c Column) Ordinal() int { return c.ordinal }

func (c Column) Name() string { return c.name }

func (c Column) TypeInfo() TypeInfo { return c.typeInfo }

func newColumns(cols []proxy.Column) []Column {
	columns := make([]Column, len(cols))
	for i, c := range cols {
		columns[i] = Column{ordinal: i, name: c.Name, typeInfo: typeInfoFor(c.DataType)}
	}
	return columns
}

// Row is one row of a result set. Rows of the same result share one
// read-only column slice.
type Row struct {
	columns []Column
	values  []proxy.Value
}

func (r *Row) Columns() []Column {
	return r.columns
}

func (r *Row) Len() int {
	return len(r.values)
}

// Get returns the value at ordinal.
func (r *Row) Get(ordinal int) (Value, error) {
	if ordinal < 0 || ordinal >= len(r.values) {
		return Value{}, &sqlerr.ColumnIndexOutOfBoundsError{Index: ordinal, Len: len(r.values)}
	}
	return NewValue(r.values[ordinal]), nil
}

// Index returns the ordinal of the first column named name.
func (r *Row) Index(name string) (int, error) {
	for _, c := range r.columns {
		if c.name == name {
			return c.ordinal, nil
		}
	}
	return 0, &sqlerr.ColumnNotFoundError{Name: name}
}

func (r *Row) GetByName(name string) (Value, error) {
	i, err := r.Index(name)
	if err != nil {
		return Value{}, err
	}
	return r.Get(i)
}

func (r *Row) columnName(ordinal int) string {
	if ordinal < len(r.columns) {
		return r.columns[ordinal].name
	}
	return strconv.Itoa(ordinal)
}

func TryGet[T Scalar](r *Row, ordinal int) (T, error) {
	var zero T
	v, err := r.Get(ordinal)
	if err != nil {
		return zero, err
	}
	out, err := Decode[T](v)
	if err != nil {
		return zero, &sqlerr.ColumnDecodeError{Column: r.columnName(ordinal), Err: err}
	}
	return out, nil
}

func TryGetByName[T Scalar](r *Row, name string) (T, error) {
	i, err := r.Index(name)
	if err != nil {
		var zero T
		return zero, err
	}
	return TryGet[T](r, i)
}

func TryGetNullable[T Scalar](r *Row, ordinal int) (*T, error) {
	v, err := r.Get(ordinal)
	if err != nil {
		return nil, err
	}
	out, err := DecodeNullable[T](v)
	if err != nil {
		return nil, &sqlerr.ColumnDecodeError{Column: r.columnName(ordinal), Err: err}
	}
	return out, nil
}

// Scan copies the row into dest, one pointer per column. Pointers to
// Scalar types, pointers to pointers to Scalar types, *Value and *any are
// supported.
func (r *Row) Scan(dest ...any) error {
	if len(dest) != len(r.values) {
		return fmt.Errorf("pg: expected %d destination arguments in Scan, not %d", len(r.values), len(dest))
	}
	for i, d := range dest {
		if err := scanValue(d, NewValue(r.values[i])); err != nil {
			return &sqlerr.ColumnDecodeError{Column: r.columnName(i), Err: err}
		}
	}
	return nil
}

func scanValue(dest any, v Value) error {
	switch d := dest.(type) {
	case *Value:
		*d = v
		return nil
	case *any:
		dv, err := driverValue(v)
		if err != nil {
			return err
		}
		*d = dv
		return nil
	case *int16:
		return scanInto(d, v)
	case *int32:
		return scanInto(d, v)
	case *int64:
		return scanInto(d, v)
	case *int:
		return scanInto(d, v)
	case *float32:
		return scanInto(d, v)
	case *float64:
		return scanInto(d, v)
	case *bool:
		return scanInto(d, v)
	case *string:
		return scanInto(d, v)
	case *[]byte:
		return scanInto(d, v)
	case **int16:
		return scanNullable(d, v)
	case **int32:
		return scanNullable(d, v)
	case **int64:
		return scanNullable(d, v)
	case **int:
		return scanNullable(d, v)
	case **float32:
		return scanNullable(d, v)
	case **float64:
		return scanNullable(d, v)
	case **bool:
		return scanNullable(d, v)
	case **string:
		return scanNullable(d, v)
	case **[]byte:
		return scanNullable(d, v)
	}
	return fmt.Errorf("unsupported Scan destination %T", dest)
}

func scanInto[T Scalar](dest *T, v Value) error {
	out, err := Decode[T](v)
	if err != nil {
		return err
	}
	*dest = out
	return nil
}

func scanNullable[T Scalar](dest **T, v Value) error {
	out, err := DecodeNullable[T](v)
	if err != nil {
		return err
	}
	*dest = out
	return nil
}
