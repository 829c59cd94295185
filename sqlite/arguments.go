package sqlite

import (
	"slices"

	proxy "github.com/tomyedwab/hostsql/sqlproxy/sqlite"
)

// Arguments is the ordered list of parameters bound to one statement.
// The first encoding failure is kept and reported by the executor before
// the host is called.
type Arguments struct {
	values []proxy.Value
	err    error
}

// Args builds an Arguments from values, encoding each with EncodeAny.
func Args(values ...any) *Arguments {
	a := &Arguments{values: make([]proxy.Value, 0, len(values))}
	for _, v := range values {
		a.Add(v)
	}
	return a
}

// Add encodes v and appends it.
func (a *Arguments) Add(v any) error {
	enc, err := EncodeAny(v)
	if err != nil {
		if a.err == nil {
			a.err = err
		}
		// Keep positions aligned with the caller's parameters.
		enc = Value{proxy.Null{}}
	}
	a.values = append(a.values, enc.Inner())
	return err
}

// Push appends an already encoded value.
func (a *Arguments) Push(v Value) {
	a.values = append(a.values, v.Inner())
}

// Bind appends v using its static encoding.
func Bind[T Scalar](a *Arguments, v T) {
	a.Push(Encode(v))
}

// BindNullable appends v, or Null when v is nil.
func BindNullable[T Scalar](a *Arguments, v *T) {
	enc, _ := EncodeNullable(v)
	a.Push(enc)
}

// Reserve grows the buffer to hold additional more values.
func (a *Arguments) Reserve(additional int) {
	a.values = slices.Grow(a.values, additional)
}

func (a *Arguments) Len() int {
	if a == nil {
		return 0
	}
	return len(a.values)
}

// Err returns the first encoding error, if any.
func (a *Arguments) Err() error {
	if a == nil {
		return nil
	}
	return a.err
}

// Values returns the encoded parameters.
func (a *Arguments) Values() []Value {
	if a == nil {
		return nil
	}
	out := make([]Value, len(a.values))
	for i, v := range a.values {
		out[i] = Value{v}
	}
	return out
}

func (a *Arguments) host() []proxy.Value {
	if a == nil {
		return nil
	}
	return a.values
}
