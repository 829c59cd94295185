// Package convert contains the numeric helpers shared by the per-backend
// conversion matrices.
package convert

import (
	"math"

	"golang.org/x/exp/constraints"

	"github.com/tomyedwab/hostsql/sqlerr"
)

// Int converts n to the integer type T, failing with sqlerr.ErrBadValue
// instead of wrapping or truncating.
func Int[T constraints.Integer, S constraints.Integer](n S) (T, error) {
	t := T(n)
	if S(t) != n || (t < 0) != (n < 0) {
		return 0, sqlerr.ErrBadValue
	}
	return t, nil
}

// Uint64ToInt converts an unsigned 64-bit value to a signed integer type.
func Uint64ToInt[T constraints.Signed](n uint64) (T, error) {
	if n > math.MaxInt64 {
		return 0, sqlerr.ErrBadValue
	}
	return Int[T](int64(n))
}

// BoolFromInt accepts only 0 and 1.
func BoolFromInt(n int64) (bool, error) {
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, sqlerr.ErrBadValue
}

// IntFromBool is the inverse of BoolFromInt.
func IntFromBool(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
