// Package qual provides markers giving values explicit qualifiers.
//
// Markers are identity functions: they return their argument unchanged and compile to nothing
// notable. The checker reads a marker call as a cast to the qualifier it is named after:
//
//	size := qual.Unsigned(int64(n))
//
// A marker of a checker that is not enabled leaves the qualifier of its argument as is.
package qual

import (
	"golang.org/x/exp/constraints"
)

// Number is any value signedness makes sense for.
type Number interface {
	constraints.Integer | constraints.Float
}

// Signed marks a value as signed.
func Signed[T Number](v T) T { return v }

// Unsigned marks a value as unsigned: its bits are to be interpreted as an unsigned integer
// even when the type is signed.
func Unsigned[T constraints.Integer](v T) T { return v }

// UnknownSignedness drops whatever is known about signedness of a value.
func UnknownSignedness[T Number](v T) T { return v }

// ConstantPositive marks a value as non-negative and fitting the signed range of its type, so
// it reads the same in either interpretation.
func ConstantPositive[T constraints.Integer](v T) T { return v }

// Literal marks a value as one behaving like a literal written in the source.
func Literal[T Number](v T) T { return v }
