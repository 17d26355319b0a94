package lib

import (
	"github.com/sirkon/qualcheck/qual"
)

// Buffer is a buffer.
type Buffer struct {
	//qual:Unsigned
	Cap int // want Cap:"qual:Unsigned"
}

// Len returns the length of s.
//
//qual:result n Unsigned
func Len(s string) (n int) { // want n:"qual:Unsigned"
	return qual.Unsigned(len(s))
}

// Take takes an unsigned value.
//
//qual:param v Unsigned
func Take(v int) { // want v:"qual:Unsigned"
	_ = v / 2 // want `QUAL040`
}
