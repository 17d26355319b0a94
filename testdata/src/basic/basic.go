package basic

import (
	"os"

	"github.com/sirkon/qualcheck/qual"
)

func takeSigned(v int) {}

type Header struct {
	//qual:Unsigned
	Size int // want Size:"qual:Unsigned"
}

//qual:Unsigned
var Wrong = -1 // want Wrong:"qual:Unsigned" `QUAL000`

//qual:Unsigned
var Limit = qual.Unsigned(10) // want Limit:"qual:Unsigned"

func store(h *Header, n int) {
	h.Size = n // want `QUAL000: incompatible qualifier`
	h.Size = qual.Unsigned(n)
}

func mixed(n int) {
	u := qual.Unsigned(n)
	takeSigned(u) // want `QUAL010`
	_ = u + n     // want `QUAL030: mixed signedness in \+`
	_ = u / 2     // want `QUAL040: / is sensitive to signedness`
	_ = u << n
	_ = 10 / 2
}

// Count returns a count of something.
//
//qual:result count Unsigned
func Count(n int) (count int) { // want count:"qual:Unsigned"
	if n > 0 {
		return n // want `QUAL020`
	}
	return qual.Unsigned(n)
}

func refined(n int) {
	x := qual.Unsigned(n)
	x = n
	takeSigned(x)
}

func ignored(n int) {
	u := qual.Unsigned(n)
	//qual:ignore QUAL030
	_ = u + n
	_ = u - n // want `QUAL030`
}

func exits(n int) {
	x := qual.Unsigned(n)
	if n > 0 {
		x = n
	} else {
		os.Exit(1)
	}
	takeSigned(x)
}

func joined(n int) {
	x := qual.Unsigned(n)
	if n > 0 {
		x = n
	}
	takeSigned(x) // want `QUAL010`
}

func directives(n int) {
	//qual:Unknown // want `QUAL050: unknown qualifier Unknown`
	var a = n
	_ = a
}
