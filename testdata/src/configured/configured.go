package configured

import (
	"github.com/sirkon/qualcheck/qual"
)

func takeSigned(v int) {}

func external(v int) {}

func fail(msg string) {
	panic(msg)
}

func use(n int) {
	u := qual.Unsigned(n)
	_ = u + n
	external(n) // want `QUAL010`
	external(u)
}

func exits(n int) {
	x := qual.Unsigned(n)
	if n > 0 {
		x = n
	} else {
		fail("not positive")
	}
	takeSigned(x)
}
