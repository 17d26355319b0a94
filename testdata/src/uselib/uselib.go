package uselib

import (
	"lib"
)

func use(s string, n int) {
	lib.Take(n) // want `QUAL010`
	lib.Take(lib.Len(s))

	b := lib.Buffer{Cap: lib.Len(s)}
	b.Cap = n              // want `QUAL000`
	_ = lib.Buffer{Cap: n} // want `QUAL025`
}
