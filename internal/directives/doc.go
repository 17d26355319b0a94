// Package directives scraps explicit qualifiers from //qual: comments.
//
// Supported forms:
//
//	var limit uint //qual:Unsigned
//
//	type Header struct {
//	    //qual:Unsigned
//	    Size int64
//	}
//
//	//qual:param n Unsigned
//	//qual:result Signed
//	func Grow(n int) int
//
//	//qual:ignore QUAL030
//	total := a + b
//
// Qualifier names are checked against the vocabulary of enabled checkers when the directive is
// scrapped: an unknown name is reported where it is written, not where the declaration is used.
// Ignore directives without rules suppress every rule in the statement or declaration they
// precede, or in the whole function when placed in its doc comment.
package directives
