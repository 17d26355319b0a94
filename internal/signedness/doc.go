// Package signedness is the bundled qualifier checker telling signed values from unsigned ones.
//
// Qualifiers:
//
//	UnknownSignedness
//	    ├── Signed ───────┐
//	    └── Unsigned ─────┤
//	                   Literal
//	                      │
//	               ConstantPositive
//	                      │
//	               SignednessBottom
//
// Unsigned integer types are Unsigned, other numeric values are Signed unless declared otherwise
// with directives or markers. Local variables start as UnknownSignedness and are refined by flow.
// Boolean expressions are always UnknownSignedness, shifts take the qualifier of their left
// operand and compound assignments reset it.
package signedness
