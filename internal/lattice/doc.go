// Package lattice defines qualifier hierarchies used by qualcheck checkers.
//
// A lattice is a finite partial order over qualifiers with a unique top and a least upper bound
// for every pair of qualifiers. Each checker owns exactly one lattice. Lattices are built once,
// at checker initialization, with [Builder] and never change afterwards:
//
//	lat, err := lattice.NewBuilder("signedness").
//	    Add("UnknownSignedness").
//	    Add("Signed", "UnknownSignedness").
//	    Add("Unsigned", "UnknownSignedness").
//	    Build()
//
// Build validates the definition: duplicate or unknown names, cycles, several tops and pairs
// without a unique join are all rejected at this point. Queries are table lookups afterwards.
//
// Asking a lattice about a qualifier it does not own is a programming error of the checker
// itself, not a finding in the analysed code. Such calls panic with [*ContractError].
package lattice
