package directives

import (
	"go/types"
	"iter"
	"maps"
	"slices"
)

// Set holds explicit qualifier names declared by directives of one package.
// Variables, struct fields, parameters and results are all keyed by their *types.Var.
type Set struct {
	vars map[*types.Var][]string
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{vars: make(map[*types.Var][]string)}
}

// Declare attaches qualifier names to v.
func (s *Set) Declare(v *types.Var, names ...string) {
	for _, name := range names {
		if !slices.Contains(s.vars[v], name) {
			s.vars[v] = append(s.vars[v], name)
		}
	}
}

// VarQualifiers returns names declared for a variable or a field.
func (s *Set) VarQualifiers(v *types.Var) []string {
	if v == nil {
		return nil
	}
	return s.vars[v.Origin()]
}

// ParamQualifiers returns names declared for the i-th parameter of fn.
func (s *Set) ParamQualifiers(fn *types.Func, i int) []string {
	return s.VarQualifiers(tupleAt(paramsOf(fn), i))
}

// ResultQualifiers returns names declared for the i-th result of fn.
func (s *Set) ResultQualifiers(fn *types.Func, i int) []string {
	return s.VarQualifiers(tupleAt(resultsOf(fn), i))
}

// All iterates over every declared variable.
func (s *Set) All() iter.Seq2[*types.Var, []string] {
	return maps.All(s.vars)
}

// Len returns the number of variables having declared qualifiers.
func (s *Set) Len() int {
	return len(s.vars)
}

func paramsOf(fn *types.Func) *types.Tuple {
	if fn == nil {
		return nil
	}
	sig, ok := fn.Origin().Type().(*types.Signature)
	if !ok {
		return nil
	}
	return sig.Params()
}

func resultsOf(fn *types.Func) *types.Tuple {
	if fn == nil {
		return nil
	}
	sig, ok := fn.Origin().Type().(*types.Signature)
	if !ok {
		return nil
	}
	return sig.Results()
}

func tupleAt(t *types.Tuple, i int) *types.Var {
	if t == nil || i < 0 || i >= t.Len() {
		return nil
	}
	return t.At(i)
}
