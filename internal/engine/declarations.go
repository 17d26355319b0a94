package engine

import (
	"go/types"
)

// Declarations provides explicit qualifier names declared for variables and signatures.
type Declarations interface {
	VarQualifiers(v *types.Var) []string
	ParamQualifiers(fn *types.Func, i int) []string
	ResultQualifiers(fn *types.Func, i int) []string
}

// Chain asks declarations in order and returns the first non-empty answer.
type Chain []Declarations

var _ Declarations = Chain(nil)

func (c Chain) VarQualifiers(v *types.Var) []string {
	for _, d := range c {
		if res := d.VarQualifiers(v); len(res) > 0 {
			return res
		}
	}
	return nil
}

func (c Chain) ParamQualifiers(fn *types.Func, i int) []string {
	for _, d := range c {
		if res := d.ParamQualifiers(fn, i); len(res) > 0 {
			return res
		}
	}
	return nil
}

func (c Chain) ResultQualifiers(fn *types.Func, i int) []string {
	for _, d := range c {
		if res := d.ResultQualifiers(fn, i); len(res) > 0 {
			return res
		}
	}
	return nil
}

// NoDeclarations declares nothing.
type NoDeclarations struct{}

func (NoDeclarations) VarQualifiers(*types.Var) []string          { return nil }
func (NoDeclarations) ParamQualifiers(*types.Func, int) []string  { return nil }
func (NoDeclarations) ResultQualifiers(*types.Func, int) []string { return nil }
