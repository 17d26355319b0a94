package defaults

import (
	"go/ast"

	"github.com/sirkon/qualcheck/internal/annotated"
	"github.com/sirkon/qualcheck/internal/lattice"
)

// Site is a type-use location being defaulted.
type Site struct {
	Location Location
	Node     ast.Node
}

// Engine applies a policy.
type Engine struct {
	p *Policy
}

// NewEngine creates an engine for the policy.
func NewEngine(p *Policy) *Engine {
	return &Engine{p: p}
}

// Policy returns the applied policy.
func (e *Engine) Policy() *Policy {
	return e.p
}

// Apply fills the qualifier gap of t in place and returns it. Precedence:
//
//  1. a qualifier of the policy lattice already attached stays;
//  2. boolean and non-numeric types get top;
//  3. numeric types at refinable locations get top;
//  4. the type kind implicit;
//  5. the location default, then the default for other locations, then top.
func (e *Engine) Apply(site Site, t *annotated.Type) *annotated.Type {
	if _, ok := t.Primary(e.p.lat); ok {
		return t
	}

	t.Replace(e.choose(site, annotated.KindOf(t.Underlying())))
	return t
}

func (e *Engine) choose(site Site, kind annotated.Kind) *lattice.Qualifier {
	top := e.p.lat.Top()

	if !kind.IsNumeric() {
		return top
	}
	if e.p.IsRefinable(site.Location) {
		return top
	}
	if q, ok := e.p.implicits[kind]; ok {
		return q
	}
	if q, ok := e.p.defaults[site.Location]; ok {
		return q
	}
	if q, ok := e.p.defaults[LocationOther]; ok {
		return q
	}

	return top
}
