// Package treeannotator computes qualifiers of composite expressions from their operands.
//
// Annotators never touch operand types: they only write into the annotated type of the visited
// node, which the caller creates afresh for every visit.
package treeannotator

import (
	"go/ast"
	"go/types"

	"github.com/sirkon/qualcheck/internal/annotated"
	"github.com/sirkon/qualcheck/internal/lattice"
)

// Types gives annotators access to already computed operand types.
type Types interface {
	AnnotatedTypeOf(e ast.Expr) *annotated.Type
	Lattice() *lattice.Lattice
	Info() *types.Info
}

// TreeAnnotator has one method per expression kind having composition rules.
type TreeAnnotator interface {
	VisitBinary(tt Types, e *ast.BinaryExpr, t *annotated.Type)
	VisitUnary(tt Types, e *ast.UnaryExpr, t *annotated.Type)
	VisitCompoundAssign(tt Types, s *ast.AssignStmt, t *annotated.Type)
	VisitIncDec(tt Types, s *ast.IncDecStmt, t *annotated.Type)
	VisitLiteral(tt Types, e *ast.BasicLit, t *annotated.Type)
	VisitConversion(tt Types, e *ast.CallExpr, t *annotated.Type)
}

// Base has no special rule for any expression kind. Embed it to implement only relevant methods.
type Base struct{}

func (Base) VisitBinary(Types, *ast.BinaryExpr, *annotated.Type)         {}
func (Base) VisitUnary(Types, *ast.UnaryExpr, *annotated.Type)           {}
func (Base) VisitCompoundAssign(Types, *ast.AssignStmt, *annotated.Type) {}
func (Base) VisitIncDec(Types, *ast.IncDecStmt, *annotated.Type)         {}
func (Base) VisitLiteral(Types, *ast.BasicLit, *annotated.Type)          {}
func (Base) VisitConversion(Types, *ast.CallExpr, *annotated.Type)       {}

var _ TreeAnnotator = Base{}

// List runs annotators in order.
type List []TreeAnnotator

var _ TreeAnnotator = List(nil)

func (l List) VisitBinary(tt Types, e *ast.BinaryExpr, t *annotated.Type) {
	for _, a := range l {
		a.VisitBinary(tt, e, t)
	}
}

func (l List) VisitUnary(tt Types, e *ast.UnaryExpr, t *annotated.Type) {
	for _, a := range l {
		a.VisitUnary(tt, e, t)
	}
}

func (l List) VisitCompoundAssign(tt Types, s *ast.AssignStmt, t *annotated.Type) {
	for _, a := range l {
		a.VisitCompoundAssign(tt, s, t)
	}
}

func (l List) VisitIncDec(tt Types, s *ast.IncDecStmt, t *annotated.Type) {
	for _, a := range l {
		a.VisitIncDec(tt, s, t)
	}
}

func (l List) VisitLiteral(tt Types, e *ast.BasicLit, t *annotated.Type) {
	for _, a := range l {
		a.VisitLiteral(tt, e, t)
	}
}

func (l List) VisitConversion(tt Types, e *ast.CallExpr, t *annotated.Type) {
	for _, a := range l {
		a.VisitConversion(tt, e, t)
	}
}

// QualifierOf returns the qualifier of e from the lattice of tt, top when there is none.
func QualifierOf(tt Types, e ast.Expr) *lattice.Qualifier {
	lat := tt.Lattice()
	t := tt.AnnotatedTypeOf(e)
	if t == nil {
		return lat.Top()
	}
	if q, ok := t.Primary(lat); ok {
		return q
	}
	return lat.Top()
}
