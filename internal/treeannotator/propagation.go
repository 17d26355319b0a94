package treeannotator

import (
	"go/ast"

	"github.com/sirkon/qualcheck/internal/annotated"
)

// Propagation is the general step every checker ends its list with. It only fills a type having
// no qualifier of the lattice yet: binary expressions get the join of both operands, unary
// expressions, conversions and increments get their operand's qualifier.
type Propagation struct{}

var _ TreeAnnotator = Propagation{}

func (Propagation) VisitBinary(tt Types, e *ast.BinaryExpr, t *annotated.Type) {
	if filled(tt, t) {
		return
	}
	t.Replace(tt.Lattice().Join(QualifierOf(tt, e.X), QualifierOf(tt, e.Y)))
}

func (Propagation) VisitUnary(tt Types, e *ast.UnaryExpr, t *annotated.Type) {
	if filled(tt, t) {
		return
	}
	t.Replace(QualifierOf(tt, e.X))
}

func (Propagation) VisitCompoundAssign(tt Types, s *ast.AssignStmt, t *annotated.Type) {
	if filled(tt, t) || len(s.Lhs) != 1 || len(s.Rhs) != 1 {
		return
	}
	t.Replace(tt.Lattice().Join(QualifierOf(tt, s.Lhs[0]), QualifierOf(tt, s.Rhs[0])))
}

func (Propagation) VisitIncDec(tt Types, s *ast.IncDecStmt, t *annotated.Type) {
	if filled(tt, t) {
		return
	}
	t.Replace(QualifierOf(tt, s.X))
}

func (Propagation) VisitLiteral(Types, *ast.BasicLit, *annotated.Type) {}

func (Propagation) VisitConversion(tt Types, e *ast.CallExpr, t *annotated.Type) {
	if filled(tt, t) || len(e.Args) != 1 {
		return
	}
	t.Replace(QualifierOf(tt, e.Args[0]))
}

func filled(tt Types, t *annotated.Type) bool {
	_, ok := t.Primary(tt.Lattice())
	return ok
}
