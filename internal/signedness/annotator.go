package signedness

import (
	"go/ast"
	"go/token"

	"github.com/sirkon/qualcheck/internal/annotated"
	"github.com/sirkon/qualcheck/internal/treeannotator"
)

// annotator keeps booleans out of signedness, makes shifts take the type of their left operand
// and resets compound assignments. Everything else is left to the general propagation.
type annotator struct {
	treeannotator.Base
	c *Checker
}

// VisitBinary applies the shift rule to every binary expression, including ones whose operands
// are both literal or constant positive: such pairs have no rule of their own and are left to
// the general propagation.
func (a annotator) VisitBinary(tt treeannotator.Types, e *ast.BinaryExpr, t *annotated.Type) {
	switch e.Op {
	case token.SHL, token.SHR:
		t.Replace(treeannotator.QualifierOf(tt, e.X))
	}
	a.annotateBoolean(tt, e, t)
}

func (a annotator) VisitUnary(tt treeannotator.Types, e *ast.UnaryExpr, t *annotated.Type) {
	a.annotateBoolean(tt, e, t)
}

func (a annotator) VisitCompoundAssign(_ treeannotator.Types, _ *ast.AssignStmt, t *annotated.Type) {
	t.Replace(a.c.top)
}

// VisitConversion makes an explicit conversion to an integer or floating point type assert the
// signedness of the target type. Constant positive values fit both and keep their qualifier.
func (a annotator) VisitConversion(tt treeannotator.Types, e *ast.CallExpr, t *annotated.Type) {
	if len(e.Args) != 1 {
		return
	}
	if a.c.isLiteralOrConstantPositive(treeannotator.QualifierOf(tt, e.Args[0])) {
		return
	}

	switch annotated.KindOf(t.Underlying()) {
	case annotated.KindUnsignedInt:
		t.Replace(a.c.unsigned)
	case annotated.KindSignedInt, annotated.KindFloat, annotated.KindComplex:
		t.Replace(a.c.signed)
	}
}

func (a annotator) annotateBoolean(tt treeannotator.Types, e ast.Expr, t *annotated.Type) {
	if annotated.KindOf(tt.Info().TypeOf(e)) == annotated.KindBoolean {
		t.Replace(a.c.top)
	}
}
