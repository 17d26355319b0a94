package signedness

import (
	"go/ast"
	"go/token"

	"github.com/sirkon/qualcheck/internal/annotated"
	"github.com/sirkon/qualcheck/internal/engine"
	"github.com/sirkon/qualcheck/internal/lattice"
	"github.com/sirkon/qualcheck/internal/qualrules"
	"github.com/sirkon/qualcheck/internal/report"
	"github.com/sirkon/qualcheck/internal/treeannotator"
)

// CheckOperation implements engine.OperationChecker.
//
// Operands with signedness the other way around are reported for every operator except shifts.
// Operators whose result depends on how bits are interpreted are also reported when an operand
// is qualified against the signedness of its Go type: dividing a signed integer holding an
// unsigned value gives a wrong result.
func (c *Checker) CheckOperation(tt treeannotator.Types, op engine.Operation, r *report.ReporterPhase) {
	if c.literalPair(tt, op.X, op.Y) {
		return
	}

	opText := op.Op.String()
	if op.Compound {
		opText += "="
	}

	switch op.Op {
	case token.SHL:
		return
	case token.SHR:
		c.checkSensitive(tt, r, op, opText, op.X)
		return
	}

	if !mixable(op.Op) {
		return
	}

	x := treeannotator.QualifierOf(tt, op.X)
	y := treeannotator.QualifierOf(tt, op.Y)
	if x == c.signed && y == c.unsigned || x == c.unsigned && y == c.signed {
		r.Reportf(qualrules.MixedSignedness(), op.Pos, "mixed signedness in %s: %s and %s", opText, x, y)
		return
	}

	if sensitive(op.Op) {
		if !c.checkSensitive(tt, r, op, opText, op.X) {
			c.checkSensitive(tt, r, op, opText, op.Y)
		}
	}
}

// checkSensitive reports an operand qualified against the signedness of its type.
func (c *Checker) checkSensitive(
	tt treeannotator.Types,
	r *report.ReporterPhase,
	op engine.Operation,
	opText string,
	e ast.Expr,
) bool {
	q := treeannotator.QualifierOf(tt, e)
	typ := tt.Info().TypeOf(e)

	var expected *lattice.Qualifier
	switch annotated.KindOf(typ) {
	case annotated.KindSignedInt:
		expected = c.signed
	case annotated.KindUnsignedInt:
		expected = c.unsigned
	default:
		return false
	}

	if q != c.signed && q != c.unsigned || q == expected {
		return false
	}

	r.Reportf(
		qualrules.SignSensitiveOperation(),
		op.Pos,
		"%s is sensitive to signedness: %s operand has type %s",
		opText,
		q,
		typ,
	)
	return true
}

// literalPair checks if both operands are literal or constant positive. Such values are the
// same in either interpretation.
func (c *Checker) literalPair(tt treeannotator.Types, x, y ast.Expr) bool {
	lht := treeannotator.QualifierOf(tt, x)
	rht := treeannotator.QualifierOf(tt, y)
	return c.isLiteralOrConstantPositive(lht) && c.isLiteralOrConstantPositive(rht)
}

func mixable(op token.Token) bool {
	switch op {
	case token.ADD, token.SUB, token.MUL, token.QUO, token.REM,
		token.AND, token.OR, token.XOR, token.AND_NOT,
		token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return true
	default:
		return false
	}
}

func sensitive(op token.Token) bool {
	switch op {
	case token.QUO, token.REM, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return true
	default:
		return false
	}
}
