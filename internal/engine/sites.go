package engine

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/sirkon/qualcheck/internal/consistency"
	"github.com/sirkon/qualcheck/internal/defaults"
	"github.com/sirkon/qualcheck/internal/flow"
	"github.com/sirkon/qualcheck/internal/lattice"
)

// checkNode computes annotated types of a CFG node and validates its sites with facts valid
// before the node.
func (b *body) checkNode(n ast.Node, s *flow.Store) {
	ev := b.evaluator(s, true)

	switch n := n.(type) {
	case *ast.AssignStmt:
		b.checkAssign(ev, n)

	case *ast.ValueSpec:
		b.checkValueSpec(ev, n)

	case *ast.ReturnStmt:
		b.checkReturn(ev, n)

	case *ast.ExprStmt:
		ev.AnnotatedTypeOf(n.X)

	case *ast.IncDecStmt:
		ev.AnnotatedTypeOf(n.X)

	case *ast.SendStmt:
		ev.AnnotatedTypeOf(n.Chan)
		ev.AnnotatedTypeOf(n.Value)

	case *ast.GoStmt:
		ev.AnnotatedTypeOf(n.Call)

	case *ast.DeferStmt:
		ev.AnnotatedTypeOf(n.Call)

	case ast.Expr:
		ev.AnnotatedTypeOf(n)
	}
}

func (b *body) checkAssign(ev *evaluator, n *ast.AssignStmt) {
	for _, rhs := range n.Rhs {
		ev.AnnotatedTypeOf(rhs)
	}

	switch n.Tok {
	case token.ASSIGN, token.DEFINE:
	default:
		ev.AnnotatedTypeOf(n.Lhs[0])
		ev.checkOperation(Operation{
			Op:       compoundOp(n.Tok),
			X:        n.Lhs[0],
			Y:        n.Rhs[0],
			Pos:      n.TokPos,
			Compound: true,
		})
		return
	}

	for i, lhs := range n.Lhs {
		b.evalTarget(ev, lhs)

		required := b.required(lhs)
		if required == nil {
			continue
		}

		pos := n.Pos()
		if len(n.Lhs) == len(n.Rhs) {
			pos = n.Rhs[i].Pos()
		}
		b.u.check.Check(consistency.SiteAssignment, ev.valueAt(n.Rhs, i), required, pos)
	}
}

func (b *body) checkValueSpec(ev *evaluator, n *ast.ValueSpec) {
	for _, value := range n.Values {
		ev.AnnotatedTypeOf(value)
	}
	if len(n.Values) == 0 {
		return
	}

	for i, name := range n.Names {
		required := b.required(name)
		if required == nil {
			continue
		}

		pos := n.Pos()
		if len(n.Names) == len(n.Values) {
			pos = n.Values[i].Pos()
		}
		b.u.check.Check(consistency.SiteAssignment, ev.valueAt(n.Values, i), required, pos)
	}
}

func (b *body) checkReturn(ev *evaluator, n *ast.ReturnStmt) {
	for _, res := range n.Results {
		ev.AnnotatedTypeOf(res)
	}
	if b.sig == nil || len(n.Results) == 0 {
		return
	}

	results := b.sig.Results()
	for i := 0; i < results.Len(); i++ {
		typ := results.At(i).Type()
		if !isNumeric(typ) {
			continue
		}

		pos := n.Pos()
		if len(n.Results) == results.Len() {
			pos = n.Results[i].Pos()
		}
		required := b.u.resultQualifier(b.fn, b.sig, i)
		b.u.check.Check(consistency.SiteReturn, ev.valueAt(n.Results, i), required, pos)
	}
}

// evalTarget computes types of expressions nested in an assignment target.
func (b *body) evalTarget(ev *evaluator, lhs ast.Expr) {
	switch l := ast.Unparen(lhs).(type) {
	case *ast.IndexExpr:
		ev.AnnotatedTypeOf(l.X)
		ev.AnnotatedTypeOf(l.Index)
	case *ast.SelectorExpr:
		if _, ok := b.u.info.Selections[l]; ok {
			ev.AnnotatedTypeOf(l.X)
		}
	case *ast.StarExpr:
		ev.AnnotatedTypeOf(l.X)
	}
}

// required returns the qualifier an assignment target demands. It is nil for targets flow
// refines and for targets qualifiers have no meaning for.
func (b *body) required(lhs ast.Expr) *lattice.Qualifier {
	u := b.u
	if !isNumeric(u.info.TypeOf(lhs)) {
		return nil
	}

	switch l := ast.Unparen(lhs).(type) {
	case *ast.Ident:
		if l.Name == "_" {
			return nil
		}
		v, ok := u.info.ObjectOf(l).(*types.Var)
		if !ok || b.refinable[v] {
			return nil
		}
		return u.declaredVar(v)

	case *ast.SelectorExpr:
		if sel, ok := u.info.Selections[l]; ok {
			if v, ok := sel.Obj().(*types.Var); ok && sel.Kind() == types.FieldVal {
				return u.declaredVar(v)
			}
			return nil
		}
		if v, ok := u.info.Uses[l.Sel].(*types.Var); ok {
			return u.declaredVar(v)
		}

	case *ast.IndexExpr, *ast.StarExpr:
		return u.defaultFor(defaults.LocationOther, u.info.TypeOf(lhs))
	}

	return nil
}

func compoundOp(tok token.Token) token.Token {
	switch tok {
	case token.ADD_ASSIGN:
		return token.ADD
	case token.SUB_ASSIGN:
		return token.SUB
	case token.MUL_ASSIGN:
		return token.MUL
	case token.QUO_ASSIGN:
		return token.QUO
	case token.REM_ASSIGN:
		return token.REM
	case token.AND_ASSIGN:
		return token.AND
	case token.OR_ASSIGN:
		return token.OR
	case token.XOR_ASSIGN:
		return token.XOR
	case token.SHL_ASSIGN:
		return token.SHL
	case token.SHR_ASSIGN:
		return token.SHR
	case token.AND_NOT_ASSIGN:
		return token.AND_NOT
	default:
		return tok
	}
}
