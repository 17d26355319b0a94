package engine

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"

	"github.com/sirkon/qualcheck/internal/annotated"
	"github.com/sirkon/qualcheck/internal/defaults"
	"github.com/sirkon/qualcheck/internal/flow"
	"github.com/sirkon/qualcheck/internal/lattice"
)

// body is a single function body being analyzed.
type body struct {
	u   *Unit
	fn  *types.Func
	sig *types.Signature
	tr  *transfer

	// refinable variables have flow sensitive qualifiers.
	refinable map[*types.Var]bool

	// rebound are identifiers bound by range and select clauses.
	rebound map[ast.Expr]bool

	// tagCases are case expressions of tag switches. They are compared with the tag rather than
	// evaluated as conditions.
	tagCases map[ast.Expr]bool

	// summary holds joins of qualifiers assigned to locals of enclosing bodies. Closures see
	// captured variables through it.
	summary map[*types.Var]*lattice.Qualifier

	closures []*ast.FuncLit
}

func (u *Unit) newBody(
	block *ast.BlockStmt,
	fn *types.Func,
	sig *types.Signature,
	summary map[*types.Var]*lattice.Qualifier,
) *body {
	b := &body{
		u:         u,
		fn:        fn,
		sig:       sig,
		refinable: map[*types.Var]bool{},
		rebound:   map[ast.Expr]bool{},
		tagCases:  map[ast.Expr]bool{},
		summary:   summary,
	}
	b.tr = &transfer{b: b}

	if sig != nil {
		if recv := sig.Recv(); recv != nil {
			u.locations[recv] = defaults.LocationParameter
		}
		for v := range sig.Params().Variables() {
			u.locations[v] = defaults.LocationParameter
		}
		for v := range sig.Results().Variables() {
			u.locations[v] = defaults.LocationReturn
		}
	}

	if block != nil {
		b.collect(block)
	}

	return b
}

// collect finds refinable variables of the body.
//
// A local variable is refinable unless it has explicit qualifiers, its address is taken, or a
// closure assigns it. Flow facts of such variables could be invalidated by code the analysis of
// this body does not see.
func (b *body) collect(block *ast.BlockStmt) {
	info := b.u.info
	candidates := map[*types.Var]bool{}
	escaped := map[*types.Var]bool{}

	escape := func(e ast.Expr) {
		if v := identVar(info, e); v != nil {
			escaped[v] = true
		}
	}

	ast.Inspect(block, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncLit:
			ast.Inspect(n.Body, func(n ast.Node) bool {
				switch n := n.(type) {
				case *ast.AssignStmt:
					for _, lhs := range n.Lhs {
						escape(lhs)
					}
				case *ast.IncDecStmt:
					escape(n.X)
				case *ast.RangeStmt:
					if n.Tok == token.ASSIGN {
						escape(n.Key)
						escape(n.Value)
					}
				}
				b.collectEscapes(n, escape)
				return true
			})
			return false

		case *ast.Ident:
			if v, ok := info.Defs[n].(*types.Var); ok && !v.IsField() && isNumeric(v.Type()) {
				candidates[v] = true
			}

		case *ast.CaseClause:
			// Type switch clauses declare their own copy of the symbolic variable.
			if v, ok := info.Implicits[n].(*types.Var); ok && isNumeric(v.Type()) {
				b.u.fixed[v] = true
			}

		case *ast.SwitchStmt:
			if n.Tag == nil {
				break
			}
			for _, stmt := range n.Body.List {
				if cc, ok := stmt.(*ast.CaseClause); ok {
					for _, e := range cc.List {
						b.tagCases[e] = true
					}
				}
			}

		case *ast.RangeStmt:
			if n.Key != nil {
				b.rebound[n.Key] = true
			}
			if n.Value != nil {
				b.rebound[n.Value] = true
			}

		case *ast.SelectStmt:
			for _, stmt := range n.Body.List {
				cc, ok := stmt.(*ast.CommClause)
				if !ok {
					continue
				}
				if as, ok := cc.Comm.(*ast.AssignStmt); ok && len(as.Lhs) > 0 {
					b.rebound[as.Lhs[0]] = true
				}
			}
		}

		b.collectEscapes(n, escape)
		return true
	})

	for v := range candidates {
		if escaped[v] {
			b.u.fixed[v] = true
			continue
		}
		if len(b.u.decls.VarQualifiers(v)) > 0 {
			continue
		}
		b.refinable[v] = true
	}
}

// collectEscapes marks variables whose address is taken explicitly or by a method call.
func (b *body) collectEscapes(n ast.Node, escape func(ast.Expr)) {
	switch n := n.(type) {
	case *ast.UnaryExpr:
		if n.Op == token.AND {
			escape(n.X)
		}

	case *ast.SelectorExpr:
		sel, ok := b.u.info.Selections[n]
		if !ok || sel.Kind() != types.MethodVal {
			return
		}
		sig, ok := sel.Obj().Type().(*types.Signature)
		if !ok || sig.Recv() == nil {
			return
		}
		_, ptrRecv := sig.Recv().Type().(*types.Pointer)
		_, ptrValue := sel.Recv().Underlying().(*types.Pointer)
		if ptrRecv && !ptrValue {
			escape(n.X)
		}
	}
}

func (b *body) analyzeClosures() {
	// Analysis of a closure may append more closures.
	for i := 0; i < len(b.closures); i++ {
		lit := b.closures[i]
		sig, _ := b.u.info.TypeOf(lit).(*types.Signature)
		b.u.analyze(lit.Body, nil, sig, b.summary)
	}
}

func (b *body) refinableVar(e ast.Expr) *types.Var {
	v := identVar(b.u.info, e)
	if v == nil || !b.refinable[v] {
		return nil
	}
	return v
}

func identVar(info *types.Info, e ast.Expr) *types.Var {
	id, ok := ast.Unparen(e).(*ast.Ident)
	if !ok {
		return nil
	}
	v, _ := info.ObjectOf(id).(*types.Var)
	return v
}

// --- Flow transfer --------------------------------------------------------------------------------------------------

// transfer computes effects of nodes and branches on flow facts.
type transfer struct {
	b *body

	// final is set for the last pass, which also records summaries for closures.
	final bool
}

var _ flow.Transfer = &transfer{}

func (tr *transfer) Node(n ast.Node, s *flow.Store) {
	b := tr.b
	ev := b.evaluator(s, false)

	switch n := n.(type) {
	case *ast.AssignStmt:
		switch n.Tok {
		case token.ASSIGN, token.DEFINE:
			// Values are computed before any of them is assigned.
			vars := make([]*types.Var, len(n.Lhs))
			quals := make([]*lattice.Qualifier, len(n.Lhs))
			for i, lhs := range n.Lhs {
				if vars[i] = b.refinableVar(lhs); vars[i] != nil {
					quals[i] = ev.valueAt(n.Rhs, i)
				}
			}
			for i, v := range vars {
				if v != nil {
					tr.assign(s, v, quals[i])
				}
			}

		default:
			v := b.refinableVar(n.Lhs[0])
			if v == nil {
				return
			}
			t := annotated.New(b.u.info.TypeOf(n.Lhs[0]))
			b.u.inst.annotator.VisitCompoundAssign(ev, n, t)
			tr.assign(s, v, ev.settle(t))
		}

	case *ast.IncDecStmt:
		v := b.refinableVar(n.X)
		if v == nil {
			return
		}
		t := annotated.New(b.u.info.TypeOf(n.X))
		b.u.inst.annotator.VisitIncDec(ev, n, t)
		tr.assign(s, v, ev.settle(t))

	case *ast.ValueSpec:
		for i, name := range n.Names {
			v := b.refinableVar(name)
			if v == nil {
				continue
			}
			if len(n.Values) == 0 {
				tr.assign(s, v, b.zeroValue(v))
				continue
			}
			tr.assign(s, v, ev.valueAt(n.Values, i))
		}

	case *ast.Ident:
		if !b.rebound[n] {
			return
		}
		// Values bound by range and receive clauses are whatever a container holds.
		if v := b.refinableVar(n); v != nil {
			tr.assign(s, v, b.u.defaultFor(defaults.LocationOther, v.Type()))
		}
	}
}

// zeroValue returns the qualifier of the zero value a variable declared without one holds.
func (b *body) zeroValue(v *types.Var) *lattice.Qualifier {
	if c := b.u.inst.classifier; c != nil && isNumeric(v.Type()) {
		if q := c.ClassifyConstant(constant.MakeInt64(0), v.Type(), true); q != nil {
			return q
		}
	}
	return b.u.defaultFor(defaults.LocationOther, v.Type())
}

func (tr *transfer) Branch(cond ast.Expr, taken bool, s *flow.Store) {
	if tr.b.tagCases[cond] {
		return
	}

	switch c := ast.Unparen(cond).(type) {
	case *ast.UnaryExpr:
		if c.Op == token.NOT {
			tr.Branch(c.X, !taken, s)
		}

	case *ast.BinaryExpr:
		switch c.Op {
		case token.LAND:
			if taken {
				tr.Branch(c.X, true, s)
				tr.Branch(c.Y, true, s)
			}
		case token.LOR:
			if !taken {
				tr.Branch(c.X, false, s)
				tr.Branch(c.Y, false, s)
			}
		case token.EQL, token.NEQ:
			if (c.Op == token.EQL) != taken {
				return
			}
			tr.refineEquality(c.X, c.Y, s)
			tr.refineEquality(c.Y, c.X, s)
		}
	}
}

// refineEquality narrows a variable compared equal to a constant down to the meet of its current
// qualifier and the qualifier of the constant. The variable is left as is when there is no meet.
func (tr *transfer) refineEquality(x, y ast.Expr, s *flow.Store) {
	v := tr.b.refinableVar(x)
	if v == nil {
		return
	}
	if tv, ok := tr.b.u.info.Types[y]; !ok || tv.Value == nil {
		return
	}

	ev := tr.b.evaluator(s, false)
	if q, ok := tr.b.u.inst.lat.Meet(ev.varQualifier(v), ev.qualifierOf(y)); ok {
		s.Set(v, q)
	}
}

func (tr *transfer) assign(s *flow.Store, v *types.Var, q *lattice.Qualifier) {
	s.Set(v, q)
	if !tr.final {
		return
	}

	lat := tr.b.u.inst.lat
	if prev, ok := tr.b.summary[v]; ok {
		q = lat.Join(prev, q)
	}
	tr.b.summary[v] = q
}
