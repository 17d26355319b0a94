package engine

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/types/typeutil"

	"github.com/sirkon/qualcheck/internal/annotated"
	"github.com/sirkon/qualcheck/internal/consistency"
	"github.com/sirkon/qualcheck/internal/defaults"
	"github.com/sirkon/qualcheck/internal/flow"
	"github.com/sirkon/qualcheck/internal/lattice"
	"github.com/sirkon/qualcheck/internal/treeannotator"
)

// evaluator computes annotated types of expressions at one program point.
//
// Types are computed bottom-up: the annotator runs over already computed operands, then the
// defaulting engine fills what is left. Refined facts of variables come from the store.
type evaluator struct {
	b    *body
	s    *flow.Store
	memo *annotated.Map

	// final evaluation checks sites and operations, queues closures and records types.
	final bool
}

var _ treeannotator.Types = &evaluator{}

func (b *body) evaluator(s *flow.Store, final bool) *evaluator {
	return &evaluator{
		b:     b,
		s:     s,
		memo:  annotated.NewMap(),
		final: final,
	}
}

func (ev *evaluator) AnnotatedTypeOf(e ast.Expr) *annotated.Type {
	if t, ok := ev.memo.Get(e); ok {
		return t
	}

	t := ev.compute(e)
	ev.memo.Set(e, t)
	if ev.final {
		ev.b.u.types.Set(e, t)
	}
	return t
}

func (ev *evaluator) Lattice() *lattice.Lattice {
	return ev.b.u.inst.lat
}

func (ev *evaluator) Info() *types.Info {
	return ev.b.u.info
}

func (ev *evaluator) qualifierOf(e ast.Expr) *lattice.Qualifier {
	return treeannotator.QualifierOf(ev, e)
}

// settle fills a type left without a qualifier and returns its qualifier.
func (ev *evaluator) settle(t *annotated.Type) *lattice.Qualifier {
	lat := ev.b.u.inst.lat
	if !isNumeric(t.Underlying()) {
		t.Replace(lat.Top())
	}
	ev.b.u.inst.defaults.Apply(defaults.Site{Location: defaults.LocationOther}, t)
	q, _ := t.Primary(lat)
	return q
}

func (ev *evaluator) compute(e ast.Expr) *annotated.Type {
	u := ev.b.u
	inst := u.inst
	res := annotated.New(u.info.TypeOf(e))

	if p, ok := e.(*ast.ParenExpr); ok {
		res.Replace(ev.qualifierOf(p.X))
		return res
	}

	if tv, ok := u.info.Types[e]; ok && tv.Value != nil && inst.classifier != nil && isNumeric(tv.Type) {
		_, literal := e.(*ast.BasicLit)
		if q := inst.classifier.ClassifyConstant(tv.Value, tv.Type, literal); q != nil {
			res.Replace(q)
		}
	}

	switch x := e.(type) {
	case *ast.BasicLit:
		inst.annotator.VisitLiteral(ev, x, res)

	case *ast.BinaryExpr:
		ev.AnnotatedTypeOf(x.X)
		ev.AnnotatedTypeOf(x.Y)
		inst.annotator.VisitBinary(ev, x, res)
		ev.checkOperation(Operation{
			Op:  x.Op,
			X:   x.X,
			Y:   x.Y,
			Pos: x.OpPos,
		})

	case *ast.UnaryExpr:
		ev.AnnotatedTypeOf(x.X)
		switch x.Op {
		case token.ADD, token.SUB, token.XOR, token.NOT:
			inst.annotator.VisitUnary(ev, x, res)
		}

	case *ast.CallExpr:
		ev.call(x, res)

	case *ast.Ident:
		if v, ok := u.info.ObjectOf(x).(*types.Var); ok {
			res.Replace(ev.varQualifier(v))
		}

	case *ast.SelectorExpr:
		ev.selector(x, res)

	case *ast.IndexExpr:
		ev.AnnotatedTypeOf(x.X)
		ev.AnnotatedTypeOf(x.Index)

	case *ast.IndexListExpr:
		ev.AnnotatedTypeOf(x.X)

	case *ast.SliceExpr:
		for _, sub := range []ast.Expr{x.X, x.Low, x.High, x.Max} {
			if sub != nil {
				ev.AnnotatedTypeOf(sub)
			}
		}

	case *ast.StarExpr:
		ev.AnnotatedTypeOf(x.X)

	case *ast.TypeAssertExpr:
		ev.AnnotatedTypeOf(x.X)

	case *ast.CompositeLit:
		ev.composite(x)

	case *ast.FuncLit:
		if ev.final {
			ev.b.closures = append(ev.b.closures, x)
		}
	}

	ev.settle(res)
	return res
}

// varQualifier returns the qualifier of a variable read at the current program point.
func (ev *evaluator) varQualifier(v *types.Var) *lattice.Qualifier {
	b := ev.b
	if b.refinable[v] {
		if q, ok := ev.s.Get(v); ok {
			return q
		}
		return b.u.declaredVar(v)
	}
	if q, ok := b.summary[v]; ok {
		return q
	}
	return b.u.declaredVar(v)
}

func (ev *evaluator) selector(x *ast.SelectorExpr, res *annotated.Type) {
	u := ev.b.u

	if sel, ok := u.info.Selections[x]; ok {
		ev.AnnotatedTypeOf(x.X)
		if sel.Kind() == types.FieldVal {
			if v, ok := sel.Obj().(*types.Var); ok {
				res.Replace(u.declaredVar(v))
			}
		}
		return
	}

	// Qualified identifier.
	if v, ok := u.info.Uses[x.Sel].(*types.Var); ok {
		res.Replace(u.declaredVar(v))
	}
}

func (ev *evaluator) call(x *ast.CallExpr, res *annotated.Type) {
	u := ev.b.u
	inst := u.inst
	lat := inst.lat

	funType := u.info.Types[x.Fun]
	switch {
	case funType.IsType():
		for _, arg := range x.Args {
			ev.AnnotatedTypeOf(arg)
		}
		inst.annotator.VisitConversion(ev, x, res)
		return

	case funType.IsBuiltin():
		quals := make([]*lattice.Qualifier, 0, len(x.Args))
		for _, arg := range x.Args {
			ev.AnnotatedTypeOf(arg)
			if isNumeric(u.info.TypeOf(arg)) {
				quals = append(quals, ev.qualifierOf(arg))
			}
		}
		if id, ok := ast.Unparen(x.Fun).(*ast.Ident); ok && len(quals) > 0 {
			switch id.Name {
			case "min", "max":
				res.Replace(lat.JoinAll(quals...))
			}
		}
		return
	}

	ev.AnnotatedTypeOf(x.Fun)
	for _, arg := range x.Args {
		ev.AnnotatedTypeOf(arg)
	}

	fn, _ := typeutil.Callee(u.info, x).(*types.Func)
	if fn != nil && inst.markerPkg != "" && fn.Pkg() != nil && fn.Pkg().Path() == inst.markerPkg && len(x.Args) == 1 {
		if q, ok := lat.ByName(fn.Name()); ok {
			res.Replace(q)
		} else {
			// A marker of another checker leaves the value as is.
			res.Replace(ev.qualifierOf(x.Args[0]))
		}
		return
	}

	sig := signatureOf(funType.Type)
	if sig == nil {
		return
	}
	if ev.final {
		ev.checkArgs(x, fn, sig)
	}
	if sig.Results().Len() == 1 {
		res.Replace(u.resultQualifier(fn, sig, 0))
	}
}

// valueAt returns the qualifier of the i-th value of an assignment or declaration.
func (ev *evaluator) valueAt(values []ast.Expr, i int) *lattice.Qualifier {
	if len(values) == 1 && (i > 0 || isTuple(ev.b.u.info.TypeOf(values[0]))) {
		return ev.tupleAt(values[0], i)
	}
	if i >= len(values) {
		return ev.b.u.inst.lat.Top()
	}
	return ev.qualifierOf(values[i])
}

// tupleAt returns the qualifier of the i-th value of a multi-value expression.
func (ev *evaluator) tupleAt(e ast.Expr, i int) *lattice.Qualifier {
	u := ev.b.u
	ev.AnnotatedTypeOf(e)

	if call, ok := ast.Unparen(e).(*ast.CallExpr); ok {
		if sig := signatureOf(u.info.TypeOf(call.Fun)); sig != nil {
			fn, _ := typeutil.Callee(u.info, call).(*types.Func)
			return u.resultQualifier(fn, sig, i)
		}
	}

	// Comma-ok forms: the value and the flag.
	tuple, ok := u.info.TypeOf(e).(*types.Tuple)
	if !ok || i >= tuple.Len() {
		return u.inst.lat.Top()
	}
	return u.defaultFor(defaults.LocationOther, tuple.At(i).Type())
}

func signatureOf(t types.Type) *types.Signature {
	if t == nil {
		return nil
	}
	sig, _ := t.Underlying().(*types.Signature)
	return sig
}

func isTuple(t types.Type) bool {
	_, ok := t.(*types.Tuple)
	return ok
}

// --- Final pass checks ----------------------------------------------------------------------------------------------

func (ev *evaluator) checkOperation(op Operation) {
	inst := ev.b.u.inst
	if !ev.final || inst.operations == nil {
		return
	}
	inst.operations.CheckOperation(ev, op, ev.b.u.ops)
}

func (ev *evaluator) checkArgs(x *ast.CallExpr, fn *types.Func, sig *types.Signature) {
	u := ev.b.u
	params := sig.Params()
	if params.Len() == 0 {
		return
	}

	// Arguments are either listed or come from a single multi-value call.
	count := len(x.Args)
	argAt := func(i int) (*lattice.Qualifier, token.Pos) {
		return ev.qualifierOf(x.Args[i]), x.Args[i].Pos()
	}
	if len(x.Args) == 1 {
		if tuple, ok := u.info.TypeOf(x.Args[0]).(*types.Tuple); ok {
			count = tuple.Len()
			argAt = func(i int) (*lattice.Qualifier, token.Pos) {
				return ev.tupleAt(x.Args[0], i), x.Args[0].Pos()
			}
		}
	}

	for i := range count {
		pi := i
		var ptype types.Type
		switch {
		case sig.Variadic() && i >= params.Len()-1:
			pi = params.Len() - 1
			ptype = params.At(pi).Type()
			if !x.Ellipsis.IsValid() {
				if slice, ok := ptype.Underlying().(*types.Slice); ok {
					ptype = slice.Elem()
				}
			}
		case i < params.Len():
			ptype = params.At(i).Type()
		}

		if !isNumeric(ptype) {
			continue
		}
		q, pos := argAt(i)
		u.check.Check(consistency.SiteArgument, q, u.paramQualifier(fn, pi, ptype), pos)
	}
}

func (ev *evaluator) composite(x *ast.CompositeLit) {
	u := ev.b.u
	typ := u.info.TypeOf(x)
	if typ == nil {
		return
	}
	if ptr, ok := typ.Underlying().(*types.Pointer); ok {
		typ = ptr.Elem()
	}

	var keyType, elemType types.Type
	switch t := typ.Underlying().(type) {
	case *types.Struct:
		ev.structFields(x, t)
		return
	case *types.Map:
		keyType, elemType = t.Key(), t.Elem()
	case *types.Slice:
		elemType = t.Elem()
	case *types.Array:
		elemType = t.Elem()
	}

	for _, elt := range x.Elts {
		value := elt
		if kv, ok := elt.(*ast.KeyValueExpr); ok {
			ev.AnnotatedTypeOf(kv.Key)
			if keyType != nil {
				ev.checkElement(kv.Key, keyType)
			}
			value = kv.Value
		}
		ev.AnnotatedTypeOf(value)
		if elemType != nil {
			ev.checkElement(value, elemType)
		}
	}
}

func (ev *evaluator) structFields(x *ast.CompositeLit, st *types.Struct) {
	u := ev.b.u
	for i, elt := range x.Elts {
		var field *types.Var
		value := elt
		if kv, ok := elt.(*ast.KeyValueExpr); ok {
			if id, ok := kv.Key.(*ast.Ident); ok {
				field, _ = u.info.Uses[id].(*types.Var)
			}
			value = kv.Value
		} else if i < st.NumFields() {
			field = st.Field(i)
		}

		ev.AnnotatedTypeOf(value)
		if !ev.final || field == nil || !isNumeric(field.Type()) {
			continue
		}
		u.check.Check(consistency.SiteCompositeField, ev.qualifierOf(value), u.declaredVar(field), value.Pos())
	}
}

func (ev *evaluator) checkElement(e ast.Expr, typ types.Type) {
	if !ev.final || !isNumeric(typ) {
		return
	}
	u := ev.b.u
	u.check.Check(consistency.SiteCompositeField, ev.qualifierOf(e), u.defaultFor(defaults.LocationOther, typ), e.Pos())
}
