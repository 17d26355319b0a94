package engine

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/cfg"

	"github.com/sirkon/qualcheck/internal/annotated"
	"github.com/sirkon/qualcheck/internal/consistency"
	"github.com/sirkon/qualcheck/internal/defaults"
	"github.com/sirkon/qualcheck/internal/flow"
	"github.com/sirkon/qualcheck/internal/lattice"
	"github.com/sirkon/qualcheck/internal/report"
)

// UnitConfig describes a compilation unit to check.
type UnitConfig struct {
	Info     *types.Info
	Decls    Declarations
	Reporter *report.Reporter

	// MayReturn reports whether a call may return. Calls that never return end a basic block.
	// Every call may return when it is nil.
	MayReturn func(*ast.CallExpr) bool
}

// Unit checks a single compilation unit with one checker.
type Unit struct {
	inst      *Instance
	info      *types.Info
	decls     Declarations
	check     *consistency.Checker
	ops       *report.ReporterPhase
	mayReturn func(*ast.CallExpr) bool

	types     *annotated.Map
	declared  map[*types.Var]*lattice.Qualifier
	locations map[*types.Var]defaults.Location
	fixed     map[*types.Var]bool
}

// NewUnit creates a unit of the instance.
func (inst *Instance) NewUnit(c UnitConfig) *Unit {
	decls := c.Decls
	if decls == nil {
		decls = NoDeclarations{}
	}
	mayReturn := c.MayReturn
	if mayReturn == nil {
		mayReturn = func(*ast.CallExpr) bool { return true }
	}

	return &Unit{
		inst:      inst,
		info:      c.Info,
		decls:     decls,
		check:     consistency.New(inst.lat, c.Reporter.Phase(report.ReportCheck).Checker(inst.Name())),
		ops:       c.Reporter.Phase(report.ReportOperate).Checker(inst.Name()),
		mayReturn: mayReturn,
		types:     annotated.NewMap(),
		declared:  make(map[*types.Var]*lattice.Qualifier),
		locations: make(map[*types.Var]defaults.Location),
		fixed:     make(map[*types.Var]bool),
	}
}

// TypeOf returns the annotated type computed for e by the last check of its function.
// It returns nil for expressions not checked yet.
func (u *Unit) TypeOf(e ast.Expr) *annotated.Type {
	t, ok := u.types.Get(e)
	if !ok {
		return nil
	}
	return t
}

// CheckFunc checks a function and closures it contains.
func (u *Unit) CheckFunc(decl *ast.FuncDecl) {
	if decl.Body == nil {
		return
	}

	fn, _ := u.info.Defs[decl.Name].(*types.Func)
	if fn == nil {
		return
	}
	sig, _ := fn.Type().(*types.Signature)
	if sig == nil {
		return
	}

	u.analyze(decl.Body, fn, sig, map[*types.Var]*lattice.Qualifier{})
}

// CheckPackageVars checks initializers of package level variables.
func (u *Unit) CheckPackageVars(decl *ast.GenDecl) {
	if decl.Tok != token.VAR {
		return
	}

	b := u.newBody(nil, nil, nil, map[*types.Var]*lattice.Qualifier{})
	s := flow.NewStore(u.inst.lat)
	for _, spec := range decl.Specs {
		if vs, ok := spec.(*ast.ValueSpec); ok {
			b.checkNode(vs, s)
		}
	}
	b.analyzeClosures()
}

// analyze solves flow facts of a function body and checks every node with facts valid at it.
// Closures are analyzed afterwards, when every assignment to captured variables is known.
func (u *Unit) analyze(
	block *ast.BlockStmt,
	fn *types.Func,
	sig *types.Signature,
	summary map[*types.Var]*lattice.Qualifier,
) {
	b := u.newBody(block, fn, sig, summary)

	g := cfg.New(block, u.mayReturn)
	res := flow.Solve(g, u.inst.lat, flow.NewStore(u.inst.lat), b.tr)

	b.tr.final = true
	for _, blk := range g.Blocks {
		if res.In(blk) != nil {
			res.Walk(blk, b.tr, b.checkNode)
			continue
		}

		// Unreachable code is still checked, without any refinement.
		s := flow.NewStore(u.inst.lat)
		for _, n := range blk.Nodes {
			b.checkNode(n, s)
			b.tr.Node(n, s)
		}
	}

	b.analyzeClosures()
}

// --- Declared qualifiers --------------------------------------------------------------------------------------------

// declaredVar returns the qualifier a variable has when flow knows nothing about it.
func (u *Unit) declaredVar(v *types.Var) *lattice.Qualifier {
	if q, ok := u.declared[v]; ok {
		return q
	}

	q := u.explicit(u.decls.VarQualifiers(v))
	if q == nil {
		q = u.defaultFor(u.locationOf(v), v.Type())
	}
	u.declared[v] = q
	return q
}

func (u *Unit) locationOf(v *types.Var) defaults.Location {
	if loc, ok := u.locations[v]; ok {
		return loc
	}
	if v.IsField() {
		return defaults.LocationField
	}
	if v.Pkg() != nil && v.Parent() == v.Pkg().Scope() {
		return defaults.LocationField
	}
	if u.fixed[v] {
		// Locals flow cannot follow have no refined qualifier to wait for.
		return defaults.LocationOther
	}
	return defaults.LocationLocalVariable
}

// paramQualifier returns the qualifier required for the i-th parameter of a call target.
func (u *Unit) paramQualifier(fn *types.Func, i int, typ types.Type) *lattice.Qualifier {
	if fn != nil {
		if q := u.explicit(u.decls.ParamQualifiers(fn, i)); q != nil {
			return q
		}
	}
	return u.defaultFor(defaults.LocationParameter, typ)
}

// resultQualifier returns the qualifier of the i-th result of a call target.
func (u *Unit) resultQualifier(fn *types.Func, sig *types.Signature, i int) *lattice.Qualifier {
	if fn != nil {
		if q := u.explicit(u.decls.ResultQualifiers(fn, i)); q != nil {
			return q
		}
	}
	if sig == nil || i >= sig.Results().Len() {
		return u.inst.lat.Top()
	}
	return u.defaultFor(defaults.LocationReturn, sig.Results().At(i).Type())
}

func (u *Unit) defaultFor(loc defaults.Location, typ types.Type) *lattice.Qualifier {
	t := u.inst.defaults.Apply(defaults.Site{Location: loc}, annotated.New(typ))
	q, _ := t.Primary(u.inst.lat)
	return q
}

// explicit picks the first name belonging to the checker lattice.
func (u *Unit) explicit(names []string) *lattice.Qualifier {
	for _, name := range names {
		if q, ok := u.inst.lat.ByName(name); ok {
			return q
		}
	}
	return nil
}

func isNumeric(t types.Type) bool {
	return annotated.KindOf(t).IsNumeric()
}
