package main

import (
	"fmt"
	"go/ast"
	"go/types"
	"os"
	"slices"
	"strings"
	"sync"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/analysis/singlechecker"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/objectpath"

	"github.com/sirkon/qualcheck/internal/directives"
	"github.com/sirkon/qualcheck/internal/engine"
	"github.com/sirkon/qualcheck/internal/lattice"
	"github.com/sirkon/qualcheck/internal/report"
)

const doc = `qualcheck checks type qualifiers of values

Qualifiers refine Go types with properties the type system does not track, like
signedness of integers kept in signed types. They are declared with //qual:
directives and qual package casts, inferred by flow and checked at assignments,
calls, returns and operations.`

// Analyzer is the main entry point for the linter
var Analyzer = newAnalyzer()

func main() {
	singlechecker.Main(Analyzer)
}

func newAnalyzer() *analysis.Analyzer {
	r := &runner{}

	a := &analysis.Analyzer{
		Name:      "qualcheck",
		Doc:       doc,
		Requires:  []*analysis.Analyzer{inspect.Analyzer},
		FactTypes: []analysis.Fact{(*qualifiersFact)(nil)},
		Run:       r.run,
	}
	a.Flags.StringVar(&r.configPath, "config", "", "path to a YAML or TOML config file")
	a.Flags.Var(&r.checkers, "checkers", "comma separated checkers to run, overrides the config")
	a.Flags.BoolVar(&r.summary, "summary", false, "print a summary of diagnostics to stderr")

	return a
}

// qualifiersFact carries qualifiers declared by directives to importers.
type qualifiersFact struct {
	Names []string
}

func (*qualifiersFact) AFact() {}

func (f *qualifiersFact) String() string {
	return "qual:" + strings.Join(f.Names, ",")
}

type runner struct {
	configPath string
	checkers   checkerList
	summary    bool

	once  sync.Once
	setup *setup
	err   error
}

// setup is shared by passes of every package.
type setup struct {
	cfg       *Config
	instances []*engine.Instance
	vocab     []string
	known     *knownFuncs
	abandon   *knownAbandonFuncs
}

func (r *runner) prepare() (*setup, error) {
	r.once.Do(func() {
		r.setup, r.err = r.newSetup()
	})
	return r.setup, r.err
}

func (r *runner) newSetup() (*setup, error) {
	cfg, err := loadConfig(r.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if len(r.checkers) > 0 {
		cfg.Checkers = r.checkers
	}

	s := &setup{
		cfg:     cfg,
		known:   newKnownFuncs(cfg.Functions),
		abandon: newKnownAbandonFuncs(cfg.NoReturn),
	}
	for _, kind := range cfg.Checkers {
		c, err := kind.newChecker()
		if err != nil {
			return nil, err
		}

		inst := engine.NewInstance(c, engine.WithMarkerPackage(cfg.MarkerPackage))
		s.instances = append(s.instances, inst)
		for _, q := range inst.Lattice().Qualifiers() {
			s.vocab = append(s.vocab, q.Name())
		}
	}

	return s, nil
}

func (r *runner) run(pass *analysis.Pass) (_ any, err error) {
	s, err := r.prepare()
	if err != nil {
		return nil, err
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		cerr, ok := p.(*lattice.ContractError)
		if !ok {
			panic(p)
		}
		err = fmt.Errorf("check package %s: %w", pass.Pkg.Path(), cerr)
	}()

	var rep report.Reporter
	set := directives.NewSet()
	scopes := report.NewScopes()
	scrap := directives.NewScrapEngine(rep.Phase(report.ReportSource))
	scrap.RegisterQualifiers(s.vocab...)
	for _, file := range pass.Files {
		scrap.Scrap(set, scopes, pass.Fset, pass.TypesInfo, file)
	}
	exportFacts(pass, set)

	decls := engine.Chain{set, factDeclarations{pass: pass}, s.known}
	mayReturn := s.abandon.mayReturn(pass.TypesInfo)
	pector := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.FuncDecl)(nil),
	}

	for _, inst := range s.instances {
		unit := inst.NewUnit(engine.UnitConfig{
			Info:      pass.TypesInfo,
			Decls:     decls,
			Reporter:  &rep,
			MayReturn: mayReturn,
		})

		pector.Preorder(nodeFilter, func(node ast.Node) {
			unit.CheckFunc(node.(*ast.FuncDecl)) // No need to assert check since we only get func decls.
		})
		for _, file := range pass.Files {
			for _, decl := range file.Decls {
				if gen, ok := decl.(*ast.GenDecl); ok {
					unit.CheckPackageVars(gen)
				}
			}
		}
	}

	reps := slices.DeleteFunc(rep.Sorted(scopes), func(item report.Report) bool {
		return slices.Contains(s.cfg.Ignore, item.RuleCode)
	})
	for _, item := range reps {
		pass.Report(analysis.Diagnostic{
			Pos:      item.Pos,
			Category: item.RuleCode.Code(),
			Message:  item.RuleCode.Code() + ": " + item.Message,
		})
	}
	if r.summary {
		report.PrintSummary(os.Stderr, pass.Fset, reps)
	}

	return nil, nil
}

// exportFacts makes qualifiers declared for objects reachable by importers available to them.
func exportFacts(pass *analysis.Pass, set *directives.Set) {
	for v, names := range set.All() {
		if v.Pkg() != pass.Pkg {
			continue
		}
		if _, err := objectpath.For(v); err != nil {
			// Locals and other objects out of the package API.
			continue
		}

		pass.ExportObjectFact(v, &qualifiersFact{Names: slices.Clone(names)})
	}
}

// factDeclarations reads qualifiers of imported objects from facts.
type factDeclarations struct {
	pass *analysis.Pass
}

var _ engine.Declarations = factDeclarations{}

func (d factDeclarations) VarQualifiers(v *types.Var) []string {
	if v == nil || v.Pkg() == nil || v.Pkg() == d.pass.Pkg {
		return nil
	}

	var fact qualifiersFact
	if !d.pass.ImportObjectFact(v.Origin(), &fact) {
		return nil
	}
	return fact.Names
}

func (d factDeclarations) ParamQualifiers(fn *types.Func, i int) []string {
	return d.VarQualifiers(tupleVar(fn, i, (*types.Signature).Params))
}

func (d factDeclarations) ResultQualifiers(fn *types.Func, i int) []string {
	return d.VarQualifiers(tupleVar(fn, i, (*types.Signature).Results))
}

func tupleVar(fn *types.Func, i int, tuple func(*types.Signature) *types.Tuple) *types.Var {
	if fn == nil {
		return nil
	}
	sig, ok := fn.Origin().Type().(*types.Signature)
	if !ok {
		return nil
	}

	t := tuple(sig)
	if i < 0 || i >= t.Len() {
		return nil
	}
	return t.At(i)
}
